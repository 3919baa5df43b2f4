package domain

import "time"

// Photo represents an uploaded photo and its generated renditions.
type Photo struct {
	ID          string `json:"id"`
	AuthorID    string `json:"author_id"`
	Description string `json:"description,omitempty"`

	// Filename is the original-size file. FilenameM and FilenameS are the
	// medium and small renditions; they equal Filename when the source
	// image was already narrower than the target width.
	Filename  string `json:"filename"`
	FilenameM string `json:"filename_m"`
	FilenameS string `json:"filename_s"`

	// Blurhash is a compact placeholder string computed from the small
	// rendition, empty if encoding failed.
	Blurhash string `json:"blurhash,omitempty"`

	CanComment bool `json:"can_comment"`
	Flag       int  `json:"flag"`

	CreatedAt time.Time `json:"created_at"`
}

// Tag is a label attached to photos by their authors.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
