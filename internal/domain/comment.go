package domain

import "time"

// Comment is a remark on a photo. A comment may reply to another comment
// on the same photo; replies are one level deep.
type Comment struct {
	ID        string    `json:"id"`
	Body      string    `json:"body"`
	PhotoID   string    `json:"photo_id"`
	AuthorID  string    `json:"author_id"`
	RepliedID string    `json:"replied_id,omitempty"`
	Flag      int       `json:"flag"`
	CreatedAt time.Time `json:"created_at"`
}
