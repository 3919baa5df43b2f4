package images

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/bbrks/go-blurhash"
	"github.com/nfnt/resize"

	"github.com/MingruiWang2017/albumy/internal/id"
)

// blurHashSize is the target size for BlurHash computation.
// BlurHash doesn't need high resolution - a small thumbnail produces nearly
// identical results at a fraction of the cost.
const blurHashSize = 64

// Renditions holds the stored filenames for all sizes of one uploaded photo
// and the BlurHash placeholder computed from the small rendition.
type Renditions struct {
	Original string
	Medium   string
	Small    string
	Blurhash string
}

// Pipeline decodes uploads, generates renditions, and stores them.
type Pipeline struct {
	storage *Storage
	logger  *slog.Logger
	prefix  string
	sizeS   uint
	sizeM   uint
}

// NewPipeline creates a pipeline writing through the given storage.
// sizeS and sizeM are the target widths of the small and medium renditions.
func NewPipeline(storage *Storage, sizeS, sizeM int, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		storage: storage,
		logger:  logger,
		prefix:  "photo",
		sizeS:   uint(sizeS),
		sizeM:   uint(sizeM),
	}
}

// WithPrefix changes the prefix of generated filenames. Avatars use this so
// their files are distinguishable from photo uploads.
func (p *Pipeline) WithPrefix(prefix string) *Pipeline {
	p.prefix = prefix
	return p
}

// Process validates and stores an uploaded photo.
// The original filename only contributes its extension; the stored name is a
// fresh random one so uploads can never collide or leak the client's name.
// Renditions keep the original's aspect ratio and are skipped (the original
// filename is reused) when the source is already narrower than the target.
func (p *Pipeline) Process(originalName string, data []byte) (*Renditions, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	if ext != ".jpg" && ext != ".png" {
		return nil, fmt.Errorf("unsupported image type: %s", ext)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	// The extension must match the actual content.
	if (ext == ".jpg" && format != "jpeg") || (ext == ".png" && format != "png") {
		return nil, fmt.Errorf("image content does not match extension %s", ext)
	}

	base, err := id.Generate(p.prefix)
	if err != nil {
		return nil, fmt.Errorf("generate filename: %w", err)
	}

	original := base + ext
	if err := p.storage.Save(original, data); err != nil {
		return nil, fmt.Errorf("save original: %w", err)
	}

	r := &Renditions{Original: original, Medium: original, Small: original}

	medium, err := p.rendition(img, base, ext, format, p.sizeM, "_m")
	if err != nil {
		return nil, err
	}
	if medium != "" {
		r.Medium = medium
	}

	small, err := p.rendition(img, base, ext, format, p.sizeS, "_s")
	if err != nil {
		return nil, err
	}
	if small != "" {
		r.Small = small
	}

	if hash, err := computeBlurHash(img); err == nil {
		r.Blurhash = hash
	} else {
		p.logger.Warn("blurhash encoding failed", "filename", original, "error", err)
	}

	return r, nil
}

// rendition resizes img to the given width, keeping aspect ratio, and stores
// it as {base}{suffix}{ext}. Returns "" when the source is already narrower.
func (p *Pipeline) rendition(img image.Image, base, ext, format string, width uint, suffix string) (string, error) {
	if uint(img.Bounds().Dx()) <= width {
		return "", nil
	}

	resized := resize.Resize(width, 0, img, resize.Lanczos3)

	var buf bytes.Buffer
	switch format {
	case "png":
		err := png.Encode(&buf, resized)
		if err != nil {
			return "", fmt.Errorf("encode rendition: %w", err)
		}
	default:
		err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85})
		if err != nil {
			return "", fmt.Errorf("encode rendition: %w", err)
		}
	}

	filename := base + suffix + ext
	if err := p.storage.Save(filename, buf.Bytes()); err != nil {
		return "", fmt.Errorf("save rendition: %w", err)
	}

	return filename, nil
}

// computeBlurHash generates a BlurHash string from a decoded image.
// Uses 4x3 components for a good balance of size (~20-30 chars) and detail.
// The image is scaled down first so encoding stays cheap.
func computeBlurHash(img image.Image) (string, error) {
	return blurhash.Encode(4, 3, resizeForBlurHash(img))
}

// resizeForBlurHash creates a small thumbnail suitable for BlurHash computation.
// Uses simple nearest-neighbor scaling which is fast and sufficient for BlurHash.
func resizeForBlurHash(img image.Image) image.Image {
	bounds := img.Bounds()
	srcWidth := bounds.Dx()
	srcHeight := bounds.Dy()

	if srcWidth <= blurHashSize && srcHeight <= blurHashSize {
		return img
	}

	var dstWidth, dstHeight int
	if srcWidth > srcHeight {
		dstWidth = blurHashSize
		dstHeight = (srcHeight * blurHashSize) / srcWidth
		if dstHeight < 1 {
			dstHeight = 1
		}
	} else {
		dstHeight = blurHashSize
		dstWidth = (srcWidth * blurHashSize) / srcHeight
		if dstWidth < 1 {
			dstWidth = 1
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstWidth, dstHeight))

	xRatio := float64(srcWidth) / float64(dstWidth)
	yRatio := float64(srcHeight) / float64(dstHeight)

	for y := 0; y < dstHeight; y++ {
		for x := 0; x < dstWidth; x++ {
			srcX := int(float64(x) * xRatio)
			srcY := int(float64(y) * yRatio)
			dst.Set(x, y, img.At(bounds.Min.X+srcX, bounds.Min.Y+srcY))
		}
	}

	return dst
}
