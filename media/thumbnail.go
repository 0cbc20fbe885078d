package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"

	"golang.org/x/image/draw"
)

const (
	maxThumbnailWidth = 800
	jpegQuality       = 80

	// MaxUploadSize bounds incoming thumbnail files (10MB).
	MaxUploadSize = 10 << 20
)

// ProcessThumbnail decodes an image, downscales it to maxThumbnailWidth if
// wider, and re-encodes it as JPEG ready for upload.
func ProcessThumbnail(src io.Reader) ([]byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxThumbnailWidth {
		newH := h * maxThumbnailWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxThumbnailWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
