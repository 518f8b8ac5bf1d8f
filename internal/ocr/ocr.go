// Package ocr defines the engine contract shared by the Vision and tesseract
// backends plus the image helpers both need.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	"image/png"

	"github.com/dheekshanaveen/agentic-lending-systems/internal/models"
)

// ErrNoText is returned when an engine recognized nothing in the image.
var ErrNoText = errors.New("no text recognized")

// Engine converts an image into recognized text with word boxes and can
// re-read a sub-rectangle of it as a single line.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, content []byte) (models.RecognizedDocument, error)
	RecognizeRegion(ctx context.Context, img image.Image, r image.Rectangle) (string, error)
}

// Decode parses a PNG or JPEG upload.
func Decode(content []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// CropPNG copies r out of img and encodes it as PNG.
func CropPNG(img image.Image, r image.Rectangle) ([]byte, error) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return nil, fmt.Errorf("crop %v outside image %v", r, img.Bounds())
	}
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), img, r.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode crop: %w", err)
	}
	return buf.Bytes(), nil
}
