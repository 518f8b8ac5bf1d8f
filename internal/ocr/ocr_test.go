package ocr

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(5, 5, color.Black)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	img, err := Decode(testPNG(t, 40, 30))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 40, 30), img.Bounds())

	_, err = Decode([]byte("not an image"))
	assert.Error(t, err)
}

func TestCropPNG(t *testing.T) {
	img, err := Decode(testPNG(t, 40, 30))
	require.NoError(t, err)

	out, err := CropPNG(img, image.Rect(0, 0, 10, 8))
	require.NoError(t, err)
	crop, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 10, 8), crop.Bounds())
	r, g, b, _ := crop.At(5, 5).RGBA()
	assert.Zero(t, r+g+b)

	clamped, err := CropPNG(img, image.Rect(30, 20, 100, 100))
	require.NoError(t, err)
	crop, err = png.Decode(bytes.NewReader(clamped))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 10, 10), crop.Bounds())

	_, err = CropPNG(img, image.Rect(50, 50, 60, 60))
	assert.Error(t, err)
}
