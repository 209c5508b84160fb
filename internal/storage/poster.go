package storage

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// ErrUnsupportedImage is returned for uploads that do not decode as an image.
var ErrUnsupportedImage = errors.New("unsupported image format")

// NormalizePoster decodes a JPEG, PNG, GIF or WebP image, applies its EXIF
// orientation, shrinks it to fit maxDim on its longest edge and re-encodes
// it as lossy WebP.  Smaller images keep their size.
func NormalizePoster(data []byte, maxDim, quality int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	b := img.Bounds()
	if maxDim > 0 && (b.Dx() > maxDim || b.Dy() > maxDim) {
		img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	}
	if quality < 1 || quality > 100 {
		quality = 85
	}
	var out bytes.Buffer
	if err := webp.Encode(&out, img, &webp.Options{Lossless: false, Quality: float32(quality)}); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return out.Bytes(), nil
}
