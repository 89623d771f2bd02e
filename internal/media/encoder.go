package media

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"

	"photobooth/internal/services"
)

// DefaultJPEGQuality matches the quality mail clients receive from the booth.
const DefaultJPEGQuality = 85

// Encoder converts in-memory images to JPEG.
type Encoder struct {
	quality int
}

// NewEncoder returns an encoder using quality, or DefaultJPEGQuality when the
// value is outside 1..100.
func NewEncoder(quality int) *Encoder {
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return &Encoder{quality: quality}
}

// Quality reports the JPEG quality used by the encoder.
func (e *Encoder) Quality() int {
	return e.quality
}

// EncodeJPEG returns the JPEG bytes of img. The output is identical for
// identical input.
func (e *Encoder) EncodeJPEG(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, services.Wrap(services.ErrEncodingFailed, "encode", "jpeg", "no image supplied", nil)
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, services.Wrap(services.ErrEncodingFailed, "encode", "jpeg", "image has zero area", nil)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: e.quality}); err != nil {
		return nil, services.Wrap(services.ErrEncodingFailed, "encode", "jpeg", "", err)
	}
	if buf.Len() == 0 {
		return nil, services.Wrap(services.ErrEncodingFailed, "encode", "jpeg", "encoder produced no bytes", nil)
	}
	return buf.Bytes(), nil
}

// ToPortableText encodes data as standard base64 without line wrapping.
func ToPortableText(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
