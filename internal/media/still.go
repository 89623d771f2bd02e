package media

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"

	"photobooth/internal/services"
)

// StillStore holds the most recent captured still. Safe for concurrent use.
type StillStore struct {
	mu       sync.RWMutex
	img      image.Image
	captured time.Time
}

// NewStillStore returns an empty store.
func NewStillStore() *StillStore {
	return &StillStore{}
}

// Set replaces the current still. A nil image clears the store.
func (s *StillStore) Set(img image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.img = img
	if img == nil {
		s.captured = time.Time{}
		return
	}
	s.captured = time.Now()
}

// Clear drops the current still.
func (s *StillStore) Clear() {
	s.Set(nil)
}

// Still returns the current still and whether one is present.
func (s *StillStore) Still() (image.Image, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.img, s.img != nil
}

// CapturedAt reports when the current still was stored.
func (s *StillStore) CapturedAt() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.captured, s.img != nil
}

// LoadStill opens an image file, applying EXIF orientation.
func LoadStill(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "still", "open", path, err)
	}
	return img, nil
}

// DecodeStill decodes an uploaded still after checking its content type.
// Only JPEG and PNG stills are accepted.
func DecodeStill(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "still", "read", "", err)
	}
	mtype := mimetype.Detect(data)
	if !mtype.Is("image/jpeg") && !mtype.Is("image/png") {
		return nil, services.Wrap(services.ErrValidation, "still", "decode", fmt.Sprintf("unsupported content type %s", mtype.String()), nil)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "still", "decode", "", err)
	}
	return img, nil
}
