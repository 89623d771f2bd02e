package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"strings"
	"sync"
	"time"

	"photobooth/internal/fileutil"
)

// FileSurface writes each artifact as a PNG at a fixed path.
type FileSurface struct {
	path string
}

// NewFileSurface returns a surface writing to path.
func NewFileSurface(path string) *FileSurface {
	return &FileSurface{path: strings.TrimSpace(path)}
}

// Show replaces the PNG atomically.
func (s *FileSurface) Show(_ context.Context, artifact Rendered) error {
	if s.path == "" {
		return errors.New("artifact path not configured")
	}
	data, err := encodePNG(artifact)
	if err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(s.path, data, 0o644)
}

// MemorySurface keeps the most recent artifact in memory.
type MemorySurface struct {
	mu        sync.RWMutex
	png       []byte
	url       string
	updatedAt time.Time
}

// NewMemorySurface returns an empty in-memory surface.
func NewMemorySurface() *MemorySurface {
	return &MemorySurface{}
}

// Show stores the artifact as PNG bytes.
func (s *MemorySurface) Show(_ context.Context, artifact Rendered) error {
	data, err := encodePNG(artifact)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.png = data
	s.url = artifact.URL
	s.updatedAt = time.Now()
	return nil
}

// Latest returns the most recent PNG, the URL it encodes, and when it was shown.
func (s *MemorySurface) Latest() ([]byte, string, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.png) == 0 {
		return nil, "", time.Time{}, false
	}
	out := make([]byte, len(s.png))
	copy(out, s.png)
	return out, s.url, s.updatedAt, true
}

// MultiSurface shows an artifact on every member surface and joins the errors.
type MultiSurface []Surface

// Show forwards to each surface in order.
func (m MultiSurface) Show(ctx context.Context, artifact Rendered) error {
	var errs []error
	for _, surface := range m {
		if surface == nil {
			continue
		}
		if err := surface.Show(ctx, artifact); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func encodePNG(artifact Rendered) ([]byte, error) {
	if artifact.Image == nil {
		return nil, errors.New("artifact has no image")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, artifact.Image); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
