package media_test

import (
	"bytes"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"photobooth/internal/media"
	"photobooth/internal/services"
)

func TestStillStoreSetAndClear(t *testing.T) {
	store := media.NewStillStore()
	if _, ok := store.Still(); ok {
		t.Fatal("expected empty store")
	}

	store.Set(whiteImage(4, 4))
	img, ok := store.Still()
	if !ok || img.Bounds().Dx() != 4 {
		t.Fatalf("expected stored still, got %v %v", img, ok)
	}
	if at, ok := store.CapturedAt(); !ok || at.IsZero() {
		t.Fatal("expected capture time")
	}

	store.Clear()
	if _, ok := store.Still(); ok {
		t.Fatal("expected store to be cleared")
	}
}

func TestDecodeStillAcceptsPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, whiteImage(8, 6)); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	img, err := media.DecodeStill(&buf)
	if err != nil {
		t.Fatalf("DecodeStill returned error: %v", err)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 6 {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
}

func TestDecodeStillRejectsNonImage(t *testing.T) {
	_, err := media.DecodeStill(strings.NewReader("definitely not an image"))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoadStillFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "still.png")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := png.Encode(file, whiteImage(10, 20)); err != nil {
		t.Fatalf("encode: %v", err)
	}
	file.Close()

	img, err := media.LoadStill(path)
	if err != nil {
		t.Fatalf("LoadStill returned error: %v", err)
	}
	if img.Bounds().Dy() != 20 {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
	if _, err := media.LoadStill(filepath.Join(t.TempDir(), "missing.jpg")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
