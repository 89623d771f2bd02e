package capture_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"photobooth/internal/capture"
)

func writeFile(t *testing.T, path string, mod time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte("video"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

func TestNewLocatorCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "StreamingAssets", "Videos")
	loc, err := capture.NewLocator(dir, "mp4")
	if err != nil {
		t.Fatalf("NewLocator returned error: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("expected directory to be created: %v", err)
	}
	if loc.Dir() != dir {
		t.Fatalf("unexpected dir %q", loc.Dir())
	}
	path, ok, err := loc.FindNewest()
	if err != nil || ok || path != "" {
		t.Fatalf("expected empty result, got %q %v %v", path, ok, err)
	}
}

func TestFindNewestPicksLatestModification(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)
	writeFile(t, filepath.Join(dir, "b.mp4"), base)
	writeFile(t, filepath.Join(dir, "a.MP4"), base.Add(10*time.Minute))
	writeFile(t, filepath.Join(dir, "c.mov"), base.Add(20*time.Minute))
	writeFile(t, filepath.Join(dir, "notes.txt"), base.Add(30*time.Minute))
	if err := os.Mkdir(filepath.Join(dir, "z.mp4"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	loc, err := capture.NewLocator(dir, ".mp4")
	if err != nil {
		t.Fatalf("NewLocator returned error: %v", err)
	}
	path, ok, err := loc.FindNewest()
	if err != nil || !ok {
		t.Fatalf("expected a match, got %v %v", ok, err)
	}
	if filepath.Base(path) != "a.MP4" {
		t.Fatalf("expected newest mp4 a.MP4, got %q", path)
	}
}

func TestFindNewestBreaksTiesByName(t *testing.T) {
	dir := t.TempDir()
	mod := time.Now().Add(-time.Minute).Truncate(time.Second)
	writeFile(t, filepath.Join(dir, "session-1.mp4"), mod)
	writeFile(t, filepath.Join(dir, "session-2.mp4"), mod)

	loc, err := capture.NewLocator(dir, ".mp4")
	if err != nil {
		t.Fatalf("NewLocator returned error: %v", err)
	}
	for i := 0; i < 3; i++ {
		path, ok, err := loc.FindNewest()
		if err != nil || !ok {
			t.Fatalf("expected a match, got %v %v", ok, err)
		}
		if filepath.Base(path) != "session-2.mp4" {
			t.Fatalf("expected deterministic tie-break, got %q", path)
		}
	}
}

func TestFindNewestMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "videos")
	loc, err := capture.NewLocator(dir, ".mp4")
	if err != nil {
		t.Fatalf("NewLocator returned error: %v", err)
	}
	if err := os.RemoveAll(dir); err != nil {
		t.Fatalf("remove: %v", err)
	}
	path, ok, err := loc.FindNewest()
	if err != nil || ok || path != "" {
		t.Fatalf("expected absent result for missing dir, got %q %v %v", path, ok, err)
	}
}

func TestNewLocatorRequiresDirectory(t *testing.T) {
	if _, err := capture.NewLocator("  ", ".mp4"); err == nil {
		t.Fatal("expected error for empty directory")
	}
}
