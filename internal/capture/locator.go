package capture

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Locator resolves the newest capture file in a directory.
type Locator struct {
	dir string
	ext string
}

// NewLocator returns a locator for dir, creating the directory when absent.
// ext is matched case-insensitively and may be given with or without a dot.
func NewLocator(dir, ext string) (*Locator, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("capture directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create capture directory %q: %w", dir, err)
	}
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &Locator{dir: dir, ext: ext}, nil
}

// Dir returns the directory being searched.
func (l *Locator) Dir() string {
	return l.dir
}

// FindNewest returns the path of the most recently modified matching file.
// Ties on modification time go to the lexically greatest name. A missing
// directory or no match reports ("", false, nil).
func (l *Locator) FindNewest() (string, bool, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read capture directory: %w", err)
	}

	var (
		bestName string
		bestTime time.Time
	)
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if l.ext != "" && strings.ToLower(filepath.Ext(name)) != l.ext {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed between listing and stat.
			continue
		}
		mod := info.ModTime()
		if bestName == "" || mod.After(bestTime) || (mod.Equal(bestTime) && name > bestName) {
			bestName = name
			bestTime = mod
		}
	}
	if bestName == "" {
		return "", false, nil
	}
	return filepath.Join(l.dir, bestName), true, nil
}
