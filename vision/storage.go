// Package vision - storage.go
//
// Screenshot storage. Every named check gets its own folder under
// data/screenshots/<name>/ and only the newest few files are kept:
//
//   data/screenshots/base_load_check/base_load_check_20250101_120000.png
//
// Files are written and read with imgo.
package vision

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/vcaesar/imgo"
)

// Storage defaults
const (
	DefaultScreenshotDir   = "data/screenshots"
	DefaultScreenshotLimit = 10
)

// ScreenshotStore manages rotating screenshot folders
type ScreenshotStore struct {
	Dir   string
	Limit int
	Now   func() time.Time
	log   zerolog.Logger
}

// NewScreenshotStore creates a store rooted at dir
func NewScreenshotStore(dir string, log zerolog.Logger) *ScreenshotStore {
	if dir == "" {
		dir = DefaultScreenshotDir
	}
	return &ScreenshotStore{Dir: dir, Limit: DefaultScreenshotLimit, Now: time.Now, log: log}
}

// NewPath creates the folder for name, removes the oldest files so a new one
// fits under the limit, and returns a fresh timestamped path
func (s *ScreenshotStore) NewPath(name string) (string, error) {
	dir := filepath.Join(s.Dir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create screenshot dir: %w", err)
	}
	s.cleanup(dir, name)

	ts := s.Now().Format("20060102_150405.000000")
	return filepath.Join(dir, fmt.Sprintf("%s_%s.png", name, ts)), nil
}

// Save writes img under name and returns its path
func (s *ScreenshotStore) Save(name string, img image.Image) (string, error) {
	path, err := s.NewPath(name)
	if err != nil {
		return "", err
	}
	if err := imgo.Save(path, img); err != nil {
		return "", fmt.Errorf("failed to save screenshot: %w", err)
	}
	s.log.Debug().Str("path", path).Msg("screenshot saved")
	return path, nil
}

// Load reads a stored screenshot
func (s *ScreenshotStore) Load(path string) (image.Image, error) {
	img, err := imgo.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read screenshot %s: %w", path, err)
	}
	return img, nil
}

// Files lists stored screenshots for name, oldest first
func (s *ScreenshotStore) Files(name string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(s.Dir, name, name+"_*.png"))
	if err != nil {
		return nil, fmt.Errorf("failed to list screenshots: %w", err)
	}
	type entry struct {
		path string
		mod  time.Time
	}
	entries := make([]entry, 0, len(files))
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		entries = append(entries, entry{path: f, mod: info.ModTime()})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].mod.Equal(entries[j].mod) {
			return entries[i].path < entries[j].path
		}
		return entries[i].mod.Before(entries[j].mod)
	})
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.path
	}
	return out, nil
}

// cleanup removes the oldest files until fewer than Limit remain
func (s *ScreenshotStore) cleanup(dir, name string) {
	limit := s.Limit
	if limit <= 0 {
		limit = DefaultScreenshotLimit
	}
	files, err := s.Files(name)
	if err != nil {
		s.log.Warn().Err(err).Str("dir", dir).Msg("screenshot cleanup skipped")
		return
	}
	for len(files) >= limit {
		oldest := files[0]
		files = files[1:]
		if err := os.Remove(oldest); err != nil {
			s.log.Warn().Err(err).Str("file", oldest).Msg("failed to remove old screenshot")
			continue
		}
		s.log.Debug().Str("file", oldest).Msg("removed old screenshot")
	}
}
