package receipt

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"
)

// Store is a flat, filesystem-backed artifact store for normalized receipt
// images. Files are append-only and exclusively owned by the store: nothing
// else renames or deletes them, and the retention sweep is the only
// eviction path. Unique filenames and TTL-only deletion make concurrent
// writes and sweeps safe without locking.
type Store struct {
	basePath  string
	urlPrefix string
}

// NewStore creates a Store rooted at basePath, creating the directory if
// needed. urlPrefix is the public URL path under which the directory is
// served statically.
func NewStore(basePath string, urlPrefix string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	if urlPrefix == "" {
		urlPrefix = "/uploads"
	}

	return &Store{
		basePath:  basePath,
		urlPrefix: urlPrefix,
	}, nil
}

// BasePath returns the store's root directory.
func (s *Store) BasePath() string {
	return s.basePath
}

// Save writes a file into the store and returns its full path.
func (s *Store) Save(filename string, data []byte) (string, error) {
	fullPath := filepath.Join(s.basePath, filename)
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return "", &StorageWriteError{Err: err}
	}
	return fullPath, nil
}

// PublicURL maps a stored filename to its public URL. Pure string mapping,
// no I/O.
func (s *Store) PublicURL(filename string) string {
	return path.Join(s.urlPrefix, filepath.Base(filename))
}

// SweepExpired deletes files in the store root older than the retention
// window, judged by modification time. Failures on individual files are
// logged and skipped so one unreadable file cannot abort the sweep; a
// missing store directory is a no-op.
func (s *Store) SweepExpired(retention time.Duration) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Error("Failed to list upload directory", "path", s.basePath, "error", err)
		}
		return
	}

	now := time.Now()
	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			slog.Warn("Failed to stat upload", "filename", entry.Name(), "error", err)
			continue
		}
		if now.Sub(info.ModTime()) <= retention {
			continue
		}
		if err := os.Remove(filepath.Join(s.basePath, entry.Name())); err != nil {
			slog.Warn("Failed to delete expired upload", "filename", entry.Name(), "error", err)
			continue
		}
		deleted++
	}

	if deleted > 0 {
		slog.Info("Upload cleanup complete", "deleted", deleted)
	}
}

// Sweep runs SweepExpired in a background goroutine so a slow directory
// scan never blocks the upload path. Errors stay contained in the sweep.
func (s *Store) Sweep(retention time.Duration) {
	go s.SweepExpired(retention)
}
