// Package storage persists uploaded files.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cinelog/internal/middleware"
)

// PublicPrefix is the URL path under which stored files are served.
const PublicPrefix = "/uploads"

// ErrInvalidPath is returned for names that would escape the storage root.
var ErrInvalidPath = errors.New("invalid storage path")

// Storage saves and removes files addressed by their public path.
type Storage interface {
	Save(ctx context.Context, dir, name string, data []byte) (string, error)
	Remove(ctx context.Context, publicPath string) error
}

// LocalStorage keeps files on the local filesystem under basePath.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates basePath and the given subdirectories.
func NewLocalStorage(basePath string, dirs ...string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(filepath.Join(basePath, dir), 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir %s: %w", dir, err)
		}
	}
	return &LocalStorage{basePath: basePath}, nil
}

// BasePath is the directory served under PublicPrefix.
func (s *LocalStorage) BasePath() string {
	return s.basePath
}

// Save writes data to <base>/<dir>/<name> and returns "/uploads/<dir>/<name>".
func (s *LocalStorage) Save(ctx context.Context, dir, name string, data []byte) (string, error) {
	if !safeSegment(dir) || !safeSegment(name) {
		return "", ErrInvalidPath
	}
	full := filepath.Join(s.basePath, dir, name)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	middleware.Logger.DebugContext(ctx, "file stored", slog.String("path", full), slog.Int("bytes", len(data)))
	return path.Join(PublicPrefix, dir, name), nil
}

// Remove deletes the file behind publicPath. Missing files are not an error.
func (s *LocalStorage) Remove(_ context.Context, publicPath string) error {
	full, err := s.Resolve(publicPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// Resolve maps a public path to its location on disk.
func (s *LocalStorage) Resolve(publicPath string) (string, error) {
	rel, ok := strings.CutPrefix(publicPath, PublicPrefix+"/")
	if !ok {
		return "", ErrInvalidPath
	}
	clean := path.Clean(rel)
	if clean == "." || strings.HasPrefix(clean, "..") || path.IsAbs(clean) {
		return "", ErrInvalidPath
	}
	return filepath.Join(s.basePath, filepath.FromSlash(clean)), nil
}

func safeSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}
