package disk

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/javokhirdev/newsline-backend/pkg/config"
)

// ErrInvalidPath signals a stored path that escapes the upload root.
var ErrInvalidPath = errors.New("invalid storage path")

// Store persists uploaded files under a single public root directory.
// Stored paths are web paths like /uploads/images/<name> and resolve
// relative to the configured root.
type Store struct {
	root string
}

func New(cfg config.UploadsConfig) (*Store, error) {
	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, errors.New("uploads dir is required")
	}
	abs, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("resolving uploads dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("creating uploads dir: %w", err)
	}
	return &Store{root: abs}, nil
}

// Root returns the absolute directory files are stored under.
func (s *Store) Root() string {
	return s.root
}

// Save streams src to the file addressed by the stored path, creating
// intermediate directories as needed.
func (s *Store) Save(storedPath string, src io.Reader) (int64, error) {
	full, err := s.resolve(storedPath)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return 0, fmt.Errorf("creating media dir: %w", err)
	}

	dst, err := os.Create(full)
	if err != nil {
		return 0, fmt.Errorf("creating media file: %w", err)
	}
	written, err := io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(full)
		return 0, fmt.Errorf("writing media file: %w", err)
	}
	return written, nil
}

// Remove deletes the file addressed by the stored path. A missing file
// is not an error so reclaim passes stay idempotent.
func (s *Store) Remove(storedPath string) error {
	full, err := s.resolve(storedPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing media file: %w", err)
	}
	return nil
}

// Exists reports whether the stored path currently has a file on disk.
func (s *Store) Exists(storedPath string) (bool, error) {
	full, err := s.resolve(storedPath)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Store) resolve(storedPath string) (string, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(storedPath), "/")
	if trimmed == "" {
		return "", ErrInvalidPath
	}
	full := filepath.Join(s.root, filepath.FromSlash(trimmed))
	// Join cleans the path; anything that climbed out of the root is rejected.
	if full != s.root && !strings.HasPrefix(full, s.root+string(os.PathSeparator)) {
		return "", ErrInvalidPath
	}
	return full, nil
}
