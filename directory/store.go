// Package directory keeps the destination directory for received files.
package directory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/moyoez/qrsend/tool"
)

// ErrDirectoryValidationFailed is returned when a chosen path is not a usable directory.
var ErrDirectoryValidationFailed = errors.New("directory validation failed")

// DefaultResolver returns the platform default download location.
type DefaultResolver interface {
	ResolveDefaultDirectory(ctx context.Context) (string, error)
}

// Persister stores the user's choice across restarts.
// LoadDirectory returns "" when nothing was persisted.
type Persister interface {
	LoadDirectory() (string, error)
	PersistDirectory(path string) error
}

// Store resolves the directory once and serves the cached value afterwards.
type Store struct {
	resolver  DefaultResolver
	persister Persister

	mu       sync.Mutex
	cached   string
	resolved bool
}

func NewStore(resolver DefaultResolver, persister Persister) *Store {
	return &Store{resolver: resolver, persister: persister}
}

// Get returns the persisted directory, or the platform default if none was ever set.
func (s *Store) Get(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resolved {
		return s.cached, nil
	}

	dir, err := s.persister.LoadDirectory()
	if err != nil {
		tool.DefaultLogger.Warnf("[Directory] Failed to load persisted directory: %v", err)
	}
	if dir == "" {
		if dir, err = s.resolver.ResolveDefaultDirectory(ctx); err != nil {
			return "", fmt.Errorf("failed to resolve default directory: %w", err)
		}
		tool.DefaultLogger.Debugf("[Directory] Using default download directory %s", dir)
	}
	s.cached = dir
	s.resolved = true
	return dir, nil
}

// Set persists path and makes it the cached value. The path is not validated here;
// callers run ValidateDirectory first.
func (s *Store) Set(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persister.PersistDirectory(path); err != nil {
		return err
	}
	s.cached = path
	s.resolved = true
	tool.DefaultLogger.Infof("[Directory] Download directory changed to %s", path)
	return nil
}

// Override makes path the directory for this process without persisting it. A later Set
// still persists and replaces it.
func (s *Store) Override(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = path
	s.resolved = true
	tool.DefaultLogger.Infof("[Directory] Download directory overridden for this run: %s", path)
}

// ValidateDirectory checks that path names an existing directory.
func ValidateDirectory(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty path", ErrDirectoryValidationFailed)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDirectoryValidationFailed, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrDirectoryValidationFailed, path)
	}
	return nil
}
