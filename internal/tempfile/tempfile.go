// Package tempfile stages short-lived files, such as preprocessed images
// handed to an external recognition binary, and removes them afterwards.
package tempfile

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

// Scope owns the temporary files created through it. Cleanup removes all of
// them. A Scope is safe for concurrent use.
type Scope struct {
	dir string

	mu    sync.Mutex
	files []string
}

// NewScope creates a Scope that stages files in dir. An empty dir selects
// os.TempDir.
func NewScope(dir string) *Scope {
	return &Scope{dir: dir}
}

// Dir returns the directory files are staged in.
func (s *Scope) Dir() string {
	if s.dir == "" {
		return os.TempDir()
	}
	return s.dir
}

// Write stores data in a new file whose name is built from pattern as in
// os.CreateTemp and returns its path.
func (s *Scope) Write(pattern string, data []byte) (string, error) {
	f, err := os.CreateTemp(s.dir, pattern)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()
	s.track(path)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", fmt.Errorf("write temp file %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close temp file %s: %w", path, err)
	}
	return path, nil
}

// Files returns the paths currently owned by the scope.
func (s *Scope) Files() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.files...)
}

// Cleanup removes every file owned by the scope. Files that are already gone
// are ignored. It may be called more than once.
func (s *Scope) Cleanup() error {
	s.mu.Lock()
	files := s.files
	s.files = nil
	s.mu.Unlock()

	var errs []error
	for _, path := range files {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove temp file %s: %w", path, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Scope) track(path string) {
	s.mu.Lock()
	s.files = append(s.files, path)
	s.mu.Unlock()
}
