// Package storage publishes minted tokens to their destinations.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/axent-pl/jwtmint/common"
)

// TokenSink stores an artifact under name.
type TokenSink interface {
	Put(ctx context.Context, name string, artifact common.Artifact) error
}

// FileSink writes artifacts to files below Dir. An empty Dir resolves
// names against the working directory.
type FileSink struct {
	Dir string
}

func (s FileSink) Path(name string) string {
	return filepath.Join(s.Dir, name)
}

func (s FileSink) Put(ctx context.Context, name string, artifact common.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("%w: empty file name", common.ErrInvalidInput)
	}
	path := s.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, artifact.Bytes, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// MemorySink keeps artifacts in memory.
type MemorySink struct {
	mu    sync.RWMutex
	items map[string]common.Artifact
}

func NewMemorySink() *MemorySink {
	return &MemorySink{items: make(map[string]common.Artifact)}
}

func (s *MemorySink) Put(_ context.Context, name string, artifact common.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[name] = artifact
	return nil
}

func (s *MemorySink) Get(name string) (common.Artifact, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.items[name]
	return a, ok
}

// Multi writes to every sink and joins the failures.
type Multi []TokenSink

func (m Multi) Put(ctx context.Context, name string, artifact common.Artifact) error {
	var errs []error
	for _, s := range m {
		if err := s.Put(ctx, name, artifact); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
