// Package localstore implements the device key-value store.
package localstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/njprem/travelswipe/internal/domain"
	"github.com/njprem/travelswipe/internal/repository/ports"
)

const DefaultPath = "~/.config/travelswipe/store.toml"

// FileStore keeps every key in a single TOML document. Each Set or Remove
// rewrites the whole file through a temp file and rename.
type FileStore struct {
	mu     sync.RWMutex
	path   string
	values map[string]string
}

type fileDocument struct {
	Values map[string]string `toml:"values"`
}

// OpenFileStore loads the store at path. A missing file is an empty store.
func OpenFileStore(path string) (*FileStore, error) {
	resolved, err := expandPath(path)
	if err != nil {
		return nil, domain.PersistenceError("resolve local store path", err)
	}

	s := &FileStore{path: resolved, values: make(map[string]string)}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, domain.PersistenceError("read local store", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return s, nil
	}

	var doc fileDocument
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, domain.PersistenceError("parse local store", err)
	}
	for k, v := range doc.Values {
		s.values[k] = v
	}
	return s, nil
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, domain.PersistenceError("get "+key, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *FileStore) Set(ctx context.Context, key, value string) error {
	return s.withWrite(ctx, "set "+key, func(values map[string]string) {
		values[key] = value
	})
}

func (s *FileStore) Remove(ctx context.Context, key string) error {
	return s.withWrite(ctx, "remove "+key, func(values map[string]string) {
		delete(values, key)
	})
}

func (s *FileStore) withWrite(ctx context.Context, op string, fn func(map[string]string)) error {
	if err := ctx.Err(); err != nil {
		return domain.PersistenceError(op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]string, len(s.values)+1)
	for k, v := range s.values {
		next[k] = v
	}
	fn(next)

	if err := s.flush(next); err != nil {
		return domain.PersistenceError(op, err)
	}
	s.values = next
	return nil
}

func (s *FileStore) flush(values map[string]string) error {
	data, err := toml.Marshal(fileDocument{Values: values})
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".store-*.toml")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		trimmed = DefaultPath
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}

var _ ports.LocalStore = (*FileStore)(nil)
