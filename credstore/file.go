package credstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
)

const defaultFilePath = "~/.config/lumina-metro/credentials.toml"

type fileBackend struct {
	mu   sync.Mutex
	path string
}

// NewFile builds a TOML-file durable backend. The file holds a flat
// key-value table and is rewritten on every mutation.
func NewFile(cfg FileConfig) (Backend, error) {
	path := cfg.Path
	if strings.TrimSpace(path) == "" {
		path = defaultFilePath
	}
	resolved, err := expandPath(path)
	if err != nil {
		return nil, fmt.Errorf("credstore: resolve file path: %w", err)
	}
	return &fileBackend{path: resolved}, nil
}

func (f *fileBackend) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.load()
	if err != nil {
		return "", err
	}
	v, ok := items[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (f *fileBackend) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.load()
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if items == nil {
		items = make(map[string]string)
	}
	items[key] = value
	return f.save(items)
}

func (f *fileBackend) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.load()
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if _, ok := items[key]; !ok {
		return nil
	}
	delete(items, key)
	return f.save(items)
}

func (f *fileBackend) Close() error { return nil }

func (f *fileBackend) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("credstore: read %s: %w", f.path, err)
	}

	items := make(map[string]string)
	if err := toml.Unmarshal(data, &items); err != nil {
		// A corrupt file reads as empty rather than wedging the session.
		return nil, ErrNotFound
	}
	return items, nil
}

func (f *fileBackend) save(items map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("credstore: create credentials dir: %w", err)
	}
	data, err := toml.Marshal(items)
	if err != nil {
		return fmt.Errorf("credstore: marshal credentials: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("credstore: write credentials: %w", err)
	}
	return nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
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
