// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jeranaias/mobileai/internal/util"
)

// ErrCorruptStore is returned when the backing file exists but does not
// decode.
var ErrCorruptStore = errors.New("store file is corrupt")

// FileBackend keeps every key in one JSON object file.
//
// Each Set rewrites the whole file atomically. The file is small (two keys),
// so read-modify-write is cheap.
type FileBackend struct {
	path string
	mu   sync.Mutex
}

// NewFileBackend creates a backend stored at path. The parent directory is
// created if needed; the file itself appears on first write.
func NewFileBackend(path string) (*FileBackend, error) {
	if path == "" {
		return nil, errors.New("store path must be provided")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &FileBackend{path: path}, nil
}

// Path returns the location of the backing file.
func (b *FileBackend) Path() string {
	return b.path
}

// Get implements Backend.
func (b *FileBackend) Get(_ context.Context, key string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	values, err := b.read()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

// Set implements Backend. A corrupt file is replaced rather than blocking
// every future write.
func (b *FileBackend) Set(_ context.Context, key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	values, err := b.read()
	if err != nil {
		if !errors.Is(err, ErrCorruptStore) {
			return err
		}
		values = make(map[string]string)
	}
	values[key] = value
	return b.write(values)
}

// Delete implements Backend.
func (b *FileBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	values, err := b.read()
	if err != nil {
		if !errors.Is(err, ErrCorruptStore) {
			return err
		}
		values = make(map[string]string)
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return b.write(values)
}

// Close implements Backend.
func (b *FileBackend) Close() error {
	return nil
}

func (b *FileBackend) read() (map[string]string, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("read store: %w", err)
	}
	if len(data) == 0 {
		return make(map[string]string), nil
	}

	values := make(map[string]string)
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}
	return values, nil
}

func (b *FileBackend) write(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	if err := util.AtomicWriteFile(b.path, data, 0600); err != nil {
		return fmt.Errorf("persist store: %w", err)
	}
	return nil
}

var _ Backend = (*FileBackend)(nil)
