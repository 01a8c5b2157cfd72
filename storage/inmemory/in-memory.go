package inmemory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/and161185/relax-alerting/internal/errs"
)

// MemStorage is a map-backed store. When filePath is set every write is
// mirrored to a JSON file so values survive restarts.
type MemStorage struct {
	values   map[string]string
	filePath string
	mu       sync.RWMutex
}

func NewMemStorage(filePath string) *MemStorage {
	return &MemStorage{
		values:   make(map[string]string),
		filePath: filePath,
	}
}

func (store *MemStorage) Get(ctx context.Context, key string) (string, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	v, ok := store.values[key]
	if !ok {
		return "", errs.ErrNotFound
	}
	return v, nil
}

func (store *MemStorage) Set(ctx context.Context, key, value string) error {
	store.mu.Lock()
	store.values[key] = value
	store.mu.Unlock()

	if store.filePath == "" {
		return nil
	}
	return store.SaveToFile(ctx, store.filePath)
}

func (store *MemStorage) GetAll(ctx context.Context) (map[string]string, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	result := make(map[string]string, len(store.values))
	for k, v := range store.values {
		result[k] = v
	}
	return result, nil
}

func (store *MemStorage) SaveToFile(ctx context.Context, filePath string) error {
	values, err := store.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to get values: %w", err)
	}

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal values: %w", err)
	}

	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create dir: %w", err)
		}
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// LoadFromFile merges values from filePath. A missing file is not an error.
func (store *MemStorage) LoadFromFile(ctx context.Context, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read file: %w", err)
	}

	var values map[string]string
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("failed to unmarshal values: %w", err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	for k, v := range values {
		store.values[k] = v
	}
	return nil
}

func (store *MemStorage) Ping(ctx context.Context) error {
	return nil
}

func (store *MemStorage) Close() error {
	return nil
}
