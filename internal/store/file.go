// Package store loads bot configurations from their backing source: a local
// JSON file or a remote per-index document store. Sources are re-read on
// every trading cycle so edits take effect without a restart.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/cpleonardo/simple-market-maker/internal/domain"
)

// Source provides bot configurations by index.
type Source interface {
	// Get returns the config at index, or domain.ErrConfigNotFound when no
	// document exists there.
	Get(ctx context.Context, index int) (domain.BotConfig, error)
	// List enumerates all configs in order.
	List(ctx context.Context) ([]domain.BotConfig, error)
}

// FileSource reads an ordered list of bot configs from a JSON file. The file
// is re-read on every call, so edits apply on the next cycle.
type FileSource struct {
	path string
}

// NewFileSource creates a FileSource for the given path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Get returns the config at index.
func (f *FileSource) Get(_ context.Context, index int) (domain.BotConfig, error) {
	configs, err := f.load()
	if err != nil {
		return domain.BotConfig{}, err
	}
	if index < 0 || index >= len(configs) {
		return domain.BotConfig{}, fmt.Errorf("store: index %d: %w", index, domain.ErrConfigNotFound)
	}
	return configs[index], nil
}

// List returns every config in file order.
func (f *FileSource) List(_ context.Context) ([]domain.BotConfig, error) {
	return f.load()
}

func (f *FileSource) load() ([]domain.BotConfig, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", f.path, err)
	}
	var configs []domain.BotConfig
	if err := json.Unmarshal(raw, &configs); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", f.path, err)
	}
	return configs, nil
}
