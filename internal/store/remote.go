package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cpleonardo/simple-market-maker/internal/domain"
)

// RemoteSource fetches one JSON document per integer index from a document
// store at {baseURL}/{index}.json. Enumeration stops at the first index with
// no document, up to limit entries.
type RemoteSource struct {
	baseURL    string
	limit      int
	httpClient *http.Client
}

// NewRemoteSource creates a RemoteSource. limit caps enumeration (the
// document store has no listing endpoint).
func NewRemoteSource(baseURL string, limit int) *RemoteSource {
	return &RemoteSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		limit:   limit,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Get fetches the config document at index. A missing or null document maps
// to domain.ErrConfigNotFound.
func (r *RemoteSource) Get(ctx context.Context, index int) (domain.BotConfig, error) {
	url := fmt.Sprintf("%s/%d.json", r.baseURL, index)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.BotConfig{}, fmt.Errorf("store: create request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return domain.BotConfig{}, fmt.Errorf("store: get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.BotConfig{}, fmt.Errorf("store: index %d: %w", index, domain.ErrConfigNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.BotConfig{}, fmt.Errorf("store: get %s: status %d", url, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.BotConfig{}, fmt.Errorf("store: read %s: %w", url, err)
	}

	// The document store returns the literal "null" for absent indices.
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return domain.BotConfig{}, fmt.Errorf("store: index %d: %w", index, domain.ErrConfigNotFound)
	}

	var cfg domain.BotConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return domain.BotConfig{}, fmt.Errorf("store: decode %s: %w", url, err)
	}
	return cfg, nil
}

// List enumerates indices from 0 until the first absent document or the
// configured limit.
func (r *RemoteSource) List(ctx context.Context) ([]domain.BotConfig, error) {
	var configs []domain.BotConfig
	for i := 0; i < r.limit; i++ {
		cfg, err := r.Get(ctx, i)
		if errors.Is(err, domain.ErrConfigNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}
