// Package embedclient implements the outbound client for the optional
// embeddings proxy endpoint: given text, call a remote embedding
// provider and return its vector. It is adapted from a retrying,
// LRU-cached embedder wrapper, but with its own bounded-backoff
// parameters rather than that wrapper's defaults.
package embedclient

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cerplabs/vectordb/internal/apperr"
)

// DefaultCacheSize bounds the number of distinct texts whose embeddings
// are kept in memory.
const DefaultCacheSize = 1000

// RetryConfig controls the bounded exponential backoff applied to a
// failed embedding request: 3 attempts, a 0.5s base delay, doubling each
// time, with ±20% jitter to avoid synchronized retry storms across
// concurrent callers.
type RetryConfig struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	Multiplier     float64
	JitterFraction float64
}

// DefaultRetryConfig returns the standard retry parameters.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		BaseDelay:      500 * time.Millisecond,
		Multiplier:     2.0,
		JitterFraction: 0.2,
	}
}

// Client calls a remote embedding provider's HTTP API, retrying
// transient failures and caching successful results by text.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	retry      RetryConfig
	cache      *lru.Cache[string, []float32]
}

// New constructs a Client. baseURL is the embedding provider's API root;
// apiKey is the caller's credential — an empty key makes every Embed call
// fail with EmbeddingUnavailable rather than attempt an unauthenticated
// request.
func New(baseURL, apiKey string, cacheSize int) *Client {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, _ := lru.New[string, []float32](cacheSize)
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		retry:      DefaultRetryConfig(),
		cache:      cache,
	}
}

// Embed returns text's embedding vector, using the cache when available
// and retrying transient provider failures per RetryConfig.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.apiKey == "" {
		return nil, apperr.New(apperr.EmbeddingUnavailable, "no embedding provider credential configured")
	}

	key := cacheKey(text)
	if vec, ok := c.cache.Get(key); ok {
		return vec, nil
	}

	vec, err := withRetry(ctx, c.retry, func() ([]float32, error) {
		return c.doRequest(ctx, text)
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.EmbeddingUnavailable, "embedding request failed", err)
	}

	c.cache.Add(key, vec)
	return vec, nil
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

type embedRequest struct {
	Texts []string `json:"texts"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (c *Client) doRequest(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Texts: []string{text}})
	if err != nil {
		return nil, fmt.Errorf("embedclient: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embedclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedclient: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedclient: provider returned %d: %s", resp.StatusCode, string(data))
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("embedclient: decode response: %w", err)
	}
	if len(parsed.Embeddings) == 0 {
		return nil, fmt.Errorf("embedclient: provider returned no embeddings")
	}
	return parsed.Embeddings[0], nil
}

// withRetry runs fn with bounded exponential backoff and jitter, stopping
// early if ctx is cancelled between attempts.
func withRetry[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	delay := cfg.BaseDelay
	var lastErr error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		jitter := 1 + (rand.Float64()*2-1)*cfg.JitterFraction
		wait := time.Duration(float64(delay) * jitter)
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(wait):
		}
		delay = time.Duration(float64(delay) * cfg.Multiplier)
	}

	return zero, fmt.Errorf("embedclient: failed after %d attempts: %w", cfg.MaxAttempts, lastErr)
}
