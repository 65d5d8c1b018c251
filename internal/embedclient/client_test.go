package embedclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cerplabs/vectordb/internal/apperr"
)

func TestEmbed_RejectsMissingCredential(t *testing.T) {
	c := New("http://unused", "", DefaultCacheSize)
	_, err := c.Embed(context.Background(), "hello")
	assert.True(t, apperr.Is(err, apperr.EmbeddingUnavailable))
}

func TestEmbed_SuccessfulRequestReturnsVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float32{{1, 2, 3}}})
	}))
	defer srv.Close()

	c := New(srv.URL, "secret", DefaultCacheSize)
	vec, err := c.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, vec)
}

func TestEmbed_CachesByText(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_ = json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float32{{1, 2}}})
	}))
	defer srv.Close()

	c := New(srv.URL, "secret", DefaultCacheSize)
	_, err := c.Embed(context.Background(), "same text")
	require.NoError(t, err)
	_, err = c.Embed(context.Background(), "same text")
	require.NoError(t, err)

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestEmbed_RetriesTransientFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float32{{9, 9}}})
	}))
	defer srv.Close()

	c := New(srv.URL, "secret", DefaultCacheSize)
	c.retry = RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, Multiplier: 1, JitterFraction: 0}

	vec, err := c.Embed(context.Background(), "flaky")
	require.NoError(t, err)
	assert.Equal(t, []float32{9, 9}, vec)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestEmbed_ExhaustsRetriesAndReturnsEmbeddingUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, "secret", DefaultCacheSize)
	c.retry = RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond, Multiplier: 1, JitterFraction: 0}

	_, err := c.Embed(context.Background(), "always fails")
	assert.True(t, apperr.Is(err, apperr.EmbeddingUnavailable))
}

func TestWithRetry_StopsOnContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := withRetry(ctx, DefaultRetryConfig(), func() (int, error) {
		t.Fatal("fn should not be called once context is already cancelled")
		return 0, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
