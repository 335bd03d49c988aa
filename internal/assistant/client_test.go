package assistant

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
)

func replyWith(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	payload := map[string]any{
		"choices": []any{
			map[string]any{"message": map[string]any{"role": "assistant", "content": content}},
		},
	}
	require.NoError(t, json.NewEncoder(w).Encode(payload))
}

func TestClientComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "demo-model", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "how many?", req.Messages[1].Content)

		replyWith(t, w, "  three  ")
	}))
	defer server.Close()

	c := NewClient(Config{APIKey: " secret ", BaseURL: server.URL, Model: "demo-model"})
	got, err := c.Complete(context.Background(), "sys", "how many?")
	require.NoError(t, err)
	assert.Equal(t, "three", got)
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		replyWith(t, w, "ok")
	}))
	defer server.Close()

	var slept []time.Duration
	c := NewClient(Config{APIKey: "k", BaseURL: server.URL},
		WithRetryBackoff(time.Second, 10*time.Second),
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }))

	got, err := c.Complete(context.Background(), "", "q")
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, slept)
}

func TestClientHonorsRetryAfter(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "4")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		replyWith(t, w, "ok")
	}))
	defer server.Close()

	var slept []time.Duration
	c := NewClient(Config{APIKey: "k", BaseURL: server.URL},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }))

	_, err := c.Complete(context.Background(), "", "q")
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{4 * time.Second}, slept)
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
	}))
	defer server.Close()

	c := NewClient(Config{APIKey: "bad", BaseURL: server.URL}, WithSleeper(func(time.Duration) {}))
	_, err := c.Complete(context.Background(), "", "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http 401")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientGivesUp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: server.URL},
		WithRetryMaxAttempts(2), WithSleeper(func(time.Duration) {}))
	_, err := c.Complete(context.Background(), "", "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 2 attempts")
}

func TestClientAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"message":"model not found"}}`))
	}))
	defer server.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: server.URL})
	_, err := c.Complete(context.Background(), "", "q")
	assert.ErrorContains(t, err, "model not found")
}

func TestClientRequiresKey(t *testing.T) {
	c := NewClient(Config{})
	assert.False(t, c.Configured())
	_, err := c.Complete(context.Background(), "", "q")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestParseRetryAfter(t *testing.T) {
	d, ok := parseRetryAfter("7")
	assert.True(t, ok)
	assert.Equal(t, 7*time.Second, d)

	_, ok = parseRetryAfter("")
	assert.False(t, ok)
	_, ok = parseRetryAfter("-3")
	assert.False(t, ok)
	_, ok = parseRetryAfter("soon")
	assert.False(t, ok)
}
