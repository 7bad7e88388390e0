package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fridgechef/internal/core/ai"
	"fridgechef/internal/infrastructure/config"
	"fridgechef/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string) *Client {
	return NewClient(&config.OpenAIConfig{
		APIKey:    "test-key",
		Model:     "gpt-4o-mini",
		BaseURL:   baseURL,
		MaxTokens: 100,
		Timeout:   5 * time.Second,
	})
}

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req["model"])
		assert.InDelta(t, 0.4, req["temperature"].(float64), 1e-9)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"choices":[{"message":{"content":"{\"recipes\":[]}"}}],
			"usage":{"prompt_tokens":50,"completion_tokens":10,"total_tokens":60}
		}`))
	}))
	defer srv.Close()

	result, err := testClient(srv.URL).Generate(context.Background(), "system", "user", 0.4)
	require.NoError(t, err)
	assert.Equal(t, `{"recipes":[]}`, result.Content)
	assert.Equal(t, 60, result.Usage.TotalTokens)
	assert.Equal(t, "gpt-4o-mini", result.Model)
}

func TestGenerateErrorStatusMapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Generate(context.Background(), "s", "u", 0.4)
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.ErrCodeProviderUnavailable))
}

func TestGenerateEmptyChoicesMapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Generate(context.Background(), "s", "u", 0.4)
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.ErrCodeProviderUnavailable))
}

func sseChunk(content string) string {
	return fmt.Sprintf(`data: {"choices":[{"delta":{"content":%q}}]}`+"\n\n", content)
}

func TestGenerateStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, true, req["stream"])

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, chunk := range []string{sseChunk("# Pasta"), sseChunk(" with egg"), "data: [DONE]\n\n"} {
			_, _ = fmt.Fprint(w, chunk)
			flusher.Flush()
		}
	}))
	defer srv.Close()

	stream, err := testClient(srv.URL).GenerateStream(context.Background(), "s", "u", 0.4)
	require.NoError(t, err)
	defer stream.Close()

	var deltas []string
	var done bool
	for f := range stream.Frames() {
		require.NoError(t, f.Err)
		if f.Done {
			done = true
			break
		}
		deltas = append(deltas, f.Delta)
	}

	assert.True(t, done)
	assert.Equal(t, []string{"# Pasta", " with egg"}, deltas)
}

func TestGenerateStreamCleanEOFTreatedAsDone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = fmt.Fprint(w, sseChunk("hello"))
	}))
	defer srv.Close()

	stream, err := testClient(srv.URL).GenerateStream(context.Background(), "s", "u", 0.4)
	require.NoError(t, err)
	defer stream.Close()

	var last ai.Fragment
	for f := range stream.Frames() {
		last = f
	}
	assert.True(t, last.Done)
}

func TestGenerateStreamErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).GenerateStream(context.Background(), "s", "u", 0.4)
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.ErrCodeProviderUnavailable))
}
