package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lokesh-122/DxAI/internal/insights"
)

func geminiTestServer(t *testing.T, handler http.HandlerFunc) (*Gemini, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g := NewGemini("test-key", "gemini-1.5-flash")
	g.baseURL = srv.URL
	return g, srv
}

func geminiCandidateBody(text string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
	}
}

func TestGeminiGenerate(t *testing.T) {
	var gotBody map[string]any
	g, _ := geminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "gemini-1.5-flash:generateContent")
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(geminiCandidateBody(`{"severity": "Mild"}`))
	})

	out, err := g.Generate(context.Background(), "classify this condition")
	require.NoError(t, err)
	assert.Equal(t, `{"severity": "Mild"}`, out)

	genCfg, ok := gotBody["generationConfig"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "application/json", genCfg["responseMimeType"])
}

func TestGeminiGenerateMissingKey(t *testing.T) {
	g := NewGemini("", "")

	_, err := g.Generate(context.Background(), "prompt")
	require.Error(t, err)
	var ae *insights.AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, insights.ErrModelUnavailable, ae.Code)
	assert.False(t, ae.Retryable)
}

func TestGeminiGenerateRateLimited(t *testing.T) {
	g, _ := geminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := g.Generate(context.Background(), "prompt")
	require.Error(t, err)
	var ae *insights.AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, insights.ErrModelRateLimited, ae.Code)
	assert.True(t, ae.Retryable)
}

func TestGeminiGenerateServerError(t *testing.T) {
	g, _ := geminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := g.Generate(context.Background(), "prompt")
	require.Error(t, err)
	var ae *insights.AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, insights.ErrModelUnavailable, ae.Code)
	assert.True(t, ae.Retryable)
}

func TestGeminiGenerateBadRequestIsPermanent(t *testing.T) {
	g, _ := geminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := g.Generate(context.Background(), "prompt")
	require.Error(t, err)
	var ae *insights.AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.False(t, ae.Retryable)
}

func TestGeminiGenerateNoCandidates(t *testing.T) {
	g, _ := geminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	})

	out, err := g.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Empty(t, out, "empty candidates surface as empty output for the engine to classify")
}

func TestGeminiGenerateContextCancelled(t *testing.T) {
	g, _ := geminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Generate(ctx, "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
