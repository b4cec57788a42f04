// Package provider implements generative model clients used by the
// extraction engine.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lokesh-122/DxAI/internal/insights"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel   = "gemini-1.5-flash"
)

// Gemini calls the Gemini generateContent REST API in JSON-output mode.
type Gemini struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client

	// MaxOutputTokens bounds the response size. Zero uses the API default.
	MaxOutputTokens int
}

// NewGemini creates a Gemini client. model may be empty to use the default.
func NewGemini(apiKey, model string) *Gemini {
	if model == "" {
		model = defaultGeminiModel
	}
	return &Gemini{
		apiKey:          apiKey,
		model:           model,
		baseURL:         defaultGeminiBaseURL,
		httpClient:      &http.Client{Timeout: 120 * time.Second},
		MaxOutputTokens: 8192,
	}
}

func (g *Gemini) Name() string {
	return "gemini/" + g.model
}

// Generate sends the instruction and returns the first candidate's text.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	if g.apiKey == "" {
		return "", &insights.AnalysisError{
			Code:    insights.ErrModelUnavailable,
			Message: "Gemini API key not configured",
		}
	}

	generationConfig := map[string]any{
		"temperature":      0.1,
		"responseMimeType": "application/json",
	}
	if g.MaxOutputTokens > 0 {
		generationConfig["maxOutputTokens"] = g.MaxOutputTokens
	}
	reqBody := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]any{{"text": prompt}}},
		},
		"generationConfig": generationConfig,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &insights.AnalysisError{
			Code:      insights.ErrModelUnavailable,
			Message:   "Gemini API request failed",
			Retryable: true,
			Cause:     err,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", classifyGeminiHTTPError(resp.StatusCode, string(respBody))
	}

	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(respBody, &geminiResp); err != nil {
		return "", fmt.Errorf("parse Gemini response: %w", err)
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}
	return geminiResp.Candidates[0].Content.Parts[0].Text, nil
}

// classifyGeminiHTTPError converts an HTTP failure into the analysis error
// taxonomy: rate limits and 5xx are retryable, other 4xx are permanent.
func classifyGeminiHTTPError(statusCode int, body string) *insights.AnalysisError {
	if statusCode == http.StatusTooManyRequests {
		return &insights.AnalysisError{
			Code:      insights.ErrModelRateLimited,
			Message:   "Gemini API rate limited",
			Retryable: true,
		}
	}
	return &insights.AnalysisError{
		Code:      insights.ErrModelUnavailable,
		Message:   fmt.Sprintf("Gemini API error (HTTP %d): %s", statusCode, truncate(body, 200)),
		Retryable: statusCode >= 500,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
