package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/lokesh-122/DxAI/internal/insights"
)

const defaultOpenAIModel = openai.ChatModelGPT4oMini

// OpenAI calls the OpenAI chat-completions API.
type OpenAI struct {
	client openai.Client
	model  openai.ChatModel
}

// NewOpenAI creates an OpenAI client. model may be empty to use the default.
func NewOpenAI(apiKey, model string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	m := openai.ChatModel(model)
	if model == "" {
		m = defaultOpenAIModel
	}
	return &OpenAI{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  m,
	}, nil
}

func (o *OpenAI) Name() string {
	return "openai/" + string(o.model)
}

// Generate sends the instruction as a single user message and returns the
// first choice's content.
func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(0.1),
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", classifyOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func classifyOpenAIError(err error) *insights.AnalysisError {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests {
			return &insights.AnalysisError{
				Code:      insights.ErrModelRateLimited,
				Message:   "OpenAI API rate limited",
				Retryable: true,
				Cause:     err,
			}
		}
		return &insights.AnalysisError{
			Code:      insights.ErrModelUnavailable,
			Message:   fmt.Sprintf("OpenAI API error (HTTP %d)", apiErr.StatusCode),
			Retryable: apiErr.StatusCode >= 500,
			Cause:     err,
		}
	}
	return &insights.AnalysisError{
		Code:      insights.ErrModelUnavailable,
		Message:   "OpenAI API request failed",
		Retryable: true,
		Cause:     err,
	}
}
