package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultModelTimeout bounds a single generative-model call. A missing or
// excessively slow response surfaces as MODEL_TIMEOUT instead of hanging
// the caller.
const DefaultModelTimeout = 90 * time.Second

// ModelProvider is implemented by generative model clients. Generate takes
// a fully rendered instruction and returns the raw model text, which may be
// wrapped in markdown fences.
type ModelProvider interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

// ExtractionResult is the validated output of one engine call, tagged with
// the task and schema version that produced it. Raw always conforms to the
// task schema; it is only constructed after validation passes.
type ExtractionResult struct {
	TaskID        string
	SchemaVersion string
	ModelUsed     string
	Raw           json.RawMessage
}

// Engine renders task instructions, invokes the model, and validates the
// response against the task schema. Stateless across calls; safe for
// concurrent use.
type Engine struct {
	registry *Registry
	provider ModelProvider

	// RetryConfig and Timeout may be tuned before first use.
	RetryConfig RetryConfig
	Timeout     time.Duration
}

// NewEngine creates an engine with default retry and timeout settings.
func NewEngine(registry *Registry, provider ModelProvider) *Engine {
	return &Engine{
		registry:    registry,
		provider:    provider,
		RetryConfig: DefaultModelRetryConfig,
		Timeout:     DefaultModelTimeout,
	}
}

// Extract runs the full pipeline for one task: schema lookup, instruction
// rendering, model invocation with bounded retry, JSON parsing, and schema
// validation. Extraction is all-or-nothing; no partial results.
func (e *Engine) Extract(ctx context.Context, taskID string, in TaskInput) (*ExtractionResult, error) {
	schema, err := e.registry.Get(taskID)
	if err != nil {
		return nil, err
	}

	prompt, err := renderPrompt(schema, in)
	if err != nil {
		return nil, err
	}

	output, err := withRetry(ctx, e.RetryConfig, func(ctx context.Context) (string, error) {
		return e.generate(ctx, prompt)
	})
	if err != nil {
		return nil, err
	}

	raw, err := parseModelJSON(output)
	if err != nil {
		return nil, err
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &AnalysisError{
			Code:    ErrSchemaValidation,
			Message: "model output is not valid JSON",
			Cause:   err,
		}
	}
	if err := schema.Validate(decoded); err != nil {
		return nil, err
	}

	return &ExtractionResult{
		TaskID:        taskID,
		SchemaVersion: schema.Version,
		ModelUsed:     e.provider.Name(),
		Raw:           raw,
	}, nil
}

// generate performs one provider call under the engine timeout, translating
// deadline expiry into MODEL_TIMEOUT and empty output into
// EMPTY_MODEL_OUTPUT.
func (e *Engine) generate(ctx context.Context, prompt string) (string, error) {
	callCtx := ctx
	var cancel context.CancelFunc
	if e.Timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	output, err := e.provider.Generate(callCtx, prompt)
	if err != nil {
		// Caller-initiated cancellation propagates as-is.
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return "", &AnalysisError{
				Code:      ErrModelTimeout,
				Message:   fmt.Sprintf("model did not respond within %s", e.Timeout),
				Retryable: true,
				Cause:     err,
			}
		}
		return "", err
	}

	if strings.TrimSpace(output) == "" {
		// Likely a prompt or provider misconfiguration; retrying is unlikely
		// to help.
		return "", newError(ErrEmptyModelOutput, "model returned no content")
	}

	return output, nil
}

// parseModelJSON extracts the JSON object from raw model text, tolerating
// markdown code fences and surrounding prose.
func parseModelJSON(text string) (json.RawMessage, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	start, end := -1, -1
	depth := 0
	inString := false
	escaped := false
	for i, c := range text {
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if start != -1 {
				inString = true
			}
		case '{':
			if start == -1 {
				start = i
			}
			depth++
		case '}':
			depth--
			if depth == 0 && start != -1 {
				end = i + 1
			}
		}
		if end != -1 {
			break
		}
	}
	if start == -1 || end == -1 {
		return nil, newError(ErrSchemaValidation, "no JSON object found in model output")
	}

	return json.RawMessage(text[start:end]), nil
}

// DecodeInsights decodes a validated health_insights result.
func DecodeInsights(res *ExtractionResult) (*InsightsResult, error) {
	if err := checkTask(res, TaskInsights); err != nil {
		return nil, err
	}
	var out InsightsResult
	if err := json.Unmarshal(res.Raw, &out); err != nil {
		return nil, decodeError(TaskInsights, err)
	}
	return &out, nil
}

// DecodeSeverity decodes a validated condition_severity result.
func DecodeSeverity(res *ExtractionResult) (*SeverityResult, error) {
	if err := checkTask(res, TaskSeverity); err != nil {
		return nil, err
	}
	var out SeverityResult
	if err := json.Unmarshal(res.Raw, &out); err != nil {
		return nil, decodeError(TaskSeverity, err)
	}
	return &out, nil
}

// DecodeDietary decodes a validated dietary_recommendations result.
func DecodeDietary(res *ExtractionResult) (*DietaryResult, error) {
	if err := checkTask(res, TaskDietary); err != nil {
		return nil, err
	}
	var out DietaryResult
	if err := json.Unmarshal(res.Raw, &out); err != nil {
		return nil, decodeError(TaskDietary, err)
	}
	return &out, nil
}

// DecodeLifestyle decodes a validated lifestyle_recommendations result.
func DecodeLifestyle(res *ExtractionResult) (*LifestyleResult, error) {
	if err := checkTask(res, TaskLifestyle); err != nil {
		return nil, err
	}
	var out LifestyleResult
	if err := json.Unmarshal(res.Raw, &out); err != nil {
		return nil, decodeError(TaskLifestyle, err)
	}
	return &out, nil
}

func checkTask(res *ExtractionResult, taskID string) error {
	if res.TaskID != taskID {
		return newError(ErrSchemaValidation,
			fmt.Sprintf("result is tagged %s, not %s", res.TaskID, taskID))
	}
	return nil
}

func decodeError(taskID string, err error) error {
	return &AnalysisError{
		Code:    ErrSchemaValidation,
		Message: "decode " + taskID + " result",
		Cause:   err,
	}
}
