package insights

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// historyExcerptLen caps how much of the original report text is stored
// with a history entry.
const historyExcerptLen = 500

// HistoryEntry is one stored analysis. Persistence is best-effort and
// delegated to a HistoryStore collaborator; the core holds no state.
type HistoryEntry struct {
	ID                  string          `json:"id"`
	UserID              string          `json:"userId"`
	ReportName          string          `json:"reportName"`
	AnalysisDate        time.Time       `json:"analysisDate"`
	Status              AnalysisStatus  `json:"status"`
	Insights            *InsightsResult `json:"extractedInsights"`
	OriginalTextExcerpt string          `json:"originalTextExcerpt"`
}

// HistoryStore persists analysis history. Implementations must be safe for
// concurrent use.
type HistoryStore interface {
	SaveReport(ctx context.Context, entry *HistoryEntry) (string, error)
}

// Service is the orchestration facade: the single entry point for external
// callers. It sequences normalize → extract → classify and maps every
// internal failure into the AnalysisError taxonomy.
type Service struct {
	engine  *Engine
	history HistoryStore
	logger  zerolog.Logger
}

// NewService creates the facade. history may be nil when persistence is
// disabled.
func NewService(engine *Engine, history HistoryStore, logger zerolog.Logger) *Service {
	return &Service{engine: engine, history: history, logger: logger}
}

// AnalyzeReport runs the full-document analysis for one report. On a valid
// outcome it also records a history entry; persistence failures are logged
// and never fail the analysis.
func (s *Service) AnalyzeReport(ctx context.Context, src Source, targetLanguage, userID string) (*ClassifiedOutcome, error) {
	req, err := Normalize(src, targetLanguage)
	if err != nil {
		return nil, err
	}

	res, err := s.engine.Extract(ctx, TaskInsights, TaskInput{Request: req})
	if err != nil {
		return nil, err
	}

	insights, err := DecodeInsights(res)
	if err != nil {
		return nil, err
	}

	outcome, err := Classify(insights)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("task", TaskInsights).
		Str("schema_version", res.SchemaVersion).
		Str("model", res.ModelUsed).
		Str("status", string(outcome.Status)).
		Int("issues", len(insights.HealthIssues)).
		Msg("report analyzed")

	if outcome.Status != StatusInvalidContent {
		s.saveHistory(ctx, userID, req.ReportText, outcome)
	}

	return outcome, nil
}

// DetermineSeverity classifies the severity of a single pre-extracted
// condition against a report excerpt. It does not pass through the outcome
// classifier; that state machine applies only to full-document analysis.
func (s *Service) DetermineSeverity(ctx context.Context, conditionName, reportExcerpt string) (*SeverityResult, error) {
	if err := requireText(conditionName, "condition name"); err != nil {
		return nil, err
	}
	if err := requireText(reportExcerpt, "report excerpt"); err != nil {
		return nil, err
	}

	res, err := s.engine.Extract(ctx, TaskSeverity, TaskInput{
		Condition:     conditionName,
		ReportExcerpt: reportExcerpt,
	})
	if err != nil {
		return nil, err
	}
	return DecodeSeverity(res)
}

// DietaryRecommendations generates per-condition dietary guidance for
// pre-extracted condition/stage pairs.
func (s *Service) DietaryRecommendations(ctx context.Context, issues []ConditionStage) ([]DietaryRecommendation, error) {
	if len(issues) == 0 {
		return nil, newError(ErrEmptyInput, "no health issues provided")
	}

	res, err := s.engine.Extract(ctx, TaskDietary, TaskInput{Issues: issues})
	if err != nil {
		return nil, err
	}
	out, err := DecodeDietary(res)
	if err != nil {
		return nil, err
	}
	return out.DietaryRecommendations, nil
}

// LifestyleRecommendations generates actionable lifestyle guidance for
// pre-extracted condition/stage pairs.
func (s *Service) LifestyleRecommendations(ctx context.Context, issues []ConditionStage) ([]string, error) {
	if len(issues) == 0 {
		return nil, newError(ErrEmptyInput, "no health issues provided")
	}

	res, err := s.engine.Extract(ctx, TaskLifestyle, TaskInput{Issues: issues})
	if err != nil {
		return nil, err
	}
	out, err := DecodeLifestyle(res)
	if err != nil {
		return nil, err
	}
	return out.Recommendations, nil
}

func (s *Service) saveHistory(ctx context.Context, userID, reportText string, outcome *ClassifiedOutcome) {
	if s.history == nil {
		return
	}

	now := time.Now().UTC()
	entry := &HistoryEntry{
		UserID:              userID,
		ReportName:          "Analysis from " + now.Format("Jan 2, 2006"),
		AnalysisDate:        now,
		Status:              outcome.Status,
		Insights:            outcome.Insights,
		OriginalTextExcerpt: excerpt(reportText),
	}

	id, err := s.history.SaveReport(ctx, entry)
	if err != nil {
		perr := &AnalysisError{Code: ErrPersistence, Message: "save history entry", Cause: err}
		s.logger.Error().Err(perr).Str("user_id", userID).Msg("history save failed")
		return
	}
	s.logger.Debug().Str("report_id", id).Str("user_id", userID).Msg("history entry saved")
}

func excerpt(text string) string {
	if len(text) <= historyExcerptLen {
		return text
	}
	return text[:historyExcerptLen] + "..."
}

func requireText(value, what string) error {
	if strings.TrimSpace(value) == "" {
		return newError(ErrEmptyInput, what+" is empty")
	}
	return nil
}
