package insights

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHistory records saved entries; fail makes every save error.
type fakeHistory struct {
	entries []*HistoryEntry
	fail    bool
}

func (f *fakeHistory) SaveReport(_ context.Context, entry *HistoryEntry) (string, error) {
	if f.fail {
		return "", errors.New("store unreachable")
	}
	f.entries = append(f.entries, entry)
	return "id-1", nil
}

func insightsJSON(t *testing.T, result InsightsResult) string {
	t.Helper()
	raw, err := json.Marshal(result)
	require.NoError(t, err)
	return string(raw)
}

func newTestService(p ModelProvider, history HistoryStore) *Service {
	return NewService(newTestEngine(p), history, zerolog.Nop())
}

func TestAnalyzeReportWithIssues(t *testing.T) {
	history := &fakeHistory{}
	p := &stubProvider{responses: []string{insightsJSON(t, InsightsResult{
		AnalysisStatus: StatusValidWithIssues,
		HealthIssues:   []HealthIssue{sampleIssue()},
	})}}
	svc := newTestService(p, history)

	outcome, err := svc.AnalyzeReport(context.Background(),
		Source{Content: "BP 145/92, LDL 170 mg/dL"}, "", "user-7")
	require.NoError(t, err)

	assert.Equal(t, StatusValidWithIssues, outcome.Status)
	require.Len(t, outcome.Insights.HealthIssues, 1)
	assert.Equal(t, "Hypertension", outcome.Insights.HealthIssues[0].Condition)

	require.Len(t, history.entries, 1)
	entry := history.entries[0]
	assert.Equal(t, "user-7", entry.UserID)
	assert.Equal(t, StatusValidWithIssues, entry.Status)
	assert.Equal(t, "BP 145/92, LDL 170 mg/dL", entry.OriginalTextExcerpt)
	assert.True(t, strings.HasPrefix(entry.ReportName, "Analysis from "), entry.ReportName)
	assert.False(t, entry.AnalysisDate.IsZero())
}

func TestAnalyzeReportNoIssuesStillSaved(t *testing.T) {
	history := &fakeHistory{}
	p := &stubProvider{responses: []string{insightsJSON(t, InsightsResult{
		AnalysisStatus: StatusValidNoIssues,
		StatusReason:   "Report appears normal.",
	})}}
	svc := newTestService(p, history)

	outcome, err := svc.AnalyzeReport(context.Background(),
		Source{Content: "All values within normal limits."}, "", "user-7")
	require.NoError(t, err)

	assert.Equal(t, StatusValidNoIssues, outcome.Status)
	assert.Empty(t, outcome.Insights.HealthIssues)
	assert.Len(t, history.entries, 1)
}

func TestAnalyzeReportInvalidContentNotSaved(t *testing.T) {
	history := &fakeHistory{}
	p := &stubProvider{responses: []string{insightsJSON(t, InsightsResult{
		AnalysisStatus: StatusInvalidContent,
		StatusReason:   "Text does not resemble a medical document.",
	})}}
	svc := newTestService(p, history)

	outcome, err := svc.AnalyzeReport(context.Background(),
		Source{Content: "buy milk, eggs, bread"}, "", "user-7")
	require.NoError(t, err)

	assert.Equal(t, StatusInvalidContent, outcome.Status)
	assert.Empty(t, history.entries, "invalid content must not be persisted")
}

func TestAnalyzeReportEmptyInputNeverCallsModel(t *testing.T) {
	p := &stubProvider{}
	svc := newTestService(p, &fakeHistory{})

	_, err := svc.AnalyzeReport(context.Background(), Source{Content: "   "}, "", "user-7")
	require.Error(t, err)
	var ae *AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, ErrEmptyInput, ae.Code)
	assert.Zero(t, p.calls)
}

func TestAnalyzeReportPersistenceFailureIsNotFatal(t *testing.T) {
	history := &fakeHistory{fail: true}
	p := &stubProvider{responses: []string{insightsJSON(t, InsightsResult{
		AnalysisStatus: StatusValidWithIssues,
		HealthIssues:   []HealthIssue{sampleIssue()},
	})}}
	svc := newTestService(p, history)

	outcome, err := svc.AnalyzeReport(context.Background(),
		Source{Content: "BP 145/92"}, "", "user-7")
	require.NoError(t, err, "history failures never fail the analysis")
	assert.Equal(t, StatusValidWithIssues, outcome.Status)
}

func TestAnalyzeReportNilHistoryStore(t *testing.T) {
	p := &stubProvider{responses: []string{insightsJSON(t, InsightsResult{
		AnalysisStatus: StatusValidWithIssues,
		HealthIssues:   []HealthIssue{sampleIssue()},
	})}}
	svc := newTestService(p, nil)

	_, err := svc.AnalyzeReport(context.Background(), Source{Content: "BP 145/92"}, "", "")
	require.NoError(t, err)
}

func TestAnalyzeReportLanguageReachesPrompt(t *testing.T) {
	p := &stubProvider{responses: []string{insightsJSON(t, InsightsResult{
		AnalysisStatus: StatusValidNoIssues,
		StatusReason:   "Informe normal.",
	})}}
	svc := newTestService(p, nil)

	_, err := svc.AnalyzeReport(context.Background(),
		Source{Content: "Hemograma normal."}, "spanish", "")
	require.NoError(t, err)

	require.Len(t, p.prompts, 1)
	assert.Contains(t, p.prompts[0], "MUST be written in Spanish")
}

func TestAnalyzeReportInconsistentModelOutcome(t *testing.T) {
	p := &stubProvider{responses: []string{insightsJSON(t, InsightsResult{
		AnalysisStatus: StatusValidWithIssues,
		HealthIssues:   nil,
	})}}
	svc := newTestService(p, nil)

	_, err := svc.AnalyzeReport(context.Background(), Source{Content: "BP 145/92"}, "", "")
	require.Error(t, err)
	var ae *AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, ErrInconsistentOutcome, ae.Code)
}

func TestAnalyzeReportIsDeterministicWithStableModel(t *testing.T) {
	payload := insightsJSON(t, InsightsResult{
		AnalysisStatus: StatusValidWithIssues,
		HealthIssues:   []HealthIssue{sampleIssue()},
	})
	p := &stubProvider{responses: []string{payload, payload}}
	svc := newTestService(p, nil)

	first, err := svc.AnalyzeReport(context.Background(), Source{Content: "BP 145/92"}, "", "")
	require.NoError(t, err)
	second, err := svc.AnalyzeReport(context.Background(), Source{Content: "BP 145/92"}, "", "")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDetermineSeverity(t *testing.T) {
	p := &stubProvider{responses: []string{validSeverityJSON}}
	svc := newTestService(p, nil)

	result, err := svc.DetermineSeverity(context.Background(), "High cholesterol", "LDL 165 mg/dL")
	require.NoError(t, err)
	assert.Equal(t, "Moderate", result.Severity)
	assert.NotEmpty(t, result.Rationale)
}

func TestDetermineSeverityRequiresBothInputs(t *testing.T) {
	p := &stubProvider{}
	svc := newTestService(p, nil)

	_, err := svc.DetermineSeverity(context.Background(), "", "LDL 165")
	require.Error(t, err)

	_, err = svc.DetermineSeverity(context.Background(), "High cholesterol", "  ")
	require.Error(t, err)

	assert.Zero(t, p.calls)
}

func TestDietaryRecommendations(t *testing.T) {
	p := &stubProvider{responses: []string{`{
		"dietaryRecommendations": [{
			"condition": "Hypertension",
			"foodsToEatMoreOf": "Leafy greens, bananas.",
			"foodsToAvoid": "Salty processed foods.",
			"lifestyleSuggestions": "Walk daily, reduce stress."
		}]
	}`}}
	svc := newTestService(p, nil)

	recs, err := svc.DietaryRecommendations(context.Background(), []ConditionStage{
		{Condition: "Hypertension", Stage: "Stage 1"},
	})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Hypertension", recs[0].Condition)
}

func TestLifestyleRecommendations(t *testing.T) {
	p := &stubProvider{responses: []string{`{"recommendations": ["Walk 30 minutes daily.", "Sleep 7-8 hours."]}`}}
	svc := newTestService(p, nil)

	recs, err := svc.LifestyleRecommendations(context.Background(), []ConditionStage{
		{Condition: "Hypertension", Stage: "Stage 1"},
	})
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestRecommendationsRejectEmptyIssueList(t *testing.T) {
	p := &stubProvider{}
	svc := newTestService(p, nil)

	_, err := svc.DietaryRecommendations(context.Background(), nil)
	require.Error(t, err)
	_, err = svc.LifestyleRecommendations(context.Background(), []ConditionStage{})
	require.Error(t, err)
	assert.Zero(t, p.calls)
}

func TestExcerptTruncation(t *testing.T) {
	long := strings.Repeat("a", historyExcerptLen+100)
	got := excerpt(long)
	assert.Len(t, got, historyExcerptLen+3)
	assert.True(t, strings.HasSuffix(got, "..."))

	short := "short report"
	assert.Equal(t, short, excerpt(short))
}
