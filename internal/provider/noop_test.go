package provider

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lokesh-122/DxAI/internal/insights"
)

func noopInsights(t *testing.T, reportText string) insights.InsightsResult {
	t.Helper()
	r := insights.NewRegistry()
	schema, err := r.Get(insights.TaskInsights)
	require.NoError(t, err)

	engine := insights.NewEngine(r, NewNoop())
	res, err := engine.Extract(context.Background(), insights.TaskInsights, insights.TaskInput{
		Request: insights.ExtractionRequest{ReportText: reportText, TargetLanguage: "English"},
	})
	require.NoError(t, err)
	assert.Equal(t, schema.Version, res.SchemaVersion)

	decoded, err := insights.DecodeInsights(res)
	require.NoError(t, err)
	return *decoded
}

func TestNoopInsightsOutcomes(t *testing.T) {
	t.Run("non-medical text", func(t *testing.T) {
		out := noopInsights(t, "remember to water the plants and feed the cat")
		assert.Equal(t, insights.StatusInvalidContent, out.AnalysisStatus)
		assert.Empty(t, out.HealthIssues)
		assert.NotEmpty(t, out.StatusReason)
	})

	t.Run("normal report", func(t *testing.T) {
		out := noopInsights(t, "Patient blood panel: all values within range, unremarkable")
		assert.Equal(t, insights.StatusValidNoIssues, out.AnalysisStatus)
		assert.Empty(t, out.HealthIssues)
	})

	t.Run("abnormal report", func(t *testing.T) {
		out := noopInsights(t, "Patient lab report: cholesterol elevated at 240 mg/dL")
		assert.Equal(t, insights.StatusValidWithIssues, out.AnalysisStatus)
		assert.NotEmpty(t, out.HealthIssues)
	})
}

func TestNoopRecommendationsAreSchemaValid(t *testing.T) {
	r := insights.NewRegistry()
	engine := insights.NewEngine(r, NewNoop())

	issues := []insights.ConditionStage{{Condition: "Elevated Cholesterol", Stage: "Mild"}}

	res, err := engine.Extract(context.Background(), insights.TaskDietary, insights.TaskInput{Issues: issues})
	require.NoError(t, err)
	dietary, err := insights.DecodeDietary(res)
	require.NoError(t, err)
	require.Len(t, dietary.DietaryRecommendations, 1)
	assert.Equal(t, "Elevated Cholesterol", dietary.DietaryRecommendations[0].Condition)

	res, err = engine.Extract(context.Background(), insights.TaskLifestyle, insights.TaskInput{Issues: issues})
	require.NoError(t, err)
	lifestyle, err := insights.DecodeLifestyle(res)
	require.NoError(t, err)
	assert.NotEmpty(t, lifestyle.Recommendations)
}

func TestNoopSeverityIsValidJSON(t *testing.T) {
	out, err := NewNoop().Generate(context.Background(), `Respond with "severity" and "rationale".`)
	require.NoError(t, err)

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.NotEmpty(t, payload["severity"])
}
