package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleIssue() HealthIssue {
	return HealthIssue{
		Condition:                "Hypertension",
		Stage:                    "Stage 1",
		Description:              "Blood pressure is higher than it should be.",
		ConditionSummary:         "Readings of 145/92 were recorded.",
		ExplanationOfFindings:    "The systolic value is above 140.",
		GeneralCauses:            []string{"High salt intake", "Stress"},
		CommonSymptoms:           []string{"Often none", "Occasional headaches"},
		DepartmentRecommendation: "Cardiology",
		DietaryRecommendations: DietaryAdvice{
			FoodsToEatMoreOf: []string{"Vegetables"},
			FoodsToAvoid:     []string{"Salty snacks"},
		},
		LifestyleSuggestions: []string{"Regular walks"},
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		result  InsightsResult
		wantErr bool
	}{
		{
			name: "with issues and non-empty findings",
			result: InsightsResult{
				AnalysisStatus: StatusValidWithIssues,
				HealthIssues:   []HealthIssue{sampleIssue()},
			},
		},
		{
			name: "no issues with empty findings",
			result: InsightsResult{
				AnalysisStatus: StatusValidNoIssues,
				StatusReason:   "Report appears normal.",
			},
		},
		{
			name: "invalid content with empty findings",
			result: InsightsResult{
				AnalysisStatus: StatusInvalidContent,
				StatusReason:   "Text does not resemble a medical document.",
			},
		},
		{
			name: "with issues but empty findings",
			result: InsightsResult{
				AnalysisStatus: StatusValidWithIssues,
			},
			wantErr: true,
		},
		{
			name: "no issues but findings present",
			result: InsightsResult{
				AnalysisStatus: StatusValidNoIssues,
				HealthIssues:   []HealthIssue{sampleIssue()},
			},
			wantErr: true,
		},
		{
			name: "invalid content but findings present",
			result: InsightsResult{
				AnalysisStatus: StatusInvalidContent,
				HealthIssues:   []HealthIssue{sampleIssue()},
			},
			wantErr: true,
		},
		{
			name: "unrecognized status",
			result: InsightsResult{
				AnalysisStatus: "PENDING",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := Classify(&tt.result)
			if tt.wantErr {
				require.Error(t, err)
				var ae *AnalysisError
				require.ErrorAs(t, err, &ae)
				assert.Equal(t, ErrInconsistentOutcome, ae.Code)
				assert.False(t, ae.Retryable, "contract violations are never retried")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.result.AnalysisStatus, outcome.Status)
			require.NotNil(t, outcome.Insights)
			assert.Equal(t, tt.result.HealthIssues, outcome.Insights.HealthIssues)
		})
	}
}
