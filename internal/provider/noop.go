package provider

import (
	"context"
	"encoding/json"
	"strings"
)

// Noop is a deterministic offline provider for local development and demos.
// It produces schema-valid responses from simple keyword heuristics instead
// of a model call.
type Noop struct{}

func NewNoop() *Noop {
	return &Noop{}
}

func (n *Noop) Name() string { return "noop" }

var reportMarkers = []string{
	"patient", "report", "blood", "cholesterol", "ldl", "hdl", "glucose",
	"vitals", "lab", "mg/dl", "diagnosis", "scan", "mri", "x-ray",
	"hemoglobin", "pressure",
}

var normalMarkers = []string{
	"normal", "no abnormalities", "within range", "healthy", "unremarkable",
}

var abnormalMarkers = []string{
	"elevated", "high ", "low ", "deficien", "abnormal",
}

func (n *Noop) Generate(_ context.Context, prompt string) (string, error) {
	switch {
	case strings.Contains(prompt, `"analysisStatus"`):
		return n.insights(strings.ToLower(reportSection(prompt)))
	case strings.Contains(prompt, `"severity"`):
		return marshal(map[string]any{
			"severity":  "Moderate",
			"rationale": "Classified from the values mentioned in the report excerpt.",
		})
	case strings.Contains(prompt, `"dietaryRecommendations"`):
		return marshal(map[string]any{
			"dietaryRecommendations": []map[string]any{{
				"condition":            firstCondition(prompt),
				"foodsToEatMoreOf":     "Leafy greens, oats, fatty fish.",
				"foodsToAvoid":         "Fried foods, processed meats, added sugar.",
				"lifestyleSuggestions": "Walk 30 minutes daily and keep a regular sleep schedule.",
			}},
		})
	case strings.Contains(prompt, `"recommendations"`):
		return marshal(map[string]any{
			"recommendations": []string{
				"Aim for 30 minutes of moderate exercise most days.",
				"Reduce salt and processed food intake.",
				"Practice a short daily relaxation routine to manage stress.",
				"Keep a consistent sleep schedule of 7-8 hours.",
			},
		})
	default:
		return "{}", nil
	}
}

func (n *Noop) insights(lower string) (string, error) {
	if !containsAny(lower, reportMarkers) {
		return marshal(map[string]any{
			"analysisStatus": "INVALID_CONTENT",
			"statusReason":   "The provided text does not appear to be a medical document.",
			"healthIssues":   []any{},
		})
	}
	if containsAny(lower, normalMarkers) && !containsAny(lower, abnormalMarkers) {
		return marshal(map[string]any{
			"analysisStatus": "VALID_NO_ISSUES",
			"statusReason":   "No specific health concerns were identified in this report.",
			"healthIssues":   []any{},
		})
	}
	return marshal(map[string]any{
		"analysisStatus": "VALID_WITH_ISSUES",
		"healthIssues": []map[string]any{{
			"condition":                "Elevated Cholesterol",
			"stage":                    "Mild",
			"description":              "Cholesterol is a fatty substance in the blood; too much of it can clog blood vessels over time.",
			"conditionSummary":         "The report mentions a cholesterol value above the typical range.",
			"explanationOfFindings":    "This was noted because the report contains a cholesterol reading higher than the usual limit.",
			"generalCauses":            []string{"Diet high in saturated fats", "Lack of physical activity", "Family history", "Being overweight", "Smoking"},
			"commonSymptoms":           []string{"Usually no symptoms", "Sometimes fatigue", "Occasionally chest discomfort on exertion", "High readings on blood tests", "Often found on routine checkups"},
			"departmentRecommendation": "Cardiology",
			"dietaryRecommendations": map[string]any{
				"foodsToEatMoreOf": []string{"Oats, which help lower cholesterol", "Vegetables rich in fiber"},
				"foodsToAvoid":     []string{"Fried foods high in saturated fat", "Processed snacks"},
			},
			"lifestyleSuggestions": []string{"Exercise regularly to raise good cholesterol", "Maintain a healthy weight"},
		}},
	})
}

// reportSection isolates the embedded report text so marker words in the
// surrounding instruction do not trip the heuristics.
func reportSection(prompt string) string {
	if _, after, found := strings.Cut(prompt, "Medical report text:"); found {
		return after
	}
	return prompt
}

func firstCondition(prompt string) string {
	for _, line := range strings.Split(prompt, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "- Condition: "); ok {
			if name, _, found := strings.Cut(rest, ","); found {
				return strings.TrimSpace(name)
			}
			return strings.TrimSpace(rest)
		}
	}
	return "General health"
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func marshal(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
