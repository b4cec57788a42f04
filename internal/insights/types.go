package insights

// SourceKind identifies where the raw report text came from.
type SourceKind string

const (
	SourceText          SourceKind = "text"
	SourceExtractedFile SourceKind = "extracted-file"
	SourceTranscript    SourceKind = "transcript"
)

// Source is one unit of caller input prior to normalization.
type Source struct {
	Kind    SourceKind
	Content string
}

// ExtractionRequest is the normalized input to the extraction engine.
// Immutable; created fresh per invocation.
type ExtractionRequest struct {
	ReportText     string
	TargetLanguage string
}

// AnalysisStatus is the tri-state outcome of a full-report analysis.
type AnalysisStatus string

const (
	StatusValidWithIssues AnalysisStatus = "VALID_WITH_ISSUES"
	StatusValidNoIssues   AnalysisStatus = "VALID_NO_ISSUES"
	StatusInvalidContent  AnalysisStatus = "INVALID_CONTENT"
)

// DietaryAdvice groups food guidance for a single condition.
type DietaryAdvice struct {
	FoodsToEatMoreOf []string `json:"foodsToEatMoreOf"`
	FoodsToAvoid     []string `json:"foodsToAvoid"`
}

// HealthIssue is one extracted condition-level finding. All user-facing
// string fields are rendered in the requested target language; JSON keys
// stay fixed.
type HealthIssue struct {
	Condition                string        `json:"condition"`
	Stage                    string        `json:"stage"`
	Description              string        `json:"description"`
	ConditionSummary         string        `json:"conditionSummary"`
	ExplanationOfFindings    string        `json:"explanationOfFindings"`
	GeneralCauses            []string      `json:"generalCauses"`
	CommonSymptoms           []string      `json:"commonSymptoms"`
	ImpactOnDailyLife        string        `json:"impactOnDailyLife,omitempty"`
	DepartmentRecommendation string        `json:"departmentRecommendation"`
	DietaryRecommendations   DietaryAdvice `json:"dietaryRecommendations"`
	LifestyleSuggestions     []string      `json:"lifestyleSuggestions"`
	QuestionsToAskDoctor     []string      `json:"questionsToAskDoctor,omitempty"`
	MonitoringAdvice         []string      `json:"monitoringAdvice,omitempty"`
}

// InsightsResult is the validated output of the health_insights task.
type InsightsResult struct {
	AnalysisStatus AnalysisStatus `json:"analysisStatus"`
	StatusReason   string         `json:"statusReason,omitempty"`
	HealthIssues   []HealthIssue  `json:"healthIssues"`
}

// ClassifiedOutcome wraps an InsightsResult whose tri-state invariant has
// been checked: HealthIssues is non-empty iff Status is VALID_WITH_ISSUES.
type ClassifiedOutcome struct {
	Status   AnalysisStatus  `json:"status"`
	Insights *InsightsResult `json:"insights"`
}

// SeverityResult is the output of the condition_severity task.
type SeverityResult struct {
	Severity  string `json:"severity"`
	Rationale string `json:"rationale"`
}

// ConditionStage is a pre-extracted condition/stage pair used as input to
// the recommendation tasks.
type ConditionStage struct {
	Condition string `json:"condition"`
	Stage     string `json:"stage"`
}

// DietaryRecommendation is one entry of the dietary_recommendations task.
type DietaryRecommendation struct {
	Condition            string `json:"condition"`
	FoodsToEatMoreOf     string `json:"foodsToEatMoreOf"`
	FoodsToAvoid         string `json:"foodsToAvoid"`
	LifestyleSuggestions string `json:"lifestyleSuggestions"`
}

// DietaryResult is the validated output of the dietary_recommendations task.
type DietaryResult struct {
	DietaryRecommendations []DietaryRecommendation `json:"dietaryRecommendations"`
}

// LifestyleResult is the validated output of the lifestyle_recommendations task.
type LifestyleResult struct {
	Recommendations []string `json:"recommendations"`
}
