package insights

import "fmt"

// Classify derives the tri-state outcome from a validated insights result
// and enforces the invariant that findings are populated if and only if the
// status is VALID_WITH_ISSUES. A violation is a contract breach by the
// model and is surfaced, never repaired; repairing would hide a prompt or
// model defect. No retries happen here.
func Classify(result *InsightsResult) (*ClassifiedOutcome, error) {
	switch result.AnalysisStatus {
	case StatusValidWithIssues:
		if len(result.HealthIssues) == 0 {
			return nil, inconsistent("status is VALID_WITH_ISSUES but no health issues were returned")
		}
	case StatusValidNoIssues, StatusInvalidContent:
		if len(result.HealthIssues) > 0 {
			return nil, inconsistent(fmt.Sprintf(
				"status is %s but %d health issues were returned",
				result.AnalysisStatus, len(result.HealthIssues)))
		}
	default:
		return nil, inconsistent("unrecognized analysis status " + string(result.AnalysisStatus))
	}

	return &ClassifiedOutcome{
		Status:   result.AnalysisStatus,
		Insights: result,
	}, nil
}

func inconsistent(msg string) error {
	return newError(ErrInconsistentOutcome, msg)
}
