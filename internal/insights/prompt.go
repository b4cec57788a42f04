package insights

import (
	"fmt"
	"strings"
)

// TaskInput carries the per-task values embedded in the rendered
// instruction. Only the fields relevant to the task are consulted.
type TaskInput struct {
	// TaskInsights
	Request ExtractionRequest

	// TaskSeverity
	Condition     string
	ReportExcerpt string

	// TaskDietary and TaskLifestyle
	Issues []ConditionStage
}

// renderPrompt produces the deterministic instruction for a task. The same
// schema and input always render the same text, so a schema version pins
// both the instruction sent to the model and the validation applied to its
// answer.
func renderPrompt(schema *TaskSchema, in TaskInput) (string, error) {
	var b strings.Builder
	b.WriteString(schema.Role)
	b.WriteString("\n\n")

	switch schema.ID {
	case TaskInsights:
		writeLanguageInstruction(&b, in.Request.TargetLanguage)
		writeTriStateRules(&b, in.Request.TargetLanguage)
	case TaskSeverity:
		fmt.Fprintf(&b, "Condition: %s\n\n", in.Condition)
	case TaskDietary, TaskLifestyle:
		b.WriteString("Health issues:\n")
		for _, issue := range in.Issues {
			fmt.Fprintf(&b, "- Condition: %s, Stage: %s\n", issue.Condition, issue.Stage)
		}
		b.WriteString("\n")
	default:
		return "", newError(ErrUnknownTask, "no prompt template for task "+schema.ID)
	}

	b.WriteString("Respond with a single JSON object and nothing else. JSON keys MUST remain exactly as named below, in English.\nOutput fields:\n")
	writeFieldRequirements(&b, schema.Fields, 0)
	b.WriteString("\n")

	switch schema.ID {
	case TaskInsights:
		fmt.Fprintf(&b, "Medical report text:\n%s\n", in.Request.ReportText)
	case TaskSeverity:
		fmt.Fprintf(&b, "Medical report text:\n%s\n", in.ReportExcerpt)
	}

	return b.String(), nil
}

// writeFieldRequirements renders one instruction clause per schema field, so
// every schema field has a corresponding line the model sees.
func writeFieldRequirements(b *strings.Builder, fields []Field, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, f := range fields {
		requirement := "optional"
		if f.Required {
			requirement = "required"
		}
		fmt.Fprintf(b, "%s- %q (%s): %s", indent, f.Name, requirement, f.Description)
		if f.Type == FieldEnum {
			fmt.Fprintf(b, " Allowed values: %s.", strings.Join(f.Enum, ", "))
		}
		b.WriteString("\n")
		if f.Type == FieldObject || f.Type == FieldObjectArray {
			if f.Type == FieldObjectArray {
				fmt.Fprintf(b, "%s  Each entry is an object with:\n", indent)
			}
			writeFieldRequirements(b, f.Fields, depth+1)
		}
	}
}

func writeLanguageInstruction(b *strings.Builder, targetLanguage string) {
	fmt.Fprintf(b, "IMPORTANT LANGUAGE INSTRUCTION:\nAll user-facing string values in the output MUST be written in %s, in simple, layperson-friendly language. The JSON keys themselves MUST always remain in English.\n\n", targetLanguage)
}

func writeTriStateRules(b *strings.Builder, targetLanguage string) {
	fmt.Fprintf(b, `First, critically evaluate whether the provided text is a genuine medical report.
- If the text does not seem to be a medical report (random text, a news article, a shopping list, etc.), set "analysisStatus" to "INVALID_CONTENT". The "healthIssues" array MUST be empty. Provide a brief "statusReason" in %[1]s explaining why the text is not a medical report.
- If the text is a medical report but contains no discernible health issues, or describes a normal/healthy state, set "analysisStatus" to "VALID_NO_ISSUES". The "healthIssues" array MUST be empty. Provide a "statusReason" in %[1]s such as "No specific health concerns were identified in this report."
- If the text is a medical report AND specific health issues are found, set "analysisStatus" to "VALID_WITH_ISSUES" and populate "healthIssues" with one detailed entry per issue. "statusReason" may be omitted.

`, targetLanguage)
}
