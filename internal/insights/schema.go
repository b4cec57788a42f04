package insights

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Task identifiers. Each task is bound to exactly one schema.
const (
	TaskInsights  = "health_insights"
	TaskSeverity  = "condition_severity"
	TaskDietary   = "dietary_recommendations"
	TaskLifestyle = "lifestyle_recommendations"
)

// FieldType is the semantic type of a schema field.
type FieldType string

const (
	FieldString      FieldType = "string"
	FieldEnum        FieldType = "enum"
	FieldStringArray FieldType = "string-array"
	FieldObject      FieldType = "object"
	FieldObjectArray FieldType = "object-array"
)

// Field describes one expected output field. The description is embedded
// verbatim in the rendered instruction, so schema changes and instruction
// changes move together.
type Field struct {
	Name        string
	Type        FieldType
	Required    bool
	Description string
	Enum        []string // FieldEnum only
	Fields      []Field  // FieldObject and FieldObjectArray element fields
}

// TaskSchema is a named, versioned description of an expected output shape.
// Instances are immutable and built once at process start.
type TaskSchema struct {
	ID      string
	Role    string // role statement opening the rendered instruction
	Fields  []Field
	Version string // hex prefix of the sha256 of the compiled schema document

	compiled *jsonschema.Schema
}

// Validate checks decoded JSON output against the task's compiled schema.
// Missing required fields, type mismatches and enum violations all fail;
// nothing is silently defaulted.
func (s *TaskSchema) Validate(value any) error {
	if err := s.compiled.Validate(value); err != nil {
		return &AnalysisError{
			Code:    ErrSchemaValidation,
			Message: fmt.Sprintf("model output does not conform to %s schema v%s", s.ID, s.Version),
			Cause:   err,
		}
	}
	return nil
}

// Registry is a static catalog of task schemas keyed by task identifier.
type Registry struct {
	schemas map[string]*TaskSchema
}

// Get returns the schema for taskID.
func (r *Registry) Get(taskID string) (*TaskSchema, error) {
	s, ok := r.schemas[taskID]
	if !ok {
		return nil, newError(ErrUnknownTask, "no schema registered for task "+taskID)
	}
	return s, nil
}

// NewRegistry builds the registry with the four task schemas. It panics on a
// malformed schema definition, which can only happen at development time.
func NewRegistry() *Registry {
	r := &Registry{schemas: make(map[string]*TaskSchema)}
	for _, s := range []*TaskSchema{
		insightsSchema(),
		severitySchema(),
		dietarySchema(),
		lifestyleSchema(),
	} {
		compileSchema(s)
		r.schemas[s.ID] = s
	}
	return r
}

// compileSchema turns the field descriptors into a JSON Schema document,
// compiles it, and stamps the content-hash version.
func compileSchema(s *TaskSchema) {
	doc := objectSchema(s.Fields)
	raw, err := json.Marshal(doc)
	if err != nil {
		panic(fmt.Sprintf("marshal %s schema: %v", s.ID, err))
	}

	sum := sha256.Sum256(raw)
	s.Version = hex.EncodeToString(sum[:])[:12]

	compiler := jsonschema.NewCompiler()
	resource := s.ID + ".json"
	if err := compiler.AddResource(resource, bytes.NewReader(raw)); err != nil {
		panic(fmt.Sprintf("add %s schema resource: %v", s.ID, err))
	}
	compiled, err := compiler.Compile(resource)
	if err != nil {
		panic(fmt.Sprintf("compile %s schema: %v", s.ID, err))
	}
	s.compiled = compiled
}

// objectSchema builds the JSON Schema node for an object with the given fields.
func objectSchema(fields []Field) map[string]any {
	properties := make(map[string]any, len(fields))
	var required []string
	for _, f := range fields {
		properties[f.Name] = fieldSchema(f)
		if f.Required {
			required = append(required, f.Name)
		}
	}
	node := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		node["required"] = required
	}
	return node
}

func fieldSchema(f Field) map[string]any {
	switch f.Type {
	case FieldString:
		node := map[string]any{"type": "string"}
		if f.Required {
			node["minLength"] = 1
		}
		return node
	case FieldEnum:
		return map[string]any{"type": "string", "enum": f.Enum}
	case FieldStringArray:
		return map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string", "minLength": 1},
		}
	case FieldObject:
		return objectSchema(f.Fields)
	case FieldObjectArray:
		return map[string]any{
			"type":  "array",
			"items": objectSchema(f.Fields),
		}
	default:
		panic("unknown field type " + string(f.Type))
	}
}

func insightsSchema() *TaskSchema {
	return &TaskSchema{
		ID:   TaskInsights,
		Role: "You are an AI medical report analyzer. Analyze the provided medical report text, extract meaningful health insights, and provide personalized recommendations. Explanations must be exceptionally clear, detailed, and easy for a layperson with no medical background to understand. Avoid medical jargon; if a medical term is necessary, define it simply.",
		Fields: []Field{
			{
				Name:     "analysisStatus",
				Type:     FieldEnum,
				Required: true,
				Enum: []string{
					string(StatusValidWithIssues),
					string(StatusValidNoIssues),
					string(StatusInvalidContent),
				},
				Description: "The outcome of the analysis: 'VALID_WITH_ISSUES' if the input is a medical report and health issues were found, 'VALID_NO_ISSUES' if the input is a medical report but no specific issues were identified or it appears normal, 'INVALID_CONTENT' if the input text does not appear to be a medical report.",
			},
			{
				Name:        "statusReason",
				Type:        FieldString,
				Description: "A brief layperson explanation when analysisStatus is 'VALID_NO_ISSUES' (e.g. 'Report appears normal.') or 'INVALID_CONTENT' (e.g. 'Text does not resemble a medical document.'). Omit when 'VALID_WITH_ISSUES'.",
			},
			{
				Name:        "healthIssues",
				Type:        FieldObjectArray,
				Required:    true,
				Description: "The identified health issues. MUST be empty unless analysisStatus is 'VALID_WITH_ISSUES'.",
				Fields:      healthIssueFields(),
			},
		},
	}
}

func healthIssueFields() []Field {
	return []Field{
		{Name: "condition", Type: FieldString, Required: true,
			Description: "The name of the health condition."},
		{Name: "stage", Type: FieldString, Required: true,
			Description: "The medical stage or severity (e.g. Mild, Moderate, Severe, Stage 1)."},
		{Name: "description", Type: FieldString, Required: true,
			Description: "A detailed but simple medical definition of the issue explained in layperson terms, using analogies if helpful."},
		{Name: "conditionSummary", Type: FieldString, Required: true,
			Description: "A comprehensive summary of the patient's specific condition based directly on the report, highlighting all key findings relevant to this issue, in very plain language."},
		{Name: "explanationOfFindings", Type: FieldString, Required: true,
			Description: "A step-by-step explanation of what in the report (observations, lab values, symptoms) led to identifying this condition, in very simple terms."},
		{Name: "generalCauses", Type: FieldStringArray, Required: true,
			Description: "5-7 common or general causes for this condition, each briefly explained in simple non-medical language."},
		{Name: "commonSymptoms", Type: FieldStringArray, Required: true,
			Description: "5-7 typical symptoms of this condition, each described so a layperson can easily recognize it."},
		{Name: "impactOnDailyLife", Type: FieldString,
			Description: "Optional: a practical explanation of how this condition might affect daily life or well-being, with examples."},
		{Name: "departmentRecommendation", Type: FieldString, Required: true,
			Description: "ONLY the name of the specialist or medical department recommended for consultation (e.g. Cardiology, Neurologist, General Practitioner). No additional explanation."},
		{
			Name:        "dietaryRecommendations",
			Type:        FieldObject,
			Required:    true,
			Description: "Personalized dietary guidance for this condition.",
			Fields: []Field{
				{Name: "foodsToEatMoreOf", Type: FieldStringArray, Required: true,
					Description: "Foods to eat more of, each with a brief reason why it helps this condition."},
				{Name: "foodsToAvoid", Type: FieldStringArray, Required: true,
					Description: "Foods to avoid or limit, each with a brief reason why it may be detrimental."},
			},
		},
		{Name: "lifestyleSuggestions", Type: FieldStringArray, Required: true,
			Description: "Actionable lifestyle suggestions covering exercise, stress management, sleep and similar aspects, each with a simple rationale."},
		{Name: "questionsToAskDoctor", Type: FieldStringArray,
			Description: "Optional: 3-5 simple, practical questions the patient could ask their doctor about this condition."},
		{Name: "monitoringAdvice", Type: FieldStringArray,
			Description: "Optional: 2-3 general, easy-to-understand points on what symptoms or changes to monitor. General awareness only, never medical instructions."},
	}
}

func severitySchema() *TaskSchema {
	return &TaskSchema{
		ID:   TaskSeverity,
		Role: "You are an expert medical analyst. Based on the medical report text provided and the identified condition, determine the stage or severity of the condition.",
		Fields: []Field{
			{Name: "severity", Type: FieldString, Required: true,
				Description: "The severity or stage of the condition, chosen from terms such as Mild, Moderate, Severe, Stage 1, Stage 2."},
			{Name: "rationale", Type: FieldString, Required: true,
				Description: "An explanation of how this severity was reached from the report text, including any relevant lab values or observations."},
		},
	}
}

func dietarySchema() *TaskSchema {
	return &TaskSchema{
		ID:   TaskDietary,
		Role: "You are a registered dietitian. Generate personalized dietary and lifestyle recommendations for the given health issues and their severities.",
		Fields: []Field{
			{
				Name:        "dietaryRecommendations",
				Type:        FieldObjectArray,
				Required:    true,
				Description: "One entry per health condition.",
				Fields: []Field{
					{Name: "condition", Type: FieldString, Required: true,
						Description: "The name of the health condition."},
					{Name: "foodsToEatMoreOf", Type: FieldString, Required: true,
						Description: "Foods to eat more of for this condition."},
					{Name: "foodsToAvoid", Type: FieldString, Required: true,
						Description: "Foods to avoid for this condition."},
					{Name: "lifestyleSuggestions", Type: FieldString, Required: true,
						Description: "General lifestyle suggestions for this condition."},
				},
			},
		},
	}
}

func lifestyleSchema() *TaskSchema {
	return &TaskSchema{
		ID:   TaskLifestyle,
		Role: "You are an AI health assistant that provides personalized lifestyle recommendations based on a user's health issues. Focus on diet, exercise, stress management, and sleep.",
		Fields: []Field{
			{Name: "recommendations", Type: FieldStringArray, Required: true,
				Description: "Personalized, actionable lifestyle recommendations the user can follow to mitigate their health issues."},
		},
	}
}
