package insights

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultLanguage is used when the caller does not request a target language.
const DefaultLanguage = "English"

var languageTitler = cases.Title(language.English)

// Normalize converts a raw input source and requested language into an
// ExtractionRequest. Pure transformation plus validation; no side effects.
func Normalize(src Source, targetLanguage string) (ExtractionRequest, error) {
	text := strings.TrimSpace(src.Content)
	if text == "" {
		return ExtractionRequest{}, newError(ErrEmptyInput, "report text is empty after trimming")
	}

	switch src.Kind {
	case SourceText, SourceExtractedFile, SourceTranscript:
	case "":
		// Callers that submit plain text without a kind get the default.
		src.Kind = SourceText
	default:
		return ExtractionRequest{}, newError(ErrUnsupportedMedia, "unknown source kind "+string(src.Kind))
	}

	return ExtractionRequest{
		ReportText:     text,
		TargetLanguage: NormalizeLanguage(targetLanguage),
	}, nil
}

// NormalizeLanguage canonicalizes a requested target language so that
// "spanish" and "Spanish" render identical prompts. Empty input falls back
// to DefaultLanguage. Language selection is independent of source kind.
func NormalizeLanguage(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return DefaultLanguage
	}
	return languageTitler.String(strings.ToLower(lang))
}
