// Package textextract converts uploaded files into plain report text.
// PDF and plain text are supported; images need OCR, which is explicitly
// unsupported and rejected with an actionable error.
package textextract

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"

	"github.com/lokesh-122/DxAI/internal/insights"
)

const (
	maxTextBytes     = 100 * 1024 // cap for extracted text
	scannedThreshold = 50         // chars per page below which a PDF is considered scanned
)

// FromUpload extracts plain text from an uploaded file. filename is only
// used in error messages.
func FromUpload(data []byte, filename string) (string, error) {
	if len(data) == 0 {
		return "", &insights.AnalysisError{
			Code:    insights.ErrEmptyInput,
			Message: "uploaded file is empty",
		}
	}

	switch sniffMimeType(data) {
	case "application/pdf":
		return fromPDF(data, filename)
	case "image/png", "image/jpeg", "image/gif", "image/webp":
		return "", &insights.AnalysisError{
			Code:    insights.ErrUnsupportedMedia,
			Message: fmt.Sprintf("%s is an image; OCR is not supported, upload a text-based PDF or paste the text", filename),
		}
	default:
		return fromPlainText(data, filename)
	}
}

// sniffMimeType identifies the payload from magic bytes.
func sniffMimeType(data []byte) string {
	switch {
	case len(data) >= 4 && string(data[:4]) == "%PDF":
		return "application/pdf"
	case len(data) >= 8 && string(data[:4]) == "\x89PNG":
		return "image/png"
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return "image/jpeg"
	case len(data) >= 6 && (string(data[:6]) == "GIF87a" || string(data[:6]) == "GIF89a"):
		return "image/gif"
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return "image/webp"
	default:
		return "text/plain"
	}
}

// fromPDF extracts plain text from a PDF. The pdf library can panic on
// malformed documents, so the whole extraction runs under recover.
func fromPDF(data []byte, filename string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Str("file", filename).Interface("panic", r).Msg("recovered from PDF parser panic")
			text = ""
			err = &insights.AnalysisError{
				Code:    insights.ErrUnsupportedMedia,
				Message: fmt.Sprintf("could not read %s as a PDF", filename),
				Cause:   fmt.Errorf("panic during PDF parsing: %v", r),
			}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &insights.AnalysisError{
			Code:    insights.ErrUnsupportedMedia,
			Message: fmt.Sprintf("could not open %s as a PDF", filename),
			Cause:   err,
		}
	}

	pages := reader.NumPage()
	if pages < 1 {
		pages = 1
	}

	plainText, err := reader.GetPlainText()
	if err != nil {
		return "", &insights.AnalysisError{
			Code:    insights.ErrUnsupportedMedia,
			Message: fmt.Sprintf("could not extract text from %s", filename),
			Cause:   err,
		}
	}

	textBytes, err := io.ReadAll(io.LimitReader(plainText, int64(maxTextBytes)))
	if err != nil {
		return "", fmt.Errorf("read extracted text: %w", err)
	}

	text = string(textBytes)
	if isLikelyScanned(text, pages) {
		return "", &insights.AnalysisError{
			Code:    insights.ErrUnsupportedMedia,
			Message: fmt.Sprintf("%s appears to be a scanned document; OCR is not supported, paste the report text instead", filename),
		}
	}

	return text, nil
}

func fromPlainText(data []byte, filename string) (string, error) {
	if len(data) > maxTextBytes {
		data = data[:maxTextBytes]
	}
	if !utf8.Valid(data) {
		return "", &insights.AnalysisError{
			Code:    insights.ErrUnsupportedMedia,
			Message: fmt.Sprintf("%s is not a supported format; upload a text-based PDF or plain text", filename),
		}
	}
	return strings.TrimSpace(string(data)), nil
}

// isLikelyScanned returns true when a PDF has too little extractable text
// per page to be a digital document.
func isLikelyScanned(text string, pages int) bool {
	if pages <= 0 {
		pages = 1
	}
	return len(text)/pages < scannedThreshold
}
