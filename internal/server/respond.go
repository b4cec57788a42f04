package server

import (
	"encoding/json"
	"net/http"

	"github.com/lokesh-122/DxAI/internal/insights"
)

// errorResponse is the uniform error envelope. Category tells clients whether
// a retry could help; internal detail never leaks past UserMessage.
type errorResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Code      string `json:"code"`
	Category  string `json:"category"`
	Retryable bool   `json:"retryable"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps any error onto the envelope. Non-AnalysisError values are
// wrapped as internal so raw messages never reach the caller.
func writeError(w http.ResponseWriter, err error) {
	ae := insights.AsAnalysisError(err)
	writeJSON(w, ae.HTTPStatus(), errorResponse{
		Status:    "error",
		Message:   ae.UserMessage(),
		Code:      string(ae.Code),
		Category:  string(ae.Category()),
		Retryable: ae.IsRetryable(),
	})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Status:   "error",
		Message:  message,
		Code:     string(insights.ErrEmptyInput),
		Category: string(insights.CategoryInvalidInput),
	})
}
