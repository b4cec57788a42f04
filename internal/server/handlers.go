// Package server exposes the analysis pipeline over JSON HTTP.
package server

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/lokesh-122/DxAI/internal/insights"
	"github.com/lokesh-122/DxAI/internal/mail"
	"github.com/lokesh-122/DxAI/internal/store"
	"github.com/lokesh-122/DxAI/internal/textextract"
)

const maxUploadBytes = 20 << 20 // 20 MiB

// Handler wires the facade, store and mailer to HTTP routes.
type Handler struct {
	svc    *insights.Service
	store  store.Store
	sender mail.Sender
	logger zerolog.Logger
}

func NewHandler(svc *insights.Service, st store.Store, sender mail.Sender, logger zerolog.Logger) *Handler {
	return &Handler{
		svc:    svc,
		store:  st,
		sender: sender,
		logger: logger,
	}
}

// RegisterRoutes mounts all API routes on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Post("/reports/analyze", h.AnalyzeReport)
		r.Post("/reports/extract-text", h.ExtractText)
		r.Post("/reports/email", h.EmailReport)
		r.Get("/reports", h.ListReports)
		r.Get("/reports/{reportID}", h.GetReport)
		r.Post("/conditions/severity", h.DetermineSeverity)
		r.Post("/recommendations/dietary", h.DietaryRecommendations)
		r.Post("/recommendations/lifestyle", h.LifestyleRecommendations)
	})
}

type analyzeRequest struct {
	Text           string `json:"text"`
	SourceKind     string `json:"sourceKind,omitempty"`
	TargetLanguage string `json:"targetLanguage,omitempty"`
	UserID         string `json:"userId,omitempty"`
}

type analyzeResponse struct {
	Status  string                      `json:"status"`
	Outcome *insights.ClassifiedOutcome `json:"outcome"`
}

// AnalyzeReport runs the full pipeline on pasted or pre-extracted text.
func (h *Handler) AnalyzeReport(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON request body")
		return
	}

	src := insights.Source{
		Kind:    insights.SourceKind(req.SourceKind),
		Content: req.Text,
	}
	outcome, err := h.svc.AnalyzeReport(r.Context(), src, req.TargetLanguage, req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{Status: "ok", Outcome: outcome})
}

type severityRequest struct {
	Condition     string `json:"condition"`
	ReportExcerpt string `json:"reportExcerpt"`
}

func (h *Handler) DetermineSeverity(w http.ResponseWriter, r *http.Request) {
	var req severityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON request body")
		return
	}

	result, err := h.svc.DetermineSeverity(r.Context(), req.Condition, req.ReportExcerpt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type recommendationsRequest struct {
	Issues []insights.ConditionStage `json:"issues"`
}

func (h *Handler) DietaryRecommendations(w http.ResponseWriter, r *http.Request) {
	var req recommendationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON request body")
		return
	}

	recs, err := h.svc.DietaryRecommendations(r.Context(), req.Issues)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dietaryRecommendations": recs})
}

func (h *Handler) LifestyleRecommendations(w http.ResponseWriter, r *http.Request) {
	var req recommendationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON request body")
		return
	}

	recs, err := h.svc.LifestyleRecommendations(r.Context(), req.Issues)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recommendations": recs})
}

// ExtractText accepts a multipart upload and returns the extracted plain
// text, ready to be passed to the analyze endpoint.
func (h *Handler) ExtractText(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeBadRequest(w, "expected a multipart upload with a file field")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeBadRequest(w, "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeBadRequest(w, "could not read uploaded file")
		return
	}

	text, err := textextract.FromUpload(data, header.Filename)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"fileName": header.Filename,
		"text":     text,
	})
}

// ListReports returns a page of the user's analysis history.
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeBadRequest(w, "userId query parameter is required")
		return
	}

	pageSize := int32(0)
	if raw := r.URL.Query().Get("pageSize"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeBadRequest(w, "invalid pageSize value")
			return
		}
		pageSize = int32(n)
	}

	entries, nextToken, err := h.store.ListReports(r.Context(), userID, pageSize, r.URL.Query().Get("pageToken"))
	if err != nil {
		writeError(w, &insights.AnalysisError{
			Code:    insights.ErrPersistence,
			Message: "failed to list reports",
			Cause:   err,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"reports":       entries,
		"nextPageToken": nextToken,
	})
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "reportID")

	entry, err := h.store.GetReport(r.Context(), reportID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{
			Status:   "error",
			Message:  "report not found",
			Code:     string(insights.ErrPersistence),
			Category: string(insights.CategoryInvalidInput),
		})
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

type emailRequest struct {
	To               string `json:"to"`
	Subject          string `json:"subject"`
	Body             string `json:"body"`
	AttachmentBase64 string `json:"attachmentBase64,omitempty"`
	AttachmentName   string `json:"attachmentName,omitempty"`
}

// EmailReport sends an analysis report by email, optionally with a PDF
// attachment supplied as base64.
func (h *Handler) EmailReport(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON request body")
		return
	}
	if req.To == "" {
		writeBadRequest(w, "to address is required")
		return
	}

	var attachment []byte
	if req.AttachmentBase64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.AttachmentBase64)
		if err != nil {
			writeBadRequest(w, "attachmentBase64 is not valid base64")
			return
		}
		attachment = decoded
	}

	err := h.sender.Send(mail.Message{
		To:             req.To,
		Subject:        req.Subject,
		Body:           req.Body,
		Attachment:     attachment,
		AttachmentName: req.AttachmentName,
	})
	if err != nil {
		h.logger.Error().Err(err).Str("to", req.To).Msg("failed to send report email")
		writeJSON(w, http.StatusBadGateway, errorResponse{
			Status:   "error",
			Message:  "the email could not be sent",
			Code:     "EMAIL_DISPATCH",
			Category: string(insights.CategoryServiceUnavailable),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// RegisterHealthRoutes registers liveness endpoints.
func RegisterHealthRoutes(r chi.Router) {
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})
}
