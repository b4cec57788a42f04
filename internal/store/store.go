// Package store persists analysis history. Two implementations exist: an
// in-memory store for local development and tests, and a Firestore-backed
// store for production. The distinction is made explicitly at wiring time,
// never hidden inside production code paths.
package store

import (
	"context"
	"encoding/base64"

	"github.com/lokesh-122/DxAI/internal/insights"
)

// Store is the history-store collaborator consumed by the analysis facade
// and the HTTP surface. All operations are best-effort from the pipeline's
// point of view: a failure here never fails an analysis.
type Store interface {
	insights.HistoryStore

	ListReports(ctx context.Context, userID string, pageSize int32, pageToken string) ([]*insights.HistoryEntry, string, error)
	GetReport(ctx context.Context, reportID string) (*insights.HistoryEntry, error)
}

// EncodePageToken encodes a document ID into a page token.
func EncodePageToken(docID string) string {
	if docID == "" {
		return ""
	}
	return base64.URLEncoding.EncodeToString([]byte(docID))
}

// DecodePageToken decodes a page token back to a document ID.
func DecodePageToken(token string) (string, error) {
	if token == "" {
		return "", nil
	}
	b, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
