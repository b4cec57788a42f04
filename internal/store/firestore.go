package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"github.com/lokesh-122/DxAI/internal/insights"
)

const reportsCollection = "reports"

// FirestoreStore implements the Store interface using Firestore.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a new Firestore-backed store.
func NewFirestoreStore(client *firestore.Client) Store {
	return &FirestoreStore{
		client: client,
	}
}

// SaveReport stores a history entry and returns its document ID.
func (s *FirestoreStore) SaveReport(ctx context.Context, entry *insights.HistoryEntry) (string, error) {
	if entry == nil {
		return "", fmt.Errorf("nil history entry")
	}

	stored := *entry
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}

	_, err := s.client.Collection(reportsCollection).Doc(stored.ID).Set(ctx, &stored)
	if err != nil {
		return "", fmt.Errorf("failed to save report: %w", err)
	}
	return stored.ID, nil
}

// ListReports lists a user's history entries with cursor-based pagination.
func (s *FirestoreStore) ListReports(ctx context.Context, userID string, pageSize int32, pageToken string) ([]*insights.HistoryEntry, string, error) {
	var query firestore.Query
	query = s.client.Collection(reportsCollection).Query

	// NOTE: Field names must match Go struct field names (PascalCase) as that's how Firestore serializes structs
	if userID != "" {
		query = query.Where("UserID", "==", userID)
	}

	query, err := s.applyCursorPagination(query, pageSize, pageToken)
	if err != nil {
		return nil, "", err
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, "", fmt.Errorf("failed to list reports: %w", err)
	}

	if pageSize <= 0 {
		pageSize = 100
	}

	var nextPageToken string
	if len(docs) > int(pageSize) {
		docs = docs[:pageSize]
		nextPageToken = EncodePageToken(docs[pageSize-1].Ref.ID)
	}

	entries := make([]*insights.HistoryEntry, 0, len(docs))
	for _, doc := range docs {
		var entry insights.HistoryEntry
		if err := doc.DataTo(&entry); err != nil {
			return nil, "", fmt.Errorf("failed to parse report: %w", err)
		}
		entries = append(entries, &entry)
	}

	return entries, nextPageToken, nil
}

// GetReport retrieves a single history entry from Firestore.
func (s *FirestoreStore) GetReport(ctx context.Context, reportID string) (*insights.HistoryEntry, error) {
	doc, err := s.client.Collection(reportsCollection).Doc(reportID).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("report not found: %w", err)
	}

	var entry insights.HistoryEntry
	if err := doc.DataTo(&entry); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &entry, nil
}

// applyCursorPagination adds OrderBy + StartAfter + Limit to a query for cursor-based pagination.
// It fetches pageSize+1 docs so the caller can detect whether a next page exists.
func (s *FirestoreStore) applyCursorPagination(query firestore.Query, pageSize int32, pageToken string) (firestore.Query, error) {
	query = query.OrderBy(firestore.DocumentID, firestore.Asc)

	if pageToken != "" {
		docID, err := DecodePageToken(pageToken)
		if err != nil {
			return query, fmt.Errorf("invalid page token: %w", err)
		}
		query = query.StartAfter(docID)
	}

	if pageSize <= 0 {
		pageSize = 100
	}
	query = query.Limit(int(pageSize) + 1) // +1 to detect next page
	return query, nil
}
