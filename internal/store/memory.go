package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/lokesh-122/DxAI/internal/insights"
)

// MemoryStore implements Store with in-memory storage.
type MemoryStore struct {
	mu      sync.RWMutex
	reports map[string]*insights.HistoryEntry
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		reports: make(map[string]*insights.HistoryEntry),
	}
}

// SaveReport stores a history entry and returns its generated ID.
func (s *MemoryStore) SaveReport(_ context.Context, entry *insights.HistoryEntry) (string, error) {
	if entry == nil {
		return "", fmt.Errorf("nil history entry")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *entry
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	s.reports[stored.ID] = &stored
	return stored.ID, nil
}

// ListReports returns a page of the user's history entries, newest first.
func (s *MemoryStore) ListReports(_ context.Context, userID string, pageSize int32, pageToken string) ([]*insights.HistoryEntry, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for id, entry := range s.reports {
		if entry.UserID == userID {
			ids = append(ids, id)
		}
	}

	ids, nextToken := paginateIDs(ids, pageSize, pageToken)

	entries := make([]*insights.HistoryEntry, 0, len(ids))
	for _, id := range ids {
		copied := *s.reports[id]
		entries = append(entries, &copied)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].AnalysisDate.After(entries[j].AnalysisDate)
	})

	return entries, nextToken, nil
}

// GetReport returns a single history entry by ID.
func (s *MemoryStore) GetReport(_ context.Context, reportID string) (*insights.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.reports[reportID]
	if !ok {
		return nil, fmt.Errorf("report %s not found", reportID)
	}
	copied := *entry
	return &copied, nil
}

// paginateIDs applies cursor-based pagination to a slice of IDs.
// Returns the page of IDs and the next page token (empty if no more pages).
func paginateIDs(ids []string, pageSize int32, pageToken string) ([]string, string) {
	if pageSize <= 0 {
		pageSize = 100
	}

	sort.Strings(ids)

	startIdx := 0
	if pageToken != "" {
		cursorID, err := DecodePageToken(pageToken)
		if err == nil {
			for i, id := range ids {
				if id > cursorID {
					startIdx = i
					break
				}
				if i == len(ids)-1 {
					return nil, ""
				}
			}
		}
	}

	ids = ids[startIdx:]

	nextToken := ""
	if len(ids) > int(pageSize) {
		ids = ids[:pageSize]
		nextToken = EncodePageToken(ids[len(ids)-1])
	}

	return ids, nextToken
}
