// Package memory provides an in-process record store for development and
// tests.
package memory

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/JakeFAU/firm-intel-crawler/internal/crawler"
)

// RecordStore keeps firm and insight records in maps keyed by firm ID.
type RecordStore struct {
	mu       sync.RWMutex
	firms    map[string]crawler.FirmRecord
	insights map[string]crawler.InsightRecord
	order    []string
}

// NewRecordStore constructs an empty RecordStore.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		firms:    make(map[string]crawler.FirmRecord),
		insights: make(map[string]crawler.InsightRecord),
	}
}

// StoreFirm upserts record by its ID.
func (s *RecordStore) StoreFirm(_ context.Context, record crawler.FirmRecord) error {
	id := record.ID()
	if id == "" {
		return errors.New("firm name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.firms[id]; !exists {
		s.order = append(s.order, id)
	}
	s.firms[id] = cloneFirm(record)
	return nil
}

// StoreInsights upserts insight for firmName.
func (s *RecordStore) StoreInsights(_ context.Context, firmName string, insight crawler.InsightRecord) error {
	id := crawler.FirmID(firmName)
	if id == "" {
		return errors.New("firm name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insights[id] = insight
	return nil
}

// Firm returns the record stored under id.
func (s *RecordStore) Firm(id string) (crawler.FirmRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.firms[id]
	return cloneFirm(rec), ok
}

// Insight returns the insight stored under id.
func (s *RecordStore) Insight(id string) (crawler.InsightRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.insights[id]
	return rec, ok
}

// Firms lists records in first-stored order.
func (s *RecordStore) Firms() []crawler.FirmRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]crawler.FirmRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, cloneFirm(s.firms[id]))
	}
	return out
}

func cloneFirm(r crawler.FirmRecord) crawler.FirmRecord {
	r.HiringKeywords = slices.Clone(r.HiringKeywords)
	r.RecentWins = slices.Clone(r.RecentWins)
	r.SectorFocus = slices.Clone(r.SectorFocus)
	return r
}
