package store

import (
	"sync"
	"time"

	"github.com/i474232898/weather-insights/internal/weather"
)

// history holds time-ordered records of one kind with retention limits.
type history[T any] struct {
	records []T
	stamp   func(T) time.Time
}

func (h *history[T]) append(rec T, maxHistory int, maxAge time.Duration, now time.Time) {
	h.records = append(h.records, rec)

	// Enforce retention by count.
	if maxHistory > 0 && len(h.records) > maxHistory {
		over := len(h.records) - maxHistory
		h.records = append([]T(nil), h.records[over:]...)
	}

	// Enforce retention by age.
	if maxAge > 0 {
		cutoff := now.Add(-maxAge)
		i := 0
		for ; i < len(h.records); i++ {
			if !h.stamp(h.records[i]).Before(cutoff) {
				break
			}
		}
		if i > 0 {
			h.records = append([]T(nil), h.records[i:]...)
		}
	}
}

// oldestFirst returns up to limit of the oldest records.
func (h *history[T]) oldestFirst(limit int) []T {
	n := len(h.records)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]T, n)
	copy(out, h.records[:n])
	return out
}

// newestFirst returns up to limit of the newest records, newest first.
func (h *history[T]) newestFirst(limit int) []T {
	n := len(h.records)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]T, 0, n)
	for i := len(h.records) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, h.records[i])
	}
	return out
}

// MemoryStore is a concurrency-safe in-memory implementation of weather.Store.
type MemoryStore struct {
	mu sync.RWMutex

	statusChecks history[weather.StatusCheck]
	searches     history[weather.SearchEntry]
	alerts       history[weather.AlertRecord]

	// retention configuration
	maxHistory int           // max number of records per kind
	maxAge     time.Duration // optional max age for records
	now        func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		statusChecks: history[weather.StatusCheck]{stamp: func(c weather.StatusCheck) time.Time { return c.Timestamp }},
		searches:     history[weather.SearchEntry]{stamp: func(e weather.SearchEntry) time.Time { return e.Timestamp }},
		alerts:       history[weather.AlertRecord]{stamp: func(r weather.AlertRecord) time.Time { return r.Timestamp }},
		maxHistory:   maxHistory,
		maxAge:       maxAge,
		now:          time.Now,
	}
}

// SaveStatusCheck appends a status check and enforces retention.
func (s *MemoryStore) SaveStatusCheck(check weather.StatusCheck) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusChecks.append(check, s.maxHistory, s.maxAge, s.now())
}

// StatusChecks returns up to limit status checks in insertion order.
func (s *MemoryStore) StatusChecks(limit int) []weather.StatusCheck {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statusChecks.oldestFirst(limit)
}

// SaveSearch appends a search and enforces retention.
func (s *MemoryStore) SaveSearch(entry weather.SearchEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searches.append(entry, s.maxHistory, s.maxAge, s.now())
}

// RecentSearches returns up to limit searches, newest first.
func (s *MemoryStore) RecentSearches(limit int) []weather.SearchEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.searches.newestFirst(limit)
}

// RecordAlerts appends an alert evaluation and enforces retention.
func (s *MemoryStore) RecordAlerts(record weather.AlertRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts.append(record, s.maxHistory, s.maxAge, s.now())
}

// RecentAlerts returns up to limit alert evaluations, newest first.
func (s *MemoryStore) RecentAlerts(limit int) []weather.AlertRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.alerts.newestFirst(limit)
}

var _ weather.Store = (*MemoryStore)(nil)
