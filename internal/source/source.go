// Package source provides access to raw per-day ad-metric records. The
// engine consumes records only through the RecordSource interface; the
// warehouse behind it (ClickHouse in production) is replaceable.
package source

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pola2025/report-polarad-sub001/internal/models"
)

// ErrSourceUnavailable is returned when the record source cannot be
// reached or queried. The engine never retries; retry policy belongs to
// the caller. An empty date range is a valid result, not this error.
var ErrSourceUnavailable = errors.New("record source unavailable")

// RecordSource fetches raw per-day records for one client, channel and
// inclusive date range.
type RecordSource interface {
	Fetch(ctx context.Context, clientID string, channel models.Channel, start, end time.Time) ([]models.MetricRecord, error)
}

// InMemorySource is a RecordSource backed by a slice, for tests and
// local development.
type InMemorySource struct {
	mu      sync.RWMutex
	records []models.MetricRecord
}

// NewInMemorySource creates a source seeded with the given records.
func NewInMemorySource(records ...models.MetricRecord) *InMemorySource {
	return &InMemorySource{records: records}
}

// Add appends records to the source.
func (s *InMemorySource) Add(records ...models.MetricRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
}

// Fetch returns matching records. Order is not guaranteed, matching the
// behavior of the real warehouse.
func (s *InMemorySource) Fetch(ctx context.Context, clientID string, channel models.Channel, start, end time.Time) ([]models.MetricRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.MetricRecord
	for _, r := range s.records {
		if r.Channel != channel {
			continue
		}
		if r.Date.Before(start) || r.Date.After(end) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// FailingSource always returns ErrSourceUnavailable, for tests.
type FailingSource struct{}

func (FailingSource) Fetch(ctx context.Context, clientID string, channel models.Channel, start, end time.Time) ([]models.MetricRecord, error) {
	return nil, ErrSourceUnavailable
}
