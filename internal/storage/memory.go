package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pola2025/report-polarad-sub001/internal/models"
)

// InMemoryReportRepo is a thread-safe in-memory implementation of
// ReportRepo. It mirrors the PostgreSQL semantics, including the
// uniqueness constraint on (client, period), and backs tests and
// degraded startup when PostgreSQL is unavailable.
type InMemoryReportRepo struct {
	mu       sync.RWMutex
	reports  map[string]*models.Report
	byPeriod map[string]string // period key -> report id
}

// NewInMemoryReportRepo creates an empty in-memory report repo.
func NewInMemoryReportRepo() *InMemoryReportRepo {
	return &InMemoryReportRepo{
		reports:  make(map[string]*models.Report),
		byPeriod: make(map[string]string),
	}
}

func (r *InMemoryReportRepo) Create(ctx context.Context, rep *models.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := rep.PeriodKey()
	if _, exists := r.byPeriod[key]; exists {
		return ErrDuplicatePeriod
	}

	cp := *rep
	r.reports[rep.ID] = &cp
	r.byPeriod[key] = rep.ID
	return nil
}

func (r *InMemoryReportRepo) GetByID(ctx context.Context, id string) (*models.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rep, ok := r.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rep
	return &cp, nil
}

func (r *InMemoryReportRepo) ListByClient(ctx context.Context, clientID string) ([]*models.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.Report
	for _, rep := range r.reports {
		if rep.ClientID != clientID {
			continue
		}
		cp := *rep
		out = append(out, &cp)
	}
	// Newest period first, matching the SQL ordering.
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].PeriodStart.After(out[i].PeriodStart) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (r *InMemoryReportRepo) Update(ctx context.Context, rep *models.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.reports[rep.ID]
	if !ok {
		return ErrNotFound
	}

	stored.Status = rep.Status
	stored.PublishedAt = rep.PublishedAt
	stored.SummaryData = rep.SummaryData
	stored.AIInsights = rep.AIInsights
	stored.AIGeneratedAt = rep.AIGeneratedAt
	stored.UpdatedAt = rep.UpdatedAt
	return nil
}

// InMemoryCommentRepo is a thread-safe in-memory CommentRepo with the
// same replace-on-conflict upsert contract as the PostgreSQL repo.
type InMemoryCommentRepo struct {
	mu       sync.RWMutex
	byReport map[string]*models.Comment
}

// NewInMemoryCommentRepo creates an empty in-memory comment repo.
func NewInMemoryCommentRepo() *InMemoryCommentRepo {
	return &InMemoryCommentRepo{byReport: make(map[string]*models.Comment)}
}

func (r *InMemoryCommentRepo) Upsert(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	existing, ok := r.byReport[c.ReportID]
	if ok {
		existing.Author = c.Author
		existing.Content = c.Content
		existing.IsVisible = true
		existing.UpdatedAt = now
		cp := *existing
		return &cp, nil
	}

	saved := &models.Comment{
		ID:        c.ID,
		ReportID:  c.ReportID,
		Author:    c.Author,
		Content:   c.Content,
		IsVisible: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}
	r.byReport[c.ReportID] = saved
	cp := *saved
	return &cp, nil
}

func (r *InMemoryCommentRepo) GetByReport(ctx context.Context, reportID string) (*models.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byReport[reportID]
	if !ok || !c.IsVisible {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *InMemoryCommentRepo) Hide(ctx context.Context, reportID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byReport[reportID]
	if !ok {
		return ErrNotFound
	}
	c.IsVisible = false
	c.UpdatedAt = time.Now().UTC()
	return nil
}
