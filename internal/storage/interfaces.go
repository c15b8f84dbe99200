// Package storage defines the persistence boundary for reports and
// comments, with PostgreSQL and in-memory implementations sharing the
// same semantics.
package storage

import (
	"context"
	"errors"

	"github.com/pola2025/report-polarad-sub001/internal/models"
)

var (
	// ErrNotFound is returned when a referenced report or comment does
	// not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicatePeriod is returned when a report already exists for
	// the same (client, period_start, period_end) key. It is distinct
	// from generic failures so callers can branch on it, e.g. update
	// instead of create.
	ErrDuplicatePeriod = errors.New("report already exists for this client and period")
)

// ReportRepo defines operations for report storage.
type ReportRepo interface {
	Create(ctx context.Context, r *models.Report) error
	GetByID(ctx context.Context, id string) (*models.Report, error)
	ListByClient(ctx context.Context, clientID string) ([]*models.Report, error)
	Update(ctx context.Context, r *models.Report) error
}

// CommentRepo defines operations for the single visible comment per
// report. Upsert has replace-on-conflict semantics: concurrent writers
// for the same report converge to one row, never a duplicate.
type CommentRepo interface {
	Upsert(ctx context.Context, c *models.Comment) (*models.Comment, error)
	GetByReport(ctx context.Context, reportID string) (*models.Comment, error)
	Hide(ctx context.Context, reportID string) error
}
