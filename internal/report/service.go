// Package report owns the report lifecycle: creation under the period
// uniqueness constraint, the draft/published/archived state machine,
// summary and insight attachment, comments, and the computation
// pipeline that produces summary payloads.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pola2025/report-polarad-sub001/internal/metrics"
	"github.com/pola2025/report-polarad-sub001/internal/models"
	"github.com/pola2025/report-polarad-sub001/internal/notify"
	"github.com/pola2025/report-polarad-sub001/internal/storage"
)

// allowedTransitions enumerates the lifecycle table. Re-entering the
// current state is always accepted as a no-op; archived is terminal.
var allowedTransitions = map[models.ReportStatus]map[models.ReportStatus]bool{
	models.StatusDraft: {
		models.StatusDraft:     true,
		models.StatusPublished: true,
		models.StatusArchived:  true,
	},
	models.StatusPublished: {
		models.StatusPublished: true,
		models.StatusArchived:  true,
	},
	models.StatusArchived: {
		models.StatusArchived: true,
	},
}

// Service manages persisted reports. Authorization happens in the HTTP
// layer; the service assumes its caller is allowed to mutate.
type Service struct {
	reports       storage.ReportRepo
	comments      storage.CommentRepo
	cache         *storage.ReportCache
	sender        notify.Sender
	notifyChannel string
	metrics       *metrics.Metrics
	logger        *zap.Logger
}

// NewService constructs the report lifecycle service. cache may be nil
// when Redis is unavailable; sender should be a NopSender rather than
// nil when notifications are not configured.
func NewService(reports storage.ReportRepo, comments storage.CommentRepo, cache *storage.ReportCache,
	sender notify.Sender, notifyChannel string, m *metrics.Metrics, logger *zap.Logger) *Service {
	return &Service{
		reports:       reports,
		comments:      comments,
		cache:         cache,
		sender:        sender,
		notifyChannel: notifyChannel,
		metrics:       m,
		logger:        logger,
	}
}

// CreateParams are the required inputs for report creation. Summary is
// optional; when present it is attached to the draft at creation time.
type CreateParams struct {
	ClientID    string
	ReportType  models.ReportType
	PeriodStart time.Time
	PeriodEnd   time.Time
	Summary     *Summary
}

func (p *CreateParams) validate() error {
	if p.ClientID == "" {
		return &ValidationError{Field: "client_id", Reason: "required"}
	}
	if !p.ReportType.Valid() {
		return &ValidationError{Field: "report_type", Reason: "must be monthly or weekly"}
	}
	if p.PeriodStart.IsZero() || p.PeriodEnd.IsZero() {
		return &ValidationError{Field: "period", Reason: "start and end are required"}
	}
	if p.PeriodEnd.Before(p.PeriodStart) {
		return &ValidationError{Field: "period", Reason: "end precedes start"}
	}
	return nil
}

// Create persists a new draft report. A second report for the same
// (client, period) key fails with storage.ErrDuplicatePeriod.
func (s *Service) Create(ctx context.Context, p CreateParams) (*models.Report, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rep := &models.Report{
		ID:          uuid.NewString(),
		ClientID:    p.ClientID,
		ReportType:  p.ReportType,
		PeriodStart: p.PeriodStart,
		PeriodEnd:   p.PeriodEnd,
		Year:        p.PeriodStart.Year(),
		Status:      models.StatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	switch p.ReportType {
	case models.ReportTypeMonthly:
		m := int(p.PeriodStart.Month())
		rep.Month = &m
	case models.ReportTypeWeekly:
		w := WeekOfYear(p.PeriodStart)
		rep.Week = &w
	}

	if p.Summary != nil {
		data, err := json.Marshal(p.Summary)
		if err != nil {
			return nil, fmt.Errorf("failed to encode summary: %w", err)
		}
		rep.SummaryData = data
	}

	if err := s.reports.Create(ctx, rep); err != nil {
		if errors.Is(err, storage.ErrDuplicatePeriod) && s.metrics != nil {
			s.metrics.DuplicatePeriods.Inc()
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ReportsCreated.WithLabelValues(string(p.ReportType)).Inc()
	}
	s.logger.Info("report created",
		zap.String("report_id", rep.ID),
		zap.String("client_id", rep.ClientID),
		zap.String("report_type", string(rep.ReportType)),
	)
	return rep, nil
}

// Get returns a report by id, consulting the cache first.
func (s *Service) Get(ctx context.Context, id string) (*models.Report, error) {
	if rep, ok := s.cache.Get(ctx, id); ok {
		if s.metrics != nil {
			s.metrics.CacheHits.Inc()
		}
		return rep, nil
	}
	if s.metrics != nil {
		s.metrics.CacheMisses.Inc()
	}

	rep, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, rep)
	return rep, nil
}

// ListByClient returns a client's reports, newest period first.
func (s *Service) ListByClient(ctx context.Context, clientID string) ([]*models.Report, error) {
	return s.reports.ListByClient(ctx, clientID)
}

// Publish transitions a report to published. Publishing requires an
// attached summary and stamps published_at exactly once; republishing
// is a no-op.
func (s *Service) Publish(ctx context.Context, id string) (*models.Report, error) {
	rep, err := s.changeStatus(ctx, id, models.StatusPublished)
	if err != nil {
		return nil, err
	}

	if s.sender != nil {
		delivered := s.sender.Send(ctx, s.notifyChannel,
			fmt.Sprintf("Report %s for client %s has been published.", rep.ID, rep.ClientID))
		s.metrics.RecordNotification(delivered)
		if !delivered {
			s.logger.Warn("publish notification not delivered", zap.String("report_id", rep.ID))
		}
	}
	return rep, nil
}

// Archive transitions a report to archived. published_at and the
// summary survive archival; archived is terminal.
func (s *Service) Archive(ctx context.Context, id string) (*models.Report, error) {
	return s.changeStatus(ctx, id, models.StatusArchived)
}

func (s *Service) changeStatus(ctx context.Context, id string, target models.ReportStatus) (*models.Report, error) {
	rep, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if rep.Status == target {
		// Idempotent status write: accepted, nothing restamped.
		return rep, nil
	}
	if !allowedTransitions[rep.Status][target] {
		if s.metrics != nil {
			s.metrics.InvalidTransitions.Inc()
		}
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, rep.Status, target)
	}

	now := time.Now().UTC()
	if target == models.StatusPublished {
		if !rep.HasSummary() {
			return nil, &ValidationError{Field: "summary_data", Reason: "cannot publish a report without a summary"}
		}
		if rep.PublishedAt == nil {
			rep.PublishedAt = &now
		}
	}

	rep.Status = target
	rep.UpdatedAt = now
	if err := s.reports.Update(ctx, rep); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, rep.ID)
	if s.metrics != nil {
		switch target {
		case models.StatusPublished:
			s.metrics.ReportsPublished.Inc()
		case models.StatusArchived:
			s.metrics.ReportsArchived.Inc()
		}
	}
	s.logger.Info("report status changed",
		zap.String("report_id", rep.ID),
		zap.String("status", string(target)),
	)
	return rep, nil
}

// AttachSummary stores a summary snapshot on the report. Allowed in any
// state; always bumps updated_at.
func (s *Service) AttachSummary(ctx context.Context, id string, summary *Summary) (*models.Report, error) {
	if summary == nil {
		return nil, &ValidationError{Field: "summary_data", Reason: "required"}
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("failed to encode summary: %w", err)
	}

	rep, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rep.SummaryData = data
	rep.UpdatedAt = time.Now().UTC()

	if err := s.reports.Update(ctx, rep); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, rep.ID)
	return rep, nil
}

// AttachInsights stores the opaque narrative payload and stamps
// ai_generated_at. The engine never interprets the payload.
func (s *Service) AttachInsights(ctx context.Context, id string, insights json.RawMessage) (*models.Report, error) {
	if len(insights) == 0 {
		return nil, &ValidationError{Field: "ai_insights", Reason: "required"}
	}

	rep, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rep.AIInsights = insights
	rep.AIGeneratedAt = &now
	rep.UpdatedAt = now

	if err := s.reports.Update(ctx, rep); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, rep.ID)
	return rep, nil
}

// UpsertComment writes the single visible comment for a report,
// replacing any existing one.
func (s *Service) UpsertComment(ctx context.Context, reportID, author, content string) (*models.Comment, error) {
	if content == "" {
		return nil, &ValidationError{Field: "content", Reason: "required"}
	}
	if _, err := s.reports.GetByID(ctx, reportID); err != nil {
		return nil, err
	}
	return s.comments.Upsert(ctx, &models.Comment{
		ReportID: reportID,
		Author:   author,
		Content:  content,
	})
}

// GetComment returns the visible comment for a report.
func (s *Service) GetComment(ctx context.Context, reportID string) (*models.Comment, error) {
	return s.comments.GetByReport(ctx, reportID)
}

// HideComment soft-deletes the report's comment.
func (s *Service) HideComment(ctx context.Context, reportID string) error {
	return s.comments.Hide(ctx, reportID)
}
