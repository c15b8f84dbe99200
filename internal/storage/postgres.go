package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pola2025/report-polarad-sub001/internal/models"
)

// pgUniqueViolation is the SQLSTATE for unique constraint violations.
const pgUniqueViolation = "23505"

const reportColumns = `id, client_id, report_type, period_start, period_end,
	year, month, week, status, published_at, summary_data,
	ai_insights, ai_generated_at, created_at, updated_at`

// PostgresReportRepo implements ReportRepo using PostgreSQL.
type PostgresReportRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresReportRepo(pool *pgxpool.Pool) *PostgresReportRepo {
	return &PostgresReportRepo{pool: pool}
}

func (r *PostgresReportRepo) Create(ctx context.Context, rep *models.Report) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO reports (`+reportColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		rep.ID, rep.ClientID, rep.ReportType, rep.PeriodStart, rep.PeriodEnd,
		rep.Year, rep.Month, rep.Week, rep.Status, rep.PublishedAt, rep.SummaryData,
		rep.AIInsights, rep.AIGeneratedAt, rep.CreatedAt, rep.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicatePeriod
		}
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

func (r *PostgresReportRepo) GetByID(ctx context.Context, id string) (*models.Report, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id)

	rep, err := scanReport(row)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return rep, nil
}

func (r *PostgresReportRepo) ListByClient(ctx context.Context, clientID string) ([]*models.Report, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+reportColumns+` FROM reports
		WHERE client_id = $1
		ORDER BY period_start DESC
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []*models.Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

func (r *PostgresReportRepo) Update(ctx context.Context, rep *models.Report) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reports SET
			status = $2,
			published_at = $3,
			summary_data = $4,
			ai_insights = $5,
			ai_generated_at = $6,
			updated_at = $7
		WHERE id = $1
	`,
		rep.ID, rep.Status, rep.PublishedAt, rep.SummaryData,
		rep.AIInsights, rep.AIGeneratedAt, rep.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*models.Report, error) {
	var rep models.Report
	err := row.Scan(
		&rep.ID, &rep.ClientID, &rep.ReportType, &rep.PeriodStart, &rep.PeriodEnd,
		&rep.Year, &rep.Month, &rep.Week, &rep.Status, &rep.PublishedAt, &rep.SummaryData,
		&rep.AIInsights, &rep.AIGeneratedAt, &rep.CreatedAt, &rep.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

// PostgresCommentRepo implements CommentRepo using PostgreSQL. The
// report_id unique constraint plus ON CONFLICT DO UPDATE gives upsert
// its replace semantics at the database, so concurrent writers never
// race at the application level.
type PostgresCommentRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresCommentRepo(pool *pgxpool.Pool) *PostgresCommentRepo {
	return &PostgresCommentRepo{pool: pool}
}

func (r *PostgresCommentRepo) Upsert(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO report_comments (id, report_id, author, content, is_visible, created_at, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, $5, $5)
		ON CONFLICT (report_id) DO UPDATE SET
			author = EXCLUDED.author,
			content = EXCLUDED.content,
			is_visible = TRUE,
			updated_at = EXCLUDED.updated_at
		RETURNING id, report_id, author, content, is_visible, created_at, updated_at
	`, c.ID, c.ReportID, c.Author, c.Content, now)

	var saved models.Comment
	err := row.Scan(&saved.ID, &saved.ReportID, &saved.Author, &saved.Content,
		&saved.IsVisible, &saved.CreatedAt, &saved.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert comment: %w", err)
	}
	return &saved, nil
}

func (r *PostgresCommentRepo) GetByReport(ctx context.Context, reportID string) (*models.Comment, error) {
	var c models.Comment
	err := r.pool.QueryRow(ctx, `
		SELECT id, report_id, author, content, is_visible, created_at, updated_at
		FROM report_comments
		WHERE report_id = $1 AND is_visible
	`, reportID).Scan(&c.ID, &c.ReportID, &c.Author, &c.Content, &c.IsVisible, &c.CreatedAt, &c.UpdatedAt)

	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &c, nil
}

func (r *PostgresCommentRepo) Hide(ctx context.Context, reportID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE report_comments SET is_visible = FALSE, updated_at = $2
		WHERE report_id = $1
	`, reportID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to hide comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
