package models

import (
	"encoding/json"
	"time"
)

// ReportType distinguishes the reporting cadence.
type ReportType string

const (
	ReportTypeMonthly ReportType = "monthly"
	ReportTypeWeekly  ReportType = "weekly"
)

// Valid reports whether the report type is known.
func (t ReportType) Valid() bool {
	return t == ReportTypeMonthly || t == ReportTypeWeekly
}

// ReportStatus is the lifecycle state of a report.
type ReportStatus string

const (
	StatusDraft     ReportStatus = "draft"
	StatusPublished ReportStatus = "published"
	StatusArchived  ReportStatus = "archived"
)

// Valid reports whether the status is one of the lifecycle states.
func (s ReportStatus) Valid() bool {
	return s == StatusDraft || s == StatusPublished || s == StatusArchived
}

// Report is the persisted unit of work. Exactly one report may exist per
// (client_id, period_start, period_end); the store enforces the
// constraint and surfaces violations as a duplicate-period error.
//
// PublishedAt is stamped once, on the draft to published transition, and
// survives archival. SummaryData holds the structured aggregate snapshot
// produced by the builder; AIInsights is an opaque narrative payload the
// engine only stores and forwards.
type Report struct {
	ID          string       `json:"id"`
	ClientID    string       `json:"client_id"`
	ReportType  ReportType   `json:"report_type"`
	PeriodStart time.Time    `json:"period_start"`
	PeriodEnd   time.Time    `json:"period_end"`
	Year        int          `json:"year"`
	Month       *int         `json:"month,omitempty"`
	Week        *int         `json:"week,omitempty"`
	Status      ReportStatus `json:"status"`

	PublishedAt   *time.Time      `json:"published_at,omitempty"`
	SummaryData   json.RawMessage `json:"summary_data,omitempty"`
	AIInsights    json.RawMessage `json:"ai_insights,omitempty"`
	AIGeneratedAt *time.Time      `json:"ai_generated_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasSummary reports whether a summary snapshot has been attached.
func (r *Report) HasSummary() bool {
	return len(r.SummaryData) > 0
}

// PeriodKey returns the uniqueness key for the report's client and period.
func (r *Report) PeriodKey() string {
	return r.ClientID + "|" + r.PeriodStart.Format("2006-01-02") + "|" + r.PeriodEnd.Format("2006-01-02")
}

// Comment is the single visible comment attached to a report. Removal is
// a soft delete via IsVisible; the row itself is never deleted.
type Comment struct {
	ID        string    `json:"id"`
	ReportID  string    `json:"report_id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	IsVisible bool      `json:"is_visible"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
