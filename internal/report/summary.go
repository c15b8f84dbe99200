package report

import (
	"time"

	"github.com/pola2025/report-polarad-sub001/internal/engine"
)

// summarySchemaVersion identifies the summary payload layout. Bump it
// when the structure changes so downstream readers can branch.
const summarySchemaVersion = 1

// Summary is the structured aggregate snapshot stored on a report as
// summary_data. It is a closed, versioned type: the narrative insight
// payload lives next to it on the report and stays opaque.
type Summary struct {
	SchemaVersion int             `json:"schema_version"`
	ClientID      string          `json:"client_id"`
	PeriodStart   time.Time       `json:"period_start"`
	PeriodEnd     time.Time       `json:"period_end"`
	Currency      engine.Currency `json:"currency"`

	Meta  *ChannelSection `json:"meta,omitempty"`
	Naver *ChannelSection `json:"naver,omitempty"`

	CrossChannel *engine.ChannelComparison `json:"cross_channel,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
}

// ChannelSection is one channel's slice of the summary: period totals
// with KPIs, the daily series, period-over-period changes and
// best/worst-day picks. Keywords is populated for naver only.
type ChannelSection struct {
	Totals   engine.Aggregate          `json:"totals"`
	KPIs     engine.ChannelKPIs        `json:"kpis"`
	Daily    []engine.Aggregate        `json:"daily"`
	Weekly   []engine.Aggregate        `json:"weekly,omitempty"`
	Changes  []engine.MetricChange     `json:"changes"`
	Extremes []engine.ExtremeDayResult `json:"extremes"`
	Keywords []engine.KeywordSummary   `json:"keywords,omitempty"`
}
