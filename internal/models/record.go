package models

import (
	"errors"
	"time"
)

// Channel identifies which ad platform a metric record came from.
type Channel string

const (
	// ChannelMeta is the paid-social channel (impression/click based).
	ChannelMeta Channel = "meta"
	// ChannelNaver is the local-search channel (keyword ranked).
	ChannelNaver Channel = "naver"
)

// Valid reports whether the channel is one of the known platforms.
func (c Channel) Valid() bool {
	return c == ChannelMeta || c == ChannelNaver
}

// MetricRecord is one raw per-day observation fetched from the metric
// warehouse. Records are read-only inputs; the engine never mutates or
// persists them.
//
// Meta rows populate Leads/VideoViews/AvgWatchTime and carry spend in
// Spend. Naver rows populate Keyword/AvgCPC/AvgRank and carry spend in
// TotalCost. Fields for the other channel are left zero.
type MetricRecord struct {
	Date     time.Time `json:"date"`
	Channel  Channel   `json:"channel"`
	EntityID string    `json:"entity_id,omitempty"` // campaign/ad id (meta)
	Keyword  string    `json:"keyword,omitempty"`   // search keyword (naver)

	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Spend       float64 `json:"spend"`

	// Meta extras
	Leads        int64   `json:"leads,omitempty"`
	VideoViews   int64   `json:"video_views,omitempty"`
	AvgWatchTime float64 `json:"avg_watch_time,omitempty"`

	// Naver extras
	AvgCPC    float64 `json:"avg_cpc,omitempty"`
	AvgRank   float64 `json:"avg_rank,omitempty"`
	TotalCost float64 `json:"total_cost,omitempty"`
}

// SpendValue returns the channel-native spend for the record: Spend for
// meta, TotalCost for naver.
func (r *MetricRecord) SpendValue() float64 {
	if r.Channel == ChannelNaver {
		return r.TotalCost
	}
	return r.Spend
}

// Validate checks the minimal shape of a fetched record.
func (r *MetricRecord) Validate() error {
	if r.Date.IsZero() {
		return errors.New("metric record missing date")
	}
	if !r.Channel.Valid() {
		return errors.New("metric record has unknown channel")
	}
	return nil
}
