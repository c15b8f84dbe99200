package source

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/pola2025/report-polarad-sub001/internal/models"
)

// ClickHouseSource reads daily ad-metric rows from the analytics
// warehouse. Rows land there per (client, channel, entity/keyword, day)
// via the platform sync jobs; this source only ever reads.
type ClickHouseSource struct {
	conn   driver.Conn
	logger *zap.Logger
}

// NewClickHouseSource creates a warehouse-backed record source.
func NewClickHouseSource(conn driver.Conn, logger *zap.Logger) *ClickHouseSource {
	return &ClickHouseSource{conn: conn, logger: logger}
}

// Fetch queries the warehouse for one client, channel and inclusive
// date range. Transport or query failures surface as
// ErrSourceUnavailable; an empty result set is not an error.
func (s *ClickHouseSource) Fetch(ctx context.Context, clientID string, channel models.Channel, start, end time.Time) ([]models.MetricRecord, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT
			date, entity_id, keyword,
			impressions, clicks, spend,
			leads, video_views, avg_watch_time,
			avg_cpc, avg_rank, total_cost
		FROM ad_metrics_daily
		WHERE client_id = ? AND channel = ? AND date >= ? AND date <= ?
	`, clientID, string(channel), start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer rows.Close()

	var records []models.MetricRecord
	for rows.Next() {
		r := models.MetricRecord{Channel: channel}
		if err := rows.Scan(
			&r.Date, &r.EntityID, &r.Keyword,
			&r.Impressions, &r.Clicks, &r.Spend,
			&r.Leads, &r.VideoViews, &r.AvgWatchTime,
			&r.AvgCPC, &r.AvgRank, &r.TotalCost,
		); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	s.logger.Debug("fetched metric records",
		zap.String("client_id", clientID),
		zap.String("channel", string(channel)),
		zap.Int("count", len(records)),
	)
	return records, nil
}
