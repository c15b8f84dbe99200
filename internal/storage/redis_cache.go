package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pola2025/report-polarad-sub001/internal/models"
)

// ReportCache is a read-through Redis cache of report payloads. It sits
// in front of the report repo for read traffic; cache failures are never
// surfaced as errors, only as misses.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewReportCache creates a cache with the given TTL.
func NewReportCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ReportCache {
	return &ReportCache{client: client, ttl: ttl, logger: logger}
}

func cacheKey(id string) string {
	return "report:" + id
}

// Get returns the cached report and true on a hit.
func (c *ReportCache) Get(ctx context.Context, id string) (*models.Report, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, cacheKey(id)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("report cache read failed", zap.String("report_id", id), zap.Error(err))
		return nil, false
	}

	var rep models.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		c.logger.Warn("report cache entry corrupt, dropping", zap.String("report_id", id), zap.Error(err))
		c.client.Del(ctx, cacheKey(id))
		return nil, false
	}
	return &rep, true
}

// Set stores the report for the configured TTL.
func (c *ReportCache) Set(ctx context.Context, rep *models.Report) {
	if c == nil || c.client == nil || rep == nil {
		return
	}

	data, err := json.Marshal(rep)
	if err != nil {
		c.logger.Warn("report cache marshal failed", zap.String("report_id", rep.ID), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, cacheKey(rep.ID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("report cache write failed", zap.String("report_id", rep.ID), zap.Error(err))
	}
}

// Invalidate drops a report from the cache, e.g. after a mutation.
func (c *ReportCache) Invalidate(ctx context.Context, id string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		c.logger.Warn("report cache invalidate failed", zap.String("report_id", id), zap.Error(err))
	}
}
