package engine

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pola2025/report-polarad-sub001/internal/models"
)

func naverRecord(date time.Time, kw string, imps, clicks int64, cost, rank float64) models.MetricRecord {
	return models.MetricRecord{
		Date:        date,
		Channel:     models.ChannelNaver,
		Keyword:     kw,
		Impressions: imps,
		Clicks:      clicks,
		TotalCost:   cost,
		AvgRank:     rank,
	}
}

func TestRollupKeywordsSummary(t *testing.T) {
	records := []models.MetricRecord{
		naverRecord(day(2025, 7, 1), "a", 100, 10, 1000, 3),
		naverRecord(day(2025, 7, 2), "a", 200, 20, 2000, 5),
	}

	got := RollupKeywords(records)
	require.Len(t, got, 1)

	s := got[0]
	assert.Equal(t, "a", s.Keyword)
	assert.Equal(t, int64(300), s.Impressions)
	assert.Equal(t, int64(30), s.Clicks)
	assert.Equal(t, 3000.0, s.Cost)
	assert.Equal(t, 10.0, s.CTR)
	assert.Equal(t, 100.0, s.AvgCPC)
	assert.Equal(t, 4.0, s.AvgRank)
	assert.Equal(t, 2, s.DaysCount)
	assert.Equal(t, day(2025, 7, 1), s.FirstDate)
	assert.Equal(t, day(2025, 7, 2), s.LastDate)
}

func TestRollupKeywordsZeroGuards(t *testing.T) {
	records := []models.MetricRecord{
		naverRecord(day(2025, 7, 1), "quiet", 0, 0, 500, 0),
	}

	got := RollupKeywords(records)
	require.Len(t, got, 1)
	assert.Zero(t, got[0].CTR)
	assert.Zero(t, got[0].AvgCPC)
	assert.Zero(t, got[0].AvgRank)
}

func TestRollupKeywordsCaseSensitiveKeys(t *testing.T) {
	records := []models.MetricRecord{
		naverRecord(day(2025, 7, 1), "Pizza", 100, 10, 1000, 1),
		naverRecord(day(2025, 7, 1), "pizza", 100, 10, 1000, 1),
	}

	got := RollupKeywords(records)
	assert.Len(t, got, 2, "keywords are grouped by raw string, no normalization")
}

func TestRollupKeywordsDateTrackingIgnoresInsertionOrder(t *testing.T) {
	records := []models.MetricRecord{
		naverRecord(day(2025, 7, 15), "a", 10, 1, 100, 2),
		naverRecord(day(2025, 7, 1), "a", 10, 1, 100, 2),
		naverRecord(day(2025, 7, 30), "a", 10, 1, 100, 2),
	}

	got := RollupKeywords(records)
	require.Len(t, got, 1)
	assert.Equal(t, day(2025, 7, 1), got[0].FirstDate)
	assert.Equal(t, day(2025, 7, 30), got[0].LastDate)
}

func TestRollupKeywordsOrderIndependence(t *testing.T) {
	base := []models.MetricRecord{
		naverRecord(day(2025, 7, 1), "a", 100, 10, 1000, 3),
		naverRecord(day(2025, 7, 2), "a", 200, 20, 2000, 5),
		naverRecord(day(2025, 7, 1), "b", 50, 5, 3000, 1),
		naverRecord(day(2025, 7, 3), "c", 10, 1, 100, 8),
	}
	want := RollupKeywords(base)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := make([]models.MetricRecord, len(base))
		copy(shuffled, base)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		assert.Equal(t, want, RollupKeywords(shuffled))
	}
}

func TestKeywordTrend(t *testing.T) {
	records := []models.MetricRecord{
		naverRecord(day(2025, 7, 3), "a", 200, 0, 2000, 5),
		naverRecord(day(2025, 7, 1), "a", 100, 10, 1000, 3),
		naverRecord(day(2025, 7, 2), "b", 999, 99, 9999, 1),
	}

	got := KeywordTrend(records, "a")
	require.Len(t, got, 2)
	assert.Equal(t, day(2025, 7, 1), got[0].Date)
	assert.Equal(t, 10.0, got[0].CTR)
	assert.Equal(t, day(2025, 7, 3), got[1].Date)
	assert.Zero(t, got[1].CTR, "zero impressions guard")
}
