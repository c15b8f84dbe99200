package report

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pola2025/report-polarad-sub001/internal/engine"
	"github.com/pola2025/report-polarad-sub001/internal/models"
	"github.com/pola2025/report-polarad-sub001/internal/source"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedSource() *source.InMemorySource {
	return source.NewInMemorySource(
		// current period: July 2025
		models.MetricRecord{Date: day(2025, 7, 3), Channel: models.ChannelMeta, Impressions: 1000, Clicks: 100, Spend: 50, Leads: 5},
		models.MetricRecord{Date: day(2025, 7, 10), Channel: models.ChannelMeta, Impressions: 3000, Clicks: 50, Spend: 100, Leads: 2},
		models.MetricRecord{Date: day(2025, 7, 3), Channel: models.ChannelNaver, Keyword: "pizza delivery", Impressions: 500, Clicks: 50, TotalCost: 65000, AvgRank: 2},
		models.MetricRecord{Date: day(2025, 7, 4), Channel: models.ChannelNaver, Keyword: "pizza delivery", Impressions: 400, Clicks: 40, TotalCost: 52000, AvgRank: 3},
		// previous period: June 2025
		models.MetricRecord{Date: day(2025, 6, 15), Channel: models.ChannelMeta, Impressions: 2000, Clicks: 100, Spend: 100, Leads: 4},
	)
}

func julyRequest() BuildRequest {
	return BuildRequest{
		ClientID:    "client-1",
		ReportType:  models.ReportTypeMonthly,
		PeriodStart: day(2025, 7, 1),
		PeriodEnd:   day(2025, 7, 31),
	}
}

func newTestBuilder(src source.RecordSource) *Builder {
	fx, _ := engine.NewCurrencyConverter(1300)
	return NewBuilder(src, fx, nil, zap.NewNop())
}

func TestBuildSummary(t *testing.T) {
	b := newTestBuilder(seedSource())

	summary, err := b.BuildSummary(context.Background(), julyRequest())
	require.NoError(t, err)

	assert.Equal(t, summarySchemaVersion, summary.SchemaVersion)
	assert.Equal(t, engine.CurrencyKRW, summary.Currency)

	require.NotNil(t, summary.Meta)
	assert.Equal(t, int64(4000), summary.Meta.Totals.Impressions)
	assert.Equal(t, int64(150), summary.Meta.Totals.Clicks)
	assert.Equal(t, 150.0, summary.Meta.Totals.Spend)
	assert.Len(t, summary.Meta.Daily, 2)
	assert.NotEmpty(t, summary.Meta.Weekly, "monthly reports carry the weekly breakdown")

	require.NotNil(t, summary.Naver)
	assert.Equal(t, 117000.0, summary.Naver.Totals.Spend)
	require.Len(t, summary.Naver.Keywords, 1)
	assert.Equal(t, "pizza delivery", summary.Naver.Keywords[0].Keyword)

	// June had meta activity, so changes against it are real.
	var impChange engine.MetricChange
	for _, c := range summary.Meta.Changes {
		if c.Metric == "impressions" {
			impChange = c
		}
	}
	assert.Equal(t, 100.0, impChange.PercentChange)
	assert.Equal(t, engine.DirectionUp, impChange.Direction)

	// Cross-channel spend is normalized: 150 USD * 1300 = 195000 KRW.
	require.NotNil(t, summary.CrossChannel)
	assert.Equal(t, 312000.0, summary.CrossChannel.TotalSpend)
	assert.Equal(t, 62.5, summary.CrossChannel.SpendShare.Meta)
	assert.Equal(t, 37.5, summary.CrossChannel.SpendShare.Naver)
}

func TestBuildSummaryExtremes(t *testing.T) {
	b := newTestBuilder(seedSource())

	summary, err := b.BuildSummary(context.Background(), julyRequest())
	require.NoError(t, err)

	var spendExtremes engine.ExtremeDayResult
	for _, e := range summary.Meta.Extremes {
		if e.Metric == "spend" {
			spendExtremes = e
		}
	}
	assert.Equal(t, day(2025, 7, 10), spendExtremes.Best.Date)
	assert.Equal(t, day(2025, 7, 3), spendExtremes.Worst.Date)
}

func TestBuildSummaryEmptyPeriodIsNotAnError(t *testing.T) {
	b := newTestBuilder(source.NewInMemorySource())

	summary, err := b.BuildSummary(context.Background(), julyRequest())
	require.NoError(t, err, "an empty range is a valid, non-error result")

	assert.Zero(t, summary.Meta.Totals.Impressions)
	assert.Zero(t, summary.Naver.Totals.Spend)
	assert.Equal(t, 0.0, summary.CrossChannel.SpendShare.Meta)
	assert.Equal(t, 0.0, summary.CrossChannel.SpendShare.Naver)
	for _, c := range summary.Meta.Changes {
		assert.Zero(t, c.PercentChange)
	}
}

func TestBuildSummaryFetchFailure(t *testing.T) {
	b := newTestBuilder(source.FailingSource{})

	summary, err := b.BuildSummary(context.Background(), julyRequest())
	assert.ErrorIs(t, err, source.ErrSourceUnavailable)
	assert.Nil(t, summary, "no partial summary on fetch failure")
}

func TestBuildSummaryDeterministic(t *testing.T) {
	b := newTestBuilder(seedSource())
	req := julyRequest()

	first, err := b.BuildSummary(context.Background(), req)
	require.NoError(t, err)
	second, err := b.BuildSummary(context.Background(), req)
	require.NoError(t, err)

	// Identical inputs yield byte-identical payloads apart from the
	// generation timestamp.
	first.GeneratedAt = time.Time{}
	second.GeneratedAt = time.Time{}
	a, err := json.Marshal(first)
	require.NoError(t, err)
	bts, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(bts))
}

func TestPreviousPeriodCalendarMonth(t *testing.T) {
	start, end := PreviousPeriod(day(2025, 7, 1), day(2025, 7, 31), models.ReportTypeMonthly)
	assert.Equal(t, day(2025, 6, 1), start)
	assert.Equal(t, day(2025, 6, 30), end)

	// March compares against all of February.
	start, end = PreviousPeriod(day(2025, 3, 1), day(2025, 3, 31), models.ReportTypeMonthly)
	assert.Equal(t, day(2025, 2, 1), start)
	assert.Equal(t, day(2025, 2, 28), end)
}

func TestPreviousPeriodWeekly(t *testing.T) {
	start, end := PreviousPeriod(day(2025, 7, 6), day(2025, 7, 12), models.ReportTypeWeekly)
	assert.Equal(t, day(2025, 6, 29), start)
	assert.Equal(t, day(2025, 7, 5), end)
}

func TestWeekOfYear(t *testing.T) {
	// 2025-01-01 is a Wednesday; the first partial week is week 1.
	assert.Equal(t, 1, WeekOfYear(day(2025, 1, 1)))
	assert.Equal(t, 1, WeekOfYear(day(2025, 1, 4)))  // Saturday
	assert.Equal(t, 2, WeekOfYear(day(2025, 1, 5)))  // Sunday starts week 2
	assert.Equal(t, 28, WeekOfYear(day(2025, 7, 6))) // mid-year Sunday
}
