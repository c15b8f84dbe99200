package report

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pola2025/report-polarad-sub001/internal/engine"
	"github.com/pola2025/report-polarad-sub001/internal/metrics"
	"github.com/pola2025/report-polarad-sub001/internal/models"
	"github.com/pola2025/report-polarad-sub001/internal/source"
)

// extremeMetrics are the per-day series inspected for best/worst days.
var extremeMetrics = []string{"spend", "impressions", "clicks", "ctr"}

// Builder runs the full computation pipeline for one report request:
// fetch current and previous period records, aggregate per channel,
// derive KPIs, compare periods, detect extreme days and merge channels
// into a Summary. It holds no state between builds; identical inputs
// produce identical summaries apart from GeneratedAt.
type Builder struct {
	src     source.RecordSource
	agg     *engine.Aggregator
	fx      *engine.CurrencyConverter
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewBuilder constructs a Builder over the given record source. The
// currency converter normalizes meta spend (USD) into KRW for the
// cross-channel comparison.
func NewBuilder(src source.RecordSource, fx *engine.CurrencyConverter, m *metrics.Metrics, logger *zap.Logger) *Builder {
	return &Builder{
		src:     src,
		agg:     engine.NewAggregator(),
		fx:      fx,
		metrics: m,
		logger:  logger,
	}
}

// BuildRequest identifies one report computation.
type BuildRequest struct {
	ClientID    string
	ReportType  models.ReportType
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// BuildSummary fetches both periods for both channels and assembles the
// summary. The four fetches are independent and run concurrently; if
// any fails, no partial summary is produced.
func (b *Builder) BuildSummary(ctx context.Context, req BuildRequest) (*Summary, error) {
	started := time.Now()

	prevStart, prevEnd := PreviousPeriod(req.PeriodStart, req.PeriodEnd, req.ReportType)

	var curMeta, curNaver, prevMeta, prevNaver []models.MetricRecord

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		curMeta, err = b.fetch(gctx, req.ClientID, models.ChannelMeta, req.PeriodStart, req.PeriodEnd)
		return err
	})
	g.Go(func() (err error) {
		curNaver, err = b.fetch(gctx, req.ClientID, models.ChannelNaver, req.PeriodStart, req.PeriodEnd)
		return err
	})
	g.Go(func() (err error) {
		prevMeta, err = b.fetch(gctx, req.ClientID, models.ChannelMeta, prevStart, prevEnd)
		return err
	})
	g.Go(func() (err error) {
		prevNaver, err = b.fetch(gctx, req.ClientID, models.ChannelNaver, prevStart, prevEnd)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	metaSection := b.buildSection(req, models.ChannelMeta, curMeta, prevMeta)
	naverSection := b.buildSection(req, models.ChannelNaver, curNaver, prevNaver)
	naverSection.Keywords = engine.RollupKeywords(curNaver)

	cross := b.mergeChannels(metaSection, naverSection)

	summary := &Summary{
		SchemaVersion: summarySchemaVersion,
		ClientID:      req.ClientID,
		PeriodStart:   req.PeriodStart,
		PeriodEnd:     req.PeriodEnd,
		Currency:      engine.CurrencyKRW,
		Meta:          metaSection,
		Naver:         naverSection,
		CrossChannel:  cross,
		GeneratedAt:   time.Now().UTC(),
	}

	b.metrics.ObserveBuild(string(req.ReportType), time.Since(started))
	b.logger.Info("report summary built",
		zap.String("client_id", req.ClientID),
		zap.String("report_type", string(req.ReportType)),
		zap.Time("period_start", req.PeriodStart),
		zap.Time("period_end", req.PeriodEnd),
		zap.Int("meta_records", len(curMeta)),
		zap.Int("naver_records", len(curNaver)),
	)
	return summary, nil
}

func (b *Builder) fetch(ctx context.Context, clientID string, ch models.Channel, start, end time.Time) ([]models.MetricRecord, error) {
	records, err := b.src.Fetch(ctx, clientID, ch, start, end)
	if err != nil {
		if b.metrics != nil {
			b.metrics.FetchErrors.WithLabelValues(string(ch)).Inc()
		}
		return nil, err
	}
	if b.metrics != nil {
		b.metrics.RecordsFetched.WithLabelValues(string(ch)).Add(float64(len(records)))
	}
	return records, nil
}

func (b *Builder) buildSection(req BuildRequest, ch models.Channel, current, previous []models.MetricRecord) *ChannelSection {
	prevStart, prevEnd := PreviousPeriod(req.PeriodStart, req.PeriodEnd, req.ReportType)

	totals := b.agg.Total(current, ch, req.PeriodStart, req.PeriodEnd)
	prevTotals := b.agg.Total(previous, ch, prevStart, prevEnd)
	daily := b.agg.Aggregate(current, ch, req.PeriodStart, req.PeriodEnd, engine.GranularityDay)

	kpis := engine.DeriveKPIs(totals)
	prevKPIs := engine.DeriveKPIs(prevTotals)

	section := &ChannelSection{
		Totals:  totals,
		KPIs:    kpis,
		Daily:   daily,
		Changes: engine.ComparePeriods(totals, prevTotals, kpis, prevKPIs),
	}

	// Monthly reports also carry the display-week breakdown.
	if req.ReportType == models.ReportTypeMonthly {
		section.Weekly = b.agg.Aggregate(current, ch, req.PeriodStart, req.PeriodEnd, engine.GranularityWeek)
	}

	for _, metric := range extremeMetrics {
		series := engine.DailySeries(daily, metric)
		section.Extremes = append(section.Extremes, engine.DetectExtremes(metric, series))
	}
	return section
}

// mergeChannels normalizes meta spend to KRW and merges both channels.
func (b *Builder) mergeChannels(meta, naver *ChannelSection) *engine.ChannelComparison {
	metaTotals := meta.Totals
	if b.fx != nil {
		metaTotals.Spend = b.fx.ToKRW(metaTotals.Spend)
	}
	metaKPIs := engine.DeriveKPIs(metaTotals)

	cross := engine.MergeChannels(metaTotals, naver.Totals, metaKPIs, naver.KPIs)
	return &cross
}

// PreviousPeriod returns the comparison window for a period. A calendar
// month compares against the previous calendar month; anything else
// compares against the same-length window immediately before it.
func PreviousPeriod(start, end time.Time, t models.ReportType) (time.Time, time.Time) {
	if t == models.ReportTypeMonthly && isCalendarMonth(start, end) {
		prevStart := start.AddDate(0, -1, 0)
		prevEnd := start.AddDate(0, 0, -1)
		return prevStart, prevEnd
	}

	days := int(end.Sub(start).Hours()/24) + 1
	prevEnd := start.AddDate(0, 0, -1)
	prevStart := prevEnd.AddDate(0, 0, -(days - 1))
	return prevStart, prevEnd
}

func isCalendarMonth(start, end time.Time) bool {
	if start.Day() != 1 {
		return false
	}
	lastDay := start.AddDate(0, 1, -1)
	return end.Year() == lastDay.Year() && end.Month() == lastDay.Month() && end.Day() == lastDay.Day()
}

// WeekOfYear numbers display weeks within a year, counting Sunday-start
// weeks from January 1st. It matches the aggregator's Sunday bucketing,
// not ISO week numbering.
func WeekOfYear(d time.Time) int {
	jan1 := time.Date(d.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	offset := int(jan1.Weekday())
	return (d.YearDay()-1+offset)/7 + 1
}
