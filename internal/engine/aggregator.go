// Package engine implements the aggregation-and-reporting computation
// core: date bucketing, keyword rollups, derived KPIs, period
// comparison, extreme-day detection and cross-channel merging. All
// functions are pure over their inputs; identical inputs always produce
// identical outputs regardless of input ordering.
package engine

import (
	"sort"
	"time"

	"github.com/pola2025/report-polarad-sub001/internal/models"
)

// Granularity selects the bucket width for aggregation.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// Aggregate is one date bucket of summed metrics for a single channel.
// Averaged fields (watch time, rank) keep (sum, count) accumulator state
// until Finalize; they are never averaged incrementally.
type Aggregate struct {
	Channel     models.Channel `json:"channel"`
	Granularity Granularity    `json:"granularity"`
	BucketStart time.Time      `json:"bucket_start"`
	BucketEnd   time.Time      `json:"bucket_end"`

	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Spend       float64 `json:"spend"`
	Leads       int64   `json:"leads"`
	VideoViews  int64   `json:"video_views"`
	Records     int     `json:"records"`

	// Finalized averages, zero until Finalize runs.
	AvgWatchTime float64 `json:"avg_watch_time"`
	AvgRank      float64 `json:"avg_rank"`

	watchSum   float64
	watchCount int64
	rankSum    float64
	rankCount  int64
}

// add folds one record into the bucket.
func (a *Aggregate) add(r *models.MetricRecord) {
	a.Impressions += r.Impressions
	a.Clicks += r.Clicks
	a.Spend += r.SpendValue()
	a.Leads += r.Leads
	a.VideoViews += r.VideoViews
	a.Records++

	if r.AvgWatchTime > 0 {
		a.watchSum += r.AvgWatchTime
		a.watchCount++
	}
	if r.AvgRank > 0 {
		a.rankSum += r.AvgRank
		a.rankCount++
	}
}

// Finalize computes the averaged fields from the accumulator state.
// A bucket with no contributing rows for an averaged field finalizes it
// to zero rather than dividing by zero.
func (a *Aggregate) Finalize() {
	if a.watchCount > 0 {
		a.AvgWatchTime = a.watchSum / float64(a.watchCount)
	} else {
		a.AvgWatchTime = 0
	}
	if a.rankCount > 0 {
		a.AvgRank = a.rankSum / float64(a.rankCount)
	} else {
		a.AvgRank = 0
	}
}

// Aggregator folds raw per-day records into date-bucketed sums.
type Aggregator struct{}

// NewAggregator constructs an Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Aggregate buckets the records between start and end (inclusive) at the
// given granularity. Records outside the range or on another channel are
// skipped. Only buckets with at least one contributing record are
// returned; callers needing dense series fill gaps themselves. The
// result is ordered by bucket start date and independent of the input
// record order.
func (ag *Aggregator) Aggregate(records []models.MetricRecord, channel models.Channel, start, end time.Time, g Granularity) []Aggregate {
	start = truncateDay(start)
	end = truncateDay(end)

	buckets := make(map[time.Time]*Aggregate)
	for i := range records {
		r := &records[i]
		if r.Channel != channel {
			continue
		}
		day := truncateDay(r.Date)
		if day.Before(start) || day.After(end) {
			continue
		}

		bs := BucketStart(day, g)
		b, ok := buckets[bs]
		if !ok {
			b = &Aggregate{
				Channel:     channel,
				Granularity: g,
				BucketStart: bs,
				BucketEnd:   bucketEnd(bs, g),
			}
			buckets[bs] = b
		}
		b.add(r)
	}

	out := make([]Aggregate, 0, len(buckets))
	for _, b := range buckets {
		b.Finalize()
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].BucketStart.Before(out[j].BucketStart)
	})
	return out
}

// Total folds the records into a single bucket spanning [start, end].
func (ag *Aggregator) Total(records []models.MetricRecord, channel models.Channel, start, end time.Time) Aggregate {
	start = truncateDay(start)
	end = truncateDay(end)

	total := Aggregate{
		Channel:     channel,
		Granularity: GranularityMonth,
		BucketStart: start,
		BucketEnd:   end,
	}
	for i := range records {
		r := &records[i]
		if r.Channel != channel {
			continue
		}
		day := truncateDay(r.Date)
		if day.Before(start) || day.After(end) {
			continue
		}
		total.add(r)
	}
	total.Finalize()
	return total
}

// BucketStart returns the bucket a day belongs to. Week buckets begin on
// the most recent Sunday on or before the day; this is a display-week
// convention, not ISO, so weekly buckets may straddle month boundaries.
func BucketStart(day time.Time, g Granularity) time.Time {
	day = truncateDay(day)
	switch g {
	case GranularityWeek:
		return day.AddDate(0, 0, -int(day.Weekday()))
	case GranularityMonth:
		return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
	default:
		return day
	}
}

func bucketEnd(bs time.Time, g Granularity) time.Time {
	switch g {
	case GranularityWeek:
		return bs.AddDate(0, 0, 6)
	case GranularityMonth:
		return bs.AddDate(0, 1, -1)
	default:
		return bs
	}
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
