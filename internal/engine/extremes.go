package engine

import "time"

// DayPoint is one day's value for a single metric.
type DayPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// ExtremeDayResult names the best and worst day for one metric within a
// daily series.
type ExtremeDayResult struct {
	Metric string   `json:"metric"`
	Best   DayPoint `json:"best"`
	Worst  DayPoint `json:"worst"`
}

// DetectExtremes finds the maximum and minimum day in a series ordered
// ascending by date. Ties resolve to the earliest date (strict
// comparisons keep the first occurrence), so the result never depends on
// map iteration order upstream. A single-day series yields the same day
// as both best and worst. An empty series yields zero values.
func DetectExtremes(metric string, series []DayPoint) ExtremeDayResult {
	res := ExtremeDayResult{Metric: metric}
	if len(series) == 0 {
		return res
	}

	best, worst := series[0], series[0]
	for _, p := range series[1:] {
		if p.Value > best.Value {
			best = p
		}
		if p.Value < worst.Value {
			worst = p
		}
	}
	res.Best = best
	res.Worst = worst
	return res
}

// DailySeries projects a metric out of daily aggregates into a DayPoint
// series, preserving the aggregates' date order.
func DailySeries(daily []Aggregate, metric string) []DayPoint {
	series := make([]DayPoint, 0, len(daily))
	for _, a := range daily {
		var v float64
		switch metric {
		case "impressions":
			v = float64(a.Impressions)
		case "clicks":
			v = float64(a.Clicks)
		case "spend":
			v = a.Spend
		case "leads":
			v = float64(a.Leads)
		case "ctr":
			v = DeriveKPIs(a).CTR
		}
		series = append(series, DayPoint{Date: a.BucketStart, Value: v})
	}
	return series
}
