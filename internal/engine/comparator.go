package engine

// Direction classifies a period-over-period movement.
type Direction string

const (
	DirectionUp     Direction = "up"
	DirectionDown   Direction = "down"
	DirectionStable Direction = "stable"
)

// directionThreshold is the percent-change band treated as stable.
const directionThreshold = 0.05

// MetricChange is the signed percent change of one metric between two
// periods.
type MetricChange struct {
	Metric        string    `json:"metric"`
	Current       float64   `json:"current"`
	Previous      float64   `json:"previous"`
	PercentChange float64   `json:"percent_change"`
	Direction     Direction `json:"direction"`
}

// PercentChange returns (current-previous)/previous*100, defined as
// exactly 0 when previous is 0 regardless of current. A channel with no
// prior activity reports no change rather than an infinite one.
func PercentChange(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / previous * 100
}

// Classify maps a percent change to a qualitative direction using the
// ±0.05 stability band.
func Classify(pct float64) Direction {
	switch {
	case pct > directionThreshold:
		return DirectionUp
	case pct < -directionThreshold:
		return DirectionDown
	default:
		return DirectionStable
	}
}

// ComparePeriods emits one MetricChange per compared metric between the
// current and previous aggregates (with their derived KPIs). No currency
// conversion or formatting happens here.
func ComparePeriods(current, previous Aggregate, currentKPIs, previousKPIs ChannelKPIs) []MetricChange {
	pairs := []struct {
		metric   string
		cur, prev float64
	}{
		{"impressions", float64(current.Impressions), float64(previous.Impressions)},
		{"clicks", float64(current.Clicks), float64(previous.Clicks)},
		{"spend", current.Spend, previous.Spend},
		{"leads", float64(current.Leads), float64(previous.Leads)},
		{"ctr", currentKPIs.CTR, previousKPIs.CTR},
		{"cpc", currentKPIs.CPC, previousKPIs.CPC},
		{"cpl", currentKPIs.CPL, previousKPIs.CPL},
	}

	changes := make([]MetricChange, 0, len(pairs))
	for _, p := range pairs {
		pct := PercentChange(p.cur, p.prev)
		changes = append(changes, MetricChange{
			Metric:        p.metric,
			Current:       p.cur,
			Previous:      p.prev,
			PercentChange: pct,
			Direction:     Classify(pct),
		})
	}
	return changes
}
