package engine

// ChannelKPIs are the efficiency ratios derived from one finalized
// Aggregate. Derivation applies the documented zero-guards and no
// rounding; formatting is a presentation concern.
type ChannelKPIs struct {
	CTR     float64 `json:"ctr"`      // clicks / impressions * 100
	CPC     float64 `json:"cpc"`      // spend / clicks
	CPL     float64 `json:"cpl"`      // spend / leads
	AvgRank float64 `json:"avg_rank"` // carried from the aggregate
}

// DeriveKPIs computes the ratio metrics from an already finalized
// aggregate. Each ratio is a defined zero when its denominator is zero.
// AvgRank is the value folded by the aggregator, never recomputed here.
func DeriveKPIs(a Aggregate) ChannelKPIs {
	var k ChannelKPIs
	if a.Impressions > 0 {
		k.CTR = float64(a.Clicks) / float64(a.Impressions) * 100
	}
	if a.Clicks > 0 {
		k.CPC = a.Spend / float64(a.Clicks)
	}
	if a.Leads > 0 {
		k.CPL = a.Spend / float64(a.Leads)
	}
	k.AvgRank = a.AvgRank
	return k
}
