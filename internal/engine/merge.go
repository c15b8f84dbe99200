package engine

import "math"

// MetricComparison is one metric compared across the two channels.
// LowerIsBetter flags cost-type metrics where a decrease is the
// favorable movement; the sign of the difference is left untouched.
type MetricComparison struct {
	Metric        string  `json:"metric"`
	Meta          float64 `json:"meta"`
	Naver         float64 `json:"naver"`
	Diff          float64 `json:"diff"`
	PercentDiff   float64 `json:"percent_diff"`
	LowerIsBetter bool    `json:"lower_is_better"`
}

// SpendShare is each channel's share of combined spend in percent.
type SpendShare struct {
	Meta  float64 `json:"meta"`
	Naver float64 `json:"naver"`
}

// ChannelComparison is the unified cross-channel view. Inputs must
// already be normalized to a common currency.
type ChannelComparison struct {
	Metrics    []MetricComparison `json:"metrics"`
	SpendShare SpendShare         `json:"spend_share"`
	TotalSpend float64            `json:"total_spend"`
}

// MergeChannels combines the two channels' finalized aggregates and KPIs
// into one comparison. Percent differences use the naver value as base
// with the same zero-guard as period comparison (base 0 yields 0, never
// an undefined value). When both channels spent nothing, both spend
// shares are 0.
func MergeChannels(meta, naver Aggregate, metaKPIs, naverKPIs ChannelKPIs) ChannelComparison {
	pairs := []struct {
		metric        string
		meta, naver   float64
		lowerIsBetter bool
	}{
		{"spend", meta.Spend, naver.Spend, false},
		{"impressions", float64(meta.Impressions), float64(naver.Impressions), false},
		{"clicks", float64(meta.Clicks), float64(naver.Clicks), false},
		{"ctr", metaKPIs.CTR, naverKPIs.CTR, false},
		{"cpc", metaKPIs.CPC, naverKPIs.CPC, true},
	}

	metrics := make([]MetricComparison, 0, len(pairs))
	for _, p := range pairs {
		metrics = append(metrics, MetricComparison{
			Metric:        p.metric,
			Meta:          p.meta,
			Naver:         p.naver,
			Diff:          math.Abs(p.meta - p.naver),
			PercentDiff:   PercentChange(p.meta, p.naver),
			LowerIsBetter: p.lowerIsBetter,
		})
	}

	total := meta.Spend + naver.Spend
	var share SpendShare
	if total > 0 {
		share.Meta = meta.Spend / total * 100
		share.Naver = naver.Spend / total * 100
	}

	return ChannelComparison{
		Metrics:    metrics,
		SpendShare: share,
		TotalSpend: total,
	}
}
