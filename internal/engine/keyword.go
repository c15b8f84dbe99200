package engine

import (
	"math"
	"sort"
	"time"

	"github.com/pola2025/report-polarad-sub001/internal/models"
)

// KeywordSummary is the rollup of one distinct keyword over a date
// range. The grouping key is the raw keyword string, case-sensitive; no
// normalization is applied.
type KeywordSummary struct {
	Keyword     string    `json:"keyword"`
	Impressions int64     `json:"impressions"`
	Clicks      int64     `json:"clicks"`
	Cost        float64   `json:"cost"`
	CTR         float64   `json:"ctr"`
	AvgCPC      float64   `json:"avg_cpc"`  // rounded to nearest currency unit
	AvgRank     float64   `json:"avg_rank"` // mean daily rank, one decimal
	DaysCount   int       `json:"days_count"`
	FirstDate   time.Time `json:"first_date"`
	LastDate    time.Time `json:"last_date"`
}

// KeywordDay is one day of a single keyword's trend.
type KeywordDay struct {
	Date        time.Time `json:"date"`
	Impressions int64     `json:"impressions"`
	Clicks      int64     `json:"clicks"`
	Cost        float64   `json:"cost"`
	CTR         float64   `json:"ctr"`
	AvgCPC      float64   `json:"avg_cpc"`
	AvgRank     float64   `json:"avg_rank"`
}

type keywordAcc struct {
	summary  KeywordSummary
	rankSum  float64
	rankDays int64
}

// RollupKeywords folds per-day naver keyword records into one summary
// row per distinct keyword. first/last dates track min/max over
// contributing days, not insertion order. The output is sorted by cost
// descending with keyword as tie-break so it is stable under input
// permutation.
func RollupKeywords(records []models.MetricRecord) []KeywordSummary {
	accs := make(map[string]*keywordAcc)
	for i := range records {
		r := &records[i]
		if r.Channel != models.ChannelNaver || r.Keyword == "" {
			continue
		}
		day := truncateDay(r.Date)

		acc, ok := accs[r.Keyword]
		if !ok {
			acc = &keywordAcc{summary: KeywordSummary{
				Keyword:   r.Keyword,
				FirstDate: day,
				LastDate:  day,
			}}
			accs[r.Keyword] = acc
		}

		s := &acc.summary
		s.Impressions += r.Impressions
		s.Clicks += r.Clicks
		s.Cost += r.TotalCost
		s.DaysCount++
		if day.Before(s.FirstDate) {
			s.FirstDate = day
		}
		if day.After(s.LastDate) {
			s.LastDate = day
		}
		if r.AvgRank > 0 {
			acc.rankSum += r.AvgRank
			acc.rankDays++
		}
	}

	out := make([]KeywordSummary, 0, len(accs))
	for _, acc := range accs {
		s := acc.summary
		if s.Impressions > 0 {
			s.CTR = float64(s.Clicks) / float64(s.Impressions) * 100
		}
		if s.Clicks > 0 {
			s.AvgCPC = math.Round(s.Cost / float64(s.Clicks))
		}
		if acc.rankDays > 0 {
			s.AvgRank = math.Round(acc.rankSum/float64(acc.rankDays)*10) / 10
		}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Cost != out[j].Cost {
			return out[i].Cost > out[j].Cost
		}
		return out[i].Keyword < out[j].Keyword
	})
	return out
}

// KeywordTrend returns the per-day rows for one keyword ordered
// ascending by date. Rows pass through unmodified apart from the CTR
// zero-guard.
func KeywordTrend(records []models.MetricRecord, keyword string) []KeywordDay {
	var days []KeywordDay
	for i := range records {
		r := &records[i]
		if r.Channel != models.ChannelNaver || r.Keyword != keyword {
			continue
		}
		d := KeywordDay{
			Date:        truncateDay(r.Date),
			Impressions: r.Impressions,
			Clicks:      r.Clicks,
			Cost:        r.TotalCost,
			AvgCPC:      r.AvgCPC,
			AvgRank:     r.AvgRank,
		}
		if r.Impressions > 0 {
			d.CTR = float64(r.Clicks) / float64(r.Impressions) * 100
		}
		days = append(days, d)
	}

	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date)
	})
	return days
}
