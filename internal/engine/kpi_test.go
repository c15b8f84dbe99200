package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveKPIs(t *testing.T) {
	a := Aggregate{Impressions: 1000, Clicks: 50, Spend: 10000, Leads: 10, AvgRank: 2.5}

	k := DeriveKPIs(a)
	assert.Equal(t, 5.0, k.CTR)
	assert.Equal(t, 200.0, k.CPC)
	assert.Equal(t, 1000.0, k.CPL)
	assert.Equal(t, 2.5, k.AvgRank)
}

func TestDeriveKPIsZeroGuards(t *testing.T) {
	tests := []struct {
		name string
		agg  Aggregate
	}{
		{"no impressions", Aggregate{Clicks: 50, Spend: 1000}},
		{"no clicks", Aggregate{Impressions: 1000, Spend: 1000}},
		{"no leads", Aggregate{Impressions: 1000, Clicks: 10, Spend: 1000}},
		{"empty", Aggregate{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := DeriveKPIs(tt.agg)
			if tt.agg.Impressions == 0 {
				assert.Zero(t, k.CTR)
			}
			if tt.agg.Clicks == 0 {
				assert.Zero(t, k.CPC)
			}
			if tt.agg.Leads == 0 {
				assert.Zero(t, k.CPL)
			}
		})
	}
}
