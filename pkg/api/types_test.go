package api

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDateJSON(t *testing.T) {
	d := NewDate(2026, time.July, 18)

	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2026-07-18"` {
		t.Errorf("marshalled as %s, want quoted ISO date", b)
	}

	var back Date
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != d {
		t.Errorf("round trip changed the date: %s vs %s", back, d)
	}

	if err := json.Unmarshal([]byte(`"18/07/2026"`), &back); err == nil {
		t.Error("expected an error for a non-ISO date")
	}
	if err := json.Unmarshal([]byte(`null`), &back); err != nil {
		t.Errorf("null should decode to the zero date, got %v", err)
	}
}

func TestSeasonOf(t *testing.T) {
	cases := []struct {
		month time.Month
		want  Season
	}{
		{time.December, SeasonWinter},
		{time.February, SeasonWinter},
		{time.April, SeasonSpring},
		{time.July, SeasonSummer},
		{time.October, SeasonAutumn},
	}
	for _, tc := range cases {
		if got := SeasonOf(tc.month); got != tc.want {
			t.Errorf("SeasonOf(%s) = %s, want %s", tc.month, got, tc.want)
		}
	}
}

func TestStrategyConfigNormalize(t *testing.T) {
	cfg := StrategyConfig{}.Normalize()

	if cfg.Mode != ModeBalanced || cfg.RiskMode != ModeBalanced {
		t.Errorf("zero config should normalize to balanced, got %s/%s", cfg.Mode, cfg.RiskMode)
	}
	if cfg.MinPrice != DefaultMinPrice || cfg.MaxPrice != DefaultMaxPrice {
		t.Errorf("default band = [%v, %v], want [%v, %v]", cfg.MinPrice, cfg.MaxPrice, DefaultMinPrice, DefaultMaxPrice)
	}
	if cfg.Bias() != DefaultFillVsRateBias {
		t.Errorf("bias = %d, want default %d", cfg.Bias(), DefaultFillVsRateBias)
	}

	// Explicit values survive normalization.
	set := StrategyConfig{Mode: ModeAggressive, MinPrice: 80, MaxPrice: 120}.Normalize()
	if set.Mode != ModeAggressive || set.MinPrice != 80 || set.MaxPrice != 120 {
		t.Errorf("explicit toggles overwritten: %+v", set)
	}
}

func TestBiasClamping(t *testing.T) {
	for _, tc := range []struct {
		in   int
		want int
	}{{-10, 0}, {0, 0}, {50, 50}, {100, 100}, {140, 100}} {
		cfg := StrategyConfig{FillVsRateBias: &tc.in}
		if got := cfg.Bias(); got != tc.want {
			t.Errorf("Bias(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestValidMode(t *testing.T) {
	for _, m := range []StrategyMode{ModeConservative, ModeBalanced, ModeAggressive} {
		if !ValidMode(m) {
			t.Errorf("%s should be valid", m)
		}
	}
	if ValidMode("reckless") || ValidMode("") {
		t.Error("unknown modes should be invalid")
	}
}

func TestHasElasticityPair(t *testing.T) {
	p, o, zero := 100.0, 0.8, 0.0
	cases := []struct {
		name string
		obs  HistoricalObservation
		want bool
	}{
		{"both present", HistoricalObservation{Price: &p, Occupancy: &o}, true},
		{"missing price", HistoricalObservation{Occupancy: &o}, false},
		{"missing occupancy", HistoricalObservation{Price: &p}, false},
		{"zero occupancy unusable for logs", HistoricalObservation{Price: &p, Occupancy: &zero}, false},
	}
	for _, tc := range cases {
		if got := tc.obs.HasElasticityPair(); got != tc.want {
			t.Errorf("%s: HasElasticityPair = %v, want %v", tc.name, got, tc.want)
		}
	}
}
