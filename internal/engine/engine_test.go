package engine

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"stayrate/pkg/api"
	engerrors "stayrate/pkg/errors"
)

func floatPtr(v float64) *float64 { return &v }

// richHistory builds a year-scale history with price variation following
// an exact power-law demand curve, enough for the statistical path at
// very high confidence.
func richHistory(rows int) []api.HistoricalObservation {
	start := api.NewDate(2025, time.January, 1)
	history := make([]api.HistoricalObservation, 0, rows)
	for i := 0; i < rows; i++ {
		p := 80.0 + float64(i%21)*2
		occ := 0.7 * math.Pow(p/100, -1.2)
		history = append(history, api.HistoricalObservation{
			Date:      start.AddDays(i),
			Price:     floatPtr(p),
			Occupancy: floatPtr(occ),
		})
	}
	return history
}

func TestScoreColdStartFallsBackToRules(t *testing.T) {
	rec, err := New().Score(api.ScoreRequest{
		UnitID:          "pitch-7",
		StayDate:        "2026-07-18", // summer Saturday
		CompetitorPrice: floatPtr(100),
		Capacity:        10,
		Booked:          7,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.Path != api.PathRuleBased {
		t.Errorf("path = %q, want rule_based without history", rec.Path)
	}
	if rec.Confidence != "low" {
		t.Errorf("confidence = %q, want low on the fallback path", rec.Confidence)
	}
	if math.Abs(rec.RecommendedPrice-164.99) > 1e-9 {
		t.Errorf("price = %v, want 164.99 for a 70%%-booked summer Saturday", rec.RecommendedPrice)
	}
	if math.Abs(rec.PredictedOccupancy-0.7) > 1e-9 {
		t.Errorf("predicted occupancy = %v, want the booked share 0.7", rec.PredictedOccupancy)
	}
	if rec.QuoteID == "" {
		t.Error("quote id missing")
	}
	if len(rec.Explanation) == 0 {
		t.Error("explanation factors missing")
	}
}

func TestScoreRichHistoryUsesStatisticalPath(t *testing.T) {
	rec, err := New().Score(api.ScoreRequest{
		UnitID:       "pitch-7",
		StayDate:     "2026-07-18",
		CurrentPrice: 80,
		History:      richHistory(200),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.Path != api.PathStatistical {
		t.Errorf("path = %q, want statistical with 200 usable rows", rec.Path)
	}
	if rec.Confidence != "very_high" {
		t.Errorf("confidence = %q, want very_high for 200 rows with a solid regression", rec.Confidence)
	}
	if rec.RevenueImpactPercent <= 0 {
		t.Errorf("revenue impact = %v%%, want a positive uplift over the naive baseline", rec.RevenueImpactPercent)
	}
	if rec.RecommendedPrice < api.DefaultMinPrice || rec.RecommendedPrice > api.DefaultMaxPrice {
		t.Errorf("price %v outside default band", rec.RecommendedPrice)
	}
	if rec.PredictedOccupancy < 0 || rec.PredictedOccupancy > 1 {
		t.Errorf("occupancy %v outside [0, 1]", rec.PredictedOccupancy)
	}
}

func TestScoreFallbackOnlyOverridesHistory(t *testing.T) {
	rec, err := New().Score(api.ScoreRequest{
		UnitID:       "pitch-7",
		StayDate:     "2026-07-18",
		History:      richHistory(200),
		FallbackOnly: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Path != api.PathRuleBased {
		t.Errorf("path = %q, want rule_based when the operator forces the fallback", rec.Path)
	}
}

func TestScoreBelowThresholdFallsBack(t *testing.T) {
	rec, err := New().Score(api.ScoreRequest{
		UnitID:   "pitch-7",
		StayDate: "2026-07-18",
		History:  richHistory(MinStatisticalRows - 1),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Path != api.PathRuleBased {
		t.Errorf("path = %q, want rule_based below the sufficiency threshold", rec.Path)
	}
}

func TestScoreIsIdempotent(t *testing.T) {
	req := api.ScoreRequest{
		UnitID:       "pitch-7",
		StayDate:     "2026-07-18",
		CurrentPrice: 100,
		History:      richHistory(200),
		Toggles:      api.StrategyConfig{Mode: api.ModeAggressive},
	}

	eng := New()
	a, err := eng.Score(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := eng.Score(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("identical requests produced different recommendations:\n%+v\n%+v", a, b)
	}
	if a.QuoteID != b.QuoteID {
		t.Errorf("quote ids differ across identical requests: %s vs %s", a.QuoteID, b.QuoteID)
	}
}

func TestScoreConservativeModeHoldsOccupancyFloor(t *testing.T) {
	bias := 90 // rate-biased dial conflicting with the conservative mode
	rec, err := New().Score(api.ScoreRequest{
		UnitID:       "pitch-7",
		StayDate:     "2026-07-18",
		CurrentPrice: 100,
		History:      richHistory(200),
		Toggles:      api.StrategyConfig{Mode: api.ModeConservative, FillVsRateBias: &bias},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The mode's floor binds on the statistical path regardless of the
	// bias dial.
	if rec.PredictedOccupancy < 0.85-1e-9 {
		t.Errorf("occupancy %v below the conservative floor", rec.PredictedOccupancy)
	}
}

func TestScoreValidation(t *testing.T) {
	cases := []struct {
		name     string
		req      api.ScoreRequest
		wantCode string
	}{
		{
			"malformed date",
			api.ScoreRequest{UnitID: "u", StayDate: "18-07-2026"},
			engerrors.ErrCodeInvalidDate,
		},
		{
			"inverted bounds",
			api.ScoreRequest{UnitID: "u", StayDate: "2026-07-18", Toggles: api.StrategyConfig{MinPrice: 200, MaxPrice: 100}},
			engerrors.ErrCodeInvalidBounds,
		},
		{
			"unknown mode",
			api.ScoreRequest{UnitID: "u", StayDate: "2026-07-18", Toggles: api.StrategyConfig{Mode: "reckless"}},
			engerrors.ErrCodeInvalidStrategy,
		},
		{
			"unknown risk mode",
			api.ScoreRequest{UnitID: "u", StayDate: "2026-07-18", Toggles: api.StrategyConfig{RiskMode: "yolo"}},
			engerrors.ErrCodeInvalidStrategy,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New().Score(tc.req)
			var engErr *engerrors.EngineError
			if !errors.As(err, &engErr) {
				t.Fatalf("expected an engine error, got %v", err)
			}
			if engErr.Code != tc.wantCode {
				t.Errorf("code = %q, want %q", engErr.Code, tc.wantCode)
			}
		})
	}
}

func TestScoreBatchAscendingDates(t *testing.T) {
	recs, err := New().ScoreBatch(api.BatchScoreRequest{
		ScoreRequest: api.ScoreRequest{UnitID: "pitch-7", CurrentPrice: 100, History: richHistory(200)},
		StartDate:    "2026-07-13",
		Days:         7,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 7 {
		t.Fatalf("got %d recommendations, want 7", len(recs))
	}

	start, _ := api.ParseDate("2026-07-13")
	for i, rec := range recs {
		if want := start.AddDays(i); rec.Date != want {
			t.Errorf("recommendation %d date = %s, want %s", i, rec.Date, want)
		}
		if rec.Path != api.PathStatistical {
			t.Errorf("recommendation %d path = %q, want statistical", i, rec.Path)
		}
	}
}

func TestScoreBatchHorizonValidation(t *testing.T) {
	for _, days := range []int{0, -3, api.MaxBatchDays + 1} {
		_, err := New().ScoreBatch(api.BatchScoreRequest{
			ScoreRequest: api.ScoreRequest{UnitID: "u"},
			StartDate:    "2026-07-13",
			Days:         days,
		})
		var engErr *engerrors.EngineError
		if !errors.As(err, &engErr) || engErr.Code != engerrors.ErrCodeInvalidHorizon {
			t.Errorf("days=%d: expected horizon error, got %v", days, err)
		}
	}
}

func TestScoreBatchIsIdempotent(t *testing.T) {
	req := api.BatchScoreRequest{
		ScoreRequest: api.ScoreRequest{UnitID: "pitch-7", CurrentPrice: 100, History: richHistory(60)},
		StartDate:    "2026-07-13",
		Days:         14,
	}
	a, err := New().ScoreBatch(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := New().ScoreBatch(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("identical batch requests produced different recommendations")
	}
}

func TestLearnValidation(t *testing.T) {
	resp := New().Learn(api.LearnRequest{Records: []api.OutcomeRecord{
		{UnitID: "pitch-7", StayDate: "2026-07-18", QuotedPrice: 120, ActualOccupancy: 0.8},
		{UnitID: "", StayDate: "2026-07-18", QuotedPrice: 120, ActualOccupancy: 0.8},
		{UnitID: "pitch-7", StayDate: "not-a-date", QuotedPrice: 120, ActualOccupancy: 0.8},
		{UnitID: "pitch-7", StayDate: "2026-07-19", QuotedPrice: 0, ActualOccupancy: 0.8},
		{UnitID: "pitch-7", StayDate: "2026-07-20", QuotedPrice: 120, ActualOccupancy: 1.4},
		{UnitID: "pitch-7", StayDate: "2026-07-21", QuotedPrice: 95, ActualOccupancy: 0},
	}})

	if resp.Accepted != 2 {
		t.Errorf("accepted = %d, want 2", resp.Accepted)
	}
	if resp.Rejected != 4 {
		t.Errorf("rejected = %d, want 4", resp.Rejected)
	}
	if len(resp.Errors) != 4 {
		t.Errorf("errors = %d, want one per rejected record", len(resp.Errors))
	}
}

func TestValidateOutcomeMatchesLearnAcknowledgement(t *testing.T) {
	// Persistence filters with ValidateOutcome; the records it keeps
	// must be exactly the ones Learn counted as accepted, so a rejected
	// record (unitless, or out-of-range occupancy) can never be stored.
	records := []api.OutcomeRecord{
		{UnitID: "pitch-7", StayDate: "2026-07-18", QuotedPrice: 120, ActualOccupancy: 0.8},
		{UnitID: "", StayDate: "2026-07-18", QuotedPrice: 120, ActualOccupancy: 0.8},
		{UnitID: "pitch-7", StayDate: "2026-07-19", QuotedPrice: 120, ActualOccupancy: 1.4},
		{UnitID: "pitch-7", StayDate: "bad", QuotedPrice: 120, ActualOccupancy: 0.8},
		{UnitID: "pitch-8", StayDate: "2026-07-20", QuotedPrice: 95, ActualOccupancy: 0.4},
	}

	resp := New().Learn(api.LearnRequest{Records: records})

	var kept []api.OutcomeRecord
	for _, rec := range records {
		if ValidateOutcome(rec) == nil {
			kept = append(kept, rec)
		}
	}

	if len(kept) != resp.Accepted {
		t.Fatalf("validator keeps %d records, Learn accepted %d", len(kept), resp.Accepted)
	}
	for _, rec := range kept {
		if rec.UnitID == "" || rec.ActualOccupancy < 0 || rec.ActualOccupancy > 1 {
			t.Errorf("rejected record slipped past the validator: %+v", rec)
		}
	}
}

func TestLearnEmptyRequest(t *testing.T) {
	resp := New().Learn(api.LearnRequest{})
	if resp.Accepted != 0 || resp.Rejected != 0 || len(resp.Errors) != 0 {
		t.Errorf("empty request should acknowledge nothing, got %+v", resp)
	}
}

func TestRevenueImpact(t *testing.T) {
	cases := []struct {
		name                           string
		price, occ, current, baseline  float64
		want                           float64
	}{
		{"uplift", 110, 0.8, 100, 0.8, 10.0},
		{"dilution", 90, 0.7, 100, 0.8, -21.25},
		{"no baseline price", 110, 0.8, 0, 0.8, 0},
		{"no baseline occupancy", 110, 0.8, 100, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := revenueImpact(tc.price, tc.occ, tc.current, tc.baseline)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("impact = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestQuoteIDDeterministicAndDistinct(t *testing.T) {
	date, _ := api.ParseDate("2026-07-18")

	a := quoteID("pitch-7", date, api.PathStatistical, 120.99)
	b := quoteID("pitch-7", date, api.PathStatistical, 120.99)
	if a != b {
		t.Errorf("same inputs produced different quote ids: %s vs %s", a, b)
	}

	if c := quoteID("pitch-7", date, api.PathRuleBased, 120.99); c == a {
		t.Error("different path should produce a different quote id")
	}
	if d := quoteID("pitch-8", date, api.PathStatistical, 120.99); d == a {
		t.Error("different unit should produce a different quote id")
	}
}
