// Package api defines the typed request and response contracts shared by
// the pricing engine, its transports, and its storage collaborators.
package api

import (
	"fmt"
	"strings"
	"time"
)

// DateFormat is the ISO calendar date layout used on every wire surface.
const DateFormat = "2006-01-02"

// Date is a calendar date (no time component) marshalled as "2006-01-02".
type Date struct {
	time.Time
}

// NewDate builds a Date from year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) String() string { return d.Format(DateFormat) }

// AddDays returns the date shifted by n calendar days.
func (d Date) AddDays(n int) Date { return Date{d.AddDate(0, 0, n)} }

// MarshalJSON renders the date as a quoted ISO calendar date.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(DateFormat) + `"`), nil
}

// UnmarshalJSON parses a quoted ISO calendar date.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", s, err)
	}
	*d = Date{t}
	return nil
}

// IsWeekend reports whether the date falls on Saturday or Sunday.
func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Season is a meteorological season bucket (northern hemisphere).
type Season string

const (
	SeasonWinter Season = "winter"
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonAutumn Season = "autumn"
)

// SeasonOf buckets a month into its season.
func SeasonOf(m time.Month) Season {
	switch m {
	case time.December, time.January, time.February:
		return SeasonWinter
	case time.March, time.April, time.May:
		return SeasonSpring
	case time.June, time.July, time.August:
		return SeasonSummer
	default:
		return SeasonAutumn
	}
}

// HistoricalObservation is one enriched row of past performance for a
// single inventory unit. It is read-only input owned by the external
// historical data provider; the engine never mutates it.
//
// Price and Occupancy are pointers because a row missing either is still
// usable for the feature dimensions it does carry, but is excluded from
// the elasticity regression.
type HistoricalObservation struct {
	Date          Date     `json:"date"`
	Price         *float64 `json:"price,omitempty"`
	Occupancy     *float64 `json:"occupancy,omitempty"` // normalized 0-1
	Temperature   *float64 `json:"temperature,omitempty"`
	Precipitation *float64 `json:"precipitation,omitempty"`
	Condition     string   `json:"weather_condition,omitempty"`
	IsHoliday     bool     `json:"is_holiday,omitempty"`
	HolidayName   string   `json:"holiday_name,omitempty"`
}

// HasElasticityPair reports whether the row can feed the log-log
// price/occupancy regression.
func (o HistoricalObservation) HasElasticityPair() bool {
	return o.Price != nil && *o.Price > 0 && o.Occupancy != nil && *o.Occupancy > 0
}

// FeatureSummary is the derived, in-memory feature set recomputed on
// every invocation. Every factor defaults to a neutral value (1.0 for
// multipliers, 0 for correlations) when the history cannot support an
// estimate; it never carries NaN.
type FeatureSummary struct {
	DayOfWeekFactor    [7]float64  `json:"day_of_week_factor"` // Sunday = index 0
	MonthFactor        [12]float64 `json:"month_factor"`       // January = index 0
	PriceElasticity    float64     `json:"price_elasticity"`
	WeekendPremium     float64     `json:"weekend_premium"` // fractional price uplift
	HolidayPremium     float64     `json:"holiday_premium"`
	WeatherCorrelation float64     `json:"weather_occupancy_correlation"`
	RecentTrend        float64     `json:"recent_trend"`

	// Baselines the forecaster and optimizer anchor on.
	RecentOccupancy float64 `json:"recent_occupancy"`
	MeanPrice       float64 `json:"mean_price"`
	MeanTemperature float64 `json:"mean_temperature"`

	// Evidence counters driving the confidence label.
	UsableRows        int `json:"usable_rows"`
	RegressionSamples int `json:"regression_samples"`
}

// DemandForecastPoint is one forecasted date with its decomposed
// contributions, retained for explainability.
type DemandForecastPoint struct {
	Date               Date    `json:"date"`
	PredictedOccupancy float64 `json:"predicted_occupancy"` // clamped 0-1
	Confidence         string  `json:"confidence"`          // low | medium | high | very_high

	SeasonalFactor    float64 `json:"seasonal_factor"`
	WeatherAdjustment float64 `json:"weather_adjustment"`
	HolidayAdjustment float64 `json:"holiday_adjustment"`
	TrendAdjustment   float64 `json:"trend_adjustment"`
}

// StrategyMode selects the fill-vs-rate posture of the operator.
type StrategyMode string

const (
	ModeConservative StrategyMode = "conservative"
	ModeBalanced     StrategyMode = "balanced"
	ModeAggressive   StrategyMode = "aggressive"
)

// ValidMode reports whether a mode string is one of the three postures.
func ValidMode(m StrategyMode) bool {
	switch m {
	case ModeConservative, ModeBalanced, ModeAggressive:
		return true
	}
	return false
}

// Product describes the sellable attributes of the inventory unit.
type Product struct {
	Type         string `json:"type,omitempty"`
	Refundable   bool   `json:"refundable"`
	LengthOfStay int    `json:"length_of_stay,omitempty"`
}

// StrategyConfig carries the operator toggles for one scoring request.
// All fields are optional; Normalize fills documented defaults.
type StrategyConfig struct {
	Mode            StrategyMode `json:"mode,omitempty"`
	TargetOccupancy *float64     `json:"target_occupancy,omitempty"`
	MinPrice        float64      `json:"min_price,omitempty"`
	MaxPrice        float64      `json:"max_price,omitempty"`
	FillVsRateBias  *int         `json:"fill_vs_rate_bias,omitempty"` // 0-100, <50 fills, >50 holds rate
	RiskMode        StrategyMode `json:"risk_mode,omitempty"`
	Product         Product      `json:"product"`
}

// Defaults applied by Normalize.
const (
	DefaultMinPrice       = 30.0
	DefaultMaxPrice       = 500.0
	DefaultFillVsRateBias = 50
)

// Normalize fills unset toggles with their documented defaults and
// returns the result. The zero value normalizes to the balanced posture.
func (c StrategyConfig) Normalize() StrategyConfig {
	out := c
	if out.Mode == "" {
		out.Mode = ModeBalanced
	}
	if out.RiskMode == "" {
		out.RiskMode = ModeBalanced
	}
	if out.MinPrice == 0 {
		out.MinPrice = DefaultMinPrice
	}
	if out.MaxPrice == 0 {
		out.MaxPrice = DefaultMaxPrice
	}
	if out.FillVsRateBias == nil {
		bias := DefaultFillVsRateBias
		out.FillVsRateBias = &bias
	}
	return out
}

// Bias returns the fill-vs-rate dial clamped to 0-100.
func (c StrategyConfig) Bias() int {
	if c.FillVsRateBias == nil {
		return DefaultFillVsRateBias
	}
	b := *c.FillVsRateBias
	if b < 0 {
		return 0
	}
	if b > 100 {
		return 100
	}
	return b
}

// PricePath tags which of the two pricing strategies produced a
// recommendation.
type PricePath string

const (
	PathStatistical PricePath = "statistical"
	PathRuleBased   PricePath = "rule_based"
)

// PricingRecommendation is the externally visible result of a Score
// call. It is output only; the engine never persists it.
type PricingRecommendation struct {
	QuoteID string    `json:"quote_id"`
	UnitID  string    `json:"unit_id"`
	Date    Date      `json:"date"`
	Path    PricePath `json:"path"`

	CurrentPrice       float64 `json:"current_price"`
	RecommendedPrice   float64 `json:"recommended_price"`
	PredictedOccupancy float64 `json:"predicted_occupancy"`
	Confidence         string  `json:"confidence"`

	// RevenueImpactPercent compares expected revenue at the recommended
	// price against the caller-supplied baseline price, signed.
	RevenueImpactPercent float64 `json:"revenue_impact_percent"`

	// Explanation is an ordered list of short factor strings,
	// e.g. "Season: summer (x1.25)".
	Explanation []string `json:"explanation"`
}
