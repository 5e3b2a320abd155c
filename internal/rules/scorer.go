// Package rules implements the deterministic cold-start pricer. It
// needs no trained coefficients and is total over every valid input,
// which makes it the fallback when history is too sparse for the
// statistical path.
package rules

import (
	"fmt"
	"math"
	"time"

	"stayrate/pkg/api"
)

// DefaultBasePrice anchors the computation when no competitor reference
// is supplied.
const DefaultBasePrice = 100.0

// Season multipliers.
const (
	winterFactor = 0.85
	springFactor = 1.00
	summerFactor = 1.25
	autumnFactor = 0.95
)

// Risk dampening per posture.
const (
	riskConservative = 0.95
	riskBalanced     = 1.00
	riskAggressive   = 1.10
)

// refundablePremium is the fixed uplift for refundable products.
const refundablePremium = 1.10

// Input is one rule-based scoring request. Config is expected to be
// normalized.
type Input struct {
	Date            api.Date
	CompetitorPrice *float64
	Capacity        int
	Booked          int
	Config          api.StrategyConfig
}

// Result carries the composed price and the ordered factor strings that
// explain it.
type Result struct {
	Price         float64
	BasePrice     float64
	OccupancyRate float64
	Factors       []string
}

// Score composes the price multiplicatively from a base price, season
// and day-of-week multipliers, a bias-scaled scarcity multiplier, the
// risk posture, and product attributes, then clamps and rounds.
func Score(in Input) Result {
	cfg := in.Config

	base := DefaultBasePrice
	if in.CompetitorPrice != nil && *in.CompetitorPrice > 0 {
		base = *in.CompetitorPrice
	}

	res := Result{BasePrice: base}
	price := base
	res.Factors = append(res.Factors, fmt.Sprintf("Base price: %.2f", base))

	season := api.SeasonOf(in.Date.Month())
	sf := seasonFactor(season)
	price *= sf
	res.Factors = append(res.Factors, fmt.Sprintf("Season: %s (×%.2f)", season, sf))

	df := dayFactor(in.Date.Weekday())
	if df != 1.0 {
		res.Factors = append(res.Factors, fmt.Sprintf("Day of week: %s (×%.2f)", in.Date.Weekday(), df))
	}
	price *= df

	res.OccupancyRate = occupancyRate(in.Booked, in.Capacity)
	scarcity := scarcityFactor(res.OccupancyRate, cfg.Bias())
	if scarcity != 1.0 {
		res.Factors = append(res.Factors, fmt.Sprintf("Scarcity: %.0f%% booked (×%.2f)", res.OccupancyRate*100, scarcity))
	}
	price *= scarcity

	rf := riskFactor(cfg.RiskMode)
	if rf != 1.0 {
		res.Factors = append(res.Factors, fmt.Sprintf("Risk posture: %s (×%.2f)", cfg.RiskMode, rf))
	}
	price *= rf

	if cfg.Product.Refundable {
		price *= refundablePremium
		res.Factors = append(res.Factors, fmt.Sprintf("Refundable (×%.2f)", refundablePremium))
	}

	res.Price = RoundPsychological(Clamp(price, cfg.MinPrice, cfg.MaxPrice), cfg.MinPrice, cfg.MaxPrice)
	return res
}

func seasonFactor(s api.Season) float64 {
	switch s {
	case api.SeasonWinter:
		return winterFactor
	case api.SeasonSummer:
		return summerFactor
	case api.SeasonAutumn:
		return autumnFactor
	default:
		return springFactor
	}
}

func dayFactor(wd time.Weekday) float64 {
	switch wd {
	case time.Friday, time.Saturday:
		return 1.15
	case time.Monday, time.Thursday:
		return 1.05
	default:
		return 1.0
	}
}

func occupancyRate(booked, capacity int) float64 {
	if capacity <= 0 {
		return 0
	}
	rate := float64(booked) / float64(capacity)
	if rate < 0 {
		return 0
	}
	if rate > 1 {
		return 1
	}
	return rate
}

// scarcityFactor maps the booked share to a premium or fill discount,
// then scales the deviation from neutral by the fill-vs-rate dial. The
// dial works in opposite directions on the two sides of neutral: a
// rate-biased operator (bias > 50) amplifies the scarcity premium and
// shrinks the fill discount, a fill-biased one (bias < 50) forgoes the
// premium and deepens the discount to fill the unit.
func scarcityFactor(rate float64, bias int) float64 {
	var band float64
	switch {
	case rate > 0.8:
		band = 1.30
	case rate > 0.6:
		band = 1.15
	case rate < 0.3:
		band = 0.90
	default:
		band = 1.00
	}
	if band < 1 {
		return 1 + (band-1)*float64(100-bias)/50.0
	}
	return 1 + (band-1)*float64(bias)/50.0
}

func riskFactor(mode api.StrategyMode) float64 {
	switch mode {
	case api.ModeConservative:
		return riskConservative
	case api.ModeAggressive:
		return riskAggressive
	default:
		return riskBalanced
	}
}

// Clamp bounds a price to the operator's [min, max] band.
func Clamp(price, minPrice, maxPrice float64) float64 {
	if price < minPrice {
		return minPrice
	}
	if price > maxPrice {
		return maxPrice
	}
	return price
}

// RoundPsychological rounds to the nearest .99 ending, keeping the
// result inside the clamp band.
func RoundPsychological(price, minPrice, maxPrice float64) float64 {
	rounded := math.Round(price) - 0.01
	if rounded < minPrice || rounded > maxPrice {
		return price
	}
	return rounded
}
