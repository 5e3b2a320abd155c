// Package optimizer searches a bounded price grid for the revenue
// maximizing price under a constant-elasticity demand curve.
package optimizer

import (
	"math"

	"stayrate/internal/features"
	"stayrate/pkg/api"
)

// Elasticity sanity range. Anything outside it (a positive slope from a
// data artifact, or an implausibly steep one) is replaced by the safe
// default rather than allowed to produce a perverse recommendation.
const (
	maxSaneElasticity = -0.05
	minSaneElasticity = -5.0
)

// maxCandidates bounds the grid so a single request stays well under a
// millisecond regardless of the operator's price band.
const maxCandidates = 200

// Occupancy floors implied by the strategy mode. The conservative
// posture keeps occupancy high even at lower revenue; the aggressive
// one trades occupancy for rate. Balanced's floor is a guardrail below
// the unconstrained optimum seen in typical data.
const (
	floorConservative = 0.85
	floorBalanced     = 0.70
	floorAggressive   = 0.60
)

// Input is one optimization request. Config is expected to be
// normalized and validated.
type Input struct {
	// BaselineOccupancy is the predicted occupancy at BasePrice.
	BaselineOccupancy float64
	BasePrice         float64
	Elasticity        float64
	Config            api.StrategyConfig
}

// Result is the selected grid point.
type Result struct {
	Price             float64
	ExpectedOccupancy float64

	// Elasticity actually used, after the sanity clamp.
	Elasticity        float64
	ElasticityClamped bool

	// OccupancyFloor is the band constraint that applied.
	OccupancyFloor float64
}

// Optimize evaluates expected revenue (price x occupancy) on a bounded
// grid spanning [minPrice, maxPrice] and returns the maximizing price,
// subject to the strategy's occupancy floor. Ties break toward the
// price closest to the base price to avoid large unexplained swings.
func Optimize(in Input) Result {
	cfg := in.Config

	elasticity, clamped := saneElasticity(in.Elasticity)

	basePrice := in.BasePrice
	if basePrice <= 0 {
		basePrice = (cfg.MinPrice + cfg.MaxPrice) / 2
	}
	baseOcc := in.BaselineOccupancy
	if baseOcc <= 0 {
		baseOcc = 0.5
	}

	floor := occupancyFloor(cfg)

	occupancyAt := func(p float64) float64 {
		occ := baseOcc * math.Pow(p/basePrice, elasticity)
		if math.IsNaN(occ) || math.IsInf(occ, 0) {
			return 0
		}
		if occ > 1 {
			return 1
		}
		if occ < 0 {
			return 0
		}
		return occ
	}

	step := 1.0
	if span := cfg.MaxPrice - cfg.MinPrice; span/step > maxCandidates {
		step = span / maxCandidates
	}

	var (
		bestPrice   = -1.0
		bestOcc     float64
		bestRevenue = -1.0

		// Fallback when no candidate satisfies the floor: the price
		// with the highest achievable occupancy.
		fillPrice = cfg.MinPrice
		fillOcc   = -1.0
	)

	for p := cfg.MinPrice; p <= cfg.MaxPrice+1e-9; p += step {
		price := math.Min(p, cfg.MaxPrice)
		occ := occupancyAt(price)

		if occ > fillOcc {
			fillOcc = occ
			fillPrice = price
		}
		if occ < floor {
			continue
		}

		revenue := price * occ
		if revenue > bestRevenue+1e-9 ||
			(math.Abs(revenue-bestRevenue) <= 1e-9 && math.Abs(price-basePrice) < math.Abs(bestPrice-basePrice)) {
			bestRevenue = revenue
			bestPrice = price
			bestOcc = occ
		}
	}

	if bestPrice < 0 {
		// Floor unreachable anywhere in the band; fill as much as the
		// band allows.
		bestPrice = fillPrice
		bestOcc = fillOcc
	}

	return Result{
		Price:             bestPrice,
		ExpectedOccupancy: bestOcc,
		Elasticity:        elasticity,
		ElasticityClamped: clamped,
		OccupancyFloor:    floor,
	}
}

func saneElasticity(e float64) (float64, bool) {
	if math.IsNaN(e) || e > maxSaneElasticity || e < minSaneElasticity {
		return features.DefaultElasticity, true
	}
	return e, false
}

// occupancyFloor resolves the target-occupancy constraint: an explicit
// operator override wins, otherwise the mode's band applies.
func occupancyFloor(cfg api.StrategyConfig) float64 {
	if cfg.TargetOccupancy != nil && *cfg.TargetOccupancy > 0 && *cfg.TargetOccupancy <= 1 {
		return *cfg.TargetOccupancy
	}
	switch cfg.Mode {
	case api.ModeConservative:
		return floorConservative
	case api.ModeAggressive:
		return floorAggressive
	default:
		return floorBalanced
	}
}
