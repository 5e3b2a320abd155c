package engine

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stayrate/internal/optimizer"
	"stayrate/pkg/api"
	"stayrate/pkg/confidence"
)

// quoteNamespace seeds deterministic quote IDs: scoring the same inputs
// twice must return bit-identical output, so the ID is a content hash,
// not a random draw.
var quoteNamespace = uuid.MustParse("0d1c7f5e-9b64-4a3a-8f5e-2b7c1d9e4a6b")

// assembly carries everything the recommendation needs; missing
// upstream values degrade to neutral defaults rather than failing.
type assembly struct {
	UnitID             string
	Date               api.Date
	Path               api.PricePath
	CurrentPrice       float64
	RecommendedPrice   float64
	PredictedOccupancy float64
	BaselineOccupancy  float64
	Confidence         string
	Explanation        []string
}

func assemble(a assembly) api.PricingRecommendation {
	price := round2(a.RecommendedPrice)
	occ := confidence.Clamp(a.PredictedOccupancy)

	label := a.Confidence
	if label == "" {
		label = string(confidence.Low)
	}

	return api.PricingRecommendation{
		QuoteID:              quoteID(a.UnitID, a.Date, a.Path, price),
		UnitID:               a.UnitID,
		Date:                 a.Date,
		Path:                 a.Path,
		CurrentPrice:         round2(a.CurrentPrice),
		RecommendedPrice:     price,
		PredictedOccupancy:   occ,
		Confidence:           label,
		RevenueImpactPercent: revenueImpact(price, occ, a.CurrentPrice, a.BaselineOccupancy),
		Explanation:          a.Explanation,
	}
}

// revenueImpact compares expected revenue at the recommendation against
// the caller's baseline, as a signed percentage. An unusable baseline
// yields zero rather than a division error.
func revenueImpact(price, occ, currentPrice, baselineOcc float64) float64 {
	if currentPrice <= 0 || baselineOcc <= 0 {
		return 0
	}
	impact := (price*occ)/(currentPrice*baselineOcc) - 1
	return round2(impact * 100)
}

func quoteID(unitID string, date api.Date, path api.PricePath, price float64) string {
	name := fmt.Sprintf("%s|%s|%s|%.2f", unitID, date, path, price)
	return uuid.NewSHA1(quoteNamespace, []byte(name)).String()
}

func round2(f float64) float64 {
	return decimal.NewFromFloat(f).Round(2).InexactFloat64()
}

// statisticalFactors renders the forecast decomposition and optimizer
// constraints as ordered, human-readable factor strings.
func statisticalFactors(summary api.FeatureSummary, point api.DemandForecastPoint, opt optimizer.Result) []string {
	factors := []string{
		fmt.Sprintf("Day of week: %s (×%.2f)", point.Date.Weekday(), summary.DayOfWeekFactor[int(point.Date.Weekday())]),
		fmt.Sprintf("Month: %s (×%.2f)", point.Date.Month(), summary.MonthFactor[int(point.Date.Month())-1]),
	}
	if point.WeatherAdjustment != 0 {
		factors = append(factors, fmt.Sprintf("Weather signal (%+.1f%%)", point.WeatherAdjustment*100))
	}
	if point.HolidayAdjustment != 0 {
		factors = append(factors, fmt.Sprintf("Holiday (%+.1f%%)", point.HolidayAdjustment*100))
	}
	if point.TrendAdjustment != 0 {
		factors = append(factors, fmt.Sprintf("Recent trend (%+.1f%%)", point.TrendAdjustment*100))
	}
	factors = append(factors,
		fmt.Sprintf("Price elasticity: %.2f", opt.Elasticity),
		fmt.Sprintf("Target occupancy floor: %.0f%%", opt.OccupancyFloor*100),
	)
	return factors
}
