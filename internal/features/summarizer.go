// Package features derives seasonality, elasticity, premium and trend
// signals from the historical observations of one inventory unit.
//
// Summarize is a pure function of its input: no I/O, no shared state,
// and total over any input size including zero rows.
package features

import (
	"math"

	"stayrate/pkg/api"
)

// Guard rails for the derived factors.
const (
	// Winsor band for seasonal multipliers; a single outlier week must
	// not distort the factor map.
	winsorLow  = 0.5
	winsorHigh = 2.0

	// DefaultElasticity is the unit-elastic fallback used when the
	// regression sample is too small or the price variance degenerate.
	DefaultElasticity = -1.0

	// minGroupRows is the minimum observations in a day-of-week or
	// month bucket before its factor deviates from neutral.
	minGroupRows = 3

	// minRegressionRows gates the log-log elasticity fit.
	minRegressionRows = 10

	// minCorrelationRows gates the temperature/occupancy correlation.
	minCorrelationRows = 10

	// trendWindow is the recent-vs-prior comparison window in rows.
	trendWindow = 30

	// minTrendRows is the smallest history that yields a trend signal.
	minTrendRows = 14

	// trendCap bounds the fractional trend to a sane range.
	trendCap = 0.5

	// recentWindow sizes the baseline occupancy and price averages.
	recentWindow = 30

	// neutralOccupancy anchors the forecaster when the history carries
	// no occupancy at all.
	neutralOccupancy = 0.5
)

// Neutral returns the all-neutral summary used for empty histories.
func Neutral() api.FeatureSummary {
	s := api.FeatureSummary{
		PriceElasticity: DefaultElasticity,
		RecentOccupancy: neutralOccupancy,
	}
	for i := range s.DayOfWeekFactor {
		s.DayOfWeekFactor[i] = 1.0
	}
	for i := range s.MonthFactor {
		s.MonthFactor[i] = 1.0
	}
	return s
}

// Summarize derives the feature summary from one unit's history.
// Rows are expected in ascending date order; the trend and baseline
// windows rely on it.
func Summarize(history []api.HistoricalObservation) api.FeatureSummary {
	summary := Neutral()
	if len(history) == 0 {
		return summary
	}

	occRows := withOccupancy(history)
	summary.UsableRows = len(occRows)
	if len(occRows) == 0 {
		return summary
	}

	overallOcc := meanOccupancy(occRows)
	if overallOcc > 0 {
		fillGroupFactors(summary.DayOfWeekFactor[:], occRows, overallOcc, func(o api.HistoricalObservation) int {
			return int(o.Date.Weekday())
		})
		fillGroupFactors(summary.MonthFactor[:], occRows, overallOcc, func(o api.HistoricalObservation) int {
			return int(o.Date.Month()) - 1
		})
	}

	summary.WeekendPremium = pricePremium(history, func(o api.HistoricalObservation) bool {
		return o.Date.IsWeekend()
	})
	summary.HolidayPremium = pricePremium(history, func(o api.HistoricalObservation) bool {
		return o.IsHoliday
	})

	summary.PriceElasticity, summary.RegressionSamples = estimateElasticity(history)
	summary.WeatherCorrelation, summary.MeanTemperature = temperatureCorrelation(occRows)
	summary.RecentTrend = recentTrend(occRows)
	summary.RecentOccupancy = recentMean(occRows, recentWindow, func(o api.HistoricalObservation) float64 {
		return *o.Occupancy
	})
	summary.MeanPrice = recentMeanPrice(history)

	return summary
}

func withOccupancy(history []api.HistoricalObservation) []api.HistoricalObservation {
	rows := make([]api.HistoricalObservation, 0, len(history))
	for _, o := range history {
		if o.Occupancy != nil && *o.Occupancy >= 0 {
			rows = append(rows, o)
		}
	}
	return rows
}

func meanOccupancy(rows []api.HistoricalObservation) float64 {
	var sum float64
	for _, o := range rows {
		sum += *o.Occupancy
	}
	return sum / float64(len(rows))
}

// fillGroupFactors writes groupMean/overallMean into factors, winsorized
// to the configured band. Buckets with too few rows stay neutral.
func fillGroupFactors(factors []float64, rows []api.HistoricalObservation, overall float64, bucket func(api.HistoricalObservation) int) {
	sums := make([]float64, len(factors))
	counts := make([]int, len(factors))
	for _, o := range rows {
		b := bucket(o)
		if b < 0 || b >= len(factors) {
			continue
		}
		sums[b] += *o.Occupancy
		counts[b]++
	}
	for i := range factors {
		if counts[i] < minGroupRows {
			continue
		}
		factors[i] = winsorize(sums[i] / float64(counts[i]) / overall)
	}
}

func winsorize(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 1.0
	}
	if f < winsorLow {
		return winsorLow
	}
	if f > winsorHigh {
		return winsorHigh
	}
	return f
}

// pricePremium computes the fractional price uplift of rows matching the
// predicate versus the rest. Same groupMean/overallMean construction as
// the seasonal factors, but over price.
func pricePremium(history []api.HistoricalObservation, match func(api.HistoricalObservation) bool) float64 {
	var inSum, outSum float64
	var inN, outN int
	for _, o := range history {
		if o.Price == nil || *o.Price <= 0 {
			continue
		}
		if match(o) {
			inSum += *o.Price
			inN++
		} else {
			outSum += *o.Price
			outN++
		}
	}
	if inN < minGroupRows || outN < minGroupRows {
		return 0
	}
	base := outSum / float64(outN)
	if base <= 0 {
		return 0
	}
	premium := inSum/float64(inN)/base - 1
	if math.IsNaN(premium) || math.IsInf(premium, 0) {
		return 0
	}
	return premium
}

// estimateElasticity fits log(occupancy) on log(price) by ordinary least
// squares. Degenerate price variance or a thin sample returns the safe
// default rather than an unstable slope.
func estimateElasticity(history []api.HistoricalObservation) (float64, int) {
	var xs, ys []float64
	for _, o := range history {
		if !o.HasElasticityPair() {
			continue
		}
		xs = append(xs, math.Log(*o.Price))
		ys = append(ys, math.Log(*o.Occupancy))
	}
	n := len(xs)
	if n < minRegressionRows {
		return DefaultElasticity, n
	}

	slope, ok := olsSlope(xs, ys)
	if !ok {
		return DefaultElasticity, n
	}
	return slope, n
}

// olsSlope returns the least-squares slope of y on x. The second return
// is false when the x variance is too small to divide by.
func olsSlope(xs, ys []float64) (float64, bool) {
	n := float64(len(xs))
	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var sxx, sxy float64
	for i := range xs {
		dx := xs[i] - meanX
		sxx += dx * dx
		sxy += dx * (ys[i] - meanY)
	}
	if sxx < 1e-9 {
		return 0, false
	}
	slope := sxy / sxx
	if math.IsNaN(slope) || math.IsInf(slope, 0) {
		return 0, false
	}
	return slope, true
}

// temperatureCorrelation computes the Pearson coefficient between
// temperature and occupancy, plus the mean temperature used later to
// normalize forward weather anomalies.
func temperatureCorrelation(rows []api.HistoricalObservation) (corr, meanTemp float64) {
	var ts, os []float64
	for _, o := range rows {
		if o.Temperature == nil {
			continue
		}
		ts = append(ts, *o.Temperature)
		os = append(os, *o.Occupancy)
	}
	if len(ts) == 0 {
		return 0, 0
	}

	var sum float64
	for _, t := range ts {
		sum += t
	}
	meanTemp = sum / float64(len(ts))

	if len(ts) < minCorrelationRows {
		return 0, meanTemp
	}
	return pearson(ts, os), meanTemp
}

func pearson(xs, ys []float64) float64 {
	n := float64(len(xs))
	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var sxx, syy, sxy float64
	for i := range xs {
		dx, dy := xs[i]-meanX, ys[i]-meanY
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	denom := math.Sqrt(sxx * syy)
	if denom < 1e-9 {
		return 0
	}
	r := sxy / denom
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	if r > 1 {
		return 1
	}
	if r < -1 {
		return -1
	}
	return r
}

// recentTrend compares the mean occupancy of the most recent window
// against the window before it, as a fractional change.
func recentTrend(rows []api.HistoricalObservation) float64 {
	if len(rows) < minTrendRows {
		return 0
	}
	w := trendWindow
	if len(rows) < 2*w {
		w = len(rows) / 2
	}

	recent := rows[len(rows)-w:]
	prior := rows[len(rows)-2*w : len(rows)-w]

	priorMean := meanOccupancy(prior)
	if priorMean <= 0 {
		return 0
	}
	trend := meanOccupancy(recent)/priorMean - 1
	if math.IsNaN(trend) || math.IsInf(trend, 0) {
		return 0
	}
	if trend > trendCap {
		return trendCap
	}
	if trend < -trendCap {
		return -trendCap
	}
	return trend
}

func recentMean(rows []api.HistoricalObservation, window int, value func(api.HistoricalObservation) float64) float64 {
	if len(rows) == 0 {
		return 0
	}
	if len(rows) > window {
		rows = rows[len(rows)-window:]
	}
	var sum float64
	for _, o := range rows {
		sum += value(o)
	}
	return sum / float64(len(rows))
}

func recentMeanPrice(history []api.HistoricalObservation) float64 {
	priced := make([]api.HistoricalObservation, 0, len(history))
	for _, o := range history {
		if o.Price != nil && *o.Price > 0 {
			priced = append(priced, o)
		}
	}
	if len(priced) == 0 {
		return 0
	}
	return recentMean(priced, recentWindow, func(o api.HistoricalObservation) float64 {
		return *o.Price
	})
}
