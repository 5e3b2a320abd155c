// Package forecast turns a feature summary into a predicted-occupancy
// time series with per-point confidence.
package forecast

import (
	"stayrate/pkg/api"
	"stayrate/pkg/confidence"
)

const (
	// weatherCap bounds the weather contribution to roughly +/-10% of
	// predicted occupancy.
	weatherCap = 0.10

	// tempAnomalyScale normalizes a forward temperature anomaly: a
	// 10-degree departure from the historical mean is full strength.
	tempAnomalyScale = 10.0
)

// Request describes one forecast run. The summary is computed once by
// the caller and shared across the whole horizon.
type Request struct {
	Summary api.FeatureSummary
	Start   api.Date
	Days    int

	// Baseline overrides the summary's recent occupancy when positive.
	Baseline float64

	// Holidays marks forward holiday dates (ISO), supplied by the
	// enrichment collaborator.
	Holidays map[string]bool

	// ExpectedTemperature is the forward weather signal; nil means no
	// signal and a zero weather adjustment.
	ExpectedTemperature *float64
}

// Forecast produces one point per day in ascending date order. It is
// total: any missing input degrades to neutral factors rather than an
// error.
//
// Confidence does not decay with distance into the future: seasonality
// is treated as stationary, so a point 90 days out backed by 200 rows
// is labelled the same as tomorrow's.
func Forecast(req Request) []api.DemandForecastPoint {
	if req.Days <= 0 {
		return nil
	}

	baseline := req.Baseline
	if baseline <= 0 {
		baseline = req.Summary.RecentOccupancy
	}

	label := string(confidence.FromSamples(req.Summary.UsableRows, req.Summary.RegressionSamples))
	weatherAdj := weatherAdjustment(req.Summary, req.ExpectedTemperature)

	points := make([]api.DemandForecastPoint, 0, req.Days)
	for i := 0; i < req.Days; i++ {
		date := req.Start.AddDays(i)

		seasonal := req.Summary.DayOfWeekFactor[int(date.Weekday())] *
			req.Summary.MonthFactor[int(date.Month())-1]

		holidayAdj := 0.0
		if req.Holidays[date.String()] {
			holidayAdj = req.Summary.HolidayPremium
		}

		occ := baseline * seasonal *
			(1 + weatherAdj) *
			(1 + holidayAdj) *
			(1 + req.Summary.RecentTrend)

		points = append(points, api.DemandForecastPoint{
			Date:               date,
			PredictedOccupancy: confidence.Clamp(occ),
			Confidence:         label,
			SeasonalFactor:     seasonal,
			WeatherAdjustment:  weatherAdj,
			HolidayAdjustment:  holidayAdj,
			TrendAdjustment:    req.Summary.RecentTrend,
		})
	}
	return points
}

// weatherAdjustment converts the historical temperature/occupancy
// correlation and a forward temperature anomaly into a capped occupancy
// adjustment. No forward signal means no adjustment.
func weatherAdjustment(s api.FeatureSummary, expected *float64) float64 {
	if expected == nil || s.WeatherCorrelation == 0 {
		return 0
	}

	anomaly := (*expected - s.MeanTemperature) / tempAnomalyScale
	if anomaly > 1 {
		anomaly = 1
	}
	if anomaly < -1 {
		anomaly = -1
	}

	adj := s.WeatherCorrelation * anomaly * weatherCap
	if adj > weatherCap {
		return weatherCap
	}
	if adj < -weatherCap {
		return -weatherCap
	}
	return adj
}
