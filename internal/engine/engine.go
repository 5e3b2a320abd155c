// Package engine routes scoring requests between the statistical and
// rule-based pricing paths and assembles the common recommendation
// shape both produce.
package engine

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"stayrate/internal/features"
	"stayrate/internal/forecast"
	"stayrate/internal/optimizer"
	"stayrate/internal/rules"
	"stayrate/pkg/api"
	"stayrate/pkg/confidence"
	engerrors "stayrate/pkg/errors"
)

// MinStatisticalRows is the data-sufficiency threshold for the
// statistical path. It matches the evidence level of the medium
// confidence label: below it the summarizer would mostly return
// neutral factors, so the rule-based scorer prices the date instead.
const MinStatisticalRows = confidence.MediumRows

// fallbackOccupancyEstimate stands in for predicted occupancy on the
// rule-based path when no capacity counts are supplied.
const fallbackOccupancyEstimate = 0.70

// Engine is the pricing decision engine. It is stateless and safe for
// concurrent use: every call works entirely on its own stack.
type Engine struct {
	log zerolog.Logger
}

// New creates an engine logging through the global zerolog logger.
func New() *Engine {
	return &Engine{log: log.Logger}
}

// WithLogger replaces the engine's logger.
func (e *Engine) WithLogger(l zerolog.Logger) *Engine {
	e.log = l
	return e
}

// Score produces a single-date recommendation.
func (e *Engine) Score(req api.ScoreRequest) (*api.PricingRecommendation, error) {
	cfg, err := e.validateToggles(req.Toggles, req.UnitID)
	if err != nil {
		return nil, err
	}

	date, perr := api.ParseDate(req.StayDate)
	if perr != nil {
		return nil, engerrors.NewInvalidDateError(req.StayDate, req.UnitID)
	}

	if e.useStatistical(req) {
		summary := features.Summarize(req.History)
		points := forecast.Forecast(forecast.Request{
			Summary:             summary,
			Start:               date,
			Days:                1,
			Holidays:            e.holidaySet(req.HolidayDates),
			ExpectedTemperature: req.ExpectedTemperature,
		})
		rec := e.scoreStatistical(req, cfg, summary, points[0])
		return &rec, nil
	}

	rec := e.scoreRuleBased(req, cfg, date)
	return &rec, nil
}

// ScoreBatch produces one recommendation per date in ascending order.
// The feature summary is computed once and shared across the range.
func (e *Engine) ScoreBatch(req api.BatchScoreRequest) ([]api.PricingRecommendation, error) {
	cfg, err := e.validateToggles(req.Toggles, req.UnitID)
	if err != nil {
		return nil, err
	}

	start, perr := api.ParseDate(req.StartDate)
	if perr != nil {
		return nil, engerrors.NewInvalidDateError(req.StartDate, req.UnitID)
	}
	if req.Days < 1 || req.Days > api.MaxBatchDays {
		return nil, engerrors.NewInvalidHorizonError(req.Days, api.MaxBatchDays)
	}

	recs := make([]api.PricingRecommendation, 0, req.Days)

	if e.useStatistical(req.ScoreRequest) {
		summary := features.Summarize(req.History)
		points := forecast.Forecast(forecast.Request{
			Summary:             summary,
			Start:               start,
			Days:                req.Days,
			Holidays:            e.holidaySet(req.HolidayDates),
			ExpectedTemperature: req.ExpectedTemperature,
		})
		for _, point := range points {
			recs = append(recs, e.scoreStatistical(req.ScoreRequest, cfg, summary, point))
		}
		return recs, nil
	}

	for i := 0; i < req.Days; i++ {
		recs = append(recs, e.scoreRuleBased(req.ScoreRequest, cfg, start.AddDays(i)))
	}
	return recs, nil
}

// Learn accepts realized price/occupancy outcomes and acknowledges how
// many passed validation. Persistence and the eventual re-estimation
// are the caller's concern; this is the contract's feedback channel.
func (e *Engine) Learn(req api.LearnRequest) api.LearnResponse {
	resp := api.LearnResponse{}
	for i, rec := range req.Records {
		if err := ValidateOutcome(rec); err != nil {
			resp.Rejected++
			resp.Errors = append(resp.Errors, fmt.Sprintf("record %d: %v", i, err))
			continue
		}
		resp.Accepted++
	}
	return resp
}

// ValidateOutcome is the acceptance rule behind Learn, exported so
// persistence layers store exactly the records Learn acknowledged.
func ValidateOutcome(rec api.OutcomeRecord) error {
	if rec.UnitID == "" {
		return fmt.Errorf("unit_id is required")
	}
	if _, err := api.ParseDate(rec.StayDate); err != nil {
		return fmt.Errorf("invalid stay_date %q", rec.StayDate)
	}
	if rec.QuotedPrice <= 0 {
		return fmt.Errorf("quoted_price must be positive")
	}
	if rec.ActualOccupancy < 0 || rec.ActualOccupancy > 1 {
		return fmt.Errorf("actual_occupancy must be within [0, 1]")
	}
	return nil
}

func (e *Engine) validateToggles(toggles api.StrategyConfig, unitID string) (api.StrategyConfig, error) {
	cfg := toggles.Normalize()
	if cfg.MinPrice <= 0 || cfg.MaxPrice <= 0 || cfg.MinPrice > cfg.MaxPrice {
		return cfg, engerrors.NewInvalidBoundsError(cfg.MinPrice, cfg.MaxPrice, unitID)
	}
	if !api.ValidMode(cfg.Mode) {
		return cfg, engerrors.NewInvalidStrategyError(string(cfg.Mode), unitID)
	}
	if !api.ValidMode(cfg.RiskMode) {
		return cfg, engerrors.NewInvalidStrategyError(string(cfg.RiskMode), unitID)
	}
	return cfg, nil
}

// useStatistical is the explicit routing decision between the two
// paths: enough usable history and no operator override.
func (e *Engine) useStatistical(req api.ScoreRequest) bool {
	if req.FallbackOnly {
		return false
	}
	usable := 0
	for _, o := range req.History {
		if o.Occupancy != nil {
			usable++
		}
	}
	return usable >= MinStatisticalRows
}

func (e *Engine) holidaySet(dates []string) map[string]bool {
	if len(dates) == 0 {
		return nil
	}
	set := make(map[string]bool, len(dates))
	for _, d := range dates {
		if _, err := api.ParseDate(d); err != nil {
			e.log.Warn().Str("date", d).Msg("ignoring malformed holiday date")
			continue
		}
		set[d] = true
	}
	return set
}

func (e *Engine) scoreStatistical(req api.ScoreRequest, cfg api.StrategyConfig, summary api.FeatureSummary, point api.DemandForecastPoint) api.PricingRecommendation {
	basePrice := summary.MeanPrice
	if basePrice <= 0 {
		basePrice = req.CurrentPrice
	}
	if basePrice <= 0 && req.CompetitorPrice != nil {
		basePrice = *req.CompetitorPrice
	}

	opt := optimizer.Optimize(optimizer.Input{
		BaselineOccupancy: point.PredictedOccupancy,
		BasePrice:         basePrice,
		Elasticity:        summary.PriceElasticity,
		Config:            cfg,
	})
	if opt.ElasticityClamped {
		e.log.Warn().
			Str("unit_id", req.UnitID).
			Float64("estimated", summary.PriceElasticity).
			Float64("used", opt.Elasticity).
			Msg("elasticity outside sane range, clamped to default")
	}

	return assemble(assembly{
		UnitID:             req.UnitID,
		Date:               point.Date,
		Path:               api.PathStatistical,
		CurrentPrice:       req.CurrentPrice,
		RecommendedPrice:   opt.Price,
		PredictedOccupancy: opt.ExpectedOccupancy,
		BaselineOccupancy:  summary.RecentOccupancy,
		Confidence:         point.Confidence,
		Explanation:        statisticalFactors(summary, point, opt),
	})
}

func (e *Engine) scoreRuleBased(req api.ScoreRequest, cfg api.StrategyConfig, date api.Date) api.PricingRecommendation {
	res := rules.Score(rules.Input{
		Date:            date,
		CompetitorPrice: req.CompetitorPrice,
		Capacity:        req.Capacity,
		Booked:          req.Booked,
		Config:          cfg,
	})

	occ := fallbackOccupancyEstimate
	if cfg.TargetOccupancy != nil && *cfg.TargetOccupancy > 0 && *cfg.TargetOccupancy <= 1 {
		occ = *cfg.TargetOccupancy
	}
	if req.Capacity > 0 {
		occ = res.OccupancyRate
	}

	return assemble(assembly{
		UnitID:             req.UnitID,
		Date:               date,
		Path:               api.PathRuleBased,
		CurrentPrice:       req.CurrentPrice,
		RecommendedPrice:   res.Price,
		PredictedOccupancy: occ,
		BaselineOccupancy:  occ,
		Confidence:         string(confidence.Low),
		Explanation:        res.Factors,
	})
}
