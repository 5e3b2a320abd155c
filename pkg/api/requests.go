package api

// ScoreRequest asks for a price recommendation for one unit and date.
// History is optional: when it carries too few usable rows, or when
// FallbackOnly is set, the rule-based path prices the date instead of
// the statistical one.
type ScoreRequest struct {
	UnitID   string `json:"unit_id"`
	StayDate string `json:"stay_date"` // ISO calendar date

	// CurrentPrice is the caller's baseline rate, used only for the
	// revenue impact comparison.
	CurrentPrice float64 `json:"current_price,omitempty"`

	// CompetitorPrice is an optional external reference used as the
	// base price on the rule-based path.
	CompetitorPrice *float64 `json:"competitor_price,omitempty"`

	// Capacity and Booked feed the scarcity multiplier.
	Capacity int `json:"capacity,omitempty"`
	Booked   int `json:"booked,omitempty"`

	Toggles StrategyConfig `json:"toggles"`

	History      []HistoricalObservation `json:"historical_observations,omitempty"`
	FallbackOnly bool                    `json:"fallback_only,omitempty"`

	// HolidayDates lists forward holiday dates (ISO) supplied by the
	// enrichment collaborator; the engine has no holiday calendar.
	HolidayDates []string `json:"holiday_dates,omitempty"`

	// ExpectedTemperature is an optional forward weather signal for the
	// stay date(s).
	ExpectedTemperature *float64 `json:"expected_temperature,omitempty"`
}

// BatchScoreRequest scores a contiguous date range against one shared
// feature summary.
type BatchScoreRequest struct {
	ScoreRequest
	StartDate string `json:"start_date"` // ISO calendar date
	Days      int    `json:"days"`
}

// MaxBatchDays bounds the batch horizon.
const MaxBatchDays = 365

// OutcomeRecord is one realized price/occupancy pair reported back
// through the Learn channel.
type OutcomeRecord struct {
	UnitID          string  `json:"unit_id"`
	StayDate        string  `json:"stay_date"`
	QuotedPrice     float64 `json:"quoted_price"`
	ActualOccupancy float64 `json:"actual_occupancy"`
}

// LearnRequest submits outcome records for future re-estimation.
type LearnRequest struct {
	Records []OutcomeRecord `json:"records"`
}

// LearnResponse acknowledges how many records were accepted.
type LearnResponse struct {
	Accepted int      `json:"accepted"`
	Rejected int      `json:"rejected"`
	Errors   []string `json:"errors,omitempty"`
}
