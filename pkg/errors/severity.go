// Package errors provides severity-aware error types.
package errors

import "fmt"

// Severity indicates error impact level.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// EngineError is a structured error with context.
type EngineError struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Severity    Severity `json:"severity"`
	UnitID      string   `json:"unit_id,omitempty"`
	Recoverable bool     `json:"recoverable"`
}

func (e *EngineError) Error() string {
	if e.UnitID != "" {
		return fmt.Sprintf("[%s] %s: %s (unit: %s)", e.Severity, e.Code, e.Message, e.UnitID)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Code, e.Message)
}

// Error codes
const (
	ErrCodeInvalidDate      = "INVALID_DATE"
	ErrCodeInvalidBounds    = "INVALID_PRICE_BOUNDS"
	ErrCodeInvalidStrategy  = "INVALID_STRATEGY"
	ErrCodeInvalidHorizon   = "INVALID_HORIZON"
	ErrCodeInvalidOutcome   = "INVALID_OUTCOME"
	ErrCodeStoreUnavailable = "STORE_UNAVAILABLE"
)

// NewInvalidDateError creates an error for unparseable stay dates.
func NewInvalidDateError(raw, unitID string) *EngineError {
	return &EngineError{
		Code:        ErrCodeInvalidDate,
		Message:     fmt.Sprintf("Stay date is not a valid ISO calendar date: %q", raw),
		Severity:    SeverityError,
		UnitID:      unitID,
		Recoverable: false,
	}
}

// NewInvalidBoundsError creates an error for malformed price bounds.
func NewInvalidBoundsError(minPrice, maxPrice float64, unitID string) *EngineError {
	return &EngineError{
		Code:        ErrCodeInvalidBounds,
		Message:     fmt.Sprintf("Price bounds must satisfy 0 < min <= max, got [%.2f, %.2f]", minPrice, maxPrice),
		Severity:    SeverityError,
		UnitID:      unitID,
		Recoverable: false,
	}
}

// NewInvalidStrategyError creates an error for unknown strategy modes.
func NewInvalidStrategyError(mode, unitID string) *EngineError {
	return &EngineError{
		Code:        ErrCodeInvalidStrategy,
		Message:     fmt.Sprintf("Unknown strategy mode: %q", mode),
		Severity:    SeverityError,
		UnitID:      unitID,
		Recoverable: false,
	}
}

// NewInvalidHorizonError creates an error for out-of-range batch horizons.
func NewInvalidHorizonError(days, maxDays int) *EngineError {
	return &EngineError{
		Code:        ErrCodeInvalidHorizon,
		Message:     fmt.Sprintf("Forecast horizon must be 1-%d days, got %d", maxDays, days),
		Severity:    SeverityError,
		Recoverable: false,
	}
}
