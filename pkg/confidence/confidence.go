// Package confidence provides the ordinal evidence labels attached to
// demand forecasts.
package confidence

// Label is an ordinal summary of how much historical evidence supports
// a forecast point.
type Label string

const (
	Low      Label = "low"
	Medium   Label = "medium"
	High     Label = "high"
	VeryHigh Label = "very_high"
)

// Evidence thresholds in usable historical rows.
const (
	VeryHighRows = 180
	HighRows     = 60
	MediumRows   = 20
)

// MinRegressionSamples is the minimum price/occupancy pairs required
// before an elasticity estimate is considered trustworthy.
const MinRegressionSamples = 10

// FromSamples maps a usable-row count and the elasticity regression
// sample size to a label. A thin regression downgrades the label one
// step: seasonality may be well supported while elasticity is not.
func FromSamples(usableRows, regressionSamples int) Label {
	label := fromRows(usableRows)
	if regressionSamples < MinRegressionSamples {
		label = Downgrade(label)
	}
	return label
}

func fromRows(rows int) Label {
	switch {
	case rows >= VeryHighRows:
		return VeryHigh
	case rows >= HighRows:
		return High
	case rows >= MediumRows:
		return Medium
	default:
		return Low
	}
}

// Downgrade returns the next label down the ladder.
func Downgrade(l Label) Label {
	switch l {
	case VeryHigh:
		return High
	case High:
		return Medium
	default:
		return Low
	}
}

// Clamp ensures a score is in valid range [0, 1].
func Clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
