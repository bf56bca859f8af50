// Package forecast implements ordinary least-squares extrapolation over scalar
// time series. It is used for inflation projections but is not specific to them.
package forecast

import (
	"fmt"

	"github.com/shadatr/costsense-backend/internal/common"
)

// MinPoints is the minimum series length for a regression: with one point the
// slope denominator is zero.
const MinPoints = 2

// HistoryWindow is how many trailing points callers conventionally feed in.
const HistoryWindow = 6

// Linear fits y = intercept + slope*x over the series, with x = 0..n-1.
func Linear(series []float64) (slope, intercept float64, err error) {
	n := len(series)
	if n < MinPoints {
		return 0, 0, fmt.Errorf("%w: need at least %d points, got %d", common.ErrInsufficientData, MinPoints, n)
	}

	var sumX, sumY, sumXY, sumX2 float64
	for i, y := range series {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}

	fn := float64(n)
	slope = (fn*sumXY - sumX*sumY) / (fn*sumX2 - sumX*sumX)
	intercept = (sumY - slope*sumX) / fn
	return slope, intercept, nil
}

// Next predicts the value one step past the series. Negative predictions are
// clamped to zero; nothing else is clamped.
func Next(series []float64) (float64, error) {
	slope, intercept, err := Linear(series)
	if err != nil {
		return 0, err
	}
	predicted := intercept + slope*float64(len(series))
	if predicted < 0 {
		return 0, nil
	}
	return predicted, nil
}

// Project predicts steps future values iteratively: each prediction is
// appended to the series before the next one is fitted, so later steps build
// on earlier predictions and error compounds forward. That compounding is the
// intended behavior, not an approximation of a closed-form projection.
func Project(series []float64, steps int) ([]float64, error) {
	if steps < 1 {
		return nil, common.Invalidf("steps must be positive, got %d", steps)
	}
	if len(series) < MinPoints {
		return nil, fmt.Errorf("%w: need at least %d points, got %d", common.ErrInsufficientData, MinPoints, len(series))
	}

	working := make([]float64, len(series), len(series)+steps)
	copy(working, series)

	predictions := make([]float64, 0, steps)
	for i := 0; i < steps; i++ {
		next, err := Next(working)
		if err != nil {
			return nil, err
		}
		predictions = append(predictions, next)
		working = append(working, next)
	}
	return predictions, nil
}
