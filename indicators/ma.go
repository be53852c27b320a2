package indicators

import (
	"fmt"
	"math"
)

// SMA returns the simple moving average of values over a trailing window of
// period points, aligned with values. The first period-1 entries are NaN, as
// is any entry whose window contains a NaN.
func SMA(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("indicators: period must be positive, got %d: %w", period, ErrInvalidWindow)
	}

	out := make([]float64, len(values))
	for i := range values {
		if i < period-1 {
			out[i] = math.NaN()
			continue
		}
		sum := 0.0
		for _, v := range values[i-period+1 : i+1] {
			sum += v
		}
		out[i] = sum / float64(period)
	}
	return out, nil
}

// Defined reports whether an indicator value was produced.
func Defined(v float64) bool {
	return !math.IsNaN(v)
}
