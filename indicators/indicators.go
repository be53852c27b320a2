// Package indicators computes technical indicators over bar series.
package indicators

import (
	"errors"
	"fmt"

	"github.com/rustyeddy/smacross/market"
)

var ErrInvalidWindow = errors.New("invalid window")

// Pair holds a short and a long moving average aligned index-for-index with
// the series they were computed from.
type Pair struct {
	ShortWindow int
	LongWindow  int

	Short []float64
	Long  []float64
}

// Len returns the number of aligned entries.
func (p Pair) Len() int { return len(p.Short) }

// Ready reports whether both averages are defined at i.
func (p Pair) Ready(i int) bool {
	return Defined(p.Short[i]) && Defined(p.Long[i])
}

// ValidateWindows checks 0 < short < long.
func ValidateWindows(short, long int) error {
	if short <= 0 || long <= 0 {
		return fmt.Errorf("indicators: windows must be positive (got %d/%d): %w", short, long, ErrInvalidWindow)
	}
	if short >= long {
		return fmt.Errorf("indicators: require short < long (got %d/%d): %w", short, long, ErrInvalidWindow)
	}
	return nil
}

// Compute returns the short and long SMA of s's closes.
func Compute(s *market.Series, short, long int) (Pair, error) {
	if err := ValidateWindows(short, long); err != nil {
		return Pair{}, err
	}

	closes := s.Closes()
	ss, err := SMA(closes, short)
	if err != nil {
		return Pair{}, err
	}
	ls, err := SMA(closes, long)
	if err != nil {
		return Pair{}, err
	}

	return Pair{
		ShortWindow: short,
		LongWindow:  long,
		Short:       ss,
		Long:        ls,
	}, nil
}
