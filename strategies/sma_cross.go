package strategies

import (
	"github.com/rustyeddy/smacross/indicators"
	"github.com/rustyeddy/smacross/market"
)

// SMACross is a long-only rule: hold while the short SMA of closes is above
// the long SMA, stay flat otherwise.
type SMACross struct {
	ShortWindow int
	LongWindow  int
}

func NewSMACross(short, long int) (*SMACross, error) {
	if err := indicators.ValidateWindows(short, long); err != nil {
		return nil, err
	}
	return &SMACross{ShortWindow: short, LongWindow: long}, nil
}

func (s *SMACross) Name() string { return "sma-cross" }

// Signals computes both averages over series and returns its trade events.
func (s *SMACross) Signals(series *market.Series) ([]Event, error) {
	p, err := indicators.Compute(series, s.ShortWindow, s.LongWindow)
	if err != nil {
		return nil, err
	}
	return Events(series, p), nil
}

// IsLong derives the position state at every step. Steps where either
// average is undefined are flat.
func IsLong(p indicators.Pair) []bool {
	out := make([]bool, p.Len())
	for i := range out {
		out[i] = p.Ready(i) && p.Short[i] > p.Long[i]
	}
	return out
}

// Events turns the position state into state-change events in bar order.
//
// The first long step is always an entry even though no defined state
// precedes it. After that, every change of state is an event, so sides
// alternate starting with an entry.
func Events(series *market.Series, p indicators.Pair) []Event {
	long := IsLong(p)

	first := -1
	for i, l := range long {
		if l {
			first = i
			break
		}
	}
	if first < 0 {
		return nil
	}

	var events []Event
	add := func(i int) {
		side := Entry
		if !long[i] {
			side = Exit
		}
		b := series.At(i)
		events = append(events, Event{Index: i, Time: b.Time, Side: side, Bar: b})
	}

	add(first)
	for i := first + 1; i < len(long); i++ {
		if long[i] != long[i-1] {
			add(i)
		}
	}
	return events
}
