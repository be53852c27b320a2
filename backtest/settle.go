package backtest

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/smacross/market"
	"github.com/rustyeddy/smacross/strategies"
)

var ErrMissingExecutionPrice = errors.New("missing execution price")

// Leg is one completed long position.
//
// Prices are the next bar's open after the signal bar. MarkToMarket is set
// when the exit had no next bar and was priced at the last close instead.
type Leg struct {
	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice float64
	ExitPrice  float64

	MarkToMarket bool
}

func (l Leg) Return() float64 {
	return l.ExitPrice/l.EntryPrice - 1
}

// Settle pairs events into legs: event 0 with 1, 2 with 3, and so on.
//
// A position still open at the end of the series is closed on the last bar
// at its Close, even when that bar carries a NextOpen from beyond the series.
// An exit on the last bar, which has no next open either, is
// priced the same way. An entry with no execution price fails with
// ErrMissingExecutionPrice.
func Settle(series *market.Series, events []strategies.Event) ([]Leg, error) {
	if len(events) == 0 {
		return nil, nil
	}

	synthesized := false
	if len(events)%2 != 0 {
		last, ok := series.Last()
		if !ok {
			return nil, fmt.Errorf("backtest: %s: events on an empty series", series.Instrument)
		}
		// The closing fill is the final Close, never a later segment's open.
		last.NextOpen = last.Close
		events = append(events[:len(events):len(events)], strategies.Event{
			Index: series.Len() - 1,
			Time:  last.Time,
			Side:  strategies.Exit,
			Bar:   last,
		})
		synthesized = true
	}

	legs := make([]Leg, 0, len(events)/2)
	for i := 0; i < len(events); i += 2 {
		entry, exit := events[i], events[i+1]

		if !entry.Bar.HasNextOpen() {
			return nil, fmt.Errorf("backtest: %s entry at %s: %w",
				series.Instrument, entry.Time.Format("2006-01-02"), ErrMissingExecutionPrice)
		}

		leg := Leg{
			EntryTime:  entry.Time,
			ExitTime:   exit.Time,
			EntryPrice: entry.Bar.NextOpen,
			ExitPrice:  exit.Bar.NextOpen,
		}
		if !exit.Bar.HasNextOpen() {
			leg.ExitPrice = exit.Bar.Close
			leg.MarkToMarket = true
		}
		if synthesized && i+2 == len(events) {
			leg.MarkToMarket = true
		}
		if math.IsNaN(leg.ExitPrice) {
			return nil, fmt.Errorf("backtest: %s exit at %s: %w",
				series.Instrument, exit.Time.Format("2006-01-02"), ErrMissingExecutionPrice)
		}

		legs = append(legs, leg)
	}
	return legs, nil
}

// CumulativeGain compounds leg returns. No legs is a gain of 1.
func CumulativeGain(legs []Leg) float64 {
	g := 1.0
	for _, l := range legs {
		g *= 1 + l.Return()
	}
	return g
}
