package market

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrMissingInstrument = errors.New("missing instrument")
	ErrUnordered         = errors.New("timestamps not strictly increasing")
)

// Series is the ordered bar history of one instrument.
//
// Bars are ascending by Time with no duplicates; NewSeries enforces this and
// builds the timestamp index so lookups never depend on positional joins.
type Series struct {
	Instrument string
	Bars       []Bar

	index map[int64]int
}

// NewSeries validates ordering and indexes bars by timestamp.
func NewSeries(instrument string, bars []Bar) (*Series, error) {
	idx := make(map[int64]int, len(bars))
	for i, b := range bars {
		if i > 0 && !b.Time.After(bars[i-1].Time) {
			return nil, fmt.Errorf("market: %s bar %d at %s: %w",
				instrument, i, b.Time.Format(time.RFC3339), ErrUnordered)
		}
		idx[b.Time.UnixNano()] = i
	}
	return &Series{Instrument: instrument, Bars: bars, index: idx}, nil
}

func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

func (s *Series) At(i int) Bar {
	return s.Bars[i]
}

// Last returns the final bar. ok is false for an empty series.
func (s *Series) Last() (b Bar, ok bool) {
	if s.Len() == 0 {
		return Bar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// IndexOf returns the position of the bar stamped t.
func (s *Series) IndexOf(t time.Time) (int, bool) {
	i, ok := s.index[t.UnixNano()]
	return i, ok
}

// Closes returns the close prices aligned with Bars.
func (s *Series) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Start and End return the first and last timestamps, zero when empty.
func (s *Series) Start() time.Time {
	if s.Len() == 0 {
		return time.Time{}
	}
	return s.Bars[0].Time
}

func (s *Series) End() time.Time {
	b, ok := s.Last()
	if !ok {
		return time.Time{}
	}
	return b.Time
}

// Slice returns bars [i, j) as an independent series. Bars are copied so
// later edits to one partition never show up in another.
func (s *Series) Slice(i, j int) *Series {
	if i < 0 {
		i = 0
	}
	if j > s.Len() {
		j = s.Len()
	}
	if i >= j {
		return &Series{Instrument: s.Instrument, index: map[int64]int{}}
	}

	bars := make([]Bar, j-i)
	copy(bars, s.Bars[i:j])

	idx := make(map[int64]int, len(bars))
	for k, b := range bars {
		idx[b.Time.UnixNano()] = k
	}
	return &Series{Instrument: s.Instrument, Bars: bars, index: idx}
}
