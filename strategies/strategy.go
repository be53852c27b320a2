package strategies

import (
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/smacross/market"
)

// Side says whether an event opens or closes the position.
type Side int

const (
	Entry Side = iota
	Exit
)

func (s Side) String() string {
	if s == Entry {
		return "entry"
	}
	return "exit"
}

// Event is a bar on which the long/flat state changes.
type Event struct {
	Index int
	Time  time.Time
	Side  Side
	Bar   market.Bar
}

// Strategy turns one series into alternating Entry/Exit events, starting
// with an Entry.
type Strategy interface {
	Name() string
	Signals(series *market.Series) ([]Event, error)
}

// ByName builds a strategy from its name and moving average windows.
func ByName(name string, short, long int) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sma-cross", "smacross":
		s, err := NewSMACross(short, long)
		if err != nil {
			return nil, err
		}
		return s, nil

	case "noop", "none":
		return Noop{}, nil

	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: sma-cross, noop)", name)
	}
}
