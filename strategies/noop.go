package strategies

import "github.com/rustyeddy/smacross/market"

// Noop never trades. Every segment it is evaluated on has a gain of 1.
type Noop struct{}

func (Noop) Name() string { return "noop" }

func (Noop) Signals(*market.Series) ([]Event, error) { return nil, nil }
