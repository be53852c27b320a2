package market

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Table is a wide multi-instrument price table: one shared ascending
// timestamp index and one column per (Field, symbol). Missing values are NaN.
type Table struct {
	index []time.Time
	cols  map[Field]map[string][]float64
}

// NewTable creates an empty table over index, which must be strictly
// ascending.
func NewTable(index []time.Time) (*Table, error) {
	for i := 1; i < len(index); i++ {
		if !index[i].After(index[i-1]) {
			return nil, fmt.Errorf("market: table index row %d: %w", i, ErrUnordered)
		}
	}
	return &Table{
		index: index,
		cols:  make(map[Field]map[string][]float64),
	}, nil
}

// Set stores one column. values must be aligned with the table index.
func (t *Table) Set(field Field, symbol string, values []float64) error {
	if len(values) != len(t.index) {
		return fmt.Errorf("market: column %s/%s has %d rows, index has %d",
			field, symbol, len(values), len(t.index))
	}
	bySym, ok := t.cols[field]
	if !ok {
		bySym = make(map[string][]float64)
		t.cols[field] = bySym
	}
	bySym[symbol] = values
	return nil
}

func (t *Table) Len() int { return len(t.index) }

func (t *Table) Index() []time.Time { return t.index }

// Column returns the values stored for (field, symbol).
func (t *Table) Column(field Field, symbol string) ([]float64, bool) {
	v, ok := t.cols[field][symbol]
	return v, ok
}

// Has reports whether any column is keyed by symbol.
func (t *Table) Has(symbol string) bool {
	for _, bySym := range t.cols {
		if _, ok := bySym[symbol]; ok {
			return true
		}
	}
	return false
}

// Symbols returns every symbol present in the table, sorted.
func (t *Table) Symbols() []string {
	seen := make(map[string]struct{})
	for _, bySym := range t.cols {
		for sym := range bySym {
			seen[sym] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for sym := range seen {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Since returns the rows stamped at or after start. A zero start returns t.
func (t *Table) Since(start time.Time) *Table {
	if start.IsZero() {
		return t
	}
	from := sort.Search(len(t.index), func(i int) bool {
		return !t.index[i].Before(start)
	})

	out := &Table{
		index: t.index[from:],
		cols:  make(map[Field]map[string][]float64, len(t.cols)),
	}
	for f, bySym := range t.cols {
		m := make(map[string][]float64, len(bySym))
		for sym, v := range bySym {
			m[sym] = v[from:]
		}
		out.cols[f] = m
	}
	return out
}

// TableBuilder accumulates per-symbol bars in any order and aligns them on
// the union of their timestamps.
type TableBuilder struct {
	rows map[string]map[int64]Bar
}

func NewTableBuilder() *TableBuilder {
	return &TableBuilder{rows: make(map[string]map[int64]Bar)}
}

// Add records b for symbol. A second bar for the same symbol and timestamp is
// rejected.
func (tb *TableBuilder) Add(symbol string, b Bar) error {
	bySym, ok := tb.rows[symbol]
	if !ok {
		bySym = make(map[int64]Bar)
		tb.rows[symbol] = bySym
	}
	key := b.Time.UnixNano()
	if _, dup := bySym[key]; dup {
		return fmt.Errorf("market: duplicate bar %s at %s", symbol, b.Time.Format(time.RFC3339))
	}
	bySym[key] = b
	return nil
}

func (tb *TableBuilder) Build() (*Table, error) {
	stamps := make(map[int64]time.Time)
	for _, bySym := range tb.rows {
		for k, b := range bySym {
			stamps[k] = b.Time
		}
	}
	keys := make([]int64, 0, len(stamps))
	for k := range stamps {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	index := make([]time.Time, len(keys))
	pos := make(map[int64]int, len(keys))
	for i, k := range keys {
		index[i] = stamps[k]
		pos[k] = i
	}

	t, err := NewTable(index)
	if err != nil {
		return nil, err
	}
	for sym, bySym := range tb.rows {
		for _, f := range Fields {
			col := nanColumn(len(index))
			for k, b := range bySym {
				col[pos[k]] = b.get(f)
			}
			if err := t.Set(f, sym, col); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}

func nanColumn(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
