package feed

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/smacross/market"
)

// LoadTable reads a long-format daily price file:
//
//	time,symbol,open,high,low,close[,volume]
//
// time is 2006-01-02 or RFC3339. A header row ("time,...") is allowed.
// Blank price cells are read as NaN; empty rows are skipped.
func LoadTable(path string) (*market.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := ReadTable(f)
	if err != nil {
		return nil, fmt.Errorf("feed: %s: %w", path, err)
	}
	return t, nil
}

// ReadTable is LoadTable over an arbitrary reader.
func ReadTable(r io.Reader) (*market.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	tb := market.NewTableBuilder()
	sawFirst := false
	line := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}

		// Allow a single header row
		if !sawFirst {
			sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "time") {
				continue
			}
		}

		sym, b, err := parseBarRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if err := tb.Add(sym, b); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	return tb.Build()
}

func parseBarRow(row []string) (string, market.Bar, error) {
	// Need at least: time,symbol,open,high,low,close
	if len(row) < 6 {
		return "", market.Bar{}, fmt.Errorf("want at least 6 fields, got %d", len(row))
	}

	ts, err := parseTime(strings.TrimSpace(row[0]))
	if err != nil {
		return "", market.Bar{}, err
	}

	sym := strings.TrimSpace(row[1])
	if sym == "" {
		return "", market.Bar{}, fmt.Errorf("empty symbol")
	}

	vals := [5]float64{math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()}
	for i := 2; i < len(row) && i < 7; i++ {
		v, err := parseCell(row[i])
		if err != nil {
			return "", market.Bar{}, err
		}
		vals[i-2] = v
	}

	return sym, market.Bar{
		Time:   ts,
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time")
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad time %q: %w", s, err)
	}
	return t.UTC(), nil
}

func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad price %q: %w", s, err)
	}
	return v, nil
}

// LoadUniverse reads one symbol per line. Blank lines and lines starting
// with '#' are ignored, as are repeats of a symbol already listed.
func LoadUniverse(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	seen := make(map[string]struct{})
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("feed: %s: %w", path, err)
	}
	return out, nil
}
