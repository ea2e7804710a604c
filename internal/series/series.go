package series

import (
	"math"
	"sort"
	"strconv"
	"time"
)

// dateLayout is the day-precision key format used by the provider
const dateLayout = "2006-01-02"

// Point is a single trading day's closing price
type Point struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// RawPayload is the daily time-series response from the data provider,
// reduced to the fields the game engine inspects.
// ⭐ SSOT: 프로바이더 응답 해석은 이 타입을 통해서만
type RawPayload struct {
	ErrorMessage string            `json:"error_message,omitempty"` // unknown ticker signal
	Note         string            `json:"note,omitempty"`          // throttle signal
	HasMeta      bool              `json:"has_meta"`
	TimeZone     string            `json:"time_zone,omitempty"`
	Rows         map[string]RawRow `json:"rows,omitempty"` // date key → row
}

// RawRow is a single provider row; only the close value matters here
type RawRow struct {
	Close string `json:"close"`
}

// Series is a validated, date-ordered closing price series for one symbol.
// Immutable after construction; a reload replaces the whole value.
type Series struct {
	symbol string
	points []Point
	index  map[string]int // date key → position in points
}

// Build validates and normalizes a raw provider payload into a Series.
//
// Provider-level failure signals map to DataError kinds; rows whose close
// value does not parse to a finite number are dropped, not rejected. An
// empty series is valid and left to the caller.
func Build(symbol string, payload *RawPayload) (*Series, error) {
	if payload == nil {
		return nil, &DataError{Kind: DataMalformed, Symbol: symbol, Message: "empty payload"}
	}
	if payload.ErrorMessage != "" {
		return nil, &DataError{Kind: DataNotFound, Symbol: symbol, Message: payload.ErrorMessage}
	}
	if payload.Note != "" {
		return nil, &DataError{Kind: DataRateLimited, Symbol: symbol, Message: payload.Note}
	}
	if !payload.HasMeta && payload.Rows == nil {
		return nil, &DataError{Kind: DataMalformed, Symbol: symbol, Message: "no metadata or time series in payload"}
	}

	points := make([]Point, 0, len(payload.Rows))
	for dateStr, row := range payload.Rows {
		date, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			continue
		}

		closePrice, err := strconv.ParseFloat(row.Close, 64)
		if err != nil || math.IsNaN(closePrice) || math.IsInf(closePrice, 0) {
			// Sparse or corrupt provider rows are dropped silently
			continue
		}

		points = append(points, Point{Date: date.UTC(), Close: closePrice})
	}

	return New(symbol, points), nil
}

// New builds a Series from already-extracted points. Points are sorted
// ascending by date; on duplicate dates the later value wins.
func New(symbol string, points []Point) *Series {
	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	deduped := sorted[:0]
	for _, p := range sorted {
		if n := len(deduped); n > 0 && deduped[n-1].Date.Equal(p.Date) {
			deduped[n-1] = p
			continue
		}
		deduped = append(deduped, p)
	}

	index := make(map[string]int, len(deduped))
	for i, p := range deduped {
		index[p.Date.Format(dateLayout)] = i
	}

	return &Series{
		symbol: symbol,
		points: deduped,
		index:  index,
	}
}

// Symbol returns the ticker symbol this series was loaded for
func (s *Series) Symbol() string {
	return s.symbol
}

// Len returns the number of trading days in the series
func (s *Series) Len() int {
	return len(s.points)
}

// At returns the point at position i
func (s *Series) At(i int) Point {
	return s.points[i]
}

// IndexOf returns the position of a trading date, if present
func (s *Series) IndexOf(date time.Time) (int, bool) {
	i, ok := s.index[date.UTC().Format(dateLayout)]
	return i, ok
}

// Window returns a copy of points[from, to] inclusive, clamped to bounds.
// The copy keeps callers from aliasing the immutable backing slice.
func (s *Series) Window(from, to int) []Point {
	if from < 0 {
		from = 0
	}
	if to >= len(s.points) {
		to = len(s.points) - 1
	}
	if from > to {
		return []Point{}
	}

	window := make([]Point, to-from+1)
	copy(window, s.points[from:to+1])
	return window
}

// PositionsBetween returns positions of all trading dates within the
// inclusive calendar range [from, to], in ascending order.
func (s *Series) PositionsBetween(from, to time.Time) []int {
	var positions []int
	for i, p := range s.points {
		if p.Date.Before(from) || p.Date.After(to) {
			continue
		}
		positions = append(positions, i)
	}
	return positions
}
