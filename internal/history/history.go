// Package history keeps a bounded, chronologically ordered price history per symbol.
package history

import (
	"sort"

	"github.com/Alias1177/PriceAlerts/models"
)

// DefaultCapacity is the number of points kept per symbol
const DefaultCapacity = 100

// Series is an append-only sequence of price points with FIFO eviction.
// len(Points()) never exceeds the capacity.
type Series struct {
	symbol   string
	capacity int
	points   []models.PricePoint
}

// NewSeries creates an empty series
func NewSeries(symbol string, capacity int) *Series {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Series{
		symbol:   symbol,
		capacity: capacity,
		points:   make([]models.PricePoint, 0, capacity),
	}
}

// Append records a point, discarding the oldest ones once the series is full
func (s *Series) Append(p models.PricePoint) {
	if len(s.points) == s.capacity {
		copy(s.points, s.points[1:])
		s.points = s.points[:len(s.points)-1]
	}
	s.points = append(s.points, p)
}

// Len returns the number of points held
func (s *Series) Len() int {
	return len(s.points)
}

// Symbol returns the series symbol
func (s *Series) Symbol() string {
	return s.symbol
}

// Points returns a copy of the points, oldest first
func (s *Series) Points() []models.PricePoint {
	out := make([]models.PricePoint, len(s.points))
	copy(out, s.points)
	return out
}

// Prices returns the closing prices, oldest first
func (s *Series) Prices() []float64 {
	out := make([]float64, len(s.points))
	for i, p := range s.points {
		out[i] = p.Price
	}
	return out
}

// Latest returns the newest point
func (s *Series) Latest() (models.PricePoint, bool) {
	if len(s.points) == 0 {
		return models.PricePoint{}, false
	}
	return s.points[len(s.points)-1], true
}

// Book holds one Series per symbol
type Book struct {
	capacity int
	series   map[string]*Series
}

// NewBook creates an empty book whose series share the same capacity
func NewBook(capacity int) *Book {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Book{
		capacity: capacity,
		series:   make(map[string]*Series),
	}
}

// Append adds p to the series of p.Symbol, creating it when needed
func (b *Book) Append(p models.PricePoint) *Series {
	s, ok := b.series[p.Symbol]
	if !ok {
		s = NewSeries(p.Symbol, b.capacity)
		b.series[p.Symbol] = s
	}
	s.Append(p)
	return s
}

// Series returns the series for symbol
func (b *Book) Series(symbol string) (*Series, bool) {
	s, ok := b.series[symbol]
	if !ok || s.Len() == 0 {
		return nil, false
	}
	return s, true
}

// Symbols returns the tracked symbols in sorted order
func (b *Book) Symbols() []string {
	out := make([]string, 0, len(b.series))
	for sym := range b.series {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Snapshot exports the book as a plain map, the record persisted under historical_data
func (b *Book) Snapshot() map[string][]models.PricePoint {
	out := make(map[string][]models.PricePoint, len(b.series))
	for sym, s := range b.series {
		out[sym] = s.Points()
	}
	return out
}

// Restore replaces the book content with a snapshot. Series longer than the
// capacity keep only their newest points.
func (b *Book) Restore(snapshot map[string][]models.PricePoint) {
	b.series = make(map[string]*Series, len(snapshot))
	for sym, points := range snapshot {
		s := NewSeries(sym, b.capacity)
		for _, p := range points {
			if p.Symbol == "" {
				p.Symbol = sym
			}
			s.Append(p)
		}
		b.series[sym] = s
	}
}
