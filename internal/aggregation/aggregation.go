package aggregation

import (
	"fmt"
	"math"
	"time"

	"github.com/leengari/statusd/internal/domain/auth"
	"github.com/leengari/statusd/internal/domain/data"
	"github.com/leengari/statusd/internal/filter"
	"github.com/leengari/statusd/internal/render"
)

// Aggregation folds a stream of numbers into one value
type Aggregation interface {
	Update(v float64)
	Value() float64
}

// Factory creates a fresh Aggregation for each stats column of a query
type Factory func() Aggregation

// ParseFactory maps a stats operation name (sum, min, max, avg, std, suminv, avginv)
func ParseFactory(name string) (Factory, error) {
	switch name {
	case "sum":
		return func() Aggregation { return &sum{} }, nil
	case "min":
		return func() Aggregation { return &minimum{} }, nil
	case "max":
		return func() Aggregation { return &maximum{} }, nil
	case "avg":
		return func() Aggregation { return &avg{} }, nil
	case "std":
		return func() Aggregation { return &std{} }, nil
	case "suminv":
		return func() Aggregation { return &sumInv{} }, nil
	case "avginv":
		return func() Aggregation { return &avgInv{} }, nil
	}
	return nil, fmt.Errorf("invalid aggregation '%s'", name)
}

type sum struct{ total float64 }

func (a *sum) Update(v float64) { a.total += v }
func (a *sum) Value() float64   { return a.total }

type minimum struct {
	seen bool
	min  float64
}

func (a *minimum) Update(v float64) {
	if !a.seen || v < a.min {
		a.min = v
		a.seen = true
	}
}

func (a *minimum) Value() float64 { return a.min }

type maximum struct {
	seen bool
	max  float64
}

func (a *maximum) Update(v float64) {
	if !a.seen || v > a.max {
		a.max = v
		a.seen = true
	}
}

func (a *maximum) Value() float64 { return a.max }

type avg struct {
	count int
	total float64
}

func (a *avg) Update(v float64) {
	a.count++
	a.total += v
}

func (a *avg) Value() float64 {
	if a.count == 0 {
		return 0
	}
	return a.total / float64(a.count)
}

type std struct {
	count int
	total float64
	sumSq float64
}

func (a *std) Update(v float64) {
	a.count++
	a.total += v
	a.sumSq += v * v
}

func (a *std) Value() float64 {
	if a.count == 0 {
		return 0
	}
	n := float64(a.count)
	mean := a.total / n
	return math.Sqrt(math.Max(0, a.sumSq/n-mean*mean))
}

// The inverse aggregations skip zero values, which have no inverse.
type sumInv struct{ total float64 }

func (a *sumInv) Update(v float64) {
	if v != 0 {
		a.total += 1 / v
	}
}

func (a *sumInv) Value() float64 { return a.total }

type avgInv struct {
	count int
	total float64
}

func (a *avgInv) Update(v float64) {
	if v == 0 {
		return
	}
	a.count++
	a.total += 1 / v
}

func (a *avgInv) Value() float64 {
	if a.count == 0 {
		return 0
	}
	return a.total / float64(a.count)
}

// Aggregator produces one stats value over all rows of a query
type Aggregator interface {
	Consume(row data.Row, user auth.User, tzOffset time.Duration)
	Output(r render.RowRenderer)
}

// Numeric feeds a column value into an Aggregation
type Numeric struct {
	agg Aggregation
	get func(data.Row) float64
}

// NewNumeric creates an aggregator over the values returned by get
func NewNumeric(factory Factory, get func(data.Row) float64) *Numeric {
	return &Numeric{agg: factory(), get: get}
}

func (n *Numeric) Consume(row data.Row, _ auth.User, _ time.Duration) {
	n.agg.Update(n.get(row))
}

func (n *Numeric) Output(r render.RowRenderer) {
	r.OutputFloat(n.agg.Value())
}

// Counting counts the rows accepted by a stats filter
type Counting struct {
	filter filter.Filter
	count  int64
}

// NewCounting creates a counter for rows accepted by f
func NewCounting(f filter.Filter) *Counting {
	return &Counting{filter: f}
}

func (c *Counting) Consume(row data.Row, user auth.User, tzOffset time.Duration) {
	if c.filter.Accepts(row, user, tzOffset) {
		c.count++
	}
}

func (c *Counting) Output(r render.RowRenderer) {
	r.OutputInt(c.count)
}
