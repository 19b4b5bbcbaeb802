package column

import (
	"time"

	"github.com/leengari/statusd/internal/aggregation"
	"github.com/leengari/statusd/internal/domain/auth"
	"github.com/leengari/statusd/internal/domain/data"
	domainerrors "github.com/leengari/statusd/internal/domain/errors"
	"github.com/leengari/statusd/internal/filter"
	"github.com/leengari/statusd/internal/render"
)

// String is a string valued column; a missing record reads as ""
type String[T any] struct {
	base
	f func(*T) string
}

func NewString[T any](name, description string, offsets Offsets, f func(*T) string) *String[T] {
	return &String[T]{base: base{name: name, description: description, offsets: offsets}, f: f}
}

func (c *String[T]) Type() Type { return TypeString }

func (c *String[T]) Output(row data.Row, r render.RowRenderer, _ auth.User, _ time.Duration) error {
	r.OutputString(c.GetValue(row))
	return nil
}

func (c *String[T]) CreateFilter(kind filter.Kind, op filter.RelationalOperator, value string) (filter.Filter, error) {
	f, err := filter.NewStringFilter(kind, c.Name(), c.GetValue, op, value)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (c *String[T]) CreateAggregator(aggregation.Factory) (aggregation.Aggregator, error) {
	return nil, domainerrors.NewUnsupportedAggregation("string", c.Name())
}

func (c *String[T]) GetValue(row data.Row) string {
	rec := Resolve[T](row, c.offsets)
	if rec == nil {
		return ""
	}
	return c.f(rec)
}

// Int is an integer column; a missing record reads as 0
type Int[T any] struct {
	base
	f func(*T) int64
}

func NewInt[T any](name, description string, offsets Offsets, f func(*T) int64) *Int[T] {
	return &Int[T]{base: base{name: name, description: description, offsets: offsets}, f: f}
}

func (c *Int[T]) Type() Type { return TypeInt }

func (c *Int[T]) Output(row data.Row, r render.RowRenderer, _ auth.User, _ time.Duration) error {
	r.OutputInt(c.GetValue(row))
	return nil
}

func (c *Int[T]) CreateFilter(kind filter.Kind, op filter.RelationalOperator, value string) (filter.Filter, error) {
	f, err := filter.NewIntFilter(kind, c.Name(), c.GetValue, op, value)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (c *Int[T]) CreateAggregator(factory aggregation.Factory) (aggregation.Aggregator, error) {
	return aggregation.NewNumeric(factory, func(row data.Row) float64 {
		return float64(c.GetValue(row))
	}), nil
}

func (c *Int[T]) GetValue(row data.Row) int64 {
	rec := Resolve[T](row, c.offsets)
	if rec == nil {
		return 0
	}
	return c.f(rec)
}
