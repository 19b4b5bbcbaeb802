package column

import (
	"time"

	"github.com/leengari/statusd/internal/aggregation"
	"github.com/leengari/statusd/internal/domain/auth"
	"github.com/leengari/statusd/internal/domain/data"
	"github.com/leengari/statusd/internal/filter"
	"github.com/leengari/statusd/internal/render"
)

// Type tags the kind of values a column produces
type Type int

const (
	TypeInt Type = iota
	TypeDouble
	TypeString
	TypeList
	TypeDict
	TypeTime
	TypeBlob
	TypeNull
)

func (t Type) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeDouble:
		return "float"
	case TypeString:
		return "string"
	case TypeList:
		return "list"
	case TypeDict:
		return "dict"
	case TypeTime:
		return "time"
	case TypeBlob:
		return "blob"
	default:
		return "null"
	}
}

// Column is the query engine's view of one named field of a table
type Column interface {
	Name() string
	Description() string
	Type() Type
	// Output renders the value for row. Only hard failures are returned.
	Output(row data.Row, r render.RowRenderer, user auth.User, tzOffset time.Duration) error
	CreateFilter(kind filter.Kind, op filter.RelationalOperator, value string) (filter.Filter, error)
	CreateAggregator(factory aggregation.Factory) (aggregation.Aggregator, error)
}

// Offsets is the rule turning a row handle into the record a column reads.
// Each step follows one pointer, e.g. from a service to its host.
type Offsets struct {
	steps []func(any) any
}

// Add returns new offsets with one more step; the receiver is not modified
func (o Offsets) Add(step func(any) any) Offsets {
	steps := make([]func(any) any, len(o.steps), len(o.steps)+1)
	copy(steps, o.steps)
	return Offsets{steps: append(steps, step)}
}

// Resolve follows the offsets from row and returns the record as *T.
// It returns nil for a null row, a step yielding nil, or a record of another type.
func Resolve[T any](row data.Row, o Offsets) *T {
	p := row.Record()
	for _, step := range o.steps {
		if p == nil {
			return nil
		}
		p = step(p)
	}
	t, ok := p.(*T)
	if !ok {
		return nil
	}
	return t
}

type base struct {
	name        string
	description string
	offsets     Offsets
}

func (b base) Name() string        { return b.name }
func (b base) Description() string { return b.description }
