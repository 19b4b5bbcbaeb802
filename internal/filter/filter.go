package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/leengari/statusd/internal/domain/auth"
	"github.com/leengari/statusd/internal/domain/data"
)

// Filter decides whether a row takes part in a query
type Filter interface {
	Accepts(row data.Row, user auth.User, tzOffset time.Duration) bool
	ColumnName() string
}

// StringFilter compares a string valued column against a constant
type StringFilter struct {
	kind   Kind
	column string
	get    func(data.Row) string
	op     RelationalOperator
	value  string
	re     *regexp.Regexp // only for the regex operators
}

// NewStringFilter builds a filter; regex operators compile their pattern here
func NewStringFilter(kind Kind, column string, get func(data.Row) string,
	op RelationalOperator, value string) (*StringFilter, error) {
	f := &StringFilter{kind: kind, column: column, get: get, op: op, value: value}
	switch op {
	case Matches, DoesntMatch, MatchesICase, DoesntMatchICase:
		pattern := value
		if op == MatchesICase || op == DoesntMatchICase {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regular expression '%s' for column '%s': %w", value, column, err)
		}
		f.re = re
	}
	return f, nil
}

func (f *StringFilter) ColumnName() string { return f.column }

func (f *StringFilter) Kind() Kind { return f.kind }

func (f *StringFilter) Accepts(row data.Row, _ auth.User, _ time.Duration) bool {
	s := f.get(row)
	switch f.op {
	case Equal:
		return s == f.value
	case NotEqual:
		return s != f.value
	case Matches, MatchesICase:
		return f.re.MatchString(s)
	case DoesntMatch, DoesntMatchICase:
		return !f.re.MatchString(s)
	case EqualICase:
		return strings.EqualFold(s, f.value)
	case NotEqualICase:
		return !strings.EqualFold(s, f.value)
	case Less:
		return s < f.value
	case GreaterOrEqual:
		return s >= f.value
	case Greater:
		return s > f.value
	case LessOrEqual:
		return s <= f.value
	}
	return false
}

// IntFilter compares an integer valued column against a constant
type IntFilter struct {
	kind   Kind
	column string
	get    func(data.Row) int64
	op     RelationalOperator
	value  int64
}

// NewIntFilter parses value as an integer; regex operators are rejected
func NewIntFilter(kind Kind, column string, get func(data.Row) int64,
	op RelationalOperator, value string) (*IntFilter, error) {
	switch op {
	case Equal, NotEqual, Less, GreaterOrEqual, Greater, LessOrEqual:
	default:
		return nil, fmt.Errorf("invalid operator '%s' for int column '%s'", op, column)
	}
	v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid value '%s' for int column '%s': %w", value, column, err)
	}
	return &IntFilter{kind: kind, column: column, get: get, op: op, value: v}, nil
}

func (f *IntFilter) ColumnName() string { return f.column }

func (f *IntFilter) Kind() Kind { return f.kind }

func (f *IntFilter) Accepts(row data.Row, _ auth.User, _ time.Duration) bool {
	i := f.get(row)
	switch f.op {
	case Equal:
		return i == f.value
	case NotEqual:
		return i != f.value
	case Less:
		return i < f.value
	case GreaterOrEqual:
		return i >= f.value
	case Greater:
		return i > f.value
	case LessOrEqual:
		return i <= f.value
	}
	return false
}

// And accepts a row only if every sub filter does; empty And accepts all rows
type And []Filter

func (a And) ColumnName() string { return "" }

func (a And) Accepts(row data.Row, user auth.User, tzOffset time.Duration) bool {
	for _, f := range a {
		if !f.Accepts(row, user, tzOffset) {
			return false
		}
	}
	return true
}
