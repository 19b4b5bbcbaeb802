package filter

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/leengari/statusd/internal/domain/auth"
	"github.com/leengari/statusd/internal/domain/data"
)

func stringOf(row data.Row) string { return row.Record().(string) }

func intOf(row data.Row) int64 { return row.Record().(int64) }

func TestParseRelationalOperator(t *testing.T) {
	for _, s := range []string{"=", "!=", "~", "!~", "=~", "!=~", "~~", "!~~", "<", ">=", ">", "<="} {
		op, err := ParseRelationalOperator(s)
		assert.NilError(t, err)
		assert.Equal(t, op.String(), s)
		assert.Equal(t, op.Negate().Negate(), op)
	}

	_, err := ParseRelationalOperator("==")
	assert.ErrorContains(t, err, "invalid relational operator '=='")
}

func TestStringFilter(t *testing.T) {
	tests := []struct {
		op    RelationalOperator
		value string
		input string
		want  bool
	}{
		{Equal, "web01", "web01", true},
		{NotEqual, "web01", "web01", false},
		{Matches, "^web", "web01", true},
		{DoesntMatch, "^web", "db01", true},
		{EqualICase, "WEB01", "web01", true},
		{NotEqualICase, "WEB01", "web01", false},
		{MatchesICase, "^WEB", "web01", true},
		{DoesntMatchICase, "^WEB", "web01", false},
		{Less, "b", "a", true},
		{GreaterOrEqual, "b", "b", true},
		{Greater, "b", "a", false},
		{LessOrEqual, "b", "c", false},
	}

	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			f, err := NewStringFilter(KindRow, "name", stringOf, tt.op, tt.value)
			assert.NilError(t, err)
			assert.Equal(t, f.ColumnName(), "name")
			assert.Equal(t, f.Accepts(data.NewRow(tt.input), auth.NoAuth{}, 0), tt.want)
		})
	}
}

func TestStringFilterInvalidRegex(t *testing.T) {
	_, err := NewStringFilter(KindRow, "name", stringOf, Matches, "(")
	assert.ErrorContains(t, err, "invalid regular expression")
}

func TestIntFilter(t *testing.T) {
	f, err := NewIntFilter(KindStats, "state", intOf, LessOrEqual, " 1 ")
	assert.NilError(t, err)
	assert.Equal(t, f.Kind(), KindStats)
	assert.Check(t, f.Accepts(data.NewRow(int64(1)), auth.NoAuth{}, 0))
	assert.Check(t, !f.Accepts(data.NewRow(int64(2)), auth.NoAuth{}, 0))

	_, err = NewIntFilter(KindRow, "state", intOf, Matches, "1")
	assert.ErrorContains(t, err, "invalid operator '~' for int column 'state'")

	_, err = NewIntFilter(KindRow, "state", intOf, Equal, "one")
	assert.ErrorContains(t, err, "invalid value 'one'")
}

func TestAnd(t *testing.T) {
	low, err := NewIntFilter(KindRow, "state", intOf, Greater, "0")
	assert.NilError(t, err)
	high, err := NewIntFilter(KindRow, "state", intOf, Less, "3")
	assert.NilError(t, err)

	and := And{low, high}
	assert.Check(t, and.Accepts(data.NewRow(int64(2)), auth.NoAuth{}, 0))
	assert.Check(t, !and.Accepts(data.NewRow(int64(3)), auth.NoAuth{}, 0))
	assert.Check(t, And{}.Accepts(data.NewRow(int64(3)), auth.NoAuth{}, 0))
}
