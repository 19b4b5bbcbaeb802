package parser

import (
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/leengari/statusd/internal/domain/query"
)

var now = time.Unix(1_700_000_000, 0)

func TestParseGet(t *testing.T) {
	input := "GET hosts\n" +
		"Columns: name mk_inventory\n" +
		"Filter: name ~ ^web\n" +
		"Filter: alias = Front end\n" +
		"AuthUser: alice\n" +
		"OutputFormat: json\n" +
		"\n"

	q, err := New(input, now).Parse()
	assert.NilError(t, err)
	assert.Equal(t, q.Table, "hosts")
	assert.DeepEqual(t, q.Columns, []string{"name", "mk_inventory"})
	assert.DeepEqual(t, q.Filters, []query.Condition{
		{Column: "name", Operator: "~", Value: "^web"},
		{Column: "alias", Operator: "=", Value: "Front end"},
	})
	assert.Equal(t, q.AuthUser, "alice")
}

func TestParseStats(t *testing.T) {
	input := "GET services\r\nStats: state = 0\r\nStats: max state\r\nStats: host_name =\r\n"

	q, err := New(input, now).Parse()
	assert.NilError(t, err)
	assert.DeepEqual(t, q.Stats, []query.Stat{
		{Condition: query.Condition{Column: "state", Operator: "=", Value: "0"}},
		{Condition: query.Condition{Column: "state"}, Aggregate: "max"},
		{Condition: query.Condition{Column: "host_name", Operator: "="}},
	})
}

func TestParseLocaltime(t *testing.T) {
	q, err := New("GET status\nLocaltime: 1700003590\n", now).Parse()
	assert.NilError(t, err)
	assert.Equal(t, q.TimezoneOffset, time.Hour)
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"no GET":         "COMMAND [1] RESTART\n",
		"empty table":    "GET \n",
		"bad header":     "GET hosts\nColumns name\n",
		"unknown header": "GET hosts\nLimit: 10\n",
		"short filter":   "GET hosts\nFilter: name\n",
		"bad localtime":  "GET hosts\nLocaltime: soon\n",
		"far future":     "GET hosts\nLocaltime: 9223372036854775807\n",
		"far past":       "GET hosts\nLocaltime: -9223372036854775808\n",
		"a day ahead":    "GET hosts\nLocaltime: 1700086400\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := New(input, now).Parse()
			assert.Assert(t, err != nil)
		})
	}
}

func TestParseLocaltimeBehind(t *testing.T) {
	q, err := New("GET status\nLocaltime: 1699915400\n", now).Parse()
	assert.NilError(t, err)
	assert.Equal(t, q.TimezoneOffset, -23*time.Hour-30*time.Minute)
}

func TestParseStopsAtEmptyLine(t *testing.T) {
	q, err := New("GET hosts\nColumns: name\n\nColumns: alias\n", now).Parse()
	assert.NilError(t, err)
	assert.DeepEqual(t, q.Columns, []string{"name"})
}
