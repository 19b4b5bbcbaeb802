package query

import (
	"time"

	"github.com/google/uuid"

	"github.com/leengari/statusd/internal/domain/auth"
)

// Condition is one "column op value" term
type Condition struct {
	Column   string `json:"column"`
	Operator string `json:"op"`
	Value    string `json:"value"`
}

// Stat is one stats column: either a counting Condition, or an
// aggregation (sum, min, ...) over Column when Aggregate is set
type Stat struct {
	Condition
	Aggregate string `json:"aggregate,omitempty"`
}

// Request is a parsed GET query
type Request struct {
	Table          string        // table to read
	Columns        []string      // output columns, all if empty
	Filters        []Condition   // row filters, combined with AND
	Stats          []Stat        // stats columns; switches to one stats row
	User           auth.User     // nil means no authorization
	TimezoneOffset time.Duration // client timezone offset
}

// Context tracks one running query for logging and lifecycle events
type Context struct {
	ID        string    // Unique query identifier (UUID)
	Active    bool      // Whether the query is still running
	StartTime time.Time // When the query began
}

// NewContext creates a context with a fresh ID
func NewContext() *Context {
	return &Context{
		ID:        uuid.New().String(),
		Active:    true,
		StartTime: time.Now(),
	}
}

// Close marks the query as finished
func (c *Context) Close() {
	c.Active = false
}

// Elapsed returns the time since the query started
func (c *Context) Elapsed() time.Duration {
	return time.Since(c.StartTime)
}
