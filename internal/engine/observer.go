package engine

import "time"

// EventType represents different lifecycle phases of a query
type EventType string

const (
	EventQueryStart  EventType = "query_start"
	EventPlanEnd     EventType = "plan_end"
	EventExecEnd     EventType = "exec_end"
	EventQueryFailed EventType = "query_failed"
)

// Event represents a lifecycle event of one query
type Event struct {
	Type      EventType // Type of event
	QueryID   string    // Query ID for tracing
	Timestamp time.Time // When the event occurred
	Data      any       // Phase-specific data (table name, column count, row count, error)
}

// Observer interface for event subscribers
type Observer interface {
	OnEvent(event Event)
}
