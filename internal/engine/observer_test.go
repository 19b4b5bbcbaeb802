package engine

import (
	"testing"

	"github.com/leengari/statusd/internal/table"
)

// MockObserver is a test observer that records events
type MockObserver struct {
	Events []Event
}

func (m *MockObserver) OnEvent(event Event) {
	m.Events = append(m.Events, event)
}

func TestAddObserver(t *testing.T) {
	eng := New(table.NewDatabase())
	observer := &MockObserver{}

	eng.AddObserver(observer)

	if len(eng.observers) != 1 {
		t.Errorf("Expected 1 observer, got %d", len(eng.observers))
	}
}

func TestRemoveObserver(t *testing.T) {
	eng := New(table.NewDatabase())
	observer := &MockObserver{}

	eng.AddObserver(observer)
	eng.RemoveObserver(observer)

	if len(eng.observers) != 0 {
		t.Errorf("Expected 0 observers, got %d", len(eng.observers))
	}
}

func TestNotifyWithNoObservers(t *testing.T) {
	eng := New(table.NewDatabase())

	// Should not panic
	eng.notify(Event{Type: EventQueryStart, QueryID: "test-query"})
}

func TestNotifyWithMultipleObservers(t *testing.T) {
	eng := New(table.NewDatabase())
	observer1 := &MockObserver{}
	observer2 := &MockObserver{}

	eng.AddObserver(observer1)
	eng.AddObserver(observer2)

	eng.notify(Event{Type: EventQueryStart, QueryID: "test-query", Data: "hosts"})

	for i, o := range []*MockObserver{observer1, observer2} {
		if len(o.Events) != 1 {
			t.Fatalf("Observer%d: Expected 1 event, got %d", i+1, len(o.Events))
		}
		if o.Events[0].Type != EventQueryStart {
			t.Errorf("Observer%d: Expected EventQueryStart, got %v", i+1, o.Events[0].Type)
		}
		if o.Events[0].Timestamp.IsZero() {
			t.Errorf("Observer%d: Expected timestamp to be set", i+1)
		}
	}
}
