package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/leengari/statusd/internal/aggregation"
	"github.com/leengari/statusd/internal/column"
	"github.com/leengari/statusd/internal/domain/auth"
	"github.com/leengari/statusd/internal/domain/query"
	"github.com/leengari/statusd/internal/filter"
	"github.com/leengari/statusd/internal/logging"
	"github.com/leengari/statusd/internal/render"
	"github.com/leengari/statusd/internal/table"
)

// Result is the outcome of one query
type Result struct {
	QueryID string   `json:"query_id"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Engine executes queries against a table database
type Engine struct {
	db        *table.Database
	observers []Observer // Observers for lifecycle events
	logger    *slog.Logger
}

// New creates a new Engine instance
func New(db *table.Database) *Engine {
	return &Engine{
		db:        db,
		observers: make([]Observer, 0),
		logger:    logging.For("statusd.engine"),
	}
}

// Execute runs req. Unsupported filters or aggregations and path escapes in
// blob columns abort the query; nothing partial is returned.
func (e *Engine) Execute(req *query.Request) (*Result, error) {
	qc := query.NewContext()
	defer qc.Close()

	e.notify(Event{Type: EventQueryStart, QueryID: qc.ID, Data: req.Table})

	t, err := e.db.Table(req.Table)
	if err != nil {
		return nil, e.fail(qc, err)
	}
	user := req.User
	if user == nil {
		user = auth.NoAuth{}
	}

	cols, err := resolveColumns(t, req.Columns)
	if err != nil {
		return nil, e.fail(qc, err)
	}
	rowFilter, err := buildFilters(t, filter.KindRow, req.Filters)
	if err != nil {
		return nil, e.fail(qc, err)
	}
	aggs, err := buildStats(t, req.Stats)
	if err != nil {
		return nil, e.fail(qc, err)
	}
	e.notify(Event{Type: EventPlanEnd, QueryID: qc.ID, Data: len(cols)})

	result := &Result{QueryID: qc.ID}
	r := render.NewJSON()

	if len(aggs) > 0 {
		for row := range t.Rows() {
			if !t.IsAuthorized(row, user) || !rowFilter.Accepts(row, user, req.TimezoneOffset) {
				continue
			}
			for _, agg := range aggs {
				agg.Consume(row, user, req.TimezoneOffset)
			}
		}
		r.BeginRow()
		for i, agg := range aggs {
			agg.Output(r)
			result.Columns = append(result.Columns, fmt.Sprintf("stats_%d", i+1))
		}
		r.EndRow()
	} else {
		for _, c := range cols {
			result.Columns = append(result.Columns, c.Name())
		}
		for row := range t.Rows() {
			if !t.IsAuthorized(row, user) || !rowFilter.Accepts(row, user, req.TimezoneOffset) {
				continue
			}
			r.BeginRow()
			for _, c := range cols {
				if err := c.Output(row, r, user, req.TimezoneOffset); err != nil {
					r.DiscardRow()
					return nil, e.fail(qc, err)
				}
			}
			r.EndRow()
		}
	}

	result.Rows = r.Rows()
	e.notify(Event{Type: EventExecEnd, QueryID: qc.ID, Data: len(result.Rows)})
	e.logger.Debug("query finished",
		slog.String("query_id", qc.ID),
		slog.String("table", req.Table),
		slog.Int("rows", len(result.Rows)),
		slog.Duration("elapsed", qc.Elapsed()),
	)
	return result, nil
}

func (e *Engine) fail(qc *query.Context, err error) error {
	e.notify(Event{Type: EventQueryFailed, QueryID: qc.ID, Data: err.Error()})
	e.logger.Error("query failed", slog.String("query_id", qc.ID), slog.Any("error", err))
	return err
}

func resolveColumns(t *table.Table, names []string) ([]column.Column, error) {
	if len(names) == 0 {
		return t.Columns(), nil
	}
	cols := make([]column.Column, 0, len(names))
	for _, name := range names {
		c, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, nil
}

func buildFilter(t *table.Table, kind filter.Kind, cond query.Condition) (filter.Filter, error) {
	c, err := t.Column(cond.Column)
	if err != nil {
		return nil, err
	}
	op, err := filter.ParseRelationalOperator(cond.Operator)
	if err != nil {
		return nil, err
	}
	return c.CreateFilter(kind, op, cond.Value)
}

func buildFilters(t *table.Table, kind filter.Kind, conds []query.Condition) (filter.And, error) {
	filters := make(filter.And, 0, len(conds))
	for _, cond := range conds {
		f, err := buildFilter(t, kind, cond)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}

func buildStats(t *table.Table, stats []query.Stat) ([]aggregation.Aggregator, error) {
	aggs := make([]aggregation.Aggregator, 0, len(stats))
	for _, s := range stats {
		if s.Aggregate == "" {
			f, err := buildFilter(t, filter.KindStats, s.Condition)
			if err != nil {
				return nil, err
			}
			aggs = append(aggs, aggregation.NewCounting(f))
			continue
		}
		factory, err := aggregation.ParseFactory(s.Aggregate)
		if err != nil {
			return nil, err
		}
		c, err := t.Column(s.Column)
		if err != nil {
			return nil, err
		}
		agg, err := c.CreateAggregator(factory)
		if err != nil {
			return nil, err
		}
		aggs = append(aggs, agg)
	}
	return aggs, nil
}

// AddObserver registers an observer for lifecycle events
func (e *Engine) AddObserver(o Observer) {
	e.observers = append(e.observers, o)
}

// RemoveObserver unregisters an observer
func (e *Engine) RemoveObserver(o Observer) {
	for i, obs := range e.observers {
		if obs == o {
			e.observers = append(e.observers[:i], e.observers[i+1:]...)
			return
		}
	}
}

func (e *Engine) notify(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	for _, o := range e.observers {
		o.OnEvent(event)
	}
}
