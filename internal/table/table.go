package table

import (
	"iter"
	"sort"
	"sync"

	"github.com/leengari/statusd/internal/column"
	"github.com/leengari/statusd/internal/domain/auth"
	"github.com/leengari/statusd/internal/domain/data"
	"github.com/leengari/statusd/internal/domain/errors"
)

// Table is a named set of columns over a live row source
type Table struct {
	mu        sync.RWMutex
	Name      string
	columns   []column.Column
	byName    map[string]column.Column
	rows      iter.Seq[data.Row]
	authorize func(data.Row, auth.User) bool
}

// New creates a table; rows is iterated once per query
func New(name string, rows iter.Seq[data.Row]) *Table {
	return &Table{
		Name:   name,
		byName: make(map[string]column.Column),
		rows:   rows,
	}
}

// WithAuthorization restricts rows to those the predicate allows for a user
func (t *Table) WithAuthorization(authorize func(data.Row, auth.User) bool) *Table {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.authorize = authorize
	return t
}

// AddColumn registers a column; names are unique per table
func (t *Table) AddColumn(c column.Column) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.byName[c.Name()]; exists {
		return &errors.DuplicateColumnError{TableName: t.Name, ColumnName: c.Name()}
	}
	t.columns = append(t.columns, c)
	t.byName[c.Name()] = c
	return nil
}

// Column looks up a column by name
func (t *Table) Column(name string) (column.Column, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	c, ok := t.byName[name]
	if !ok {
		return nil, &errors.ColumnNotFoundError{TableName: t.Name, ColumnName: name}
	}
	return c, nil
}

// Columns returns all columns in registration order
func (t *Table) Columns() []column.Column {
	t.mu.RLock()
	defer t.mu.RUnlock()

	cols := make([]column.Column, len(t.columns))
	copy(cols, t.columns)
	return cols
}

// Rows returns the row source
func (t *Table) Rows() iter.Seq[data.Row] {
	return t.rows
}

// IsAuthorized reports whether user may see row
func (t *Table) IsAuthorized(row data.Row, user auth.User) bool {
	t.mu.RLock()
	authorize := t.authorize
	t.mu.RUnlock()

	if authorize == nil {
		return true
	}
	return authorize(row, user)
}

// Database is the registry of all tables served
type Database struct {
	mu     sync.RWMutex
	tables map[string]*Table
}

func NewDatabase() *Database {
	return &Database{tables: make(map[string]*Table)}
}

// Register adds or replaces a table
func (db *Database) Register(t *Table) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.tables[t.Name] = t
}

// Table looks up a table by name
func (db *Database) Table(name string) (*Table, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	t, ok := db.tables[name]
	if !ok {
		return nil, &errors.TableNotFoundError{TableName: name}
	}
	return t, nil
}

// Names returns the sorted table names
func (db *Database) Names() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()

	names := make([]string, 0, len(db.tables))
	for name := range db.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
