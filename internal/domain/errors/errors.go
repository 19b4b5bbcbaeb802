package errors

import (
	stderrors "errors"
	"fmt"
)

// Sentinels for errors.Is checks across package boundaries
var (
	ErrUnsupported       = stderrors.New("unsupported operation")
	ErrSecurityViolation = stderrors.New("security violation")
	ErrNotFound          = stderrors.New("not found")
)

// UnsupportedOperationError is returned when a column is asked for an
// operation its kind cannot perform (e.g. filtering on a blob column)
type UnsupportedOperationError struct {
	Column    string // column name
	Kind      string // column kind, e.g. "blob"
	Operation string // "filtering", "aggregating", ...
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("%s on %s column '%s' not supported", e.Operation, e.Kind, e.Column)
}

func (e *UnsupportedOperationError) Unwrap() error {
	return ErrUnsupported
}

// PathEscapeError reports a resolved path outside of its base directory.
// It must always reach the caller, it is never turned into an empty result.
type PathEscapeError struct {
	Path string // resolved target path
	Base string // configured base directory
}

func (e *PathEscapeError) Error() string {
	return fmt.Sprintf("invalid arguments: '%s' not in '%s'", e.Path, e.Base)
}

func (e *PathEscapeError) Unwrap() error {
	return ErrSecurityViolation
}

// ColumnNotFoundError is returned when a query references an unknown column
type ColumnNotFoundError struct {
	TableName  string
	ColumnName string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("table '%s' has no column '%s'", e.TableName, e.ColumnName)
}

func (e *ColumnNotFoundError) Unwrap() error {
	return ErrNotFound
}

// TableNotFoundError is returned when a query references an unknown table
type TableNotFoundError struct {
	TableName string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("invalid GET request, no such table '%s'", e.TableName)
}

func (e *TableNotFoundError) Unwrap() error {
	return ErrNotFound
}

// DuplicateColumnError is returned when a column name is registered twice
type DuplicateColumnError struct {
	TableName  string
	ColumnName string
}

func (e *DuplicateColumnError) Error() string {
	return fmt.Sprintf("duplicate column '%s' in table '%s'", e.ColumnName, e.TableName)
}

// NewUnsupportedFilter reports a filter request on a column kind without one
func NewUnsupportedFilter(kind, column string) *UnsupportedOperationError {
	return &UnsupportedOperationError{Column: column, Kind: kind, Operation: "filtering"}
}

// NewUnsupportedAggregation reports an aggregation request on a column kind without one
func NewUnsupportedAggregation(kind, column string) *UnsupportedOperationError {
	return &UnsupportedOperationError{Column: column, Kind: kind, Operation: "aggregating"}
}
