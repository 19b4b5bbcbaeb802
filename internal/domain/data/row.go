package data

// Row is an opaque handle to one engine-owned record.
// It is only valid for the duration of a single query; columns borrow
// the record behind it and never keep it.
type Row struct {
	rec any
}

// NewRow creates a handle for the given record (usually a pointer)
func NewRow(rec any) Row {
	return Row{rec: rec}
}

// Record returns the record behind the handle, nil for a null row
func (r Row) Record() any {
	return r.rec
}

// IsNull reports whether the handle refers to no record
func (r Row) IsNull() bool {
	return r.rec == nil
}
