package render

import "math"

// RowRenderer receives the values of one output row, one call per column
type RowRenderer interface {
	OutputNull()
	OutputBlob(b []byte)
	OutputString(s string)
	OutputInt(i int64)
	OutputFloat(f float64)
}

// JSON collects rendered rows as plain values ready for encoding/json.
// Blobs stay []byte and are therefore base64 encoded on the wire.
type JSON struct {
	rows [][]any
	cur  []any
}

// NewJSON creates an empty JSON renderer
func NewJSON() *JSON {
	return &JSON{rows: make([][]any, 0)}
}

// BeginRow starts a new output row
func (j *JSON) BeginRow() {
	j.cur = make([]any, 0)
}

// EndRow finishes the current row
func (j *JSON) EndRow() {
	j.rows = append(j.rows, j.cur)
	j.cur = nil
}

// DiscardRow drops a partially rendered row
func (j *JSON) DiscardRow() {
	j.cur = nil
}

// Rows returns all finished rows
func (j *JSON) Rows() [][]any {
	return j.rows
}

func (j *JSON) OutputNull() {
	j.cur = append(j.cur, nil)
}

func (j *JSON) OutputBlob(b []byte) {
	j.cur = append(j.cur, b)
}

func (j *JSON) OutputString(s string) {
	j.cur = append(j.cur, s)
}

func (j *JSON) OutputInt(i int64) {
	j.cur = append(j.cur, i)
}

// OutputFloat renders NaN and infinities as null, JSON has no literal for them
func (j *JSON) OutputFloat(f float64) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		j.cur = append(j.cur, nil)
		return
	}
	j.cur = append(j.cur, f)
}
