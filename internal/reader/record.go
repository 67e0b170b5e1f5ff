package reader

// Value is one cell of a record. Valid is false for the no-value
// state: a cell empty after trimming, a blank line, or a row too short
// to reach the field's column.
type Value struct {
	String string
	Valid  bool
}

// Record maps field names to the cells of one data row. Every mapped
// field name is present, so a short row shows up as invalid Values
// rather than missing keys. A record is only good until the next
// advance; callers copy what they need to keep.
type Record map[string]Value

// Get returns the value for name and whether the cell carried one.
func (r Record) Get(name string) (string, bool) {
	v, ok := r[name]
	if !ok || !v.Valid {
		return "", false
	}
	return v.String, true
}
