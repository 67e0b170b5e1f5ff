package fields

import (
	"fmt"
	"strings"
)

// Options configure how a header row becomes a field map.
type Options struct {
	// Normalizer rewrites each trimmed header name. Returning an empty
	// name violates its contract and fails the build.
	Normalizer func(string) string
	// Aliases renames headers to canonical field names. Keys match
	// case-insensitively.
	Aliases map[string]string
	// Include keeps only the named fields, and requires every one of
	// them to resolve.
	Include []string
}

// DuplicateFieldError reports two header columns resolving to the same
// final field name.
type DuplicateFieldError struct {
	Name string
}

func (e *DuplicateFieldError) Error() string {
	return fmt.Sprintf("duplicate field name %q", e.Name)
}

// MissingFieldsError reports required fields absent from the header,
// all of them at once.
type MissingFieldsError struct {
	Names []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Names, ", "))
}

// NormalizerError reports a normalizer returning an empty name.
type NormalizerError struct {
	Column int
	Input  string
}

func (e *NormalizerError) Error() string {
	return fmt.Sprintf("normalizer returned empty name for column %d (%q)", e.Column, e.Input)
}

// Map is an immutable ordered mapping of field names to column
// indexes, built once from the header row.
type Map struct {
	names []string
	index map[string]int
}

// Build processes the decoded header row: trim, drop empties, apply
// the normalizer and aliases, filter to the include set, and reject
// duplicate final names. With an include set, every required name must
// have resolved.
func Build(row []string, opts Options) (*Map, error) {
	aliases := make(map[string]string, len(opts.Aliases))
	for k, v := range opts.Aliases {
		aliases[strings.ToLower(strings.TrimSpace(k))] = v
	}
	include := make(map[string]bool, len(opts.Include))
	for _, name := range opts.Include {
		include[name] = true
	}

	m := &Map{index: make(map[string]int, len(row))}
	for col, raw := range row {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if opts.Normalizer != nil {
			name = strings.TrimSpace(opts.Normalizer(name))
			if name == "" {
				return nil, &NormalizerError{Column: col, Input: raw}
			}
		}
		if canon, ok := aliases[strings.ToLower(name)]; ok {
			name = canon
		}
		if len(include) > 0 && !include[name] {
			continue
		}
		if _, dup := m.index[name]; dup {
			return nil, &DuplicateFieldError{Name: name}
		}
		m.index[name] = col
		m.names = append(m.names, name)
	}

	if len(opts.Include) > 0 {
		var missing []string
		for _, want := range opts.Include {
			if _, ok := m.index[want]; !ok {
				missing = append(missing, want)
			}
		}
		if len(missing) > 0 {
			return nil, &MissingFieldsError{Names: missing}
		}
	}
	return m, nil
}

// Names returns the field names in column order. The slice is shared;
// callers must not modify it.
func (m *Map) Names() []string {
	return m.names
}

// Index returns the column index mapped to name.
func (m *Map) Index(name string) (int, bool) {
	i, ok := m.index[name]
	return i, ok
}

// Len returns the number of mapped fields.
func (m *Map) Len() int {
	return len(m.names)
}
