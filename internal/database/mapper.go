package database

import (
	"fmt"
	"strings"
)

// ColumnMapping describes how resolved field names map to table columns.
type ColumnMapping struct {
	// FieldIndex is the position of the field in the header row.
	FieldIndex int
	// FieldName is the resolved field name from the source header.
	FieldName string
	// DBColumn is the matching database column definition.
	DBColumn TableColumn
}

// MapResult holds the outcome of column mapping.
type MapResult struct {
	Mapped    []ColumnMapping
	Skipped   []string // source fields with no table match
	Unmatched []string // non-nullable table columns with no source match
}

// MapColumns performs case-insensitive matching between source field names
// and table columns. Fields with no table match are skipped. Non-nullable
// table columns with no source match make the mapping fail.
func MapColumns(fieldNames []string, tableCols []TableColumn) (*MapResult, error) {
	result := &MapResult{}

	lookup := make(map[string]TableColumn, len(tableCols))
	for _, tc := range tableCols {
		lookup[strings.ToLower(tc.Name)] = tc
	}

	matched := make(map[string]bool)

	for i, name := range fieldNames {
		key := strings.ToLower(strings.TrimSpace(name))
		if tc, ok := lookup[key]; ok {
			result.Mapped = append(result.Mapped, ColumnMapping{
				FieldIndex: i,
				FieldName:  name,
				DBColumn:   tc,
			})
			matched[key] = true
		} else {
			result.Skipped = append(result.Skipped, name)
		}
	}

	for _, tc := range tableCols {
		key := strings.ToLower(tc.Name)
		if !matched[key] && !tc.IsNullable && !tc.IsIdentity {
			result.Unmatched = append(result.Unmatched, tc.Name)
		}
	}

	if len(result.Unmatched) > 0 {
		return result, fmt.Errorf("non-nullable table columns have no matching field: %s",
			strings.Join(result.Unmatched, ", "))
	}

	return result, nil
}
