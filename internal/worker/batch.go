package worker

import (
	"strconv"
	"strings"
	"time"

	"github.com/harborscm/csvsift/internal/database"
)

// Datetime layouts the source may contain, most specific first.
var dateTimeFormats = []string{
	"2006-01-02T15:04:05.000000",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.000000",
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func isDateTimeType(dt string) bool {
	switch strings.ToLower(dt) {
	case "datetime", "datetime2", "smalldatetime", "date", "time":
		return true
	}
	return false
}

func isNumericType(dt string) bool {
	switch strings.ToLower(dt) {
	case "int", "bigint", "smallint", "tinyint",
		"decimal", "numeric", "money", "smallmoney",
		"float", "real":
		return true
	}
	return false
}

// ConvertBatch turns projected string rows into driver values using the
// column mapping. An empty string marks an absent value; it becomes NULL on
// nullable columns and stays an empty string otherwise.
func ConvertBatch(rows [][]string, mapping []database.ColumnMapping) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		vals := make([]any, len(mapping))
		for j, m := range mapping {
			if m.FieldIndex >= len(row) {
				vals[j] = nil
				continue
			}
			s := strings.TrimSpace(row[m.FieldIndex])
			switch {
			case s != "":
				vals[j] = coerceValue(s, m.DBColumn.DataType)
			case m.DBColumn.IsNullable:
				vals[j] = nil
			default:
				vals[j] = s
			}
		}
		out[i] = vals
	}
	return out
}

// coerceValue converts a non-empty string to a Go type matching the SQL
// column type. Values that do not parse pass through as strings for the
// driver to reject or convert.
func coerceValue(val, dataType string) any {
	switch {
	case isDateTimeType(dataType):
		for _, layout := range dateTimeFormats {
			if t, err := time.Parse(layout, val); err == nil {
				return t
			}
		}
	case isNumericType(dataType):
		if iv, err := strconv.ParseInt(val, 10, 64); err == nil {
			return iv
		}
		if fv, err := strconv.ParseFloat(val, 64); err == nil {
			return fv
		}
	case strings.EqualFold(dataType, "bit"):
		switch strings.ToLower(val) {
		case "1", "true", "yes", "y":
			return true
		case "0", "false", "no", "n":
			return false
		}
	}
	return val
}
