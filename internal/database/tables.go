package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const queryTimeout = 30 * time.Second

// TableColumn describes one column of an import target table.
type TableColumn struct {
	Name       string
	DataType   string
	IsNullable bool
	IsIdentity bool
	OrdinalPos int
}

// TableRowCount pairs a table name with its row count.
type TableRowCount struct {
	Name     string
	RowCount int64
}

// ListTables returns every user table as "schema.name", sorted.
func ListTables(ctx context.Context, db *sql.DB) ([]string, error) {
	const q = `SELECT s.name + '.' + t.name
		FROM sys.tables t
		JOIN sys.schemas s ON t.schema_id = s.schema_id
		ORDER BY s.name, t.name`
	names, err := queryStrings(ctx, db, q)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	return names, nil
}

// ListTablesWithCounts returns every user table with its row count. Counts
// come from sys.dm_db_partition_stats, which is approximate under load but
// does not scan the tables.
func ListTablesWithCounts(ctx context.Context, db *sql.DB) ([]TableRowCount, error) {
	const q = `SELECT s.name + '.' + t.name, SUM(p.row_count)
		FROM sys.tables t
		JOIN sys.schemas s ON t.schema_id = s.schema_id
		JOIN sys.dm_db_partition_stats p ON t.object_id = p.object_id AND p.index_id IN (0, 1)
		GROUP BY s.name, t.name
		ORDER BY s.name, t.name`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing table counts: %w", err)
	}
	defer rows.Close()

	var counts []TableRowCount
	for rows.Next() {
		var c TableRowCount
		if err := rows.Scan(&c.Name, &c.RowCount); err != nil {
			return nil, fmt.Errorf("scanning table count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// GetTableColumns returns the column definitions of schema.table in ordinal
// order, identity flags included. An empty result means the table does not
// exist.
func GetTableColumns(ctx context.Context, db *sql.DB, schemaTable string) ([]TableColumn, error) {
	schema, table := splitSchemaTable(schemaTable)

	const q = `SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE, ORDINAL_POSITION,
			COLUMNPROPERTY(OBJECT_ID(QUOTENAME(TABLE_SCHEMA) + '.' + QUOTENAME(TABLE_NAME)), COLUMN_NAME, 'IsIdentity')
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = @schema AND TABLE_NAME = @table
		ORDER BY ORDINAL_POSITION`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := db.QueryContext(ctx, q, sql.Named("schema", schema), sql.Named("table", table))
	if err != nil {
		return nil, fmt.Errorf("querying columns of %s: %w", schemaTable, err)
	}
	defer rows.Close()

	var cols []TableColumn
	for rows.Next() {
		var (
			c        TableColumn
			nullable string
			identity sql.NullInt64
		)
		if err := rows.Scan(&c.Name, &c.DataType, &nullable, &c.OrdinalPos, &identity); err != nil {
			return nil, fmt.Errorf("scanning column: %w", err)
		}
		c.IsNullable = nullable == "YES"
		c.IsIdentity = identity.Valid && identity.Int64 == 1
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// GetKeyColumns returns the primary key columns of schema.table in key order.
// Empty means the table has no primary key.
func GetKeyColumns(ctx context.Context, db *sql.DB, schemaTable string) ([]string, error) {
	schema, table := splitSchemaTable(schemaTable)

	const q = `SELECT kcu.COLUMN_NAME
		FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
		JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
			ON tc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
			AND tc.TABLE_SCHEMA = kcu.TABLE_SCHEMA
			AND tc.TABLE_NAME = kcu.TABLE_NAME
		WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY'
			AND tc.TABLE_SCHEMA = @schema AND tc.TABLE_NAME = @table
		ORDER BY kcu.ORDINAL_POSITION`

	keys, err := queryStrings(ctx, db, q, sql.Named("schema", schema), sql.Named("table", table))
	if err != nil {
		return nil, fmt.Errorf("querying key columns of %s: %w", schemaTable, err)
	}
	return keys, nil
}

// queryStrings runs a single-column query and collects the results.
func queryStrings(ctx context.Context, db *sql.DB, query string, args ...any) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// splitSchemaTable splits "schema.table", defaulting the schema to "dbo".
func splitSchemaTable(schemaTable string) (string, string) {
	if schema, table, ok := strings.Cut(schemaTable, "."); ok {
		return schema, table
	}
	return "dbo", schemaTable
}
