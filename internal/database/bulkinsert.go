package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	mssql "github.com/microsoft/go-mssqldb"
)

// stageTable is the session-scoped temp table each batch is bulk-copied into
// before merging.
const stageTable = "#csvsift_stage"

const batchTimeout = 5 * time.Minute

// InsertBatch upserts rows into the target table using the stage-table +
// MERGE pattern. If keyColumns is empty, it falls back to a straight bulk
// copy (insert-only).
func InsertBatch(ctx context.Context, db *sql.DB, schemaTable string, columns, keyColumns []string, hasIdentity bool, rows [][]any) error {
	ctx, cancel := context.WithTimeout(ctx, batchTimeout)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if len(keyColumns) == 0 {
		if err := copyRows(ctx, tx, schemaTable, columns, rows); err != nil {
			return err
		}
		return commit(tx)
	}

	// Stage table matches the target schema but carries no constraints.
	createStage := fmt.Sprintf("SELECT TOP(0) * INTO %s FROM %s", stageTable, schemaTable)
	if _, err := tx.ExecContext(ctx, createStage); err != nil {
		return fmt.Errorf("create stage table: %w", err)
	}
	if err := copyRows(ctx, tx, stageTable, columns, rows); err != nil {
		return err
	}

	if hasIdentity {
		if _, err := tx.ExecContext(ctx, "SET IDENTITY_INSERT "+schemaTable+" ON"); err != nil {
			return fmt.Errorf("identity insert on: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, buildMergeSQL(schemaTable, columns, keyColumns)); err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	if hasIdentity {
		if _, err := tx.ExecContext(ctx, "SET IDENTITY_INSERT "+schemaTable+" OFF"); err != nil {
			return fmt.Errorf("identity insert off: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DROP TABLE "+stageTable); err != nil {
		return fmt.Errorf("drop stage table: %w", err)
	}
	return commit(tx)
}

// copyRows bulk-copies rows into table within the transaction.
func copyRows(ctx context.Context, tx *sql.Tx, table string, columns []string, rows [][]any) error {
	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(table, mssql.BulkOptions{}, columns...))
	if err != nil {
		return fmt.Errorf("prepare copy: %w", err)
	}
	defer stmt.Close() //nolint:errcheck

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("exec row %d: %w", i, err)
		}
	}
	// Final Exec with no args flushes the bulk copy.
	if _, err := stmt.ExecContext(ctx); err != nil {
		return fmt.Errorf("flush bulk copy: %w", err)
	}
	return nil
}

func commit(tx *sql.Tx) error {
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// buildMergeSQL constructs a MERGE statement that upserts from the stage
// table into the target table. Key columns join the two; the rest are
// updated on match. Everything is inserted on miss.
func buildMergeSQL(schemaTable string, columns, keyColumns []string) string {
	isKey := make(map[string]bool, len(keyColumns))
	onParts := make([]string, len(keyColumns))
	for i, key := range keyColumns {
		isKey[strings.ToUpper(key)] = true
		onParts[i] = fmt.Sprintf("target.[%s] = source.[%s]", key, key)
	}

	var setParts, colList, valList []string
	for _, col := range columns {
		colList = append(colList, "["+col+"]")
		valList = append(valList, "source.["+col+"]")
		if !isKey[strings.ToUpper(col)] {
			setParts = append(setParts, fmt.Sprintf("target.[%s] = source.[%s]", col, col))
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "MERGE %s WITH (HOLDLOCK) AS target ", schemaTable)
	fmt.Fprintf(&b, "USING %s AS source ", stageTable)
	fmt.Fprintf(&b, "ON (%s) ", strings.Join(onParts, " AND "))
	if len(setParts) > 0 {
		fmt.Fprintf(&b, "WHEN MATCHED THEN UPDATE SET %s ", strings.Join(setParts, ", "))
	}
	fmt.Fprintf(&b, "WHEN NOT MATCHED THEN INSERT (%s) VALUES (%s);",
		strings.Join(colList, ", "), strings.Join(valList, ", "))
	return b.String()
}
