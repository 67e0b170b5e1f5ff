package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/harborscm/csvsift/internal/csvutil"
	"github.com/harborscm/csvsift/internal/database"
	"github.com/harborscm/csvsift/internal/reader"
	"github.com/harborscm/csvsift/internal/worker"
)

// importFile performs the core file-to-database import: resolves the source
// format, maps fields to table columns, runs the worker pool, and returns
// total rows inserted. Progress is written to w. keyCols overrides the
// table's primary key for the MERGE; nil means discover it.
func importFile(ctx context.Context, db *sql.DB, path, schemaTable string, opts reader.Options, keyCols []string, batchSize, workers int, w io.Writer) (int, error) {
	// Get table schema
	tableCols, err := database.GetTableColumns(ctx, db, schemaTable)
	if err != nil {
		return 0, fmt.Errorf("getting table columns: %w", err)
	}
	if len(tableCols) == 0 {
		return 0, fmt.Errorf("table %s not found", schemaTable)
	}
	if len(keyCols) == 0 {
		keyCols, err = database.GetKeyColumns(ctx, db, schemaTable)
		if err != nil {
			return 0, fmt.Errorf("getting key columns: %w", err)
		}
	}
	fmt.Fprintf(w, "Table has %d columns, %d key column(s)\n", len(tableCols), len(keyCols))

	// Open source, resolve format, read header
	src, err := csvutil.NewReader(path, opts)
	if err != nil {
		return 0, fmt.Errorf("opening source: %w", err)
	}
	defer src.Close()

	det := src.Detection()
	fmt.Fprintf(w, "Source: %s, delimiter %q, %d field(s)\n",
		det.FileEncoding, det.Delimiter, len(src.Headers()))

	// Map fields to columns
	mapResult, err := database.MapColumns(src.Headers(), tableCols)
	if err != nil {
		return 0, fmt.Errorf("column mapping: %w", err)
	}

	fmt.Fprintf(w, "Matched %d columns\n", len(mapResult.Mapped))
	if len(mapResult.Skipped) > 0 {
		fmt.Fprintf(w, "Skipped %d field(s) (no table match): %s\n",
			len(mapResult.Skipped), strings.Join(mapResult.Skipped, ", "))
	}

	dbColumns := make([]string, len(mapResult.Mapped))
	hasIdentity := false
	for i, m := range mapResult.Mapped {
		dbColumns[i] = m.DBColumn.Name
		if m.DBColumn.IsIdentity {
			hasIdentity = true
		}
	}

	// Start worker pool
	pool := worker.NewPool(db, schemaTable, dbColumns, keyCols, mapResult.Mapped, hasIdentity, workers)
	pool.Start(ctx)

	// The row count is unknown up front (the source may be compressed or
	// need transcoding), so the bar runs in spinner mode.
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Importing"),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(200*time.Millisecond),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("rows"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
	)

	// Feed batches
	go func() {
		batchNum := 0
		for {
			rows, err := src.ReadBatch(batchSize)
			if len(rows) > 0 {
				pool.Submit(worker.Job{BatchNum: batchNum, Rows: rows})
				batchNum++
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "\nsource read error: %v\n", err)
				break
			}
		}
		pool.Done()
	}()

	// Collect results
	start := time.Now()
	var totalInserted int
	var errorCount int
	var errors []string

	for result := range pool.Results() {
		if result.Err != nil {
			errorCount++
			if len(errors) < 10 {
				errors = append(errors, result.Err.Error())
			}
		} else {
			totalInserted += result.RowCount
		}
		bar.Add(result.RowCount) //nolint:errcheck
	}
	bar.Finish() //nolint:errcheck

	// Summary
	elapsed := time.Since(start)
	rowsPerSec := float64(totalInserted) / elapsed.Seconds()

	fmt.Fprintf(w, "\n--- Import Summary ---\n")
	fmt.Fprintf(w, "File:                %s\n", filepath.Base(path))
	fmt.Fprintf(w, "Table:               %s\n", schemaTable)
	fmt.Fprintf(w, "Encoding:            %s\n", det.FileEncoding)
	fmt.Fprintf(w, "Total rows inserted: %d\n", totalInserted)
	fmt.Fprintf(w, "Duration:            %s\n", elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "Throughput:          %.0f rows/sec\n", rowsPerSec)
	fmt.Fprintf(w, "Errors:              %d\n", errorCount)

	if len(errors) > 0 {
		fmt.Fprintln(w, "\nFirst errors:")
		for _, e := range errors {
			fmt.Fprintf(w, "  - %s\n", e)
		}
		return totalInserted, fmt.Errorf("%d batch errors during import", errorCount)
	}

	return totalInserted, nil
}
