package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harborscm/csvsift/internal/bytesource"
	"github.com/harborscm/csvsift/internal/csvutil"
	"github.com/harborscm/csvsift/internal/database"
)

const (
	inputDir     = "csv_input"
	processedDir = "csv_processed"
)

var processCmd = &cobra.Command{
	Use:   "process [DIR]",
	Short: "Batch-process all delimited files in a directory",
	Long:  `Scan DIR (default csv_input/) for delimited files, match each to a database table by filename, import them sequentially, and move completed files to csv_processed/.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProcess,
}

func init() {
	addReaderFlags(processCmd)
	processCmd.Flags().String("env", ".env", "path to .env file")
	processCmd.Flags().String("dir", inputDir, "directory to scan for input files")
	processCmd.Flags().Int("batch-size", 1000, "rows per batch")
	processCmd.Flags().Int("workers", 4, "parallel worker count")
	processCmd.Flags().BoolP("yes", "y", false, "skip confirmation prompt")
	rootCmd.AddCommand(processCmd)
}

// fileMatch pairs a source file path with its resolved database table name.
type fileMatch struct {
	Path      string
	TableName string // e.g. "dbo.SHIPPING_CONTAINER"
	BaseName  string // original filename
}

func runProcess(cmd *cobra.Command, args []string) error {
	opts, err := readerOptions(cmd)
	if err != nil {
		return err
	}
	envPath, _ := cmd.Flags().GetString("env")
	scanDir, _ := cmd.Flags().GetString("dir")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	workers, _ := cmd.Flags().GetInt("workers")
	autoConfirm, _ := cmd.Flags().GetBool("yes")
	if len(args) > 0 {
		scanDir = args[0]
	}

	files, err := csvutil.ScanDirectory(scanDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Printf("No delimited files found in %s/\n", scanDir)
		return nil
	}
	fmt.Printf("Found %d file(s) in %s/\n", len(files), scanDir)

	ctx := context.Background()
	db, err := connectTarget(ctx, envPath)
	if err != nil {
		return err
	}
	defer db.Close()

	tables, err := database.ListTables(ctx, db)
	if err != nil {
		return fmt.Errorf("listing tables: %w", err)
	}

	matched, unmatched := matchFilesToTables(files, tables)

	fmt.Println()
	fmt.Printf("Matched:   %d file(s)\n", len(matched))
	for _, m := range matched {
		fmt.Printf("  %s -> %s\n", m.BaseName, m.TableName)
	}
	if len(unmatched) > 0 {
		fmt.Printf("Unmatched: %d file(s)\n", len(unmatched))
		for _, u := range unmatched {
			fmt.Printf("  %s\n", u)
		}
	}
	fmt.Println()

	if len(matched) == 0 {
		fmt.Println("No files matched any database table. Nothing to do.")
		return nil
	}

	if !autoConfirm && !confirm(fmt.Sprintf("Process %d file(s)", len(matched))) {
		fmt.Println("Processing cancelled.")
		return nil
	}

	if err := os.MkdirAll(processedDir, 0o755); err != nil {
		return fmt.Errorf("creating %s directory: %w", processedDir, err)
	}

	// Import sequentially; each file gets the worker pool to itself.
	var succeeded, failed, totalRows int
	for i, m := range matched {
		fmt.Printf("\n[%d/%d] Processing %s -> %s...\n", i+1, len(matched), m.BaseName, m.TableName)

		rows, err := importFile(ctx, db, m.Path, m.TableName, opts, nil, batchSize, workers, os.Stdout)
		if err != nil {
			fmt.Printf("ERROR: %s: %v\n", m.BaseName, err)
			failed++
			continue
		}
		totalRows += rows
		succeeded++

		// Move the finished file out of the input directory.
		dest := filepath.Join(processedDir, m.BaseName)
		if err := os.Rename(m.Path, dest); err != nil {
			fmt.Printf("WARNING: imported OK but failed to move %s: %v\n", m.BaseName, err)
		} else {
			fmt.Printf("Moved %s -> %s/\n", m.BaseName, processedDir)
		}
	}

	fmt.Println("\n=== Process Summary ===")
	fmt.Printf("Files processed: %d\n", len(matched))
	fmt.Printf("Succeeded:       %d\n", succeeded)
	fmt.Printf("Failed:          %d\n", failed)
	fmt.Printf("Total rows:      %d\n", totalRows)
	return nil
}

// matchFilesToTables resolves each file to a table by name, case
// insensitively, assuming the dbo schema. Unmatched entries carry the table
// name that was tried.
func matchFilesToTables(files, tables []string) ([]fileMatch, []string) {
	lookup := make(map[string]string, len(tables))
	for _, t := range tables {
		lookup[strings.ToLower(t)] = t
	}

	var matched []fileMatch
	var unmatched []string
	for _, path := range files {
		base := filepath.Base(path)
		tablePart := tableFromFilename(base)
		if full, ok := lookup[strings.ToLower("dbo."+tablePart)]; ok {
			matched = append(matched, fileMatch{Path: path, TableName: full, BaseName: base})
		} else {
			unmatched = append(unmatched, base+" (no table: dbo."+tablePart+")")
		}
	}
	return matched, unmatched
}

// tableFromFilename derives a table name from a filename such as
// "SHIPPING_CONTAINER_inserts_20260211_170255.csv" or a plain
// "SHIPPING_CONTAINER.csv". Compression extensions are stripped first, and
// anything from "_inserts_" on is dropped.
func tableFromFilename(filename string) string {
	name := filename
	if bytesource.IsCompressed(name) {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	name = strings.TrimSuffix(name, filepath.Ext(name))

	lower := strings.ToLower(name)
	if idx := strings.Index(lower, "_inserts_"); idx >= 0 {
		return name[:idx]
	}
	return name
}
