package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a delimited file into a SQL Server table",
	Long:  `Interactively select a source file and target table, then bulk-upsert rows using concurrent workers. Encoding and dialect are detected per file.`,
	RunE:  runImport,
}

func init() {
	addReaderFlags(importCmd)
	importCmd.Flags().String("env", ".env", "path to .env file")
	importCmd.Flags().Int("batch-size", 1000, "rows per batch")
	importCmd.Flags().Int("workers", 4, "parallel worker count")
	importCmd.Flags().String("file", "", "path to source file (skips interactive selection)")
	importCmd.Flags().String("table", "", "target table as schema.name (skips interactive selection)")
	importCmd.Flags().StringSlice("keys", nil, "merge key columns (default: the table's primary key)")
	importCmd.Flags().BoolP("yes", "y", false, "skip confirmation prompt")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	opts, err := readerOptions(cmd)
	if err != nil {
		return err
	}
	envPath, _ := cmd.Flags().GetString("env")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	workers, _ := cmd.Flags().GetInt("workers")
	sourceFile, _ := cmd.Flags().GetString("file")
	table, _ := cmd.Flags().GetString("table")
	keyCols, _ := cmd.Flags().GetStringSlice("keys")
	autoConfirm, _ := cmd.Flags().GetBool("yes")

	if sourceFile != "" {
		if _, err := os.Stat(sourceFile); err != nil {
			return fmt.Errorf("source file not found: %s", sourceFile)
		}
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting cwd: %w", err)
		}
		if sourceFile, err = chooseFile(cwd); err != nil {
			return err
		}
	}
	fmt.Printf("Selected: %s\n", filepath.Base(sourceFile))

	ctx := context.Background()
	db, err := connectTarget(ctx, envPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if table == "" {
		if table, err = chooseTable(ctx, db); err != nil {
			return err
		}
	}
	fmt.Printf("Target table: %s\n", table)

	if !autoConfirm && !confirm(fmt.Sprintf("Import %s into %s", filepath.Base(sourceFile), table)) {
		fmt.Println("Import cancelled.")
		return nil
	}

	_, err = importFile(ctx, db, sourceFile, table, opts, keyCols, batchSize, workers, os.Stdout)
	return err
}
