package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/harborscm/csvsift/internal/config"
	"github.com/harborscm/csvsift/internal/database"
)

const reportsDir = "reports"

var listTablesCmd = &cobra.Command{
	Use:   "list-tables",
	Short: "List all tables in the target database",
	RunE:  runListTables,
}

func init() {
	listTablesCmd.Flags().String("env", ".env", "path to .env file")
	listTablesCmd.Flags().Bool("counts", false, "include row counts for each table")
	listTablesCmd.Flags().String("markdown", "", "write a markdown report to this path")
	listTablesCmd.Flags().Bool("md", false, "write a markdown report to reports/ with a timestamped name")
	rootCmd.AddCommand(listTablesCmd)
}

func runListTables(cmd *cobra.Command, args []string) error {
	envFile, _ := cmd.Flags().GetString("env")
	withCounts, _ := cmd.Flags().GetBool("counts")
	reportPath, _ := cmd.Flags().GetString("markdown")
	if auto, _ := cmd.Flags().GetBool("md"); auto && reportPath == "" {
		stamp := time.Now().Format("20060102-150405")
		reportPath = filepath.Join(reportsDir, "tables-report-"+stamp+".md")
	}

	dbCfg, err := config.LoadDatabaseConfig(envFile)
	if err != nil {
		return err
	}

	ctx := context.Background()
	db, err := database.NewConnection(ctx, dbCfg.ConnectionString())
	if err != nil {
		return err
	}
	defer db.Close()

	// A markdown report always carries counts.
	if reportPath == "" && !withCounts {
		names, err := database.ListTables(ctx, db)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("(no user tables)")
			return nil
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	}

	counts, err := database.ListTablesWithCounts(ctx, db)
	if err != nil {
		return err
	}
	printCounts(counts)

	if reportPath != "" {
		if err := writeTablesReport(reportPath, dbCfg, counts); err != nil {
			return err
		}
		fmt.Printf("\nMarkdown written to %s\n", reportPath)
	}
	return nil
}

func printCounts(counts []database.TableRowCount) {
	width := 0
	for _, c := range counts {
		if len(c.Name) > width {
			width = len(c.Name)
		}
	}
	for _, c := range counts {
		fmt.Printf("%-*s  %d\n", width, c.Name, c.RowCount)
	}
}

func writeTablesReport(path string, dbCfg *config.DatabaseConfig, counts []database.TableRowCount) error {
	var total int64
	for _, c := range counts {
		total += c.RowCount
	}

	var b strings.Builder
	b.WriteString("# Target Database Tables\n\n")
	fmt.Fprintf(&b, "**Server:** `%s`\n", dbCfg.Server)
	fmt.Fprintf(&b, "**Database:** `%s`\n", dbCfg.Database)
	fmt.Fprintf(&b, "**Generated:** %s\n\n", time.Now().Format("2006-01-02 15:04:05"))

	b.WriteString("| # | Table | Row Count |\n")
	b.WriteString("|---|-------|----------:|\n")
	for i, c := range counts {
		fmt.Fprintf(&b, "| %d | `%s` | %d |\n", i+1, c.Name, c.RowCount)
	}
	fmt.Fprintf(&b, "\n%d tables, %d rows total\n", len(counts), total)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
