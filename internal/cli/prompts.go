package cli

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/harborscm/csvsift/internal/config"
	"github.com/harborscm/csvsift/internal/csvutil"
	"github.com/harborscm/csvsift/internal/database"
)

// connectTarget loads the target credentials from envPath and opens a
// verified connection pool.
func connectTarget(ctx context.Context, envPath string) (*sql.DB, error) {
	dbCfg, err := config.LoadDatabaseConfig(envPath)
	if err != nil {
		return nil, fmt.Errorf("loading database config: %w", err)
	}

	fmt.Printf("Connecting to %s/%s...\n", dbCfg.Server, dbCfg.Database)
	db, err := database.NewConnection(ctx, dbCfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	fmt.Println("Connected.")
	return db, nil
}

// chooseFile scans dir for delimited files and prompts for one.
func chooseFile(dir string) (string, error) {
	files, err := csvutil.ScanDirectory(dir)
	if err != nil {
		return "", fmt.Errorf("scanning for delimited files: %w", err)
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no delimited files found in %s", dir)
	}

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = filepath.Base(f)
	}
	prompt := promptui.Select{
		Label: "Select source file",
		Items: names,
		Size:  15,
	}
	idx, _, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("file selection: %w", err)
	}
	return files[idx], nil
}

// chooseTable lists the target's tables and prompts for one, with substring
// search enabled.
func chooseTable(ctx context.Context, db *sql.DB) (string, error) {
	tables, err := database.ListTables(ctx, db)
	if err != nil {
		return "", fmt.Errorf("listing tables: %w", err)
	}
	if len(tables) == 0 {
		return "", fmt.Errorf("no tables found in database")
	}

	prompt := promptui.Select{
		Label:             "Select target table",
		Items:             tables,
		Size:              15,
		StartInSearchMode: true,
		Searcher: func(input string, index int) bool {
			return strings.Contains(strings.ToLower(tables[index]), strings.ToLower(input))
		},
	}
	_, table, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("table selection: %w", err)
	}
	return table, nil
}

// confirm asks a yes/no question. A declined prompt returns false rather
// than an error.
func confirm(label string) bool {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	_, err := prompt.Run()
	return err == nil
}
