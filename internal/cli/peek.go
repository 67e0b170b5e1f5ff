package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harborscm/csvsift/internal/reader"
)

var peekCmd = &cobra.Command{
	Use:   "peek FILE",
	Short: "Preview the first rows of a delimited file",
	Args:  cobra.ExactArgs(1),
	RunE:  runPeek,
}

func init() {
	addReaderFlags(peekCmd)
	peekCmd.Flags().IntP("rows", "n", 10, "number of rows to show")
	peekCmd.Flags().Bool("md", false, "print as a markdown table")
	rootCmd.AddCommand(peekCmd)
}

func runPeek(cmd *cobra.Command, args []string) error {
	opts, err := readerOptions(cmd)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("rows")
	markdown, _ := cmd.Flags().GetBool("md")

	r, err := reader.Open(args[0], opts)
	if err != nil {
		return err
	}
	defer r.Close()

	names := r.FieldNames()
	var rows [][]string
	for len(rows) < limit && r.Next() {
		rec := r.Record()
		row := make([]string, len(names))
		for i, name := range names {
			if v, ok := rec[name]; ok && v.Valid {
				row[i] = v.String
			}
		}
		rows = append(rows, row)
	}
	if err := r.Err(); err != nil {
		return err
	}

	if markdown {
		printMarkdownTable(names, rows)
		return nil
	}
	printAlignedTable(names, rows)
	return nil
}

// printAlignedTable pads every column to its longest value.
func printAlignedTable(names []string, rows [][]string) {
	widths := make([]int, len(names))
	for i, n := range names {
		widths[i] = len(n)
	}
	for _, row := range rows {
		for i, v := range row {
			if i < len(widths) && len(v) > widths[i] {
				widths[i] = len(v)
			}
		}
	}

	printRow := func(cells []string) {
		parts := make([]string, len(names))
		for i := range names {
			v := ""
			if i < len(cells) {
				v = cells[i]
			}
			parts[i] = fmt.Sprintf("%-*s", widths[i], v)
		}
		fmt.Println(strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	printRow(names)
	rule := make([]string, len(names))
	for i, w := range widths {
		rule[i] = strings.Repeat("-", w)
	}
	fmt.Println(strings.Join(rule, "  "))
	for _, row := range rows {
		printRow(row)
	}
}

func printMarkdownTable(names []string, rows [][]string) {
	fmt.Printf("| %s |\n", strings.Join(names, " | "))
	sep := make([]string, len(names))
	for i := range sep {
		sep[i] = "---"
	}
	fmt.Printf("| %s |\n", strings.Join(sep, " | "))
	for _, row := range rows {
		escaped := make([]string, len(row))
		for i, v := range row {
			escaped[i] = strings.ReplaceAll(v, "|", `\|`)
		}
		fmt.Printf("| %s |\n", strings.Join(escaped, " | "))
	}
}
