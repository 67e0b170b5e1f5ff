package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/harborscm/csvsift/internal/reader"
)

var convertCmd = &cobra.Command{
	Use:   "convert FILE",
	Short: "Re-emit a delimited file as RFC 4180 CSV",
	Long:  `Decode FILE with full encoding and dialect detection and write its records back out as standard CSV, header row first. Values the source encoding cannot decode come out empty.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runConvert,
}

func init() {
	addReaderFlags(convertCmd)
	convertCmd.Flags().String("out", "", "write to this file instead of stdout")
	convertCmd.Flags().Int("limit", 0, "stop after this many data rows (0 = all)")
	convertCmd.Flags().String("out-delimiter", ",", "single-character output delimiter")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	opts, err := readerOptions(cmd)
	if err != nil {
		return err
	}
	outPath, _ := cmd.Flags().GetString("out")
	limit, _ := cmd.Flags().GetInt("limit")
	outDelim, _ := cmd.Flags().GetString("out-delimiter")

	runes := []rune(outDelim)
	if len(runes) != 1 {
		return fmt.Errorf("out-delimiter must be a single character, got %q", outDelim)
	}

	r, err := reader.Open(args[0], opts)
	if err != nil {
		return err
	}
	defer r.Close()

	var out io.Writer = os.Stdout
	var bar *progressbar.ProgressBar
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", outPath, err)
		}
		defer f.Close()
		out = f

		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("Converting"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("rows"),
			progressbar.OptionSpinnerType(14),
		)
	}

	w := csv.NewWriter(out)
	w.Comma = runes[0]

	names := r.FieldNames()
	if err := w.Write(names); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	written := 0
	for (limit <= 0 || written < limit) && r.Next() {
		rec := r.Record()
		row := make([]string, len(names))
		for i, name := range names {
			if v, ok := rec[name]; ok && v.Valid {
				row[i] = v.String
			}
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", r.Ordinal(), err)
		}
		written++
		if bar != nil {
			bar.Add(1) //nolint:errcheck
		}
	}
	if err := r.Err(); err != nil {
		return err
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing output: %w", err)
	}
	if bar != nil {
		bar.Finish() //nolint:errcheck
		fmt.Fprintf(os.Stderr, "\nWrote %d rows to %s\n", written, outPath)
	}
	return nil
}
