package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harborscm/csvsift/internal/reader"
)

var sniffCmd = &cobra.Command{
	Use:   "sniff FILE...",
	Short: "Report the detected encoding and dialect of delimited files",
	Long:  `Open each file, resolve its byte order mark, encoding, line separator, and dialect, and print the result without reading data rows.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSniff,
}

func init() {
	addReaderFlags(sniffCmd)
	sniffCmd.Flags().Bool("json", false, "emit reports as JSON, one object per file")
	rootCmd.AddCommand(sniffCmd)
}

type sniffReport struct {
	File             string   `json:"file"`
	FileEncoding     string   `json:"file_encoding"`
	InternalEncoding string   `json:"internal_encoding"`
	ByteOrderMark    string   `json:"byte_order_mark,omitempty"`
	BOMLength        int      `json:"bom_length,omitempty"`
	LineSeparator    string   `json:"line_separator"`
	Delimiter        string   `json:"delimiter"`
	Enclosure        string   `json:"enclosure"`
	Transcoding      bool     `json:"transcoding"`
	Sniffed          bool     `json:"sniffed"`
	Seekable         bool     `json:"seekable"`
	Fields           []string `json:"fields"`
}

func runSniff(cmd *cobra.Command, args []string) error {
	opts, err := readerOptions(cmd)
	if err != nil {
		return err
	}
	asJSON, _ := cmd.Flags().GetBool("json")

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	for i, path := range args {
		r, err := reader.Open(path, opts)
		if err != nil {
			return err
		}
		det := r.Detection()
		report := sniffReport{
			File:             path,
			FileEncoding:     det.FileEncoding,
			InternalEncoding: det.InternalEncoding,
			ByteOrderMark:    det.ByteOrderMark,
			BOMLength:        det.BOMLength,
			LineSeparator:    det.LineSeparator,
			Delimiter:        det.Delimiter,
			Enclosure:        det.Enclosure,
			Transcoding:      det.Transcoding,
			Sniffed:          det.Sniffed,
			Seekable:         r.Seekable(),
			Fields:           r.FieldNames(),
		}
		r.Close()

		if asJSON {
			if err := enc.Encode(report); err != nil {
				return err
			}
			continue
		}
		if i > 0 {
			fmt.Println()
		}
		printSniffReport(report)
	}
	return nil
}

func printSniffReport(rep sniffReport) {
	fmt.Println(rep.File)

	encoding := rep.FileEncoding
	if rep.ByteOrderMark != "" {
		encoding += fmt.Sprintf(" (byte order mark, %d bytes)", rep.BOMLength)
	}
	internal := rep.InternalEncoding
	if rep.Transcoding {
		internal += " (transcoding)"
	}
	enclosure := "none"
	if rep.Enclosure != "" {
		enclosure = strconv.Quote(rep.Enclosure)
	}

	fmt.Printf("  encoding:        %s\n", encoding)
	fmt.Printf("  internal:        %s\n", internal)
	fmt.Printf("  line separator:  %s\n", strconv.Quote(rep.LineSeparator))
	fmt.Printf("  delimiter:       %s\n", strconv.Quote(rep.Delimiter))
	fmt.Printf("  enclosure:       %s\n", enclosure)
	fmt.Printf("  seekable:        %v\n", rep.Seekable)
	fmt.Printf("  fields:          %s\n", strings.Join(rep.Fields, ", "))
}
