package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harborscm/csvsift/internal/reader"
)

// addReaderFlags registers the flags shared by every command that opens a
// delimited-text source. Unset flags leave detection to the reader.
func addReaderFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("delimiter", "", "field delimiter (sniffed when unset)")
	f.String("enclosure", "", `field enclosure; pass "" to disable quoting (sniffed when unset)`)
	f.String("escape", "", `escape sequence inside enclosures (default "\")`)
	f.String("encoding", "", "source encoding, e.g. UTF-16LE (detected when unset)")
	f.String("internal-encoding", "", "encoding values are decoded to (default UTF-8)")
	f.String("line-sep", "", "line separator (sniffed when unset)")
	f.Bool("skip-empty", false, "skip blank lines instead of surfacing them")
	f.Bool("strict", false, "fail on bytes invalid in the source encoding")
	f.Int("chunk-size", 0, "read chunk size in bytes")
	f.StringSlice("fields", nil, "only expose these fields, comma separated")
	f.StringArray("alias", nil, "header alias as header=field (repeatable)")
	f.StringArray("set", nil, "raw reader option as name=value (repeatable)")
	f.Bool("debug", false, "log format detection details")
}

// readerOptions merges the config file's reader section with the command's
// flags. Flags win, and --set pairs win over both.
func readerOptions(cmd *cobra.Command) (reader.Options, error) {
	bag := make(map[string]string)
	if cfg != nil {
		for k, v := range cfg.Reader {
			bag[k] = v
		}
	}

	f := cmd.Flags()
	stringFlags := map[string]string{
		"delimiter":         "delimiter",
		"enclosure":         "enclosure",
		"escape":            "escape",
		"encoding":          "file_encoding",
		"internal-encoding": "internal_encoding",
		"line-sep":          "line_separator",
	}
	for flag, option := range stringFlags {
		if f.Changed(flag) {
			v, _ := f.GetString(flag)
			bag[option] = v
		}
	}

	boolFlags := map[string]string{
		"skip-empty": "skip_empty_lines",
		"strict":     "strict_decode",
		"debug":      "debug",
	}
	for flag, option := range boolFlags {
		if f.Changed(flag) {
			v, _ := f.GetBool(flag)
			bag[option] = strconv.FormatBool(v)
		}
	}

	if f.Changed("chunk-size") {
		v, _ := f.GetInt("chunk-size")
		bag["read_chunk_size"] = strconv.Itoa(v)
	}
	if f.Changed("fields") {
		v, _ := f.GetStringSlice("fields")
		bag["include_fields"] = strings.Join(v, ",")
	}
	if f.Changed("alias") {
		v, _ := f.GetStringArray("alias")
		bag["field_aliases"] = strings.Join(v, ",")
	}

	pairs, _ := f.GetStringArray("set")
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok {
			return reader.Options{}, fmt.Errorf("invalid --set value %q, want name=value", p)
		}
		bag[strings.TrimSpace(name)] = value
	}

	return reader.OptionsFromMap(bag)
}
