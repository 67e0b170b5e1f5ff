package reader

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/harborscm/csvsift/internal/charset"
)

// Options tune detection and iteration. The zero value sniffs the
// whole dialect and decodes records to UTF-8.
type Options struct {
	// Delimiter overrides the sniffed field separator.
	Delimiter string
	// Enclosure overrides the sniffed quote character. nil means
	// sniff; pointing at an empty string disables enclosures outright.
	Enclosure *string
	// Escape neutralizes a following enclosure, escape, or delimiter
	// inside a field. Empty means backslash.
	Escape string
	// FileEncoding overrides BOM and heuristic encoding detection.
	FileEncoding string
	// InternalEncoding is the encoding records are delivered in.
	// Empty means UTF-8.
	InternalEncoding string
	// LineSeparator overrides the sniffed line terminator.
	LineSeparator string
	// SkipEmptyLines drops blank lines instead of surfacing them as
	// all-empty records.
	SkipEmptyLines bool
	// StrictDecode fails iteration on malformed data bytes instead of
	// substituting replacement characters. Header names always decode
	// strictly.
	StrictDecode bool
	// ChunkSize is the buffering granularity for line reads, in bytes.
	ChunkSize int
	// FieldAliases renames header names to canonical field names; keys
	// match case-insensitively.
	FieldAliases map[string]string
	// FieldNormalizer rewrites each trimmed header name. It must
	// return a non-empty name.
	FieldNormalizer func(string) string
	// IncludeFields keeps only the named fields and requires every one
	// of them to be present in the header.
	IncludeFields []string
	// Debug traces every detection decision on Logger.
	Debug bool
	// Logger receives debug traces. nil means slog.Default().
	Logger *slog.Logger
}

func (o *Options) validate() error {
	esc := o.Escape
	if esc == "" {
		esc = `\`
	}
	if o.Delimiter != "" && o.Delimiter == esc {
		return &InvalidOptionError{Option: "escape", Reason: "must differ from the delimiter"}
	}
	if o.Enclosure != nil && *o.Enclosure != "" {
		if *o.Enclosure == esc {
			return &InvalidOptionError{Option: "escape", Reason: "must differ from the enclosure"}
		}
		if *o.Enclosure == o.Delimiter {
			return &InvalidOptionError{Option: "enclosure", Reason: "must differ from the delimiter"}
		}
	}
	if o.ChunkSize < 0 {
		return &InvalidOptionError{Option: "read_chunk_size", Reason: "must be positive"}
	}
	if o.FileEncoding != "" {
		if _, err := charset.Lookup(o.FileEncoding); err != nil {
			return &InvalidOptionError{Option: "file_encoding", Reason: err.Error()}
		}
	}
	if o.InternalEncoding != "" {
		if _, err := charset.Lookup(o.InternalEncoding); err != nil {
			return &InvalidOptionError{Option: "internal_encoding", Reason: err.Error()}
		}
	}
	return nil
}

func (o *Options) internal() string {
	if o.InternalEncoding == "" {
		return charset.UTF8
	}
	return o.InternalEncoding
}

func (o *Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// OptionsFromMap converts a string option bag, as collected from flags
// or a config file, into Options. Unknown names and malformed values
// are rejected outright; nothing is partially applied.
func OptionsFromMap(m map[string]string) (Options, error) {
	var o Options
	for key, val := range m {
		switch key {
		case "debug":
			b, err := parseBool(key, val)
			if err != nil {
				return Options{}, err
			}
			o.Debug = b
		case "skip_empty_lines":
			b, err := parseBool(key, val)
			if err != nil {
				return Options{}, err
			}
			o.SkipEmptyLines = b
		case "strict_decode":
			b, err := parseBool(key, val)
			if err != nil {
				return Options{}, err
			}
			o.StrictDecode = b
		case "internal_encoding":
			if val == "" {
				return Options{}, &InvalidOptionError{Option: key, Reason: "must not be empty"}
			}
			o.InternalEncoding = val
		case "file_encoding":
			if val == "" {
				return Options{}, &InvalidOptionError{Option: key, Reason: "must not be empty"}
			}
			o.FileEncoding = val
		case "delimiter":
			if val == "" {
				return Options{}, &InvalidOptionError{Option: key, Reason: "must not be empty"}
			}
			o.Delimiter = val
		case "enclosure":
			enc := val
			o.Enclosure = &enc
		case "escape":
			o.Escape = val
		case "line_separator":
			if val == "" {
				return Options{}, &InvalidOptionError{Option: key, Reason: "must not be empty"}
			}
			o.LineSeparator = val
		case "read_chunk_size":
			n, err := strconv.Atoi(val)
			if err != nil || n <= 0 {
				return Options{}, &InvalidOptionError{Option: key, Reason: "must be a positive integer"}
			}
			o.ChunkSize = n
		case "field_aliases":
			aliases, err := parseAliases(key, val)
			if err != nil {
				return Options{}, err
			}
			o.FieldAliases = aliases
		case "include_fields":
			list := splitList(val)
			if len(list) == 0 {
				return Options{}, &InvalidOptionError{Option: key, Reason: "must name at least one field"}
			}
			o.IncludeFields = list
		case "field_normalizer":
			return Options{}, &InvalidOptionError{Option: key, Reason: "cannot be set from a string map"}
		default:
			return Options{}, &InvalidOptionError{Option: key, Reason: "unknown option"}
		}
	}
	return o, nil
}

func parseBool(key, val string) (bool, error) {
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, &InvalidOptionError{Option: key, Reason: "must be a boolean"}
	}
	return b, nil
}

// parseAliases reads a "header=field" list, comma separated.
func parseAliases(key, val string) (map[string]string, error) {
	aliases := make(map[string]string)
	for _, pair := range strings.Split(val, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		from, to, ok := strings.Cut(pair, "=")
		from, to = strings.TrimSpace(from), strings.TrimSpace(to)
		if !ok || from == "" || to == "" {
			return nil, &InvalidOptionError{Option: key, Reason: "entries must look like header=field"}
		}
		aliases[from] = to
	}
	if len(aliases) == 0 {
		return nil, &InvalidOptionError{Option: key, Reason: "must name at least one alias"}
	}
	return aliases, nil
}

func splitList(val string) []string {
	var out []string
	for _, s := range strings.Split(val, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
