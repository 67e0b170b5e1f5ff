package cells

import "bytes"

// Tokenizer splits one logical line into raw field values. Patterns are
// byte sequences so wide-encoding text tokenizes without transcoding;
// Unit is the code-unit width of that text, keeping scans aligned on
// character boundaries.
//
// Quoting is lenient: an enclosure is special wherever it appears, a
// doubled enclosure inside a quoted region is a literal, and a quote
// left open runs to the end of the line. The escape pattern
// neutralizes a following enclosure, escape, or delimiter; before
// anything else it is ordinary data.
type Tokenizer struct {
	Delimiter []byte
	Enclosure []byte
	Escape    []byte
	Unit      int
}

// Split tokenizes line into fields. A nil or empty line yields nil;
// callers treat that as a blank line before ever calling Split.
func (t *Tokenizer) Split(line []byte) []string {
	if len(line) == 0 {
		return nil
	}
	step := t.step()
	var (
		fields  []string
		field   []byte
		inQuote bool
	)
	for i := 0; i < len(line); {
		rest := line[i:]

		if n, lit := t.escaped(rest); n > 0 {
			field = append(field, lit...)
			i += n
			continue
		}
		if len(t.Enclosure) > 0 && bytes.HasPrefix(rest, t.Enclosure) {
			if inQuote && bytes.HasPrefix(rest[len(t.Enclosure):], t.Enclosure) {
				field = append(field, t.Enclosure...)
				i += 2 * len(t.Enclosure)
				continue
			}
			inQuote = !inQuote
			i += len(t.Enclosure)
			continue
		}
		if !inQuote && bytes.HasPrefix(rest, t.Delimiter) {
			fields = append(fields, string(field))
			field = field[:0]
			i += len(t.Delimiter)
			continue
		}

		k := min(i+step, len(line))
		field = append(field, line[i:k]...)
		i = k
	}
	return append(fields, string(field))
}

// Balanced reports whether every enclosure opened on the line is closed
// again, mirroring Split's escape and doubling rules. Lines that are
// not balanced continue on the next physical line.
func (t *Tokenizer) Balanced(line []byte) bool {
	if len(t.Enclosure) == 0 {
		return true
	}
	step := t.step()
	inQuote := false
	for i := 0; i < len(line); {
		rest := line[i:]

		if n, _ := t.escaped(rest); n > 0 {
			i += n
			continue
		}
		if bytes.HasPrefix(rest, t.Enclosure) {
			if inQuote && bytes.HasPrefix(rest[len(t.Enclosure):], t.Enclosure) {
				i += 2 * len(t.Enclosure)
				continue
			}
			inQuote = !inQuote
			i += len(t.Enclosure)
			continue
		}
		i += step
	}
	return !inQuote
}

// escaped examines rest for an escape sequence. It returns the number
// of bytes consumed and the literal bytes they stand for, or (0, nil)
// when rest does not begin with one.
func (t *Tokenizer) escaped(rest []byte) (int, []byte) {
	if len(t.Escape) == 0 || !bytes.HasPrefix(rest, t.Escape) {
		return 0, nil
	}
	after := rest[len(t.Escape):]
	switch {
	case len(t.Enclosure) > 0 && bytes.HasPrefix(after, t.Enclosure):
		return len(t.Escape) + len(t.Enclosure), t.Enclosure
	case bytes.HasPrefix(after, t.Escape):
		return len(t.Escape) + len(t.Escape), t.Escape
	case len(t.Delimiter) > 0 && bytes.HasPrefix(after, t.Delimiter):
		return len(t.Escape) + len(t.Delimiter), t.Delimiter
	}
	return len(t.Escape), t.Escape
}

func (t *Tokenizer) step() int {
	if t.Unit > 1 {
		return t.Unit
	}
	return 1
}
