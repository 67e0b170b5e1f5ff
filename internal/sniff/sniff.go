package sniff

import (
	"bytes"

	"github.com/harborscm/csvsift/internal/charset"
)

// Candidate orderings; ties keep the earlier entry.
var (
	multiByteEndings  = []string{"\r\n", "\n\r"}
	singleByteEndings = []string{"\n", "\r"}
	delimiters        = []string{",", ";", ":", "|", "\t"}
	enclosures        = []string{`"`, "'", ""}
)

// Dialect is the sniffer's best guess at how a delimited sample is
// framed. Values are the logical single-byte forms; callers re-encode
// them for wide files. Empty LineEnding or Delimiter means the guess
// found no evidence. EnclosureKnown separates "detected none" from
// "never examined".
type Dialect struct {
	LineEnding     string
	Delimiter      string
	Enclosure      string
	EnclosureKnown bool
}

// Guess inspects a raw sample and returns frequency-count guesses for
// line ending, delimiter, and enclosure. enc names the encoding the
// sample bytes are in, when known; for wide encodings every candidate
// pattern is transcoded into that encoding before counting, since the
// raw sample cannot match single-byte patterns. Guess reads nothing and
// mutates nothing: the same sample always yields the same Dialect.
func Guess(sample []byte, enc string) Dialect {
	var d Dialect
	if len(sample) == 0 {
		return d
	}

	wide := charset.IsWide(enc)
	pat := func(s string) []byte {
		if !wide {
			return []byte(s)
		}
		p, err := charset.Encode([]byte(s), enc, false)
		if err != nil {
			return nil
		}
		return p
	}

	d.LineEnding = pickMost(sample, multiByteEndings, pat)
	if d.LineEnding == "" {
		d.LineEnding = pickMost(sample, singleByteEndings, pat)
	}

	stripped := sample
	if d.LineEnding != "" {
		stripped = bytes.ReplaceAll(sample, pat(d.LineEnding), nil)
	}

	d.Delimiter = pickMost(stripped, delimiters, pat)

	if d.Delimiter != "" {
		best, bestCount := "", -1
		for _, c := range enclosures {
			n := bytes.Count(stripped, pat(c+d.Delimiter+c))
			if n > bestCount {
				best, bestCount = c, n
			}
		}
		d.Enclosure, d.EnclosureKnown = best, true
	}

	return d
}

// pickMost returns the candidate with the highest occurrence count, or
// "" when nothing occurs at all.
func pickMost(sample []byte, candidates []string, pat func(string) []byte) string {
	best, bestCount := "", 0
	for _, c := range candidates {
		p := pat(c)
		if len(p) == 0 {
			continue
		}
		if n := bytes.Count(sample, p); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}
