package charset

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

// DetectionOrder builds the ordered candidate list for content-based
// encoding detection: the internal encoding first, then the fixed
// fallback ladder, deduplicated on canonical names.
func DetectionOrder(internal string) []string {
	raw := []string{internal, UTF32BE, UTF32LE, UTF16BE, UTF16LE, UTF8, Win1252, "cp1252", Latin1}
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, c := range raw {
		if c == "" {
			continue
		}
		key := strings.ToLower(Canon(c))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, Canon(c))
	}
	return out
}

// Detect returns the first candidate encoding under which the sample
// validates as a legal decoding. truncated marks a sample cut at a byte
// cap rather than ending with the stream, which permits clipping a
// partial trailing character instead of rejecting the candidate.
func Detect(sample []byte, truncated bool, candidates []string) (string, bool) {
	for _, c := range candidates {
		if Valid(sample, c, truncated) {
			return Canon(c), true
		}
	}
	return "", false
}

// Valid reports whether sample decodes cleanly under the named
// encoding. A complete sample must align with the encoding's code-unit
// width; a truncated one is clipped to whole units first. Decoded NUL
// characters disqualify a candidate: delimited text never carries NULs,
// while a wrong code-unit width manufactures them.
func Valid(sample []byte, name string, truncated bool) bool {
	if len(sample) == 0 {
		return false
	}
	s := sample
	if rem := len(s) % Unit(name); rem != 0 {
		if !truncated {
			return false
		}
		s = s[:len(s)-rem]
	}
	if truncated {
		if c := Canon(name); c == UTF8 || c == ASCII {
			s = clipUTF8Tail(s)
		}
	}
	if len(s) == 0 {
		return false
	}
	dec, err := Lookup(name)
	if err != nil {
		return false
	}
	out, err := dec.NewDecoder().Bytes(s)
	if err != nil {
		return false
	}
	if bytes.ContainsRune(out, utf8.RuneError) || bytes.ContainsRune(out, 0) {
		return false
	}
	return true
}

// clipUTF8Tail drops a trailing incomplete UTF-8 sequence left by a
// byte-count cut.
func clipUTF8Tail(b []byte) []byte {
	for i := 1; i <= utf8.UTFMax && i <= len(b); i++ {
		c := b[len(b)-i]
		if c < 0x80 {
			return b
		}
		if utf8.RuneStart(c) {
			if utf8.Valid(b[len(b)-i:]) {
				return b
			}
			return b[:len(b)-i]
		}
	}
	return b
}
