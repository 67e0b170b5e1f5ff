package charset

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// Canonical encoding names used across detection and reporting.
const (
	UTF8    = "UTF-8"
	UTF16LE = "UTF-16LE"
	UTF16BE = "UTF-16BE"
	UTF32LE = "UTF-32LE"
	UTF32BE = "UTF-32BE"
	UTF16   = "UTF-16"
	UTF32   = "UTF-32"
	Win1252 = "Windows-1252"
	Latin1  = "ISO-8859-1"
	ASCII   = "ASCII"
)

// aliases maps lowercased spellings, vendor prefixes included, onto the
// canonical names.
var aliases = map[string]string{
	"utf8":         UTF8,
	"utf-8":        UTF8,
	"utf16":        UTF16,
	"utf-16":       UTF16,
	"utf16le":      UTF16LE,
	"utf-16le":     UTF16LE,
	"utf-16-le":    UTF16LE,
	"utf16be":      UTF16BE,
	"utf-16be":     UTF16BE,
	"utf-16-be":    UTF16BE,
	"utf32":        UTF32,
	"utf-32":       UTF32,
	"utf32le":      UTF32LE,
	"utf-32le":     UTF32LE,
	"utf-32-le":    UTF32LE,
	"utf32be":      UTF32BE,
	"utf-32be":     UTF32BE,
	"utf-32-be":    UTF32BE,
	"cp1252":       Win1252,
	"cp-1252":      Win1252,
	"windows1252":  Win1252,
	"windows-1252": Win1252,
	"x-cp1252":     Win1252,
	"iso8859-1":    Latin1,
	"iso-8859-1":   Latin1,
	"iso_8859-1":   Latin1,
	"latin1":       Latin1,
	"latin-1":      Latin1,
	"ascii":        ASCII,
	"us-ascii":     ASCII,
}

// Canon maps a caller-supplied encoding name to its canonical spelling.
// Unrecognized names pass through trimmed, for the IANA registry lookup.
func Canon(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if c, ok := aliases[key]; ok {
		return c
	}
	return strings.TrimSpace(name)
}

// Same reports whether two encoding names refer to the same encoding,
// comparing canonical forms case-insensitively.
func Same(a, b string) bool {
	return strings.EqualFold(Canon(a), Canon(b))
}

// IsWide reports whether the encoding is a fixed-width multi-byte
// (UTF-16/32) family member.
func IsWide(name string) bool {
	switch Canon(name) {
	case UTF16, UTF16LE, UTF16BE, UTF32, UTF32LE, UTF32BE:
		return true
	}
	return false
}

// Unit returns the code-unit width in bytes.
func Unit(name string) int {
	switch Canon(name) {
	case UTF16, UTF16LE, UTF16BE:
		return 2
	case UTF32, UTF32LE, UTF32BE:
		return 4
	}
	return 1
}

// LineBreak returns the encoded LF and CR byte patterns for the wide
// encodings with a known endianness. ok is false for every other
// encoding, including endianness-less UTF-16/32.
func LineBreak(name string) (lf, cr []byte, ok bool) {
	switch Canon(name) {
	case UTF16LE:
		return []byte{0x0A, 0x00}, []byte{0x0D, 0x00}, true
	case UTF16BE:
		return []byte{0x00, 0x0A}, []byte{0x00, 0x0D}, true
	case UTF32LE:
		return []byte{0x0A, 0x00, 0x00, 0x00}, []byte{0x0D, 0x00, 0x00, 0x00}, true
	case UTF32BE:
		return []byte{0x00, 0x00, 0x00, 0x0A}, []byte{0x00, 0x00, 0x00, 0x0D}, true
	}
	return nil, nil, false
}

// Lookup resolves an encoding name to its codec. Names outside the
// built-in set go through the IANA registry.
func Lookup(name string) (encoding.Encoding, error) {
	switch Canon(name) {
	case UTF8, ASCII:
		return unicode.UTF8, nil
	case UTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), nil
	case UTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), nil
	case UTF16:
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM), nil
	case UTF32LE:
		return utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM), nil
	case UTF32BE:
		return utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM), nil
	case UTF32:
		return utf32.UTF32(utf32.BigEndian, utf32.UseBOM), nil
	case Win1252:
		return charmap.Windows1252, nil
	case Latin1:
		return charmap.ISO8859_1, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	return enc, nil
}

// NeedTranscode decides whether bytes in the file encoding must be
// re-encoded to reach the internal encoding. Identical encodings and
// known-safe subset pairs skip the conversion.
func NeedTranscode(file, internal string) bool {
	if Same(file, internal) {
		return false
	}
	return !subset(file, internal)
}

// subset reports whether every valid file-encoding byte sequence is
// already a valid internal-encoding sequence with the same meaning.
func subset(file, internal string) bool {
	f, i := Canon(file), Canon(internal)
	switch f {
	case ASCII:
		return i == UTF8 || i == Win1252 || i == Latin1
	case Latin1:
		return i == Win1252
	}
	return false
}
