package charset

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
)

// ErrInvalidBytes reports input that does not decode cleanly in the
// declared source encoding.
var ErrInvalidBytes = errors.New("byte sequence invalid in source encoding")

// Decode converts raw bytes in the named encoding into UTF-8. In strict
// mode any malformed sequence fails with ErrInvalidBytes; otherwise
// malformed sequences decode to U+FFFD.
func Decode(b []byte, from string, strict bool) ([]byte, error) {
	dec, err := Lookup(from)
	if err != nil {
		return nil, err
	}
	out, err := dec.NewDecoder().Bytes(b)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", from, err)
	}
	if strict && bytes.ContainsRune(out, utf8.RuneError) {
		return nil, fmt.Errorf("decoding %s: %w", from, ErrInvalidBytes)
	}
	return out, nil
}

// Encode converts UTF-8 bytes into the named encoding. In lossy mode
// unrepresentable characters become substitutes instead of failing.
func Encode(b []byte, to string, lossy bool) ([]byte, error) {
	enc, err := Lookup(to)
	if err != nil {
		return nil, err
	}
	e := enc.NewEncoder()
	if lossy {
		e = encoding.ReplaceUnsupported(e)
		b = bytes.ToValidUTF8(b, []byte("�"))
	}
	out, err := e.Bytes(b)
	if err != nil {
		return nil, fmt.Errorf("encoding to %s: %w", to, err)
	}
	return out, nil
}

// Convert re-encodes raw bytes from one named encoding into another,
// short-circuiting pairs that need no transcoding. Strict conversions
// fail on malformed or unrepresentable input; lossy ones substitute.
func Convert(b []byte, from, to string, strict bool) ([]byte, error) {
	if !NeedTranscode(from, to) {
		return b, nil
	}
	u, err := Decode(b, from, strict)
	if err != nil {
		return nil, err
	}
	if Same(to, UTF8) {
		return u, nil
	}
	return Encode(u, to, !strict)
}
