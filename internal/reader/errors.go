package reader

import (
	"errors"
	"fmt"

	"github.com/harborscm/csvsift/internal/bytesource"
)

var (
	// ErrEmptySource reports a source with no bytes at all.
	ErrEmptySource = errors.New("source is empty")

	// ErrNoHeader reports a source that ends before a header row.
	ErrNoHeader = errors.New("source has no header row")

	// ErrUnsupportedEncoding reports an encoding the detector cannot
	// resolve, or cannot read line-wise on a forward-only stream.
	ErrUnsupportedEncoding = errors.New("unsupported encoding")

	// ErrNotSeekable reports a rewind attempt on a forward-only source.
	ErrNotSeekable = bytesource.ErrNotSeekable
)

// InvalidOptionError reports an unknown option name or a malformed
// value. Construction never partially applies options.
type InvalidOptionError struct {
	Option string
	Reason string
}

func (e *InvalidOptionError) Error() string {
	return fmt.Sprintf("invalid option %q: %s", e.Option, e.Reason)
}

// DecodeError reports bytes that do not decode under the resolved file
// encoding. Row counts surfaced rows from zero; -1 means the header.
type DecodeError struct {
	Encoding string
	Row      int64
	Err      error
}

func (e *DecodeError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("header does not decode as %s: %v", e.Encoding, e.Err)
	}
	return fmt.Sprintf("row %d does not decode as %s: %v", e.Row, e.Encoding, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
