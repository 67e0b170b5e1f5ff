// Package reader implements a streaming, encoding-aware reader for
// delimited text. It detects byte order marks, character encoding,
// line terminator, field delimiter, and quoting from the stream
// itself, fills in whatever the caller did not configure, and
// iterates header-mapped records over seekable files and forward-only
// streams alike.
package reader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/harborscm/csvsift/internal/bytesource"
	"github.com/harborscm/csvsift/internal/cells"
	"github.com/harborscm/csvsift/internal/charset"
	"github.com/harborscm/csvsift/internal/fields"
)

const defaultChunkSize = 4096

// Reader iterates header-mapped records over a delimited byte stream.
// It is not safe for concurrent use; exactly one consumer drives Next.
type Reader struct {
	src  *bytesource.Source
	opts Options
	log  *slog.Logger

	internal  string
	fileEnc   string
	transcode bool
	bomLen    int

	sepFile []byte // line terminator as encoded in the file
	sepTok  []byte // line terminator in the tokenization encoding
	tok     cells.Tokenizer
	chunk   int

	fields *fields.Map
	det    Detection

	rec       Record
	ordinal   int64
	blank     bool
	exhausted bool
	err       error
}

// Open opens path and constructs a reader over it. Compressed files
// (gzip, bzip2, zstd, xz, lz4) are recognized by extension,
// decompressed transparently, and read as forward-only streams. The
// reader owns the handle; Close releases it.
func Open(path string, opts Options) (*Reader, error) {
	src, err := bytesource.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	r, err := New(src, opts)
	if err != nil {
		src.Close()
		return nil, err
	}
	return r, nil
}

// FromReader constructs a reader over rd. The stream is borrowed, so
// closing stays with the caller. Seekability is probed: an *os.File
// gets rewind support, a pipe does not.
func FromReader(rd io.Reader, opts Options) (*Reader, error) {
	return New(bytesource.FromReader(rd), opts)
}

// New constructs a reader over src: it resolves encoding and dialect,
// reads the header row, and builds the field map. Any detection or
// header error aborts construction; no partially usable reader is
// ever returned.
func New(src *bytesource.Source, opts Options) (*Reader, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	r := &Reader{
		src:      src,
		opts:     opts,
		log:      opts.logger(),
		internal: charset.Canon(opts.internal()),
		chunk:    opts.ChunkSize,
		ordinal:  -1,
	}
	if r.chunk <= 0 {
		r.chunk = defaultChunkSize
	} else {
		src.SetChunkSize(r.chunk)
	}
	if err := r.detect(); err != nil {
		return nil, err
	}
	if err := r.readHeader(); err != nil {
		return nil, err
	}
	return r, nil
}

// FieldNames returns the mapped field names in column order.
func (r *Reader) FieldNames() []string { return r.fields.Names() }

// Record returns the current row, or nil before the first advance and
// after exhaustion. The record is only valid until the next call to
// Next.
func (r *Reader) Record() Record { return r.rec }

// Ordinal returns the zero-based index of the current row, or -1
// before the first advance and after exhaustion.
func (r *Reader) Ordinal() int64 { return r.ordinal }

// Blank reports whether the current row came from a blank line.
func (r *Reader) Blank() bool { return r.blank }

// Err returns the first error encountered during iteration, nil after
// a clean end of stream.
func (r *Reader) Err() error { return r.err }

// Seekable reports whether the source supports Rewind.
func (r *Reader) Seekable() bool { return r.src.Seekable() }

// Detection reports how the source's format was resolved.
func (r *Reader) Detection() Detection { return r.det }

// BytesRead returns the number of bytes consumed from the source.
func (r *Reader) BytesRead() int64 { return r.src.BytesRead() }

// Close releases the underlying source if the reader owns it.
func (r *Reader) Close() error { return r.src.Close() }

// Next advances to the next row, returning false at end of stream or
// on error; Err tells the two apart. Blank lines surface as all-empty
// records unless SkipEmptyLines is set.
func (r *Reader) Next() bool {
	if r.err != nil || r.exhausted {
		return false
	}
	for {
		line, err := r.readLogicalLine(r.opts.StrictDecode)
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.exhaust()
				return false
			}
			if errors.Is(err, charset.ErrInvalidBytes) {
				err = &DecodeError{Encoding: r.fileEnc, Row: r.ordinal + 1, Err: err}
			}
			r.err = err
			return false
		}
		if len(line) == 0 {
			if r.surfaceBlank() {
				return true
			}
			continue
		}
		vals := r.tok.Split(line)
		if len(vals) == 0 || (len(vals) == 1 && strings.TrimSpace(vals[0]) == "") {
			if r.surfaceBlank() {
				return true
			}
			continue
		}
		r.ordinal++
		r.blank = false
		r.rec = r.project(vals)
		return true
	}
}

// Rewind repositions a seekable reader before the first data row, so
// the next call to Next replays the rows from the start. The header
// line is consumed again and discarded, not re-mapped. Forward-only
// sources return ErrNotSeekable.
func (r *Reader) Rewind() error {
	if !r.src.Seekable() {
		return ErrNotSeekable
	}
	if err := r.src.SeekTo(int64(r.bomLen)); err != nil {
		return err
	}
	r.err = nil
	r.exhausted = false
	r.ordinal = -1
	r.rec = nil
	r.blank = false
	if _, err := r.readLogicalLine(false); err != nil && !errors.Is(err, io.EOF) {
		r.err = err
		return err
	}
	return nil
}

func (r *Reader) readHeader() error {
	line, err := r.readLogicalLine(true)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ErrNoHeader
		}
		if errors.Is(err, charset.ErrInvalidBytes) {
			return &DecodeError{Encoding: r.fileEnc, Row: -1, Err: err}
		}
		return err
	}
	r.fields, err = fields.Build(r.tok.Split(line), fields.Options{
		Normalizer: r.opts.FieldNormalizer,
		Aliases:    r.opts.FieldAliases,
		Include:    r.opts.IncludeFields,
	})
	if err != nil {
		return err
	}
	r.debugLog("header mapped", "fields", r.fields.Names())
	return nil
}

// readLogicalLine reads the next logical row in the tokenization
// encoding: a raw terminator-delimited read, transcoding, and joining
// of physical lines while a quoted field stays open. io.EOF means the
// stream ended before any byte of a new line.
func (r *Reader) readLogicalLine(strict bool) ([]byte, error) {
	raw, rerr := r.rawLine()
	if rerr != nil && rerr != io.EOF {
		return nil, fmt.Errorf("failed to read line: %w", rerr)
	}
	if len(raw) == 0 {
		return nil, io.EOF
	}
	atEOF := rerr == io.EOF
	line, err := r.transcodeLine(bytes.TrimSuffix(raw, r.sepFile), strict)
	if err != nil {
		return nil, err
	}
	for !atEOF && len(r.tok.Enclosure) > 0 && !r.tok.Balanced(line) {
		raw, rerr = r.rawLine()
		if rerr != nil && rerr != io.EOF {
			return nil, fmt.Errorf("failed to read line: %w", rerr)
		}
		if len(raw) == 0 {
			break
		}
		atEOF = rerr == io.EOF
		part, err := r.transcodeLine(bytes.TrimSuffix(raw, r.sepFile), strict)
		if err != nil {
			return nil, err
		}
		line = append(append(line, r.sepTok...), part...)
	}
	return line, nil
}

// rawLine accumulates terminator-delimited reads until the terminator
// or end of stream, so rows longer than one chunk are never split.
func (r *Reader) rawLine() ([]byte, error) {
	var line []byte
	for {
		part, err := r.src.ReadUntil(r.sepFile, r.chunk)
		line = append(line, part...)
		if err != nil {
			return line, err
		}
		if bytes.HasSuffix(line, r.sepFile) {
			return line, nil
		}
	}
}

func (r *Reader) transcodeLine(line []byte, strict bool) ([]byte, error) {
	if !r.transcode || len(line) == 0 {
		return line, nil
	}
	return charset.Convert(line, r.fileEnc, r.internal, strict)
}

func (r *Reader) surfaceBlank() bool {
	if r.opts.SkipEmptyLines {
		return false
	}
	r.ordinal++
	r.blank = true
	rec := make(Record, r.fields.Len())
	for _, name := range r.fields.Names() {
		rec[name] = Value{}
	}
	r.rec = rec
	return true
}

// project builds the record for one tokenized row. Cells are trimmed;
// an empty cell, like a column the row never reached, carries no
// value.
func (r *Reader) project(vals []string) Record {
	rec := make(Record, r.fields.Len())
	for _, name := range r.fields.Names() {
		col, _ := r.fields.Index(name)
		v := Value{}
		if col < len(vals) {
			if s := strings.TrimSpace(vals[col]); s != "" {
				v = Value{String: s, Valid: true}
			}
		}
		rec[name] = v
	}
	return rec
}

func (r *Reader) exhaust() {
	r.exhausted = true
	r.ordinal = -1
	r.rec = nil
	r.blank = false
}

func (r *Reader) debugLog(msg string, args ...any) {
	if r.opts.Debug {
		r.log.Debug(msg, args...)
	}
}
