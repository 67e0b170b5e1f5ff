package reader

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/harborscm/csvsift/internal/cells"
	"github.com/harborscm/csvsift/internal/charset"
	"github.com/harborscm/csvsift/internal/sniff"
)

// Sniffing sample bounds: enough lines to vote on a dialect without
// holding the whole stream.
const (
	sampleBytes = 16 * 1024
	sampleLines = 100
)

// Detection reports how the reader resolved the source's format.
// Dialect values carry their logical single-byte spelling even when
// the file itself is a wide encoding.
type Detection struct {
	FileEncoding     string
	InternalEncoding string
	ByteOrderMark    string // encoding named by the BOM, "" when absent
	BOMLength        int
	LineSeparator    string
	Delimiter        string
	Enclosure        string // "" when fields are unquoted
	Transcoding      bool
	Sniffed          bool
}

// detect runs the construction pipeline: BOM, encoding, line
// separator, and dialect, each resolved from explicit options first
// and stream evidence second. On a seekable source the stream is left
// positioned just past the BOM; on a forward-only one every sampled
// byte is pushed back for replay.
func (r *Reader) detect() error {
	probe, err := r.src.ReadAtMost(4)
	if err == io.EOF {
		return ErrEmptySource
	}
	if err != nil {
		return fmt.Errorf("failed to probe source: %w", err)
	}

	bomEnc, bomLen := charset.SniffBOM(probe)
	r.bomLen = bomLen
	if r.src.Seekable() {
		if err := r.src.SeekTo(int64(bomLen)); err != nil {
			return err
		}
	} else if len(probe) > bomLen {
		r.src.Unread(probe[bomLen:])
	}
	if bomEnc != "" {
		r.debugLog("byte order mark", "encoding", bomEnc, "length", bomLen)
	}

	fileEnc := ""
	switch {
	case r.opts.FileEncoding != "":
		fileEnc = charset.Canon(r.opts.FileEncoding)
	case bomEnc != "":
		fileEnc = bomEnc
	}

	needDialect := r.opts.Delimiter == "" || r.opts.Enclosure == nil || r.opts.LineSeparator == ""
	needEncoding := fileEnc == ""

	var (
		sample    []byte
		truncated bool
		preSep    []byte
		preSepStr string
	)
	if needDialect || needEncoding {
		sample, truncated, preSep, preSepStr, err = r.sampleSource(fileEnc)
		if err != nil {
			return err
		}
	}

	sniffed := false
	if needEncoding {
		enc, ok := charset.Detect(sample, truncated, charset.DetectionOrder(r.internal))
		if !ok {
			return fmt.Errorf("%w: no candidate matches the sample", ErrUnsupportedEncoding)
		}
		fileEnc = enc
		sniffed = true
		r.debugLog("file encoding detected", "encoding", fileEnc)
	}
	r.fileEnc = fileEnc
	r.transcode = charset.NeedTranscode(fileEnc, r.internal)

	var guess sniff.Dialect
	if needDialect && len(sample) > 0 {
		guess = sniff.Guess(sample, fileEnc)
		sniffed = true
		r.debugLog("dialect sniffed",
			"line_ending", strconv.Quote(guess.LineEnding),
			"delimiter", strconv.Quote(guess.Delimiter),
			"enclosure", strconv.Quote(guess.Enclosure))
	}

	sep := "\n"
	switch {
	case r.opts.LineSeparator != "":
		sep = r.opts.LineSeparator
	case preSepStr != "":
		sep = preSepStr
	case guess.LineEnding != "":
		sep = guess.LineEnding
	}

	delim := ","
	switch {
	case r.opts.Delimiter != "":
		delim = r.opts.Delimiter
	case guess.Delimiter != "":
		delim = guess.Delimiter
	}

	encl := `"`
	switch {
	case r.opts.Enclosure != nil:
		encl = *r.opts.Enclosure
	case guess.EnclosureKnown:
		encl = guess.Enclosure
	}

	esc := r.opts.Escape
	if esc == "" {
		esc = `\`
	}

	if len(preSep) > 0 && r.opts.LineSeparator == "" {
		r.sepFile = preSep
	} else if r.sepFile, err = patternIn(sep, fileEnc); err != nil {
		return &InvalidOptionError{Option: "line_separator", Reason: err.Error()}
	}

	tokEnc := fileEnc
	if r.transcode {
		tokEnc = r.internal
	}
	if r.sepTok, err = patternIn(sep, tokEnc); err != nil {
		return &InvalidOptionError{Option: "line_separator", Reason: err.Error()}
	}
	d, err := patternIn(delim, tokEnc)
	if err != nil {
		return &InvalidOptionError{Option: "delimiter", Reason: err.Error()}
	}
	e, err := patternIn(encl, tokEnc)
	if err != nil {
		return &InvalidOptionError{Option: "enclosure", Reason: err.Error()}
	}
	x, err := patternIn(esc, tokEnc)
	if err != nil {
		return &InvalidOptionError{Option: "escape", Reason: err.Error()}
	}
	r.tok = cells.Tokenizer{Delimiter: d, Enclosure: e, Escape: x, Unit: charset.Unit(tokEnc)}

	r.det = Detection{
		FileEncoding:     fileEnc,
		InternalEncoding: r.internal,
		ByteOrderMark:    bomEnc,
		BOMLength:        bomLen,
		LineSeparator:    sep,
		Delimiter:        delim,
		Enclosure:        encl,
		Transcoding:      r.transcode,
		Sniffed:          sniffed,
	}
	r.debugLog("format resolved",
		"encoding", fileEnc,
		"internal", r.internal,
		"line_separator", strconv.Quote(sep),
		"delimiter", strconv.Quote(delim),
		"enclosure", strconv.Quote(encl),
		"transcoding", r.transcode)
	return nil
}

// sampleSource gathers the sniffing sample. Seekable sources read a
// prefix and seek back behind the BOM. Forward-only sources push every
// sampled byte back for replay; when the encoding is a wide family and
// no separator was configured, the sample is a single line read with
// that encoding's LF pattern, which doubles as the line-separator
// pre-resolution (a CR pattern before the terminator upgrades it to
// CRLF).
func (r *Reader) sampleSource(fileEnc string) (sample []byte, truncated bool, preSep []byte, preSepStr string, err error) {
	if r.src.Seekable() {
		sample, err = r.src.ReadAtMost(sampleBytes)
		if err != nil && err != io.EOF {
			return nil, false, nil, "", fmt.Errorf("failed to sample source: %w", err)
		}
		if err := r.src.SeekTo(int64(r.bomLen)); err != nil {
			return nil, false, nil, "", err
		}
		return sample, len(sample) == sampleBytes, nil, "", nil
	}

	if charset.IsWide(fileEnc) && r.opts.LineSeparator == "" {
		lf, cr, ok := charset.LineBreak(fileEnc)
		if !ok {
			return nil, false, nil, "", fmt.Errorf("%w: no line terminator pattern for %s on a stream", ErrUnsupportedEncoding, fileEnc)
		}
		var line []byte
		eof := false
		for len(line) < sampleBytes {
			part, perr := r.src.ReadUntil(lf, sampleBytes-len(line))
			line = append(line, part...)
			if perr == io.EOF {
				eof = true
				break
			}
			if perr != nil {
				return nil, false, nil, "", fmt.Errorf("failed to sample source: %w", perr)
			}
			if bytes.HasSuffix(line, lf) {
				break
			}
		}
		if bytes.HasSuffix(line, lf) {
			preSep, preSepStr = lf, "\n"
			if body := line[:len(line)-len(lf)]; bytes.HasSuffix(body, cr) {
				preSep = append(append([]byte{}, cr...), lf...)
				preSepStr = "\r\n"
			}
		}
		r.src.Unread(line)
		return line, !eof && !bytes.HasSuffix(line, lf), preSep, preSepStr, nil
	}

	term := []byte{'\n'}
	if r.opts.LineSeparator != "" {
		if term, err = patternIn(r.opts.LineSeparator, fileEnc); err != nil {
			return nil, false, nil, "", &InvalidOptionError{Option: "line_separator", Reason: err.Error()}
		}
	}
	eof := false
	for lines := 0; len(sample) < sampleBytes && lines < sampleLines; lines++ {
		part, perr := r.src.ReadUntil(term, sampleBytes-len(sample))
		sample = append(sample, part...)
		if perr == io.EOF {
			eof = true
			break
		}
		if perr != nil {
			return nil, false, nil, "", fmt.Errorf("failed to sample source: %w", perr)
		}
		if !bytes.HasSuffix(sample, term) {
			break
		}
	}
	r.src.Unread(sample)
	return sample, !eof, nil, "", nil
}

// patternIn renders a logical pattern in the named encoding. An
// unresolved encoding leaves the bytes as they are.
func patternIn(s, enc string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	if enc == "" {
		return []byte(s), nil
	}
	return charset.Convert([]byte(s), charset.UTF8, enc, true)
}
