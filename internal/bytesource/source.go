package bytesource

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/harborscm/csvsift/internal/replay"
)

const defaultChunkSize = 4096

// maxEmptyReads bounds retries against readers that return (0, nil).
const maxEmptyReads = 100

var ErrNotSeekable = errors.New("source is not seekable")

// Source adapts a byte stream for line-oriented scanning. Reads are
// served from pushed-back bytes first, then from an internal chunk
// buffer over the live stream. Seekable sources support repositioning;
// non-seekable ones rely on Unread to make sniffed bytes readable
// again.
type Source struct {
	r      io.Reader
	seeker io.Seeker
	closer io.Closer

	pushback replay.Buffer

	buf    []byte
	bufPos int
	bufLen int
	rdErr  error

	chunk    int
	consumed int64
}

// Seekable reports whether the source supports repositioning.
func (s *Source) Seekable() bool {
	return s.seeker != nil
}

// SetChunkSize sets the fill granularity for live reads. It must be
// called before the first read; later calls are ignored.
func (s *Source) SetChunkSize(n int) {
	if n > 0 && s.buf == nil {
		s.chunk = n
	}
}

// BytesRead returns the number of bytes consumed from the underlying
// stream so far, including bytes later pushed back. Repositioning with
// SeekTo resets the count to the new offset.
func (s *Source) BytesRead() int64 {
	return s.consumed
}

// Unread queues p to be read again before any further stream bytes.
// Calls must push back bytes in stream order.
func (s *Source) Unread(p []byte) {
	s.pushback.Append(p)
}

// SeekTo repositions a seekable source at the absolute offset off,
// dropping any pushed-back or buffered bytes.
func (s *Source) SeekTo(off int64) error {
	if s.seeker == nil {
		return ErrNotSeekable
	}
	if _, err := s.seeker.Seek(off, io.SeekStart); err != nil {
		return fmt.Errorf("seeking to offset %d: %w", off, err)
	}
	s.pushback.Discard()
	s.bufPos, s.bufLen = 0, 0
	s.rdErr = nil
	s.consumed = off
	return nil
}

// Close releases the underlying stream if the source owns it.
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	c := s.closer
	s.closer = nil
	return c.Close()
}

// ReadAtMost reads up to n bytes, fewer only at end of stream. It
// returns io.EOF only when no bytes at all are available.
func (s *Source) ReadAtMost(n int) ([]byte, error) {
	out := make([]byte, 0, n)
	for len(out) < n {
		w, err := s.window()
		if len(w) == 0 {
			if err == io.EOF {
				if len(out) == 0 {
					return nil, io.EOF
				}
				return out, nil
			}
			if err != nil {
				return out, err
			}
			continue
		}
		take := min(len(w), n-len(out))
		out = append(out, w[:take]...)
		s.advance(take)
	}
	return out, nil
}

// ReadUntil reads through the first occurrence of term, returning the
// bytes read including the terminator. At end of stream it returns the
// remaining bytes with io.EOF; io.EOF with no bytes means the stream
// was already exhausted. A positive max stops the read once at least
// max bytes have accumulated without a terminator; callers detect the
// unterminated case by checking the suffix.
func (s *Source) ReadUntil(term []byte, max int) ([]byte, error) {
	if len(term) == 0 {
		return nil, errors.New("empty terminator")
	}
	var out []byte
	for {
		w, err := s.window()
		if len(w) == 0 {
			if err == io.EOF {
				if len(out) == 0 {
					return nil, io.EOF
				}
				return out, io.EOF
			}
			if err != nil {
				return out, err
			}
			continue
		}

		// The terminator may straddle the previous window and this one.
		if len(out) > 0 && len(term) > 1 {
			tail := out[max0(len(out)-(len(term)-1)):]
			probe := make([]byte, 0, 2*(len(term)-1))
			probe = append(probe, tail...)
			probe = append(probe, w[:min(len(w), len(term)-1)]...)
			if i := bytes.Index(probe, term); i >= 0 {
				need := i + len(term) - len(tail)
				out = append(out, w[:need]...)
				s.advance(need)
				return out, nil
			}
		}
		if i := bytes.Index(w, term); i >= 0 {
			out = append(out, w[:i+len(term)]...)
			s.advance(i + len(term))
			return out, nil
		}

		out = append(out, w...)
		s.advance(len(w))
		if max > 0 && len(out) >= max {
			return out, nil
		}
	}
}

// window returns the next run of readable bytes without consuming
// them: pushed-back bytes first, then the chunk buffer, filling it
// from the stream when empty.
func (s *Source) window() ([]byte, error) {
	if s.pushback.Pending() {
		return s.pushback.Window(), nil
	}
	if s.bufPos < s.bufLen {
		return s.buf[s.bufPos:s.bufLen], nil
	}
	if err := s.fill(); err != nil {
		return nil, err
	}
	return s.buf[s.bufPos:s.bufLen], nil
}

func (s *Source) advance(n int) {
	if s.pushback.Pending() {
		s.pushback.Skip(n)
		return
	}
	s.bufPos += n
}

func (s *Source) fill() error {
	if s.rdErr != nil {
		return s.rdErr
	}
	if s.buf == nil {
		if s.chunk <= 0 {
			s.chunk = defaultChunkSize
		}
		s.buf = make([]byte, s.chunk)
	}
	for i := 0; i < maxEmptyReads; i++ {
		n, err := s.r.Read(s.buf)
		s.bufPos, s.bufLen = 0, n
		s.consumed += int64(n)
		if err != nil {
			s.rdErr = err
			if n > 0 {
				return nil
			}
			return err
		}
		if n > 0 {
			return nil
		}
	}
	s.rdErr = io.ErrNoProgress
	return s.rdErr
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
