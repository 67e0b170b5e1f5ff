package bytesource

import (
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// Open opens path as a byte source. Compressed files are recognized by
// extension and decompressed transparently; decompressed streams are
// non-seekable. The returned source owns the handle and must be closed.
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening source: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		return &Source{r: zr, closer: chainCloser{zr, f}}, nil
	case ".bz2":
		return &Source{r: bzip2.NewReader(f), closer: f}, nil
	case ".zst", ".zstd":
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("opening zstd stream: %w", err)
		}
		rc := zr.IOReadCloser()
		return &Source{r: rc, closer: chainCloser{rc, f}}, nil
	case ".xz":
		xr, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("opening xz stream: %w", err)
		}
		return &Source{r: xr, closer: f}, nil
	case ".lz4":
		return &Source{r: lz4.NewReader(f), closer: f}, nil
	}

	if probeSeek(f) {
		return &Source{r: f, seeker: f, closer: f}, nil
	}
	return &Source{r: f, closer: f}, nil
}

// FromReader wraps an already-open stream. Ownership stays with the
// caller; Close on the source never closes r. Seekability is probed, so
// readers backed by files or byte slices remain rewindable.
func FromReader(r io.Reader) *Source {
	if sk, ok := r.(io.Seeker); ok && probeSeek(sk) {
		return &Source{r: r, seeker: sk}
	}
	return &Source{r: r}
}

// IsCompressed reports whether path carries a recognized compression
// extension.
func IsCompressed(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".bz2", ".zst", ".zstd", ".xz", ".lz4":
		return true
	}
	return false
}

// probeSeek checks that seeking actually works; pipes expose Seek but
// fail with ESPIPE.
func probeSeek(sk io.Seeker) bool {
	_, err := sk.Seek(0, io.SeekCurrent)
	return err == nil
}

type chainCloser struct {
	first io.Closer
	then  io.Closer
}

func (c chainCloser) Close() error {
	err := c.first.Close()
	if cerr := c.then.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
