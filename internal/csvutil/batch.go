package csvutil

import (
	"fmt"
	"io"

	"github.com/harborscm/csvsift/internal/reader"
)

// Reader adapts a streaming delimited-text reader to chunked batch reads,
// projecting each record onto the header order as plain strings.
type Reader struct {
	r     *reader.Reader
	names []string
}

// NewReader opens the file at path and reads its header row. Encoding,
// dialect, and compression are resolved by the underlying reader.
func NewReader(path string, opts reader.Options) (*Reader, error) {
	r, err := reader.Open(path, opts)
	if err != nil {
		return nil, err
	}

	return &Reader{
		r:     r,
		names: r.FieldNames(),
	}, nil
}

// Headers returns the resolved field names.
func (r *Reader) Headers() []string {
	return r.names
}

// Detection reports how the source was interpreted.
func (r *Reader) Detection() reader.Detection {
	return r.r.Detection()
}

// BytesRead returns the number of raw bytes consumed so far.
func (r *Reader) BytesRead() int64 {
	return r.r.BytesRead()
}

// ReadBatch reads up to n rows. Missing and undecodable values come back as
// empty strings. Returns the rows read and io.EOF when the source is
// exhausted. A final partial batch is returned with io.EOF.
func (r *Reader) ReadBatch(n int) ([][]string, error) {
	batch := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		if !r.r.Next() {
			if err := r.r.Err(); err != nil {
				return batch, fmt.Errorf("reading row: %w", err)
			}
			return batch, io.EOF
		}

		rec := r.r.Record()
		row := make([]string, len(r.names))
		for i, name := range r.names {
			if v, ok := rec[name]; ok && v.Valid {
				row[i] = v.String
			}
		}
		batch = append(batch, row)
	}
	return batch, nil
}

// Close closes the underlying source.
func (r *Reader) Close() error {
	return r.r.Close()
}
