package reader

import (
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/harborscm/csvsift/internal/charset"
	"github.com/harborscm/csvsift/internal/fields"
)

// forwardOnly hides the Seeker of the wrapped reader, forcing the
// replay-buffer path.
type forwardOnly struct {
	r io.Reader
}

func (f forwardOnly) Read(p []byte) (int, error) { return f.r.Read(p) }

func encodeText(t *testing.T, s, enc string) []byte {
	t.Helper()
	b, err := charset.Encode([]byte(s), enc, false)
	if err != nil {
		t.Fatalf("encoding sample as %s: %v", enc, err)
	}
	return b
}

func collectRecords(t *testing.T, r *Reader) []Record {
	t.Helper()
	var out []Record
	for r.Next() {
		out = append(out, r.Record())
	}
	if err := r.Err(); err != nil {
		t.Fatalf("iteration failed: %v", err)
	}
	return out
}

func v(s string) Value { return Value{String: s, Valid: true} }

func strptr(s string) *string { return &s }

func TestBOMDetection(t *testing.T) {
	tests := []struct {
		name   string
		bom    []byte
		enc    string
		length int
	}{
		{name: "utf-8", bom: []byte{0xEF, 0xBB, 0xBF}, enc: "UTF-8", length: 3},
		{name: "utf-16le", bom: []byte{0xFF, 0xFE}, enc: "UTF-16LE", length: 2},
		{name: "utf-16be", bom: []byte{0xFE, 0xFF}, enc: "UTF-16BE", length: 2},
		{name: "utf-32le", bom: []byte{0xFF, 0xFE, 0x00, 0x00}, enc: "UTF-32LE", length: 4},
		{name: "utf-32be", bom: []byte{0x00, 0x00, 0xFE, 0xFF}, enc: "UTF-32BE", length: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := append(append([]byte{}, tt.bom...), encodeText(t, "a,b\nx,y\n", tt.enc)...)
			r, err := FromReader(bytes.NewReader(data), Options{})
			if err != nil {
				t.Fatalf("FromReader: %v", err)
			}
			det := r.Detection()
			if det.ByteOrderMark != tt.enc || det.BOMLength != tt.length {
				t.Fatalf("BOM = (%q, %d), want (%q, %d)", det.ByteOrderMark, det.BOMLength, tt.enc, tt.length)
			}
			if det.FileEncoding != tt.enc {
				t.Fatalf("FileEncoding = %q, want %q", det.FileEncoding, tt.enc)
			}
			if want := []string{"a", "b"}; !reflect.DeepEqual(r.FieldNames(), want) {
				t.Fatalf("FieldNames = %v, want %v", r.FieldNames(), want)
			}
			recs := collectRecords(t, r)
			want := []Record{{"a": v("x"), "b": v("y")}}
			if !reflect.DeepEqual(recs, want) {
				t.Fatalf("records = %v, want %v", recs, want)
			}
		})
	}
}

func TestEmptySource(t *testing.T) {
	_, err := FromReader(bytes.NewReader(nil), Options{})
	if !errors.Is(err, ErrEmptySource) {
		t.Fatalf("err = %v, want ErrEmptySource", err)
	}
}

func TestBOMOnlySource(t *testing.T) {
	_, err := FromReader(bytes.NewReader([]byte{0xEF, 0xBB, 0xBF}), Options{})
	if !errors.Is(err, ErrNoHeader) {
		t.Fatalf("err = %v, want ErrNoHeader", err)
	}
}

func TestDuplicateFieldName(t *testing.T) {
	_, err := FromReader(strings.NewReader("Name, Price ,Name\n1,2,3\n"), Options{})
	var derr *fields.DuplicateFieldError
	if !errors.As(err, &derr) {
		t.Fatalf("err = %v, want DuplicateFieldError", err)
	}
	if derr.Name != "Name" {
		t.Fatalf("duplicate = %q, want %q", derr.Name, "Name")
	}
}

func TestMissingRequiredFields(t *testing.T) {
	_, err := FromReader(strings.NewReader("Name,Price\nhammer,9\n"), Options{
		IncludeFields: []string{"Name", "SKU"},
	})
	var merr *fields.MissingFieldsError
	if !errors.As(err, &merr) {
		t.Fatalf("err = %v, want MissingFieldsError", err)
	}
	if want := []string{"SKU"}; !reflect.DeepEqual(merr.Names, want) {
		t.Fatalf("missing = %v, want %v", merr.Names, want)
	}
}

func TestRoundTripAfterRewind(t *testing.T) {
	r, err := FromReader(strings.NewReader("sku,qty\n100,5\n200,7"), Options{})
	if err != nil {
		t.Fatalf("FromReader: %v", err)
	}
	if !r.Seekable() {
		t.Fatal("bytes-backed source should be seekable")
	}
	if r.Ordinal() != -1 || r.Record() != nil {
		t.Fatalf("before first: ordinal %d, record %v", r.Ordinal(), r.Record())
	}

	first := collectRecords(t, r)
	want := []Record{
		{"sku": v("100"), "qty": v("5")},
		{"sku": v("200"), "qty": v("7")},
	}
	if !reflect.DeepEqual(first, want) {
		t.Fatalf("first pass = %v, want %v", first, want)
	}
	if r.Ordinal() != -1 {
		t.Fatalf("ordinal after exhaustion = %d, want -1", r.Ordinal())
	}

	if err := r.Rewind(); err != nil {
		t.Fatalf("Rewind: %v", err)
	}
	if r.Ordinal() != -1 {
		t.Fatalf("ordinal after rewind = %d, want -1", r.Ordinal())
	}
	second := collectRecords(t, r)
	if !reflect.DeepEqual(second, first) {
		t.Fatalf("second pass = %v, want %v", second, first)
	}
}

func TestRewindForwardOnly(t *testing.T) {
	r, err := FromReader(forwardOnly{strings.NewReader("a,b\n1,2\n")}, Options{})
	if err != nil {
		t.Fatalf("FromReader: %v", err)
	}
	if r.Seekable() {
		t.Fatal("wrapped source should not be seekable")
	}
	if err := r.Rewind(); !errors.Is(err, ErrNotSeekable) {
		t.Fatalf("Rewind err = %v, want ErrNotSeekable", err)
	}
	// A refused rewind must not poison iteration.
	recs := collectRecords(t, r)
	if want := []Record{{"a": v("1"), "b": v("2")}}; !reflect.DeepEqual(recs, want) {
		t.Fatalf("records = %v, want %v", recs, want)
	}
}

func TestBlankLines(t *testing.T) {
	const input = "a,b\n\nc,d\n"

	r, err := FromReader(strings.NewReader(input), Options{})
	if err != nil {
		t.Fatalf("FromReader: %v", err)
	}
	if !r.Next() {
		t.Fatalf("first advance failed: %v", r.Err())
	}
	if !r.Blank() || r.Ordinal() != 0 {
		t.Fatalf("step 1: blank %v ordinal %d, want blank at 0", r.Blank(), r.Ordinal())
	}
	if want := (Record{"a": {}, "b": {}}); !reflect.DeepEqual(r.Record(), want) {
		t.Fatalf("blank record = %v, want %v", r.Record(), want)
	}
	if !r.Next() {
		t.Fatalf("second advance failed: %v", r.Err())
	}
	if r.Blank() || r.Ordinal() != 1 {
		t.Fatalf("step 2: blank %v ordinal %d", r.Blank(), r.Ordinal())
	}
	if want := (Record{"a": v("c"), "b": v("d")}); !reflect.DeepEqual(r.Record(), want) {
		t.Fatalf("record = %v, want %v", r.Record(), want)
	}
	if r.Next() {
		t.Fatal("expected exhaustion after two steps")
	}

	r, err = FromReader(strings.NewReader(input), Options{SkipEmptyLines: true})
	if err != nil {
		t.Fatalf("FromReader: %v", err)
	}
	recs := collectRecords(t, r)
	if want := []Record{{"a": v("c"), "b": v("d")}}; !reflect.DeepEqual(recs, want) {
		t.Fatalf("records = %v, want %v", recs, want)
	}
}

func TestShortRows(t *testing.T) {
	r, err := FromReader(strings.NewReader("a,b,c\n1,2\n"), Options{})
	if err != nil {
		t.Fatalf("FromReader: %v", err)
	}
	recs := collectRecords(t, r)
	want := []Record{{"a": v("1"), "b": v("2"), "c": {}}}
	if !reflect.DeepEqual(recs, want) {
		t.Fatalf("records = %v, want %v", recs, want)
	}
}

func TestForwardOnlyMatchesSeekable(t *testing.T) {
	const input = "sku,qty,note\n100,5,áéí\n200,7,x\n\n300,1,y\n"

	seek, err := FromReader(strings.NewReader(input), Options{})
	if err != nil {
		t.Fatalf("seekable: %v", err)
	}
	fwd, err := FromReader(forwardOnly{strings.NewReader(input)}, Options{})
	if err != nil {
		t.Fatalf("forward-only: %v", err)
	}

	if !reflect.DeepEqual(seek.FieldNames(), fwd.FieldNames()) {
		t.Fatalf("field names differ: %v vs %v", seek.FieldNames(), fwd.FieldNames())
	}
	a, b := collectRecords(t, seek), collectRecords(t, fwd)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("record sequences differ:\nseekable: %v\nstream:   %v", a, b)
	}
}

func TestForwardOnlyWideBOM(t *testing.T) {
	data := append([]byte{0xFF, 0xFE}, encodeText(t, "sku,qty\r\n100,5\r\n200,7\r\n", "UTF-16LE")...)
	r, err := FromReader(forwardOnly{bytes.NewReader(data)}, Options{})
	if err != nil {
		t.Fatalf("FromReader: %v", err)
	}
	det := r.Detection()
	if det.FileEncoding != "UTF-16LE" || det.LineSeparator != "\r\n" {
		t.Fatalf("detection = %+v, want UTF-16LE with CRLF", det)
	}
	if !det.Transcoding {
		t.Fatal("UTF-16LE to UTF-8 must transcode")
	}
	recs := collectRecords(t, r)
	want := []Record{
		{"sku": v("100"), "qty": v("5")},
		{"sku": v("200"), "qty": v("7")},
	}
	if !reflect.DeepEqual(recs, want) {
		t.Fatalf("records = %v, want %v", recs, want)
	}
}

func TestQuotedFieldSniffed(t *testing.T) {
	r, err := FromReader(strings.NewReader("\"name\",\"note\"\n\"a\",\"line1\nline2\"\n"), Options{})
	if err != nil {
		t.Fatalf("FromReader: %v", err)
	}
	if det := r.Detection(); det.Enclosure != `"` {
		t.Fatalf("enclosure = %q, want double quote", det.Enclosure)
	}
	recs := collectRecords(t, r)
	want := []Record{{"name": v("a"), "note": v("line1\nline2")}}
	if !reflect.DeepEqual(recs, want) {
		t.Fatalf("records = %v, want %v", recs, want)
	}
}

func TestQuotedFieldExplicit(t *testing.T) {
	r, err := FromReader(strings.NewReader("name,note\n\"a,b\",\"x\"\n"), Options{
		Enclosure: strptr(`"`),
	})
	if err != nil {
		t.Fatalf("FromReader: %v", err)
	}
	recs := collectRecords(t, r)
	want := []Record{{"name": v("a,b"), "note": v("x")}}
	if !reflect.DeepEqual(recs, want) {
		t.Fatalf("records = %v, want %v", recs, want)
	}
}

func TestEnclosureDisabled(t *testing.T) {
	r, err := FromReader(strings.NewReader("a,b\n\"1\",2\n"), Options{
		Enclosure: strptr(""),
	})
	if err != nil {
		t.Fatalf("FromReader: %v", err)
	}
	recs := collectRecords(t, r)
	want := []Record{{"a": v(`"1"`), "b": v("2")}}
	if !reflect.DeepEqual(recs, want) {
		t.Fatalf("records = %v, want %v", recs, want)
	}
}

func TestExplicitDialect(t *testing.T) {
	r, err := FromReader(strings.NewReader("a;b\n'x;1';2\n"), Options{
		Delimiter: ";",
		Enclosure: strptr("'"),
	})
	if err != nil {
		t.Fatalf("FromReader: %v", err)
	}
	recs := collectRecords(t, r)
	want := []Record{{"a": v("x;1"), "b": v("2")}}
	if !reflect.DeepEqual(recs, want) {
		t.Fatalf("records = %v, want %v", recs, want)
	}
}

func TestCRLFSniffed(t *testing.T) {
	r, err := FromReader(strings.NewReader("a,b\r\n1,2\r\n"), Options{})
	if err != nil {
		t.Fatalf("FromReader: %v", err)
	}
	if det := r.Detection(); det.LineSeparator != "\r\n" {
		t.Fatalf("line separator = %q, want CRLF", det.LineSeparator)
	}
	recs := collectRecords(t, r)
	want := []Record{{"a": v("1"), "b": v("2")}}
	if !reflect.DeepEqual(recs, want) {
		t.Fatalf("records = %v, want %v", recs, want)
	}
}

func TestWindows1252Detected(t *testing.T) {
	// Odd byte count keeps the wide candidates out on alignment alone.
	data := []byte("name\ncaf\xE9s\n")
	r, err := FromReader(bytes.NewReader(data), Options{})
	if err != nil {
		t.Fatalf("FromReader: %v", err)
	}
	det := r.Detection()
	if det.FileEncoding != "Windows-1252" || !det.Sniffed {
		t.Fatalf("detection = %+v, want sniffed Windows-1252", det)
	}
	recs := collectRecords(t, r)
	want := []Record{{"name": v("cafés")}}
	if !reflect.DeepEqual(recs, want) {
		t.Fatalf("records = %v, want %v", recs, want)
	}
}

func TestStrictDecode(t *testing.T) {
	// UTF-16LE stream whose last row ends on a lone byte.
	data := []byte{0xFF, 0xFE, 0x61, 0x00, 0x0A, 0x00, 0x78, 0x00, 0xE9}

	r, err := FromReader(bytes.NewReader(data), Options{StrictDecode: true})
	if err != nil {
		t.Fatalf("FromReader: %v", err)
	}
	if r.Next() {
		t.Fatal("strict mode should refuse the malformed row")
	}
	var derr *DecodeError
	if !errors.As(r.Err(), &derr) {
		t.Fatalf("err = %v, want DecodeError", r.Err())
	}
	if derr.Encoding != "UTF-16LE" || derr.Row != 0 {
		t.Fatalf("DecodeError = %+v", derr)
	}

	r, err = FromReader(bytes.NewReader(data), Options{})
	if err != nil {
		t.Fatalf("FromReader: %v", err)
	}
	if !r.Next() {
		t.Fatalf("lossy mode should substitute: %v", r.Err())
	}
	if got, _ := r.Record().Get("a"); got != "x�" {
		t.Fatalf("value = %q, want substituted tail", got)
	}
}

func TestHeaderTransforms(t *testing.T) {
	r, err := FromReader(strings.NewReader("SKU Number,Qty\n100,5\n"), Options{
		FieldNormalizer: func(s string) string {
			return strings.ToLower(strings.ReplaceAll(s, " ", "_"))
		},
		FieldAliases: map[string]string{"sku_number": "sku"},
	})
	if err != nil {
		t.Fatalf("FromReader: %v", err)
	}
	if want := []string{"sku", "qty"}; !reflect.DeepEqual(r.FieldNames(), want) {
		t.Fatalf("FieldNames = %v, want %v", r.FieldNames(), want)
	}
	recs := collectRecords(t, r)
	want := []Record{{"sku": v("100"), "qty": v("5")}}
	if !reflect.DeepEqual(recs, want) {
		t.Fatalf("records = %v, want %v", recs, want)
	}
}

func TestSkipEmptyAtEnd(t *testing.T) {
	r, err := FromReader(strings.NewReader("a,b\n\n\n"), Options{SkipEmptyLines: true})
	if err != nil {
		t.Fatalf("FromReader: %v", err)
	}
	if recs := collectRecords(t, r); len(recs) != 0 {
		t.Fatalf("records = %v, want none", recs)
	}
}

func TestInvalidFileEncodingOption(t *testing.T) {
	_, err := FromReader(strings.NewReader("a,b\n"), Options{FileEncoding: "wat-9000"})
	var oerr *InvalidOptionError
	if !errors.As(err, &oerr) {
		t.Fatalf("err = %v, want InvalidOptionError", err)
	}
	if oerr.Option != "file_encoding" {
		t.Fatalf("option = %q, want file_encoding", oerr.Option)
	}
}

func TestOpenCompressedTwin(t *testing.T) {
	const content = "sku,qty\n100,5\n200,7\n"
	dir := t.TempDir()

	plain := filepath.Join(dir, "items.csv")
	if err := os.WriteFile(plain, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	gzPath := filepath.Join(dir, "items.csv.gz")
	f, err := os.Create(gzPath)
	if err != nil {
		t.Fatal(err)
	}
	zw := gzip.NewWriter(f)
	if _, err := zw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	rp, err := Open(plain, Options{})
	if err != nil {
		t.Fatalf("Open plain: %v", err)
	}
	defer rp.Close()
	rg, err := Open(gzPath, Options{})
	if err != nil {
		t.Fatalf("Open gzip: %v", err)
	}
	defer rg.Close()

	if !rp.Seekable() || rg.Seekable() {
		t.Fatalf("seekability: plain %v, gzip %v", rp.Seekable(), rg.Seekable())
	}
	if !reflect.DeepEqual(rp.FieldNames(), rg.FieldNames()) {
		t.Fatalf("field names differ: %v vs %v", rp.FieldNames(), rg.FieldNames())
	}
	a, b := collectRecords(t, rp), collectRecords(t, rg)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("record sequences differ:\nplain: %v\ngzip:  %v", a, b)
	}
}

func TestExplicitEncodingMatchesBOM(t *testing.T) {
	body := encodeText(t, "sku,qty\r\n100,5\r\n200,7\r\n", "UTF-16LE")

	withBOM, err := FromReader(bytes.NewReader(append([]byte{0xFF, 0xFE}, body...)), Options{})
	if err != nil {
		t.Fatalf("FromReader with BOM: %v", err)
	}
	explicit, err := FromReader(bytes.NewReader(body), Options{FileEncoding: "UTF-16LE"})
	if err != nil {
		t.Fatalf("FromReader explicit: %v", err)
	}

	if !reflect.DeepEqual(withBOM.FieldNames(), explicit.FieldNames()) {
		t.Fatalf("field names differ: %v vs %v", withBOM.FieldNames(), explicit.FieldNames())
	}
	a, b := collectRecords(t, withBOM), collectRecords(t, explicit)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("record sequences differ:\nbom:      %v\nexplicit: %v", a, b)
	}
}
