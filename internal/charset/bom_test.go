package charset

import "testing"

func TestSniffBOM(t *testing.T) {
	tests := []struct {
		name     string
		prefix   []byte
		encoding string
		length   int
	}{
		{"utf8", []byte{0xEF, 0xBB, 0xBF, 'a'}, UTF8, 3},
		{"utf32be", []byte{0x00, 0x00, 0xFE, 0xFF}, UTF32BE, 4},
		{"utf32le", []byte{0xFF, 0xFE, 0x00, 0x00}, UTF32LE, 4},
		{"utf16be", []byte{0xFE, 0xFF, 0x00, 'a'}, UTF16BE, 2},
		{"utf16le", []byte{0xFF, 0xFE, 'a', 0x00}, UTF16LE, 2},
		{"utf16le not shadowing utf32le", []byte{0xFF, 0xFE, 0x00, 'a'}, UTF16LE, 2},
		{"no mark", []byte("name"), "", 0},
		{"short input", []byte{0xFE}, "", 0},
		{"empty", nil, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, n := SniffBOM(tt.prefix)
			if enc != tt.encoding || n != tt.length {
				t.Errorf("SniffBOM(% X) = (%q, %d), want (%q, %d)",
					tt.prefix, enc, n, tt.encoding, tt.length)
			}
		})
	}
}
