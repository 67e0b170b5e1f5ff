package charset

import "bytes"

// bomTable is ordered longest prefix first so the UTF-16LE mark never
// shadows the UTF-32LE one.
var bomTable = []struct {
	prefix   []byte
	encoding string
}{
	{[]byte{0x00, 0x00, 0xFE, 0xFF}, UTF32BE},
	{[]byte{0xFF, 0xFE, 0x00, 0x00}, UTF32LE},
	{[]byte{0xEF, 0xBB, 0xBF}, UTF8},
	{[]byte{0xFE, 0xFF}, UTF16BE},
	{[]byte{0xFF, 0xFE}, UTF16LE},
}

// SniffBOM inspects the first bytes of a stream and returns the
// encoding named by a byte-order mark plus the mark's length, or
// ("", 0) when none is present.
func SniffBOM(prefix []byte) (string, int) {
	for _, e := range bomTable {
		if bytes.HasPrefix(prefix, e.prefix) {
			return e.encoding, len(e.prefix)
		}
	}
	return "", 0
}
