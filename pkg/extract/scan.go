// Package extract pulls the value of the first "content" string field out of
// raw, possibly truncated response bytes without parsing them as JSON.
package extract

import "bytes"

var (
	contentKey  = []byte(`"content"`)
	frameMarker = []byte("data:")
	frameEnd    = []byte("\n\n")
)

// Handler receives one extracted value. The slice is borrowed from the
// extractor and is only valid until the handler returns; copy it to keep it.
type Handler func(content []byte)

// findStart returns the offset of the first byte of the "content" string
// value in b: the byte after the first '"' following the key. ok is false
// while the key or the opening quote has not arrived yet, or when the quote
// is the last byte of b.
func findStart(b []byte) (int, bool) {
	k := bytes.Index(b, contentKey)
	if k < 0 {
		return 0, false
	}
	it := k + len(contentKey)
	if it >= len(b) {
		return 0, false
	}
	q := bytes.IndexByte(b[it:], '"')
	if q < 0 {
		return 0, false
	}
	start := it + q + 1
	if start >= len(b) {
		return 0, false
	}
	return start, true
}

// findEnd returns the offset of the first '"' at or after start that is not
// directly preceded by a backslash.
func findEnd(b []byte, start int) (int, bool) {
	it := start
	for it < len(b) {
		q := bytes.IndexByte(b[it:], '"')
		if q < 0 {
			return 0, false
		}
		at := it + q
		if b[at-1] != '\\' {
			return at, true
		}
		it = at + 1
	}
	return 0, false
}

// view limits capacity so a handler cannot append into extractor memory.
func view(b []byte, start, end int) []byte {
	return b[start:end:end]
}
