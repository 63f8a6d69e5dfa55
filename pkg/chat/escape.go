package chat

// maxEscapeExpansion is the worst case output size per input byte (\u00XX).
const maxEscapeExpansion = 6

const hexDigits = "0123456789abcdef"

// MaxEscapedLen returns the capacity Escape may need for n input bytes.
func MaxEscapedLen(n int) int {
	return n * maxEscapeExpansion
}

// Escape writes the JSON string encoding of src into dst and returns the
// number of bytes written. dst must hold at least MaxEscapedLen(len(src))
// bytes. Bytes >= 0x20 other than '"' and '\' are copied verbatim, so
// multi-byte UTF-8 sequences pass through without validation.
func Escape(dst, src []byte) int {
	n := 0
	for _, c := range src {
		switch c {
		case '\\':
			dst[n], dst[n+1] = '\\', '\\'
			n += 2
		case '"':
			dst[n], dst[n+1] = '\\', '"'
			n += 2
		case '\n':
			dst[n], dst[n+1] = '\\', 'n'
			n += 2
		case '\t':
			dst[n], dst[n+1] = '\\', 't'
			n += 2
		case '\r':
			dst[n], dst[n+1] = '\\', 'r'
			n += 2
		case '\b':
			dst[n], dst[n+1] = '\\', 'b'
			n += 2
		case '\f':
			dst[n], dst[n+1] = '\\', 'f'
			n += 2
		default:
			if c < 0x20 {
				dst[n] = '\\'
				dst[n+1] = 'u'
				dst[n+2] = '0'
				dst[n+3] = '0'
				dst[n+4] = hexDigits[c>>4]
				dst[n+5] = hexDigits[c&0x0f]
				n += 6
				continue
			}
			dst[n] = c
			n++
		}
	}
	return n
}

// AppendEscaped appends the escaped form of src to dst.
func AppendEscaped(dst, src []byte) []byte {
	off := len(dst)
	need := off + MaxEscapedLen(len(src))
	if cap(dst) < need {
		grown := make([]byte, off, need)
		copy(grown, dst)
		dst = grown
	}
	n := Escape(dst[off:need], src)
	return dst[:off+n]
}
