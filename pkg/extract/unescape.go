package extract

import (
	"github.com/tidwall/gjson"
)

// Unescape decodes an extracted value, which is still in JSON string form
// (\n, \", \uXXXX ...), into plain text.
func Unescape(raw []byte) string {
	quoted := make([]byte, 0, len(raw)+2)
	quoted = append(quoted, '"')
	quoted = append(quoted, raw...)
	quoted = append(quoted, '"')
	return gjson.ParseBytes(quoted).String()
}
