// Package attach turns files on disk into entry content for a MessageBuffer.
package attach

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/renatogalera/ai-chat/pkg/chat"
)

// MaxSize caps the size of an attachment file.
const MaxSize = 20 << 20

var ErrUnsupported = errors.New("unsupported attachment")

// Load reads path and encodes it for typ:
//
//	text   raw file contents
//	image  data URL with the detected MIME type
//	file   data URL with the detected MIME type
//	audio  bare base64, and the file must be WAV
func Load(path string, typ chat.ContentType) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat attachment: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrUnsupported, path)
	}
	if info.Size() > MaxSize {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", ErrUnsupported, path, MaxSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}

	switch typ {
	case chat.ContentText:
		return data, nil
	case chat.ContentImage:
		mt := mimetype.Detect(data)
		if !isImage(mt) {
			return nil, fmt.Errorf("%w: %s is %s, not an image", ErrUnsupported, path, mt.String())
		}
		return DataURL(baseType(mt), data), nil
	case chat.ContentFile:
		return DataURL(baseType(mimetype.Detect(data)), data), nil
	case chat.ContentAudio:
		mt := mimetype.Detect(data)
		if !mt.Is("audio/wav") {
			return nil, fmt.Errorf("%w: %s is %s, only WAV audio is sent", ErrUnsupported, path, mt.String())
		}
		return encode(data), nil
	default:
		return nil, fmt.Errorf("%w: %s", chat.ErrUnknownContentType, typ)
	}
}

// DataURL renders data as "data:<mime>;base64,<payload>".
func DataURL(mime string, data []byte) []byte {
	prefix := "data:" + mime + ";base64,"
	out := make([]byte, len(prefix)+base64.StdEncoding.EncodedLen(len(data)))
	copy(out, prefix)
	base64.StdEncoding.Encode(out[len(prefix):], data)
	return out
}

func encode(data []byte) []byte {
	out := make([]byte, base64.StdEncoding.EncodedLen(len(data)))
	base64.StdEncoding.Encode(out, data)
	return out
}

func isImage(mt *mimetype.MIME) bool {
	return strings.HasPrefix(mt.String(), "image/")
}

// baseType drops parameters such as "; charset=utf-8".
func baseType(mt *mimetype.MIME) string {
	t, _, _ := strings.Cut(mt.String(), ";")
	return strings.TrimSpace(t)
}
