package history

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"

	"github.com/renatogalera/ai-chat/pkg/chat"
)

// Turn is one decoded entry, used for display only.
type Turn struct {
	Role chat.Role
	Type chat.ContentType
	// Data is the decoded text, or the data URL / base64 payload of an
	// attachment.
	Data string
}

var dataPaths = map[string]struct {
	typ  chat.ContentType
	path string
}{
	"text":        {chat.ContentText, "text"},
	"image_url":   {chat.ContentImage, "image_url.url"},
	"input_audio": {chat.ContentAudio, "input_audio.data"},
	"file":        {chat.ContentFile, "file.file_data"},
}

// Decode reads an entry array as returned by MessageBuffer.Entries.
func Decode(entries []byte) ([]Turn, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	doc := make([]byte, 0, len(entries)+len(arrayClose))
	doc = append(append(doc, entries...), arrayClose...)
	if !gjson.ValidBytes(doc) {
		return nil, fmt.Errorf("%w: entries are not valid JSON", ErrMalformed)
	}

	var (
		turns []Turn
		err   error
	)
	gjson.ParseBytes(doc).ForEach(func(_, entry gjson.Result) bool {
		role, perr := chat.ParseRole(entry.Get("role").String())
		if perr != nil {
			err = fmt.Errorf("%w: %w", ErrMalformed, perr)
			return false
		}
		entry.Get("content").ForEach(func(_, part gjson.Result) bool {
			dp, ok := dataPaths[part.Get("type").String()]
			if !ok {
				err = fmt.Errorf("%w: unknown content type %q", ErrMalformed, part.Get("type").String())
				return false
			}
			turns = append(turns, Turn{Role: role, Type: dp.typ, Data: part.Get(dp.path).String()})
			return true
		})
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	return turns, nil
}

// ReadTurns decodes the history file at path without loading it into a
// MessageBuffer.
func ReadTurns(path string) ([]Turn, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read history file: %w", ErrIO, err)
	}
	entries, err := stripClose(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return Decode(entries)
}
