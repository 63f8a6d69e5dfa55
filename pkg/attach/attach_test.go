package attach

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/renatogalera/ai-chat/pkg/chat"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func wavBytes() []byte {
	b := []byte("RIFF\x24\x00\x00\x00WAVEfmt ")
	return append(b, make([]byte, 32)...)
}

func TestLoadText(t *testing.T) {
	path := writeFile(t, "note.txt", []byte("hello \"there\""))
	got, err := Load(path, chat.ContentText)
	require.NoError(t, err)
	require.Equal(t, "hello \"there\"", string(got))
}

func TestLoadImage(t *testing.T) {
	path := writeFile(t, "pic.png", pngHeader)
	got, err := Load(path, chat.ContentImage)
	require.NoError(t, err)

	prefix := "data:image/png;base64,"
	require.True(t, strings.HasPrefix(string(got), prefix))
	decoded, err := base64.StdEncoding.DecodeString(string(got[len(prefix):]))
	require.NoError(t, err)
	require.Equal(t, pngHeader, decoded)
}

func TestLoadImageRejectsText(t *testing.T) {
	path := writeFile(t, "pic.png", []byte("not an image"))
	_, err := Load(path, chat.ContentImage)
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestLoadAudio(t *testing.T) {
	wav := wavBytes()
	path := writeFile(t, "clip.wav", wav)
	got, err := Load(path, chat.ContentAudio)
	require.NoError(t, err)
	require.Equal(t, base64.StdEncoding.EncodeToString(wav), string(got))

	path = writeFile(t, "clip.png", pngHeader)
	_, err = Load(path, chat.ContentAudio)
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, "doc.txt", []byte("plain"))
	got, err := Load(path, chat.ContentFile)
	require.NoError(t, err)
	require.Equal(t, "data:text/plain;base64,cGxhaW4=", string(got))
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing"), chat.ContentText)
	require.Error(t, err)

	_, err = Load(t.TempDir(), chat.ContentText)
	require.ErrorIs(t, err, ErrUnsupported)

	path := writeFile(t, "x.txt", []byte("x"))
	_, err = Load(path, chat.ContentType(42))
	require.ErrorIs(t, err, chat.ErrUnknownContentType)
}

func TestAttachmentEntryIsValidJSON(t *testing.T) {
	buf, err := chat.NewMessageBuffer(nil)
	require.NoError(t, err)
	defer buf.Destroy()

	data, err := Load(writeFile(t, "pic.png", pngHeader), chat.ContentImage)
	require.NoError(t, err)
	require.NoError(t, buf.Append(data, chat.RoleUser, chat.ContentImage))

	payload, err := buf.Seal(chat.DefaultOptions())
	require.NoError(t, err)
	require.Contains(t, string(payload), `{"type":"image_url","image_url":{"url":"data:image/png;base64,`)
}
