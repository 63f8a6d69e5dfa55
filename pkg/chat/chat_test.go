package chat

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// failingAllocator fails every Grow once armed.
type failingAllocator struct {
	armed    bool
	released int
}

var errNoMemory = errors.New("no memory")

func (a *failingAllocator) Grow(b []byte, size int) ([]byte, error) {
	if a.armed {
		return nil, errNoMemory
	}
	return DefaultAllocator.Grow(b, size)
}

func (a *failingAllocator) Release([]byte) { a.released++ }

func newBuffer(t *testing.T) *MessageBuffer {
	t.Helper()
	buf, err := NewMessageBuffer(nil)
	require.NoError(t, err)
	return buf
}

func TestEscape(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", "hello"},
		{"quote and backslash", `a"b\c`, `a\"b\\c`},
		{"short escapes", "\n\t\r\b\f", `\n\t\r\b\f`},
		{"other control bytes", "\x00\x01\x1f", `\u0000\u0001\u001f`},
		{"del passes through", "\x7f", "\x7f"},
		{"utf8 passes through", "héllo ✓", "héllo ✓"},
		{"invalid utf8 passes through", "\xff\xfe", "\xff\xfe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := make([]byte, MaxEscapedLen(len(tt.in)))
			n := Escape(dst, []byte(tt.in))
			require.Equal(t, tt.want, string(dst[:n]))
		})
	}
}

func TestEscapeIsReversible(t *testing.T) {
	var all []byte
	for c := 0; c < 0x80; c++ {
		all = append(all, byte(c))
	}
	inputs := []string{
		string(all),
		"Hello, \"world\"\n",
		`C:\path\to\file`,
		"日本語\ttab",
		"",
	}
	for _, in := range inputs {
		quoted := append([]byte{'"'}, AppendEscaped(nil, []byte(in))...)
		quoted = append(quoted, '"')

		var out string
		require.NoError(t, json.Unmarshal(quoted, &out), "escaped %q", in)
		require.Equal(t, in, out)
	}
}

func TestAppendWritesEscapedTextEntry(t *testing.T) {
	buf := newBuffer(t)
	require.True(t, buf.Empty())

	require.NoError(t, buf.Append([]byte("Hello, \"world\"\n"), RoleUser, ContentText))

	require.False(t, buf.Empty())
	require.Equal(t,
		`{"messages":[`+"\n"+`{"role":"user","content":[{"type":"text","text":"Hello, \"world\"\n"}]}`,
		string(buf.Bytes()))
}

func TestAppendSeparatesEntries(t *testing.T) {
	buf := newBuffer(t)
	require.NoError(t, buf.AppendText(RoleUser, "hi"))
	require.NoError(t, buf.AppendText(RoleAssistant, "hello"))
	require.NoError(t, buf.Append([]byte("42"), RoleTool, ContentText))

	want := "[\n" +
		`{"role":"user","content":[{"type":"text","text":"hi"}]}` + ",\n" +
		`{"role":"assistant","content":[{"type":"text","text":"hello"}]}` + ",\n" +
		`{"role":"tool","content":[{"type":"text","text":"42"}]}`
	require.Equal(t, want, string(buf.Entries()))
}

func TestAppendContentTypes(t *testing.T) {
	tests := []struct {
		typ  ContentType
		want string
	}{
		{ContentText, `{"type":"text","text":"x"}`},
		{ContentImage, `{"type":"image_url","image_url":{"url":"x"}}`},
		{ContentAudio, `{"type":"input_audio","input_audio":{"format":"wav","data":"x"}}`},
		{ContentFile, `{"type":"file","file":{"file_data":"x"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			buf := newBuffer(t)
			require.NoError(t, buf.Append([]byte("x"), RoleUser, tt.typ))
			require.True(t, strings.HasSuffix(string(buf.Bytes()), `"content":[`+tt.want+`]}`))

			payload, err := buf.Seal(DefaultOptions())
			require.NoError(t, err)
			require.True(t, json.Valid(payload), "payload: %s", payload)
		})
	}
}

func TestAppendRejectsUnknownEnums(t *testing.T) {
	buf := newBuffer(t)
	require.ErrorIs(t, buf.Append([]byte("x"), Role(9), ContentText), ErrUnknownRole)
	require.ErrorIs(t, buf.Append([]byte("x"), RoleUser, ContentType(9)), ErrUnknownContentType)
	require.True(t, buf.Empty())
}

func TestSealAppendsOptions(t *testing.T) {
	buf := newBuffer(t)
	require.NoError(t, buf.AppendText(RoleUser, "hi"))
	prefix := string(buf.Bytes())

	payload, err := buf.Seal(Options{Model: "gpt-5", Stream: false})
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(string(payload), "\n],\"model\":\"gpt-5\",\"stream\":\"false\"}"))
	require.True(t, json.Valid(payload))
	require.True(t, buf.Sealed())

	// The unsealed prefix is untouched by the seal.
	require.Equal(t, prefix, string(buf.Bytes()))

	got, ok := buf.Payload()
	require.True(t, ok)
	require.Equal(t, string(payload), string(got))
}

func TestSealStreamFlagAndLongModel(t *testing.T) {
	buf := newBuffer(t)
	require.NoError(t, buf.AppendText(RoleUser, "hi"))

	model := strings.Repeat("m", 8192)
	payload, err := buf.Seal(Options{Model: model, Stream: true})
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(string(payload), `,"model":"`+model+`","stream":"true"}`))
}

func TestSealEmptyBufferIsValidJSON(t *testing.T) {
	buf := newBuffer(t)
	payload, err := buf.Seal(DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, `{"messages":[],"model":"gpt-5","stream":"false"}`, string(payload))
	require.True(t, json.Valid(payload))
}

func TestAppendAfterSealUnseals(t *testing.T) {
	buf := newBuffer(t)
	require.NoError(t, buf.AppendText(RoleUser, "hi"))
	_, err := buf.Seal(DefaultOptions())
	require.NoError(t, err)

	require.NoError(t, buf.AppendText(RoleAssistant, "hello"))
	require.False(t, buf.Sealed())
	_, ok := buf.Payload()
	require.False(t, ok)
	require.NotContains(t, string(buf.Bytes()), "model")

	payload, err := buf.Seal(Options{Model: "other"})
	require.NoError(t, err)
	require.True(t, json.Valid(payload))
	require.Equal(t, 1, strings.Count(string(payload), `"model"`))
}

func TestBuildReusesSealedPayload(t *testing.T) {
	buf := newBuffer(t)
	require.NoError(t, buf.AppendText(RoleUser, "hi"))

	first, err := Build(buf, Options{Model: "a"})
	require.NoError(t, err)
	second, err := Build(buf, Options{Model: "b"})
	require.NoError(t, err)
	require.Equal(t, string(first), string(second))
	require.Contains(t, string(second), `"model":"a"`)
}

func TestAllocFailureLeavesBufferUsable(t *testing.T) {
	alloc := &failingAllocator{}
	buf, err := NewMessageBuffer(alloc)
	require.NoError(t, err)
	require.NoError(t, buf.AppendText(RoleUser, "first"))
	before := string(buf.Bytes())

	alloc.armed = true
	err = buf.AppendText(RoleAssistant, "second")
	require.ErrorIs(t, err, ErrAlloc)
	require.Equal(t, before, string(buf.Bytes()))

	_, err = buf.Seal(DefaultOptions())
	require.ErrorIs(t, err, ErrAlloc)
	require.False(t, buf.Sealed())

	alloc.armed = false
	require.NoError(t, buf.AppendText(RoleAssistant, "second"))
	payload, err := buf.Seal(DefaultOptions())
	require.NoError(t, err)
	require.True(t, json.Valid(payload))
}

func TestNewMessageBufferAllocFailure(t *testing.T) {
	_, err := NewMessageBuffer(&failingAllocator{armed: true})
	require.ErrorIs(t, err, ErrAlloc)
}

func TestRestoreRoundTrip(t *testing.T) {
	src := newBuffer(t)
	require.NoError(t, src.AppendText(RoleUser, "hi\n"))
	require.NoError(t, src.AppendText(RoleAssistant, "hello"))

	dst := newBuffer(t)
	require.NoError(t, dst.Restore(src.Entries()))
	require.Equal(t, string(src.Bytes()), string(dst.Bytes()))

	require.Error(t, dst.Restore([]byte(`{"role":"user"}`)))
}

func TestDestroy(t *testing.T) {
	alloc := &failingAllocator{}
	buf, err := NewMessageBuffer(alloc)
	require.NoError(t, err)

	buf.Destroy()
	buf.Destroy()
	require.Equal(t, 1, alloc.released)
	require.ErrorIs(t, buf.AppendText(RoleUser, "x"), ErrDestroyed)
	_, err = buf.Seal(DefaultOptions())
	require.ErrorIs(t, err, ErrDestroyed)
	require.Nil(t, buf.Entries())
}

func TestParseRoleAndContentType(t *testing.T) {
	r, err := ParseRole(" Assistant ")
	require.NoError(t, err)
	require.Equal(t, RoleAssistant, r)
	_, err = ParseRole("system")
	require.ErrorIs(t, err, ErrUnknownRole)

	ct, err := ParseContentType("audio")
	require.NoError(t, err)
	require.Equal(t, ContentAudio, ct)
	_, err = ParseContentType("video")
	require.ErrorIs(t, err, ErrUnknownContentType)
}

func TestOptionsWithDefaults(t *testing.T) {
	o := Options{Model: "m", Stream: true}.WithDefaults()
	require.Equal(t, DefaultCompletionsURL, o.CompletionsURL)
	require.Equal(t, DefaultAPIKey, o.APIKey)
	require.Equal(t, "m", o.Model)
	require.True(t, o.Stream)
}
