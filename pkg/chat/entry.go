package chat

import (
	"fmt"
	"strings"
)

// Role identifies who authored an entry.
type Role int

const (
	RoleUser Role = iota
	RoleAssistant
	RoleTool
)

// ContentType selects the JSON object an entry's content is wrapped in.
type ContentType int

const (
	ContentText ContentType = iota
	ContentImage
	ContentAudio
	ContentFile
)

var roleNames = [...]string{
	RoleUser:      "user",
	RoleAssistant: "assistant",
	RoleTool:      "tool",
}

var contentTypeNames = [...]string{
	ContentText:  "text",
	ContentImage: "image",
	ContentAudio: "audio",
	ContentFile:  "file",
}

func (r Role) valid() bool { return r >= RoleUser && r <= RoleTool }

func (r Role) String() string {
	if !r.valid() {
		return fmt.Sprintf("Role(%d)", int(r))
	}
	return roleNames[r]
}

func (t ContentType) valid() bool { return t >= ContentText && t <= ContentFile }

func (t ContentType) String() string {
	if !t.valid() {
		return fmt.Sprintf("ContentType(%d)", int(t))
	}
	return contentTypeNames[t]
}

// ParseRole maps "user", "assistant" or "tool" to a Role.
func ParseRole(s string) (Role, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range roleNames {
		if n == name {
			return Role(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// ParseContentType maps "text", "image", "audio" or "file" to a ContentType.
func ParseContentType(s string) (ContentType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range contentTypeNames {
		if n == name {
			return ContentType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownContentType, s)
}

// Wire literals. Entries are written by concatenation, never by encoding.
var (
	messagesHeader = []byte(`{"messages":`)
	arrayOpen      = []byte("[\n")
	arrayClose     = []byte("\n]")
	entrySep       = []byte(",\n")
	roleClose      = []byte(`]}`)

	roleOpen = [...][]byte{
		RoleUser:      []byte(`{"role":"user","content":[`),
		RoleAssistant: []byte(`{"role":"assistant","content":[`),
		RoleTool:      []byte(`{"role":"tool","content":[`),
	}

	contentOpen = [...][]byte{
		ContentText:  []byte(`{"type":"text","text":"`),
		ContentImage: []byte(`{"type":"image_url","image_url":{"url":"`),
		ContentAudio: []byte(`{"type":"input_audio","input_audio":{"format":"wav","data":"`),
		ContentFile:  []byte(`{"type":"file","file":{"file_data":"`),
	}

	contentClose = [...][]byte{
		ContentText:  []byte(`"}`),
		ContentImage: []byte(`"}}`),
		ContentAudio: []byte(`"}}`),
		ContentFile:  []byte(`"}}`),
	}
)
