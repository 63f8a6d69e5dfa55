package chat

import (
	"bytes"
	"fmt"
)

// MessageBuffer holds the outgoing {"messages":[...] prefix as raw JSON.
// Entries are escaped straight into the buffer; no document tree is built.
//
// While unsealed, Bytes() is always a valid JSON prefix. Seal appends the
// array close and the call options after that prefix without moving it, so
// Entries() stays usable for persistence after a call.
//
// A MessageBuffer is not safe for concurrent use.
type MessageBuffer struct {
	alloc     Allocator
	b         []byte
	sealed    bool
	sealedLen int
	destroyed bool
}

// NewMessageBuffer allocates a buffer holding only the header literal.
// A nil allocator selects DefaultAllocator.
func NewMessageBuffer(alloc Allocator) (*MessageBuffer, error) {
	m := &MessageBuffer{alloc: OrDefault(alloc)}
	if err := m.writeHeader(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MessageBuffer) writeHeader() error {
	b, err := m.alloc.Grow(nil, len(messagesHeader))
	if err != nil {
		return fmt.Errorf("%w: header: %v", ErrAlloc, err)
	}
	copy(b, messagesHeader)
	m.b = b
	return nil
}

// Len returns the number of bytes in the unsealed prefix.
func (m *MessageBuffer) Len() int { return len(m.b) }

// Empty reports whether no entry has been appended yet.
func (m *MessageBuffer) Empty() bool { return len(m.b) == len(messagesHeader) }

// Sealed reports whether call options are currently appended.
func (m *MessageBuffer) Sealed() bool { return m.sealed }

// Bytes returns the unsealed prefix. The slice is borrowed and only valid
// until the next mutating call.
func (m *MessageBuffer) Bytes() []byte { return m.b[:len(m.b):len(m.b)] }

// Entries returns the entry array portion of the prefix, i.e. everything
// after the header: "[\n{...},\n{...}" or nothing when empty. Borrowed.
func (m *MessageBuffer) Entries() []byte {
	if m.destroyed {
		return nil
	}
	return m.b[len(messagesHeader):len(m.b):len(m.b)]
}

// Append escapes content into a new entry for role wrapped as typ. On
// failure the buffer is unchanged. Appending to a sealed buffer unseals it.
func (m *MessageBuffer) Append(content []byte, role Role, typ ContentType) error {
	if m.destroyed {
		return ErrDestroyed
	}
	if !role.valid() {
		return fmt.Errorf("%w: %d", ErrUnknownRole, int(role))
	}
	if !typ.valid() {
		return fmt.Errorf("%w: %d", ErrUnknownContentType, int(typ))
	}

	sep := entrySep
	if m.Empty() {
		sep = arrayOpen
	}
	open, cOpen, cClose := roleOpen[role], contentOpen[typ], contentClose[typ]

	worst := len(m.b) + len(sep) + len(open) + len(cOpen) +
		MaxEscapedLen(len(content)) + len(cClose) + len(roleClose)
	grown, err := m.alloc.Grow(m.b, worst)
	if err != nil {
		return fmt.Errorf("%w: append %s %s entry: %v", ErrAlloc, role, typ, err)
	}

	off := len(m.b)
	off += copy(grown[off:], sep)
	off += copy(grown[off:], open)
	off += copy(grown[off:], cOpen)
	off += Escape(grown[off:], content)
	off += copy(grown[off:], cClose)
	off += copy(grown[off:], roleClose)

	shrunk, err := m.alloc.Grow(grown, off)
	if err != nil {
		// Keep the oversized region; only the tail is wasted.
		shrunk = grown[:off]
	}
	m.b = shrunk
	m.sealed = false
	m.sealedLen = 0
	return nil
}

// AppendText is Append for a text entry given as a string.
func (m *MessageBuffer) AppendText(role Role, text string) error {
	return m.Append([]byte(text), role, ContentText)
}

// Seal appends the array close and the options suffix and returns the full
// request payload. The returned slice is borrowed: it is valid until the
// next mutating call on m. On failure nothing is returned and m is left
// unsealed with its prefix intact.
func (m *MessageBuffer) Seal(opts Options) ([]byte, error) {
	if m.destroyed {
		return nil, ErrDestroyed
	}
	suffix := optionsSuffix(opts)
	if m.Empty() {
		// An empty conversation still has to produce an array.
		suffix = append([]byte("[]"), suffix...)
	} else {
		suffix = append(append([]byte{}, arrayClose...), suffix...)
	}

	total := len(m.b) + len(suffix)
	grown, err := m.alloc.Grow(m.b, total)
	if err != nil {
		return nil, fmt.Errorf("%w: seal: %v", ErrAlloc, err)
	}
	copy(grown[len(m.b):], suffix)

	m.b = grown[:len(m.b)]
	m.sealed = true
	m.sealedLen = total
	return grown[:total:total], nil
}

// Payload returns the sealed payload when the buffer is sealed.
func (m *MessageBuffer) Payload() ([]byte, bool) {
	if !m.sealed {
		return nil, false
	}
	return m.b[:m.sealedLen:m.sealedLen], true
}

// Restore replaces all entries with a previously saved entry array (as
// returned by Entries). It does not validate the entries beyond their
// opening bracket.
func (m *MessageBuffer) Restore(entries []byte) error {
	if m.destroyed {
		return ErrDestroyed
	}
	if len(entries) > 0 && !bytes.HasPrefix(entries, arrayOpen) {
		return fmt.Errorf("restore: entries must start with %q", arrayOpen)
	}
	size := len(messagesHeader) + len(entries)
	grown, err := m.alloc.Grow(m.b, size)
	if err != nil {
		return fmt.Errorf("%w: restore: %v", ErrAlloc, err)
	}
	copy(grown, messagesHeader)
	copy(grown[len(messagesHeader):], entries)
	m.b = grown
	m.sealed = false
	m.sealedLen = 0
	return nil
}

// Destroy releases the buffer. Further calls return ErrDestroyed.
func (m *MessageBuffer) Destroy() {
	if m.destroyed {
		return
	}
	m.alloc.Release(m.b)
	m.b = nil
	m.sealed = false
	m.sealedLen = 0
	m.destroyed = true
}
