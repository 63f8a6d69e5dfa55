package extract

import (
	"fmt"

	"github.com/renatogalera/ai-chat/pkg/chat"
)

type singleState int

const (
	seekingStart singleState = iota
	seekingEnd
	done
)

// Single extracts the first "content" string value of a complete response.
// Bytes are accumulated until the value is closed, the handler fires once
// and every later byte of the call is dropped without being copied.
//
// Only the first "content" field in the whole response is ever reported.
// A response without one produces no handler call and no error.
type Single struct {
	alloc   chat.Allocator
	handler Handler
	buf     []byte
	start   int
	end     int
	state   singleState
}

// NewSingle returns a single-shot extractor. A nil allocator selects
// chat.DefaultAllocator.
func NewSingle(alloc chat.Allocator, h Handler) *Single {
	return &Single{alloc: chat.OrDefault(alloc), handler: h}
}

// Write consumes one chunk. It only fails when the accumulated buffer
// cannot grow, in which case the call must be aborted.
func (s *Single) Write(p []byte) (int, error) {
	if s.state == done {
		return len(p), nil
	}

	grown, err := s.alloc.Grow(s.buf, len(s.buf)+len(p))
	if err != nil {
		return 0, fmt.Errorf("%w: response buffer: %v", chat.ErrAlloc, err)
	}
	copy(grown[len(s.buf):], p)
	s.buf = grown

	if s.state == seekingStart {
		start, ok := findStart(s.buf)
		if !ok {
			return len(p), nil
		}
		s.start = start
		s.state = seekingEnd
	}

	end, ok := findEnd(s.buf, s.start)
	if !ok {
		return len(p), nil
	}
	s.end = end
	s.state = done
	if s.handler != nil {
		s.handler(view(s.buf, s.start, s.end))
	}
	return len(p), nil
}

// Done reports whether the value has been delivered.
func (s *Single) Done() bool { return s.state == done }

// Buffered returns how many response bytes are currently held.
func (s *Single) Buffered() int { return len(s.buf) }

// Close releases the accumulated buffer.
func (s *Single) Close() error {
	s.alloc.Release(s.buf)
	s.buf = nil
	return nil
}
