package extract

import (
	"bytes"
	"fmt"

	"github.com/renatogalera/ai-chat/pkg/chat"
)

// Stream extracts one delta per server-sent event frame. A frame runs from
// a "data:" marker to the next blank line; its "content" string value, when
// present and non-empty, is handed to the handler.
//
// Consumed frames are dropped after every Write, so at most one unfinished
// frame (plus a few bytes of a split marker) is held between writes.
type Stream struct {
	alloc   chat.Allocator
	handler Handler
	buf     []byte
	frames  int
	deltas  int
}

// NewStream returns a streaming extractor. A nil allocator selects
// chat.DefaultAllocator.
func NewStream(alloc chat.Allocator, h Handler) *Stream {
	return &Stream{alloc: chat.OrDefault(alloc), handler: h}
}

// Write consumes one chunk and emits every frame it completes.
func (s *Stream) Write(p []byte) (int, error) {
	grown, err := s.alloc.Grow(s.buf, len(s.buf)+len(p))
	if err != nil {
		return 0, fmt.Errorf("%w: stream buffer: %v", chat.ErrAlloc, err)
	}
	copy(grown[len(s.buf):], p)
	s.buf = grown

	cursor, partial := 0, -1
	for cursor < len(s.buf) {
		d := bytes.Index(s.buf[cursor:], frameMarker)
		if d < 0 {
			break
		}
		d += cursor
		e := bytes.Index(s.buf[d:], frameEnd)
		if e < 0 {
			partial = d
			break
		}
		e += d
		s.frames++
		s.emit(s.buf[d+len(frameMarker) : e])
		cursor = e + len(frameEnd)
	}

	if partial >= 0 {
		s.keepFrom(partial)
	} else {
		s.keepFrom(len(s.buf) - markerPrefixLen(s.buf[cursor:]))
	}
	return len(p), nil
}

func (s *Stream) emit(body []byte) {
	start, ok := findStart(body)
	if !ok {
		return
	}
	end, ok := findEnd(body, start)
	if !ok || end <= start {
		return
	}
	s.deltas++
	if s.handler != nil {
		s.handler(view(body, start, end))
	}
}

// keepFrom moves buf[from:] to the front and drops the rest.
func (s *Stream) keepFrom(from int) {
	if from <= 0 {
		return
	}
	n := copy(s.buf, s.buf[from:])
	if shrunk, err := s.alloc.Grow(s.buf, n); err == nil {
		s.buf = shrunk
		return
	}
	s.buf = s.buf[:n]
}

// markerPrefixLen returns the length of the longest suffix of b that is a
// proper prefix of the frame marker, so a marker split across writes is
// not lost.
func markerPrefixLen(b []byte) int {
	limit := min(len(frameMarker)-1, len(b))
	for n := limit; n > 0; n-- {
		if bytes.HasSuffix(b, frameMarker[:n]) {
			return n
		}
	}
	return 0
}

// Buffered returns how many bytes of unfinished frames are held.
func (s *Stream) Buffered() int { return len(s.buf) }

// Frames returns how many complete frames were consumed.
func (s *Stream) Frames() int { return s.frames }

// Deltas returns how many values were handed to the handler.
func (s *Stream) Deltas() int { return s.deltas }

// Close releases the accumulated buffer.
func (s *Stream) Close() error {
	s.alloc.Release(s.buf)
	s.buf = nil
	return nil
}
