package chat

// Allocator supplies the memory behind a MessageBuffer and the extractors.
//
// Grow returns a slice of exactly size bytes whose prefix holds the first
// min(len(b), size) bytes of b. It is used both to grow and to shrink. On
// failure b must be left untouched and usable. Release hands a slice back
// once its owner is done with it.
type Allocator interface {
	Grow(b []byte, size int) ([]byte, error)
	Release(b []byte)
}

type heapAllocator struct{}

// DefaultAllocator is the Go heap. Shrinking reslices in place.
var DefaultAllocator Allocator = heapAllocator{}

func (heapAllocator) Grow(b []byte, size int) ([]byte, error) {
	if size <= cap(b) {
		return b[:size], nil
	}
	grown := make([]byte, size)
	copy(grown, b)
	return grown, nil
}

func (heapAllocator) Release([]byte) {}

// OrDefault returns a, or DefaultAllocator when a is nil.
func OrDefault(a Allocator) Allocator {
	if a == nil {
		return DefaultAllocator
	}
	return a
}
