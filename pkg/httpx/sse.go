package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// chunkSize is the read size used when pumping a response body.
const chunkSize = 32 * 1024

// Pump copies r into sink one read at a time so the sink sees chunks as they
// arrive, which is what server-sent event streams need. Cancellation is
// checked between reads.
func Pump(ctx context.Context, r io.Reader, sink io.Writer) (int64, error) {
	buf := make([]byte, chunkSize)
	var total int64
	for {
		select {
		case <-ctx.Done():
			return total, fmt.Errorf("%w: %w", ErrTransport, ctx.Err())
		default:
		}

		n, readErr := r.Read(buf)
		if n > 0 {
			w, err := sink.Write(buf[:n])
			total += int64(w)
			if err != nil {
				return total, err
			}
			if w != n {
				return total, io.ErrShortWrite
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return total, nil
			}
			return total, fmt.Errorf("%w: read body: %w", ErrTransport, readErr)
		}
	}
}
