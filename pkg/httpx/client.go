package httpx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
)

// ErrTransport classifies every network or HTTP level failure of a call.
var ErrTransport = errors.New("transport error")

// maxErrorBody bounds how much of a failed response is kept for the error.
const maxErrorBody = 4096

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Unwrap lets errors.Is(err, ErrTransport) match status failures.
func (e *StatusError) Unwrap() error { return ErrTransport }

// NewDefaultClient returns an HTTP client suitable for SSE endpoints and APIs
// that dislike transparent compression. It also attaches a CookieJar so servers
// behind anti-bot layers can set session cookies.
func NewDefaultClient() *http.Client {
	jar, _ := cookiejar.New(nil)
	return &http.Client{
		// Timeout is managed by per-request contexts.
		Timeout: 0,
		Transport: &http.Transport{
			// Keep raw bytes; SSE with gzip can be problematic across proxies.
			DisableCompression: true,
		},
		Jar: jar,
	}
}

// Request describes one chat completion POST.
type Request struct {
	URL        string
	Credential string
	Body       []byte
	Stream     bool
	UserAgent  string
}

// Client performs completion calls and streams the response body into a
// sink as it arrives.
type Client struct {
	http *http.Client
}

// New wraps hc; a nil hc selects NewDefaultClient.
func New(hc *http.Client) *Client {
	if hc == nil {
		hc = NewDefaultClient()
	}
	return &Client{http: hc}
}

// Post sends req and writes every received chunk to sink on the calling
// goroutine. It returns the number of body bytes delivered. A sink error
// aborts the transfer and is returned unchanged; every other failure wraps
// ErrTransport.
func (c *Client) Post(ctx context.Context, req Request, sink io.Writer) (int64, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return 0, fmt.Errorf("%w: create request: %w", ErrTransport, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+req.Credential)
	if req.Stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	} else {
		httpReq.Header.Set("Accept", "application/json")
	}
	if req.UserAgent != "" {
		httpReq.Header.Set("User-Agent", req.UserAgent)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("%w: perform request: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return 0, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	return Pump(ctx, resp.Body, sink)
}
