// Package completion sends a MessageBuffer to a chat completions endpoint and
// reports the assistant text through a callback.
package completion

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/renatogalera/ai-chat/pkg/chat"
	"github.com/renatogalera/ai-chat/pkg/extract"
	"github.com/renatogalera/ai-chat/pkg/httpx"
	"github.com/renatogalera/ai-chat/pkg/version"
)

// Client runs calls synchronously: the content callback fires on the
// goroutine that called Call, once per received delta.
type Client struct {
	transport *httpx.Client
	alloc     chat.Allocator
	logger    zerolog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used by the transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.transport = httpx.New(hc) }
}

// WithAllocator sets the allocator for response buffers.
func WithAllocator(a chat.Allocator) Option {
	return func(c *Client) { c.alloc = a }
}

// WithLogger replaces the global zerolog logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a Client using the default HTTP client and heap allocator.
func New(opts ...Option) *Client {
	c := &Client{
		transport: httpx.New(nil),
		alloc:     chat.DefaultAllocator,
		logger:    log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type extractor interface {
	io.Writer
	io.Closer
}

// Call builds the payload from buf (sealing it with opts unless already
// sealed), posts it and feeds the response to the extractor selected by
// opts.Stream. onContent receives a borrowed view; copy it to keep it.
//
// A response without a "content" field is not an error: onContent simply
// never fires.
func (c *Client) Call(ctx context.Context, buf *chat.MessageBuffer, opts chat.Options, onContent extract.Handler) error {
	opts = opts.WithDefaults()
	payload, err := chat.Build(buf, opts)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	var sink extractor
	mode := "single"
	if opts.Stream {
		sink = extract.NewStream(c.alloc, onContent)
		mode = "stream"
	} else {
		sink = extract.NewSingle(c.alloc, onContent)
	}
	defer sink.Close()

	c.logger.Debug().
		Str("url", opts.CompletionsURL).
		Str("model", opts.Model).
		Str("mode", mode).
		Str("payload", humanize.Bytes(uint64(len(payload)))).
		Msg("Sending chat completion request")

	received, err := c.transport.Post(ctx, httpx.Request{
		URL:        opts.CompletionsURL,
		Credential: opts.APIKey,
		Body:       payload,
		Stream:     opts.Stream,
		UserAgent:  version.UserAgent(),
	}, sink)
	if err != nil {
		c.logger.Error().Err(err).Str("url", opts.CompletionsURL).Msg("Chat completion request failed")
		return fmt.Errorf("chat completion call failed: %w", err)
	}

	c.logger.Debug().
		Str("received", humanize.Bytes(uint64(received))).
		Str("mode", mode).
		Msg("Chat completion finished")
	return nil
}

// Ask runs Call, decodes and concatenates every delta and, when anything
// was received, appends the reply to buf as an assistant entry.
func (c *Client) Ask(ctx context.Context, buf *chat.MessageBuffer, opts chat.Options, onDelta func(string)) (string, error) {
	var reply strings.Builder
	err := c.Call(ctx, buf, opts, func(b []byte) {
		s := extract.Unescape(b)
		reply.WriteString(s)
		if onDelta != nil {
			onDelta(s)
		}
	})
	if err != nil {
		return reply.String(), err
	}
	if reply.Len() == 0 {
		return "", nil
	}
	text := reply.String()
	if err := buf.AppendText(chat.RoleAssistant, text); err != nil {
		return text, fmt.Errorf("failed to record assistant reply: %w", err)
	}
	return text, nil
}
