package chat

import "strings"

const (
	DefaultCompletionsURL = "https://api.openai.com/v1/chat/completions"
	DefaultAPIKey         = "empty"
	DefaultModel          = "gpt-5"
)

// Options are fixed for the duration of one call.
type Options struct {
	CompletionsURL string
	APIKey         string
	Model          string
	Stream         bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		CompletionsURL: DefaultCompletionsURL,
		APIKey:         DefaultAPIKey,
		Model:          DefaultModel,
	}
}

// WithDefaults fills empty fields from DefaultOptions. Stream is kept.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if strings.TrimSpace(o.CompletionsURL) == "" {
		o.CompletionsURL = d.CompletionsURL
	}
	if strings.TrimSpace(o.APIKey) == "" {
		o.APIKey = d.APIKey
	}
	if strings.TrimSpace(o.Model) == "" {
		o.Model = d.Model
	}
	return o
}

// optionsSuffix renders `,"model":"<model>","stream":"<true|false>"}`.
// The stream flag is sent as a string, matching the wire format consumers
// of this payload already expect.
func optionsSuffix(o Options) []byte {
	stream := "false"
	if o.Stream {
		stream = "true"
	}
	out := make([]byte, 0, 32+MaxEscapedLen(len(o.Model)))
	out = append(out, `,"model":"`...)
	out = AppendEscaped(out, []byte(o.Model))
	out = append(out, `","stream":"`...)
	out = append(out, stream...)
	out = append(out, `"}`...)
	return out
}

// Build returns the request payload for buf. An unsealed buffer is sealed
// with opts; a buffer that is already sealed is sent as it was sealed.
// The payload is borrowed from buf.
func Build(buf *MessageBuffer, opts Options) ([]byte, error) {
	if payload, ok := buf.Payload(); ok {
		return payload, nil
	}
	return buf.Seal(opts)
}
