package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/renatogalera/ai-chat/pkg/chat"
	"github.com/renatogalera/ai-chat/pkg/config"
)

// Factory turns provider settings into call options for the provider's
// chat completions endpoint.
type Factory func(name string, ps config.ProviderSettings) (chat.Options, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
	defaults  = map[string]config.ProviderSettings{}
	required  = map[string]bool{}
)

// Register adds a provider factory under the given name.
func Register(name string, f Factory) {
	mu.Lock()
	factories[name] = f
	mu.Unlock()
}

// Get returns the factory for name if registered.
func Get(name string) (Factory, bool) {
	mu.RLock()
	f, ok := factories[name]
	mu.RUnlock()
	return f, ok
}

// Has reports whether a provider is registered.
func Has(name string) bool {
	mu.RLock()
	_, ok := factories[name]
	mu.RUnlock()
	return ok
}

// Names returns the registered provider names, sorted.
func Names() []string {
	mu.RLock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	mu.RUnlock()
	sort.Strings(out)
	return out
}

// RegisterDefaults sets the default settings for a provider.
func RegisterDefaults(name string, ps config.ProviderSettings) {
	mu.Lock()
	defaults[name] = ps
	mu.Unlock()
}

// SetRequiresAPIKey marks whether a provider requires an API key.
func SetRequiresAPIKey(name string, req bool) {
	mu.Lock()
	required[name] = req
	mu.Unlock()
}

// GetDefaults returns defaults for a provider if registered.
func GetDefaults(name string) (config.ProviderSettings, bool) {
	mu.RLock()
	d, ok := defaults[name]
	mu.RUnlock()
	return d, ok
}

// RequiresAPIKey reports whether the provider requires an API key.
func RequiresAPIKey(name string) bool {
	mu.RLock()
	r := required[name]
	mu.RUnlock()
	return r
}

// APIKeyEnv names the environment variable holding a provider's key,
// e.g. OPENROUTER_API_KEY.
func APIKeyEnv(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_")) + "_API_KEY"
}

// CompletionsURL appends the chat completions path to an API base URL.
func CompletionsURL(baseURL string) string {
	return strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/chat/completions"
}

// Resolve fills empty fields of ps from the provider defaults and runs the
// provider factory.
func Resolve(name string, ps config.ProviderSettings) (chat.Options, error) {
	f, ok := Get(name)
	if !ok {
		return chat.Options{}, fmt.Errorf("unknown provider %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	if d, ok := GetDefaults(name); ok {
		if strings.TrimSpace(ps.Model) == "" {
			ps.Model = d.Model
		}
		if strings.TrimSpace(ps.BaseURL) == "" {
			ps.BaseURL = d.BaseURL
		}
		if strings.TrimSpace(ps.APIKey) == "" {
			ps.APIKey = d.APIKey
		}
	}
	if RequiresAPIKey(name) && strings.TrimSpace(ps.APIKey) == "" {
		return chat.Options{}, fmt.Errorf("%s API key is required. Provide via flag, %s environment variable, or config", name, APIKeyEnv(name))
	}
	opts, err := f(name, ps)
	if err != nil {
		return chat.Options{}, fmt.Errorf("failed to configure provider %s: %w", name, err)
	}
	return opts, nil
}

// OpenAICompatible is the factory for providers that speak the OpenAI chat
// completions protocol at <baseURL>/chat/completions.
func OpenAICompatible(name string, ps config.ProviderSettings) (chat.Options, error) {
	if strings.TrimSpace(ps.BaseURL) == "" {
		return chat.Options{}, fmt.Errorf("%s baseURL is required", name)
	}
	if strings.TrimSpace(ps.Model) == "" {
		return chat.Options{}, fmt.Errorf("%s model is required", name)
	}
	return chat.Options{
		CompletionsURL: CompletionsURL(ps.BaseURL),
		APIKey:         strings.TrimSpace(ps.APIKey),
		Model:          strings.TrimSpace(ps.Model),
	}, nil
}
