package ollama

import (
	"strings"

	"github.com/renatogalera/ai-chat/pkg/chat"
	"github.com/renatogalera/ai-chat/pkg/config"
	"github.com/renatogalera/ai-chat/pkg/provider/registry"
)

const ProviderName = "ollama"

// factory targets Ollama's OpenAI-compatible endpoint under /v1. The base
// URL is the server root, as in Ollama's own docs.
func factory(name string, ps config.ProviderSettings) (chat.Options, error) {
	base := strings.TrimRight(strings.TrimSpace(ps.BaseURL), "/")
	if !strings.HasSuffix(base, "/v1") {
		base += "/v1"
	}
	ps.BaseURL = base
	return registry.OpenAICompatible(name, ps)
}

func init() {
	registry.Register(ProviderName, factory)
	registry.RegisterDefaults(ProviderName, config.ProviderSettings{Model: "llama3.2", BaseURL: "http://localhost:11434"})
	registry.SetRequiresAPIKey(ProviderName, false)
}
