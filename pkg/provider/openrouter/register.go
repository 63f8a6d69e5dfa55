package openrouter

import (
	"github.com/renatogalera/ai-chat/pkg/config"
	"github.com/renatogalera/ai-chat/pkg/provider/registry"
)

const ProviderName = "openrouter"

func init() {
	// OpenRouter is OpenAI-compatible.
	registry.Register(ProviderName, registry.OpenAICompatible)
	registry.RegisterDefaults(ProviderName, config.ProviderSettings{Model: "openrouter/auto", BaseURL: "https://openrouter.ai/api/v1"})
	registry.SetRequiresAPIKey(ProviderName, true)
}
