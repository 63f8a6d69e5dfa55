package openai

import (
	"github.com/renatogalera/ai-chat/pkg/chat"
	"github.com/renatogalera/ai-chat/pkg/config"
	"github.com/renatogalera/ai-chat/pkg/provider/registry"
)

const ProviderName = "openai"

func init() {
	registry.Register(ProviderName, registry.OpenAICompatible)
	registry.RegisterDefaults(ProviderName, config.ProviderSettings{Model: chat.DefaultModel, BaseURL: "https://api.openai.com/v1"})
	registry.SetRequiresAPIKey(ProviderName, true)
}
