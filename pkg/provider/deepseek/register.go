package deepseek

import (
	"github.com/renatogalera/ai-chat/pkg/config"
	"github.com/renatogalera/ai-chat/pkg/provider/registry"
)

const ProviderName = "deepseek"

func init() {
	registry.Register(ProviderName, registry.OpenAICompatible)
	registry.RegisterDefaults(ProviderName, config.ProviderSettings{Model: "deepseek-chat", BaseURL: "https://api.deepseek.com/v1"})
	registry.SetRequiresAPIKey(ProviderName, true)
}
