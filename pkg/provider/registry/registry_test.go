package registry_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/renatogalera/ai-chat/pkg/chat"
	"github.com/renatogalera/ai-chat/pkg/config"
	_ "github.com/renatogalera/ai-chat/pkg/provider/deepseek"
	_ "github.com/renatogalera/ai-chat/pkg/provider/ollama"
	_ "github.com/renatogalera/ai-chat/pkg/provider/openai"
	_ "github.com/renatogalera/ai-chat/pkg/provider/openrouter"
	"github.com/renatogalera/ai-chat/pkg/provider/registry"
)

func TestBuiltinProvidersRegistered(t *testing.T) {
	require.Equal(t, []string{"deepseek", "ollama", "openai", "openrouter"}, registry.Names())
	require.True(t, registry.RequiresAPIKey("openai"))
	require.False(t, registry.RequiresAPIKey("ollama"))
}

func TestResolveFillsDefaults(t *testing.T) {
	opts, err := registry.Resolve("openai", config.ProviderSettings{APIKey: "sk"})
	require.NoError(t, err)
	require.Equal(t, chat.Options{
		CompletionsURL: chat.DefaultCompletionsURL,
		APIKey:         "sk",
		Model:          chat.DefaultModel,
	}, opts)

	opts, err = registry.Resolve("openrouter", config.ProviderSettings{APIKey: "k", Model: "x/y"})
	require.NoError(t, err)
	require.Equal(t, "https://openrouter.ai/api/v1/chat/completions", opts.CompletionsURL)
	require.Equal(t, "x/y", opts.Model)
}

func TestResolveOllama(t *testing.T) {
	opts, err := registry.Resolve("ollama", config.ProviderSettings{})
	require.NoError(t, err)
	require.Equal(t, "http://localhost:11434/v1/chat/completions", opts.CompletionsURL)
	require.Empty(t, opts.APIKey)

	opts, err = registry.Resolve("ollama", config.ProviderSettings{BaseURL: "http://gpu:11434/v1/"})
	require.NoError(t, err)
	require.Equal(t, "http://gpu:11434/v1/chat/completions", opts.CompletionsURL)
}

func TestResolveErrors(t *testing.T) {
	_, err := registry.Resolve("nope", config.ProviderSettings{})
	require.ErrorContains(t, err, "unknown provider")

	_, err = registry.Resolve("deepseek", config.ProviderSettings{})
	require.ErrorContains(t, err, "DEEPSEEK_API_KEY")
}

func TestHelpers(t *testing.T) {
	require.Equal(t, "OPENROUTER_API_KEY", registry.APIKeyEnv("openrouter"))
	require.Equal(t, "MY_LLM_API_KEY", registry.APIKeyEnv("my-llm"))
	require.Equal(t, "http://h/v1/chat/completions", registry.CompletionsURL(" http://h/v1/ "))

	_, err := registry.OpenAICompatible("x", config.ProviderSettings{Model: "m"})
	require.ErrorContains(t, err, "baseURL is required")
	_, err = registry.OpenAICompatible("x", config.ProviderSettings{BaseURL: "http://h"})
	require.ErrorContains(t, err, "model is required")
}
