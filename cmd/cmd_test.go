package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/renatogalera/ai-chat/pkg/chat"
	"github.com/renatogalera/ai-chat/pkg/config"
	"github.com/renatogalera/ai-chat/pkg/history"
	"github.com/renatogalera/ai-chat/pkg/version"
)

func TestResolveOptionsFromProvider(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "sk-env")
	cfg := &config.Config{Provider: "deepseek", Stream: true}

	opts, err := resolveOptions(cfg, &callFlags{})
	require.NoError(t, err)
	require.Equal(t, chat.Options{
		CompletionsURL: "https://api.deepseek.com/v1/chat/completions",
		APIKey:         "sk-env",
		Model:          "deepseek-chat",
		Stream:         true,
	}, opts)
}

func TestResolveOptionsModelPrecedence(t *testing.T) {
	t.Setenv("OLLAMA_API_KEY", "")
	cfg := &config.Config{
		Provider: "ollama",
		Model:    "global",
		Providers: map[string]config.ProviderSettings{
			"ollama": {Model: "qwen"},
		},
	}
	opts, err := resolveOptions(cfg, &callFlags{})
	require.NoError(t, err)
	require.Equal(t, "qwen", opts.Model)
	require.Equal(t, chat.DefaultAPIKey, opts.APIKey)

	opts, err = resolveOptions(cfg, &callFlags{model: "flag"})
	require.NoError(t, err)
	require.Equal(t, "flag", opts.Model)

	delete(cfg.Providers, "ollama")
	opts, err = resolveOptions(cfg, &callFlags{})
	require.NoError(t, err)
	require.Equal(t, "global", opts.Model)
}

func TestResolveOptionsMissingKey(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	cfg := &config.Config{Provider: "openrouter"}
	_, err := resolveOptions(cfg, &callFlags{})
	require.ErrorContains(t, err, "OPENROUTER_API_KEY")

	opts, err := resolveOptions(cfg, &callFlags{url: "http://localhost:8080/v1/chat/completions"})
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080/v1/chat/completions", opts.CompletionsURL)
	require.Equal(t, chat.DefaultAPIKey, opts.APIKey)
	require.Equal(t, chat.DefaultModel, opts.Model)
}

func TestResolveHistoryPath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "history")
	cfg := &config.Config{HistoryDir: dir}

	p, err := resolveHistoryPath(cfg, "")
	require.NoError(t, err)
	require.Empty(t, p)

	p, err = resolveHistoryPath(cfg, "work")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "work.json"), p)
	require.DirExists(t, dir)

	p, err = resolveHistoryPath(cfg, "./conv.json")
	require.NoError(t, err)
	require.Equal(t, "./conv.json", p)
}

func TestLoadHistoryMissingFileStartsEmpty(t *testing.T) {
	buf, err := chat.NewMessageBuffer(nil)
	require.NoError(t, err)
	defer buf.Destroy()

	require.NoError(t, loadHistory(filepath.Join(t.TempDir(), "new.json"), buf))
	require.True(t, buf.Empty())
	require.NoError(t, loadHistory("", buf))
}

func TestPrintConversation(t *testing.T) {
	var out bytes.Buffer
	printConversation(&out, "conv.json", []history.Turn{
		{Role: chat.RoleUser, Type: chat.ContentText, Data: "question"},
		{Role: chat.RoleAssistant, Type: chat.ContentText, Data: "answer\n"},
		{Role: chat.RoleUser, Type: chat.ContentImage, Data: "data:image/png;base64,AAAA"},
	})
	s := out.String()
	require.Contains(t, s, "conv.json")
	require.Contains(t, s, "question")
	require.Contains(t, s, "answer")
	require.Contains(t, s, "image attachment")
	require.Less(t, strings.Index(s, "question"), strings.Index(s, "answer"))
}

func TestAskWithoutPrompt(t *testing.T) {
	cmd := NewAskCmd()
	cmd.SetIn(strings.NewReader("   \n"))
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	require.ErrorContains(t, cmd.Execute(), "nothing to send")
}

func TestAskRejectsUnknownRole(t *testing.T) {
	cmd := NewAskCmd()
	cmd.SetArgs([]string{"--role", "system", "hi"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	require.ErrorIs(t, cmd.Execute(), chat.ErrUnknownRole)
}

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := NewVersionCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	require.Equal(t, version.UserAgent()+"\n", out.String())
}

func TestRootHasCommands(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"ask", "chat", "history", "version"} {
		c, _, err := root.Find([]string{name})
		require.NoError(t, err)
		require.Equal(t, name, c.Name())
	}
}

func TestApplyFlagsStream(t *testing.T) {
	cfg := applyFlags(&config.Config{Provider: "openai", Stream: true}, &callFlags{stream: false, streamSet: true})
	require.False(t, cfg.Stream)

	cfg = applyFlags(&config.Config{Provider: "openai", Stream: true}, &callFlags{})
	require.True(t, cfg.Stream)

	cfg = applyFlags(&config.Config{Provider: "openai"}, &callFlags{stream: true, streamSet: true, provider: "ollama"})
	require.True(t, cfg.Stream)
	require.Equal(t, "ollama", cfg.Provider)
}

