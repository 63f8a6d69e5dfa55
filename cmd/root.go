// Package cmd wires the ai-chat command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/renatogalera/ai-chat/pkg/chat"
	"github.com/renatogalera/ai-chat/pkg/config"
	"github.com/renatogalera/ai-chat/pkg/history"
	"github.com/renatogalera/ai-chat/pkg/provider/registry"

	_ "github.com/renatogalera/ai-chat/pkg/provider/deepseek"
	_ "github.com/renatogalera/ai-chat/pkg/provider/ollama"
	_ "github.com/renatogalera/ai-chat/pkg/provider/openai"
	_ "github.com/renatogalera/ai-chat/pkg/provider/openrouter"
)

// callFlags are shared by the commands that talk to a provider.
type callFlags struct {
	provider string
	model    string
	url      string
	apiKey   string
	stream   bool
	history  string
	// streamSet records whether --stream was given explicitly.
	streamSet bool
}

func (f *callFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.provider, "provider", "p", "", "Provider name ("+strings.Join(registry.Names(), ", ")+")")
	cmd.Flags().StringVarP(&f.model, "model", "m", "", "Model name")
	cmd.Flags().StringVar(&f.url, "url", "", "Chat completions URL, overrides the provider endpoint")
	cmd.Flags().StringVar(&f.apiKey, "api-key", "", "API key (or set <PROVIDER>_API_KEY)")
	cmd.Flags().BoolVarP(&f.stream, "stream", "s", false, "Stream the reply as it is generated")
	cmd.Flags().StringVar(&f.history, "history", "", "History file path, or a name inside the history directory")
}

// environment is the resolved state every provider command starts from.
type environment struct {
	ctx         context.Context
	cancel      context.CancelFunc
	cfg         *config.Config
	opts        chat.Options
	historyFile string
}

var debug bool

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ai-chat",
		Short:         "Talk to OpenAI-compatible chat completion APIs from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	root.AddCommand(
		NewAskCmd(),
		NewChatCmd(),
		NewHistoryCmd(),
		NewVersionCmd(),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := NewRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func setLogLevel(cfg *config.Config) {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	if cfg.LogLevel == "" {
		return
	}
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("logLevel", cfg.LogLevel).Msg("Ignoring unknown log level")
		return
	}
	zerolog.SetGlobalLevel(lvl)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrCreateConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// setupEnvironment loads the configuration, applies flags and resolves the
// call options for the selected provider.
func setupEnvironment(f *callFlags) (*environment, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	cfg = applyFlags(cfg, f)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	setLogLevel(cfg)

	opts, err := resolveOptions(cfg, f)
	if err != nil {
		return nil, err
	}

	historyFile, err := resolveHistoryPath(cfg, cfg.HistoryFile)
	if err != nil {
		return nil, err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	log.Debug().
		Str("provider", cfg.Provider).
		Str("model", opts.Model).
		Str("url", opts.CompletionsURL).
		Bool("stream", opts.Stream).
		Str("history", historyFile).
		Msg("Environment ready")

	return &environment{ctx: ctx, cancel: cancel, cfg: cfg, opts: opts, historyFile: historyFile}, nil
}

// applyFlags merges non-empty flag values into cfg. --stream is applied
// whenever it was set so that --stream=false can turn streaming off.
func applyFlags(cfg *config.Config, f *callFlags) *config.Config {
	cm := config.NewConfigManager(cfg)
	cm.RegisterFlag("provider", f.provider)
	cm.RegisterFlag("model", f.model)
	cm.RegisterFlag("stream", f.stream)
	cm.RegisterFlag("historyFile", f.history)
	cfg = cm.MergeConfiguration()
	if f.streamSet {
		cfg.Stream = f.stream
	}
	return cfg
}

func resolveOptions(cfg *config.Config, f *callFlags) (chat.Options, error) {
	name := cfg.Provider
	ps := cfg.GetProviderSettings(name)
	switch {
	case f.model != "":
		ps.Model = f.model
	case ps.Model == "":
		ps.Model = cfg.Model
	}

	key, keyErr := config.ResolveAPIKey(f.apiKey, registry.APIKeyEnv(name), ps.APIKey, name)
	ps.APIKey = key

	var opts chat.Options
	if f.url != "" {
		// An explicit endpoint bypasses the provider preset; the key stays
		// optional.
		opts = chat.Options{CompletionsURL: f.url, APIKey: ps.APIKey, Model: ps.Model}
	} else {
		if keyErr != nil && registry.RequiresAPIKey(name) {
			return chat.Options{}, keyErr
		}
		var err error
		if opts, err = registry.Resolve(name, ps); err != nil {
			return chat.Options{}, err
		}
	}
	opts.Stream = cfg.Stream
	return opts.WithDefaults(), nil
}

// resolveHistoryPath maps a bare name to <historyDir>/<name>.json.
func resolveHistoryPath(cfg *config.Config, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", nil
	}
	if strings.ContainsRune(v, filepath.Separator) || filepath.Ext(v) != "" {
		return v, nil
	}
	if err := os.MkdirAll(cfg.HistoryDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create history directory: %w", err)
	}
	return filepath.Join(cfg.HistoryDir, v+history.Extension), nil
}

// loadHistory fills buf from path; a file that does not exist yet starts an
// empty conversation.
func loadHistory(path string, buf *chat.MessageBuffer) error {
	if path == "" {
		return nil
	}
	err := history.Load(path, buf)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		log.Debug().Str("history", path).Msg("Starting a new conversation")
		return nil
	}
	return err
}
