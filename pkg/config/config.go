package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultProvider = "openai"
	DefaultLogLevel = "info"
	configFileName  = "config.yaml"
)

// ProviderSettings holds credentials and routing for a provider.
type ProviderSettings struct {
	APIKey  string `yaml:"apiKey,omitempty"`
	Model   string `yaml:"model,omitempty"`
	BaseURL string `yaml:"baseURL,omitempty" validate:"omitempty,url"`
}

type Config struct {
	Provider string `yaml:"provider,omitempty" validate:"required"`
	// Model applies when the selected provider sets none of its own.
	Model  string `yaml:"model,omitempty"`
	Stream bool   `yaml:"stream,omitempty"`

	// HistoryFile is loaded before and saved after every ask when set.
	HistoryFile string `yaml:"historyFile,omitempty"`
	HistoryDir  string `yaml:"historyDir,omitempty"`
	LogLevel    string `yaml:"logLevel,omitempty" validate:"omitempty,oneof=debug info warn error"`

	Providers map[string]ProviderSettings `yaml:"providers,omitempty" validate:"dive"`
}

// Dir returns ~/.config/<binary>.
func Dir() (string, error) {
	exePath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to determine executable path: %w", err)
	}
	binaryName := filepath.Base(exePath)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", binaryName), nil
}

// Default returns the configuration written on first run.
func Default(configDir string) *Config {
	return &Config{
		Provider:   DefaultProvider,
		HistoryDir: filepath.Join(configDir, "history"),
		LogLevel:   DefaultLogLevel,
		Providers:  map[string]ProviderSettings{},
	}
}

func LoadOrCreateConfig() (*Config, error) {
	configDir, err := Dir()
	if err != nil {
		return nil, err
	}
	return LoadOrCreate(configDir)
}

// LoadOrCreate reads configDir/config.yaml, writing the defaults first when
// the file does not exist yet.
func LoadOrCreate(configDir string) (*Config, error) {
	configPath := filepath.Join(configDir, configFileName)

	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		if err := os.MkdirAll(configDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		defaultCfg := Default(configDir)
		if err := saveConfig(configPath, defaultCfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return defaultCfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.Provider == "" {
		cfg.Provider = DefaultProvider
	}
	if cfg.HistoryDir == "" {
		cfg.HistoryDir = filepath.Join(configDir, "history")
	}
	return &cfg, nil
}

func saveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ResolveAPIKey picks the first non-empty of flag, environment and config.
// An empty envVar skips the environment lookup.
func ResolveAPIKey(flagVal, envVar, configVal, provider string) (string, error) {
	if strings.TrimSpace(flagVal) != "" {
		return strings.TrimSpace(flagVal), nil
	}
	if envVar != "" {
		if envVal := os.Getenv(envVar); strings.TrimSpace(envVal) != "" {
			return strings.TrimSpace(envVal), nil
		}
	}
	if strings.TrimSpace(configVal) != "" {
		return strings.TrimSpace(configVal), nil
	}

	return "", fmt.Errorf("%s API key is required. Provide via flag, %s environment variable, or config", provider, envVar)
}

func (cfg *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// GetProviderSettings fetches settings from the Providers map.
func (cfg *Config) GetProviderSettings(name string) ProviderSettings {
	if cfg.Providers != nil {
		if ps, ok := cfg.Providers[name]; ok {
			return ps
		}
	}
	return ProviderSettings{}
}
