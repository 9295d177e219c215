// Package config loads and persists remsg configuration through viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the application configuration.
type Config struct {
	Provider       string `mapstructure:"provider"`
	Model          string `mapstructure:"model"`
	APIKey         string `mapstructure:"api_key"`
	APIBase        string `mapstructure:"api_base"`
	Language       string `mapstructure:"language"`
	PromptTemplate string `mapstructure:"prompt_template"`
	PromptsDir     string `mapstructure:"prompts_dir"`
	Threshold      int    `mapstructure:"quality_threshold"`
}

const (
	DefaultProvider       = "openai"
	DefaultPromptTemplate = "default"
	DefaultThreshold      = 7
	DefaultConfigName     = "config"
	DefaultConfigDir      = "remsg"
	LegacyConfigName      = ".remsg"
	EnvPrefix             = "REMSG"
)

// Suggested models per provider; any model name is accepted.
var suggestedModels = map[string][]string{
	"openai":    {"gpt-4o-mini", "gpt-4o", "gpt-4.1-mini"},
	"gemini":    {"gemini-2.0-flash", "gemini-2.5-flash", "gemini-2.5-pro"},
	"anthropic": {"claude-3-5-haiku-latest", "claude-sonnet-4-0"},
}

// InitConfig loads configuration from file, environment, and defaults.
// Resolution order for the file path: explicit flag, REMSG_CONFIG env var,
// legacy ~/.remsg.yaml if present, then the XDG config path.
func InitConfig(cfgFile string) error {
	path, err := resolveConfigPath(cfgFile)
	if err != nil {
		return err
	}

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	viper.SetDefault("provider", DefaultProvider)
	viper.SetDefault("model", "")
	viper.SetDefault("api_key", "")
	viper.SetDefault("api_base", "")
	viper.SetDefault("language", "")
	viper.SetDefault("prompt_template", DefaultPromptTemplate)
	viper.SetDefault("prompts_dir", "")
	viper.SetDefault("quality_threshold", DefaultThreshold)

	viper.SetEnvPrefix(EnvPrefix)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if os.IsNotExist(err) || isNotFoundError(err) {
			return writeFreshConfig(path)
		}
		return fmt.Errorf("failed to read configuration file: %w", err)
	}

	// Config files hold API keys; tighten permissions left loose by older versions.
	if info, err := os.Stat(path); err == nil && info.Mode().Perm() != 0o600 {
		_ = os.Chmod(path, 0o600)
	}

	return nil
}

func isNotFoundError(err error) bool {
	_, ok := err.(viper.ConfigFileNotFoundError)
	return ok
}

func resolveConfigPath(cfgFile string) (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	if envPath := os.Getenv(EnvPrefix + "_CONFIG"); envPath != "" {
		return envPath, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to find home directory: %w", err)
	}

	legacy := filepath.Join(home, LegacyConfigName+".yaml")
	if _, err := os.Stat(legacy); err == nil {
		return legacy, nil
	}

	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, DefaultConfigDir, DefaultConfigName+".yaml"), nil
}

func writeFreshConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create configuration directory: %w", err)
	}
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("failed to set configuration file permissions: %w", err)
	}
	return nil
}

// GetConfig returns the current configuration.
func GetConfig() (*Config, error) {
	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return cfg, nil
}

// SetConfigValue sets a configuration value in the active viper instance.
func SetConfigValue(key string, value interface{}) {
	viper.Set(key, value)
}

// SaveConfig persists the current configuration to the active config file.
func SaveConfig() error {
	return viper.WriteConfig()
}

// IsValidModel accepts any non-empty model name.
func IsValidModel(model string) bool {
	return model != ""
}

// GetSuggestedModels returns suggested model names for a provider.
func GetSuggestedModels(provider string) []string {
	return suggestedModels[provider]
}
