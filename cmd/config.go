package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/remsg/remsg/internal/config"
	"github.com/remsg/remsg/internal/llm"
	"github.com/remsg/remsg/internal/message"
	"github.com/remsg/remsg/internal/quality"
	"github.com/remsg/remsg/internal/stringsutil"
)

// configKeys are the settings config get/set accept, in display order.
var configKeys = []string{
	"provider",
	"model",
	"api_key",
	"api_base",
	"language",
	"prompt_template",
	"prompts_dir",
	"quality_threshold",
}

var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage remsg configuration",
		Long:  "Read and write the remsg configuration file. Keys: " + strings.Join(configKeys, ", ") + ".",
	}

	configGetCmd = &cobra.Command{
		Use:   "get <key>",
		Short: "Print one configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if configErr != nil {
				return fmt.Errorf("configuration error: %w", configErr)
			}
			return runConfigGet(args[0])
		},
		SilenceUsage: true,
	}

	configSetCmd = &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if configErr != nil {
				return fmt.Errorf("configuration error: %w", configErr)
			}
			return runConfigSet(args[0], args[1])
		},
		SilenceUsage: true,
	}

	configListCmd = &cobra.Command{
		Use:   "list",
		Short: "Print all configuration values",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configErr != nil {
				return fmt.Errorf("configuration error: %w", configErr)
			}
			return runConfigList()
		},
		SilenceUsage: true,
	}

	configTemplatesCmd = &cobra.Command{
		Use:   "templates",
		Short: "List available prompt templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configErr != nil {
				return fmt.Errorf("configuration error: %w", configErr)
			}
			return runConfigTemplates()
		},
		SilenceUsage: true,
	}
)

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configTemplatesCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigGet(key string) error {
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}
	value, ok := configValue(cfg, key)
	if !ok {
		return unknownKeyError(key)
	}
	fmt.Fprintln(outWriter(), value)
	return nil
}

func runConfigSet(key, rawValue string) error {
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}

	value, err := parseConfigValue(key, rawValue)
	if err != nil {
		return err
	}

	config.SetConfigValue(key, value)
	if err := config.SaveConfig(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	fmt.Fprintf(errWriter(), "Set %s\n", key)

	if key == "provider" && cfg.Model == "" {
		if models := config.GetSuggestedModels(fmt.Sprint(value)); len(models) > 0 {
			fmt.Fprintf(errWriter(), "Suggested models: %s\n", strings.Join(models, ", "))
		}
	}
	return nil
}

func runConfigList() error {
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}
	for _, key := range configKeys {
		value, _ := configValue(cfg, key)
		if value == "" {
			value = "<not set>"
		}
		fmt.Fprintf(outWriter(), "%-18s %s\n", key, value)
	}
	return nil
}

func runConfigTemplates() error {
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}

	names := message.BuiltinTemplateNames()
	if cfg.PromptsDir != "" {
		custom, err := message.ListCustomTemplates(cfg.PromptsDir)
		if err != nil {
			fmt.Fprintf(errWriter(), "Skipping custom templates: %v\n", err)
		}
		names = append(names, custom...)
	}

	names = stringsutil.UniqueStrings(names)
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintln(outWriter(), name)
	}
	if cfg.PromptsDir != "" {
		fmt.Fprintf(errWriter(), "Custom templates are read from %s\n", cfg.PromptsDir)
	}
	return nil
}

// configValue returns the display form of one key. The API key is masked.
func configValue(cfg *config.Config, key string) (string, bool) {
	switch key {
	case "provider":
		return cfg.Provider, true
	case "model":
		return cfg.Model, true
	case "api_key":
		if cfg.APIKey == "" {
			return "", true
		}
		return "********", true
	case "api_base":
		return cfg.APIBase, true
	case "language":
		return cfg.Language, true
	case "prompt_template":
		return cfg.PromptTemplate, true
	case "prompts_dir":
		return cfg.PromptsDir, true
	case "quality_threshold":
		return strconv.Itoa(cfg.Threshold), true
	}
	return "", false
}

// parseConfigValue validates a raw value and converts it to the type the
// configuration stores for that key.
func parseConfigValue(key, value string) (any, error) {
	switch key {
	case "provider":
		name := strings.ToLower(value)
		for _, p := range llm.SupportedProviders() {
			if p == name {
				return name, nil
			}
		}
		return nil, fmt.Errorf("unsupported provider %q (supported: %s)",
			value, strings.Join(llm.SupportedProviders(), ", "))
	case "model":
		if !config.IsValidModel(value) {
			return nil, fmt.Errorf("model name must not be empty")
		}
		return value, nil
	case "quality_threshold":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > quality.MaxScore {
			return nil, fmt.Errorf("quality_threshold must be an integer between 1 and %d", quality.MaxScore)
		}
		return n, nil
	case "api_key", "api_base", "language", "prompt_template", "prompts_dir":
		return value, nil
	}
	return nil, unknownKeyError(key)
}

func unknownKeyError(key string) error {
	return fmt.Errorf("unknown configuration key %q (known: %s)", key, strings.Join(configKeys, ", "))
}
