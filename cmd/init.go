package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/remsg/remsg/internal/config"
	"github.com/remsg/remsg/internal/llm"
)

var (
	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Initialize remsg configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if configErr != nil {
				return fmt.Errorf("configuration error: %w", configErr)
			}
			cfg, err := config.GetConfig()
			if err != nil {
				return err
			}
			if err := runInitWizard(cmd.Context(), os.Stdin, outWriter(), cfg); err != nil {
				return err
			}
			fmt.Fprintln(outWriter(), "Initialization complete.")
			return nil
		},
		SilenceUsage: true,
	}

	saveConfigValues = func(provider, apiKey, model, apiBase string) error {
		config.SetConfigValue("provider", provider)
		config.SetConfigValue("api_key", apiKey)
		config.SetConfigValue("model", model)
		config.SetConfigValue("api_base", apiBase)
		return config.SaveConfig()
	}

	testLLMConnection = func(ctx context.Context, opts llm.Options) error {
		provider, err := llm.NewProvider(ctx, opts)
		if err != nil {
			return err
		}
		_, err = provider.GenerateMessage(ctx, "Reply with the single word: ok", "")
		return err
	}

	readPassword = func(fd int) ([]byte, error) {
		return term.ReadPassword(fd)
	}

	isStdinTerminal = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}
)

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInitWizard(ctx context.Context, in io.Reader, out io.Writer, current *config.Config) error {
	cfg, err := initWizardConfig(current)
	if err != nil {
		return err
	}
	readLine := newTrimmedLineReader(in)
	fmt.Fprintln(out, "remsg init - configure your LLM provider")

	provider, err := promptProvider(out, cfg, readLine)
	if err != nil {
		return err
	}
	apiKey, err := promptAPIKey(in, out, provider, cfg, readLine)
	if err != nil {
		return err
	}
	model, err := promptModel(out, provider, cfg, readLine)
	if err != nil {
		return err
	}
	apiBase, err := promptAPIBase(out, cfg, readLine)
	if err != nil {
		return err
	}

	if err := saveConfigValues(provider, apiKey, model, apiBase); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	return maybeTestConnection(ctx, out, llm.Options{
		Provider: provider,
		Model:    model,
		APIKey:   apiKey,
		APIBase:  apiBase,
	}, readLine)
}

func initWizardConfig(current *config.Config) (*config.Config, error) {
	if current != nil {
		return current, nil
	}
	return config.GetConfig()
}

func newTrimmedLineReader(in io.Reader) func() (string, error) {
	reader := bufio.NewReader(in)
	return func() (string, error) {
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		if errors.Is(err, io.EOF) && line == "" {
			return "", io.EOF
		}
		return strings.TrimSpace(line), nil
	}
}

func promptProvider(out io.Writer, cfg *config.Config, readLine func() (string, error)) (string, error) {
	current := cfg.Provider
	if current == "" {
		current = config.DefaultProvider
	}
	choices := strings.Join(llm.SupportedProviders(), "/")

	for {
		fmt.Fprintf(out, "Provider [%s] (default: %s): ", choices, current)
		line, err := readLine()
		if err != nil {
			return "", err
		}
		if line == "" {
			return current, nil
		}
		name := strings.ToLower(line)
		for _, p := range llm.SupportedProviders() {
			if p == name {
				return name, nil
			}
		}
		fmt.Fprintf(out, "Unknown provider %q.\n", line)
	}
}

func promptAPIKey(in io.Reader, out io.Writer, provider string, cfg *config.Config, readLine func() (string, error)) (string, error) {
	for {
		if cfg.APIKey != "" {
			fmt.Fprintf(out, "API key for %s (leave blank to keep current): ", provider)
		} else {
			fmt.Fprintf(out, "API key for %s (required): ", provider)
		}

		line, err := readSecret(in, out, readLine)
		if err != nil {
			return "", err
		}
		if line == "" {
			if cfg.APIKey != "" {
				return cfg.APIKey, nil
			}
			fmt.Fprintln(out, "API key is required.")
			continue
		}
		return line, nil
	}
}

// readSecret reads without echo when stdin is a terminal and falls back to a
// plain line read otherwise, which is what tests and pipes hit.
func readSecret(in io.Reader, out io.Writer, readLine func() (string, error)) (string, error) {
	if f, ok := in.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		secret, err := readPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(secret)), nil
	}
	return readLine()
}

func promptModel(out io.Writer, provider string, cfg *config.Config, readLine func() (string, error)) (string, error) {
	modelDefault := cfg.Model
	if modelDefault == "" {
		modelDefault = llm.DefaultModel(provider)
	}
	if suggested := config.GetSuggestedModels(provider); len(suggested) > 0 {
		fmt.Fprintf(out, "Suggested models: %s\n", strings.Join(suggested, ", "))
	}
	fmt.Fprintf(out, "Model (default: %s): ", modelDefault)

	line, err := readLine()
	if err != nil {
		return "", err
	}
	if line == "" {
		return modelDefault, nil
	}
	return line, nil
}

func promptAPIBase(out io.Writer, cfg *config.Config, readLine func() (string, error)) (string, error) {
	apiBaseLabel := cfg.APIBase
	if apiBaseLabel == "" {
		apiBaseLabel = "<empty>"
	}
	fmt.Fprintf(out, "API base URL for OpenAI-compatible proxies (default: %s): ", apiBaseLabel)

	line, err := readLine()
	if err != nil {
		return "", err
	}
	if line == "" {
		return cfg.APIBase, nil
	}
	return line, nil
}

func maybeTestConnection(ctx context.Context, out io.Writer, opts llm.Options, readLine func() (string, error)) error {
	for {
		fmt.Fprint(out, "Test API connection now? [Y/n]: ")
		answer, err := readLine()
		if err != nil {
			return err
		}
		switch strings.ToLower(answer) {
		case "", "y", "yes":
			fmt.Fprintln(out, "Testing API connection...")
			if err := testLLMConnection(ctx, opts); err != nil {
				fmt.Fprintf(out, "Connection test failed: %v\n", err)
				fmt.Fprintln(out, "You can re-run `remsg init` or update config with `remsg config set`.")
			} else {
				fmt.Fprintln(out, "Connection test succeeded.")
			}
			return nil
		case "n", "no":
			return nil
		default:
			fmt.Fprintln(out, "Please enter y or n.")
		}
	}
}

// ensureLLMConfigured offers the init wizard when no API key is available
// from the config file or the provider's environment variable. It returns
// false when the user declines.
func ensureLLMConfigured(
	ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer,
	initRunner func(context.Context, io.Reader, io.Writer, *config.Config) error,
) (bool, error) {
	current := cfg
	if current == nil {
		var err error
		current, err = config.GetConfig()
		if err != nil {
			return false, err
		}
	}

	provider := current.Provider
	if provider == "" {
		provider = config.DefaultProvider
	}
	if llm.ResolveAPIKey(provider, current.APIKey) != "" {
		return true, nil
	}

	fmt.Fprintln(out, "API key is not configured.")
	fmt.Fprintln(out, "An API key is required to rewrite commit messages.")

	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(out, "Run `remsg init` now? [Y/n]: ")
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}
		if errors.Is(err, io.EOF) && strings.TrimSpace(line) == "" {
			fmt.Fprintln(out, "Initialization skipped. Run `remsg init` anytime to configure.")
			return false, nil
		}

		answer := strings.ToLower(strings.TrimSpace(line))
		switch answer {
		case "", "y", "yes":
			if err := initRunner(ctx, reader, out, current); err != nil {
				return false, err
			}
			return true, nil
		case "n", "no":
			fmt.Fprintln(out, "Initialization skipped. Run `remsg init` anytime to configure.")
			return false, nil
		default:
			fmt.Fprintln(out, "Please enter y or n.")
		}
	}
}
