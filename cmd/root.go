package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/remsg/remsg/internal/config"
	"github.com/remsg/remsg/internal/git"
	"github.com/remsg/remsg/internal/llm"
	"github.com/remsg/remsg/internal/message"
	"github.com/remsg/remsg/internal/quality"
	"github.com/remsg/remsg/internal/workflow"
)

var (
	cfgFile      string
	providerName string
	modelName    string
	templateName string
	language     string
	instruction  string
	threshold    int
	limitCount   int
	dryRun       bool
	noBackup     bool
	rewriteAll   bool
	autoYes      bool
	verbose      bool
	configErr    error

	rootCtx = context.Background()

	rootCmd = &cobra.Command{
		Use:   "remsg",
		Short: "remsg - rewrite poor commit messages across history",
		Long: `remsg scores the commit messages of the current branch, rewrites the ` +
			`poor ones with an LLM and substitutes them across history. A backup ` +
			`branch keeps the original history reachable.`,
		Version:       fmt.Sprintf("%s (built at %s)", Version, BuildTime),
		SilenceErrors: true,
		SilenceUsage:  true,
	}
)

// Execute runs the root command under the context set with SetContext.
func Execute() error {
	return rootCmd.ExecuteContext(rootCtx)
}

// SetContext installs the context commands run under. main wires the
// signal-aware context through here before calling Execute.
func SetContext(ctx context.Context) {
	if ctx != nil {
		rootCtx = ctx
	}
}

// RootCmd exposes the root command for documentation generators.
func RootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	// Assigned here rather than in the composite literal to avoid an
	// initialization cycle: the closure refers to outWriter, which reads
	// rootCmd.
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if configErr != nil {
			return fmt.Errorf("configuration error: %w", configErr)
		}
		return runRewrite(cmd.Context())
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Configuration file path (default is the XDG config dir)")
	rootCmd.PersistentFlags().StringVar(&providerName, "provider", "", "LLM provider: openai, gemini or anthropic")
	rootCmd.PersistentFlags().StringVar(&modelName, "model", "", "Model name (defaults to the provider's standard model)")
	rootCmd.PersistentFlags().StringVar(&templateName, "template", "", "Prompt template name or path to a template file")
	rootCmd.PersistentFlags().StringVar(&language, "lang", "", "Language for generated messages (e.g. en, zh, es)")
	rootCmd.PersistentFlags().StringVar(&instruction, "instruction", "", "Extra instruction appended to the prompt")
	rootCmd.PersistentFlags().IntVar(&threshold, "threshold", 0, "Minimum score (1-10) for a message to count as well formed")
	rootCmd.PersistentFlags().IntVarP(&limitCount, "limit", "n", 0, "Only look at the N most recent commits (0 means all)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "Show the underlying git commands and score reasons")

	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the plan without touching history")
	rootCmd.Flags().BoolVar(&noBackup, "no-backup", false, "Do not create a backup branch before rewriting")
	rootCmd.Flags().BoolVarP(&rewriteAll, "all", "a", false, "Rewrite every commit, even well-formed ones")
	rootCmd.Flags().BoolVarP(&autoYes, "yes", "y", false, "Answer yes to every confirmation prompt")
}

func initConfig() {
	configErr = config.InitConfig(cfgFile)
}

func runRewrite(ctx context.Context) error {
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}

	if isStdinTerminal() && !autoYes {
		ok, err := ensureLLMConfigured(ctx, cfg, os.Stdin, errWriter(), runInitWizard)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if cfg, err = config.GetConfig(); err != nil {
			return err
		}
	}

	generator, err := buildGenerator(ctx, cfg)
	if err != nil {
		return err
	}

	evaluator := quality.NewEvaluator(resolveThreshold(cfg))
	planner := workflow.NewPlanner(generator, evaluator, !rewriteAll)
	gitClient := git.NewClient(git.Options{Verbose: verbose})

	flow := workflow.NewRewriteFlow(gitClient, planner, workflow.Options{
		Limit:     limitCount,
		DryRun:    dryRun,
		NoBackup:  noBackup,
		AutoYes:   autoYes,
		Verbose:   verbose,
		OutWriter: outWriter(),
		ErrWriter: errWriter(),
	})
	return flow.Run(ctx)
}

// buildGenerator constructs the provider and generator from the merged view
// of flags and configuration. Flags win over the config file.
func buildGenerator(ctx context.Context, cfg *config.Config) (*message.Generator, error) {
	provider := providerName
	if provider == "" {
		provider = cfg.Provider
	}
	model := modelName
	if model == "" {
		model = cfg.Model
	}

	llmProvider, err := llm.NewProvider(ctx, llm.Options{
		Provider: provider,
		Model:    model,
		APIKey:   cfg.APIKey,
		APIBase:  cfg.APIBase,
	})
	if err != nil {
		return nil, err
	}

	template := templateName
	if template == "" {
		template = cfg.PromptTemplate
	}
	lang := language
	if lang == "" {
		lang = cfg.Language
	}

	generator := message.NewGenerator(llmProvider, message.Options{
		Template:    template,
		Language:    lang,
		Instruction: instruction,
		PromptsDir:  cfg.PromptsDir,
	})
	generator.Logger = log.New(errWriter(), "", 0)
	return generator, nil
}

func resolveThreshold(cfg *config.Config) int {
	if threshold > 0 {
		return threshold
	}
	if cfg.Threshold > 0 {
		return cfg.Threshold
	}
	return config.DefaultThreshold
}
