package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/remsg/remsg/internal/config"
	"github.com/remsg/remsg/internal/git"
)

var (
	hookMessageFile string

	stagedCmd = &cobra.Command{
		Use:   "staged",
		Short: "Generate a commit message for the staged changes",
		Long: `Generate a commit message for the changes currently in the staging area ` +
			`and print it to stdout. With --hook, the message is written into the given ` +
			`commit message file instead, which is how the prepare-commit-msg hook uses it.`,
		Example: `  # Print a message for the staged changes
  remsg staged

  # Use it directly as the commit message
  git commit -m "$(remsg staged)"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configErr != nil {
				return fmt.Errorf("configuration error: %w", configErr)
			}
			return runStaged(cmd)
		},
		SilenceUsage: true,
	}
)

func init() {
	stagedCmd.Flags().StringVar(&hookMessageFile, "hook", "", "Write the message into the given commit message file")
	rootCmd.AddCommand(stagedCmd)
}

func runStaged(cmd *cobra.Command) error {
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}

	gitClient := git.NewClient(git.Options{Verbose: verbose})
	if err := gitClient.CheckRepository(); err != nil {
		return err
	}

	diff, err := gitClient.StagedDiff()
	if err != nil {
		return err
	}
	if strings.TrimSpace(diff) == "" {
		fmt.Fprintln(errWriter(), "No staged changes, stage files with `git add` first")
		return nil
	}
	files, err := gitClient.StagedFiles()
	if err != nil {
		return err
	}

	generator, err := buildGenerator(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	msg, err := generator.Staged(cmd.Context(), files, diff)
	if err != nil {
		return fmt.Errorf("failed to generate commit message: %w", err)
	}

	if hookMessageFile != "" {
		return writeHookMessage(hookMessageFile, msg)
	}
	fmt.Fprintln(outWriter(), msg)
	return nil
}

// writeHookMessage puts the generated message at the top of the commit
// message file, keeping whatever git already placed there (usually the
// commented status block) below it.
func writeHookMessage(path, msg string) error {
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read commit message file: %w", err)
	}

	content := msg + "\n"
	if trimmed := strings.TrimSpace(string(existing)); trimmed != "" {
		content += "\n" + string(existing)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write commit message file: %w", err)
	}
	return nil
}
