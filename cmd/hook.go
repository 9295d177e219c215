package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/remsg/remsg/internal/git"
	"github.com/remsg/remsg/internal/hook"
)

var (
	hookForce bool

	hookCmd = &cobra.Command{
		Use:   "hook",
		Short: "Manage the prepare-commit-msg hook",
		Long: `Install, remove or inspect the prepare-commit-msg hook. The hook runs ` +
			"`remsg staged --hook` so that `git commit` starts the editor with a " +
			`generated message already filled in.`,
	}

	hookInstallCmd = &cobra.Command{
		Use:   "install",
		Short: "Install the prepare-commit-msg hook",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHookInstall()
		},
		SilenceUsage: true,
	}

	hookUninstallCmd = &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the prepare-commit-msg hook",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHookUninstall()
		},
		SilenceUsage: true,
	}

	hookStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show whether the hook is installed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHookStatus()
		},
		SilenceUsage: true,
	}
)

func init() {
	hookInstallCmd.Flags().BoolVar(&hookForce, "force", false, "Replace a hook that was not installed by remsg")
	hookCmd.AddCommand(hookInstallCmd)
	hookCmd.AddCommand(hookUninstallCmd)
	hookCmd.AddCommand(hookStatusCmd)
	rootCmd.AddCommand(hookCmd)
}

func hookManager() (*hook.Manager, error) {
	gitClient := git.NewClient(git.Options{Verbose: verbose})
	if err := gitClient.CheckRepository(); err != nil {
		return nil, err
	}
	hooksDir, err := gitClient.HooksPath()
	if err != nil {
		return nil, err
	}
	return hook.NewManager(hooksDir), nil
}

func runHookInstall() error {
	manager, err := hookManager()
	if err != nil {
		return err
	}
	if err := manager.Install(hookForce); err != nil {
		return err
	}
	fmt.Fprintf(errWriter(), "Hook installed: %s\n", manager.Path())
	return nil
}

func runHookUninstall() error {
	manager, err := hookManager()
	if err != nil {
		return err
	}
	if err := manager.Uninstall(); err != nil {
		return err
	}
	fmt.Fprintln(errWriter(), "Hook removed")
	return nil
}

func runHookStatus() error {
	manager, err := hookManager()
	if err != nil {
		return err
	}
	status, err := manager.CheckStatus()
	if err != nil {
		return err
	}
	fmt.Fprintf(outWriter(), "%s: %s\n", manager.Path(), status)
	return nil
}
