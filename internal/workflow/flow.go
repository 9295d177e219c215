package workflow

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/remsg/remsg/internal/stringsutil"
)

// Options carries one run's flow-level settings. Provider, template and
// threshold choices live in the planner and generator handed to the flow.
type Options struct {
	Limit     int
	DryRun    bool
	NoBackup  bool
	AutoYes   bool
	Verbose   bool
	OutWriter io.Writer
	ErrWriter io.Writer
}

// RewriteFlow runs the pipeline end to end: checks, enumeration, planning,
// confirmation gates, backup and the history rewrite.
type RewriteFlow struct {
	git       GitClient
	planner   *Planner
	opts      Options
	confirmer Confirmer
}

func NewRewriteFlow(git GitClient, planner *Planner, opts Options) *RewriteFlow {
	return &RewriteFlow{
		git:     git,
		planner: planner,
		opts:    opts,
		confirmer: &InteractiveConfirmer{
			AutoYes:   opts.AutoYes,
			ErrWriter: opts.ErrWriter,
		},
	}
}

func (f *RewriteFlow) SetConfirmer(c Confirmer) {
	f.confirmer = c
}

func (f *RewriteFlow) Run(ctx context.Context) error {
	if err := f.git.CheckRepository(); err != nil {
		return err
	}

	clean, err := f.git.IsWorkingTreeClean()
	if err != nil {
		return err
	}
	if !clean {
		if f.opts.DryRun {
			fmt.Fprintln(f.opts.ErrWriter, "Note: working tree has uncommitted changes")
		} else if !f.confirmer.Confirm("Working tree has uncommitted changes. Continue?") {
			fmt.Fprintln(f.opts.ErrWriter, "Rewrite cancelled")
			return nil
		}
	}

	commits, err := f.git.ListCommits(f.opts.Limit)
	if err != nil {
		return err
	}
	if len(commits) == 0 {
		fmt.Fprintln(f.opts.ErrWriter, "No commits found, nothing to do")
		return nil
	}

	branch := ""
	if !f.opts.DryRun {
		branch, err = f.git.CurrentBranch()
		if err != nil {
			return err
		}
		prompt := fmt.Sprintf("This will rewrite the history of %s (%d commits scanned). Continue?",
			branch, len(commits))
		if !f.confirmer.Confirm(prompt) {
			fmt.Fprintln(f.opts.ErrWriter, "Rewrite cancelled")
			return nil
		}
	}

	plan, stats, err := f.planner.Build(ctx, commits)
	if err != nil {
		return err
	}

	f.report(plan)
	rewrites := plan.Rewrites()
	fmt.Fprintf(f.opts.ErrWriter, "Scanned %d commit(s): %d skipped (well formed), %d improved, %d kept; %d to rewrite\n",
		stats.Total, stats.Skipped, stats.Improved, stats.Kept, rewrites)

	if rewrites == 0 {
		fmt.Fprintln(f.opts.ErrWriter, "Nothing to rewrite")
		return nil
	}
	if f.opts.DryRun {
		fmt.Fprintln(f.opts.ErrWriter, "Dry run, history was not changed")
		return nil
	}

	if !f.confirmer.Confirm(fmt.Sprintf("Apply %d rewrite(s)?", rewrites)) {
		fmt.Fprintln(f.opts.ErrWriter, "Rewrite cancelled")
		return nil
	}

	return f.apply(branch, plan)
}

func (f *RewriteFlow) report(plan Plan) {
	for _, d := range plan.Decisions {
		short := stringsutil.ShortHash(d.Hash, 7, "?")
		switch {
		case d.Skipped:
			fmt.Fprintf(f.opts.OutWriter, "%s  %2d/10  skip     %s\n",
				short, d.Assessment.Score, stringsutil.FirstLine(d.Original))
		case d.Changed():
			fmt.Fprintf(f.opts.OutWriter, "%s  %2d/10  rewrite  %q -> %q\n",
				short, d.Assessment.Score, stringsutil.FirstLine(d.Original), stringsutil.FirstLine(d.Final))
		case d.Generated:
			fmt.Fprintf(f.opts.OutWriter, "%s  %2d/10  keep     %s\n",
				short, d.Assessment.Score, stringsutil.FirstLine(d.Original))
		default:
			fmt.Fprintf(f.opts.OutWriter, "%s  %2d/10  keep     %s (generation failed)\n",
				short, d.Assessment.Score, stringsutil.FirstLine(d.Original))
		}
		if f.opts.Verbose && len(d.Assessment.Reasons) > 0 {
			fmt.Fprintf(f.opts.OutWriter, "         reasons: %s\n", strings.Join(d.Assessment.Reasons, ", "))
		}
	}
}

func (f *RewriteFlow) apply(branch string, plan Plan) error {
	backup := ""
	if !f.opts.NoBackup {
		name, err := f.git.CreateBackupBranch(branch, time.Now())
		if err != nil {
			return fmt.Errorf("failed to create backup branch: %w", err)
		}
		backup = name
		fmt.Fprintf(f.opts.ErrWriter, "Backup branch created: %s\n", backup)
	}

	oldest, messages := plan.Replacements()
	if err := f.git.RewriteMessages(oldest, messages); err != nil {
		if backup != "" {
			fmt.Fprintf(f.opts.ErrWriter, "Rewrite failed, the original history is preserved on %s\n", backup)
		}
		return fmt.Errorf("failed to rewrite history: %w", err)
	}

	fmt.Fprintf(f.opts.ErrWriter, "Rewrote %d commit message(s)\n", plan.Rewrites())
	fmt.Fprintln(f.opts.ErrWriter, "Commit ids from the first rewritten commit onward have changed")
	if backup != "" {
		fmt.Fprintf(f.opts.ErrWriter, "Restore with: git reset --hard %s\n", backup)
	}
	return nil
}
