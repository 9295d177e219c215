// Package workflow orchestrates the history rewrite pipeline: enumerate,
// assess, generate, confirm, apply.
package workflow

import (
	"context"
	"time"

	"github.com/remsg/remsg/internal/git"
)

// GitClient abstracts git operations for testability.
type GitClient interface {
	CheckRepository() error
	CurrentBranch() (string, error)
	IsWorkingTreeClean() (bool, error)
	ListCommits(limit int) ([]git.Commit, error)
	CreateBackupBranch(branch string, now time.Time) (string, error)
	RewriteMessages(oldest string, messages map[string]string) error
}

// MessageGenerator abstracts message generation for testability.
type MessageGenerator interface {
	Rewrite(ctx context.Context, commit git.Commit) (message string, generated bool)
}
