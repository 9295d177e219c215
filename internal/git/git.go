// Package git wraps the git commands the rewrite pipeline needs: history
// enumeration, working-tree checks, backup branches and message rewriting.
package git

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/remsg/remsg/internal/gitcmd"
	"github.com/remsg/remsg/internal/gitutil"
	"github.com/remsg/remsg/internal/stringsutil"
)

// ErrNotRepository indicates the working directory is outside a git work tree.
var ErrNotRepository = errors.New("not a git repository")

// Commit is one history entry with the context needed to judge and rewrite
// its message.
type Commit struct {
	Hash    string
	Subject string
	Message string
	Files   []string
	Diff    string
	Stats   string
}

type Options struct {
	Verbose bool
	Dir     string
}

type Client struct {
	runner gitcmd.Runner
}

func NewClient(opts Options) *Client {
	return &Client{
		runner: gitcmd.Runner{Verbose: opts.Verbose, Dir: opts.Dir},
	}
}

func (c *Client) git(args ...string) (gitcmd.Result, error) {
	result, err := c.runner.Run(args...)
	if err != nil {
		return result, gitError(args, result, err)
	}
	return result, nil
}

func gitError(args []string, result gitcmd.Result, err error) error {
	if stderr := result.StderrString(true); stderr != "" {
		return fmt.Errorf("git %s: %s", strings.Join(args, " "), stderr)
	}
	return fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
}

// IsRepository reports whether the directory is inside a git work tree.
func (c *Client) IsRepository() bool {
	result, err := c.runner.Run("rev-parse", "--is-inside-work-tree")
	return err == nil && result.StdoutString(true) == "true"
}

// CheckRepository returns ErrNotRepository when outside a work tree.
func (c *Client) CheckRepository() error {
	if !c.IsRepository() {
		return ErrNotRepository
	}
	return nil
}

// HasCommits reports whether HEAD resolves to a commit.
func (c *Client) HasCommits() bool {
	_, err := c.runner.Run("rev-parse", "--verify", "HEAD")
	return err == nil
}

// CurrentBranch returns the checked-out branch name, or "HEAD" when detached.
func (c *Client) CurrentBranch() (string, error) {
	result, err := c.git("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return result.StdoutString(true), nil
}

// IsWorkingTreeClean reports whether there are no staged or unstaged changes.
func (c *Client) IsWorkingTreeClean() (bool, error) {
	result, err := c.git("status", "--porcelain")
	if err != nil {
		return false, err
	}
	return result.StdoutString(true) == "", nil
}

// ListCommits returns history oldest-first, each commit carrying its file
// list, patch and numstat. A positive limit restricts the result to the
// limit most recent commits, still ordered oldest-first. An unborn branch
// yields an empty slice, not an error.
func (c *Client) ListCommits(limit int) ([]Commit, error) {
	if !c.HasCommits() {
		return nil, nil
	}

	args := []string{"log", "--reverse", "--pretty=format:%H%x1f%s%x1f%B%x1e"}
	if limit > 0 {
		args = append(args, "-n", strconv.Itoa(limit))
	}
	result, err := c.git(args...)
	if err != nil {
		return nil, err
	}

	commits := parseLog(result.StdoutString(false))
	for i := range commits {
		if err := c.loadChanges(&commits[i]); err != nil {
			return nil, err
		}
	}
	return commits, nil
}

func (c *Client) loadChanges(commit *Commit) error {
	files, err := c.git("diff-tree", "--no-commit-id", "--name-only", "-r", "--root", commit.Hash)
	if err != nil {
		return err
	}
	commit.Files = stringsutil.SplitNonEmpty(files.StdoutString(true), "\n")

	diff, err := c.git("show", "--format=", "--patch", commit.Hash)
	if err != nil {
		return err
	}
	commit.Diff = diff.StdoutString(false)

	stats, err := c.git("show", "--format=", "--numstat", commit.Hash)
	if err != nil {
		return err
	}
	commit.Stats = stats.StdoutString(true)
	return nil
}

// parseLog splits `git log --pretty=format:%H%x1f%s%x1f%B%x1e` output into
// commits. Records are separated by 0x1e, fields by 0x1f.
func parseLog(raw string) []Commit {
	var commits []Commit
	for _, record := range strings.Split(raw, "\x1e") {
		record = strings.TrimLeft(record, "\n")
		if strings.TrimSpace(record) == "" {
			continue
		}
		parts := strings.SplitN(record, "\x1f", 3)
		if len(parts) < 3 {
			continue
		}
		commits = append(commits, Commit{
			Hash:    strings.TrimSpace(parts[0]),
			Subject: parts[1],
			Message: strings.TrimRight(parts[2], "\n"),
		})
	}
	return commits
}

// CreateBackupBranch points backup/<branch>-<timestamp> at the current HEAD
// and returns the created name. Creation fails if the name already exists.
func (c *Client) CreateBackupBranch(branch string, now time.Time) (string, error) {
	name := fmt.Sprintf("backup/%s-%s", branch, now.Format("20060102-150405"))
	if err := gitutil.ValidateBranchName(name); err != nil {
		return "", err
	}
	result, err := c.runner.Run("branch", name)
	if err != nil {
		return "", gitutil.WrapGitError("failed to create backup branch "+name, result, err)
	}
	return name, nil
}

// RewriteMessages substitutes commit messages in one filter-branch pass.
// The rewritten range starts at the oldest given commit and runs to HEAD;
// messages must hold the final message for every commit in that range, keyed
// by the full hash captured at enumeration time. A commit without an entry
// aborts the rewrite instead of guessing, leaving the branch untouched.
func (c *Client) RewriteMessages(oldest string, messages map[string]string) error {
	if len(messages) == 0 {
		return nil
	}
	if _, ok := messages[oldest]; !ok {
		return fmt.Errorf("oldest commit %s has no replacement message", oldest)
	}

	gitDir, err := c.gitDir()
	if err != nil {
		return err
	}

	workDir := filepath.Join(gitDir, "remsg-rewrite")
	msgDir := filepath.Join(workDir, "messages")
	if err := os.MkdirAll(msgDir, 0o700); err != nil {
		return fmt.Errorf("failed to create rewrite directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	index := make([]string, 0, len(messages))
	for hash, msg := range messages {
		path := filepath.Join(msgDir, hash)
		if err := os.WriteFile(path, []byte(strings.TrimRight(msg, "\n")+"\n"), 0o600); err != nil {
			return fmt.Errorf("failed to write replacement message: %w", err)
		}
		index = append(index, hash)
	}
	indexPath := filepath.Join(workDir, "index")
	if err := os.WriteFile(indexPath, []byte(strings.Join(index, "\n")+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write rewrite index: %w", err)
	}

	rangeSpec := "HEAD"
	if _, err := c.runner.Run("rev-parse", "--verify", oldest+"^"); err == nil {
		rangeSpec = oldest + "^..HEAD"
	}

	filter := "m=" + shellQuote(msgDir) + `/$GIT_COMMIT; ` +
		`if [ -f "$m" ]; then cat "$m"; ` +
		`else echo "missing replacement for commit $GIT_COMMIT" >&2; exit 1; fi`

	runner := c.runner
	runner.Env = append(runner.Env, "FILTER_BRANCH_SQUELCH_WARNING=1")
	args := []string{"filter-branch", "-f", "--msg-filter", filter, "--", rangeSpec}
	result, err := runner.RunLogged(args...)
	if err != nil {
		return gitutil.WrapGitError("history rewrite failed", result, err)
	}
	return nil
}

func (c *Client) gitDir() (string, error) {
	result, err := c.git("rev-parse", "--absolute-git-dir")
	if err != nil {
		return "", err
	}
	return result.StdoutString(true), nil
}

// StagedFiles returns the paths staged for the next commit.
func (c *Client) StagedFiles() ([]string, error) {
	result, err := c.git("diff", "--cached", "--name-only")
	if err != nil {
		return nil, err
	}
	return stringsutil.SplitNonEmpty(result.StdoutString(true), "\n"), nil
}

// StagedDiff returns the staged changes as a unified diff.
func (c *Client) StagedDiff() (string, error) {
	result, err := c.git("diff", "--cached")
	if err != nil {
		return "", err
	}
	return result.StdoutString(false), nil
}

// HooksPath returns the directory git consults for hooks, resolved to an
// absolute path.
func (c *Client) HooksPath() (string, error) {
	result, err := c.git("rev-parse", "--git-path", "hooks")
	if err != nil {
		return "", err
	}

	path := result.StdoutString(true)
	if filepath.IsAbs(path) {
		return path, nil
	}
	if c.runner.Dir != "" {
		return filepath.Join(c.runner.Dir, path), nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve hooks path: %w", err)
	}
	return abs, nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
