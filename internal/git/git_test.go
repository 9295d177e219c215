package git

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/remsg/remsg/internal/gitcmd"
)

func gitAvailable() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

func mustRun(t *testing.T, r gitcmd.Runner, args ...string) {
	t.Helper()
	result, err := r.Run(args...)
	if err != nil {
		t.Fatalf("git %v failed: %v\n%s", args, err, result.StderrString(true))
	}
}

// newTestRepo creates an isolated repository under t.TempDir and returns a
// client bound to it.
func newTestRepo(t *testing.T) (*Client, string, gitcmd.Runner) {
	t.Helper()
	if !gitAvailable() {
		t.Skip("git is not installed")
	}

	dir := t.TempDir()
	runner := gitcmd.Runner{Dir: dir}
	mustRun(t, runner, "init", "-q")
	mustRun(t, runner, "config", "user.email", "dev@example.com")
	mustRun(t, runner, "config", "user.name", "Dev")
	mustRun(t, runner, "config", "commit.gpgsign", "false")

	return NewClient(Options{Dir: dir}), dir, runner
}

func commitFile(t *testing.T, dir string, runner gitcmd.Runner, name, content, msg string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	mustRun(t, runner, "add", name)
	mustRun(t, runner, "commit", "-q", "-m", msg)
}

func TestParseLog(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Commit
	}{
		{
			name:  "two commits with bodies",
			input: "aaa\x1ffirst subject\x1ffirst subject\n\nbody line\n\x1e\nbbb\x1fsecond\x1fsecond\n\x1e",
			expected: []Commit{
				{Hash: "aaa", Subject: "first subject", Message: "first subject\n\nbody line"},
				{Hash: "bbb", Subject: "second", Message: "second"},
			},
		},
		{
			name:     "empty input",
			input:    "",
			expected: nil,
		},
		{
			name:  "malformed record skipped",
			input: "no separators here\x1e\nccc\x1fok\x1fok\n\x1e",
			expected: []Commit{
				{Hash: "ccc", Subject: "ok", Message: "ok"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseLog(tt.input)
			if len(got) != len(tt.expected) {
				t.Fatalf("expected %d commits, got %d", len(tt.expected), len(got))
			}
			for i := range got {
				want := tt.expected[i]
				if got[i].Hash != want.Hash || got[i].Subject != want.Subject || got[i].Message != want.Message {
					t.Errorf("commit %d: expected %+v, got %+v", i, want, got[i])
				}
			}
		})
	}
}

func TestIsRepository(t *testing.T) {
	client, _, _ := newTestRepo(t)

	if !client.IsRepository() {
		t.Error("expected IsRepository to be true inside a repository")
	}
	if err := client.CheckRepository(); err != nil {
		t.Errorf("expected CheckRepository to pass, got %v", err)
	}

	outside := NewClient(Options{Dir: t.TempDir()})
	if outside.IsRepository() {
		t.Error("expected IsRepository to be false outside a repository")
	}
	if err := outside.CheckRepository(); !errors.Is(err, ErrNotRepository) {
		t.Errorf("expected ErrNotRepository, got %v", err)
	}
}

func TestHasCommits(t *testing.T) {
	client, dir, runner := newTestRepo(t)

	if client.HasCommits() {
		t.Error("expected no commits right after init")
	}

	commitFile(t, dir, runner, "a.txt", "hello\n", "first")
	if !client.HasCommits() {
		t.Error("expected commits after first commit")
	}
}

func TestCurrentBranch(t *testing.T) {
	client, dir, runner := newTestRepo(t)
	commitFile(t, dir, runner, "a.txt", "hello\n", "first")

	branch, err := client.CurrentBranch()
	if err != nil {
		t.Fatalf("CurrentBranch: %v", err)
	}
	if branch == "" || branch == "HEAD" {
		t.Errorf("expected a branch name, got %q", branch)
	}
}

func TestIsWorkingTreeClean(t *testing.T) {
	client, dir, runner := newTestRepo(t)
	commitFile(t, dir, runner, "a.txt", "hello\n", "first")

	clean, err := client.IsWorkingTreeClean()
	if err != nil {
		t.Fatalf("IsWorkingTreeClean: %v", err)
	}
	if !clean {
		t.Error("expected a clean tree after commit")
	}

	if err := os.WriteFile(filepath.Join(dir, "b.txt"), []byte("new\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	clean, err = client.IsWorkingTreeClean()
	if err != nil {
		t.Fatalf("IsWorkingTreeClean: %v", err)
	}
	if clean {
		t.Error("expected a dirty tree with an untracked file")
	}
}

func TestListCommits(t *testing.T) {
	client, dir, runner := newTestRepo(t)
	commitFile(t, dir, runner, "a.txt", "one\n", "first commit")
	commitFile(t, dir, runner, "b.txt", "two\n", "second commit")
	commitFile(t, dir, runner, "c.txt", "three\n", "third commit")

	commits, err := client.ListCommits(0)
	if err != nil {
		t.Fatalf("ListCommits: %v", err)
	}
	if len(commits) != 3 {
		t.Fatalf("expected 3 commits, got %d", len(commits))
	}
	if commits[0].Subject != "first commit" || commits[2].Subject != "third commit" {
		t.Errorf("expected oldest-first order, got %q .. %q", commits[0].Subject, commits[2].Subject)
	}

	first := commits[0]
	if len(first.Files) != 1 || first.Files[0] != "a.txt" {
		t.Errorf("expected files [a.txt], got %v", first.Files)
	}
	if !strings.Contains(first.Diff, "+one") {
		t.Errorf("expected diff to contain the added line, got %q", first.Diff)
	}
	if !strings.Contains(first.Stats, "a.txt") {
		t.Errorf("expected numstat to mention a.txt, got %q", first.Stats)
	}
}

func TestListCommitsLimit(t *testing.T) {
	client, dir, runner := newTestRepo(t)
	commitFile(t, dir, runner, "a.txt", "one\n", "first commit")
	commitFile(t, dir, runner, "b.txt", "two\n", "second commit")
	commitFile(t, dir, runner, "c.txt", "three\n", "third commit")

	commits, err := client.ListCommits(2)
	if err != nil {
		t.Fatalf("ListCommits: %v", err)
	}
	if len(commits) != 2 {
		t.Fatalf("expected 2 commits, got %d", len(commits))
	}
	if commits[0].Subject != "second commit" || commits[1].Subject != "third commit" {
		t.Errorf("expected the two most recent commits oldest-first, got %q, %q",
			commits[0].Subject, commits[1].Subject)
	}
}

func TestListCommitsEmptyRepository(t *testing.T) {
	client, _, _ := newTestRepo(t)

	commits, err := client.ListCommits(0)
	if err != nil {
		t.Fatalf("expected empty history to succeed, got %v", err)
	}
	if len(commits) != 0 {
		t.Errorf("expected no commits, got %d", len(commits))
	}
}

func TestCreateBackupBranch(t *testing.T) {
	client, dir, runner := newTestRepo(t)
	commitFile(t, dir, runner, "a.txt", "one\n", "first commit")

	branch, err := client.CurrentBranch()
	if err != nil {
		t.Fatalf("CurrentBranch: %v", err)
	}

	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	name, err := client.CreateBackupBranch(branch, now)
	if err != nil {
		t.Fatalf("CreateBackupBranch: %v", err)
	}
	want := "backup/" + branch + "-20250314-092653"
	if name != want {
		t.Errorf("expected backup name %q, got %q", want, name)
	}

	head, err := runner.Run("rev-parse", "HEAD")
	if err != nil {
		t.Fatal(err)
	}
	backup, err := runner.Run("rev-parse", name)
	if err != nil {
		t.Fatalf("backup branch does not resolve: %v", err)
	}
	if head.StdoutString(true) != backup.StdoutString(true) {
		t.Error("expected backup branch to point at HEAD")
	}

	if _, err := client.CreateBackupBranch(branch, now); err == nil {
		t.Error("expected duplicate backup name to fail")
	}
}

func TestCreateBackupBranchRejectsInvalidName(t *testing.T) {
	client := NewClient(Options{Dir: t.TempDir()})
	if _, err := client.CreateBackupBranch("bad branch", time.Now()); err == nil {
		t.Error("expected invalid branch name to fail")
	}
}

func TestRewriteMessages(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("filter-branch needs a POSIX shell")
	}
	client, dir, runner := newTestRepo(t)
	commitFile(t, dir, runner, "a.txt", "one\n", "first commit")
	commitFile(t, dir, runner, "b.txt", "two\n", "update")
	commitFile(t, dir, runner, "c.txt", "three\n", "wip")

	before, err := client.ListCommits(0)
	if err != nil {
		t.Fatal(err)
	}

	replacements := map[string]string{
		before[1].Hash: "feat(api): add second endpoint",
		before[2].Hash: "fix(api): handle empty payload",
	}
	if err := client.RewriteMessages(before[1].Hash, replacements); err != nil {
		t.Fatalf("RewriteMessages: %v", err)
	}

	after, err := client.ListCommits(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(after) != 3 {
		t.Fatalf("expected 3 commits after rewrite, got %d", len(after))
	}
	if after[0].Hash != before[0].Hash {
		t.Errorf("expected untouched commit to keep its hash, got %s -> %s", before[0].Hash, after[0].Hash)
	}
	if after[0].Message != "first commit" {
		t.Errorf("expected first message unchanged, got %q", after[0].Message)
	}
	if after[1].Message != "feat(api): add second endpoint" {
		t.Errorf("unexpected second message %q", after[1].Message)
	}
	if after[2].Message != "fix(api): handle empty payload" {
		t.Errorf("unexpected third message %q", after[2].Message)
	}

	gitDir, err := client.gitDir()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(gitDir, "remsg-rewrite")); !os.IsNotExist(err) {
		t.Error("expected rewrite artifacts to be cleaned up")
	}
}

func TestRewriteMessagesRootCommit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("filter-branch needs a POSIX shell")
	}
	client, dir, runner := newTestRepo(t)
	commitFile(t, dir, runner, "a.txt", "one\n", "initial")
	commitFile(t, dir, runner, "b.txt", "two\n", "feat: keep me")

	before, err := client.ListCommits(0)
	if err != nil {
		t.Fatal(err)
	}

	replacements := map[string]string{
		before[0].Hash: "chore: bootstrap project",
		before[1].Hash: before[1].Message,
	}
	if err := client.RewriteMessages(before[0].Hash, replacements); err != nil {
		t.Fatalf("RewriteMessages: %v", err)
	}

	after, err := client.ListCommits(0)
	if err != nil {
		t.Fatal(err)
	}
	if after[0].Message != "chore: bootstrap project" {
		t.Errorf("unexpected root message %q", after[0].Message)
	}
	if after[1].Message != "feat: keep me" {
		t.Errorf("expected kept message to survive, got %q", after[1].Message)
	}
}

func TestRewriteMessagesFailsOnMissingMapping(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("filter-branch needs a POSIX shell")
	}
	client, dir, runner := newTestRepo(t)
	commitFile(t, dir, runner, "a.txt", "one\n", "first commit")
	commitFile(t, dir, runner, "b.txt", "two\n", "second commit")

	before, err := client.ListCommits(0)
	if err != nil {
		t.Fatal(err)
	}

	// The range covers both commits but only the oldest has a message.
	replacements := map[string]string{
		before[0].Hash: "chore: renamed",
	}
	err = client.RewriteMessages(before[0].Hash, replacements)
	if err == nil {
		t.Fatal("expected rewrite to fail when a commit in range has no message")
	}

	after, err := client.ListCommits(0)
	if err != nil {
		t.Fatal(err)
	}
	if after[0].Message != "first commit" || after[1].Message != "second commit" {
		t.Errorf("expected branch to be untouched after failed rewrite, got %q, %q",
			after[0].Message, after[1].Message)
	}
}

func TestRewriteMessagesValidation(t *testing.T) {
	client, dir, runner := newTestRepo(t)
	commitFile(t, dir, runner, "a.txt", "one\n", "first commit")

	if err := client.RewriteMessages("whatever", nil); err != nil {
		t.Errorf("expected empty replacement map to be a no-op, got %v", err)
	}

	err := client.RewriteMessages("deadbeef", map[string]string{"other": "msg"})
	if err == nil || !strings.Contains(err.Error(), "no replacement message") {
		t.Errorf("expected missing-oldest error, got %v", err)
	}
}

func TestStagedFilesAndDiff(t *testing.T) {
	client, dir, runner := newTestRepo(t)
	commitFile(t, dir, runner, "a.txt", "one\n", "first commit")

	files, err := client.StagedFiles()
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 0 {
		t.Errorf("expected nothing staged, got %v", files)
	}

	if err := os.WriteFile(filepath.Join(dir, "staged.txt"), []byte("line\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	mustRun(t, runner, "add", "staged.txt")

	files, err = client.StagedFiles()
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0] != "staged.txt" {
		t.Errorf("expected [staged.txt], got %v", files)
	}

	diff, err := client.StagedDiff()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(diff, "+line") {
		t.Errorf("expected staged diff to contain the added line, got %q", diff)
	}
}

func TestHooksPath(t *testing.T) {
	client, dir, runner := newTestRepo(t)
	commitFile(t, dir, runner, "a.txt", "one\n", "first commit")

	path, err := client.HooksPath()
	if err != nil {
		t.Fatalf("HooksPath: %v", err)
	}
	if !filepath.IsAbs(path) {
		t.Errorf("expected an absolute path, got %q", path)
	}
	if filepath.Base(path) != "hooks" {
		t.Errorf("expected path to end in hooks, got %q", path)
	}
}

func TestShellQuote(t *testing.T) {
	if got := shellQuote("/plain/path"); got != "'/plain/path'" {
		t.Errorf("unexpected quoting %q", got)
	}
	if got := shellQuote("it's"); got != `'it'"'"'s'` {
		t.Errorf("unexpected quoting %q", got)
	}
}
