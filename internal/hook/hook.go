// Package hook manages the prepare-commit-msg hook that fills empty commit
// messages from the staged diff.
package hook

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const hookName = "prepare-commit-msg"

// hookMarker identifies scripts installed by remsg.
const hookMarker = "# remsg prepare-commit-msg hook"

const hookScript = `#!/bin/sh
` + hookMarker + `
# Generates a commit message from the staged changes when none was given.
# $1 is the message file, $2 the message source (empty for plain git commit).

[ -n "$2" ] && exit 0

if command -v remsg >/dev/null 2>&1; then
    remsg staged --hook "$1" || exit 0
fi
`

// Status describes the state of the prepare-commit-msg hook.
type Status int

const (
	StatusNotInstalled Status = iota
	StatusInstalled
	StatusForeign
)

func (s Status) String() string {
	switch s {
	case StatusInstalled:
		return "installed"
	case StatusForeign:
		return "a different prepare-commit-msg hook is installed"
	default:
		return "not installed"
	}
}

// Manager installs and removes the hook script in a hooks directory.
type Manager struct {
	hooksDir string
}

func NewManager(hooksDir string) *Manager {
	return &Manager{hooksDir: hooksDir}
}

// Path returns the location of the managed hook script.
func (m *Manager) Path() string {
	return filepath.Join(m.hooksDir, hookName)
}

// Install writes the hook script. An existing hook not written by remsg is
// left alone unless force is set, in which case it is backed up first.
func (m *Manager) Install(force bool) error {
	if err := os.MkdirAll(m.hooksDir, 0o750); err != nil {
		return fmt.Errorf("failed to create hooks directory: %w", err)
	}

	path := m.Path()
	existing, err := os.ReadFile(path)
	switch {
	case err == nil && !isManaged(existing):
		if !force {
			return fmt.Errorf("a %s hook already exists at %s, use --force to replace it", hookName, path)
		}
		backup := path + ".backup-" + time.Now().Format("20060102-150405")
		if err := os.Rename(path, backup); err != nil {
			return fmt.Errorf("failed to back up existing hook: %w", err)
		}
	case err != nil && !os.IsNotExist(err):
		return fmt.Errorf("failed to read existing hook: %w", err)
	}

	if err := os.WriteFile(path, []byte(hookScript), 0o755); err != nil {
		return fmt.Errorf("failed to write hook: %w", err)
	}
	return nil
}

// Uninstall removes the hook script if remsg installed it. A missing hook is
// not an error; a foreign hook is never touched.
func (m *Manager) Uninstall() error {
	path := m.Path()
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read hook: %w", err)
	}
	if !isManaged(content) {
		return fmt.Errorf("refusing to remove %s: not installed by remsg", path)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove hook: %w", err)
	}
	return nil
}

// CheckStatus reports whether the hook is installed and who owns it.
func (m *Manager) CheckStatus() (Status, error) {
	content, err := os.ReadFile(m.Path())
	if os.IsNotExist(err) {
		return StatusNotInstalled, nil
	}
	if err != nil {
		return StatusNotInstalled, fmt.Errorf("failed to read hook: %w", err)
	}
	if isManaged(content) {
		return StatusInstalled, nil
	}
	return StatusForeign, nil
}

func isManaged(content []byte) bool {
	return strings.Contains(string(content), hookMarker)
}
