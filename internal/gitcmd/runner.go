// Package gitcmd is the single choke point for running git subprocesses.
// Both output streams are captured so callers can surface stderr in errors.
package gitcmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Runner executes git commands. Env entries are appended to the inherited
// environment. Logger receives command lines when Verbose is set and
// defaults to stderr.
type Runner struct {
	Verbose bool
	Dir     string
	Env     []string
	Logger  io.Writer
}

// Result holds the captured output of one git command.
type Result struct {
	Stdout []byte
	Stderr []byte
}

func (r Result) StdoutString(trim bool) string {
	return resultString(r.Stdout, trim)
}

func (r Result) StderrString(trim bool) string {
	return resultString(r.Stderr, trim)
}

func resultString(b []byte, trim bool) string {
	s := string(b)
	if trim {
		return strings.TrimSpace(s)
	}
	return s
}

// Run executes a git command and captures stdout and stderr.
func (r Runner) Run(args ...string) (Result, error) {
	return r.exec(args, false)
}

// RunLogged behaves like Run and additionally prints the command line when
// the runner is verbose.
func (r Runner) RunLogged(args ...string) (Result, error) {
	return r.exec(args, true)
}

func (r Runner) exec(args []string, logged bool) (Result, error) {
	if logged && r.Verbose {
		logger := r.Logger
		if logger == nil {
			logger = os.Stderr
		}
		fmt.Fprintf(logger, "Running: git %s\n", strings.Join(args, " "))
	}

	cmd := exec.Command("git", args...)
	if r.Dir != "" {
		cmd.Dir = r.Dir
	}
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, err
}
