// Package ui holds terminal progress helpers for long-running pipeline steps.
package ui

import (
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"
)

// Spinner shows progress on stderr while commits are generated. It stays
// silent when stderr is not a terminal, so piped and hook runs keep clean
// output. A nil inner spinner means disabled; all methods are safe to call.
type Spinner struct {
	s *spinner.Spinner
}

func NewSpinner(message string) *Spinner {
	if !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return &Spinner{}
	}

	s := spinner.New(spinner.CharSets[14], 120*time.Millisecond,
		spinner.WithWriter(os.Stderr), spinner.WithHiddenCursor(true))
	s.Suffix = " " + message
	return &Spinner{s: s}
}

func (sp *Spinner) Start() {
	if sp.s != nil {
		sp.s.Start()
	}
}

func (sp *Spinner) Stop() {
	if sp.s != nil {
		sp.s.Stop()
	}
}

// UpdateMessage swaps the text shown next to the spinner glyph.
func (sp *Spinner) UpdateMessage(message string) {
	if sp.s != nil {
		sp.s.Suffix = " " + message
	}
}
