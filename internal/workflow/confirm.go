package workflow

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Confirmer answers the yes/no gates guarding destructive steps.
type Confirmer interface {
	Confirm(prompt string) bool
}

// InteractiveConfirmer reads the answer from stdin. Anything but an explicit
// yes declines.
type InteractiveConfirmer struct {
	AutoYes   bool
	ErrWriter io.Writer
	Stdin     io.Reader
}

func (c *InteractiveConfirmer) Confirm(prompt string) bool {
	if c.AutoYes {
		fmt.Fprintf(c.ErrWriter, "%s yes (--yes is set)\n", prompt)
		return true
	}

	stdin := c.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}

	if f, ok := stdin.(*os.File); ok {
		if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
			fmt.Fprintln(c.ErrWriter, "stdin is not a terminal, use --yes to skip interactive confirmation")
			return false
		}
	}

	fmt.Fprintf(c.ErrWriter, "%s [y/N]: ", prompt)
	response, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(response)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
