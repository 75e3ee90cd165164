package backup

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ErrAborted is returned when the operator declines a confirmation or input
// ends before one is given.
var ErrAborted = errors.New("aborted by operator")

// Guard asks the operator before each destructive step. Answers are read
// line by line from In; only "y" or "yes" proceeds. With Yes set every
// prompt is skipped and the override is logged at WARN.
type Guard struct {
	in     *bufio.Reader
	out    io.Writer
	yes    bool
	logger *slog.Logger
}

// NewGuard returns a Guard reading answers from in and writing prompts to
// out.
func NewGuard(in io.Reader, out io.Writer, yes bool, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{in: bufio.NewReader(in), out: out, yes: yes, logger: logger}
}

// Confirm prompts with the action and returns ErrAborted unless the operator
// answers yes.
func (g *Guard) Confirm(action string) error {
	if g.yes {
		g.logger.Warn("confirmation skipped by --yes", "action", action)
		return nil
	}
	if _, err := fmt.Fprintf(g.out, "%s? [y/N] ", action); err != nil {
		return err
	}
	line, err := g.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return nil
	}
	if errors.Is(err, io.EOF) && line == "" {
		g.logger.Warn("no confirmation on input", "action", action)
	}
	return fmt.Errorf("%s: %w", action, ErrAborted)
}
