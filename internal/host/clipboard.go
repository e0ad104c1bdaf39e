// Package host implements the domain's capability ports against the local
// environment: clipboard, image capture, and console notifications.
package host

import (
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// CommandClipboard copies text by piping it to an external clipboard
// utility (xclip, wl-copy, pbcopy, ...).
type CommandClipboard struct {
	command string
	args    []string
}

// NewCommandClipboard builds a clipboard around the given command line,
// e.g. "xclip -selection clipboard". Returns an error for an empty command.
func NewCommandClipboard(commandLine string) (*CommandClipboard, error) {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil, fmt.Errorf("clipboard command is empty")
	}
	return &CommandClipboard{command: fields[0], args: fields[1:]}, nil
}

// Copy pipes text to the clipboard utility's stdin.
func (c *CommandClipboard) Copy(text string) error {
	cmd := exec.Command(c.command, c.args...)
	cmd.Stdin = strings.NewReader(text)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("run %s: %w (%s)", c.command, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// MemoryClipboard holds the last copied text in memory. It stands in when no
// clipboard utility is configured, and in tests.
type MemoryClipboard struct {
	mu   sync.Mutex
	text string
}

// Copy stores the text.
func (c *MemoryClipboard) Copy(text string) error {
	c.mu.Lock()
	c.text = text
	c.mu.Unlock()
	return nil
}

// Text returns the last copied text.
func (c *MemoryClipboard) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}
