package host

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// ConsoleNotifier renders notifications to a terminal, standing in for the
// web client's toast popups.
type ConsoleNotifier struct {
	out     io.Writer
	success *color.Color
	failure *color.Color
}

// NewConsoleNotifier writes notifications to out.
func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{
		out:     out,
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed),
	}
}

// Success prints a green confirmation line.
func (n *ConsoleNotifier) Success(message string) {
	n.success.Fprintf(n.out, "✔ %s\n", message)
}

// Error prints a red, dismissible-style error line.
func (n *ConsoleNotifier) Error(message string) {
	n.failure.Fprintf(n.out, "✖ %s\n", message)
}

// RedirectToLogin tells the user to re-authenticate. The CLI has no login
// screen to switch to, so the signal becomes an instruction.
func (n *ConsoleNotifier) RedirectToLogin() {
	n.failure.Fprintf(n.out, "→ Session expired. Run with -login to sign in again.\n")
}

// ConsoleNavigator prints the route a real front end would navigate to.
type ConsoleNavigator struct {
	out io.Writer
}

// NewConsoleNavigator writes navigation hints to out.
func NewConsoleNavigator(out io.Writer) *ConsoleNavigator {
	return &ConsoleNavigator{out: out}
}

// NavigateTo prints the target route.
func (n *ConsoleNavigator) NavigateTo(route string) {
	fmt.Fprintf(n.out, "→ %s\n", route)
}
