package notify

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	colorOK   = color.New(color.FgGreen, color.Bold).SprintFunc()
	colorErr  = color.New(color.FgRed, color.Bold).SprintFunc()
	colorWarn = color.New(color.FgYellow).SprintFunc()
	colorInfo = color.New(color.FgBlue).SprintFunc()
)

// TerminalNotifier prints severity-coloured notifications.
type TerminalNotifier struct {
	w io.Writer
}

func NewTerminalNotifier(w io.Writer) *TerminalNotifier {
	return &TerminalNotifier{w: w}
}

func (t *TerminalNotifier) Notify(severity Severity, message string) {
	switch severity {
	case Positive:
		fmt.Fprintln(t.w, colorOK("OK:"), message)
	case Negative:
		fmt.Fprintln(t.w, colorErr("ERROR:"), message)
	case Warning:
		fmt.Fprintln(t.w, colorWarn("WARNING:"), message)
	default:
		fmt.Fprintln(t.w, colorInfo("INFO:"), message)
	}
}
