// Package notify is the client's user-facing notification channel. Handlers
// report outcomes here instead of returning errors to the REPL loop.
package notify

// Severity classifies a notification for display.
type Severity int

const (
	Positive Severity = iota
	Negative
	Warning
	Info
)

// Notifier delivers one message to the user.
type Notifier interface {
	Notify(severity Severity, message string)
}

// Func adapts a function to the Notifier interface.
type Func func(severity Severity, message string)

func (f Func) Notify(severity Severity, message string) { f(severity, message) }
