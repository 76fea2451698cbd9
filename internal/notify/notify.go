// Package notify carries user-facing feedback out of the services. The
// terminal frontend installs its own Notifier; services stay unaware of
// how messages are rendered.
package notify

import "log/slog"

// Notifier receives short user-facing messages.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// LogNotifier writes notifications to the structured log. It is the
// default when no frontend notifier is installed.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Success(msg string) {
	n.Logger.Info("notification", slog.String("kind", "success"), slog.String("message", msg))
}

func (n LogNotifier) Error(msg string) {
	n.Logger.Warn("notification", slog.String("kind", "error"), slog.String("message", msg))
}

// Nop discards all notifications.
type Nop struct{}

func (Nop) Success(string) {}
func (Nop) Error(string)   {}
