// Package obslog adapts userauth.Observer events onto log/slog,
// modeled on marmos91-dittofs/internal/logger's leveled, structured
// style — but instance-scoped rather than a process-wide global, since
// this is a library collaborator, not a CLI application's own logger.
package obslog

import (
	"log/slog"

	"github.com/nahara-io/sshauth/userauth"
)

// Logger implements userauth.Observer by emitting structured log
// records. A nil *Logger is not valid; use New.
type Logger struct {
	log *slog.Logger
}

// New wraps base, attaching the "component=userauth" attribute to every
// record this Logger emits.
func New(base *slog.Logger) *Logger {
	if base == nil {
		base = slog.Default()
	}
	return &Logger{log: base.With("component", "userauth")}
}

func (l *Logger) MethodStarted(correlationID, username, service, method string) {
	l.log.Info("auth method started",
		"correlation_id", correlationID,
		"username", username,
		"service", service,
		"method", method,
	)
}

func (l *Logger) MethodOutcome(correlationID, username, service, method string, outcome userauth.Outcome) {
	attrs := []any{
		"correlation_id", correlationID,
		"username", username,
		"service", service,
		"method", method,
		"outcome", outcome.Kind.String(),
	}
	if len(outcome.Methods) > 0 {
		attrs = append(attrs, "remaining_methods", outcome.Methods)
	}
	switch outcome.Kind {
	case userauth.Complete:
		l.log.Info("auth method succeeded", attrs...)
	case userauth.Cancelled:
		l.log.Warn("auth method cancelled locally", attrs...)
	default:
		l.log.Info("auth method did not complete", attrs...)
	}
}

func (l *Logger) BannerReceived(correlationID, text, language string) {
	l.log.Debug("auth banner received",
		"correlation_id", correlationID,
		"language", language,
		"length", len(text),
	)
}

func (l *Logger) ProtocolError(correlationID string, err error) {
	l.log.Error("auth protocol violation",
		"correlation_id", correlationID,
		"error", err,
	)
}

var _ userauth.Observer = (*Logger)(nil)
