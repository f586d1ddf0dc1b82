// AngelaMos | 2026
// log.go

package notifier

import (
	"context"
	"log/slog"
)

// LogNotifier records notifications instead of delivering them. Used
// when no SMTP relay is configured, typically in development.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendCredentials(_ context.Context, c Credentials) error {
	n.logger.Info("credentials notification (not delivered)",
		slog.String("to", c.Email),
		slog.String("company", c.CompanyName),
		slog.String("username", c.Username),
	)
	return nil
}

func (n *LogNotifier) SendWarning(_ context.Context, w Warning) error {
	n.logger.Info("inactivity warning (not delivered)",
		slog.String("to", w.Email),
		slog.String("company", w.CompanyName),
		slog.String("status", w.Status),
		slog.Int("days_inactive", w.DaysInactive),
	)
	return nil
}

func (n *LogNotifier) SendDeletionNotice(_ context.Context, d DeletionNotice) error {
	n.logger.Info("deletion notice (not delivered)",
		slog.String("to", d.Email),
		slog.String("company", d.CompanyName),
		slog.String("reason", d.Reason),
	)
	return nil
}

func (n *LogNotifier) SendAccuracyWarning(_ context.Context, w AccuracyWarning) error {
	n.logger.Info("accuracy warning (not delivered)",
		slog.String("to", w.Email),
		slog.String("company", w.CompanyName),
		slog.Float64("accuracy", w.Accuracy),
	)
	return nil
}
