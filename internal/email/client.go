// Package email defines the interface for transactional email delivery and
// provides a Resend-backed implementation.
package email

import (
	"context"
	"log/slog"
)

// HighRiskAlertParams holds the data for the alert sent to a student's
// assigned psychologist when a prediction lands on ALTO.
type HighRiskAlertParams struct {
	To           string  // psychologist's email address
	StudentName  string
	Nivel        string  // risk tier, e.g. "ALTO"
	Probabilidad float64 // 0..1
}

// Sender is the interface the worker uses to send email. Tests inject a stub
// that records calls without hitting the network.
type Sender interface {
	// SendHighRiskAlert notifies the assigned psychologist that a student's
	// refreshed prediction reached the high tier. Called by the worker after
	// the prediction is persisted.
	SendHighRiskAlert(ctx context.Context, p HighRiskAlertParams) error
}

// noopSender satisfies Sender without delivering anything. Used when no API
// key is configured, e.g. local development.
type noopSender struct {
	log *slog.Logger
}

// NewNoopSender returns a Sender that only logs. Alerts are not queued for
// later; an unconfigured mailer silently drops them.
func NewNoopSender(log *slog.Logger) Sender {
	return &noopSender{log: log}
}

func (n *noopSender) SendHighRiskAlert(_ context.Context, p HighRiskAlertParams) error {
	n.log.Info("email: no API key configured, skipping high-risk alert",
		"to", p.To, "nivel", p.Nivel)
	return nil
}
