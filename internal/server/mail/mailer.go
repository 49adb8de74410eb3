// Package mail defines the outbound-notification collaborator invoked after a
// password-reset request. Delivery is out of the auth core's hands: failures
// are logged, never surfaced to the requester.
package mail

import (
	"context"

	"github.com/avdeyev/tokensmith/internal/logging"
)

// Sender delivers a password-reset token to the given address out-of-band.
type Sender interface {
	SendPasswordReset(ctx context.Context, email, resetToken string) error
}

// LogSender is the default Sender. It records the intent without the token
// value, for deployments where delivery is handled by an external relay
// consuming the API response instead.
type LogSender struct {
	logger logging.Logger
}

func NewLogSender(l logging.Logger) *LogSender {
	return &LogSender{logger: l.With("module", "mail")}
}

func (s *LogSender) SendPasswordReset(ctx context.Context, email, resetToken string) error {
	s.logger.Info(ctx, "password reset requested", "email", email)
	return nil
}
