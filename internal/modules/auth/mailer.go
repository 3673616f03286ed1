package auth

import (
	"context"

	"github.com/rs/zerolog"
)

// DevConsoleMailer logs codes instead of sending mail. Good enough for
// local development and tests.
type DevConsoleMailer struct {
	enabled bool
	log     zerolog.Logger
}

func NewDevConsoleMailer(enabled bool, log zerolog.Logger) *DevConsoleMailer {
	return &DevConsoleMailer{enabled: enabled, log: log}
}

func (m *DevConsoleMailer) SendVerificationCode(_ context.Context, email, code string) error {
	if m.enabled {
		m.log.Info().Str("email", email).Str("code", code).Msg("dev verification email")
	}
	return nil
}
