package email

import (
	"context"
	"errors"
)

// Sender define la interfaz para el envio del codigo de registro.
type Sender interface {
	SendRegistrationCode(ctx context.Context, toEmail string, code int) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendRegistrationCode(_ context.Context, _ string, _ int) error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}
