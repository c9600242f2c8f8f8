package email

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
)

func TestNewSMTPSender_Validation(t *testing.T) {
	if _, err := NewSMTPSender("", 587, "", "", "noreply@example.com", "", false); err == nil {
		t.Fatalf("expected error for empty host")
	}
	if _, err := NewSMTPSender("smtp.example.com", 587, "", "", " ", "", false); err == nil {
		t.Fatalf("expected error for empty from")
	}
	s, err := NewSMTPSender("smtp.example.com", 0, "", "", "noreply@example.com", "", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.port != 587 {
		t.Fatalf("expected default port 587, got %d", s.port)
	}
}

func TestSMTPSender_SendRegistrationCode(t *testing.T) {
	s, err := NewSMTPSender("smtp.example.com", 2525, "user", "pass", "noreply@example.com", "Users", false)
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}

	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
		gotAuth smtp.Auth
	)
	s.send = func(addr string, a smtp.Auth, _ string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotTo, gotMsg = addr, a, to, string(msg)
		return nil
	}

	if err := s.SendRegistrationCode(context.Background(), "alice@example.com", 48213); err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotAddr != "smtp.example.com:2525" {
		t.Fatalf("unexpected addr %s", gotAddr)
	}
	if gotAuth == nil {
		t.Fatalf("expected auth when username is set")
	}
	if len(gotTo) != 1 || gotTo[0] != "alice@example.com" {
		t.Fatalf("unexpected recipients %+v", gotTo)
	}
	for _, want := range []string{
		"From: Users <noreply@example.com>",
		"To: alice@example.com",
		"Subject: Thank you for registering!",
		"Registration code: 48213",
	} {
		if !strings.Contains(gotMsg, want) {
			t.Fatalf("expected message to contain %q, got %q", want, gotMsg)
		}
	}
}

func TestSMTPSender_PropagatesFailure(t *testing.T) {
	s, err := NewSMTPSender("smtp.example.com", 587, "", "", "noreply@example.com", "", false)
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}
	s.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}
	if err := s.SendRegistrationCode(context.Background(), "alice@example.com", 10000); err == nil {
		t.Fatalf("expected send failure")
	}
	if err := s.SendRegistrationCode(context.Background(), "", 10000); err == nil {
		t.Fatalf("expected error for empty recipient")
	}
}

func TestDisabledSender(t *testing.T) {
	err := NewDisabledSender("smtp not configured").SendRegistrationCode(context.Background(), "a@b.c", 12345)
	if err == nil || err.Error() != "smtp not configured" {
		t.Fatalf("expected configured reason, got %v", err)
	}
}
