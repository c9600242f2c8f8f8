package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestTokenService(secret string) (*TokenService, *fakeClock) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0).UTC()}
	svc := NewTokenService(secret, 0)
	svc.now = clock.Now
	return svc, clock
}

func TestTokenService_IssueVerify(t *testing.T) {
	svc, _ := newTestTokenService("secret")

	token, err := svc.Issue("u1", 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	userID, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if userID != "u1" {
		t.Fatalf("expected u1, got %s", userID)
	}
}

func TestTokenService_DefaultTTLIs600Seconds(t *testing.T) {
	svc, clock := newTestTokenService("secret")
	if svc.DefaultTTL() != 600*time.Second {
		t.Fatalf("expected default ttl 600s, got %v", svc.DefaultTTL())
	}

	token, err := svc.Issue("u1", 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	clock.Advance(599 * time.Second)
	if _, err := svc.Verify(token); err != nil {
		t.Fatalf("expected token valid before expiry, got %v", err)
	}

	clock.Advance(2 * time.Second)
	if _, err := svc.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenService_CustomTTL(t *testing.T) {
	svc, clock := newTestTokenService("secret")
	token, err := svc.Issue("u1", 30*time.Second)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	clock.Advance(31 * time.Second)
	if _, err := svc.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenService_RejectsTampering(t *testing.T) {
	svc, _ := newTestTokenService("secret")
	token, err := svc.Issue("u1", 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected three token segments, got %d", len(parts))
	}

	tests := []struct {
		name  string
		index int
	}{
		{name: "payload byte", index: len(parts[0]) + 1 + 5},
		{name: "signature byte", index: len(parts[0]) + len(parts[1]) + 2},
		{name: "header byte", index: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tampered := flipByte(token, tt.index)
			if tampered == token {
				t.Fatalf("tampering did not change the token")
			}
			userID, err := svc.Verify(tampered)
			if !errors.Is(err, ErrTokenInvalid) {
				t.Fatalf("expected ErrTokenInvalid, got %v", err)
			}
			if userID != "" {
				t.Fatalf("expected no user id for tampered token, got %s", userID)
			}
		})
	}
}

func TestTokenService_RejectsOtherSecret(t *testing.T) {
	issuer, _ := newTestTokenService("secret-a")
	verifier, _ := newTestTokenService("secret-b")

	token, err := issuer.Issue("u1", 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := verifier.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestTokenService_InvalidSignatureCheckedBeforeExpiry(t *testing.T) {
	issuer, clock := newTestTokenService("secret-a")
	token, err := issuer.Issue("u1", time.Second)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	verifier, _ := newTestTokenService("secret-b")
	clock.Advance(time.Hour)
	verifier.now = clock.Now
	if _, err := verifier.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for expired token with bad signature, got %v", err)
	}
}

func TestTokenService_RejectsUnsignedAlgorithm(t *testing.T) {
	svc, clock := newTestTokenService("secret")
	claims := tokenClaims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "user-auth",
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := svc.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for alg none, got %v", err)
	}
}

func TestTokenService_RejectsEmptyInputs(t *testing.T) {
	empty, _ := newTestTokenService("")
	if _, err := empty.Issue("u1", 0); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid on empty secret, got %v", err)
	}

	svc, _ := newTestTokenService("secret")
	if _, err := svc.Issue("  ", 0); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid on empty user id, got %v", err)
	}
	if _, err := svc.Verify(""); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid on empty token, got %v", err)
	}
	if _, err := svc.Verify("alice"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid on username-shaped input, got %v", err)
	}
}

func flipByte(s string, i int) string {
	b := []byte(s)
	if b[i] == 'A' {
		b[i] = 'B'
	} else {
		b[i] = 'A'
	}
	return string(b)
}
