package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-auth/internal/service"
)

func TestCredentialsFromRequest(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(r *http.Request)
		wantOK    bool
		wantKinds []service.CredentialKind
	}{
		{
			name:   "missing header",
			setup:  func(*http.Request) {},
			wantOK: false,
		},
		{
			name:      "bearer token",
			setup:     func(r *http.Request) { r.Header.Set("Authorization", "Bearer abc.def.ghi") },
			wantOK:    true,
			wantKinds: []service.CredentialKind{service.CredentialToken},
		},
		{
			name:      "lowercase bearer",
			setup:     func(r *http.Request) { r.Header.Set("Authorization", "bearer abc") },
			wantOK:    true,
			wantKinds: []service.CredentialKind{service.CredentialToken},
		},
		{
			name:   "empty bearer",
			setup:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer ") },
			wantOK: false,
		},
		{
			name:      "basic tries token then password",
			setup:     func(r *http.Request) { r.SetBasicAuth("alice", "secret123") },
			wantOK:    true,
			wantKinds: []service.CredentialKind{service.CredentialToken, service.CredentialPassword},
		},
		{
			name:   "unsupported scheme",
			setup:  func(r *http.Request) { r.Header.Set("Authorization", "Digest xyz") },
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)
			creds, ok := credentialsFromRequest(req)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if len(creds) != len(tt.wantKinds) {
				t.Fatalf("expected %d credentials, got %d", len(tt.wantKinds), len(creds))
			}
			for i, kind := range tt.wantKinds {
				if creds[i].Kind != kind {
					t.Fatalf("credential %d: expected kind %v, got %v", i, kind, creds[i].Kind)
				}
			}
		})
	}
}

func TestAuthMiddleware_NotConfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", AuthMiddleware(zap.NewNop(), nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
