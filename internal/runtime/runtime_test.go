package runtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/researcher/config"
)

func TestEchoAuthMiddleware(t *testing.T) {
	secret := []byte("test-secret")
	e := echo.New()
	handler := EchoAuthMiddleware(secret)(func(c echo.Context) error {
		sub, ok := SubjectFromContext(c.Request().Context())
		if !ok {
			t.Fatalf("subject missing from context")
		}
		return c.String(http.StatusOK, sub)
	})

	tok, err := SignJWT("user-1", secret, time.Minute)
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + tok, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			err := handler(e.NewContext(req, rec))
			code := rec.Code
			if he, ok := err.(*echo.HTTPError); ok {
				code = he.Code
			}
			if code != tc.want {
				t.Fatalf("status = %d, want %d", code, tc.want)
			}
		})
	}

	expired, _ := SignJWT("user-1", secret, -time.Minute)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	if err := handler(e.NewContext(req, httptest.NewRecorder())); err == nil {
		t.Fatalf("expired token should be rejected")
	}
}

func TestLoadJWTSecret(t *testing.T) {
	if _, err := LoadJWTSecret(config.ServerConfig{}); err == nil {
		t.Fatalf("expected error for missing secret")
	}
	got, err := LoadJWTSecret(config.ServerConfig{JWTSecret: "s"})
	if err != nil || string(got) != "s" {
		t.Fatalf("LoadJWTSecret = %q, %v", got, err)
	}
}

func TestSetupTelemetryDisabled(t *testing.T) {
	tel, err := SetupTelemetry(context.Background(), config.TelemetryConfig{}, TelemetryOptions{ServiceName: "test"})
	if err != nil {
		t.Fatalf("SetupTelemetry: %v", err)
	}
	if tel.MetricsHandler() != nil {
		t.Fatalf("metrics handler should be nil when disabled")
	}
	if err := tel.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestOpenersSkipUnconfigured(t *testing.T) {
	client, err := OpenRedis(context.Background(), config.RedisConfig{})
	if client != nil || err != nil {
		t.Fatalf("OpenRedis = %v, %v", client, err)
	}
	st, err := OpenStore(context.Background(), config.PostgresConfig{})
	if st != nil || err != nil {
		t.Fatalf("OpenStore = %v, %v", st, err)
	}
}
