package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/attachkit/component"
	apperrors "github.com/kbukum/attachkit/errors"
	"github.com/kbukum/attachkit/logger"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := Config{Host: "127.0.0.1"}
	cfg.ApplyDefaults()
	return New(cfg, logger.Nop())
}

func TestApplyDefaults(t *testing.T) {
	s := newTestServer(t)
	s.ApplyDefaults("attachd", func(context.Context) []component.Health {
		return []component.Health{{Name: "database", Status: component.StatusHealthy}}
	})

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if rr.Header().Get("X-Request-Id") == "" {
		t.Error("missing X-Request-Id")
	}
}

func TestRespondWithError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  apperrors.ErrorCode
	}{
		{"app error", apperrors.NotFound("file", "x"), http.StatusNotFound, apperrors.ErrCodeNotFound},
		{"wrapped app error", errors.Join(errors.New("ctx"), apperrors.FileTooLarge(10, 5)), http.StatusRequestEntityTooLarge, apperrors.ErrCodeFileTooLarge},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, apperrors.ErrCodeInternal},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t)
			s.GinEngine().GET("/fail", func(c *gin.Context) { RespondWithError(c, tc.err) })

			rr := httptest.NewRecorder()
			s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/fail", http.NoBody))

			if rr.Code != tc.wantCode {
				t.Errorf("status = %d, want %d", rr.Code, tc.wantCode)
			}
			var body apperrors.ErrorResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid body: %v", err)
			}
			if body.Error.Code != tc.wantErr {
				t.Errorf("code = %s, want %s", body.Error.Code, tc.wantErr)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{Port: 70000}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for port out of range")
	}
	cfg = Config{}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestComponentHealthBeforeStart(t *testing.T) {
	c := NewComponent(newTestServer(t))
	if h := c.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Errorf("Health before Start = %s, want unhealthy", h.Status)
	}
	if d := c.Describe(); d.Port != 8080 {
		t.Errorf("Describe().Port = %d", d.Port)
	}
}
