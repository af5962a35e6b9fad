package controllers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/inkwell-tcg/inkwell-backend/api/middleware"
	authsvc "github.com/inkwell-tcg/inkwell-backend/internal/auth"
	"github.com/inkwell-tcg/inkwell-backend/pkg/enums"
	pkgerrors "github.com/inkwell-tcg/inkwell-backend/pkg/errors"
)

type stubAuthService struct {
	lastLogin   authsvc.LoginInput
	loginErr    error
	revoked     []string
	logoutError error
}

func (s *stubAuthService) Login(_ context.Context, input authsvc.LoginInput) (*authsvc.LoginResult, error) {
	s.lastLogin = input
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &authsvc.LoginResult{
		AccessToken: "token",
		UserID:      uuid.New(),
		Email:       input.Email,
		Role:        enums.UserRoleAdmin,
	}, nil
}

func (s *stubAuthService) Logout(_ context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return s.logoutError
}

func TestAdminLogin(t *testing.T) {
	t.Run("success carries client ip", func(t *testing.T) {
		svc := &stubAuthService{}
		handler := AdminLogin(svc, testControllerLogger())

		body := []byte(`{"email":"owner@inkwell.test","password":"hunter22"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/auth/login", bytes.NewReader(body))
		req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
		}
		if svc.lastLogin.Email != "owner@inkwell.test" {
			t.Fatalf("unexpected login input: %+v", svc.lastLogin)
		}
		if svc.lastLogin.ClientIP != "203.0.113.9" {
			t.Fatalf("expected forwarded ip, got %q", svc.lastLogin.ClientIP)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		handler := AdminLogin(&stubAuthService{}, testControllerLogger())
		req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/auth/login", bytes.NewReader([]byte("{")))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("bad credentials pass through", func(t *testing.T) {
		svc := &stubAuthService{loginErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")}
		handler := AdminLogin(svc, testControllerLogger())
		body := []byte(`{"email":"owner@inkwell.test","password":"wrong"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/auth/login", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestAdminLogout(t *testing.T) {
	t.Run("revokes the context session", func(t *testing.T) {
		svc := &stubAuthService{}
		handler := AdminLogout(svc, testControllerLogger())

		req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/auth/logout", nil)
		ctx := middleware.WithAuthContext(req.Context(), middleware.AuthContext{
			UserID:    uuid.New(),
			IsAdmin:   true,
			SessionID: "session-123",
		})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req.WithContext(ctx))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
		}
		if len(svc.revoked) != 1 || svc.revoked[0] != "session-123" {
			t.Fatalf("expected session revoked, got %v", svc.revoked)
		}
	})

	t.Run("missing auth context", func(t *testing.T) {
		svc := &stubAuthService{}
		handler := AdminLogout(svc, testControllerLogger())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/v1/auth/logout", nil))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		if len(svc.revoked) != 0 {
			t.Fatalf("nothing should be revoked, got %v", svc.revoked)
		}
	})
}
