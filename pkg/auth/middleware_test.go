package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

// mockAuthService is a mock implementation of AuthService for testing.
type mockAuthService struct {
	claims      *Claims
	token       string
	validateErr error
}

func (m *mockAuthService) ValidateRequest(r *http.Request) (*Claims, string, error) {
	if m.validateErr != nil {
		return nil, "", m.validateErr
	}
	return m.claims, m.token, nil
}

func userClaims(subject string) *Claims {
	c := &Claims{}
	c.Subject = subject
	return c
}

func assertUnauthorized(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
	var response map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if response["error"] != "unauthorized" {
		t.Errorf("expected error 'unauthorized', got %q", response["error"])
	}
}

func TestMiddleware_RequireAuth_Success(t *testing.T) {
	authService := &mockAuthService{claims: userClaims("user-1"), token: "test-token"}
	middleware := NewMiddleware(authService, zap.NewNop())

	var userID, ctxToken string
	handler := middleware.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		userID = GetUserIDFromContext(r.Context())
		ctxToken, _ = GetToken(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/mybatis/render", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if userID != "user-1" {
		t.Errorf("expected user 'user-1' in context, got %q", userID)
	}
	if ctxToken != "test-token" {
		t.Errorf("expected token 'test-token' in context, got %q", ctxToken)
	}
}

func TestMiddleware_RequireAuth_Unauthorized(t *testing.T) {
	middleware := NewMiddleware(&mockAuthService{validateErr: ErrMissingAuthorization}, zap.NewNop())

	handler := middleware.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/mybatis/render", nil))
	assertUnauthorized(t, rec)
}

func TestMiddleware_OptionalAuth_Anonymous(t *testing.T) {
	middleware := NewMiddleware(&mockAuthService{validateErr: ErrMissingAuthorization}, zap.NewNop())

	var called bool
	var hasClaims bool
	handler := middleware.OptionalAuth(func(w http.ResponseWriter, r *http.Request) {
		called = true
		_, hasClaims = GetClaims(r.Context())
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/mybatis/lint", nil))

	if !called {
		t.Fatal("expected handler to be called for anonymous request")
	}
	if hasClaims {
		t.Error("expected no claims in context")
	}
}

func TestMiddleware_OptionalAuth_InvalidCredentials(t *testing.T) {
	middleware := NewMiddleware(&mockAuthService{validateErr: errors.New("bad signature")}, zap.NewNop())

	handler := middleware.OptionalAuth(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/mybatis/lint", nil))
	assertUnauthorized(t, rec)
}

func TestMiddleware_OptionalAuth_ValidCredentials(t *testing.T) {
	middleware := NewMiddleware(&mockAuthService{claims: userClaims("user-2"), token: "t"}, zap.NewNop())

	var userID string
	handler := middleware.OptionalAuth(func(w http.ResponseWriter, r *http.Request) {
		userID = GetUserIDFromContext(r.Context())
	})

	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/mybatis/lint", nil))
	if userID != "user-2" {
		t.Errorf("expected user 'user-2', got %q", userID)
	}
}

func TestMiddleware_Guard(t *testing.T) {
	middleware := NewMiddleware(&mockAuthService{validateErr: ErrMissingAuthorization}, zap.NewNop())
	next := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }

	rec := httptest.NewRecorder()
	middleware.Guard(true)(next)(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("required guard: expected 401, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	middleware.Guard(false)(next)(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("optional guard: expected 204, got %d", rec.Code)
	}
}
