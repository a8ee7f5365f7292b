package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/codearena/judgecore/types"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !VerifyPassword(hash, "correct horse battery staple") {
		t.Fatal("expected the original password to verify")
	}
	if VerifyPassword(hash, "wrong password") {
		t.Fatal("expected a wrong password to fail verification")
	}
}

func TestRequireRoleDisabledIsPassthrough(t *testing.T) {
	sessions := New("test-secret")
	called := false
	lookup := func(ctx context.Context, userID uint32) (types.Role, error) {
		t.Fatal("lookup should not run when auth mode is disabled")
		return 0, nil
	}
	mw := sessions.RequireRole(false, types.RoleAdmin, lookup)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs", nil))

	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected passthrough to reach the handler, called=%v code=%d", called, rec.Code)
	}
}

func TestRequireRoleMissingSessionIsBare401(t *testing.T) {
	sessions := New("test-secret")
	mw := sessions.RequireRole(true, types.RoleUser, func(context.Context, uint32) (types.Role, error) {
		return types.RoleAdmin, nil
	})
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run without a valid session")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("expected a bare 401 with no taxonomy body, got %q", rec.Body.String())
	}
}

func TestRequireRoleInsufficientRoleIs403(t *testing.T) {
	sessions := New("test-secret")
	cookie, err := sessions.IssueCookie(1)
	if err != nil {
		t.Fatalf("IssueCookie: %v", err)
	}

	mw := sessions.RequireRole(true, types.RoleAdmin, func(context.Context, uint32) (types.Role, error) {
		return types.RoleUser, nil
	})
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run for an under-privileged session")
	}))

	req := httptest.NewRequest(http.MethodPost, "/privilege", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestRequireRoleValidSessionInjectsUserID(t *testing.T) {
	sessions := New("test-secret")
	cookie, err := sessions.IssueCookie(7)
	if err != nil {
		t.Fatalf("IssueCookie: %v", err)
	}

	var gotID uint32
	var gotOK bool
	mw := sessions.RequireRole(true, types.RoleUser, func(context.Context, uint32) (types.Role, error) {
		return types.RoleUser, nil
	})
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, gotOK = UserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !gotOK || gotID != 7 {
		t.Fatalf("expected UserID to resolve to 7, got id=%d ok=%v", gotID, gotOK)
	}
}

func TestRequireRoleRejectsTamperedCookie(t *testing.T) {
	sessions := New("test-secret")
	cookie, err := sessions.IssueCookie(1)
	if err != nil {
		t.Fatalf("IssueCookie: %v", err)
	}
	cookie.Value = cookie.Value + "tampered"

	mw := sessions.RequireRole(true, types.RoleUser, func(context.Context, uint32) (types.Role, error) {
		return types.RoleAdmin, nil
	})
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run for a tampered session cookie")
	}))

	req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
