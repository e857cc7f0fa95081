package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/cardoctor/internal/auth"
	"github.com/hitoshi/cardoctor/internal/model"
)

// --- モック定義 ---

// mockTokenIssuer はTokenIssuerのモック実装。
type mockTokenIssuer struct {
	issueFn func(ctx context.Context, identity model.Identity) (*auth.IssuedToken, error)
}

func (m *mockTokenIssuer) Issue(ctx context.Context, identity model.Identity) (*auth.IssuedToken, error) {
	return m.issueFn(ctx, identity)
}

var fixedNow = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

func newTestAuthHandler(issuer TokenIssuer, secure bool) *AuthHandler {
	h := NewAuthHandler(issuer, AuthHandlerConfig{CookieSecure: secure})
	h.now = func() time.Time { return fixedNow }
	return h
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// --- POST /jwt テスト ---

func TestAuthHandler_IssueSession_SetsTokenCookie(t *testing.T) {
	var gotIdentity model.Identity
	issuer := &mockTokenIssuer{
		issueFn: func(ctx context.Context, identity model.Identity) (*auth.IssuedToken, error) {
			gotIdentity = identity
			return &auth.IssuedToken{Value: "signed.jwt.value", ExpiresAt: fixedNow.Add(time.Hour)}, nil
		},
	}
	h := newTestAuthHandler(issuer, true)

	req := httptest.NewRequest(http.MethodPost, "/jwt", strings.NewReader(`{"email":"a@x.com"}`))
	w := httptest.NewRecorder()

	h.IssueSession(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if gotIdentity.Email != "a@x.com" {
		t.Errorf("identity email = %q, want %q", gotIdentity.Email, "a@x.com")
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["success"] != true {
		t.Errorf("success = %v, want true", body["success"])
	}

	cookie := findCookie(resp, "token")
	if cookie == nil {
		t.Fatal("expected token cookie")
	}
	if cookie.Value != "signed.jwt.value" {
		t.Errorf("cookie value = %q, want %q", cookie.Value, "signed.jwt.value")
	}
	if !cookie.HttpOnly {
		t.Error("cookie should be HttpOnly")
	}
	if !cookie.Secure {
		t.Error("cookie should be Secure")
	}
	if cookie.SameSite != http.SameSiteNoneMode {
		t.Errorf("SameSite = %v, want None", cookie.SameSite)
	}
	if cookie.Path != "/" {
		t.Errorf("Path = %q, want %q", cookie.Path, "/")
	}
	if cookie.MaxAge != 3600 {
		t.Errorf("MaxAge = %d, want 3600", cookie.MaxAge)
	}
}

func TestAuthHandler_IssueSession_InsecureCookieUsesLax(t *testing.T) {
	issuer := &mockTokenIssuer{
		issueFn: func(ctx context.Context, identity model.Identity) (*auth.IssuedToken, error) {
			return &auth.IssuedToken{Value: "v", ExpiresAt: fixedNow.Add(time.Hour)}, nil
		},
	}
	h := newTestAuthHandler(issuer, false)

	req := httptest.NewRequest(http.MethodPost, "/jwt", strings.NewReader(`{"email":"a@x.com"}`))
	w := httptest.NewRecorder()

	h.IssueSession(w, req)

	cookie := findCookie(w.Result(), "token")
	if cookie == nil {
		t.Fatal("expected token cookie")
	}
	if cookie.Secure {
		t.Error("cookie should not be Secure")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", cookie.SameSite)
	}
}

func TestAuthHandler_IssueSession_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		issueErr   error
		wantStatus int
		wantCode   string
	}{
		{name: "malformed json", body: `{"email":`, wantStatus: http.StatusBadRequest, wantCode: model.ErrCodeInvalidRequest},
		{name: "non-object payload", body: `["a@x.com"]`, wantStatus: http.StatusBadRequest, wantCode: model.ErrCodeInvalidRequest},
		{name: "missing email", body: `{}`, issueErr: auth.ErrInvalidIdentity, wantStatus: http.StatusBadRequest, wantCode: model.ErrCodeInvalidIdentity},
		{name: "signing failure", body: `{"email":"a@x.com"}`, issueErr: errors.New("key error"), wantStatus: http.StatusInternalServerError, wantCode: model.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issuer := &mockTokenIssuer{
				issueFn: func(ctx context.Context, identity model.Identity) (*auth.IssuedToken, error) {
					if tt.issueErr != nil {
						return nil, fmt.Errorf("issue: %w", tt.issueErr)
					}
					return &auth.IssuedToken{Value: "v", ExpiresAt: fixedNow.Add(time.Hour)}, nil
				},
			}
			h := newTestAuthHandler(issuer, true)

			req := httptest.NewRequest(http.MethodPost, "/jwt", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			h.IssueSession(w, req)

			resp := w.Result()
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			var body apiErrorResponse
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
			if findCookie(resp, "token") != nil {
				t.Error("token cookie should not be set on error")
			}
		})
	}
}

// --- POST /logout テスト ---

func TestAuthHandler_EndSession_ExpiresCookie(t *testing.T) {
	h := newTestAuthHandler(&mockTokenIssuer{}, true)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "old-token"})
	w := httptest.NewRecorder()

	h.EndSession(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	setCookie := resp.Header.Get("Set-Cookie")
	if !strings.Contains(setCookie, "token=;") {
		t.Errorf("Set-Cookie = %q, want cleared token", setCookie)
	}
	if !strings.Contains(setCookie, "Max-Age=0") {
		t.Errorf("Set-Cookie = %q, want Max-Age=0", setCookie)
	}
	if !strings.Contains(setCookie, "HttpOnly") {
		t.Errorf("Set-Cookie = %q, want HttpOnly", setCookie)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["success"] != true {
		t.Errorf("success = %v, want true", body["success"])
	}
}
