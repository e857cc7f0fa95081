// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/cardoctor/internal/auth"
	"github.com/hitoshi/cardoctor/internal/middleware"
	"github.com/hitoshi/cardoctor/internal/model"
)

// TokenIssuer は認証ハンドラーが必要とするトークン発行インターフェース。
type TokenIssuer interface {
	Issue(ctx context.Context, identity model.Identity) (*auth.IssuedToken, error)
}

// AuthHandlerConfig は認証ハンドラーのCookie設定。
type AuthHandlerConfig struct {
	CookieDomain string
	CookieSecure bool
}

// AuthHandler はセッショントークンの発行と破棄を行うHTTPハンドラー。
type AuthHandler struct {
	issuer TokenIssuer
	config AuthHandlerConfig
	now    func() time.Time
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(issuer TokenIssuer, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		issuer: issuer,
		config: config,
		now:    time.Now,
	}
}

// IssueSession は識別情報を署名付きトークンにしてCookieに設定する。
// POST /jwt
func (h *AuthHandler) IssueSession(w http.ResponseWriter, r *http.Request) {
	var identity model.Identity
	if err := json.NewDecoder(r.Body).Decode(&identity); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("識別情報のJSONを解析できません"))
		return
	}

	token, err := h.issuer.Issue(r.Context(), identity)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidIdentity) {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidIdentityError())
			return
		}
		handleServiceError(w, r, err)
		return
	}

	maxAge := int(token.ExpiresAt.Sub(h.now()).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	http.SetCookie(w, h.sessionCookie(token.Value, maxAge, token.ExpiresAt))

	slog.Info("session issued", slog.String("email", identity.Email))
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// EndSession はセッションCookieを即時失効させる。サーバー側の状態は持たない。
// POST /logout
func (h *AuthHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.sessionCookie("", -1, time.Unix(0, 0)))
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// sessionCookie はセッショントークン用のHTTP Only Cookieを生成する。
// maxAgeが負の場合はMax-Age=0として出力される。
func (h *AuthHandler) sessionCookie(value string, maxAge int, expires time.Time) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if h.config.CookieSecure {
		// 別オリジンのフロントエンドからcredentials付きで送信させる
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    value,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		Expires:  expires.UTC(),
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: sameSite,
	}
}
