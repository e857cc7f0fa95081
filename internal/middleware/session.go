// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/cardoctor/internal/model"
)

// SessionCookieName はセッショントークンを保持するCookie名。
const SessionCookieName = "token"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// identityContextKey はリクエストコンテキストに呼び出し元の識別情報を格納するためのキー。
var identityContextKey = contextKey("identity")

// TokenVerifier はセッショントークンの検証に必要なインターフェース。
// auth.TokenServiceの部分集合として定義する。
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*model.Identity, error)
}

// AuthFailureRecorder は認証失敗の記録に必要なインターフェース。
type AuthFailureRecorder interface {
	RecordAuthFailure(reason string)
}

// 認証失敗の理由ラベル
const (
	authFailureMissingToken = "missing_token"
	authFailureInvalidToken = "invalid_token"
)

// NewSessionMiddleware はCookieのセッショントークンを検証するミドルウェアを返す。
// 検証済みの識別情報をリクエストコンテキストに注入する。
// トークンが無い、または無効な場合は401 Unauthorizedを返す。
// recorderがnilの場合は認証失敗を記録しない。
func NewSessionMiddleware(verifier TokenVerifier, recorder AuthFailureRecorder) func(next http.Handler) http.Handler {
	reject := func(w http.ResponseWriter, reason string) {
		if recorder != nil {
			recorder.RecordAuthFailure(reason)
		}
		WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Cookieからトークンを取得
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				reject(w, authFailureMissingToken)
				return
			}

			// 2. トークンの署名と有効期限を検証
			identity, err := verifier.Verify(r.Context(), cookie.Value)
			if err != nil || identity == nil {
				if err == nil {
					err = errors.New("verifier returned no identity")
				}
				slog.Debug("session token rejected",
					slog.String("error", err.Error()),
				)
				reject(w, authFailureInvalidToken)
				return
			}

			// 3. 識別情報をコンテキストに注入
			setLoggedEmail(r.Context(), identity.Email)
			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), *identity)))
		})
	}
}

// IdentityFromContext はリクエストコンテキストから呼び出し元の識別情報を取得する。
// セッションミドルウェアを通過したリクエストでのみ存在する。
func IdentityFromContext(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(model.Identity)
	if !ok || identity.Email == "" {
		return model.Identity{}, false
	}
	return identity, true
}

// ContextWithIdentity はコンテキストに識別情報を注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithIdentity(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}
