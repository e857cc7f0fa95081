// Package auth はセッショントークンの発行と検証を提供する。
//
// トークンはHS256で署名されたJWTで、サーバー側には一切の状態を保持しない。
// 有効性は署名と埋め込まれた有効期限のみで判定する（失効リスト・リフレッシュは持たない）。
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hitoshi/cardoctor/internal/model"
)

const (
	// DefaultTokenTTL はセッショントークンのデフォルト有効期間。
	DefaultTokenTTL = time.Hour

	// tokenIssuer はトークンのissクレームに設定する発行者名。
	tokenIssuer = "cardoctor"
)

var (
	// ErrInvalidIdentity は発行対象の識別情報が型付きクレームの要件を満たさない場合のエラー。
	ErrInvalidIdentity = errors.New("identity payload must contain a non-empty email")

	// ErrInvalidToken はトークンの署名・有効期限・ペイロードのいずれかが不正な場合のエラー。
	ErrInvalidToken = errors.New("invalid session token")
)

// TokenConfig はトークンサービスの設定。
type TokenConfig struct {
	Secret string
	TTL    time.Duration
	// Now は現在時刻を返す。nilの場合はtime.Nowを使用する。
	Now func() time.Time
}

// IssuedToken は発行済みのセッショントークンを表す。
type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// sessionClaims はトークンに埋め込む型付きクレーム。
type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService はセッショントークンの発行と検証を行う。
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService はTokenServiceを生成する。署名鍵が空の場合はエラーを返す。
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token secret is required")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &TokenService{
		secret: []byte(cfg.Secret),
		ttl:    ttl,
		now:    now,
	}, nil
}

// TTL はトークンの有効期間を返す。Cookieの有効期間の算出に使用する。
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue は識別情報に署名し、有効期限付きのトークンを発行する。
// 発行のたびに独立したトークンが生成され、重複チェックやリプレイ対策は行わない。
func (s *TokenService) Issue(_ context.Context, identity model.Identity) (*IssuedToken, error) {
	if identity.Email == "" {
		return nil, ErrInvalidIdentity
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := sessionClaims{
		Email: identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	return &IssuedToken{Value: signed, ExpiresAt: expiresAt}, nil
}

// Verify はトークンの署名と有効期限を検証し、埋め込まれた識別情報を返す。
// emailクレームを持たないトークンは型付きクレームに適合しないため拒否する。
func (s *TokenService) Verify(_ context.Context, token string) (*model.Identity, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Email == "" {
		return nil, ErrInvalidToken
	}

	return &model.Identity{Email: claims.Email}, nil
}
