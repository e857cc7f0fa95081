package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// BookingMutationPolicy は予約の作成・更新・削除に対するアクセス制御方針を表す。
type BookingMutationPolicy string

const (
	// BookingMutationOpen は予約の変更系操作を認証なしで受け付ける（従来の挙動）。
	BookingMutationOpen BookingMutationPolicy = "open"
	// BookingMutationOwner は予約の変更系操作に認証と所有者一致を要求する。
	BookingMutationOwner BookingMutationPolicy = "owner"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL    string
	DBMaxOpenConns int

	// Session
	SessionSecret string
	SessionTTL    time.Duration

	// Booking
	BookingMutationPolicy BookingMutationPolicy

	// Server
	ServerPort string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigins []string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	// SECRET_ACCESS_TOKEN は旧デプロイ環境との互換用
	cfg.SessionSecret = getEnvString("SESSION_SECRET", os.Getenv("SECRET_ACCESS_TOKEN"))
	if cfg.SessionSecret == "" {
		missing = append(missing, "SESSION_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	policy, err := parseBookingMutationPolicy(getEnvString("BOOKING_MUTATION_POLICY", string(BookingMutationOpen)))
	if err != nil {
		return nil, err
	}
	cfg.BookingMutationPolicy = policy

	// Optional fields with defaults
	cfg.DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	cfg.SessionTTL = getEnvDuration("SESSION_TTL", time.Hour)
	cfg.ServerPort = getEnvString("SERVER_PORT", getEnvString("PORT", "5000"))
	cfg.CookieSecure = getEnvBool("COOKIE_SECURE", true)
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"})

	return cfg, nil
}

func parseBookingMutationPolicy(v string) (BookingMutationPolicy, error) {
	switch p := BookingMutationPolicy(strings.ToLower(strings.TrimSpace(v))); p {
	case BookingMutationOpen, BookingMutationOwner:
		return p, nil
	default:
		return "", fmt.Errorf("invalid BOOKING_MUTATION_POLICY: %q (want open or owner)", v)
	}
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

// getEnvList はカンマ区切りの環境変数を空要素を除いたスライスとして返す。
func getEnvList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
