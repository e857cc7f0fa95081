package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/cardoctor/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier      middleware.TokenVerifier
	CORSAllowedOrigins []string
	Logger             *slog.Logger

	// メトリクス（nilの場合は記録しない）
	HTTPMetrics    middleware.HTTPMetricsRecorder
	AuthFailures   middleware.AuthFailureRecorder
	MetricsHandler http.Handler

	// ヘルスチェック
	HealthChecker HealthChecker

	// 認証
	TokenIssuer TokenIssuer
	AuthConfig  AuthHandlerConfig

	// サービス掲載情報
	CatalogService CatalogServiceInterface

	// 予約
	BookingService BookingServiceInterface
	// RequireSessionForMutations がtrueの場合、予約の作成・更新・削除にもセッションを要求する。
	RequireSessionForMutations bool
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Metrics → (Session)
//
// セッションが必要なのは予約一覧のみ。予約の変更操作はRequireSessionForMutationsに従う。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigins))
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.HTTPMetrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPMetrics))
	}

	authHandler := NewAuthHandler(deps.TokenIssuer, deps.AuthConfig)
	serviceHandler := NewServiceHandler(deps.CatalogService)
	bookingHandler := NewBookingHandler(deps.BookingService)
	requireSession := middleware.NewSessionMiddleware(deps.TokenVerifier, deps.AuthFailures)

	// --- 認証不要のルート ---

	r.Get("/", Root)
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// セッション発行・破棄
	r.Post("/jwt", authHandler.IssueSession)
	r.Post("/logout", authHandler.EndSession)

	// サービス掲載情報
	r.Route("/services", func(r chi.Router) {
		r.Get("/", serviceHandler.ListServices)
		r.Get("/{id}", serviceHandler.GetService)
	})

	// --- 予約 ---
	r.Route("/bookings", func(r chi.Router) {
		r.With(requireSession).Get("/", bookingHandler.ListBookings)

		r.Group(func(r chi.Router) {
			if deps.RequireSessionForMutations {
				r.Use(requireSession)
			}
			r.Post("/", bookingHandler.CreateBooking)
			r.Patch("/{id}", bookingHandler.UpdateBookingStatus)
			r.Delete("/{id}", bookingHandler.DeleteBooking)
		})
	})

	return r
}
