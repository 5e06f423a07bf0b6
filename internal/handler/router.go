package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/accountgate/internal/middleware"
	"github.com/hitoshi/accountgate/internal/web"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	SessionCookie     *middleware.SessionCookie
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	HTTPMetrics       middleware.HTTPMetricsRecorder // nilの場合は記録しない

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// ページ
	Pages *web.Pages

	// 運用
	HealthChecker  HealthChecker
	HealthTimeout  time.Duration
	MetricsHandler http.Handler // nilの場合は/metricsを公開しない
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RealIP → Recovery → Logging → Metrics → SecurityHeaders → CORS → Session
//
// /health と /metrics はセッションミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.HTTPMetrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPMetrics))
	}
	r.Use(middleware.NewSecurityHeadersMiddleware())
	if deps.CORSAllowedOrigin != "" {
		r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	}

	// --- 運用エンドポイント ---
	if deps.HealthChecker != nil {
		timeout := deps.HealthTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		r.Get("/health", NewHealthHandler(deps.HealthChecker, timeout))
	}
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.SessionCookie, deps.AuthConfig)
	pageHandler := NewPageHandler(deps.Pages)

	sessionMiddleware := middleware.NewSessionMiddleware(deps.AuthService, deps.SessionCookie)

	// ページ
	r.Group(func(r chi.Router) {
		r.Use(sessionMiddleware)
		r.Get("/", pageHandler.Login)
		r.Get("/private", pageHandler.Account)
	})

	r.Route("/auth", func(r chi.Router) {
		// ログアウトはストア障害時もクッキーを消すため、セッション解決を通さない
		r.Get("/logout", authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(sessionMiddleware)

			// ログイン開始とコールバックはIP単位でレート制限
			r.Group(func(r chi.Router) {
				if deps.RateLimiter != nil {
					r.Use(deps.RateLimiter.AuthMiddleware())
				}
				r.Get("/", authHandler.Login)
				r.Get("/callback", authHandler.Callback)
			})
			r.Get("/me", authHandler.Me)
		})
	})

	return r
}
