package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/bookshelf/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	RequestTimeout    time.Duration
	HTTPRecorder      middleware.HTTPRecorder

	// 死活監視・メトリクス
	HealthChecker  HealthChecker
	MetricsHandler http.Handler

	// Webhook
	Verifier             EventVerifier
	Dispatcher           EventDispatcher
	VerificationRecorder VerificationRecorder

	// 書籍・ユーザー
	BookService BookServiceInterface
	UserService UserServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → RealIP → Recovery → Logging → Metrics → CORS → SecurityHeaders → StripSlashes → Timeout
//
// /health と /metrics はレート制限の対象外とする。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.HTTPRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPRecorder))
	}
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(chimw.StripSlashes)
	if deps.RequestTimeout > 0 {
		r.Use(middleware.NewTimeoutMiddleware(deps.RequestTimeout))
	}

	healthHandler := NewHealthHandler(deps.HealthChecker)
	webhookHandler := NewWebhookHandler(deps.Verifier, deps.Dispatcher, deps.VerificationRecorder)
	bookHandler := NewBookHandler(deps.BookService)
	userHandler := NewUserHandler(deps.UserService)

	// --- レート制限対象外のルート ---
	r.Get("/health", healthHandler.Health)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		// Webhook受信（Webhook専用レート制限）
		r.With(deps.RateLimiter.WebhookMiddleware()).Post("/webhook", webhookHandler.Receive)

		r.Group(func(r chi.Router) {
			r.Use(deps.RateLimiter.GeneralMiddleware())

			r.Get("/ok", healthHandler.OK)

			// 書籍管理
			r.Route("/books", func(r chi.Router) {
				r.Get("/", bookHandler.ListBooks)
				r.Post("/", bookHandler.CreateBook)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", bookHandler.GetBook)
					r.Put("/", bookHandler.UpdateBook)
					r.Delete("/", bookHandler.DeleteBook)
				})
			})

			// ユーザー管理（作成はWebhook経由のみ）
			r.Route("/users", func(r chi.Router) {
				r.Get("/", userHandler.ListUsers)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", userHandler.GetUser)
					r.Put("/", userHandler.UpdateUser)
					r.Delete("/", userHandler.DeleteUser)
				})
			})
		})
	})

	return r
}
