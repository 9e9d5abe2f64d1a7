// Package app はコマンドの解析と依存関係のワイヤリングを行い、アプリケーションを起動する。
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/bookshelf/internal/book"
	"github.com/hitoshi/bookshelf/internal/config"
	"github.com/hitoshi/bookshelf/internal/database"
	"github.com/hitoshi/bookshelf/internal/handler"
	"github.com/hitoshi/bookshelf/internal/identity"
	"github.com/hitoshi/bookshelf/internal/logger"
	"github.com/hitoshi/bookshelf/internal/metrics"
	"github.com/hitoshi/bookshelf/internal/middleware"
	"github.com/hitoshi/bookshelf/internal/repository"
	"github.com/hitoshi/bookshelf/internal/security"
	"github.com/hitoshi/bookshelf/internal/user"
	"github.com/hitoshi/bookshelf/internal/webhook"
)

const (
	dbPingTimeout   = 5 * time.Second
	shutdownTimeout = 30 * time.Second
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. LOG_LEVELを反映して再設定する
	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		return runHealthcheck(healthcheckPort())
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("clerk_api_url", cfg.ClerkAPIURL),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL, database.DefaultPoolConfig())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Ping(context.Background(), db, dbPingTimeout); err != nil {
		return err
	}

	slog.Info("database connection established")

	// 2. 依存関係のワイヤリング
	srv, err := newServer(cfg, db)
	if err != nil {
		return err
	}
	defer srv.Close()

	// 3. HTTPサーバーの起動
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", srv.httpServer.Addr),
		)
		if err := srv.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// server はワイヤリング済みのHTTPサーバーと後始末が必要なリソースを保持する。
type server struct {
	httpServer  *http.Server
	rateLimiter *middleware.RateLimiter
}

// Close はバックグラウンドで動作するリソースを停止する。
func (s *server) Close() {
	s.rateLimiter.Stop()
}

// newServer は設定とDB接続から全依存関係を構築し、HTTPサーバーを返す。
// DBへの接続確認は呼び出し側で行う。
func newServer(cfg *config.Config, db *sql.DB) (*server, error) {
	// 1. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	bookRepo := repository.NewPostgresBookRepo(db)

	// 2. セキュリティサービスの初期化
	sanitizer := security.NewTextSanitizer()
	guard := security.NewOutboundGuard()
	if err := guard.ValidateBaseURL(cfg.ClerkAPIURL); err != nil {
		return nil, fmt.Errorf("invalid CLERK_API_URL: %w", err)
	}

	verifier, err := webhook.NewVerifier(cfg.WebhookSecret)
	if err != nil {
		return nil, fmt.Errorf("invalid WEBHOOK_SECRET: %w", err)
	}

	// 3. メトリクス
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	// 4. ドメインサービスの初期化
	idpClient := identity.NewClient(
		guard.NewSafeClient(cfg.ReconcileTimeout),
		slog.Default(),
		cfg.ClerkAPIURL,
		cfg.ClerkSecretKey,
	)
	dispatcher := webhook.NewDispatcher(userRepo, idpClient,
		webhook.WithSanitizer(sanitizer),
		webhook.WithRecorder(collector),
		webhook.WithReconcileTimeout(cfg.ReconcileTimeout),
	)
	bookService := book.NewService(bookRepo, sanitizer)
	userService := user.NewService(userRepo, sanitizer)

	// 5. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.RateLimiterConfigPerMinute(cfg.RateLimitGeneral, cfg.RateLimitWebhook),
	)

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		RequestTimeout:    cfg.RequestTimeout,
		HTTPRecorder:      collector,

		HealthChecker:  db,
		MetricsHandler: metrics.Handler(reg),

		Verifier:             verifier,
		Dispatcher:           dispatcher,
		VerificationRecorder: collector,

		BookService: bookService,
		UserService: userService,
	})

	// WriteTimeoutはリクエストタイムアウトより長くし、408レスポンスを書き込めるようにする
	return &server{
		httpServer: &http.Server{
			Addr:         ":" + cfg.ServerPort,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: cfg.RequestTimeout + 5*time.Second,
			IdleTimeout:  60 * time.Second,
		},
		rateLimiter: rateLimiter,
	}, nil
}

// runMigrate はbooks・usersテーブルのマイグレーションを実行する。
// serveの前にcomposeのmigrateサービスから1回だけ起動される。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	version, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully",
		slog.Uint64("schema_version", uint64(version)),
	)
	return nil
}

// healthcheckPort はConfigを読み込まずにポート番号を決定する。
func healthcheckPort() string {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		return port
	}
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return "8080"
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	endpoint := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(endpoint)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
