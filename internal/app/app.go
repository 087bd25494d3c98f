package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/hitoshi/hygienesurvey/internal/analytics"
	"github.com/hitoshi/hygienesurvey/internal/auth"
	"github.com/hitoshi/hygienesurvey/internal/config"
	"github.com/hitoshi/hygienesurvey/internal/database"
	"github.com/hitoshi/hygienesurvey/internal/handler"
	"github.com/hitoshi/hygienesurvey/internal/logger"
	"github.com/hitoshi/hygienesurvey/internal/metrics"
	"github.com/hitoshi/hygienesurvey/internal/middleware"
	"github.com/hitoshi/hygienesurvey/internal/repository"
	"github.com/hitoshi/hygienesurvey/internal/security"
	"github.com/hitoshi/hygienesurvey/internal/survey"
	"github.com/hitoshi/hygienesurvey/internal/worker/cleanup"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

// Init はwへのJSONログを既定ロガーに設定したうえで環境変数から設定を読み込む。
// 設定エラーもJSONログとして出せるよう、ロガーを先に用意する。
func Init(w io.Writer) (*config.Config, error) {
	logger.SetupDefault(w)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はos.Args[1:]からサブコマンドを選び、そのモードで起動する。
// helpとhealthcheckはDATABASE_URLなしで動く。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	if cmd == CommandHelp {
		Usage(w)
		return nil
	}
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = config.DefaultServerPort
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.Any("config", cfg),
	)

	switch cmd {
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーを起動し、シグナル受信までブロックする。
func runServe(cfg *config.Config) error {
	db, err := database.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("database connection established")

	// IdPのURLは起動時に静的検証し、実際の接続はダイヤル時に再検証する
	guard := security.NewOutboundGuard()
	if err := guard.ValidateURL(cfg.IdentityProviderURL); err != nil {
		return fmt.Errorf("invalid identity provider url: %w", err)
	}

	base := slog.Default()
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	users := repository.NewPostgresUserRepo(db)
	sessions := repository.NewPostgresSessionRepo(db)
	surveys := repository.NewPostgresSurveyRepo(db)

	provider := auth.NewHTTPSessionDataProvider(
		guard.NewSafeClient(cfg.IdentityProviderTimeout),
		cfg.IdentityProviderURL,
		logger.Component(base, "identity_provider"),
	)
	authLog := logger.Component(base, "auth")
	authService := auth.NewService(provider, users, sessions, collector, authLog,
		auth.ServiceConfig{SessionTTL: cfg.SessionTTL})
	surveyService := survey.NewService(surveys, security.NewTextSanitizer(), collector,
		logger.Component(base, "survey"))
	engine := analytics.NewEngine(surveys, collector, logger.Component(base, "analytics"))

	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitSubmit),
	)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            base,
		SessionResolver:   auth.NewResolver(sessions, users, authLog),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Metrics:           collector,
		MetricsGatherer:   registry,
		HealthChecker:     db,

		AuthService:      authService,
		SurveyService:    surveyService,
		AnalyticsService: engine,
	})

	// /api/auth/profileはIdPの応答を待つため、その上限ぶん延ばす
	writeTimeout := 15*time.Second + cfg.IdentityProviderTimeout
	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := notifyContext()
	defer stop()
	return listenAndServe(ctx, server, "api", apiShutdownTimeout)
}

// runWorker は期限切れセッションの定期削除と、そのメトリクス公開用サーバーを並行して動かす。
// どちらかが失敗するともう一方も停止する。
func runWorker(cfg *config.Config) error {
	db, err := database.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("database connection established", slog.String("mode", "worker"))

	registry := prometheus.NewRegistry()
	job := cleanup.NewCleanupJob(
		repository.NewPostgresSessionRepo(db),
		metrics.NewCollector(registry),
		logger.Component(slog.Default(), "cleanup"),
	)
	metricsServer := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           metrics.SetupMetricsRoute(registry),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := notifyContext()
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		job.Start(gctx, cfg.CleanupInterval)
		return nil
	})
	g.Go(func() error {
		return listenAndServe(gctx, metricsServer, "worker-metrics", metricsShutdownTimeout)
	})

	slog.Info("worker started", slog.Duration("cleanup_interval", cfg.CleanupInterval))
	if err := g.Wait(); err != nil {
		return fmt.Errorf("worker stopped: %w", err)
	}
	slog.Info("worker stopped")
	return nil
}

// runMigrate は未適用のマイグレーションを適用し、適用後のバージョンを記録する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", cfg.RedactedDatabaseURL()),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, err := database.MigrationVersion(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully",
		slog.Uint64("version", uint64(version)),
		slog.Bool("dirty", dirty),
	)
	return nil
}

// runHealthcheck はローカルの/healthを叩き、200以外なら失敗とする。
// distrolessイメージのHEALTHCHECKから呼ばれる。
func runHealthcheck(port string) error {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://localhost:" + port + "/health")
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}
