package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/vendorhub/vendorhub/internal/app"
	"github.com/vendorhub/vendorhub/internal/auth"
	"github.com/vendorhub/vendorhub/internal/billing"
	"github.com/vendorhub/vendorhub/internal/docgen"
	"github.com/vendorhub/vendorhub/internal/notify"
	"github.com/vendorhub/vendorhub/internal/observability"
	"github.com/vendorhub/vendorhub/internal/purchasing"
	"github.com/vendorhub/vendorhub/internal/rbac"
	"github.com/vendorhub/vendorhub/internal/shared"
	"github.com/vendorhub/vendorhub/internal/vendors"
	"github.com/vendorhub/vendorhub/jobs"
	"github.com/vendorhub/vendorhub/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "vendorhub_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	validate := validator.New()

	auditLogger := shared.NewAuditLogger(dbpool)
	guard := rbac.Middleware{Logger: logger}

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	notifyRepo := notify.NewRepository(dbpool)
	notifyService := notify.NewService(notifyRepo, jobClient, logger)
	notifyHandler := notify.NewHandler(notifyService, guard, logger)

	vendorRepo := vendors.NewRepository(dbpool)
	vendorService := vendors.NewService(vendorRepo, auditLogger, logger)
	vendorHandler := vendors.NewHandler(vendorService, guard, validate, logger)

	purchasingRepo := purchasing.NewRepository(dbpool)
	purchasingService := purchasing.NewService(purchasingRepo, notifyService, auditLogger, logger)

	billingRepo := billing.NewRepository(dbpool)
	billingService := billing.NewService(billingRepo, purchasingService, notifyService, auditLogger, logger)

	reportClient := report.NewClient(cfg.GotenbergURL)
	docRepo := docgen.NewRepository(dbpool)
	docService := docgen.NewService(docRepo, billingService, purchasingService, vendorService, reportClient, cfg.DocumentDir, logger)
	docHandler := docgen.NewHandler(docService, guard, logger)

	purchasingHandler := purchasing.NewHandler(purchasingService, docService, guard, validate, logger)
	billingHandler := billing.NewHandler(billingService, docService, guard, validate, logger)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		CSRFManager:       csrfManager,
		AuthHandler:       authHandler,
		VendorHandler:     vendorHandler,
		PurchasingHandler: purchasingHandler,
		BillingHandler:    billingHandler,
		NotifyHandler:     notifyHandler,
		DocumentHandler:   docHandler,
		JobHandler:        jobHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
