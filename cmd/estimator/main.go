package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/estimator/cmd/estimator/cli"
	"github.com/odyssey-erp/estimator/internal/app"
	"github.com/odyssey-erp/estimator/internal/assist"
	"github.com/odyssey-erp/estimator/internal/billing/catalog"
	"github.com/odyssey-erp/estimator/internal/billing/clients"
	"github.com/odyssey-erp/estimator/internal/billing/dashboard"
	"github.com/odyssey-erp/estimator/internal/billing/documents"
	"github.com/odyssey-erp/estimator/internal/billing/taxes"
	"github.com/odyssey-erp/estimator/internal/hostsession"
	"github.com/odyssey-erp/estimator/internal/messaging"
	"github.com/odyssey-erp/estimator/internal/observability"
	"github.com/odyssey-erp/estimator/internal/platform/cache"
	"github.com/odyssey-erp/estimator/internal/platform/db"
	"github.com/odyssey-erp/estimator/jobs"
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

	if len(os.Args) > 1 {
		os.Exit(runCommand(ctx, cfg, logger, os.Args[1], os.Args[2:]))
	}
	if err := serve(ctx, cfg, logger); err != nil {
		logger.Error("estimator", slog.Any("error", err))
		os.Exit(1)
	}
}

func runCommand(ctx context.Context, cfg *app.Config, logger *slog.Logger, name string, args []string) int {
	switch name {
	case "backfill-tax-ids":
		fs := flag.NewFlagSet(name, flag.ContinueOnError)
		mode := fs.String("mode", string(cli.BackfillModeDry), "dry or apply")
		jsonOut := fs.Bool("json", false, "emit JSON")
		yes := fs.Bool("yes", false, "skip the confirmation prompt")
		if err := fs.Parse(args); err != nil {
			return 2
		}
		pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
			return 1
		}
		defer pool.Close()
		svc := documents.NewService(documents.NewRepository(pool), taxes.NewService(taxes.NewRepository(pool)), nil, nil, documents.Options{Logger: logger})
		return cli.BackfillTaxIDs(ctx, svc, cli.BackfillOptions{
			Mode:       cli.BackfillMode(*mode),
			JSONOutput: *jsonOut,
			Yes:        *yes,
		})
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q (available: backfill-tax-ids)\n", name)
		return 2
	}
}

func serve(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cache.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Attempts: 5,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	sessionStore := hostsession.NewStore(redisClient, cfg.SessionTTL)
	exchanger := hostsession.NewExchanger(cfg.HostTokenSecret, cfg.HostAppOrigin, sessionStore)

	taxService := taxes.NewService(taxes.NewRepository(pool))
	clientService := clients.NewService(clients.NewRepository(pool))
	catalogService := catalog.NewService(
		catalog.NewRepository(pool),
		cache.NewVersioned(redisClient, "catalog", cfg.CatalogTTL),
		logger,
	)
	documentService := documents.NewService(
		documents.NewRepository(pool),
		taxService,
		clientService,
		catalogService,
		documents.Options{DueDays: cfg.InvoiceDueDays, Metrics: metrics, Logger: logger},
	)
	dashboardService := dashboard.NewService(dashboard.NewRepository(pool), clientService, documentService)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	queue, err := jobs.NewClient(redisOpts, inspector)
	if err != nil {
		return err
	}
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Warn("queue close", slog.Any("error", err))
		}
	}()
	var sender messaging.Sender
	if cfg.HostAPIBaseURL != "" {
		sender = messaging.NewClient(cfg.HostAPIBaseURL)
	} else {
		logger.Warn("HOST_API_BASE_URL not set; estimate messages cannot be delivered")
	}
	messagingService := messaging.NewService(documentService, sender, queue)

	assistService, closeAssist := newAssist(ctx, cfg, logger)
	defer closeAssist()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Metrics:          metrics,
		SessionStore:     sessionStore,
		SessionHandler:   hostsession.NewHandler(logger, exchanger, sessionStore),
		ClientsHandler:   clients.NewHandler(logger, clientService),
		CatalogHandler:   catalog.NewHandler(logger, catalogService),
		TaxesHandler:     taxes.NewHandler(logger, taxService),
		DocumentsHandler: documents.NewHandler(logger, documentService),
		MessagingHandler: messaging.NewHandler(logger, messagingService),
		DashboardHandler: dashboard.NewHandler(logger, dashboardService),
		AssistHandler:    assist.NewHandler(logger, assistService),
		JobHandler:       jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// newAssist wires Gemini and MinIO when configured. Without a key the assist
// endpoints answer 502 and documents keep working.
func newAssist(ctx context.Context, cfg *app.Config, logger *slog.Logger) (*assist.Service, func()) {
	if !cfg.AssistEnabled() {
		logger.Info("assist disabled: GEMINI_API_KEY not set")
		return assist.NewService(nil, nil, nil, logger), func() {}
	}
	gemini, err := assist.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiTextModel, cfg.GeminiImageModel)
	if err != nil {
		logger.Warn("init gemini", slog.Any("error", err))
		return assist.NewService(nil, nil, nil, logger), func() {}
	}
	var store assist.ImageStore
	if cfg.ImageStoreEnabled() {
		minioStore, err := assist.NewMinioStore(ctx, assist.MinioConfig{
			URL:       cfg.MinioURL,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Secure:    cfg.MinioSecure,
			Bucket:    cfg.MinioBucket,
		})
		if err != nil {
			logger.Warn("init minio, images fall back to data URIs", slog.Any("error", err))
		} else {
			store = minioStore
		}
	}
	return assist.NewService(gemini, gemini, store, logger), func() {
		if err := gemini.Close(); err != nil {
			logger.Warn("gemini close", slog.Any("error", err))
		}
	}
}
