package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadmarket_backend/internal/adapters"
	"leadmarket_backend/internal/adapters/storage"
	"leadmarket_backend/internal/auth"
	"leadmarket_backend/internal/billing"
	"leadmarket_backend/internal/billing/provider"
	billingsvc "leadmarket_backend/internal/billing/service"
	"leadmarket_backend/internal/credits"
	creditsvc "leadmarket_backend/internal/credits/service"
	"leadmarket_backend/internal/email"
	"leadmarket_backend/internal/events"
	apphttp "leadmarket_backend/internal/http"
	"leadmarket_backend/internal/http/router"
	"leadmarket_backend/internal/leads"
	leadsadapter "leadmarket_backend/internal/leads/adapter"
	"leadmarket_backend/internal/matching"
	"leadmarket_backend/internal/notification"
	"leadmarket_backend/internal/scheduler"
	"leadmarket_backend/migrations"
	"leadmarket_backend/platform/config"
	"leadmarket_backend/platform/db"
	"leadmarket_backend/platform/logger"
	"leadmarket_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	sender := email.NewSender(cfg, log)

	expiryScheduler, closeScheduler := initExpiryScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	// Invoice archive (MinIO). Optional: without it invoices are still
	// created, just without a downloadable PDF.
	var invoiceArchive billingsvc.InvoiceArchive
	if cfg.IsMinIOEnabled() {
		store, err := storage.NewMinIOStore(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		bucket := cfg.GetMinioBucketInvoices()
		if err := withRetry(ctx, log, "ensure invoices bucket", 5, 2*time.Second, func() error {
			return store.EnsureBucket(ctx, bucket)
		}); err != nil {
			log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
			panic("failed to ensure storage bucket exists: " + err.Error())
		}
		invoiceArchive = adapters.NewInvoiceArchiveAdapter(store, bucket)
		log.Info("storage service initialized", "invoicesBucket", bucket)
	} else {
		log.Warn("MINIO_ENDPOINT not configured; invoice PDF archiving disabled")
	}

	packages, err := creditsvc.LoadPackages(cfg.GetCreditPackagesFile())
	if err != nil {
		log.Error("failed to load credit packages", "error", err)
		panic("failed to load credit packages: " + err.Error())
	}
	catalog := creditsvc.NewCatalog(packages)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	authModule := auth.NewModule(pool, cfg, eventBus, log, val)
	if err := authModule.Service().EnsureAdminAccount(ctx); err != nil {
		log.Error("failed to ensure admin account", "error", err)
		panic("failed to ensure admin account: " + err.Error())
	}

	userDirectory := leadsadapter.NewUserDirectoryAdapter(authModule.Service())
	leadsModule := leads.NewModule(pool, userDirectory, eventBus, log, val, cfg.GetLowCreditThreshold())

	creditsModule := credits.NewModule(pool, catalog, log, val)

	userEmails := adapters.NewUserEmailAdapter(authModule.Service())
	billingModule := billing.NewModule(
		pool,
		provider.NewClient(cfg),
		invoiceArchive,
		expiryScheduler,
		userEmails,
		catalog,
		eventBus,
		log,
		val,
		cfg,
		cfg.AppBaseURL,
	)

	leadSource := adapters.NewLeadSummaryAdapter(leadsModule.Service())
	matchingModule := matching.NewModule(pool, leadSource, log, val)

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.NewModule(
		sender,
		adapters.NewMatcherAdapter(matchingModule.Service()),
		userEmails,
		cfg,
		log,
	)
	notificationModule.Subscribe(eventBus)

	if err := leadsModule.WarmFeed(ctx); err != nil {
		log.Warn("feed warm-up failed, cache fills on first events", "error", err)
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			authModule,
			leadsModule,
			creditsModule,
			billingModule,
			matchingModule,
		},
	}

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router.New(app),
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initExpiryScheduler returns a typed-nil client when Redis is not
// configured; its methods no-op on nil so checkout still works, with the
// periodic reconcile sweep as the only expiry path.
func initExpiryScheduler(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; scheduled checkout expiry disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
