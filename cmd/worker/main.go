// The worker runs the asynq server handling scheduled checkout expiry
// and enqueues the periodic purchase-counter reconciliation sweep.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadmarket_backend/internal/adapters"
	"leadmarket_backend/internal/auth"
	"leadmarket_backend/internal/billing"
	"leadmarket_backend/internal/billing/provider"
	creditsvc "leadmarket_backend/internal/credits/service"
	"leadmarket_backend/internal/events"
	"leadmarket_backend/internal/leads"
	leadsadapter "leadmarket_backend/internal/leads/adapter"
	"leadmarket_backend/internal/scheduler"
	"leadmarket_backend/platform/config"
	"leadmarket_backend/platform/db"
	"leadmarket_backend/platform/logger"
	"leadmarket_backend/platform/validator"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	packages, err := creditsvc.LoadPackages(cfg.GetCreditPackagesFile())
	if err != nil {
		log.Error("failed to load credit packages", "error", err)
		panic("failed to load credit packages: " + err.Error())
	}
	catalog := creditsvc.NewCatalog(packages)

	// The worker reuses the domain modules without mounting their routes.
	authModule := auth.NewModule(pool, cfg, eventBus, log, val)
	userDirectory := leadsadapter.NewUserDirectoryAdapter(authModule.Service())
	leadsModule := leads.NewModule(pool, userDirectory, eventBus, log, val, cfg.GetLowCreditThreshold())

	userEmails := adapters.NewUserEmailAdapter(authModule.Service())
	billingModule := billing.NewModule(
		pool,
		provider.NewClient(cfg),
		nil,
		nil,
		userEmails,
		catalog,
		eventBus,
		log,
		val,
		cfg,
		cfg.AppBaseURL,
	)

	worker, err := scheduler.NewWorker(cfg, billingModule.Service(), leadsModule.Service(), log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer client.Close()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		worker.Run(groupCtx)
		return nil
	})

	group.Go(func() error {
		return runReconcileEnqueuer(groupCtx, client, cfg.GetReconcileInterval(), log)
	})

	if err := group.Wait(); err != nil && groupCtx.Err() == nil {
		log.Error("worker stopped", "error", err)
		panic("worker stopped: " + err.Error())
	}
	log.Info("worker shut down")
}

// runReconcileEnqueuer periodically enqueues the purchase-counter sweep.
func runReconcileEnqueuer(ctx context.Context, client *scheduler.Client, interval time.Duration, log *logger.Logger) error {
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := client.EnqueuePurchaseReconcile(ctx); err != nil {
				log.Error("failed to enqueue reconcile task", "error", err)
			}
		}
	}
}
