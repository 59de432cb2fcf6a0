package scheduler

import (
	"context"
	"fmt"

	"leadmarket_backend/platform/config"
	"leadmarket_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// CheckoutExpirer expires pending checkout sessions. Satisfied by the
// billing service.
type CheckoutExpirer interface {
	ExpireSession(ctx context.Context, sessionID uuid.UUID) error
	ExpireStaleSessions(ctx context.Context) (int, error)
}

// PurchaseReconciler repairs purchase-counter drift. Satisfied by the
// leads service.
type PurchaseReconciler interface {
	Reconcile(ctx context.Context) ([]uuid.UUID, error)
}

type Worker struct {
	server     *asynq.Server
	mux        *asynq.ServeMux
	expirer    CheckoutExpirer
	reconciler PurchaseReconciler
	log        *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, expirer CheckoutExpirer, reconciler PurchaseReconciler, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:     server,
		mux:        mux,
		expirer:    expirer,
		reconciler: reconciler,
		log:        log,
	}

	mux.HandleFunc(TaskCheckoutExpire, w.handleCheckoutExpire)
	mux.HandleFunc(TaskPurchaseReconcile, w.handlePurchaseReconcile)

	return w, nil
}

func (w *Worker) handleCheckoutExpire(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseCheckoutExpirePayload(task)
	if err != nil {
		return err
	}

	sessionID, err := uuid.Parse(payload.SessionID)
	if err != nil {
		return err
	}

	if err := w.expirer.ExpireSession(ctx, sessionID); err != nil {
		return fmt.Errorf("expire checkout session %s: %w", sessionID, err)
	}
	return nil
}

// handlePurchaseReconcile repairs purchase-counter drift and, in the
// same sweep, expires checkout sessions whose scheduled task never ran.
func (w *Worker) handlePurchaseReconcile(ctx context.Context, _ *asynq.Task) error {
	repaired, err := w.reconciler.Reconcile(ctx)
	if err != nil {
		return fmt.Errorf("reconcile purchase counters: %w", err)
	}
	if len(repaired) > 0 {
		w.log.Warn("reconcile sweep repaired purchase counters", "count", len(repaired))
	}

	if _, err := w.expirer.ExpireStaleSessions(ctx); err != nil {
		return fmt.Errorf("expire stale checkout sessions: %w", err)
	}
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
