package scheduler

import (
	"context"
	"testing"

	"leadmarket_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeExpirer struct {
	expired []uuid.UUID
	swept   int
}

func (f *fakeExpirer) ExpireSession(_ context.Context, sessionID uuid.UUID) error {
	f.expired = append(f.expired, sessionID)
	return nil
}

func (f *fakeExpirer) ExpireStaleSessions(_ context.Context) (int, error) {
	f.swept++
	return 0, nil
}

type fakeReconciler struct {
	runs int
}

func (f *fakeReconciler) Reconcile(_ context.Context) ([]uuid.UUID, error) {
	f.runs++
	return nil, nil
}

func TestHandleCheckoutExpire(t *testing.T) {
	expirer := &fakeExpirer{}
	w := &Worker{expirer: expirer, log: logger.New("development")}

	sessionID := uuid.New()
	task, err := NewCheckoutExpireTask(CheckoutExpirePayload{SessionID: sessionID.String()})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}

	if err := w.handleCheckoutExpire(context.Background(), task); err != nil {
		t.Fatalf("handle expire: %v", err)
	}
	if len(expirer.expired) != 1 || expirer.expired[0] != sessionID {
		t.Fatalf("unexpected expirations: %v", expirer.expired)
	}
}

func TestHandlePurchaseReconcileSweeps(t *testing.T) {
	expirer := &fakeExpirer{}
	reconciler := &fakeReconciler{}
	w := &Worker{expirer: expirer, reconciler: reconciler, log: logger.New("development")}

	if err := w.handlePurchaseReconcile(context.Background(), NewPurchaseReconcileTask()); err != nil {
		t.Fatalf("handle reconcile: %v", err)
	}
	if reconciler.runs != 1 {
		t.Fatalf("reconcile runs = %d, want 1", reconciler.runs)
	}
	if expirer.swept != 1 {
		t.Fatalf("stale sweeps = %d, want 1", expirer.swept)
	}
}
