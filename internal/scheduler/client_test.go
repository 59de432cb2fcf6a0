package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
)

type testSchedulerConfig struct {
	redisURL string
}

func (c testSchedulerConfig) GetRedisURL() string                 { return c.redisURL }
func (c testSchedulerConfig) GetRedisTLSInsecure() bool           { return false }
func (c testSchedulerConfig) GetAsynqQueueName() string           { return "test" }
func (c testSchedulerConfig) GetAsynqConcurrency() int            { return 1 }
func (c testSchedulerConfig) GetReconcileInterval() time.Duration { return time.Minute }

func TestClientSchedulesCheckoutExpiry(t *testing.T) {
	srv := miniredis.RunT(t)

	client, err := NewClient(testSchedulerConfig{redisURL: "redis://" + srv.Addr()})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	err = client.ScheduleCheckoutExpiry(context.Background(), uuid.New(), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("schedule expiry: %v", err)
	}

	if err := client.EnqueuePurchaseReconcile(context.Background()); err != nil {
		t.Fatalf("enqueue reconcile: %v", err)
	}
}

func TestClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(testSchedulerConfig{}); err == nil {
		t.Fatal("expected error for missing redis url")
	}
}

func TestCheckoutExpirePayloadRoundTrip(t *testing.T) {
	sessionID := uuid.New()
	task, err := NewCheckoutExpireTask(CheckoutExpirePayload{SessionID: sessionID.String()})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}

	payload, err := ParseCheckoutExpirePayload(task)
	if err != nil {
		t.Fatalf("parse payload: %v", err)
	}
	if payload.SessionID != sessionID.String() {
		t.Fatalf("payload session id = %s, want %s", payload.SessionID, sessionID)
	}
}
