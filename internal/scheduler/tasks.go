package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TaskCheckoutExpire expires a single pending checkout session at its deadline.
const TaskCheckoutExpire = "billing.checkout.expire"

// TaskPurchaseReconcile repairs purchase-counter drift across all leads.
const TaskPurchaseReconcile = "leads.purchase.reconcile"

type CheckoutExpirePayload struct {
	SessionID string `json:"sessionId"`
}

func NewCheckoutExpireTask(payload CheckoutExpirePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCheckoutExpire, data), nil
}

func ParseCheckoutExpirePayload(task *asynq.Task) (CheckoutExpirePayload, error) {
	var payload CheckoutExpirePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return CheckoutExpirePayload{}, err
	}
	return payload, nil
}

func NewPurchaseReconcileTask() *asynq.Task {
	return asynq.NewTask(TaskPurchaseReconcile, nil)
}
