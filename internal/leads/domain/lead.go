// Package domain holds the lead marketplace's shared domain vocabulary:
// statuses, limits, and the summary shape other packages exchange.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Lead statuses set by moderation.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Call statuses tracked by admins working a lead.
const (
	CallStatusNotCalled   = "not_called"
	CallStatusCalled      = "called"
	CallStatusUnreachable = "unreachable"
)

// MaxPurchasesPerLead is the hard cap on distinct purchasers per lead.
const MaxPurchasesPerLead = 5

// Summary is the minimal published-lead representation shared with other
// domains and kept in the feed cache.
type Summary struct {
	ID               uuid.UUID
	CompanyName      string
	Description      string
	BudgetRange      string
	Timeline         string
	Location         string
	Price            int
	Status           string
	CurrentPurchases int
	PublishedAt      *time.Time
}
