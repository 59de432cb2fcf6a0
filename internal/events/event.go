// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"leadmarket_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Auth Domain Events
// =============================================================================

// UserRegistered is published when a new user successfully registers.
type UserRegistered struct {
	BaseEvent
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
}

func (e UserRegistered) EventName() string { return "auth.user.registered" }

// =============================================================================
// Lead Domain Events
// =============================================================================

// LeadSubmitted is published when a new lead enters the system.
type LeadSubmitted struct {
	BaseEvent
	LeadID      uuid.UUID `json:"leadId"`
	CompanyName string    `json:"companyName"`
}

func (e LeadSubmitted) EventName() string { return "leads.lead.submitted" }

// LeadPublished is published when an admin puts a lead up for sale.
type LeadPublished struct {
	BaseEvent
	LeadID      uuid.UUID `json:"leadId"`
	CompanyName string    `json:"companyName"`
	Price       int       `json:"price"`
}

func (e LeadPublished) EventName() string { return "leads.lead.published" }

// LeadPurchased is published after a successful purchase transaction commits.
type LeadPurchased struct {
	BaseEvent
	LeadID           uuid.UUID `json:"leadId"`
	UserID           uuid.UUID `json:"userId"`
	CompanyName      string    `json:"companyName"`
	CreditsSpent     int       `json:"creditsSpent"`
	RemainingCredits int       `json:"remainingCredits"`
}

func (e LeadPurchased) EventName() string { return "leads.lead.purchased" }

// LeadStatusChanged is published when moderation changes a lead's status.
type LeadStatusChanged struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	OldStatus string    `json:"oldStatus"`
	NewStatus string    `json:"newStatus"`
}

func (e LeadStatusChanged) EventName() string { return "leads.lead.status_changed" }

// =============================================================================
// Credit Domain Events
// =============================================================================

// CreditsToppedUp is published when a checkout completes and credits are added.
type CreditsToppedUp struct {
	BaseEvent
	UserID      uuid.UUID `json:"userId"`
	Email       string    `json:"email"`
	PackageID   string    `json:"packageId"`
	Credits     int       `json:"credits"`
	NewBalance  int       `json:"newBalance"`
	AmountCents int       `json:"amountCents"`
}

func (e CreditsToppedUp) EventName() string { return "credits.balance.topped_up" }

// LowCreditBalance is published when a user's balance drops below the
// configured warning threshold.
type LowCreditBalance struct {
	BaseEvent
	UserID  uuid.UUID `json:"userId"`
	Email   string    `json:"email"`
	Balance int       `json:"balance"`
}

func (e LowCreditBalance) EventName() string { return "credits.balance.low" }
