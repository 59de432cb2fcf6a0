// Package leads provides the lead marketplace functionality: intake,
// publication, moderation, and the purchase workflow.
// This file defines the public API of the leads bounded context.
// Only types defined here should be imported by other domains.
package leads

import "leadmarket_backend/internal/leads/domain"

// Re-export the domain vocabulary for external consumers.
type Summary = domain.Summary

const (
	StatusPending  = domain.StatusPending
	StatusApproved = domain.StatusApproved
	StatusRejected = domain.StatusRejected

	MaxPurchasesPerLead = domain.MaxPurchasesPerLead
)
