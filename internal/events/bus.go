// Package events gives internal modules one import for the event bus
// and the domain event types. The bus implementation lives in
// platform/events.
package events

import (
	platformevents "leadmarket_backend/platform/events"
	"leadmarket_backend/platform/logger"
)

// InMemoryBus aliases the platform bus implementation.
type InMemoryBus = platformevents.InMemoryBus

// NewInMemoryBus constructs the platform in-memory bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}
