package feed

import (
	"context"

	"leadmarket_backend/internal/events"
	"leadmarket_backend/internal/leads/domain"
	"leadmarket_backend/platform/logger"
)

// Source supplies published lead summaries for the initial snapshot and
// for event-driven upserts.
type Source interface {
	PublishedSummaries(ctx context.Context) ([]domain.Summary, error)
}

// Projector keeps the cache in sync with the lead domain events.
type Projector struct {
	cache  *Cache
	source Source
	log    *logger.Logger
}

func NewProjector(cache *Cache, source Source, log *logger.Logger) *Projector {
	return &Projector{cache: cache, source: source, log: log}
}

// Warm loads the initial snapshot. Call once at startup.
func (p *Projector) Warm(ctx context.Context) error {
	items, err := p.source.PublishedSummaries(ctx)
	if err != nil {
		return err
	}
	p.cache.Replace(items)
	p.log.Info("lead feed warmed", "count", len(items))
	return nil
}

// Subscribe registers the event handlers that patch the snapshot in place.
func (p *Projector) Subscribe(bus events.Bus) {
	bus.Subscribe(events.LeadPublished{}.EventName(), events.HandlerFunc(p.onPublished))
	bus.Subscribe(events.LeadPurchased{}.EventName(), events.HandlerFunc(p.onPurchased))
	bus.Subscribe(events.LeadStatusChanged{}.EventName(), events.HandlerFunc(p.onStatusChanged))
}

func (p *Projector) onPublished(ctx context.Context, event events.Event) error {
	// A publish can carry fields the event does not (timeline, location),
	// so reload the snapshot entries from the source.
	items, err := p.source.PublishedSummaries(ctx)
	if err != nil {
		return err
	}
	p.cache.Replace(items)
	return nil
}

func (p *Projector) onPurchased(_ context.Context, event events.Event) error {
	purchased, ok := event.(events.LeadPurchased)
	if !ok {
		return nil
	}
	p.cache.Patch(purchased.LeadID, func(s domain.Summary) domain.Summary {
		s.CurrentPurchases++
		return s
	})
	return nil
}

func (p *Projector) onStatusChanged(_ context.Context, event events.Event) error {
	changed, ok := event.(events.LeadStatusChanged)
	if !ok {
		return nil
	}
	p.cache.Patch(changed.LeadID, func(s domain.Summary) domain.Summary {
		s.Status = changed.NewStatus
		return s
	})
	return nil
}
