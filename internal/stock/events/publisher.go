// Package events publishes stock domain events to the message bus.
package events

import (
	"context"

	"github.com/stocktrack/stocktrack-backend/pkg/logger"
	"github.com/stocktrack/stocktrack-backend/pkg/messaging"
)

// Sink is the transport the publisher writes to.
// *messaging.Publisher satisfies it; tests use a recording mock.
type Sink interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// StockEventPublisher publishes stock domain events.
// Publishing is best-effort: failures are logged, never propagated,
// because the database write has already committed.
type StockEventPublisher struct {
	sink   Sink
	logger *logger.Logger
}

// NewStockEventPublisher creates a new stock event publisher
func NewStockEventPublisher(sink Sink, log *logger.Logger) *StockEventPublisher {
	return &StockEventPublisher{
		sink:   sink,
		logger: log,
	}
}

// ProductCreated publishes a stock.product.created event
func (p *StockEventPublisher) ProductCreated(ctx context.Context, event *messaging.ProductCreatedEvent) {
	p.publish(ctx, messaging.EventProductCreated, event)
}

// ProductUpdated publishes a stock.product.updated event
func (p *StockEventPublisher) ProductUpdated(ctx context.Context, event *messaging.ProductUpdatedEvent) {
	p.publish(ctx, messaging.EventProductUpdated, event)
}

// ProductDeleted publishes a stock.product.deleted event
func (p *StockEventPublisher) ProductDeleted(ctx context.Context, event *messaging.ProductDeletedEvent) {
	p.publish(ctx, messaging.EventProductDeleted, event)
}

// MovementRecorded publishes a stock.movement.recorded event
func (p *StockEventPublisher) MovementRecorded(ctx context.Context, event *messaging.MovementRecordedEvent) {
	p.publish(ctx, messaging.EventMovementRecorded, event)
}

// AlertGenerated publishes a stock.alert.generated event
func (p *StockEventPublisher) AlertGenerated(ctx context.Context, event *messaging.AlertGeneratedEvent) {
	p.publish(ctx, messaging.EventAlertGenerated, event)
}

// AlertResolved publishes a stock.alert.resolved event
func (p *StockEventPublisher) AlertResolved(ctx context.Context, event *messaging.AlertResolvedEvent) {
	p.publish(ctx, messaging.EventAlertResolved, event)
}

func (p *StockEventPublisher) publish(ctx context.Context, eventType string, data interface{}) {
	if p.sink == nil {
		return
	}
	if err := p.sink.Publish(ctx, eventType, data); err != nil {
		p.logger.Error().Err(err).Str("event_type", eventType).Msg("failed to publish event")
	}
}
