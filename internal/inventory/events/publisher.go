package events

import (
	"context"
	"time"

	"github.com/zlagoda/zlagoda-backend/internal/inventory/repository"
	"github.com/zlagoda/zlagoda-backend/pkg/logger"
	"github.com/zlagoda/zlagoda-backend/pkg/messaging"
)

// Publisher is implemented by messaging.Publisher and testutil.MockPublisher.
type Publisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// InventoryEventPublisher publishes inventory events. Publishing is best
// effort: failures are logged, never returned, and a nil receiver is a no-op.
type InventoryEventPublisher struct {
	publisher Publisher
	logger    *logger.Logger
}

// NewInventoryEventPublisher creates a new inventory event publisher
func NewInventoryEventPublisher(publisher Publisher, log *logger.Logger) *InventoryEventPublisher {
	return &InventoryEventPublisher{
		publisher: publisher,
		logger:    log.WithComponent("inventory-events"),
	}
}

// PublishBatchReceived publishes a batch received event
func (p *InventoryEventPublisher) PublishBatchReceived(ctx context.Context, batch *repository.Batch, sp *repository.StoreProduct, receivedBy string) {
	if p == nil {
		return
	}

	data := messaging.BatchReceivedEvent{
		BatchID:      batch.ID,
		UPC:          batch.UPC,
		Quantity:     batch.Quantity,
		NewQuantity:  sp.Quantity,
		SellingPrice: sp.SellingPrice,
		Promotional:  sp.Promotional,
		ExpiringDate: batch.ExpiringDate.Format(time.DateOnly),
		ReceivedBy:   receivedBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventBatchReceived, data); err != nil {
		p.logger.Error().Err(err).Str("upc", batch.UPC).Msg("failed to publish batch received event")
	}
}

// PublishBatchesExpired publishes the outcome of an expiry run
func (p *InventoryEventPublisher) PublishBatchesExpired(ctx context.Context, runDate time.Time, batchCount int, unitsRemoved map[string]int, faults int) {
	if p == nil {
		return
	}

	data := messaging.BatchesExpiredEvent{
		RunDate:      runDate.Format(time.DateOnly),
		BatchCount:   batchCount,
		UnitsRemoved: unitsRemoved,
		Faults:       faults,
	}

	if err := p.publisher.Publish(ctx, messaging.EventBatchesExpired, data); err != nil {
		p.logger.Error().Err(err).Int("batch_count", batchCount).Msg("failed to publish batches expired event")
	}
}

// PublishStoreProductDeleted publishes a store product deleted event
func (p *InventoryEventPublisher) PublishStoreProductDeleted(ctx context.Context, upc, deletedBy string) {
	if p == nil {
		return
	}

	data := messaging.StoreProductDeletedEvent{UPC: upc, DeletedBy: deletedBy}

	if err := p.publisher.Publish(ctx, messaging.EventStoreProductDeleted, data); err != nil {
		p.logger.Error().Err(err).Str("upc", upc).Msg("failed to publish store product deleted event")
	}
}
