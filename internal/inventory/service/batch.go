package service

import (
	"context"
	"fmt"
	"time"

	"github.com/zlagoda/zlagoda-backend/internal/inventory/events"
	"github.com/zlagoda/zlagoda-backend/internal/inventory/pricing"
	"github.com/zlagoda/zlagoda-backend/internal/inventory/repository"
	"github.com/zlagoda/zlagoda-backend/pkg/database"
	"github.com/zlagoda/zlagoda-backend/pkg/errors"
	"github.com/zlagoda/zlagoda-backend/pkg/logger"
	"github.com/zlagoda/zlagoda-backend/pkg/money"
)

// BatchService owns the batch lifecycle. It is the only writer of batch rows
// and the only place where the quantity, price and promotional flag of a
// store product change together.
type BatchService struct {
	db            *database.DB
	storeProducts *repository.StoreProductRepository
	batches       *repository.BatchRepository
	publisher     *events.InventoryEventPublisher
	logger        *logger.Logger
	now           func() time.Time
}

// NewBatchService creates a new batch service
func NewBatchService(
	db *database.DB,
	storeProducts *repository.StoreProductRepository,
	batches *repository.BatchRepository,
	publisher *events.InventoryEventPublisher,
	log *logger.Logger,
) *BatchService {
	return &BatchService{
		db:            db,
		storeProducts: storeProducts,
		batches:       batches,
		publisher:     publisher,
		logger:        log.WithComponent("batch-service"),
		now:           time.Now,
	}
}

// WithClock replaces the clock used to decide "today".
func (s *BatchService) WithClock(now func() time.Time) *BatchService {
	s.now = now
	return s
}

// ReceiveRequest describes one incoming delivery.
type ReceiveRequest struct {
	UPC            string
	DeliveryDate   time.Time
	ExpiringDate   time.Time
	Quantity       int
	WholesalePrice money.Money
	ReceivedBy     string
}

func (r ReceiveRequest) validate() error {
	if r.UPC == "" {
		return errors.InvalidParameter("upc", "is required")
	}
	if r.Quantity <= 0 {
		return errors.InvalidParameter("quantity", "must be positive")
	}
	if !money.IsPositive(r.WholesalePrice) {
		return errors.InvalidParameter("wholesale_price", "must be positive")
	}
	if r.ExpiringDate.Before(r.DeliveryDate) {
		return errors.InvalidParameter("expiring_date", "must not be before delivery_date")
	}
	return nil
}

// Receive records a delivery for an existing store product and reprices it.
// The store product row is locked first so concurrent receipts for one UPC
// apply one after the other.
func (s *BatchService) Receive(ctx context.Context, req ReceiveRequest) (*repository.StoreProduct, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	today := s.now()
	batch := &repository.Batch{
		UPC:          req.UPC,
		DeliveryDate: req.DeliveryDate,
		ExpiringDate: req.ExpiringDate,
		Quantity:     req.Quantity,
		SellingPrice: pricing.PriceWithVAT(req.WholesalePrice),
	}

	var updated *repository.StoreProduct
	err := s.db.WithTx(ctx, func(ctx context.Context) error {
		sp, err := s.storeProducts.GetForUpdate(ctx, req.UPC)
		if err != nil {
			return err
		}

		if err := s.batches.Create(ctx, batch); err != nil {
			return err
		}

		newQuantity := sp.Quantity + req.Quantity
		quote := pricing.Evaluate(req.WholesalePrice, newQuantity, req.ExpiringDate, today)

		// Only the batch just inserted is repriced; older batches keep the
		// price they were shelved at.
		if err := s.batches.UpdateSellingPrice(ctx, batch.ID, quote.FinalPrice); err != nil {
			return err
		}
		batch.SellingPrice = quote.FinalPrice

		updated, err = s.storeProducts.ApplyReceipt(ctx, req.UPC, quote.FinalPrice, quote.Promotional, newQuantity)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("upc", req.UPC).
		Int64("batch_id", batch.ID).
		Int("quantity", req.Quantity).
		Int("products_number", updated.Quantity).
		Str("selling_price", updated.SellingPrice.StringFixed(money.Scale)).
		Bool("promotional", updated.Promotional).
		Msg("batch received")

	s.publisher.PublishBatchReceived(ctx, batch, updated, req.ReceivedBy)

	return updated, nil
}

// ExpiryFault is a batch that could not be expired because its store product
// holds fewer units than the batch.
type ExpiryFault struct {
	BatchID  int64  `json:"batch_id"`
	UPC      string `json:"upc"`
	Expected int    `json:"expected_decrement"`
	Actual   int    `json:"actual_quantity"`
	Missing  bool   `json:"missing,omitempty"`
}

func (f ExpiryFault) Error() string {
	if f.Missing {
		return fmt.Sprintf("batch %d: store product %s does not exist", f.BatchID, f.UPC)
	}
	return fmt.Sprintf("batch %d: store product %s has %d units, cannot remove %d",
		f.BatchID, f.UPC, f.Actual, f.Expected)
}

// ExpiryReport summarizes one expiry run.
type ExpiryReport struct {
	RunDate      time.Time      `json:"run_date"`
	Expired      int            `json:"expired"`
	UnitsRemoved map[string]int `json:"units_removed"`
	Faults       []ExpiryFault  `json:"faults,omitempty"`
}

// AffectedUPCs returns how many store products lost stock in the run.
func (r *ExpiryReport) AffectedUPCs() int {
	return len(r.UnitsRemoved)
}

// ExpireBatches removes every batch whose expiring date is before today and
// takes its units off the owning store product, all in one transaction.
//
// A batch whose units exceed the recorded quantity is a consistency fault:
// it is logged, left in place, and its store product is not touched. The
// remaining batches are still expired and committed. The returned error joins
// every fault; the report is returned either way.
func (s *BatchService) ExpireBatches(ctx context.Context) (*ExpiryReport, error) {
	today := startOfDay(s.now())
	report := &ExpiryReport{
		RunDate:      today,
		UnitsRemoved: map[string]int{},
	}

	err := s.db.WithTx(ctx, func(ctx context.Context) error {
		expired, err := s.batches.LockExpired(ctx, today)
		if err != nil {
			return err
		}

		ids := make([]int64, 0, len(expired))
		for _, b := range expired {
			_, ok, err := s.storeProducts.DecrementQuantity(ctx, b.UPC, b.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				fault, err := s.fault(ctx, b)
				if err != nil {
					return err
				}
				report.Faults = append(report.Faults, fault)
				continue
			}
			ids = append(ids, b.ID)
			report.UnitsRemoved[b.UPC] += b.Quantity
		}

		deleted, err := s.batches.DeleteByIDs(ctx, ids)
		if err != nil {
			return err
		}
		report.Expired = int(deleted)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if report.Expired > 0 || len(report.Faults) > 0 {
		s.logger.Info().
			Time("run_date", today).
			Int("expired", report.Expired).
			Int("affected_upcs", report.AffectedUPCs()).
			Int("faults", len(report.Faults)).
			Msg("expired batches removed")

		s.publisher.PublishBatchesExpired(ctx, today, report.Expired, report.UnitsRemoved, len(report.Faults))
	}

	if len(report.Faults) > 0 {
		errs := make([]error, len(report.Faults))
		for i, f := range report.Faults {
			errs[i] = f
		}
		return report, errors.Join(errs...)
	}
	return report, nil
}

func (s *BatchService) fault(ctx context.Context, b repository.Batch) (ExpiryFault, error) {
	actual, exists, err := s.storeProducts.RecordedQuantity(ctx, b.UPC)
	if err != nil {
		return ExpiryFault{}, err
	}

	f := ExpiryFault{
		BatchID:  b.ID,
		UPC:      b.UPC,
		Expected: b.Quantity,
		Actual:   actual,
		Missing:  !exists,
	}

	s.logger.Error().
		Str("upc", b.UPC).
		Int64("batch_id", b.ID).
		Int("expected_decrement", b.Quantity).
		Int("actual_quantity", actual).
		Bool("missing", !exists).
		Msg("store product quantity would go negative, batch kept")

	return f, nil
}

// ListByUPC lists the live batches of a store product.
func (s *BatchService) ListByUPC(ctx context.Context, upc string) ([]repository.Batch, error) {
	if _, err := s.storeProducts.GetByUPC(ctx, upc); err != nil {
		return nil, err
	}
	return s.batches.ListByUPC(ctx, upc)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
