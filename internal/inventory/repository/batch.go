package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/zlagoda/zlagoda-backend/pkg/database"
)

// Batch is one delivery of a store product. SellingPrice is the
// VAT-inclusive price the delivery was shelved at.
type Batch struct {
	ID           int64           `db:"id" json:"id"`
	UPC          string          `db:"upc" json:"upc"`
	DeliveryDate time.Time       `db:"delivery_date" json:"delivery_date"`
	ExpiringDate time.Time       `db:"expiring_date" json:"expiring_date"`
	Quantity     int             `db:"quantity" json:"quantity"`
	SellingPrice decimal.Decimal `db:"selling_price" json:"selling_price"`
}

const batchColumns = `id, upc, delivery_date, expiring_date, quantity, selling_price`

// BatchRepository handles batch persistence
type BatchRepository struct {
	db *database.DB
}

// NewBatchRepository creates a new batch repository
func NewBatchRepository(db *database.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// Create inserts a batch and assigns its generated id.
func (r *BatchRepository) Create(ctx context.Context, batch *Batch) error {
	query := `
		INSERT INTO batch (upc, delivery_date, expiring_date, quantity, selling_price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.Querier(ctx).QueryRowxContext(ctx, query,
		batch.UPC, batch.DeliveryDate, batch.ExpiringDate, batch.Quantity, batch.SellingPrice,
	).Scan(&batch.ID)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

// UpdateSellingPrice reprices a single batch.
func (r *BatchRepository) UpdateSellingPrice(ctx context.Context, id int64, price decimal.Decimal) error {
	_, err := r.db.Querier(ctx).ExecContext(ctx, `UPDATE batch SET selling_price = $2 WHERE id = $1`, id, price)
	if err != nil {
		return fmt.Errorf("update batch price: %w", err)
	}
	return nil
}

// ListByUPC lists the live batches of a store product, soonest expiry first.
func (r *BatchRepository) ListByUPC(ctx context.Context, upc string) ([]Batch, error) {
	batches := []Batch{}
	query := `SELECT ` + batchColumns + ` FROM batch WHERE upc = $1 ORDER BY expiring_date, id`
	if err := r.db.Querier(ctx).SelectContext(ctx, &batches, query, upc); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return batches, nil
}

// LockExpired returns every batch that expired before today and locks the
// rows until the surrounding transaction ends.
func (r *BatchRepository) LockExpired(ctx context.Context, today time.Time) ([]Batch, error) {
	batches := []Batch{}
	query := `SELECT ` + batchColumns + ` FROM batch WHERE expiring_date < $1 ORDER BY upc, id FOR UPDATE`
	if err := r.db.Querier(ctx).SelectContext(ctx, &batches, query, today); err != nil {
		return nil, fmt.Errorf("select expired batches: %w", err)
	}
	return batches, nil
}

// DeleteByIDs removes the given batches and returns how many were deleted.
func (r *BatchRepository) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result, err := r.db.Querier(ctx).ExecContext(ctx, `DELETE FROM batch WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("delete batches: %w", err)
	}
	return result.RowsAffected()
}
