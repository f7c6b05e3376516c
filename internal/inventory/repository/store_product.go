package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"
	"github.com/zlagoda/zlagoda-backend/pkg/database"
	"github.com/zlagoda/zlagoda-backend/pkg/errors"
	"github.com/zlagoda/zlagoda-backend/pkg/pagination"
)

// StoreProduct is a product stocked in the store under a UPC.
// SellingPrice is VAT-inclusive and already discounted when Promotional.
// Quantity is the running sum of live batches for the UPC.
type StoreProduct struct {
	UPC          string          `db:"upc" json:"upc"`
	UPCProm      *string         `db:"upc_prom" json:"upc_prom,omitempty"`
	ProductID    int64           `db:"id_product" json:"id_product"`
	SellingPrice decimal.Decimal `db:"selling_price" json:"selling_price"`
	Quantity     int             `db:"products_number" json:"products_number"`
	Promotional  bool            `db:"promotional_product" json:"promotional_product"`
	IsDeleted    bool            `db:"is_deleted" json:"-"`
}

// StoreProductView is a store product listed together with its product name.
type StoreProductView struct {
	StoreProduct
	ProductName string `db:"product_name" json:"product_name"`
}

// StoreProductCharacteristics is the shelf-label view of a store product.
type StoreProductCharacteristics struct {
	UPC             string          `db:"upc" json:"upc"`
	SellingPrice    decimal.Decimal `db:"selling_price" json:"selling_price"`
	Quantity        int             `db:"products_number" json:"products_number"`
	ProductName     string          `db:"product_name" json:"product_name"`
	Characteristics string          `db:"product_characteristics" json:"product_characteristics"`
}

// PriceQuantity is the till lookup for a UPC.
type PriceQuantity struct {
	SellingPrice decimal.Decimal `db:"selling_price" json:"selling_price"`
	Quantity     int             `db:"products_number" json:"products_number"`
}

// StockLevel compares the stored running quantity with the live batches.
type StockLevel struct {
	UPC           string `db:"upc" json:"upc"`
	Quantity      int    `db:"products_number" json:"products_number"`
	BatchQuantity int    `db:"batch_quantity" json:"batch_quantity"`
	BatchCount    int    `db:"batch_count" json:"batch_count"`
}

// Consistent reports whether the running quantity matches the batch sum.
func (s StockLevel) Consistent() bool {
	return s.Quantity == s.BatchQuantity
}

// SortField selects the ordering of a store product listing.
type SortField int

const (
	SortByUPC SortField = iota
	SortByName
	SortByQuantity
)

// PromotionFilter restricts a listing by promotional flag.
type PromotionFilter int

const (
	PromotionAll PromotionFilter = iota
	PromotionOnly
	PromotionExcluded
)

// StoreProductQuery describes a store product listing. Every combination of
// sort and filter resolves into one parameterized query.
type StoreProductQuery struct {
	Sort      SortField
	Promotion PromotionFilter
	ProductID *int64
}

func (q StoreProductQuery) keyset() pagination.Keyset {
	switch q.Sort {
	case SortByName:
		return pagination.Keyset{Key: "p.product_name", ID: "sp.upc"}
	case SortByQuantity:
		return pagination.Keyset{Key: "sp.products_number", ID: "sp.upc", KeyKind: pagination.KindInteger}
	default:
		return pagination.Keyset{Key: "sp.upc"}
	}
}

func (q StoreProductQuery) cursorOf(v StoreProductView) pagination.Cursor {
	switch q.Sort {
	case SortByName:
		return pagination.Cursor{Key: v.ProductName, ID: v.UPC}
	case SortByQuantity:
		return pagination.Cursor{Key: strconv.Itoa(v.Quantity), ID: v.UPC}
	default:
		return pagination.Cursor{Key: v.UPC, ID: v.UPC}
	}
}

func (q StoreProductQuery) apply(sb squirrel.SelectBuilder) squirrel.SelectBuilder {
	switch q.Promotion {
	case PromotionOnly:
		sb = sb.Where(squirrel.Eq{"sp.promotional_product": true})
	case PromotionExcluded:
		sb = sb.Where(squirrel.Eq{"sp.promotional_product": false})
	}
	if q.ProductID != nil {
		sb = sb.Where(squirrel.Eq{"sp.id_product": *q.ProductID})
	}
	return sb
}

const storeProductColumns = `upc, upc_prom, id_product, selling_price, products_number, promotional_product, is_deleted`

// StoreProductRepository handles store product persistence. Soft-deleted
// rows are invisible to every read.
type StoreProductRepository struct {
	db *database.DB
}

// NewStoreProductRepository creates a new store product repository
func NewStoreProductRepository(db *database.DB) *StoreProductRepository {
	return &StoreProductRepository{db: db}
}

// Create inserts a store product. A UPC that exists, live or retired, is
// rejected with InvalidProduct.
func (r *StoreProductRepository) Create(ctx context.Context, sp *StoreProduct) error {
	query := `
		INSERT INTO store_product (
			upc, upc_prom, id_product, selling_price, products_number, promotional_product, is_deleted
		) VALUES ($1, $2, $3, $4, $5, $6, false)
	`

	_, err := r.db.Querier(ctx).ExecContext(ctx, query,
		sp.UPC, sp.UPCProm, sp.ProductID, sp.SellingPrice, sp.Quantity, sp.Promotional,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return fmt.Errorf("insert store product: %w", err)
	}
	sp.IsDeleted = false
	return nil
}

// GetByUPC gets a live store product
func (r *StoreProductRepository) GetByUPC(ctx context.Context, upc string) (*StoreProduct, error) {
	return r.get(ctx, `SELECT `+storeProductColumns+` FROM store_product WHERE upc = $1 AND is_deleted = false`, upc)
}

// GetForUpdate gets a live store product and locks its row until the
// surrounding transaction ends.
func (r *StoreProductRepository) GetForUpdate(ctx context.Context, upc string) (*StoreProduct, error) {
	return r.get(ctx, `SELECT `+storeProductColumns+` FROM store_product WHERE upc = $1 AND is_deleted = false FOR UPDATE`, upc)
}

func (r *StoreProductRepository) get(ctx context.Context, query, upc string) (*StoreProduct, error) {
	var sp StoreProduct
	if err := r.db.Querier(ctx).GetContext(ctx, &sp, query, upc); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.EntityNotFound("store product", upc)
		}
		return nil, fmt.Errorf("get store product: %w", err)
	}
	return &sp, nil
}

// ExistsByUPC reports whether a live store product has this UPC.
func (r *StoreProductRepository) ExistsByUPC(ctx context.Context, upc string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM store_product WHERE upc = $1 AND is_deleted = false)`
	if err := r.db.Querier(ctx).GetContext(ctx, &exists, query, upc); err != nil {
		return false, fmt.Errorf("check store product: %w", err)
	}
	return exists, nil
}

// Update changes the catalog fields and price of a live store product. The
// quantity is left alone and read back into sp.
func (r *StoreProductRepository) Update(ctx context.Context, sp *StoreProduct) error {
	query := `
		UPDATE store_product SET
			upc_prom = $2, id_product = $3, selling_price = $4, promotional_product = $5
		WHERE upc = $1 AND is_deleted = false
		RETURNING products_number
	`

	err := r.db.Querier(ctx).QueryRowxContext(ctx, query,
		sp.UPC, sp.UPCProm, sp.ProductID, sp.SellingPrice, sp.Promotional,
	).Scan(&sp.Quantity)
	if err != nil {
		if err == sql.ErrNoRows {
			return errors.EntityNotFound("store product", sp.UPC)
		}
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return fmt.Errorf("update store product: %w", err)
	}
	return nil
}

// ApplyReceipt writes the price, promotional flag and quantity computed for
// a batch receipt and returns the refreshed row.
func (r *StoreProductRepository) ApplyReceipt(ctx context.Context, upc string, price decimal.Decimal, promotional bool, quantity int) (*StoreProduct, error) {
	query := `
		UPDATE store_product SET
			selling_price = $2, promotional_product = $3, products_number = $4
		WHERE upc = $1 AND is_deleted = false
		RETURNING ` + storeProductColumns

	var sp StoreProduct
	if err := r.db.Querier(ctx).GetContext(ctx, &sp, query, upc, price, promotional, quantity); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.EntityNotFound("store product", upc)
		}
		if appErr := database.MapPQError(err); appErr != nil {
			return nil, appErr
		}
		return nil, fmt.Errorf("apply receipt: %w", err)
	}
	return &sp, nil
}

// DecrementQuantity subtracts n from the quantity of upc, retired or not.
// It never drives the quantity below zero: ok is false and nothing changes
// when fewer than n units are on record.
func (r *StoreProductRepository) DecrementQuantity(ctx context.Context, upc string, n int) (remaining int, ok bool, err error) {
	query := `
		UPDATE store_product SET products_number = products_number - $1
		WHERE upc = $2 AND products_number >= $1
		RETURNING products_number
	`

	err = r.db.Querier(ctx).QueryRowxContext(ctx, query, n, upc).Scan(&remaining)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("decrement quantity: %w", err)
	}
	return remaining, true, nil
}

// RecordedQuantity reads the stored quantity of upc including retired rows.
// ok is false when the UPC does not exist at all.
func (r *StoreProductRepository) RecordedQuantity(ctx context.Context, upc string) (quantity int, ok bool, err error) {
	err = r.db.Querier(ctx).GetContext(ctx, &quantity, `SELECT products_number FROM store_product WHERE upc = $1`, upc)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read quantity: %w", err)
	}
	return quantity, true, nil
}

// SoftDelete retires a live store product. The UPC can never be reused.
func (r *StoreProductRepository) SoftDelete(ctx context.Context, upc string) error {
	result, err := r.db.Querier(ctx).ExecContext(ctx,
		`UPDATE store_product SET is_deleted = true WHERE upc = $1 AND is_deleted = false`, upc)
	if err != nil {
		return fmt.Errorf("soft delete store product: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.EntityNotFound("store product", upc)
	}
	return nil
}

// GetCharacteristics returns price, quantity, name and characteristics for upc.
func (r *StoreProductRepository) GetCharacteristics(ctx context.Context, upc string) (*StoreProductCharacteristics, error) {
	query := `
		SELECT sp.upc, sp.selling_price, sp.products_number, p.product_name, p.product_characteristics
		FROM store_product sp
		JOIN product p ON p.id_product = sp.id_product
		WHERE sp.upc = $1 AND sp.is_deleted = false
	`

	var c StoreProductCharacteristics
	if err := r.db.Querier(ctx).GetContext(ctx, &c, query, upc); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.EntityNotFound("store product", upc)
		}
		return nil, fmt.Errorf("get characteristics: %w", err)
	}
	return &c, nil
}

// GetPriceAndQuantity returns the selling price and quantity for upc.
func (r *StoreProductRepository) GetPriceAndQuantity(ctx context.Context, upc string) (*PriceQuantity, error) {
	query := `SELECT selling_price, products_number FROM store_product WHERE upc = $1 AND is_deleted = false`

	var pq PriceQuantity
	if err := r.db.Querier(ctx).GetContext(ctx, &pq, query, upc); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.EntityNotFound("store product", upc)
		}
		return nil, fmt.Errorf("get price and quantity: %w", err)
	}
	return &pq, nil
}

// GetStock returns the stored quantity of upc next to the sum of its live batches.
func (r *StoreProductRepository) GetStock(ctx context.Context, upc string) (*StockLevel, error) {
	query := `
		SELECT sp.upc, sp.products_number,
			COALESCE(SUM(b.quantity), 0) AS batch_quantity,
			COUNT(b.id) AS batch_count
		FROM store_product sp
		LEFT JOIN batch b ON b.upc = sp.upc
		WHERE sp.upc = $1 AND sp.is_deleted = false
		GROUP BY sp.upc, sp.products_number
	`

	var s StockLevel
	if err := r.db.Querier(ctx).GetContext(ctx, &s, query, upc); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.EntityNotFound("store product", upc)
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return &s, nil
}

// List returns one keyset page of live store products described by q.
func (r *StoreProductRepository) List(ctx context.Context, q StoreProductQuery, req pagination.Request) (pagination.Page[StoreProductView], error) {
	builder := database.Builder()
	base := builder.
		Select(
			"sp.upc", "sp.upc_prom", "sp.id_product", "sp.selling_price",
			"sp.products_number", "sp.promotional_product", "sp.is_deleted", "p.product_name",
		).
		From("store_product sp").
		Join("product p ON p.id_product = sp.id_product").
		Where(squirrel.Eq{"sp.is_deleted": false})

	return pagination.Fetch(ctx, r.db.Querier(ctx), builder, q.apply(base), q.keyset(), req, q.cursorOf)
}
