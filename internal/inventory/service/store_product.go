package service

import (
	"context"

	"github.com/zlagoda/zlagoda-backend/internal/inventory/events"
	"github.com/zlagoda/zlagoda-backend/internal/inventory/pricing"
	"github.com/zlagoda/zlagoda-backend/internal/inventory/repository"
	"github.com/zlagoda/zlagoda-backend/pkg/errors"
	"github.com/zlagoda/zlagoda-backend/pkg/logger"
	"github.com/zlagoda/zlagoda-backend/pkg/money"
	"github.com/zlagoda/zlagoda-backend/pkg/pagination"
)

// MaxUPCLength is the width of the upc column.
const MaxUPCLength = 12

// StoreProductService handles store product business logic
type StoreProductService struct {
	storeProducts *repository.StoreProductRepository
	publisher     *events.InventoryEventPublisher
	logger        *logger.Logger
}

// NewStoreProductService creates a new store product service
func NewStoreProductService(
	storeProducts *repository.StoreProductRepository,
	publisher *events.InventoryEventPublisher,
	log *logger.Logger,
) *StoreProductService {
	return &StoreProductService{
		storeProducts: storeProducts,
		publisher:     publisher,
		logger:        log.WithComponent("store-product-service"),
	}
}

// CreateStoreProductRequest describes a manually created store product.
// Promotional is taken as given, not derived from stock or expiry.
type CreateStoreProductRequest struct {
	UPC            string
	UPCProm        *string
	ProductID      int64
	WholesalePrice money.Money
	Quantity       int
	Promotional    bool
}

// UpdateStoreProductRequest describes a manual edit. The quantity cannot be
// changed here.
type UpdateStoreProductRequest struct {
	UPC            string
	UPCProm        *string
	ProductID      int64
	WholesalePrice money.Money
	Promotional    bool
}

func validateUPC(field, upc string) error {
	if upc == "" {
		return errors.InvalidParameter(field, "is required")
	}
	if len(upc) > MaxUPCLength {
		return errors.InvalidParameter(field, "must be at most 12 characters")
	}
	return nil
}

func validateCatalogFields(upcProm *string, productID int64, wholesale money.Money) error {
	if upcProm != nil {
		if err := validateUPC("upc_prom", *upcProm); err != nil {
			return err
		}
	}
	if productID <= 0 {
		return errors.InvalidParameter("id_product", "must be positive")
	}
	if !money.IsPositive(wholesale) {
		return errors.InvalidParameter("wholesale_price", "must be positive")
	}
	return nil
}

// Create prices and stores a new store product. A UPC that was ever used,
// including a retired one, is rejected with InvalidProduct.
func (s *StoreProductService) Create(ctx context.Context, req CreateStoreProductRequest) (*repository.StoreProduct, error) {
	if err := validateUPC("upc", req.UPC); err != nil {
		return nil, err
	}
	if err := validateCatalogFields(req.UPCProm, req.ProductID, req.WholesalePrice); err != nil {
		return nil, err
	}
	if req.Quantity < 0 {
		return nil, errors.InvalidParameter("products_number", "must not be negative")
	}

	quote := pricing.Manual(req.WholesalePrice, req.Promotional)
	sp := &repository.StoreProduct{
		UPC:          req.UPC,
		UPCProm:      req.UPCProm,
		ProductID:    req.ProductID,
		SellingPrice: quote.FinalPrice,
		Quantity:     req.Quantity,
		Promotional:  quote.Promotional,
	}

	if err := s.storeProducts.Create(ctx, sp); err != nil {
		return nil, err
	}

	s.logger.Info().Str("upc", sp.UPC).Int64("id_product", sp.ProductID).Msg("store product created")
	return sp, nil
}

// Update reprices a live store product and changes its catalog fields.
func (s *StoreProductService) Update(ctx context.Context, req UpdateStoreProductRequest) (*repository.StoreProduct, error) {
	if err := validateUPC("upc", req.UPC); err != nil {
		return nil, err
	}
	if err := validateCatalogFields(req.UPCProm, req.ProductID, req.WholesalePrice); err != nil {
		return nil, err
	}

	quote := pricing.Manual(req.WholesalePrice, req.Promotional)
	sp := &repository.StoreProduct{
		UPC:          req.UPC,
		UPCProm:      req.UPCProm,
		ProductID:    req.ProductID,
		SellingPrice: quote.FinalPrice,
		Promotional:  quote.Promotional,
	}

	if err := s.storeProducts.Update(ctx, sp); err != nil {
		return nil, err
	}
	return sp, nil
}

// SoftDelete retires a store product.
func (s *StoreProductService) SoftDelete(ctx context.Context, upc, deletedBy string) error {
	if err := s.storeProducts.SoftDelete(ctx, upc); err != nil {
		return err
	}

	s.logger.Info().Str("upc", upc).Str("deleted_by", deletedBy).Msg("store product retired")
	s.publisher.PublishStoreProductDeleted(ctx, upc, deletedBy)
	return nil
}

// Get gets a live store product
func (s *StoreProductService) Get(ctx context.Context, upc string) (*repository.StoreProduct, error) {
	return s.storeProducts.GetByUPC(ctx, upc)
}

// Exists reports whether a live store product has this UPC.
func (s *StoreProductService) Exists(ctx context.Context, upc string) (bool, error) {
	return s.storeProducts.ExistsByUPC(ctx, upc)
}

func (s *StoreProductService) GetCharacteristics(ctx context.Context, upc string) (*repository.StoreProductCharacteristics, error) {
	return s.storeProducts.GetCharacteristics(ctx, upc)
}

func (s *StoreProductService) GetPriceAndQuantity(ctx context.Context, upc string) (*repository.PriceQuantity, error) {
	return s.storeProducts.GetPriceAndQuantity(ctx, upc)
}

// GetStock compares the stored quantity with the live batches. A mismatch is
// logged; it means the running sum was written outside the batch lifecycle.
func (s *StoreProductService) GetStock(ctx context.Context, upc string) (*repository.StockLevel, error) {
	stock, err := s.storeProducts.GetStock(ctx, upc)
	if err != nil {
		return nil, err
	}
	if !stock.Consistent() {
		s.logger.Warn().
			Str("upc", upc).
			Int("products_number", stock.Quantity).
			Int("batch_quantity", stock.BatchQuantity).
			Msg("stored quantity differs from live batches")
	}
	return stock, nil
}

// List returns one keyset page of live store products.
func (s *StoreProductService) List(ctx context.Context, q repository.StoreProductQuery, req pagination.Request) (pagination.Page[repository.StoreProductView], error) {
	return s.storeProducts.List(ctx, q, req)
}
