package service

import (
	"context"
	"strings"

	"github.com/zlagoda/zlagoda-backend/internal/inventory/repository"
	"github.com/zlagoda/zlagoda-backend/pkg/errors"
	"github.com/zlagoda/zlagoda-backend/pkg/logger"
	"github.com/zlagoda/zlagoda-backend/pkg/pagination"
)

// ProductCache is a read-through cache for catalog products.
// Implemented by cache.RedisProductCache and cache.NoopProductCache.
type ProductCache interface {
	Get(ctx context.Context, id int64) (*repository.Product, bool, error)
	Set(ctx context.Context, p *repository.Product) error
	Delete(ctx context.Context, id int64) error
}

// ProductService handles catalog products
type ProductService struct {
	products *repository.ProductRepository
	cache    ProductCache
	logger   *logger.Logger
}

// NewProductService creates a new product service
func NewProductService(products *repository.ProductRepository, cache ProductCache, log *logger.Logger) *ProductService {
	return &ProductService{
		products: products,
		cache:    cache,
		logger:   log.WithComponent("product-service"),
	}
}

func validateProduct(p *repository.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return errors.InvalidParameter("product_name", "is required")
	}
	if p.CategoryNumber <= 0 {
		return errors.InvalidParameter("category_number", "must be positive")
	}
	return nil
}

// Create creates a product
func (s *ProductService) Create(ctx context.Context, p *repository.Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	return s.products.Create(ctx, p)
}

// Get returns a product, serving it from the cache when possible. Cache
// failures fall back to the database.
func (s *ProductService) Get(ctx context.Context, id int64) (*repository.Product, error) {
	if p, ok, err := s.cache.Get(ctx, id); err != nil {
		s.logger.Warn().Err(err).Int64("id_product", id).Msg("product cache read failed")
	} else if ok {
		return p, nil
	}

	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, p); err != nil {
		s.logger.Warn().Err(err).Int64("id_product", id).Msg("product cache write failed")
	}
	return p, nil
}

// Update updates a product and evicts it from the cache
func (s *ProductService) Update(ctx context.Context, p *repository.Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	if err := s.products.Update(ctx, p); err != nil {
		return err
	}
	s.evict(ctx, p.ID)
	return nil
}

// Delete deletes a product. It fails while store products still reference it.
func (s *ProductService) Delete(ctx context.Context, id int64) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.evict(ctx, id)
	return nil
}

// List lists products one keyset page at a time
func (s *ProductService) List(ctx context.Context, filter repository.ProductFilter, req pagination.Request) (pagination.Page[repository.Product], error) {
	return s.products.List(ctx, filter, req)
}

func (s *ProductService) evict(ctx context.Context, id int64) {
	if err := s.cache.Delete(ctx, id); err != nil {
		s.logger.Warn().Err(err).Int64("id_product", id).Msg("product cache eviction failed")
	}
}
