package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/zlagoda/zlagoda-backend/pkg/database"
	"github.com/zlagoda/zlagoda-backend/pkg/errors"
	"github.com/zlagoda/zlagoda-backend/pkg/pagination"
)

// Product is a catalog entry. Store products reference it by id.
type Product struct {
	ID              int64  `db:"id_product" json:"id_product"`
	Name            string `db:"product_name" json:"product_name"`
	Characteristics string `db:"product_characteristics" json:"product_characteristics"`
	CategoryNumber  int64  `db:"category_number" json:"category_number"`
}

// ProductFilter narrows a product listing.
type ProductFilter struct {
	CategoryNumber *int64
	NamePrefix     string
}

var productKeyset = pagination.Keyset{Key: "product_name", ID: "id_product", IDKind: pagination.KindInteger}

// ProductRepository handles product persistence
type ProductRepository struct {
	db *database.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *database.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create inserts a product and assigns its generated id.
func (r *ProductRepository) Create(ctx context.Context, p *Product) error {
	query := `
		INSERT INTO product (product_name, product_characteristics, category_number)
		VALUES ($1, $2, $3)
		RETURNING id_product
	`

	err := r.db.Querier(ctx).QueryRowxContext(ctx, query, p.Name, p.Characteristics, p.CategoryNumber).Scan(&p.ID)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID gets a product by id
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*Product, error) {
	var p Product
	query := `
		SELECT id_product, product_name, product_characteristics, category_number
		FROM product WHERE id_product = $1
	`
	if err := r.db.Querier(ctx).GetContext(ctx, &p, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.EntityNotFound("product", id)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// Update updates a product
func (r *ProductRepository) Update(ctx context.Context, p *Product) error {
	query := `
		UPDATE product SET product_name = $2, product_characteristics = $3, category_number = $4
		WHERE id_product = $1
	`

	result, err := r.db.Querier(ctx).ExecContext(ctx, query, p.ID, p.Name, p.Characteristics, p.CategoryNumber)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return fmt.Errorf("update product: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.EntityNotFound("product", p.ID)
	}
	return nil
}

// Delete removes a product. Products still referenced by a store product
// are rejected with InvalidProduct.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Querier(ctx).ExecContext(ctx, `DELETE FROM product WHERE id_product = $1`, id)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return fmt.Errorf("delete product: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.EntityNotFound("product", id)
	}
	return nil
}

// likeEscaper makes LIKE wildcards in user input match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// List returns one keyset page of products ordered by name, then id.
func (r *ProductRepository) List(ctx context.Context, filter ProductFilter, req pagination.Request) (pagination.Page[Product], error) {
	builder := database.Builder()
	q := builder.
		Select("id_product", "product_name", "product_characteristics", "category_number").
		From("product")

	if filter.CategoryNumber != nil {
		q = q.Where(squirrel.Eq{"category_number": *filter.CategoryNumber})
	}
	if filter.NamePrefix != "" {
		q = q.Where(squirrel.ILike{"product_name": likeEscaper.Replace(filter.NamePrefix) + "%"})
	}

	return pagination.Fetch(ctx, r.db.Querier(ctx), builder, q, productKeyset, req,
		func(p Product) pagination.Cursor {
			return pagination.Cursor{Key: p.Name, ID: strconv.FormatInt(p.ID, 10)}
		})
}
