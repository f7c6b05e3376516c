package repository_test

import (
	"context"
	"database/sql/driver"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zlagoda/zlagoda-backend/internal/inventory/repository"
	"github.com/zlagoda/zlagoda-backend/pkg/errors"
	"github.com/zlagoda/zlagoda-backend/pkg/money"
	"github.com/zlagoda/zlagoda-backend/pkg/pagination"
	"github.com/zlagoda/zlagoda-backend/pkg/testutil"
)

func TestStoreProductRepository_GetByUPC(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	repo := repository.NewStoreProductRepository(mockDB.DB)

	mockDB.ExpectQuery("FROM store_product WHERE upc = $1 AND is_deleted = false").
		WithArgs("123456789012").
		WillReturnRows(testutil.MockRows(testutil.StoreProductColumns...).
			AddRow("123456789012", nil, int64(7), "12.0000", 50, false, false))

	sp, err := repo.GetByUPC(context.Background(), "123456789012")
	require.NoError(t, err)

	assert.Equal(t, "123456789012", sp.UPC)
	assert.Nil(t, sp.UPCProm)
	assert.Equal(t, int64(7), sp.ProductID)
	assert.True(t, sp.SellingPrice.Equal(money.Must("12")))
	assert.Equal(t, 50, sp.Quantity)
	mockDB.ExpectationsWereMet(t)
}

func TestStoreProductRepository_GetByUPC_NotFound(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	repo := repository.NewStoreProductRepository(mockDB.DB)

	mockDB.ExpectQuery("FROM store_product WHERE upc = $1 AND is_deleted = false").
		WithArgs("000000000000").
		WillReturnRows(testutil.MockRows(testutil.StoreProductColumns...))

	_, err := repo.GetByUPC(context.Background(), "000000000000")
	assert.True(t, errors.Is(err, errors.ErrEntityNotFound))
	mockDB.ExpectationsWereMet(t)
}

func TestStoreProductRepository_Create_RetiredUPC(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	repo := repository.NewStoreProductRepository(mockDB.DB)

	mockDB.ExpectExec("INSERT INTO store_product").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "store_product_pkey"})

	err := repo.Create(context.Background(), &repository.StoreProduct{
		UPC:          "123456789012",
		ProductID:    1,
		SellingPrice: money.Must("12.00"),
		Quantity:     5,
	})

	assert.True(t, errors.Is(err, errors.ErrInvalidProduct))
	mockDB.ExpectationsWereMet(t)
}

func TestStoreProductRepository_Update_ReadsBackQuantity(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	repo := repository.NewStoreProductRepository(mockDB.DB)

	mockDB.ExpectQuery("UPDATE store_product SET").
		WithArgs("123456789012", nil, int64(3), testutil.Decimal("9.60"), true).
		WillReturnRows(testutil.MockRows("products_number").AddRow(42))

	sp := &repository.StoreProduct{
		UPC:          "123456789012",
		ProductID:    3,
		SellingPrice: money.Must("9.60"),
		Promotional:  true,
		Quantity:     999,
	}
	require.NoError(t, repo.Update(context.Background(), sp))

	assert.Equal(t, 42, sp.Quantity)
	mockDB.ExpectationsWereMet(t)
}

func TestStoreProductRepository_Update_Missing(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	repo := repository.NewStoreProductRepository(mockDB.DB)

	mockDB.ExpectQuery("UPDATE store_product SET").
		WillReturnRows(testutil.MockRows("products_number"))

	err := repo.Update(context.Background(), &repository.StoreProduct{UPC: "gone"})
	assert.True(t, errors.Is(err, errors.ErrEntityNotFound))
}

func TestStoreProductRepository_SoftDelete(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	repo := repository.NewStoreProductRepository(mockDB.DB)

	mockDB.ExpectExec("UPDATE store_product SET is_deleted = true WHERE upc = $1 AND is_deleted = false").
		WithArgs("123456789012").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectExec("UPDATE store_product SET is_deleted = true WHERE upc = $1 AND is_deleted = false").
		WithArgs("123456789012").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.SoftDelete(context.Background(), "123456789012"))

	err := repo.SoftDelete(context.Background(), "123456789012")
	assert.True(t, errors.Is(err, errors.ErrEntityNotFound))
	mockDB.ExpectationsWereMet(t)
}

func TestStoreProductRepository_DecrementQuantity(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	repo := repository.NewStoreProductRepository(mockDB.DB)

	mockDB.ExpectQuery("SET products_number = products_number - $1").
		WithArgs(10, "A").
		WillReturnRows(testutil.MockRows("products_number").AddRow(40))
	mockDB.ExpectQuery("SET products_number = products_number - $1").
		WithArgs(10, "B").
		WillReturnRows(testutil.MockRows("products_number"))

	remaining, ok, err := repo.DecrementQuantity(context.Background(), "A", 10)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 40, remaining)

	_, ok, err = repo.DecrementQuantity(context.Background(), "B", 10)
	require.NoError(t, err)
	assert.False(t, ok)
	mockDB.ExpectationsWereMet(t)
}

func TestStoreProductRepository_GetStock(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	repo := repository.NewStoreProductRepository(mockDB.DB)

	mockDB.ExpectQuery("COALESCE(SUM(b.quantity), 0) AS batch_quantity").
		WithArgs("A").
		WillReturnRows(testutil.MockRows("upc", "products_number", "batch_quantity", "batch_count").
			AddRow("A", 70, 70, 2))

	stock, err := repo.GetStock(context.Background(), "A")
	require.NoError(t, err)
	assert.True(t, stock.Consistent())
	assert.Equal(t, 2, stock.BatchCount)
}

func TestStoreProductRepository_List(t *testing.T) {
	columns := append(append([]string{}, testutil.StoreProductColumns...), "product_name")

	tests := []struct {
		name      string
		query     repository.StoreProductQuery
		after     *pagination.Cursor
		wantSQL   string
		wantArgs  []driver.Value
	}{
		{
			name:     "by upc, all",
			query:    repository.StoreProductQuery{},
			wantSQL:  "WHERE sp.is_deleted = $1 ORDER BY sp.upc ASC LIMIT 3",
			wantArgs: []driver.Value{false},
		},
		{
			name:     "by upc, after cursor",
			query:    repository.StoreProductQuery{},
			after:    &pagination.Cursor{Key: "A", ID: "A"},
			wantSQL:  "WHERE sp.is_deleted = $1 AND sp.upc > $2 ORDER BY sp.upc ASC LIMIT 3",
			wantArgs: []driver.Value{false, "A"},
		},
		{
			name:     "by name, promotional only",
			query:    repository.StoreProductQuery{Sort: repository.SortByName, Promotion: repository.PromotionOnly},
			wantSQL:  "WHERE sp.is_deleted = $1 AND sp.promotional_product = $2 ORDER BY p.product_name ASC, sp.upc ASC LIMIT 3",
			wantArgs: []driver.Value{false, true},
		},
		{
			name:     "by quantity, non promotional, after cursor",
			query:    repository.StoreProductQuery{Sort: repository.SortByQuantity, Promotion: repository.PromotionExcluded},
			after:    &pagination.Cursor{Key: "10", ID: "A"},
			wantSQL:  "WHERE sp.is_deleted = $1 AND sp.promotional_product = $2 AND (sp.products_number, sp.upc) > ($3, $4) ORDER BY sp.products_number ASC, sp.upc ASC LIMIT 3",
			wantArgs: []driver.Value{false, false, int64(10), "A"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockDB := testutil.NewMockDB(t)
			repo := repository.NewStoreProductRepository(mockDB.DB)

			mockDB.ExpectQuery(tt.wantSQL).
				WithArgs(tt.wantArgs...).
				WillReturnRows(testutil.MockRows(columns...).
					AddRow("A", nil, int64(1), "12", 10, false, false, "Milk").
					AddRow("B", nil, int64(2), "9.6", 20, true, false, "Bread").
					AddRow("C", nil, int64(3), "1", 30, false, false, "Salt"))
			mockDB.ExpectQuery("SELECT COUNT(*) FROM (SELECT").
				WillReturnRows(testutil.MockRows("count").AddRow(7))

			page, err := repo.List(context.Background(), tt.query, pagination.Request{Size: 2, After: tt.after})
			require.NoError(t, err)

			assert.Len(t, page.Content, 2)
			assert.True(t, page.HasNext)
			assert.Equal(t, int64(7), page.TotalElements)
			assert.Equal(t, "B", page.Next.ID)
			mockDB.ExpectationsWereMet(t)
		})
	}
}

func TestStoreProductRepository_List_MalformedQuantityCursor(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	repo := repository.NewStoreProductRepository(mockDB.DB)

	_, err := repo.List(context.Background(),
		repository.StoreProductQuery{Sort: repository.SortByQuantity},
		pagination.Request{Size: 2, After: &pagination.Cursor{Key: "abc", ID: "A"}})

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidParameter))
	mockDB.ExpectationsWereMet(t)
}
