package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zlagoda/zlagoda-backend/internal/inventory/repository"
	"github.com/zlagoda/zlagoda-backend/pkg/money"
	"github.com/zlagoda/zlagoda-backend/pkg/testutil"
)

func TestBatchRepository_Create(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	repo := repository.NewBatchRepository(mockDB.DB)

	delivered := testutil.Date(2024, time.March, 10)
	expires := testutil.Date(2024, time.March, 13)

	mockDB.ExpectQuery("INSERT INTO batch (upc, delivery_date, expiring_date, quantity, selling_price)").
		WithArgs("123456789012", delivered, expires, 15, testutil.Decimal("12.00")).
		WillReturnRows(testutil.MockRows("id").AddRow(int64(31)))

	b := &repository.Batch{
		UPC:          "123456789012",
		DeliveryDate: delivered,
		ExpiringDate: expires,
		Quantity:     15,
		SellingPrice: money.Must("12.00"),
	}
	require.NoError(t, repo.Create(context.Background(), b))

	assert.Equal(t, int64(31), b.ID)
	mockDB.ExpectationsWereMet(t)
}

func TestBatchRepository_LockExpired(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	repo := repository.NewBatchRepository(mockDB.DB)
	today := testutil.Date(2024, time.March, 10)

	mockDB.ExpectQuery("FROM batch WHERE expiring_date < $1 ORDER BY upc, id FOR UPDATE").
		WithArgs(today).
		WillReturnRows(testutil.MockRows("id", "upc", "delivery_date", "expiring_date", "quantity", "selling_price").
			AddRow(int64(1), "A", testutil.Date(2024, time.March, 1), testutil.Date(2024, time.March, 9), 10, "12"))

	batches, err := repo.LockExpired(context.Background(), today)
	require.NoError(t, err)

	require.Len(t, batches, 1)
	assert.Equal(t, "A", batches[0].UPC)
	assert.Equal(t, 10, batches[0].Quantity)
	mockDB.ExpectationsWereMet(t)
}

func TestBatchRepository_DeleteByIDs(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	repo := repository.NewBatchRepository(mockDB.DB)

	mockDB.ExpectExec("DELETE FROM batch WHERE id = ANY($1)").
		WithArgs("{1,2,3}").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteByIDs(context.Background(), []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = repo.DeleteByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	mockDB.ExpectationsWereMet(t)
}
