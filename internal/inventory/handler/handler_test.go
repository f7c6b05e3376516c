package handler_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zlagoda/zlagoda-backend/internal/inventory/cache"
	"github.com/zlagoda/zlagoda-backend/internal/inventory/events"
	"github.com/zlagoda/zlagoda-backend/internal/inventory/handler"
	"github.com/zlagoda/zlagoda-backend/internal/inventory/repository"
	"github.com/zlagoda/zlagoda-backend/internal/inventory/service"
	"github.com/zlagoda/zlagoda-backend/pkg/httputil"
	"github.com/zlagoda/zlagoda-backend/pkg/logger"
	"github.com/zlagoda/zlagoda-backend/pkg/messaging"
	"github.com/zlagoda/zlagoda-backend/pkg/pagination"
	"github.com/zlagoda/zlagoda-backend/pkg/testutil"
)

const upc = "123456789012"

type fixture struct {
	router http.Handler
	db     *testutil.MockDB
	pub    *testutil.MockPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mockDB := testutil.NewMockDB(t)
	pub := testutil.NewMockPublisher()
	log := logger.Nop()

	storeProducts := repository.NewStoreProductRepository(mockDB.DB)
	batches := repository.NewBatchRepository(mockDB.DB)
	publisher := events.NewInventoryEventPublisher(pub, log)

	batchSvc := service.NewBatchService(mockDB.DB, storeProducts, batches, publisher, log).
		WithClock(func() time.Time { return time.Date(2024, time.May, 10, 9, 0, 0, 0, time.UTC) })
	storeProductSvc := service.NewStoreProductService(storeProducts, publisher, log)
	productSvc := service.NewProductService(repository.NewProductRepository(mockDB.DB), cache.NoopProductCache{}, log)

	spHandler := handler.NewStoreProductHandler(storeProductSvc, batchSvc, pagination.DefaultLimits, log)
	batchHandler := handler.NewBatchHandler(batchSvc, log)
	productHandler := handler.NewProductHandler(productSvc, pagination.DefaultLimits, log)

	r := chi.NewRouter()
	r.Use(httputil.Actor)
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/store-products", func(r chi.Router) {
			r.Get("/", spHandler.List)
			r.Post("/", spHandler.Create)
			r.Get("/{upc}", spHandler.Get)
			r.Put("/{upc}", spHandler.Update)
			r.Delete("/{upc}", spHandler.Delete)
			r.Get("/{upc}/characteristics", spHandler.GetCharacteristics)
			r.Get("/{upc}/price", spHandler.GetPrice)
			r.Get("/{upc}/stock", spHandler.GetStock)
		})
		r.Post("/batches", batchHandler.Receive)
		r.Post("/batches/expire", batchHandler.Expire)
		r.Get("/products/{id}", productHandler.Get)
		r.Post("/products", productHandler.Create)
	})

	return &fixture{router: r, db: mockDB, pub: pub}
}

func uniqueViolation() error {
	return &pq.Error{Code: "23505", Constraint: "store_product_pkey"}
}

func TestReceiveBatch(t *testing.T) {
	f := newFixture(t)

	f.db.ExpectBegin()
	f.db.ExpectQuery("is_deleted = false FOR UPDATE").
		WithArgs(upc).
		WillReturnRows(testutil.MockRows(testutil.StoreProductColumns...).
			AddRow(upc, nil, int64(7), "12.0000", 50, false, false))
	f.db.ExpectQuery("INSERT INTO batch").
		WillReturnRows(testutil.MockRows("id").AddRow(int64(5)))
	f.db.ExpectExec("UPDATE batch SET selling_price").
		WithArgs(int64(5), testutil.Decimal("9.60")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.db.ExpectQuery("selling_price = $2, promotional_product = $3, products_number = $4").
		WithArgs(upc, testutil.Decimal("9.60"), true, 70).
		WillReturnRows(testutil.MockRows(testutil.StoreProductColumns...).
			AddRow(upc, nil, int64(7), "9.6000", 70, true, false))
	f.db.ExpectCommit()

	req := testutil.NewHTTPRequest(http.MethodPost, "/api/v1/batches", map[string]interface{}{
		"upc":             upc,
		"delivery_date":   "2024-05-10",
		"expiring_date":   "2024-05-13",
		"quantity":        20,
		"wholesale_price": "10.00",
	})
	testutil.WithUserHeaders(req, "E001", "MANAGER")

	rr := testutil.ExecuteRequest(f.router, req)
	testutil.AssertStatus(t, rr, http.StatusCreated)

	var resp struct {
		Data repository.StoreProduct `json:"data"`
	}
	testutil.ParseJSONBody(t, rr, &resp)
	assert.Equal(t, 70, resp.Data.Quantity)
	assert.True(t, resp.Data.Promotional)
	assert.Equal(t, "9.6", resp.Data.SellingPrice.String())

	f.db.ExpectationsWereMet(t)
	payload := f.pub.Events()[0].Payload.(messaging.BatchReceivedEvent)
	assert.Equal(t, "E001", payload.ReceivedBy)
}

func TestReceiveBatch_InvalidBody(t *testing.T) {
	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"bad date", map[string]interface{}{
			"upc": upc, "delivery_date": "10.05.2024", "expiring_date": "2024-05-13", "quantity": 1, "wholesale_price": "1",
		}},
		{"zero quantity", map[string]interface{}{
			"upc": upc, "delivery_date": "2024-05-10", "expiring_date": "2024-05-13", "quantity": 0, "wholesale_price": "1",
		}},
		{"expires before delivery", map[string]interface{}{
			"upc": upc, "delivery_date": "2024-05-10", "expiring_date": "2024-05-01", "quantity": 1, "wholesale_price": "1",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			rr := testutil.ExecuteRequest(f.router, testutil.NewHTTPRequest(http.MethodPost, "/api/v1/batches", tt.body))

			testutil.AssertStatus(t, rr, http.StatusBadRequest)
			f.db.ExpectationsWereMet(t)
			f.pub.AssertNoEventsPublished(t)
		})
	}
}

func TestReceiveBatch_UnknownUPC(t *testing.T) {
	f := newFixture(t)

	f.db.ExpectBegin()
	f.db.ExpectQuery("is_deleted = false FOR UPDATE").
		WillReturnRows(testutil.MockRows(testutil.StoreProductColumns...))
	f.db.ExpectRollback()

	rr := testutil.ExecuteRequest(f.router, testutil.NewHTTPRequest(http.MethodPost, "/api/v1/batches", map[string]interface{}{
		"upc": upc, "delivery_date": "2024-05-10", "expiring_date": "2024-05-13", "quantity": 1, "wholesale_price": "1",
	}))

	testutil.AssertStatus(t, rr, http.StatusNotFound)
	f.db.ExpectationsWereMet(t)
}

func TestExpireBatches_Fault(t *testing.T) {
	f := newFixture(t)

	f.db.ExpectBegin()
	f.db.ExpectQuery("FROM batch WHERE expiring_date < $1").
		WillReturnRows(testutil.MockRows("id", "upc", "delivery_date", "expiring_date", "quantity", "selling_price").
			AddRow(int64(9), upc, time.Now(), time.Now(), 30, "1.0000"))
	f.db.ExpectQuery("UPDATE store_product SET products_number = products_number - $1").
		WillReturnRows(testutil.MockRows("products_number"))
	f.db.ExpectQuery("SELECT products_number FROM store_product WHERE upc = $1").
		WillReturnRows(testutil.MockRows("products_number").AddRow(4))
	f.db.ExpectCommit()

	rr := testutil.ExecuteRequest(f.router, testutil.NewHTTPRequest(http.MethodPost, "/api/v1/batches/expire", nil))

	testutil.AssertStatus(t, rr, http.StatusInternalServerError)
	var resp httputil.Response
	testutil.ParseJSONBody(t, rr, &resp)
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Details["batch_9"], "has 4 units")
	f.db.ExpectationsWereMet(t)
}

func TestListStoreProducts(t *testing.T) {
	f := newFixture(t)

	columns := append(append([]string{}, testutil.StoreProductColumns...), "product_name")
	f.db.ExpectQuery("ORDER BY p.product_name ASC, sp.upc ASC LIMIT 3").
		WithArgs(false, true).
		WillReturnRows(testutil.MockRows(columns...).
			AddRow("111111111111", nil, int64(1), "9.6000", 70, true, false, "Apples").
			AddRow("222222222222", nil, int64(2), "4.8000", 12, true, false, "Bread").
			AddRow("333333333333", nil, int64(3), "2.4000", 15, true, false, "Cheese"))
	f.db.ExpectQuery("SELECT COUNT(*) FROM (").
		WithArgs(false, true).
		WillReturnRows(testutil.MockRows("count").AddRow(int64(3)))

	req := testutil.NewHTTPRequest(http.MethodGet, "/api/v1/store-products?sort=name&promotional=true&size=2", nil)
	rr := testutil.ExecuteRequest(f.router, req)
	testutil.AssertStatus(t, rr, http.StatusOK)

	var resp struct {
		Data []repository.StoreProductView `json:"data"`
		Meta httputil.Meta                 `json:"meta"`
	}
	testutil.ParseJSONBody(t, rr, &resp)
	assert.Len(t, resp.Data, 2)
	assert.True(t, resp.Meta.HasNext)
	assert.Equal(t, int64(3), resp.Meta.TotalElements)
	require.NotNil(t, resp.Meta.Next)
	assert.Equal(t, "Bread", resp.Meta.Next.Key)
	assert.Equal(t, "222222222222", resp.Meta.Next.ID)
	f.db.ExpectationsWereMet(t)
}

func TestListStoreProducts_InvalidQuery(t *testing.T) {
	for _, query := range []string{"?sort=price", "?promotional=maybe", "?size=-5", "?id_product=x"} {
		t.Run(query, func(t *testing.T) {
			f := newFixture(t)
			rr := testutil.ExecuteRequest(f.router, testutil.NewHTTPRequest(http.MethodGet, "/api/v1/store-products"+query, nil))
			testutil.AssertStatus(t, rr, http.StatusBadRequest)
		})
	}
}

func TestCreateStoreProduct_RetiredUPC(t *testing.T) {
	f := newFixture(t)

	f.db.ExpectExec("INSERT INTO store_product").
		WillReturnError(uniqueViolation())

	rr := testutil.ExecuteRequest(f.router, testutil.NewHTTPRequest(http.MethodPost, "/api/v1/store-products", map[string]interface{}{
		"upc":             upc,
		"id_product":      7,
		"wholesale_price": "10.00",
		"products_number": 0,
	}))

	testutil.AssertStatus(t, rr, http.StatusUnprocessableEntity)
	f.db.ExpectationsWereMet(t)
}

func TestDeleteStoreProduct(t *testing.T) {
	f := newFixture(t)

	f.db.ExpectExec("UPDATE store_product SET is_deleted = true").
		WithArgs(upc).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := testutil.WithUserHeaders(testutil.NewHTTPRequest(http.MethodDelete, "/api/v1/store-products/"+upc, nil), "E002", "MANAGER")
	rr := testutil.ExecuteRequest(f.router, req)

	testutil.AssertStatus(t, rr, http.StatusNoContent)
	f.pub.AssertEventPublished(t, messaging.EventStoreProductDeleted)
	f.db.ExpectationsWereMet(t)
}

func TestGetStock(t *testing.T) {
	f := newFixture(t)

	f.db.ExpectQuery("LEFT JOIN batch b ON b.upc = sp.upc").
		WithArgs(upc).
		WillReturnRows(testutil.MockRows("upc", "products_number", "batch_quantity", "batch_count").
			AddRow(upc, 70, 60, 2))

	rr := testutil.ExecuteRequest(f.router, testutil.NewHTTPRequest(http.MethodGet, "/api/v1/store-products/"+upc+"/stock", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var resp struct {
		Data map[string]interface{} `json:"data"`
	}
	testutil.ParseJSONBody(t, rr, &resp)
	assert.Equal(t, false, resp.Data["consistent"])
	assert.Equal(t, float64(60), resp.Data["batch_quantity"])
	f.db.ExpectationsWereMet(t)
}

func TestGetProduct_BadID(t *testing.T) {
	f := newFixture(t)
	rr := testutil.ExecuteRequest(f.router, testutil.NewHTTPRequest(http.MethodGet, "/api/v1/products/abc", nil))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestCreateProduct_Validation(t *testing.T) {
	f := newFixture(t)

	rr := testutil.ExecuteRequest(f.router, testutil.NewHTTPRequest(http.MethodPost, "/api/v1/products", map[string]interface{}{
		"product_characteristics": "1l",
	}))

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	var resp httputil.Response
	testutil.ParseJSONBody(t, rr, &resp)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Contains(t, resp.Error.Details, "product_name")
	assert.Contains(t, resp.Error.Details, "category_number")
}
