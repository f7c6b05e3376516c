package httputil

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zlagoda/zlagoda-backend/pkg/actor"
	"github.com/zlagoda/zlagoda-backend/pkg/errors"
	"github.com/zlagoda/zlagoda-backend/pkg/logger"
	"github.com/zlagoda/zlagoda-backend/pkg/messaging"
	"github.com/zlagoda/zlagoda-backend/pkg/pagination"
)

func decode(t *testing.T, rr *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestError_AppError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", errors.EntityNotFound("store product", "123"), http.StatusNotFound, "ENTITY_NOT_FOUND"},
		{"invalid product", errors.InvalidProduct("upc already used"), http.StatusUnprocessableEntity, "INVALID_PRODUCT"},
		{"invalid parameter", errors.InvalidParameter("size", "must be positive"), http.StatusBadRequest, "INVALID_PARAMETER"},
		{"plain error", assert.AnError, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			Error(rr, tt.err)

			assert.Equal(t, tt.status, rr.Code)
			resp := decode(t, rr)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestPage_WritesMeta(t *testing.T) {
	rr := httptest.NewRecorder()
	Page(rr, pagination.Page[string]{
		Content:       []string{"a", "b"},
		TotalElements: 5,
		HasNext:       true,
		PageSize:      2,
		Next:          &pagination.Cursor{Key: "b", ID: "2"},
	})

	assert.Equal(t, http.StatusOK, rr.Code)
	resp := decode(t, rr)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(5), resp.Meta.TotalElements)
	assert.True(t, resp.Meta.HasNext)
	assert.Equal(t, "b", resp.Meta.Next.Key)
}

func TestPageRequest(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    pagination.Request
		wantErr bool
	}{
		{"defaults", "", pagination.Request{Size: 20}, false},
		{"explicit size", "?size=5", pagination.Request{Size: 5}, false},
		{"capped size", "?size=500", pagination.Request{Size: 100}, false},
		{"cursor", "?size=5&last_seen=Milk&last_seen_id=7", pagination.Request{
			Size: 5, After: &pagination.Cursor{Key: "Milk", ID: "7"},
		}, false},
		{"negative size", "?size=-1", pagination.Request{}, true},
		{"non numeric size", "?size=ten", pagination.Request{}, true},
		{"half cursor", "?last_seen=Milk", pagination.Request{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/items"+tt.query, nil)

			got, err := PageRequest(r, pagination.DefaultLimits)
			if tt.wantErr {
				assert.True(t, errors.Is(err, errors.ErrInvalidParameter))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate_UsesJSONNames(t *testing.T) {
	type body struct {
		UPC      string `json:"upc" validate:"required,max=12"`
		Quantity int    `json:"quantity" validate:"gt=0"`
	}

	err := Validate(body{UPC: "1234567890123"})

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "must be at most 12", appErr.Details["upc"])
	assert.Equal(t, "must be greater than 0", appErr.Details["quantity"])
}

func TestActorMiddleware(t *testing.T) {
	var got *actor.Actor
	handler := Actor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = actor.FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderUserID, "E001")
	req.Header.Set(HeaderUserRole, "CASHIER")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, got)
	assert.Equal(t, "E001", got.ID)
	assert.Equal(t, "CASHIER", got.Role)

	got = nil
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Nil(t, got)
}

func TestRecoverer(t *testing.T) {
	handler := Recoverer(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "INTERNAL_ERROR", decode(t, rr).Error.Code)
}

func TestRequestID_KeepsIncomingHeader(t *testing.T) {
	var seen, correlation string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		correlation = messaging.CorrelationID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, "req-1", seen)
	assert.Equal(t, "req-1", correlation)
	assert.Equal(t, "req-1", rr.Header().Get("X-Request-ID"))
}

func TestHealth(t *testing.T) {
	up := func(context.Context) map[string]string { return map[string]string{"status": "up"} }
	down := func(context.Context) map[string]string { return map[string]string{"status": "down"} }

	rr := httptest.NewRecorder()
	Health("inventory-service", map[string]HealthCheck{"database": up})(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	Health("inventory-service", map[string]HealthCheck{"database": up, "redis": down})(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "degraded", decode(t, rr).Data.(map[string]interface{})["status"])
}

func TestCORS_AllowsConfiguredOrigin(t *testing.T) {
	handler := CORS([]string{"http://localhost:3000"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "http://evil.example")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestNotFound(t *testing.T) {
	rr := httptest.NewRecorder()
	NotFound(rr, httptest.NewRequest(http.MethodGet, "/api/v1/nowhere", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	resp := decode(t, rr)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	assert.Equal(t, "route /api/v1/nowhere not found", resp.Error.Message)
}
