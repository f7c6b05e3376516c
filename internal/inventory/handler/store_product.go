package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/zlagoda/zlagoda-backend/internal/inventory/repository"
	"github.com/zlagoda/zlagoda-backend/internal/inventory/service"
	"github.com/zlagoda/zlagoda-backend/pkg/actor"
	"github.com/zlagoda/zlagoda-backend/pkg/errors"
	"github.com/zlagoda/zlagoda-backend/pkg/httputil"
	"github.com/zlagoda/zlagoda-backend/pkg/logger"
	"github.com/zlagoda/zlagoda-backend/pkg/pagination"
)

// StoreProductHandler handles store product endpoints
type StoreProductHandler struct {
	service *service.StoreProductService
	batches *service.BatchService
	limits  pagination.Limits
	logger  *logger.Logger
}

// NewStoreProductHandler creates a new store product handler
func NewStoreProductHandler(
	svc *service.StoreProductService,
	batches *service.BatchService,
	limits pagination.Limits,
	log *logger.Logger,
) *StoreProductHandler {
	return &StoreProductHandler{
		service: svc,
		batches: batches,
		limits:  limits,
		logger:  log,
	}
}

type createStoreProductRequest struct {
	UPC            string          `json:"upc" validate:"required,max=12"`
	UPCProm        *string         `json:"upc_prom" validate:"omitempty,max=12"`
	ProductID      int64           `json:"id_product" validate:"required,gt=0"`
	WholesalePrice decimal.Decimal `json:"wholesale_price"`
	Quantity       int             `json:"products_number" validate:"gte=0"`
	Promotional    bool            `json:"promotional_product"`
}

type updateStoreProductRequest struct {
	UPCProm        *string         `json:"upc_prom" validate:"omitempty,max=12"`
	ProductID      int64           `json:"id_product" validate:"required,gt=0"`
	WholesalePrice decimal.Decimal `json:"wholesale_price"`
	Promotional    bool            `json:"promotional_product"`
}

// List lists store products.
// Query: sort=upc|name|quantity, promotional=true|false, id_product,
// size, last_seen, last_seen_id.
func (h *StoreProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := parseStoreProductQuery(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	req, err := httputil.PageRequest(r, h.limits)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	page, err := h.service.List(r.Context(), q, req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Page(w, page)
}

func parseStoreProductQuery(r *http.Request) (repository.StoreProductQuery, error) {
	var q repository.StoreProductQuery
	query := r.URL.Query()

	switch query.Get("sort") {
	case "", "upc":
		q.Sort = repository.SortByUPC
	case "name":
		q.Sort = repository.SortByName
	case "quantity":
		q.Sort = repository.SortByQuantity
	default:
		return q, errors.InvalidParameter("sort", "must be one of: upc name quantity")
	}

	if raw := query.Get("promotional"); raw != "" {
		promotional, err := strconv.ParseBool(raw)
		if err != nil {
			return q, errors.InvalidParameter("promotional", "must be true or false")
		}
		if promotional {
			q.Promotion = repository.PromotionOnly
		} else {
			q.Promotion = repository.PromotionExcluded
		}
	}

	if raw := query.Get("id_product"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return q, errors.InvalidParameter("id_product", "must be an integer")
		}
		q.ProductID = &id
	}

	return q, nil
}

// Get gets a store product by UPC
func (h *StoreProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	sp, err := h.service.Get(r.Context(), chi.URLParam(r, "upc"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, sp)
}

// Create creates a store product
func (h *StoreProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createStoreProductRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	sp, err := h.service.Create(r.Context(), service.CreateStoreProductRequest{
		UPC:            req.UPC,
		UPCProm:        req.UPCProm,
		ProductID:      req.ProductID,
		WholesalePrice: req.WholesalePrice,
		Quantity:       req.Quantity,
		Promotional:    req.Promotional,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, sp)
}

// Update updates a store product
func (h *StoreProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateStoreProductRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	sp, err := h.service.Update(r.Context(), service.UpdateStoreProductRequest{
		UPC:            chi.URLParam(r, "upc"),
		UPCProm:        req.UPCProm,
		ProductID:      req.ProductID,
		WholesalePrice: req.WholesalePrice,
		Promotional:    req.Promotional,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, sp)
}

// Delete retires a store product
func (h *StoreProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.SoftDelete(r.Context(), chi.URLParam(r, "upc"), actor.ID(r.Context())); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// GetCharacteristics returns the shelf-label view of a store product
func (h *StoreProductHandler) GetCharacteristics(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetCharacteristics(r.Context(), chi.URLParam(r, "upc"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, c)
}

// GetPrice returns the selling price and quantity of a store product
func (h *StoreProductHandler) GetPrice(w http.ResponseWriter, r *http.Request) {
	pq, err := h.service.GetPriceAndQuantity(r.Context(), chi.URLParam(r, "upc"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, pq)
}

// GetStock compares the stored quantity with the live batches
func (h *StoreProductHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	stock, err := h.service.GetStock(r.Context(), chi.URLParam(r, "upc"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"upc":             stock.UPC,
		"products_number": stock.Quantity,
		"batch_quantity":  stock.BatchQuantity,
		"batch_count":     stock.BatchCount,
		"consistent":      stock.Consistent(),
	})
}

// ListBatches lists the live batches of a store product
func (h *StoreProductHandler) ListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := h.batches.ListByUPC(r.Context(), chi.URLParam(r, "upc"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, batches)
}
