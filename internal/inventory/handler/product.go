package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/zlagoda/zlagoda-backend/internal/inventory/repository"
	"github.com/zlagoda/zlagoda-backend/internal/inventory/service"
	"github.com/zlagoda/zlagoda-backend/pkg/errors"
	"github.com/zlagoda/zlagoda-backend/pkg/httputil"
	"github.com/zlagoda/zlagoda-backend/pkg/logger"
	"github.com/zlagoda/zlagoda-backend/pkg/pagination"
)

// ProductHandler handles catalog product endpoints
type ProductHandler struct {
	service *service.ProductService
	limits  pagination.Limits
	logger  *logger.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(svc *service.ProductService, limits pagination.Limits, log *logger.Logger) *ProductHandler {
	return &ProductHandler{
		service: svc,
		limits:  limits,
		logger:  log,
	}
}

type productRequest struct {
	Name            string `json:"product_name" validate:"required,max=50"`
	Characteristics string `json:"product_characteristics" validate:"max=100"`
	CategoryNumber  int64  `json:"category_number" validate:"required,gt=0"`
}

func productID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, errors.InvalidParameter("id", "must be an integer")
	}
	return id, nil
}

// List lists products. Query: category, name (prefix), size, last_seen, last_seen_id.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter repository.ProductFilter
	if raw := r.URL.Query().Get("category"); raw != "" {
		category, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httputil.Error(w, errors.InvalidParameter("category", "must be an integer"))
			return
		}
		filter.CategoryNumber = &category
	}
	filter.NamePrefix = r.URL.Query().Get("name")

	req, err := httputil.PageRequest(r, h.limits)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	page, err := h.service.List(r.Context(), filter, req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Page(w, page)
}

// Get gets a product by id
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, p)
}

// Create creates a product
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	p := &repository.Product{
		Name:            req.Name,
		Characteristics: req.Characteristics,
		CategoryNumber:  req.CategoryNumber,
	}
	if err := h.service.Create(r.Context(), p); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, p)
}

// Update updates a product
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req productRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	p := &repository.Product{
		ID:              id,
		Name:            req.Name,
		Characteristics: req.Characteristics,
		CategoryNumber:  req.CategoryNumber,
	}
	if err := h.service.Update(r.Context(), p); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, p)
}

// Delete deletes a product
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}
