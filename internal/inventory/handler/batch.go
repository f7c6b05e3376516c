package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zlagoda/zlagoda-backend/internal/inventory/service"
	"github.com/zlagoda/zlagoda-backend/pkg/actor"
	"github.com/zlagoda/zlagoda-backend/pkg/errors"
	"github.com/zlagoda/zlagoda-backend/pkg/httputil"
	"github.com/zlagoda/zlagoda-backend/pkg/logger"
)

// BatchHandler handles batch endpoints
type BatchHandler struct {
	service *service.BatchService
	logger  *logger.Logger
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(svc *service.BatchService, log *logger.Logger) *BatchHandler {
	return &BatchHandler{
		service: svc,
		logger:  log,
	}
}

type receiveBatchRequest struct {
	UPC            string          `json:"upc" validate:"required,max=12"`
	DeliveryDate   string          `json:"delivery_date" validate:"required,datetime=2006-01-02"`
	ExpiringDate   string          `json:"expiring_date" validate:"required,datetime=2006-01-02"`
	Quantity       int             `json:"quantity" validate:"gt=0"`
	WholesalePrice decimal.Decimal `json:"wholesale_price"`
}

// Receive records a delivery and returns the repriced store product
func (h *BatchHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var req receiveBatchRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	// Both dates already passed the datetime validator.
	delivery, _ := time.Parse(time.DateOnly, req.DeliveryDate)
	expiring, _ := time.Parse(time.DateOnly, req.ExpiringDate)

	sp, err := h.service.Receive(r.Context(), service.ReceiveRequest{
		UPC:            req.UPC,
		DeliveryDate:   delivery,
		ExpiringDate:   expiring,
		Quantity:       req.Quantity,
		WholesalePrice: req.WholesalePrice,
		ReceivedBy:     actor.ID(r.Context()),
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, sp)
}

// Expire runs an expiry pass immediately. Consistency faults are reported as
// an internal error listing every batch that was kept.
func (h *BatchHandler) Expire(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.ExpireBatches(r.Context())
	if err != nil {
		if report == nil {
			httputil.Error(w, err)
			return
		}

		details := make(map[string]string, len(report.Faults))
		for _, f := range report.Faults {
			details["batch_"+strconv.FormatInt(f.BatchID, 10)] = f.Error()
		}
		httputil.Error(w, errors.Internal("expired batches with consistency faults").WithDetails(details))
		return
	}

	httputil.JSON(w, http.StatusOK, report)
}
