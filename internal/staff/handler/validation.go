package handler

import (
	"net/http"

	"github.com/zlagoda/zlagoda-backend/internal/staff/validation"
	"github.com/zlagoda/zlagoda-backend/pkg/httputil"
	"github.com/zlagoda/zlagoda-backend/pkg/logger"
)

// ValidationHandler lets clients check single fields before submitting a form
type ValidationHandler struct {
	validator *validation.EmployeeValidator
	logger    *logger.Logger
}

// NewValidationHandler creates a new validation handler
func NewValidationHandler(v *validation.EmployeeValidator, log *logger.Logger) *ValidationHandler {
	return &ValidationHandler{
		validator: v,
		logger:    log,
	}
}

// ValidatePhone validates and normalizes a phone number
func (h *ValidationHandler) ValidatePhone(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PhoneNumber string `json:"phone_number" validate:"required"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, h.validator.ValidatePhone(req.PhoneNumber))
}
