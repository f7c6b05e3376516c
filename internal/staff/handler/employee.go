package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/zlagoda/zlagoda-backend/internal/staff/repository"
	"github.com/zlagoda/zlagoda-backend/internal/staff/service"
	"github.com/zlagoda/zlagoda-backend/internal/staff/validation"
	"github.com/zlagoda/zlagoda-backend/pkg/httputil"
	"github.com/zlagoda/zlagoda-backend/pkg/logger"
	"github.com/zlagoda/zlagoda-backend/pkg/pagination"
)

func init() {
	if err := validation.Register(); err != nil {
		panic(err)
	}
}

// EmployeeHandler handles employee endpoints
type EmployeeHandler struct {
	service *service.StaffService
	limits  pagination.Limits
	logger  *logger.Logger
}

// NewEmployeeHandler creates a new employee handler
func NewEmployeeHandler(svc *service.StaffService, limits pagination.Limits, log *logger.Logger) *EmployeeHandler {
	return &EmployeeHandler{
		service: svc,
		limits:  limits,
		logger:  log,
	}
}

type employeeRequest struct {
	Surname     string          `json:"empl_surname" validate:"required,max=50"`
	Name        string          `json:"empl_name" validate:"required,max=50"`
	Patronymic  *string         `json:"empl_patronymic" validate:"omitempty,max=50"`
	Role        string          `json:"empl_role" validate:"required,oneof=MANAGER CASHIER"`
	Salary      decimal.Decimal `json:"salary"`
	DateOfBirth string          `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	DateOfStart string          `json:"date_of_start" validate:"required,datetime=2006-01-02"`
	PhoneNumber string          `json:"phone_number" validate:"required,min=8,max=13,ua_phone"`
	City        string          `json:"city" validate:"required,max=50"`
	Street      string          `json:"street" validate:"required,max=50"`
	ZipCode     string          `json:"zip_code" validate:"required,min=3,max=9"`
}

type createEmployeeRequest struct {
	ID string `json:"id_employee" validate:"required,max=10"`
	employeeRequest
}

func (req *employeeRequest) toEmployee(id string) *repository.Employee {
	// Both dates already passed the datetime validator.
	birth, _ := time.Parse(time.DateOnly, req.DateOfBirth)
	start, _ := time.Parse(time.DateOnly, req.DateOfStart)

	return &repository.Employee{
		ID:          id,
		Surname:     req.Surname,
		Name:        req.Name,
		Patronymic:  req.Patronymic,
		Role:        repository.Role(req.Role),
		Salary:      req.Salary,
		DateOfBirth: birth,
		DateOfStart: start,
		PhoneNumber: req.PhoneNumber,
		City:        req.City,
		Street:      req.Street,
		ZipCode:     req.ZipCode,
	}
}

// List lists employees ordered by surname. Query: role, size, last_seen, last_seen_id.
func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter repository.EmployeeFilter
	if raw := r.URL.Query().Get("role"); raw != "" {
		role, err := repository.ParseRole(raw)
		if err != nil {
			httputil.Error(w, err)
			return
		}
		filter.Role = &role
	}

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

// Get gets an employee by ID
func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	employee, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, employee)
}

// Contacts returns phone and address of the employees with a surname
func (h *EmployeeHandler) Contacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.service.ContactsBySurname(r.Context(), r.URL.Query().Get("surname"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, contacts)
}

// Create creates a new employee
func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEmployeeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	employee := req.toEmployee(req.ID)
	if err := h.service.Create(r.Context(), employee); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, employee)
}

// Update replaces an employee's data
func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	employee := req.toEmployee(chi.URLParam(r, "id"))
	if err := h.service.Update(r.Context(), employee); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, employee)
}

// Delete deletes an employee
func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}
