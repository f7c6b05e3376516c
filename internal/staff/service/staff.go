package service

import (
	"context"
	"strings"

	"github.com/zlagoda/zlagoda-backend/internal/staff/events"
	"github.com/zlagoda/zlagoda-backend/internal/staff/repository"
	"github.com/zlagoda/zlagoda-backend/internal/staff/validation"
	"github.com/zlagoda/zlagoda-backend/pkg/errors"
	"github.com/zlagoda/zlagoda-backend/pkg/logger"
	"github.com/zlagoda/zlagoda-backend/pkg/pagination"
)

// StaffService handles staff business logic
type StaffService struct {
	employeeRepo *repository.EmployeeRepository
	publisher    *events.StaffEventPublisher
	validator    *validation.EmployeeValidator
	logger       *logger.Logger
}

// NewStaffService creates a new staff service
func NewStaffService(
	employeeRepo *repository.EmployeeRepository,
	publisher *events.StaffEventPublisher,
	validator *validation.EmployeeValidator,
	log *logger.Logger,
) *StaffService {
	return &StaffService{
		employeeRepo: employeeRepo,
		publisher:    publisher,
		validator:    validator,
		logger:       log.WithComponent("staff-service"),
	}
}

// validate normalizes emp in place and collects every rule it breaks.
func (s *StaffService) validate(emp *repository.Employee) error {
	emp.Surname = strings.TrimSpace(emp.Surname)
	emp.Name = strings.TrimSpace(emp.Name)

	details := s.validator.ValidateDates(emp.DateOfBirth, emp.DateOfStart)
	if details == nil {
		details = make(map[string]string)
	}

	if emp.Surname == "" {
		details["empl_surname"] = "this field is required"
	}
	if emp.Name == "" {
		details["empl_name"] = "this field is required"
	}
	if _, err := repository.ParseRole(string(emp.Role)); err != nil {
		details["empl_role"] = "must be MANAGER or CASHIER"
	}
	if emp.Salary.IsNegative() {
		details["salary"] = "must not be negative"
	}

	if result := s.validator.ValidatePhone(emp.PhoneNumber); !result.Valid {
		details["phone_number"] = result.Message
	} else {
		emp.PhoneNumber = result.Formatted
	}

	if len(details) > 0 {
		return errors.Validation(details)
	}
	return nil
}

// Create creates a new employee
func (s *StaffService) Create(ctx context.Context, emp *repository.Employee) error {
	if err := s.validate(emp); err != nil {
		return err
	}

	if err := s.employeeRepo.Create(ctx, emp); err != nil {
		return err
	}

	s.logger.Info().
		Str("employee_id", emp.ID).
		Str("role", string(emp.Role)).
		Msg("employee created")

	s.publisher.PublishEmployeeCreated(ctx, emp)

	return nil
}

// GetByID gets an employee by ID
func (s *StaffService) GetByID(ctx context.Context, id string) (*repository.Employee, error) {
	return s.employeeRepo.GetByID(ctx, id)
}

// List returns one page of employees ordered by surname
func (s *StaffService) List(ctx context.Context, filter repository.EmployeeFilter, req pagination.Request) (pagination.Page[repository.Employee], error) {
	return s.employeeRepo.List(ctx, filter, req)
}

// Update updates an employee
func (s *StaffService) Update(ctx context.Context, emp *repository.Employee) error {
	if err := s.validate(emp); err != nil {
		return err
	}

	if err := s.employeeRepo.Update(ctx, emp); err != nil {
		return err
	}

	s.publisher.PublishEmployeeUpdated(ctx, emp)

	return nil
}

// Delete removes an employee
func (s *StaffService) Delete(ctx context.Context, id string) error {
	emp, err := s.employeeRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.employeeRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Str("employee_id", id).Msg("employee deleted")
	s.publisher.PublishEmployeeDeleted(ctx, emp)

	return nil
}

// ContactsBySurname returns the phone and address of employees with surname
func (s *StaffService) ContactsBySurname(ctx context.Context, surname string) ([]repository.EmployeeContact, error) {
	surname = strings.TrimSpace(surname)
	if surname == "" {
		return nil, errors.InvalidParameter("surname", "is required")
	}
	return s.employeeRepo.ContactsBySurname(ctx, surname)
}
