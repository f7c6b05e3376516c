package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"
	"github.com/zlagoda/zlagoda-backend/pkg/database"
	"github.com/zlagoda/zlagoda-backend/pkg/errors"
	"github.com/zlagoda/zlagoda-backend/pkg/pagination"
)

// Role is an employee's position in the store.
type Role string

const (
	RoleManager Role = "MANAGER"
	RoleCashier Role = "CASHIER"
)

// ParseRole converts a raw role name, rejecting anything but MANAGER and CASHIER.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleManager, RoleCashier:
		return r, nil
	default:
		return "", errors.InvalidParameter("empl_role", "must be MANAGER or CASHIER")
	}
}

// Employee represents a store employee
type Employee struct {
	ID          string          `db:"id_employee" json:"id_employee"`
	Surname     string          `db:"empl_surname" json:"empl_surname"`
	Name        string          `db:"empl_name" json:"empl_name"`
	Patronymic  *string         `db:"empl_patronymic" json:"empl_patronymic,omitempty"`
	Role        Role            `db:"empl_role" json:"empl_role"`
	Salary      decimal.Decimal `db:"salary" json:"salary"`
	DateOfBirth time.Time       `db:"date_of_birth" json:"date_of_birth"`
	DateOfStart time.Time       `db:"date_of_start" json:"date_of_start"`
	PhoneNumber string          `db:"phone_number" json:"phone_number"`
	City        string          `db:"city" json:"city"`
	Street      string          `db:"street" json:"street"`
	ZipCode     string          `db:"zip_code" json:"zip_code"`
}

// FullName returns "Surname Name Patronymic", skipping an empty patronymic.
func (e *Employee) FullName() string {
	name := e.Surname + " " + e.Name
	if e.Patronymic != nil && *e.Patronymic != "" {
		name += " " + *e.Patronymic
	}
	return name
}

// EmployeeContact is the phone and address of one employee.
type EmployeeContact struct {
	ID          string `db:"id_employee" json:"id_employee"`
	Name        string `db:"empl_name" json:"empl_name"`
	PhoneNumber string `db:"phone_number" json:"phone_number"`
	City        string `db:"city" json:"city"`
	Street      string `db:"street" json:"street"`
	ZipCode     string `db:"zip_code" json:"zip_code"`
}

// EmployeeFilter narrows an employee listing. A nil Role lists everyone.
type EmployeeFilter struct {
	Role *Role
}

var employeeColumns = []string{
	"id_employee", "empl_surname", "empl_name", "empl_patronymic", "empl_role", "salary",
	"date_of_birth", "date_of_start", "phone_number", "city", "street", "zip_code",
}

var employeeKeyset = pagination.Keyset{Key: "empl_surname", ID: "id_employee"}

// EmployeeRepository handles employee persistence
type EmployeeRepository struct {
	db *database.DB
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *database.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// Create creates a new employee. A duplicate id is reported as InvalidProduct.
func (r *EmployeeRepository) Create(ctx context.Context, e *Employee) error {
	query := `
		INSERT INTO employee (
			id_employee, empl_surname, empl_name, empl_patronymic, empl_role, salary,
			date_of_birth, date_of_start, phone_number, city, street, zip_code
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.Querier(ctx).ExecContext(ctx, query,
		e.ID, e.Surname, e.Name, e.Patronymic, e.Role, e.Salary,
		e.DateOfBirth, e.DateOfStart, e.PhoneNumber, e.City, e.Street, e.ZipCode,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return fmt.Errorf("insert employee: %w", err)
	}
	return nil
}

// GetByID gets an employee by id
func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (*Employee, error) {
	query, args, err := database.Builder().
		Select(employeeColumns...).
		From("employee").
		Where(squirrel.Eq{"id_employee": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build employee query: %w", err)
	}

	var e Employee
	if err := r.db.Querier(ctx).GetContext(ctx, &e, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.EntityNotFound("employee", id)
		}
		return nil, fmt.Errorf("get employee: %w", err)
	}
	return &e, nil
}

// Update overwrites every column of an existing employee
func (r *EmployeeRepository) Update(ctx context.Context, e *Employee) error {
	query := `
		UPDATE employee SET
			empl_surname = $2, empl_name = $3, empl_patronymic = $4, empl_role = $5, salary = $6,
			date_of_birth = $7, date_of_start = $8, phone_number = $9, city = $10, street = $11, zip_code = $12
		WHERE id_employee = $1
	`

	result, err := r.db.Querier(ctx).ExecContext(ctx, query,
		e.ID, e.Surname, e.Name, e.Patronymic, e.Role, e.Salary,
		e.DateOfBirth, e.DateOfStart, e.PhoneNumber, e.City, e.Street, e.ZipCode,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return fmt.Errorf("update employee: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.EntityNotFound("employee", e.ID)
	}
	return nil
}

// Delete removes an employee
func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Querier(ctx).ExecContext(ctx, `DELETE FROM employee WHERE id_employee = $1`, id)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return fmt.Errorf("delete employee: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.EntityNotFound("employee", id)
	}
	return nil
}

// List returns one keyset page of employees ordered by surname, then id.
func (r *EmployeeRepository) List(ctx context.Context, filter EmployeeFilter, req pagination.Request) (pagination.Page[Employee], error) {
	builder := database.Builder()
	q := builder.Select(employeeColumns...).From("employee")

	if filter.Role != nil {
		q = q.Where(squirrel.Eq{"empl_role": string(*filter.Role)})
	}

	return pagination.Fetch(ctx, r.db.Querier(ctx), builder, q, employeeKeyset, req,
		func(e Employee) pagination.Cursor {
			return pagination.Cursor{Key: e.Surname, ID: e.ID}
		})
}

// ContactsBySurname returns the phone and address of every employee with the
// given surname, ordered by id.
func (r *EmployeeRepository) ContactsBySurname(ctx context.Context, surname string) ([]EmployeeContact, error) {
	query := `
		SELECT id_employee, empl_name, phone_number, city, street, zip_code
		FROM employee
		WHERE empl_surname = $1
		ORDER BY id_employee
	`

	var contacts []EmployeeContact
	if err := r.db.Querier(ctx).SelectContext(ctx, &contacts, query, surname); err != nil {
		return nil, fmt.Errorf("select employee contacts: %w", err)
	}
	if len(contacts) == 0 {
		return nil, errors.EntityNotFound("employee", surname)
	}
	return contacts, nil
}
