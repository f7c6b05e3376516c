package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zlagoda/zlagoda-backend/internal/staff/events"
	"github.com/zlagoda/zlagoda-backend/internal/staff/repository"
	"github.com/zlagoda/zlagoda-backend/internal/staff/service"
	"github.com/zlagoda/zlagoda-backend/internal/staff/validation"
	"github.com/zlagoda/zlagoda-backend/pkg/errors"
	"github.com/zlagoda/zlagoda-backend/pkg/logger"
	"github.com/zlagoda/zlagoda-backend/pkg/messaging"
	"github.com/zlagoda/zlagoda-backend/pkg/testutil"
)

var employeeColumns = []string{
	"id_employee", "empl_surname", "empl_name", "empl_patronymic", "empl_role", "salary",
	"date_of_birth", "date_of_start", "phone_number", "city", "street", "zip_code",
}

func today() time.Time {
	return time.Date(2024, time.May, 10, 14, 30, 0, 0, time.UTC)
}

func newStaffService(t *testing.T) (*service.StaffService, *testutil.MockDB, *testutil.MockPublisher) {
	t.Helper()
	mockDB := testutil.NewMockDB(t)
	pub := testutil.NewMockPublisher()
	svc := service.NewStaffService(
		repository.NewEmployeeRepository(mockDB.DB),
		events.NewStaffEventPublisher(pub, logger.Nop()),
		validation.NewEmployeeValidator().WithClock(today),
		logger.Nop(),
	)
	return svc, mockDB, pub
}

func manager() *repository.Employee {
	return &repository.Employee{
		ID:          "E001",
		Surname:     " Melnyk ",
		Name:        "Taras",
		Role:        repository.RoleManager,
		Salary:      decimal.RequireFromString("32000"),
		DateOfBirth: testutil.Date(1988, time.June, 14),
		DateOfStart: testutil.Date(2015, time.March, 2),
		PhoneNumber: "050 123 45 67",
		City:        "Kyiv",
		Street:      "Sahaidachnoho 5",
		ZipCode:     "04070",
	}
}

func TestStaffService_Create_NormalizesAndPublishes(t *testing.T) {
	svc, mockDB, pub := newStaffService(t)

	mockDB.ExpectExec("INSERT INTO employee").
		WithArgs("E001", "Melnyk", "Taras", nil, "MANAGER", testutil.Decimal("32000"),
			testutil.AnyTime{}, testutil.AnyTime{}, "+380501234567", "Kyiv", "Sahaidachnoho 5", "04070").
		WillReturnResult(sqlmock.NewResult(0, 1))

	emp := manager()
	require.NoError(t, svc.Create(context.Background(), emp))

	assert.Equal(t, "Melnyk", emp.Surname)
	assert.Equal(t, "+380501234567", emp.PhoneNumber)
	pub.AssertEventPublished(t, messaging.EventEmployeeCreated)
	mockDB.ExpectationsWereMet(t)
}

func TestStaffService_Create_CollectsViolations(t *testing.T) {
	svc, mockDB, pub := newStaffService(t)

	emp := manager()
	emp.DateOfBirth = testutil.Date(1899, time.December, 31)
	emp.DateOfStart = testutil.Date(1899, time.January, 1)
	emp.PhoneNumber = "12345"
	emp.Role = "OWNER"
	emp.Salary = decimal.RequireFromString("-1")

	err := svc.Create(context.Background(), emp)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.True(t, errors.Is(err, errors.ErrValidation))
	assert.Equal(t, "must not be before 1900", appErr.Details["date_of_birth"])
	assert.Equal(t, "must be after date_of_birth", appErr.Details["date_of_start"])
	assert.Contains(t, appErr.Details, "phone_number")
	assert.Contains(t, appErr.Details, "empl_role")
	assert.Contains(t, appErr.Details, "salary")

	pub.AssertNoEventsPublished(t)
	mockDB.ExpectationsWereMet(t)
}

func TestStaffService_Create_BirthInFuture(t *testing.T) {
	svc, _, _ := newStaffService(t)

	emp := manager()
	emp.DateOfBirth = testutil.Date(2024, time.June, 1)
	emp.DateOfStart = testutil.Date(2044, time.June, 1)

	err := svc.Create(context.Background(), emp)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "must be in the past", appErr.Details["date_of_birth"])
}

func TestStaffService_Delete(t *testing.T) {
	svc, mockDB, pub := newStaffService(t)

	mockDB.ExpectQuery("FROM employee WHERE id_employee = $1").
		WithArgs("E001").
		WillReturnRows(testutil.MockRows(employeeColumns...).AddRow(
			"E001", "Melnyk", "Taras", nil, "MANAGER", "32000.0000",
			testutil.Date(1988, time.June, 14), testutil.Date(2015, time.March, 2),
			"+380501234567", "Kyiv", "Sahaidachnoho 5", "04070"))
	mockDB.ExpectExec("DELETE FROM employee WHERE id_employee = $1").
		WithArgs("E001").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.Delete(context.Background(), "E001"))

	published := pub.Events()
	require.Len(t, published, 1)
	assert.Equal(t, messaging.EmployeeEvent{EmployeeID: "E001", Role: "MANAGER", Surname: "Melnyk"}, published[0].Payload)
	mockDB.ExpectationsWereMet(t)
}

func TestStaffService_Delete_NotFound(t *testing.T) {
	svc, mockDB, pub := newStaffService(t)

	mockDB.ExpectQuery("FROM employee WHERE id_employee = $1").
		WithArgs("E404").
		WillReturnRows(testutil.MockRows(employeeColumns...))

	err := svc.Delete(context.Background(), "E404")

	assert.True(t, errors.Is(err, errors.ErrEntityNotFound))
	pub.AssertNoEventsPublished(t)
	mockDB.ExpectationsWereMet(t)
}

func TestStaffService_ContactsBySurname_Blank(t *testing.T) {
	svc, _, _ := newStaffService(t)

	_, err := svc.ContactsBySurname(context.Background(), "  ")
	assert.True(t, errors.Is(err, errors.ErrInvalidParameter))
}
