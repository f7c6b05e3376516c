package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zlagoda/zlagoda-backend/internal/staff/events"
	"github.com/zlagoda/zlagoda-backend/internal/staff/repository"
	"github.com/zlagoda/zlagoda-backend/pkg/logger"
	"github.com/zlagoda/zlagoda-backend/pkg/messaging"
	"github.com/zlagoda/zlagoda-backend/pkg/testutil"
)

func TestStaffEventPublisher_EmployeeCreated(t *testing.T) {
	mock := testutil.NewMockPublisher()
	p := events.NewStaffEventPublisher(mock, logger.Nop())

	p.PublishEmployeeCreated(context.Background(), &repository.Employee{
		ID: "E002", Surname: "Ivanenko", Role: repository.RoleCashier,
	})

	published := mock.Events()
	require.Len(t, published, 1)
	assert.Equal(t, messaging.EventEmployeeCreated, published[0].Type)
	assert.Equal(t, messaging.EmployeeEvent{EmployeeID: "E002", Role: "CASHIER", Surname: "Ivanenko"}, published[0].Payload)
}

func TestStaffEventPublisher_FailureIsSwallowed(t *testing.T) {
	mock := testutil.NewMockPublisher()
	mock.Err = errors.New("broker down")
	p := events.NewStaffEventPublisher(mock, logger.Nop())

	assert.NotPanics(t, func() {
		p.PublishEmployeeDeleted(context.Background(), &repository.Employee{ID: "E002"})
	})
	mock.AssertEventPublished(t, messaging.EventEmployeeDeleted)
}

func TestStaffEventPublisher_NilIsNoop(t *testing.T) {
	var p *events.StaffEventPublisher

	assert.NotPanics(t, func() {
		p.PublishEmployeeUpdated(context.Background(), &repository.Employee{ID: "E002"})
	})
}
