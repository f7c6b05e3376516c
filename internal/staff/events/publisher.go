package events

import (
	"context"

	"github.com/zlagoda/zlagoda-backend/internal/staff/repository"
	"github.com/zlagoda/zlagoda-backend/pkg/logger"
	"github.com/zlagoda/zlagoda-backend/pkg/messaging"
)

// Publisher is implemented by messaging.Publisher and testutil.MockPublisher.
type Publisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// StaffEventPublisher publishes staff-related events. Like the inventory
// publisher it never fails the caller, and a nil receiver does nothing.
type StaffEventPublisher struct {
	publisher Publisher
	logger    *logger.Logger
}

// NewStaffEventPublisher creates a new staff event publisher
func NewStaffEventPublisher(publisher Publisher, log *logger.Logger) *StaffEventPublisher {
	return &StaffEventPublisher{
		publisher: publisher,
		logger:    log.WithComponent("staff-events"),
	}
}

// PublishEmployeeCreated publishes an employee created event
func (p *StaffEventPublisher) PublishEmployeeCreated(ctx context.Context, emp *repository.Employee) {
	p.publish(ctx, messaging.EventEmployeeCreated, emp.ID, string(emp.Role), emp.Surname)
}

// PublishEmployeeUpdated publishes an employee updated event
func (p *StaffEventPublisher) PublishEmployeeUpdated(ctx context.Context, emp *repository.Employee) {
	p.publish(ctx, messaging.EventEmployeeUpdated, emp.ID, string(emp.Role), emp.Surname)
}

// PublishEmployeeDeleted publishes an employee deleted event
func (p *StaffEventPublisher) PublishEmployeeDeleted(ctx context.Context, emp *repository.Employee) {
	p.publish(ctx, messaging.EventEmployeeDeleted, emp.ID, string(emp.Role), emp.Surname)
}

func (p *StaffEventPublisher) publish(ctx context.Context, eventType, id, role, surname string) {
	if p == nil {
		return
	}

	data := messaging.EmployeeEvent{
		EmployeeID: id,
		Role:       role,
		Surname:    surname,
	}

	if err := p.publisher.Publish(ctx, eventType, data); err != nil {
		p.logger.Error().Err(err).
			Str("event_type", eventType).
			Str("employee_id", id).
			Msg("failed to publish employee event")
	}
}
