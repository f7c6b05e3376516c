package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types
const (
	EventBatchReceived       = "inventory.batch.received"
	EventBatchesExpired      = "inventory.batch.expired"
	EventStoreProductDeleted = "inventory.store_product.deleted"

	EventEmployeeCreated = "staff.employee.created"
	EventEmployeeUpdated = "staff.employee.updated"
	EventEmployeeDeleted = "staff.employee.deleted"
)

// Event is the envelope every message is published in
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// BatchReceivedEvent is published after a delivery is merged into stock
type BatchReceivedEvent struct {
	BatchID      int64           `json:"batch_id"`
	UPC          string          `json:"upc"`
	Quantity     int             `json:"quantity"`
	NewQuantity  int             `json:"new_quantity"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	Promotional  bool            `json:"promotional"`
	ExpiringDate string          `json:"expiring_date"`
	ReceivedBy   string          `json:"received_by,omitempty"`
}

// BatchesExpiredEvent is published after an expiry run removed batches
type BatchesExpiredEvent struct {
	RunDate      string         `json:"run_date"`
	BatchCount   int            `json:"batch_count"`
	UnitsRemoved map[string]int `json:"units_removed"`
	Faults       int            `json:"faults"`
}

// StoreProductDeletedEvent is published when a UPC is retired
type StoreProductDeletedEvent struct {
	UPC       string `json:"upc"`
	DeletedBy string `json:"deleted_by,omitempty"`
}

// EmployeeEvent is published whenever an employee record changes
type EmployeeEvent struct {
	EmployeeID string `json:"employee_id"`
	Role       string `json:"role"`
	Surname    string `json:"surname"`
}
