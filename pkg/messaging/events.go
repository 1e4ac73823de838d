package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Product events
	EventProductCreated = "stock.product.created"
	EventProductUpdated = "stock.product.updated"
	EventProductDeleted = "stock.product.deleted"

	// Movement events
	EventMovementRecorded = "stock.movement.recorded"

	// Alert events
	EventAlertGenerated = "stock.alert.generated"
	EventAlertResolved  = "stock.alert.resolved"
)

// Exchange names
const (
	ExchangeStockEvents = "stock.events"
)

// Event is the base event structure
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
		ID:            GenerateEventID(),
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

// Product Events

// ProductCreatedEvent is published when a product is created
type ProductCreatedEvent struct {
	ProductID string `json:"product_id"`
	Category  string `json:"category"`
	Brand     string `json:"brand"`
	Quantity  int    `json:"quantity"`
	CreatedBy string `json:"created_by,omitempty"`
}

// ProductUpdatedEvent is published when a product is updated
type ProductUpdatedEvent struct {
	ProductID string         `json:"product_id"`
	Fields    map[string]any `json:"fields"` // Changed fields
}

// ProductDeletedEvent is published when a product and its history are deleted
type ProductDeletedEvent struct {
	ProductID        string `json:"product_id"`
	MovementsDeleted int    `json:"movements_deleted"`
	AlertsDeleted    int    `json:"alerts_deleted"`
}

// Movement Events

// MovementRecordedEvent is published when a stock movement is applied
type MovementRecordedEvent struct {
	MovementID  string `json:"movement_id"`
	ProductID   string `json:"product_id"`
	Direction   string `json:"direction"`
	Reason      string `json:"reason"`
	Quantity    int    `json:"quantity"`
	NewQuantity int    `json:"new_quantity"`
	PerformedBy string `json:"performed_by,omitempty"`
}

// Alert Events

// AlertGeneratedEvent is published when an alert is opened
type AlertGeneratedEvent struct {
	AlertID   string `json:"alert_id"`
	ProductID string `json:"product_id"`
	Kind      string `json:"kind"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
}

// AlertResolvedEvent is published when an alert is manually resolved
type AlertResolvedEvent struct {
	AlertID   string `json:"alert_id"`
	ProductID string `json:"product_id"`
	Kind      string `json:"kind"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return uuid.New().String()
}
