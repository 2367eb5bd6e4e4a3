package domain

import "time"

// EventType — тип события жизненного цикла заказа.
type EventType string

const (
	EventOrderCreated EventType = "order.created"
	EventOrderUpdated EventType = "order.updated"
	EventOrderDeleted EventType = "order.deleted"
)

// OrderEvent — событие, публикуемое после фиксации изменения заказа.
type OrderEvent struct {
	Type       EventType   `json:"type"`
	OrderID    string      `json:"orderId"`
	RecordID   string      `json:"recordId"`
	Status     OrderStatus `json:"status,omitempty"`
	Quantity   int         `json:"quantity,omitempty"`
	Email      string      `json:"email,omitempty"`
	OccurredAt time.Time   `json:"occurredAt"`
}

// NewOrderEvent — событие по состоянию заказа.
func NewOrderEvent(t EventType, o *Order, at time.Time) OrderEvent {
	return OrderEvent{
		Type:       t,
		OrderID:    o.ID,
		RecordID:   o.RecordID,
		Status:     o.Status,
		Quantity:   o.Quantity,
		Email:      o.Email,
		OccurredAt: at.UTC(),
	}
}
