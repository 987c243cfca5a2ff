package kafka

import (
	"time"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

// EventType определяет тип события жизненного цикла заказа.
type EventType string

const (
	EventTypeOrderCreated       EventType = "order.created"
	EventTypeOrderStatusChanged EventType = "order.status_changed"
	EventTypeOrderCancelled     EventType = "order.cancelled"
)

// TopicOrderEvents — единственный топик событий заказов.
const TopicOrderEvents = "orders.order.events"

// OrderEvent — payload события. Ключ сообщения — order_id, поэтому все
// события одного заказа попадают в одну партицию и сохраняют порядок.
type OrderEvent struct {
	EventType      EventType `json:"event_type"`
	OrderID        string    `json:"order_id"`
	OrderNumber    string    `json:"order_number"`
	UserID         string    `json:"user_id"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	TotalMinor     int64     `json:"total_minor"`
	Currency       string    `json:"currency"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewOrderEvent собирает событие из текущего состояния заказа.
func NewOrderEvent(eventType EventType, order domain.Order, previous domain.OrderStatus) *OrderEvent {
	return &OrderEvent{
		EventType:      eventType,
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		UserID:         order.UserID,
		Status:         string(order.Status),
		PreviousStatus: string(previous),
		TotalMinor:     order.TotalMinor,
		Currency:       order.Currency,
		Timestamp:      time.Now().UTC(),
	}
}
