package kafka

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

// Publisher транслирует события жизненного цикла заказов в Kafka.
// Публикация best-effort: ошибка отправки логируется и не ломает операцию,
// источником истины остаётся хранилище заказов.
type Publisher struct {
	producer *Producer
	logger   *log.Entry
}

// NewPublisher оборачивает producer в доменный интерфейс публикации событий.
func NewPublisher(producer *Producer) *Publisher {
	return &Publisher{
		producer: producer,
		logger:   log.WithField("component", "order-events"),
	}
}

func (p *Publisher) OrderCreated(order domain.Order) {
	p.publish(NewOrderEvent(EventTypeOrderCreated, order, ""))
}

func (p *Publisher) OrderStatusChanged(order domain.Order, previous domain.OrderStatus) {
	p.publish(NewOrderEvent(EventTypeOrderStatusChanged, order, previous))
}

func (p *Publisher) OrderCancelled(order domain.Order) {
	p.publish(NewOrderEvent(EventTypeOrderCancelled, order, ""))
}

func (p *Publisher) publish(event *OrderEvent) {
	if err := p.producer.PublishEvent(TopicOrderEvents, event.OrderID, event); err != nil {
		p.logger.WithError(err).WithFields(log.Fields{
			"event_type": event.EventType,
			"order_id":   event.OrderID,
		}).Warn("событие заказа не опубликовано")
	}
}

var _ domain.OrderEventPublisher = (*Publisher)(nil)
