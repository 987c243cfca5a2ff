package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

// orderRepositoryInMemory — простая in-memory реализация OrderRepository
// для локальной разработки и тестов.
type orderRepositoryInMemory struct {
	mu       sync.RWMutex
	items    map[string]domain.Order
	byNumber map[string]string
}

// NewOrderRepository возвращает in-memory репозиторий заказов.
func NewOrderRepository() domain.OrderRepository {
	return &orderRepositoryInMemory{
		items:    make(map[string]domain.Order),
		byNumber: make(map[string]string),
	}
}

// Create сохраняет новый заказ, если ID и номер ещё не заняты.
func (r *orderRepositoryInMemory) Create(order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[order.ID]; exists {
		return domain.ErrOrderExists
	}
	if _, exists := r.byNumber[order.OrderNumber]; exists {
		return domain.ErrOrderNumberTaken
	}
	// Сохраняем копию, чтобы избежать непредсказуемых мутаций извне.
	r.items[order.ID] = cloneOrder(order)
	r.byNumber[order.OrderNumber] = order.ID
	return nil
}

// GetByID возвращает заказ или ErrOrderNotFound, если его нет.
func (r *orderRepositoryInMemory) GetByID(id string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.items[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// GetByNumber возвращает заказ по человекочитаемому номеру.
func (r *orderRepositoryInMemory) GetByNumber(number string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byNumber[number]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(r.items[id]), nil
}

// ListByUser возвращает страницу заказов пользователя (новые первыми)
// и общее количество его заказов.
func (r *orderRepositoryInMemory) ListByUser(userID string, offset, limit int) ([]domain.Order, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := r.collect(func(order domain.Order) bool {
		return order.UserID == userID
	})
	return paginate(matched, offset, limit), len(matched), nil
}

// ListAll возвращает страницу всех заказов с опциональным фильтром по статусу.
func (r *orderRepositoryInMemory) ListAll(offset, limit int, status domain.OrderStatus) ([]domain.Order, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := r.collect(func(order domain.Order) bool {
		return status == "" || order.Status == status
	})
	return paginate(matched, offset, limit), len(matched), nil
}

// Save перезаписывает поля заказа, проверяя версию (optimistic locking).
// Позиции заказа неизменяемы и остаются прежними.
func (r *orderRepositoryInMemory) Save(order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if current.Version != order.Version {
		return domain.ErrOrderVersionConflict
	}
	// Инкрементируем версию перед сохранением; позиции берём из текущей записи.
	updated := cloneOrder(order)
	updated.Items = current.Items
	updated.Version++
	r.items[order.ID] = updated
	return nil
}

func (r *orderRepositoryInMemory) collect(match func(domain.Order) bool) []domain.Order {
	result := make([]domain.Order, 0, len(r.items))
	for _, order := range r.items {
		if match(order) {
			result = append(result, cloneOrder(order))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	return result
}

func paginate(orders []domain.Order, offset, limit int) []domain.Order {
	if offset >= len(orders) {
		return []domain.Order{}
	}
	end := len(orders)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return orders[offset:end]
}

func cloneOrder(order domain.Order) domain.Order {
	clone := order
	if order.BillingAddress != nil {
		addr := *order.BillingAddress
		clone.BillingAddress = &addr
	}
	clone.ConfirmedAt = cloneTime(order.ConfirmedAt)
	clone.ShippedAt = cloneTime(order.ShippedAt)
	clone.DeliveredAt = cloneTime(order.DeliveredAt)
	clone.Items = append([]domain.OrderItem(nil), order.Items...)
	return clone
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	stamp := *t
	return &stamp
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
