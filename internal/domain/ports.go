package domain

import "context"

// ProductSnapshot — данные товара из каталога на момент обращения.
type ProductSnapshot struct {
	ID             string
	Name           string
	SKU            string
	UnitPriceMinor int64
	Stock          int32
	ImageURL       string
	Brand          string
	Category       string
}

// ProductCatalog описывает взаимодействие с внешним каталогом товаров.
type ProductCatalog interface {
	// GetProduct возвращает снапшот товара или ErrProductNotFound.
	// Любая транспортная ошибка каталога тоже трактуется как ErrProductNotFound:
	// частично собранных заказов быть не должно.
	GetProduct(ctx context.Context, productID string) (ProductSnapshot, error)
}

// OrderEventPublisher публикует события жизненного цикла заказа во внешний стрим.
// Реализация должна быть best-effort: ошибки публикации не ломают операцию.
type OrderEventPublisher interface {
	OrderCreated(order Order)
	OrderStatusChanged(order Order, previous OrderStatus)
	OrderCancelled(order Order)
}
