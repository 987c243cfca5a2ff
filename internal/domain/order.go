package domain

import "time"

// OrderStatus описывает жизненный цикл заказа в магазине.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан, оплата и подтверждение ещё впереди.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusConfirmed — заказ подтверждён и принят в работу.
	OrderStatusConfirmed OrderStatus = "confirmed"
	// OrderStatusProcessing — заказ собирается на складе.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusShipped — заказ передан перевозчику.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered — заказ доставлен клиенту.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled — заказ отменён до отгрузки.
	OrderStatusCancelled OrderStatus = "cancelled"
	// OrderStatusRefunded — деньги по заказу возвращены клиенту.
	OrderStatusRefunded OrderStatus = "refunded"
)

// PaymentStatus описывает состояние оплаты заказа.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// DefaultCurrency — единственная валюта сервиса; мультивалютность вне scope.
const DefaultCurrency = "USD"

// ValidOrderStatus проверяет, что значение статуса известно сервису.
func ValidOrderStatus(status OrderStatus) bool {
	switch status {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	default:
		return false
	}
}

// ValidPaymentStatus проверяет значение статуса оплаты.
func ValidPaymentStatus(status PaymentStatus) bool {
	switch status {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	default:
		return false
	}
}

// Address — структурированный почтовый адрес, хранится снапшотом внутри заказа.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// ProductAttributes — снапшот атрибутов товара на момент покупки.
type ProductAttributes struct {
	Brand    string `json:"brand,omitempty"`
	Category string `json:"category,omitempty"`
}

// OrderItem — одна позиция заказа. Неизменяема после создания:
// данные товара копируются из каталога и не зависят от его будущих правок.
type OrderItem struct {
	ID             string
	OrderID        string
	ProductID      string
	ProductName    string
	ProductSKU     string
	ProductImage   string
	UnitPriceMinor int64
	Quantity       int32
	SubtotalMinor  int64
	Attributes     ProductAttributes
	CreatedAt      time.Time
}

// Order агрегирует состояние заказа, его стоимость и позиции.
type Order struct {
	ID          string
	OrderNumber string
	UserID      string

	// Снапшот данных клиента на момент оформления.
	CustomerEmail string
	CustomerName  string

	Status        OrderStatus
	PaymentStatus PaymentStatus

	Currency      string
	SubtotalMinor int64
	TaxMinor      int64
	ShippingMinor int64
	DiscountMinor int64
	TotalMinor    int64

	ShippingAddress Address
	BillingAddress  *Address

	PaymentMethod   string
	PaymentIntentID string

	TrackingNumber string
	Carrier        string

	CustomerNotes string
	InternalNotes string

	Items []OrderItem

	Version int64

	CreatedAt   time.Time
	UpdatedAt   time.Time
	ConfirmedAt *time.Time
	ShippedAt   *time.Time
	DeliveredAt *time.Time
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.UserID == "" {
		errs = append(errs, ErrUserRequired)
	}
	if o.CustomerEmail == "" {
		errs = append(errs, ErrCustomerEmailRequired)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	if !ValidOrderStatus(o.Status) {
		errs = append(errs, ErrStatusUnknown)
	}
	if !ValidPaymentStatus(o.PaymentStatus) {
		errs = append(errs, ErrPaymentStatusUnknown)
	}
	if o.SubtotalMinor < 0 || o.TaxMinor < 0 || o.ShippingMinor < 0 || o.DiscountMinor < 0 || o.TotalMinor < 0 {
		errs = append(errs, ErrAmountNegative)
	}

	// Сверяем сумму заказа с суммой позиций: qty * unit_price.
	var calc int64
	for _, item := range o.Items {
		if item.Quantity <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.UnitPriceMinor < 0 {
			errs = append(errs, ErrItemPriceInvalid)
		}
		if item.SubtotalMinor != int64(item.Quantity)*item.UnitPriceMinor {
			errs = append(errs, ErrItemSubtotalMismatch)
		}
		calc += item.SubtotalMinor
	}
	if calc != o.SubtotalMinor {
		errs = append(errs, ErrSubtotalMismatch)
	}
	if o.TotalMinor != o.SubtotalMinor+o.TaxMinor+o.ShippingMinor-o.DiscountMinor {
		errs = append(errs, ErrTotalMismatch)
	}

	return errs
}

// allowedTransitions задаёт граф легальных переходов статуса.
// Оригинальный сервис позволял админу выставить любой статус; здесь
// переходы сужены до осмысленных (решение зафиксировано в DESIGN.md).
var allowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusShipped, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {OrderStatusRefunded},
	OrderStatusCancelled:  {OrderStatusRefunded},
	OrderStatusRefunded:   {},
}

// CanTransition сообщает, допустим ли переход из from в to.
// Переход в тот же статус всегда легален (повторное выставление — no-op).
func CanTransition(from, to OrderStatus) bool {
	if from == to {
		return true
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ApplyStatus переводит заказ в новый статус и проставляет таймстемпы
// confirmed_at/shipped_at/delivered_at при первом попадании в
// соответствующий статус. Повторный переход таймстемп не трогает.
func (o *Order) ApplyStatus(to OrderStatus, now time.Time) error {
	if !ValidOrderStatus(to) {
		return ErrStatusUnknown
	}
	if !CanTransition(o.Status, to) {
		return ErrInvalidTransition
	}

	o.Status = to
	switch to {
	case OrderStatusConfirmed:
		if o.ConfirmedAt == nil {
			stamp := now
			o.ConfirmedAt = &stamp
		}
	case OrderStatusShipped:
		if o.ShippedAt == nil {
			stamp := now
			o.ShippedAt = &stamp
		}
	case OrderStatusDelivered:
		if o.DeliveredAt == nil {
			stamp := now
			o.DeliveredAt = &stamp
		}
	}
	return nil
}

// Cancellable сообщает, можно ли ещё отменить заказ.
// Отменять отгруженные и доставленные заказы нельзя.
func (o *Order) Cancellable() bool {
	return o.Status != OrderStatusShipped && o.Status != OrderStatusDelivered
}
