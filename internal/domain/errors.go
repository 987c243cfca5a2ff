package domain

import "errors"

var (
	// Ошибка отсутствующего идентификатора пользователя.
	ErrUserRequired = errors.New("user_id is required")
	// Ошибка отсутствующего email клиента.
	ErrCustomerEmailRequired = errors.New("customer_email is required")
	// Ошибка отсутствия хотя бы одной позиции в заказе.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrItemQtyInvalid = errors.New("item quantity must be greater than zero")
	// Ошибка, если цена позиции отрицательная.
	ErrItemPriceInvalid = errors.New("item unit price must be non-negative")
	// Ошибка несоответствия суммы позиции произведению цены на количество.
	ErrItemSubtotalMismatch = errors.New("item subtotal does not match unit price * quantity")
	// Ошибка несоответствия подытога заказа сумме позиций.
	ErrSubtotalMismatch = errors.New("order subtotal does not match items sum")
	// Ошибка несоответствия итога формуле subtotal + tax + shipping - discount.
	ErrTotalMismatch = errors.New("order total does not match pricing breakdown")
	// Ошибка отрицательной денежной величины.
	ErrAmountNegative = errors.New("monetary amounts must be non-negative")
	// Ошибка неизвестного статуса заказа.
	ErrStatusUnknown = errors.New("unknown order status")
	// Ошибка неизвестного статуса оплаты.
	ErrPaymentStatusUnknown = errors.New("unknown payment status")
	// Ошибка отсутствующего адреса доставки.
	ErrShippingAddressRequired = errors.New("shipping address is required")

	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderNumberTaken сигнализирует о нарушении уникальности order_number.
	ErrOrderNumberTaken = errors.New("order number already taken")
	// ErrOrderExists возвращается при вставке заказа с занятым ID.
	ErrOrderExists = errors.New("order already exists")
	// ErrOrderVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrOrderVersionConflict = errors.New("order version conflict")

	// ErrProductNotFound — товар не найден в каталоге (или каталог недоступен).
	ErrProductNotFound = errors.New("product not found")
	// ErrInsufficientStock — на складе меньше товара, чем запрошено.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidTransition — запрошенный переход статуса запрещён.
	ErrInvalidTransition = errors.New("invalid order status transition")
)

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrOrderVersionConflict)
}
