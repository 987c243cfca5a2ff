package domain

// OrderRepository описывает требования к хранилищу заказов.
// Заказ и его позиции вставляются одной транзакцией; позиции после
// создания не изменяются, Save обновляет только поля самого заказа.
type OrderRepository interface {
	// Create сохраняет новый заказ вместе с позициями.
	// Возвращает ErrOrderExists при занятом ID и ErrOrderNumberTaken
	// при нарушении уникальности order_number.
	Create(order Order) error
	// GetByID возвращает заказ по идентификатору или ErrOrderNotFound.
	GetByID(id string) (Order, error)
	// GetByNumber возвращает заказ по человекочитаемому номеру или ErrOrderNotFound.
	GetByNumber(number string) (Order, error)
	// ListByUser возвращает страницу заказов пользователя (новые первыми)
	// и общее количество его заказов.
	ListByUser(userID string, offset, limit int) ([]Order, int, error)
	// ListAll возвращает страницу всех заказов (новые первыми), опционально
	// отфильтрованных по статусу (пустой статус — без фильтра), и общее
	// количество строк с учётом фильтра.
	ListAll(offset, limit int, status OrderStatus) ([]Order, int, error)
	// Save применяет обновления к заказу с учётом optimistic locking
	// по полю Version. Позиции заказа не трогает.
	Save(order Order) error
}
