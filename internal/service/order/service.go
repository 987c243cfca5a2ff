package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orders/internal/domain"
	"github.com/vladislavdragonenkov/orders/internal/metrics"
)

const (
	// defaultPaymentMethod подставляется, когда клиент не указал способ оплаты.
	defaultPaymentMethod = "credit_card"
	// orderNumberAttempts ограничивает перегенерацию номера при конфликте
	// уникальности в хранилище.
	orderNumberAttempts = 3
)

// Service — ядро жизненного цикла заказа: создание с обогащением из
// каталога и расчётом стоимости, выборки, частичное обновление и отмена.
type Service struct {
	repo    domain.OrderRepository
	catalog domain.ProductCatalog
	events  domain.OrderEventPublisher
	metrics *metrics.OrderMetrics
	logger  *log.Entry
	now     func() time.Time
}

// Option настраивает сервис заказов.
type Option func(*Service)

// WithEventPublisher включает публикацию событий жизненного цикла.
func WithEventPublisher(events domain.OrderEventPublisher) Option {
	return func(s *Service) { s.events = events }
}

// WithMetrics включает запись метрик операций.
func WithMetrics(m *metrics.OrderMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService конструирует сервис с зависимостями.
func NewService(repo domain.OrderRepository, catalog domain.ProductCatalog, logger *log.Entry, opts ...Option) *Service {
	if logger == nil {
		logger = log.WithField("component", "order-service")
	}
	s := &Service{
		repo:    repo,
		catalog: catalog,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateItemInput — запрошенная позиция: клиент передаёт только товар и
// количество, цена и атрибуты всегда берутся из каталога.
type CreateItemInput struct {
	ProductID string
	Quantity  int32
}

// CreateOrderInput — параметры создания заказа.
type CreateOrderInput struct {
	UserID        string
	CustomerEmail string
	CustomerName  string

	Items           []CreateItemInput
	ShippingAddress domain.Address
	BillingAddress  *domain.Address
	CustomerNotes   string
	PaymentMethod   string
}

// validate проверяет форму запроса до каких-либо внешних вызовов.
func (in CreateOrderInput) validate() error {
	if in.UserID == "" {
		return domain.ErrUserRequired
	}
	if in.CustomerEmail == "" {
		return domain.ErrCustomerEmailRequired
	}
	if len(in.Items) == 0 {
		return domain.ErrItemsRequired
	}
	for _, item := range in.Items {
		if item.ProductID == "" {
			return fmt.Errorf("%w: empty product_id", domain.ErrItemsRequired)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: product %s", domain.ErrItemQtyInvalid, item.ProductID)
		}
	}
	if in.ShippingAddress.Street == "" || in.ShippingAddress.City == "" {
		return domain.ErrShippingAddressRequired
	}
	return nil
}

// CreateOrder создаёт заказ в две фазы: сначала собираем и валидируем
// все снапшоты товаров (ни одной записи в хранилище), затем атомарно
// сохраняем заказ с позициями. Недоступность каталога или нехватка стока
// по любой позиции отменяют операцию целиком.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (domain.Order, error) {
	started := s.now()

	if err := in.validate(); err != nil {
		s.metrics.RecordCreateFailed("validation")
		return domain.Order{}, err
	}

	now := s.now()
	items, err := s.gatherItems(ctx, in.Items, now)
	if err != nil {
		return domain.Order{}, err
	}

	pricing := domain.ComputePricing(items)

	billing := in.BillingAddress
	if billing == nil {
		// По умолчанию счёт выставляется на адрес доставки.
		addr := in.ShippingAddress
		billing = &addr
	}
	paymentMethod := in.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = defaultPaymentMethod
	}

	order := domain.Order{
		ID:            uuid.NewString(),
		UserID:        in.UserID,
		CustomerEmail: in.CustomerEmail,
		CustomerName:  in.CustomerName,
		Status:        domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusPending,
		Currency:      domain.DefaultCurrency,
		SubtotalMinor: pricing.SubtotalMinor,
		TaxMinor:      pricing.TaxMinor,
		ShippingMinor: pricing.ShippingMinor,
		TotalMinor:    pricing.TotalMinor,

		ShippingAddress: in.ShippingAddress,
		BillingAddress:  billing,
		PaymentMethod:   paymentMethod,
		CustomerNotes:   in.CustomerNotes,

		Items:     items,
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}

	if errs := order.ValidateInvariants(); len(errs) > 0 {
		s.metrics.RecordCreateFailed("invariants")
		return domain.Order{}, errors.Join(errs...)
	}

	// Фаза 2: атомарная запись. Номер заказа перегенерируется при
	// конфликте уникальности — коллизии редки, но возможны.
	if err := s.persistWithNumberRetry(&order); err != nil {
		s.metrics.RecordCreateFailed("persist")
		return domain.Order{}, err
	}

	s.metrics.RecordOrderCreated()
	s.metrics.RecordCreateDuration(s.now().Sub(started))
	if s.events != nil {
		s.events.OrderCreated(order)
	}

	s.logger.WithFields(log.Fields{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"user_id":      order.UserID,
		"total_minor":  order.TotalMinor,
	}).Info("заказ создан")

	return order, nil
}

// gatherItems выполняет фазу сбора: для каждой позиции запрашивает каталог,
// проверяет сток и снимает снапшот товара в позицию заказа.
func (s *Service) gatherItems(ctx context.Context, requested []CreateItemInput, now time.Time) ([]domain.OrderItem, error) {
	items := make([]domain.OrderItem, 0, len(requested))
	for _, req := range requested {
		lookupStarted := s.now()
		product, err := s.catalog.GetProduct(ctx, req.ProductID)
		s.metrics.RecordCatalogLookupDuration(s.now().Sub(lookupStarted))
		if err != nil {
			s.metrics.RecordCreateFailed("product_not_found")
			return nil, err
		}

		if product.Stock < req.Quantity {
			s.metrics.RecordCreateFailed("insufficient_stock")
			return nil, fmt.Errorf("%w: %s", domain.ErrInsufficientStock, product.Name)
		}

		items = append(items, domain.OrderItem{
			ID:             uuid.NewString(),
			ProductID:      req.ProductID,
			ProductName:    product.Name,
			ProductSKU:     product.SKU,
			ProductImage:   product.ImageURL,
			UnitPriceMinor: product.UnitPriceMinor,
			Quantity:       req.Quantity,
			SubtotalMinor:  int64(req.Quantity) * product.UnitPriceMinor,
			Attributes: domain.ProductAttributes{
				Brand:    product.Brand,
				Category: product.Category,
			},
			CreatedAt: now,
		})
	}
	return items, nil
}

func (s *Service) persistWithNumberRetry(order *domain.Order) error {
	var lastErr error
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order.OrderNumber = generateOrderNumber(order.CreatedAt)
		err := s.repo.Create(*order)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrOrderNumberTaken) {
			s.logger.WithError(err).Error("не удалось сохранить заказ")
			return err
		}
		lastErr = err
		s.logger.WithField("order_number", order.OrderNumber).Warn("коллизия номера заказа, пробуем новый")
	}
	return lastErr
}

// GetByID возвращает заказ по идентификатору или domain.ErrOrderNotFound.
func (s *Service) GetByID(_ context.Context, id string) (domain.Order, error) {
	return s.repo.GetByID(id)
}

// GetByNumber возвращает заказ по номеру или domain.ErrOrderNotFound.
func (s *Service) GetByNumber(_ context.Context, number string) (domain.Order, error) {
	return s.repo.GetByNumber(number)
}

// Page — страница списка заказов.
type Page struct {
	Orders []domain.Order
	Total  int
	Page   int
	Limit  int
	Pages  int
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

func normalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

func buildPage(orders []domain.Order, total, page, limit int) Page {
	pages := 0
	if total > 0 {
		pages = (total + limit - 1) / limit
	}
	return Page{Orders: orders, Total: total, Page: page, Limit: limit, Pages: pages}
}

// ListForUser возвращает страницу заказов пользователя, page нумеруется с 1.
func (s *Service) ListForUser(_ context.Context, userID string, page, limit int) (Page, error) {
	page, limit = normalizePaging(page, limit)
	orders, total, err := s.repo.ListByUser(userID, (page-1)*limit, limit)
	if err != nil {
		s.logger.WithError(err).Error("не удалось получить список заказов пользователя")
		return Page{}, err
	}
	return buildPage(orders, total, page, limit), nil
}

// ListAll возвращает страницу всех заказов с опциональным фильтром по статусу.
func (s *Service) ListAll(_ context.Context, page, limit int, status domain.OrderStatus) (Page, error) {
	if status != "" && !domain.ValidOrderStatus(status) {
		return Page{}, domain.ErrStatusUnknown
	}
	page, limit = normalizePaging(page, limit)
	orders, total, err := s.repo.ListAll((page-1)*limit, limit, status)
	if err != nil {
		s.logger.WithError(err).Error("не удалось получить список заказов")
		return Page{}, err
	}
	return buildPage(orders, total, page, limit), nil
}

// UpdatePatch — частичное обновление заказа: применяются только
// заполненные поля, остальные не трогаются.
type UpdatePatch struct {
	Status         *domain.OrderStatus
	PaymentStatus  *domain.PaymentStatus
	TrackingNumber *string
	Carrier        *string
	InternalNotes  *string
}

func (p UpdatePatch) empty() bool {
	return p.Status == nil && p.PaymentStatus == nil &&
		p.TrackingNumber == nil && p.Carrier == nil && p.InternalNotes == nil
}

// Update применяет patch к заказу. Смена статуса идёт через доменный граф
// переходов и проставляет таймстемпы первого попадания в статус.
func (s *Service) Update(_ context.Context, id string, patch UpdatePatch) (domain.Order, error) {
	order, err := s.repo.GetByID(id)
	if err != nil {
		return domain.Order{}, err
	}
	if patch.empty() {
		return order, nil
	}

	previous := order.Status
	now := s.now()

	if patch.PaymentStatus != nil {
		if !domain.ValidPaymentStatus(*patch.PaymentStatus) {
			return domain.Order{}, domain.ErrPaymentStatusUnknown
		}
		order.PaymentStatus = *patch.PaymentStatus
	}
	if patch.TrackingNumber != nil {
		order.TrackingNumber = *patch.TrackingNumber
	}
	if patch.Carrier != nil {
		order.Carrier = *patch.Carrier
	}
	if patch.InternalNotes != nil {
		order.InternalNotes = *patch.InternalNotes
	}
	if patch.Status != nil {
		if err := order.ApplyStatus(*patch.Status, now); err != nil {
			return domain.Order{}, err
		}
	}

	order.UpdatedAt = now
	if err := s.saveOrder(order, "Update"); err != nil {
		return domain.Order{}, err
	}

	if patch.Status != nil && order.Status != previous {
		s.metrics.RecordStatusTransition(string(order.Status))
		if s.events != nil {
			s.events.OrderStatusChanged(order, previous)
		}
	}

	return order, nil
}

// Cancel отменяет заказ. Отгруженные и доставленные заказы отменить нельзя;
// статусы оплаты, таймстемпы и позиции операция не трогает.
func (s *Service) Cancel(_ context.Context, id string) (domain.Order, error) {
	order, err := s.repo.GetByID(id)
	if err != nil {
		return domain.Order{}, err
	}

	if !order.Cancellable() {
		return domain.Order{}, fmt.Errorf("%w: cannot cancel %s order", domain.ErrInvalidTransition, order.Status)
	}
	if order.Status == domain.OrderStatusCancelled {
		return order, nil
	}

	previous := order.Status
	order.Status = domain.OrderStatusCancelled
	order.UpdatedAt = s.now()
	if err := s.saveOrder(order, "Cancel"); err != nil {
		return domain.Order{}, err
	}

	s.metrics.RecordOrderCancelled()
	if s.events != nil {
		s.events.OrderCancelled(order)
		s.events.OrderStatusChanged(order, previous)
	}

	s.logger.WithFields(log.Fields{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
	}).Info("заказ отменён")

	return order, nil
}

func (s *Service) saveOrder(order domain.Order, operation string) error {
	if err := s.repo.Save(order); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"operation": operation,
			"order_id":  order.ID,
		}).Error("не удалось сохранить заказ")
		return err
	}
	return nil
}
