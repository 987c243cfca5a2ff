package httpsvc

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orders/internal/auth"
	"github.com/vladislavdragonenkov/orders/internal/domain"
	"github.com/vladislavdragonenkov/orders/internal/service/order"
)

// Handler обслуживает REST-поверхность сервиса заказов.
type Handler struct {
	orders *order.Service
	gate   *auth.Gate
	logger *log.Entry
}

// NewHandler собирает HTTP-обработчик поверх сервиса заказов.
func NewHandler(orders *order.Service, gate *auth.Gate, logger *log.Entry) *Handler {
	if logger == nil {
		logger = log.WithField("component", "http")
	}
	return &Handler{orders: orders, gate: gate, logger: logger}
}

// Create — POST /api/orders. Email и имя клиента снимаются из токена.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	items := make([]order.CreateItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, order.CreateItemInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	created, err := h.orders.CreateOrder(r.Context(), order.CreateOrderInput{
		UserID:          identity.UserID,
		CustomerEmail:   identity.Email,
		CustomerName:    customerNameFromEmail(identity.Email),
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		CustomerNotes:   req.CustomerNotes,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(created))
}

// ListMine — GET /api/orders: заказы текущего пользователя.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())
	page, limit := pagingParams(r)

	result, err := h.orders.ListForUser(r.Context(), identity.UserID, page, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageResponse(result))
}

// ListAll — GET /api/orders/all: все заказы, только для администратора.
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	if err := requireAdmin(r); err != nil {
		writeDomainError(w, err)
		return
	}
	page, limit := pagingParams(r)
	status := domain.OrderStatus(r.URL.Query().Get("status"))

	result, err := h.orders.ListAll(r.Context(), page, limit, status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageResponse(result))
}

// GetByID — GET /api/orders/{orderID}: владелец или администратор.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	found, err := h.orders.GetByID(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := requireOwnerOrAdmin(r, found); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(found))
}

// GetByNumber — GET /api/orders/number/{orderNumber}.
func (h *Handler) GetByNumber(w http.ResponseWriter, r *http.Request) {
	found, err := h.orders.GetByNumber(r.Context(), chi.URLParam(r, "orderNumber"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := requireOwnerOrAdmin(r, found); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(found))
}

// Update — PUT /api/orders/{orderID}: частичное обновление, только админ.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if err := requireAdmin(r); err != nil {
		writeDomainError(w, err)
		return
	}

	var req updateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patch := order.UpdatePatch{
		TrackingNumber: req.TrackingNumber,
		Carrier:        req.Carrier,
		InternalNotes:  req.InternalNotes,
	}
	if req.Status != nil {
		status := domain.OrderStatus(*req.Status)
		patch.Status = &status
	}
	if req.PaymentStatus != nil {
		paymentStatus := domain.PaymentStatus(*req.PaymentStatus)
		patch.PaymentStatus = &paymentStatus
	}

	updated, err := h.orders.Update(r.Context(), chi.URLParam(r, "orderID"), patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(updated))
}

// UpdateStatus — PATCH /api/orders/{orderID}/status: смена статуса, только админ.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if err := requireAdmin(r); err != nil {
		writeDomainError(w, err)
		return
	}

	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status := domain.OrderStatus(req.Status)
	updated, err := h.orders.Update(r.Context(), chi.URLParam(r, "orderID"), order.UpdatePatch{Status: &status})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(updated))
}

// Cancel — DELETE /api/orders/{orderID}/cancel: владелец или администратор.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	found, err := h.orders.GetByID(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := requireOwnerOrAdmin(r, found); err != nil {
		writeDomainError(w, err)
		return
	}

	cancelled, err := h.orders.Cancel(r.Context(), found.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(cancelled))
}

// requireAdmin проверяет роль уже аутентифицированного пользователя.
func requireAdmin(r *http.Request) error {
	if !identityFrom(r.Context()).IsAdmin() {
		return auth.ErrForbidden
	}
	return nil
}

// requireOwnerOrAdmin реализует правило владения: чужой заказ для
// не-админа — 403, а не 404, сам факт существования не скрывается.
func requireOwnerOrAdmin(r *http.Request, o domain.Order) error {
	identity := identityFrom(r.Context())
	if identity.IsAdmin() || identity.UserID == o.UserID {
		return nil
	}
	return auth.ErrForbidden
}

func pagingParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return page, limit
}

// customerNameFromEmail выводит имя клиента из локальной части email:
// "ivan.petrov@x" -> "Ivan Petrov".
func customerNameFromEmail(email string) string {
	local, _, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return ""
	}
	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-'
	})
	for i, part := range parts {
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}
