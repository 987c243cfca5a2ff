package httpsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/orders/internal/auth"
	"github.com/vladislavdragonenkov/orders/internal/domain"
	"github.com/vladislavdragonenkov/orders/internal/service/order"
	"github.com/vladislavdragonenkov/orders/internal/storage/memory"
)

const testSecret = "handler-test-secret"

type stubCatalog struct {
	products map[string]domain.ProductSnapshot
}

func (c stubCatalog) GetProduct(_ context.Context, productID string) (domain.ProductSnapshot, error) {
	product, ok := c.products[productID]
	if !ok {
		return domain.ProductSnapshot{}, fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID)
	}
	return product, nil
}

type fixture struct {
	server *httptest.Server
	repo   domain.OrderRepository
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	logger := log.New()
	logger.SetLevel(log.PanicLevel)
	entry := logger.WithField("component", "test")

	repo := memory.NewOrderRepository()
	catalog := stubCatalog{products: map[string]domain.ProductSnapshot{
		"prod-a": {ID: "prod-a", Name: "Клавиатура", SKU: "KB-100", UnitPriceMinor: 2000, Stock: 10},
		"prod-b": {ID: "prod-b", Name: "Мышь", SKU: "MS-200", UnitPriceMinor: 3000, Stock: 1},
	}}
	svc := order.NewService(repo, catalog, entry)
	gate := auth.NewGate(auth.NewJWTVerifier(testSecret))
	handler := NewHandler(svc, gate, entry)

	server := httptest.NewServer(NewRouter(handler))
	t.Cleanup(server.Close)

	return fixture{server: server, repo: repo}
}

func signToken(t *testing.T, userID, email, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"userId": userID,
		"email":  email,
		"exp":    time.Now().Add(time.Hour).Unix(),
	}
	if role != "" {
		claims["role"] = role
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func (f fixture) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeOrder(t *testing.T, resp *http.Response) orderResponse {
	t.Helper()
	var out orderResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func validCreateBody() createOrderRequest {
	return createOrderRequest{
		Items: []createItemRequest{
			{ProductID: "prod-a", Quantity: 2},
			{ProductID: "prod-b", Quantity: 1},
		},
		ShippingAddress: domain.Address{Street: "Тверская 1", City: "Москва", Country: "RU"},
	}
}

func (f fixture) createOrder(t *testing.T, token string) orderResponse {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/api/orders", token, validCreateBody())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeOrder(t, resp)
}

func TestCreateOrderEndpoint(t *testing.T) {
	f := newFixture(t)
	token := signToken(t, "user-1", "ivan.petrov@example.com", "")

	created := f.createOrder(t, token)
	require.Equal(t, "user-1", created.UserID)
	require.Equal(t, "ivan.petrov@example.com", created.CustomerEmail)
	require.Equal(t, "Ivan Petrov", created.CustomerName)
	require.Equal(t, int64(7000), created.SubtotalMinor)
	require.Equal(t, int64(560), created.TaxMinor)
	require.Equal(t, int64(1000), created.ShippingMinor)
	require.Equal(t, int64(8560), created.TotalMinor)
	require.Equal(t, "pending", created.Status)
	require.Equal(t, "pending", created.PaymentStatus)
	require.Regexp(t, `^ORD-\d{8}-[A-Z0-9]{6}$`, created.OrderNumber)
	require.Len(t, created.Items, 2)
}

func TestCreateOrderEndpointErrors(t *testing.T) {
	f := newFixture(t)
	token := signToken(t, "user-1", "ivan@example.com", "")

	t.Run("без токена", func(t *testing.T) {
		resp := f.do(t, http.MethodPost, "/api/orders", "", validCreateBody())
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("битый JSON", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, f.server.URL+"/api/orders", bytes.NewBufferString("{"))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("неизвестный товар", func(t *testing.T) {
		body := validCreateBody()
		body.Items[0].ProductID = "prod-missing"
		resp := f.do(t, http.MethodPost, "/api/orders", token, body)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("нехватка стока называет товар", func(t *testing.T) {
		body := validCreateBody()
		body.Items[1].Quantity = 5
		resp := f.do(t, http.MethodPost, "/api/orders", token, body)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var out errorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		require.Contains(t, out.Error, "Мышь")
	})

	t.Run("без позиций", func(t *testing.T) {
		body := validCreateBody()
		body.Items = nil
		resp := f.do(t, http.MethodPost, "/api/orders", token, body)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestGetOrderOwnership(t *testing.T) {
	f := newFixture(t)
	owner := signToken(t, "user-1", "ivan@example.com", "")
	stranger := signToken(t, "user-2", "petr@example.com", "")
	admin := signToken(t, "admin-1", "admin@example.com", "admin")

	created := f.createOrder(t, owner)

	resp := f.do(t, http.MethodGet, "/api/orders/"+created.ID, owner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Чужой заказ — 403, а не 404.
	resp = f.do(t, http.MethodGet, "/api/orders/"+created.ID, stranger, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/orders/"+created.ID, admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/orders/number/"+created.OrderNumber, owner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/orders/number/"+created.OrderNumber, stranger, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/orders/00000000-0000-0000-0000-000000000000", owner, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListEndpoints(t *testing.T) {
	f := newFixture(t)
	owner := signToken(t, "user-1", "ivan@example.com", "")
	other := signToken(t, "user-2", "petr@example.com", "")
	admin := signToken(t, "admin-1", "admin@example.com", "admin")

	f.createOrder(t, owner)
	f.createOrder(t, owner)
	f.createOrder(t, other)

	resp := f.do(t, http.MethodGet, "/api/orders?page=1&limit=10", owner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page pageResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	require.Equal(t, 2, page.Total)
	require.Equal(t, 1, page.Pages)
	require.Len(t, page.Orders, 2)

	// /all закрыт для обычного пользователя.
	resp = f.do(t, http.MethodGet, "/api/orders/all", owner, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/orders/all", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var all pageResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&all))
	require.Equal(t, 3, all.Total)

	resp = f.do(t, http.MethodGet, "/api/orders/all?status=shipped", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var shipped pageResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&shipped))
	require.Zero(t, shipped.Total)

	resp = f.do(t, http.MethodGet, "/api/orders/all?status=sideways", admin, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateEndpoint(t *testing.T) {
	f := newFixture(t)
	owner := signToken(t, "user-1", "ivan@example.com", "")
	admin := signToken(t, "admin-1", "admin@example.com", "admin")

	created := f.createOrder(t, owner)

	status := "confirmed"
	tracking := "TRK-42"
	body := updateOrderRequest{Status: &status, TrackingNumber: &tracking}

	// Обновление закрыто для владельца.
	resp := f.do(t, http.MethodPut, "/api/orders/"+created.ID, owner, body)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.do(t, http.MethodPut, "/api/orders/"+created.ID, admin, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeOrder(t, resp)
	require.Equal(t, "confirmed", updated.Status)
	require.Equal(t, "TRK-42", updated.TrackingNumber)
	require.NotNil(t, updated.ConfirmedAt)

	// Нелегальный переход — 400.
	bad := "pending"
	resp = f.do(t, http.MethodPut, "/api/orders/"+created.ID, admin, updateOrderRequest{Status: &bad})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateStatusEndpoint(t *testing.T) {
	f := newFixture(t)
	owner := signToken(t, "user-1", "ivan@example.com", "")
	admin := signToken(t, "admin-1", "admin@example.com", "admin")

	created := f.createOrder(t, owner)

	resp := f.do(t, http.MethodPatch, "/api/orders/"+created.ID+"/status", owner, statusUpdateRequest{Status: "confirmed"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.do(t, http.MethodPatch, "/api/orders/"+created.ID+"/status", admin, statusUpdateRequest{Status: "confirmed"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "confirmed", decodeOrder(t, resp).Status)

	resp = f.do(t, http.MethodPatch, "/api/orders/"+created.ID+"/status", admin, statusUpdateRequest{Status: "sideways"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCancelEndpoint(t *testing.T) {
	f := newFixture(t)
	owner := signToken(t, "user-1", "ivan@example.com", "")
	stranger := signToken(t, "user-2", "petr@example.com", "")
	admin := signToken(t, "admin-1", "admin@example.com", "admin")

	created := f.createOrder(t, owner)

	resp := f.do(t, http.MethodDelete, "/api/orders/"+created.ID+"/cancel", stranger, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.do(t, http.MethodDelete, "/api/orders/"+created.ID+"/cancel", owner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "cancelled", decodeOrder(t, resp).Status)

	// Отгруженный заказ отменить нельзя.
	second := f.createOrder(t, owner)
	for _, status := range []string{"confirmed", "shipped"} {
		resp = f.do(t, http.MethodPatch, "/api/orders/"+second.ID+"/status", admin, statusUpdateRequest{Status: status})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp = f.do(t, http.MethodDelete, "/api/orders/"+second.ID+"/cancel", owner, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCustomerNameFromEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"ivan.petrov@example.com", "Ivan Petrov"},
		{"ivan@example.com", "Ivan"},
		{"ivan_petrov-jr@example.com", "Ivan Petrov Jr"},
		{"", ""},
		{"noatsign", ""},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, customerNameFromEmail(tt.email), tt.email)
	}
}
