package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

func integrationOrder(userID, number string, createdAt time.Time) domain.Order {
	id := uuid.NewString()
	billing := domain.Address{Street: "Невский 10", City: "Санкт-Петербург", Country: "RU"}
	return domain.Order{
		ID:              id,
		OrderNumber:     number,
		UserID:          userID,
		CustomerEmail:   "ivan@example.com",
		CustomerName:    "Ivan",
		Status:          domain.OrderStatusPending,
		PaymentStatus:   domain.PaymentStatusPending,
		Currency:        domain.DefaultCurrency,
		SubtotalMinor:   7000,
		TaxMinor:        560,
		ShippingMinor:   1000,
		TotalMinor:      8560,
		ShippingAddress: domain.Address{Street: "Тверская 1", City: "Москва", Country: "RU"},
		BillingAddress:  &billing,
		PaymentMethod:   "credit_card",
		Items: []domain.OrderItem{
			{
				ID:             uuid.NewString(),
				OrderID:        id,
				ProductID:      "prod-a",
				ProductName:    "Клавиатура",
				ProductSKU:     "KB-100",
				UnitPriceMinor: 2000,
				Quantity:       2,
				SubtotalMinor:  4000,
				Attributes:     domain.ProductAttributes{Brand: "Keytron", Category: "peripherals"},
				CreatedAt:      createdAt,
			},
			{
				ID:             uuid.NewString(),
				OrderID:        id,
				ProductID:      "prod-b",
				ProductName:    "Мышь",
				UnitPriceMinor: 3000,
				Quantity:       1,
				SubtotalMinor:  3000,
				CreatedAt:      createdAt.Add(time.Millisecond),
			},
		},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestOrderRepository_PostgresCreateAndGet(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	now := time.Now().UTC().Truncate(time.Microsecond)
	order := integrationOrder("user-1", "ORD-20260101-AAAAAA", now)
	require.NoError(t, repo.Create(order))

	got, err := repo.GetByID(order.ID)
	require.NoError(t, err)
	require.Equal(t, order.OrderNumber, got.OrderNumber)
	require.Equal(t, order.TotalMinor, got.TotalMinor)
	require.Equal(t, order.ShippingAddress, got.ShippingAddress)
	require.NotNil(t, got.BillingAddress)
	require.Equal(t, *order.BillingAddress, *got.BillingAddress)
	require.Nil(t, got.ConfirmedAt)
	require.Len(t, got.Items, 2)
	require.Equal(t, "Клавиатура", got.Items[0].ProductName)
	require.Equal(t, "Keytron", got.Items[0].Attributes.Brand)

	byNumber, err := repo.GetByNumber(order.OrderNumber)
	require.NoError(t, err)
	require.Equal(t, order.ID, byNumber.ID)

	_, err = repo.GetByID(uuid.NewString())
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrderRepository_PostgresUniqueViolations(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	now := time.Now().UTC().Truncate(time.Microsecond)
	order := integrationOrder("user-1", "ORD-20260101-AAAAAA", now)
	require.NoError(t, repo.Create(order))

	// Тот же номер, другой ID.
	clash := integrationOrder("user-2", "ORD-20260101-AAAAAA", now)
	require.ErrorIs(t, repo.Create(clash), domain.ErrOrderNumberTaken)

	// Тот же ID, другой номер.
	dup := integrationOrder("user-1", "ORD-20260101-BBBBBB", now)
	dup.ID = order.ID
	require.ErrorIs(t, repo.Create(dup), domain.ErrOrderExists)
}

func TestOrderRepository_PostgresSaveVersionCAS(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	now := time.Now().UTC().Truncate(time.Microsecond)
	order := integrationOrder("user-1", "ORD-20260101-AAAAAA", now)
	require.NoError(t, repo.Create(order))

	current, err := repo.GetByID(order.ID)
	require.NoError(t, err)

	stamp := now.Add(time.Minute)
	require.NoError(t, current.ApplyStatus(domain.OrderStatusConfirmed, stamp))
	current.UpdatedAt = stamp
	require.NoError(t, repo.Save(current))

	// Повторное сохранение со старой версией отвергается.
	require.ErrorIs(t, repo.Save(current), domain.ErrOrderVersionConflict)

	fresh, err := repo.GetByID(order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusConfirmed, fresh.Status)
	require.Equal(t, current.Version+1, fresh.Version)
	require.NotNil(t, fresh.ConfirmedAt)
	require.True(t, fresh.ConfirmedAt.Equal(stamp))

	missing := integrationOrder("user-1", "ORD-20260101-CCCCCC", now)
	require.ErrorIs(t, repo.Save(missing), domain.ErrOrderNotFound)
}

func TestOrderRepository_PostgresListPagination(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		order := integrationOrder("user-1", orderNumberForSeq(i), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, repo.Create(order))
	}
	other := integrationOrder("user-2", "ORD-20260201-ZZZZZZ", base)
	other.Status = domain.OrderStatusShipped
	require.NoError(t, repo.Create(other))

	orders, total, err := repo.ListByUser("user-1", 0, 3)
	require.NoError(t, err)
	require.Equal(t, 5, total)
	require.Len(t, orders, 3)
	require.Equal(t, orderNumberForSeq(4), orders[0].OrderNumber)

	tail, total, err := repo.ListByUser("user-1", 3, 3)
	require.NoError(t, err)
	require.Equal(t, 5, total)
	require.Len(t, tail, 2)

	all, total, err := repo.ListAll(0, 10, "")
	require.NoError(t, err)
	require.Equal(t, 6, total)
	require.Len(t, all, 6)

	shipped, total, err := repo.ListAll(0, 10, domain.OrderStatusShipped)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, other.ID, shipped[0].ID)
}

func orderNumberForSeq(i int) string {
	return "ORD-20260201-00000" + string(rune('A'+i))
}
