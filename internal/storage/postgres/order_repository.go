package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

const opTimeout = 5 * time.Second

const orderColumns = `
	id, order_number, user_id, customer_email, customer_name,
	status, payment_status, currency,
	subtotal_minor, tax_minor, shipping_minor, discount_minor, total_minor,
	shipping_address, billing_address,
	payment_method, payment_intent_id, tracking_number, carrier,
	customer_notes, internal_notes, version,
	created_at, updated_at, confirmed_at, shipped_at, delivered_at`

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

// Create сохраняет заказ вместе с позициями одной транзакцией.
func (r *orderRepository) Create(order domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	shipping, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return fmt.Errorf("marshal shipping address: %w", err)
	}
	var billing []byte
	if order.BillingAddress != nil {
		if billing, err = json.Marshal(order.BillingAddress); err != nil {
			return fmt.Errorf("marshal billing address: %w", err)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27)
	`,
		order.ID, order.OrderNumber, order.UserID, order.CustomerEmail, order.CustomerName,
		string(order.Status), string(order.PaymentStatus), order.Currency,
		order.SubtotalMinor, order.TaxMinor, order.ShippingMinor, order.DiscountMinor, order.TotalMinor,
		shipping, billing,
		order.PaymentMethod, order.PaymentIntentID, order.TrackingNumber, order.Carrier,
		order.CustomerNotes, order.InternalNotes, order.Version,
		order.CreatedAt, order.UpdatedAt, order.ConfirmedAt, order.ShippedAt, order.DeliveredAt,
	)
	if err != nil {
		return classifyInsertError(err)
	}

	for _, item := range order.Items {
		attributes, merr := json.Marshal(item.Attributes)
		if merr != nil {
			err = fmt.Errorf("marshal item attributes: %w", merr)
			return err
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (
				id, order_id, product_id, product_name, product_sku, product_image,
				unit_price_minor, quantity, subtotal_minor, product_attributes, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		`,
			item.ID, order.ID, item.ProductID, item.ProductName, item.ProductSKU, item.ProductImage,
			item.UnitPriceMinor, item.Quantity, item.SubtotalMinor, attributes, item.CreatedAt,
		); err != nil {
			err = fmt.Errorf("insert order item: %w", err)
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create order: %w", err)
	}
	return nil
}

// GetByID возвращает заказ с позициями или domain.ErrOrderNotFound.
func (r *orderRepository) GetByID(id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

// GetByNumber возвращает заказ по человекочитаемому номеру.
func (r *orderRepository) GetByNumber(number string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_number = $1`, number)
}

func (r *orderRepository) getOne(ctx context.Context, query string, arg any) (domain.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}

	items, err := r.loadItems(ctx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Items = items
	return order, nil
}

// ListByUser возвращает страницу заказов пользователя и их общее количество.
func (r *orderRepository) ListByUser(userID string, offset, limit int) ([]domain.Order, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var total int
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM orders WHERE user_id = $1
	`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count user orders: %w", err)
	}

	orders, err := r.list(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		OFFSET $2 LIMIT $3
	`, userID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListAll возвращает страницу всех заказов, опционально отфильтрованных по статусу.
func (r *orderRepository) ListAll(offset, limit int, status domain.OrderStatus) ([]domain.Order, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var (
		total  int
		orders []domain.Order
		err    error
	)
	if status != "" {
		if err = r.db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM orders WHERE status = $1
		`, string(status)).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count orders: %w", err)
		}
		orders, err = r.list(ctx, `
			SELECT `+orderColumns+`
			FROM orders
			WHERE status = $1
			ORDER BY created_at DESC, id DESC
			OFFSET $2 LIMIT $3
		`, string(status), offset, limit)
	} else {
		if err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count orders: %w", err)
		}
		orders, err = r.list(ctx, `
			SELECT `+orderColumns+`
			FROM orders
			ORDER BY created_at DESC, id DESC
			OFFSET $1 LIMIT $2
		`, offset, limit)
	}
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// Save обновляет изменяемые колонки заказа с проверкой версии.
// Позиции заказа неизменяемы и не трогаются.
func (r *orderRepository) Save(order domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1,
		    payment_status = $2,
		    payment_intent_id = $3,
		    tracking_number = $4,
		    carrier = $5,
		    internal_notes = $6,
		    version = version + 1,
		    updated_at = $7,
		    confirmed_at = $8,
		    shipped_at = $9,
		    delivered_at = $10
		WHERE id = $11
		  AND version = $12
	`,
		string(order.Status), string(order.PaymentStatus), order.PaymentIntentID,
		order.TrackingNumber, order.Carrier, order.InternalNotes,
		order.UpdatedAt, order.ConfirmedAt, order.ShippedAt, order.DeliveredAt,
		order.ID, order.Version,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		exists, err := r.orderExists(ctx, order.ID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrOrderNotFound
		}
		return domain.ErrOrderVersionConflict
	}
	return nil
}

func (r *orderRepository) list(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	for i := range orders {
		items, err := r.loadItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, product_name, product_sku, product_image,
		       unit_price_minor, quantity, subtotal_minor, product_attributes, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at ASC, id ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.OrderItem, 0)
	for rows.Next() {
		var item domain.OrderItem
		var attributes []byte
		if err := rows.Scan(
			&item.ID, &item.ProductID, &item.ProductName, &item.ProductSKU, &item.ProductImage,
			&item.UnitPriceMinor, &item.Quantity, &item.SubtotalMinor, &attributes, &item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		if len(attributes) > 0 {
			if err := json.Unmarshal(attributes, &item.Attributes); err != nil {
				return nil, fmt.Errorf("unmarshal item attributes: %w", err)
			}
		}
		item.OrderID = orderID
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return items, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		order                            domain.Order
		status, paymentStatus            string
		shipping, billing                []byte
		confirmedAt, shippedAt, delivery sql.NullTime
	)
	if err := row.Scan(
		&order.ID, &order.OrderNumber, &order.UserID, &order.CustomerEmail, &order.CustomerName,
		&status, &paymentStatus, &order.Currency,
		&order.SubtotalMinor, &order.TaxMinor, &order.ShippingMinor, &order.DiscountMinor, &order.TotalMinor,
		&shipping, &billing,
		&order.PaymentMethod, &order.PaymentIntentID, &order.TrackingNumber, &order.Carrier,
		&order.CustomerNotes, &order.InternalNotes, &order.Version,
		&order.CreatedAt, &order.UpdatedAt, &confirmedAt, &shippedAt, &delivery,
	); err != nil {
		return domain.Order{}, err
	}

	order.Status = domain.OrderStatus(status)
	order.PaymentStatus = domain.PaymentStatus(paymentStatus)
	if err := json.Unmarshal(shipping, &order.ShippingAddress); err != nil {
		return domain.Order{}, fmt.Errorf("unmarshal shipping address: %w", err)
	}
	if len(billing) > 0 {
		var addr domain.Address
		if err := json.Unmarshal(billing, &addr); err != nil {
			return domain.Order{}, fmt.Errorf("unmarshal billing address: %w", err)
		}
		order.BillingAddress = &addr
	}
	order.ConfirmedAt = nullableTime(confirmedAt)
	order.ShippedAt = nullableTime(shippedAt)
	order.DeliveredAt = nullableTime(delivery)
	return order, nil
}

func nullableTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	stamp := t.Time
	return &stamp
}

func (r *orderRepository) orderExists(ctx context.Context, orderID string) (bool, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM orders WHERE id = $1`, orderID).Scan(&id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check order exists: %w", err)
}

// classifyInsertError различает конфликт по номеру заказа и по ID,
// остальное возвращает как есть.
func classifyInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		if pgErr.ConstraintName == "uq_orders_order_number" {
			return domain.ErrOrderNumberTaken
		}
		return domain.ErrOrderExists
	}
	return fmt.Errorf("insert order: %w", err)
}

var _ domain.OrderRepository = (*orderRepository)(nil)
