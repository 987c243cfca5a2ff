package httpsvc

import (
	"time"

	"github.com/vladislavdragonenkov/orders/internal/domain"
	"github.com/vladislavdragonenkov/orders/internal/service/order"
)

// createOrderRequest — тело POST /api/orders. Цены клиент не передаёт:
// стоимость всегда считается по данным каталога.
type createOrderRequest struct {
	Items           []createItemRequest `json:"items"`
	ShippingAddress domain.Address      `json:"shipping_address"`
	BillingAddress  *domain.Address     `json:"billing_address,omitempty"`
	CustomerNotes   string              `json:"customer_notes,omitempty"`
	PaymentMethod   string              `json:"payment_method,omitempty"`
}

type createItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int32  `json:"quantity"`
}

// updateOrderRequest — тело PUT /api/orders/{orderID}; применяются
// только присутствующие поля.
type updateOrderRequest struct {
	Status         *string `json:"status,omitempty"`
	PaymentStatus  *string `json:"payment_status,omitempty"`
	TrackingNumber *string `json:"tracking_number,omitempty"`
	Carrier        *string `json:"carrier,omitempty"`
	InternalNotes  *string `json:"internal_notes,omitempty"`
}

// statusUpdateRequest — тело PATCH /api/orders/{orderID}/status.
type statusUpdateRequest struct {
	Status string `json:"status"`
}

type orderItemResponse struct {
	ID             string                   `json:"id"`
	ProductID      string                   `json:"product_id"`
	ProductName    string                   `json:"product_name"`
	ProductSKU     string                   `json:"product_sku,omitempty"`
	ProductImage   string                   `json:"product_image,omitempty"`
	UnitPriceMinor int64                    `json:"unit_price_minor"`
	Quantity       int32                    `json:"quantity"`
	SubtotalMinor  int64                    `json:"subtotal_minor"`
	Attributes     domain.ProductAttributes `json:"attributes"`
}

type orderResponse struct {
	ID            string `json:"id"`
	OrderNumber   string `json:"order_number"`
	UserID        string `json:"user_id"`
	CustomerEmail string `json:"customer_email"`
	CustomerName  string `json:"customer_name,omitempty"`

	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`

	Currency      string `json:"currency"`
	SubtotalMinor int64  `json:"subtotal_minor"`
	TaxMinor      int64  `json:"tax_minor"`
	ShippingMinor int64  `json:"shipping_minor"`
	DiscountMinor int64  `json:"discount_minor"`
	TotalMinor    int64  `json:"total_minor"`

	ShippingAddress domain.Address  `json:"shipping_address"`
	BillingAddress  *domain.Address `json:"billing_address,omitempty"`

	PaymentMethod  string `json:"payment_method,omitempty"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	Carrier        string `json:"carrier,omitempty"`
	CustomerNotes  string `json:"customer_notes,omitempty"`
	InternalNotes  string `json:"internal_notes,omitempty"`

	Items []orderItemResponse `json:"items"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	ShippedAt   *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
}

type pageResponse struct {
	Orders []orderResponse `json:"orders"`
	Total  int             `json:"total"`
	Page   int             `json:"page"`
	Limit  int             `json:"limit"`
	Pages  int             `json:"pages"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toOrderResponse(o domain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderItemResponse{
			ID:             item.ID,
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			ProductSKU:     item.ProductSKU,
			ProductImage:   item.ProductImage,
			UnitPriceMinor: item.UnitPriceMinor,
			Quantity:       item.Quantity,
			SubtotalMinor:  item.SubtotalMinor,
			Attributes:     item.Attributes,
		})
	}

	return orderResponse{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		UserID:        o.UserID,
		CustomerEmail: o.CustomerEmail,
		CustomerName:  o.CustomerName,

		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),

		Currency:      o.Currency,
		SubtotalMinor: o.SubtotalMinor,
		TaxMinor:      o.TaxMinor,
		ShippingMinor: o.ShippingMinor,
		DiscountMinor: o.DiscountMinor,
		TotalMinor:    o.TotalMinor,

		ShippingAddress: o.ShippingAddress,
		BillingAddress:  o.BillingAddress,

		PaymentMethod:  o.PaymentMethod,
		TrackingNumber: o.TrackingNumber,
		Carrier:        o.Carrier,
		CustomerNotes:  o.CustomerNotes,
		InternalNotes:  o.InternalNotes,

		Items: items,

		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
		ConfirmedAt: o.ConfirmedAt,
		ShippedAt:   o.ShippedAt,
		DeliveredAt: o.DeliveredAt,
	}
}

func toPageResponse(page order.Page) pageResponse {
	orders := make([]orderResponse, 0, len(page.Orders))
	for _, o := range page.Orders {
		orders = append(orders, toOrderResponse(o))
	}
	return pageResponse{
		Orders: orders,
		Total:  page.Total,
		Page:   page.Page,
		Limit:  page.Limit,
		Pages:  page.Pages,
	}
}
