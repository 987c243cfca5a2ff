package domain

// Константы ценообразования. Все суммы — в минорных единицах (центах).
const (
	// TaxRatePercent — плоская ставка налога, 8%.
	TaxRatePercent = 8
	// FreeShippingThresholdMinor — подытог, начиная с которого доставка бесплатна.
	FreeShippingThresholdMinor int64 = 100_00
	// FlatShippingFeeMinor — фиксированная стоимость доставки ниже порога.
	FlatShippingFeeMinor int64 = 10_00
)

// PriceBreakdown — результат расчёта стоимости заказа.
type PriceBreakdown struct {
	SubtotalMinor int64
	TaxMinor      int64
	ShippingMinor int64
	TotalMinor    int64
}

// ComputePricing считает стоимость заказа по позициям.
// Чистая функция: валидация позиций — забота вызывающего кода.
func ComputePricing(items []OrderItem) PriceBreakdown {
	var subtotal int64
	for _, item := range items {
		subtotal += int64(item.Quantity) * item.UnitPriceMinor
	}

	// Налог округляем до цента по правилу half-up.
	tax := (subtotal*TaxRatePercent + 50) / 100

	var shipping int64
	if subtotal < FreeShippingThresholdMinor {
		shipping = FlatShippingFeeMinor
	}

	return PriceBreakdown{
		SubtotalMinor: subtotal,
		TaxMinor:      tax,
		ShippingMinor: shipping,
		TotalMinor:    subtotal + tax + shipping,
	}
}
