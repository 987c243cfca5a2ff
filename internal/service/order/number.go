package order

import (
	"fmt"
	"math/rand"
	"time"
)

const (
	orderNumberPrefix    = "ORD"
	orderNumberAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	orderNumberSuffixLen = 6
)

// generateOrderNumber собирает человекочитаемый номер заказа вида
// ORD-20260901-7K2FQ9. Уникальность криптографически не гарантируется:
// её обеспечивает constraint хранилища, а сервис перегенерирует номер
// при конфликте.
func generateOrderNumber(now time.Time) string {
	suffix := make([]byte, orderNumberSuffixLen)
	for i := range suffix {
		suffix[i] = orderNumberAlphabet[rand.Intn(len(orderNumberAlphabet))]
	}
	return fmt.Sprintf("%s-%s-%s", orderNumberPrefix, now.Format("20060102"), suffix)
}
