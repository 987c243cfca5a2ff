package httpsvc

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vladislavdragonenkov/orders/internal/auth"
	"github.com/vladislavdragonenkov/orders/internal/domain"
)

// mapError переводит доменные ошибки в HTTP-статусы. Неизвестные ошибки
// превращаются в 500 с нейтральным текстом: внутренности наружу не текут.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized, auth.ErrUnauthenticated.Error()
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden, auth.ErrForbidden.Error()
	case errors.Is(err, domain.ErrOrderNotFound):
		return http.StatusNotFound, "order not found"
	case errors.Is(err, domain.ErrOrderVersionConflict),
		errors.Is(err, domain.ErrOrderNumberTaken),
		errors.Is(err, domain.ErrOrderExists):
		return http.StatusConflict, "order conflict, please retry"
	case isValidationError(err):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func isValidationError(err error) bool {
	validation := []error{
		domain.ErrUserRequired,
		domain.ErrCustomerEmailRequired,
		domain.ErrItemsRequired,
		domain.ErrItemQtyInvalid,
		domain.ErrItemPriceInvalid,
		domain.ErrItemSubtotalMismatch,
		domain.ErrSubtotalMismatch,
		domain.ErrTotalMismatch,
		domain.ErrAmountNegative,
		domain.ErrStatusUnknown,
		domain.ErrPaymentStatusUnknown,
		domain.ErrShippingAddressRequired,
		domain.ErrProductNotFound,
		domain.ErrInsufficientStock,
		domain.ErrInvalidTransition,
	}
	for _, sentinel := range validation {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeDomainError(w http.ResponseWriter, err error) {
	status, message := mapError(err)
	writeError(w, status, message)
}
