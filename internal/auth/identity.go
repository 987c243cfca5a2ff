package auth

import "errors"

// RoleAdmin — роль с полным доступом ко всем заказам.
const RoleAdmin = "admin"

// RoleCustomer — роль по умолчанию, когда токен её не содержит.
const RoleCustomer = "customer"

// Identity — личность вызывающего, извлечённая из credential.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

// IsAdmin сообщает, обладает ли личность административными правами.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

var (
	// ErrUnauthenticated — credential отсутствует, невалиден или без нужных claims.
	ErrUnauthenticated = errors.New("could not validate credentials")
	// ErrForbidden — личность аутентифицирована, но прав недостаточно.
	ErrForbidden = errors.New("insufficient permissions")
)

// TokenVerifier абстрагирует формат и криптографию credential:
// сервису важны только claims, а не конкретный токен.
type TokenVerifier interface {
	// Verify проверяет подпись и срок действия токена и возвращает Identity
	// или ErrUnauthenticated.
	Verify(token string) (Identity, error)
}
