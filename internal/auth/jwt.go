package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// JWTVerifier проверяет HS256-токены с claims userId/email/role —
// формат, который выпускает сервис пользователей платформы.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier создаёт верификатор с общим секретом платформы.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// Verify разбирает и валидирует токен. Подпись, срок действия и
// обязательные claims (userId, email) проверяются; роль по умолчанию — customer.
func (v *JWTVerifier) Verify(token string) (Identity, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Identity{}, ErrUnauthenticated
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrUnauthenticated
	}

	userID, _ := claims["userId"].(string)
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	if userID == "" || email == "" {
		return Identity{}, ErrUnauthenticated
	}
	if role == "" {
		role = RoleCustomer
	}

	return Identity{UserID: userID, Email: email, Role: role}, nil
}

var _ TokenVerifier = (*JWTVerifier)(nil)
