package auth

// Gate проверяет bearer credential и применяет базовые правила доступа.
// Правило владения заказом (owner-or-admin) остаётся на вызывающем коде.
type Gate struct {
	verifier TokenVerifier
}

// NewGate создаёт gate поверх верификатора токенов.
func NewGate(verifier TokenVerifier) *Gate {
	return &Gate{verifier: verifier}
}

// RequireUser возвращает личность вызывающего или ErrUnauthenticated.
func (g *Gate) RequireUser(token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrUnauthenticated
	}
	return g.verifier.Verify(token)
}

// RequireAdmin дополнительно требует роль admin; иначе ErrForbidden.
func (g *Gate) RequireAdmin(token string) (Identity, error) {
	identity, err := g.RequireUser(token)
	if err != nil {
		return Identity{}, err
	}
	if !identity.IsAdmin() {
		return Identity{}, ErrForbidden
	}
	return identity, nil
}

// Optional возвращает личность, если credential валиден, и false в любом
// другом случае. Никогда не возвращает ошибку.
func (g *Gate) Optional(token string) (Identity, bool) {
	if token == "" {
		return Identity{}, false
	}
	identity, err := g.verifier.Verify(token)
	if err != nil {
		return Identity{}, false
	}
	return identity, true
}
