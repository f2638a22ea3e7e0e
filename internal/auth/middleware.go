package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ticketledger/ticket-ledger/internal/domain"
	"github.com/ticketledger/ticket-ledger/internal/ledger"
	apperrors "github.com/ticketledger/ticket-ledger/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller: a genesis account.
type Principal struct {
	Account string
	Address domain.Principal
}

// AccountDirectory resolves genesis accounts by name.
type AccountDirectory interface {
	Account(name string) (ledger.Account, bool)
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens   *TokenManager
	accounts AccountDirectory
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, accounts AccountDirectory) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, accounts: accounts}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	account, ok := m.accounts.Account(claims.Account)
	if !ok || account.Address != claims.Principal() {
		return apperrors.NewUnauthorized("account not found")
	}

	c.Locals(principalKey, &Principal{Account: account.Name, Address: account.Address})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
