package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ticketledger/ticket-ledger/internal/domain"
	"github.com/ticketledger/ticket-ledger/internal/ledger"
)

type staticAccounts map[string]ledger.Account

func (s staticAccounts) Account(name string) (ledger.Account, bool) {
	a, ok := s[name]
	return a, ok
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, expiresAt, err := tm.GenerateToken("wallet_1", "ST1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), expiresAt, time.Minute)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "wallet_1", claims.Account)
	assert.Equal(t, domain.Principal("ST1"), claims.Principal())

	_, err = NewTokenManager("other", 5).ParseToken(token)
	require.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	tm := NewTokenManager("secret", 1)
	tm.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := tm.GenerateToken("wallet_1", "ST1")
	require.NoError(t, err)

	_, err = tm.ParseToken(token)
	require.Error(t, err)
}

func TestPasswordHelpers(t *testing.T) {
	hash, err := HashPassword("open sesame", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, IsHashed(hash))
	assert.False(t, IsHashed("open sesame"))
	require.NoError(t, ComparePassword(hash, "open sesame"))
	require.Error(t, ComparePassword(hash, "wrong"))
}

func TestMiddleware(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	accounts := staticAccounts{
		"deployer": {Name: "deployer", Address: "ST0"},
		"wallet_1": {Name: "wallet_1", Address: "ST1"},
	}
	mw := NewAuthMiddleware(tm, accounts)

	app := fiber.New()
	app.Use(mw.Handle)
	app.Get("/whoami", RequireAccount(), func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		return c.SendString(string(p.Address))
	})

	call := func(path, header string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	walletToken, _, err := tm.GenerateToken("wallet_1", "ST1")
	require.NoError(t, err)
	forged, _, err := tm.GenerateToken("wallet_1", "ST0")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, call("/whoami", "Bearer "+walletToken))
	assert.NotEqual(t, http.StatusOK, call("/whoami", ""))
	assert.NotEqual(t, http.StatusOK, call("/whoami", "Token "+walletToken))
	assert.NotEqual(t, http.StatusOK, call("/whoami", "Bearer "+forged))
}
