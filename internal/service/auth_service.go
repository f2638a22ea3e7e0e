package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ticketledger/ticket-ledger/internal/auth"
	"github.com/ticketledger/ticket-ledger/internal/config"
	"github.com/ticketledger/ticket-ledger/internal/ledger"
	apperrors "github.com/ticketledger/ticket-ledger/pkg/util/errorutil"
)

// AuthService logs genesis accounts in and issues API tokens.
type AuthService struct {
	accounts    auth.AccountDirectory
	credentials map[string]string
	tokenMgr    *auth.TokenManager
}

// AuthDependencies encapsulates requirements for auth service.
type AuthDependencies struct {
	Genesis  ledger.Genesis
	Accounts auth.AccountDirectory
}

// NewAuthService builds the service. Plaintext genesis passphrases are
// hashed once at startup; accounts without credentials fall back to the
// devnet passphrase, or cannot log in when none is configured.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) (*AuthService, error) {
	var devnetHash string
	if cfg.DevnetPassphrase != "" {
		hash, err := auth.HashPassword(cfg.DevnetPassphrase, cfg.BcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash devnet passphrase: %w", err)
		}
		devnetHash = hash
	}

	credentials := make(map[string]string, len(deps.Genesis.Accounts))
	for _, a := range deps.Genesis.Accounts {
		switch {
		case a.PassphraseHash != "":
			if !auth.IsHashed(a.PassphraseHash) {
				return nil, fmt.Errorf("genesis account %q: passphrase_hash is not a bcrypt hash", a.Name)
			}
			credentials[a.Name] = a.PassphraseHash
		case a.Passphrase != "":
			hash, err := auth.HashPassword(a.Passphrase, cfg.BcryptCost)
			if err != nil {
				return nil, fmt.Errorf("hash passphrase for %q: %w", a.Name, err)
			}
			credentials[a.Name] = hash
		case devnetHash != "":
			credentials[a.Name] = devnetHash
		}
	}

	return &AuthService{
		accounts:    deps.Accounts,
		credentials: credentials,
		tokenMgr:    auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
	}, nil
}

// Login authenticates a genesis account.
func (s *AuthService) Login(_ context.Context, accountName, passphrase string) (ledger.Account, string, time.Time, error) {
	account, ok := s.accounts.Account(accountName)
	hash, hasCredentials := s.credentials[accountName]
	if !ok || !hasCredentials {
		return ledger.Account{}, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(hash, passphrase); err != nil {
		return ledger.Account{}, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(account.Name, account.Address)
	if err != nil {
		return ledger.Account{}, "", time.Time{}, err
	}
	return account, token, exp, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
