package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ticketledger/ticket-ledger/internal/api/dto"
	"github.com/ticketledger/ticket-ledger/internal/service"
	apperrors "github.com/ticketledger/ticket-ledger/pkg/util/errorutil"
)

// AuthHandler exposes login for genesis accounts.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Account == "" || req.Passphrase == "" {
		return apperrors.NewValidationError("account and passphrase required", nil)
	}

	account, token, exp, err := h.auth.Login(c.UserContext(), req.Account, req.Passphrase)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"data": dto.LoginResponse{
			Account:   account.Name,
			Address:   account.Address,
			Token:     token,
			ExpiresAt: exp,
		},
	})
}
