package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ticketledger/ticket-ledger/internal/api/dto"
	"github.com/ticketledger/ticket-ledger/internal/domain"
	"github.com/ticketledger/ticket-ledger/internal/service"
	apperrors "github.com/ticketledger/ticket-ledger/pkg/util/errorutil"
)

// StaffHandler manages the staff directory. The contract refuses changes
// from anyone but its deployer.
type StaffHandler struct {
	service *service.LedgerService
}

// NewStaffHandler constructs handler.
func NewStaffHandler(ledgerService *service.LedgerService) *StaffHandler {
	return &StaffHandler{service: ledgerService}
}

// AddStaff POST /staff.
func (h *StaffHandler) AddStaff(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.AddStaffRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Principal == "" {
		return apperrors.NewValidationError("principal required", nil)
	}

	receipt, err := h.service.AddStaffMember(c.UserContext(), principal.Address, req.Principal)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.StaffMutationResponse{
		Principal:   req.Principal,
		Changed:     len(receipt.Events) > 0,
		TxID:        receipt.TxID,
		BlockHeight: receipt.BlockHeight,
	}})
}

// RemoveStaff DELETE /staff/:principal.
func (h *StaffHandler) RemoveStaff(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	member := domain.Principal(c.Params("principal"))

	removed, receipt, err := h.service.RemoveStaffMember(c.UserContext(), principal.Address, member)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.StaffMutationResponse{
		Principal:   member,
		Changed:     removed,
		TxID:        receipt.TxID,
		BlockHeight: receipt.BlockHeight,
	}})
}

// GetStaff GET /staff/:principal.
func (h *StaffHandler) GetStaff(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	member := domain.Principal(c.Params("principal"))

	isStaff, err := h.service.IsStaffMember(c.UserContext(), principal.Address, member)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.StaffMembershipResponse{Principal: member, IsStaff: isStaff}})
}
