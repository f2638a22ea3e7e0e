package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ticketledger/ticket-ledger/internal/api/dto"
	"github.com/ticketledger/ticket-ledger/internal/domain"
	"github.com/ticketledger/ticket-ledger/internal/ledger"
	"github.com/ticketledger/ticket-ledger/internal/service"
	apperrors "github.com/ticketledger/ticket-ledger/pkg/util/errorutil"
)

// TicketsHandler manages ticket endpoints. Each mutation mines one block.
type TicketsHandler struct {
	service *service.LedgerService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ledgerService *service.LedgerService) *TicketsHandler {
	return &TicketsHandler{service: ledgerService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Title) == "" {
		return apperrors.NewValidationError("title required", nil)
	}

	ticket, receipt, err := h.service.CreateTicket(c.UserContext(), principal.Address, req.Title, req.Description)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketMutation(ticket, receipt)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.GetTicket(c.UserContext(), principal.Address, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// UpdateStatus PATCH /tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, receipt, err := h.service.UpdateTicketStatus(c.UserContext(), principal.Address, id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketMutation(ticket, receipt)})
}

// History GET /tickets/:id/history.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	limit := parseInt(c.Query("limit"), 100)
	offset := parseInt(c.Query("offset"), 0)

	entries, err := h.service.TicketHistory(c.UserContext(), principal.Address, id, limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.TicketHistoryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, dto.TicketHistoryResponse{
			ID:          e.ID,
			ChangedBy:   e.ChangedBy,
			ChangeType:  e.ChangeType,
			OldStatus:   e.OldStatus,
			NewStatus:   e.NewStatus,
			BlockHeight: e.BlockHeight,
			TxID:        e.TxID,
			CreatedAt:   e.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func ticketID(c *fiber.Ctx) (uint64, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return 0, apperrors.NewValidationError("ticket id must be an unsigned integer", nil)
	}
	return id, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:              ticket.ID,
		Owner:           ticket.Owner,
		Title:           ticket.Title,
		Description:     ticket.Description,
		Status:          ticket.Status,
		StatusName:      ticket.Status.String(),
		CreatedAtHeight: ticket.CreatedAt,
		UpdatedAtHeight: ticket.UpdatedAt,
	}
}

func ticketMutation(ticket *domain.Ticket, receipt *ledger.Receipt) dto.TicketMutationResponse {
	return dto.TicketMutationResponse{
		Ticket:      ticketResponse(ticket),
		TxID:        receipt.TxID,
		BlockHeight: receipt.BlockHeight,
	}
}
