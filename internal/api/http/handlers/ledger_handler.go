package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/ticketledger/ticket-ledger/internal/api/dto"
	"github.com/ticketledger/ticket-ledger/internal/auth"
	"github.com/ticketledger/ticket-ledger/internal/ledger"
	"github.com/ticketledger/ticket-ledger/internal/service"
	"github.com/ticketledger/ticket-ledger/internal/value"
	apperrors "github.com/ticketledger/ticket-ledger/pkg/util/errorutil"
)

// LedgerHandler exposes raw block submission and read-only calls.
type LedgerHandler struct {
	service *service.LedgerService
}

// NewLedgerHandler constructs handler.
func NewLedgerHandler(ledgerService *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{service: ledgerService}
}

// SubmitBlock POST /blocks. Every call is sent by the authenticated account.
func (h *LedgerHandler) SubmitBlock(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.SubmitBlockRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", map[string]any{"reason": err.Error()})
	}

	txs := make([]service.TxInput, 0, len(req.Transactions))
	for i, tx := range req.Transactions {
		if tx.Contract == "" || tx.Function == "" {
			return apperrors.NewValidationError("contract and function required", map[string]any{"index": i})
		}
		txs = append(txs, service.TxInput{Contract: tx.Contract, Function: tx.Function, Args: unwrapArgs(tx.Args)})
	}

	block, err := h.service.SubmitBlock(c.UserContext(), principal.Address, txs)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": blockResponse(block)})
}

// GetBlock GET /blocks/:height.
func (h *LedgerHandler) GetBlock(c *fiber.Ctx) error {
	height, err := strconv.ParseUint(c.Params("height"), 10, 64)
	if err != nil {
		return apperrors.NewValidationError("height must be an unsigned integer", nil)
	}
	block, err := h.service.Block(height)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": blockResponse(block)})
}

// CallReadOnly POST /contracts/:contract/read-only/:function.
func (h *LedgerHandler) CallReadOnly(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ReadOnlyRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", map[string]any{"reason": err.Error()})
		}
	}

	out, err := h.service.CallReadOnly(c.UserContext(), principal.Address, c.Params("contract"), c.Params("function"), unwrapArgs(req.Args))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": valueResponse(out)})
}

func requirePrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("account required")
	}
	return principal, nil
}

func unwrapArgs(args []value.JSON) []value.Value {
	out := make([]value.Value, len(args))
	for i, a := range args {
		out[i] = a.Value
	}
	return out
}

func valueResponse(v value.Value) dto.ValueResponse {
	resp := dto.ValueResponse{Value: value.JSON{Value: v}}
	if v != nil {
		resp.Repr = v.String()
	}
	return resp
}

func blockResponse(block *ledger.Block) dto.BlockResponse {
	receipts := make([]dto.ReceiptResponse, 0, len(block.Receipts))
	for _, r := range block.Receipts {
		receipts = append(receipts, receiptResponse(&r))
	}
	return dto.BlockResponse{
		Height:     block.Height,
		Hash:       block.Hash,
		ParentHash: block.ParentHash,
		Timestamp:  block.Timestamp,
		Receipts:   receipts,
	}
}

func receiptResponse(r *ledger.Receipt) dto.ReceiptResponse {
	return dto.ReceiptResponse{
		TxID:        r.TxID,
		BlockHeight: r.BlockHeight,
		Contract:    r.Contract,
		Function:    r.Function,
		Sender:      r.Sender,
		Result:      valueResponse(r.Result),
		Events:      r.Events,
	}
}
