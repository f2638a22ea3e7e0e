package dto

import (
	"time"

	"github.com/guregu/null/v5"

	"github.com/ticketledger/ticket-ledger/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// UpdateTicketStatusRequest payload.
type UpdateTicketStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// TicketResponse mirrors the contract's ticket tuple. Times are block heights.
type TicketResponse struct {
	ID              uint64              `json:"id"`
	Owner           domain.Principal    `json:"owner"`
	Title           string              `json:"title"`
	Description     string              `json:"description"`
	Status          domain.TicketStatus `json:"status"`
	StatusName      string              `json:"status_name"`
	CreatedAtHeight uint64              `json:"created_at_height"`
	UpdatedAtHeight uint64              `json:"updated_at_height"`
}

// TicketMutationResponse returns the ticket with the tx that changed it.
type TicketMutationResponse struct {
	Ticket      TicketResponse `json:"ticket"`
	TxID        string         `json:"tx_id"`
	BlockHeight uint64         `json:"block_height"`
}

// TicketHistoryResponse is one indexed ticket change.
type TicketHistoryResponse struct {
	ID          string                  `json:"id"`
	ChangedBy   domain.Principal        `json:"changed_by"`
	ChangeType  domain.TicketChangeType `json:"change_type"`
	OldStatus   null.Int                `json:"old_status"`
	NewStatus   domain.TicketStatus     `json:"new_status"`
	BlockHeight uint64                  `json:"block_height"`
	TxID        string                  `json:"tx_id"`
	CreatedAt   time.Time               `json:"created_at"`
}
