package events

import (
	"time"

	"github.com/ticketledger/ticket-ledger/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventStaffMemberAdded    EventType = "staff_member_added"
	EventStaffMemberRemoved  EventType = "staff_member_removed"
)

// Event represents a contract event recorded in a receipt. Ledger fields
// (ID, TxID, BlockHeight, Contract, Actor, Timestamp) are filled in by the
// chain when the transaction is applied.
type Event struct {
	ID          string           `json:"id"`
	Type        EventType        `json:"type"`
	Contract    string           `json:"contract"`
	TicketID    uint64           `json:"ticket_id,omitempty"`
	Actor       domain.Principal `json:"actor"`
	BlockHeight uint64           `json:"block_height"`
	TxID        string           `json:"tx_id"`
	Timestamp   time.Time        `json:"timestamp"`
	Payload     interface{}      `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Owner domain.Principal `json:"owner"`
	Title string           `json:"title"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// StaffMemberPayload payload for staff directory changes.
type StaffMemberPayload struct {
	Member domain.Principal `json:"member"`
}
