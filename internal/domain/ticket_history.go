package domain

import (
	"time"

	"github.com/guregu/null/v5"
)

// TicketChangeType captures what changed in a history entry.
type TicketChangeType string

const (
	ChangeTypeCreated TicketChangeType = "CREATED"
	ChangeTypeStatus  TicketChangeType = "STATUS_CHANGE"
)

// TicketHistory is an immutable audit entry derived from ledger events.
// OldStatus is null for the creation entry.
type TicketHistory struct {
	ID          string
	TicketID    uint64
	ChangedBy   Principal
	ChangeType  TicketChangeType
	OldStatus   null.Int
	NewStatus   TicketStatus
	BlockHeight uint64
	TxID        string
	CreatedAt   time.Time
}
