package domain

// Principal is a ledger account or contract address.
type Principal string

// TicketStatus enumerates lifecycle states for tickets. Values are the
// unsigned integers the contract exposes.
type TicketStatus uint64

const (
	TicketStatusOpen       TicketStatus = 1
	TicketStatusInProgress TicketStatus = 2
	TicketStatusResolved   TicketStatus = 3
	TicketStatusClosed     TicketStatus = 4
)

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	return s >= TicketStatusOpen && s <= TicketStatusClosed
}

func (s TicketStatus) String() string {
	switch s {
	case TicketStatusOpen:
		return "OPEN"
	case TicketStatusInProgress:
		return "IN_PROGRESS"
	case TicketStatusResolved:
		return "RESOLVED"
	case TicketStatusClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
)

// Ticket is the aggregate for support requests. CreatedAt and UpdatedAt
// are block heights.
type Ticket struct {
	ID          uint64       `cbor:"id"`
	Owner       Principal    `cbor:"owner"`
	Title       string       `cbor:"title"`
	Description string       `cbor:"description"`
	Status      TicketStatus `cbor:"status"`
	CreatedAt   uint64       `cbor:"created_at"`
	UpdatedAt   uint64       `cbor:"updated_at"`
}
