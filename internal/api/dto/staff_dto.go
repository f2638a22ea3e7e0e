package dto

import "github.com/ticketledger/ticket-ledger/internal/domain"

// AddStaffRequest payload.
type AddStaffRequest struct {
	Principal domain.Principal `json:"principal"`
}

// StaffMembershipResponse answers a membership query.
type StaffMembershipResponse struct {
	Principal domain.Principal `json:"principal"`
	IsStaff   bool             `json:"is_staff"`
}

// StaffMutationResponse reports a staff directory change.
type StaffMutationResponse struct {
	Principal   domain.Principal `json:"principal"`
	Changed     bool             `json:"changed"`
	TxID        string           `json:"tx_id"`
	BlockHeight uint64           `json:"block_height"`
}
