package domain

// StaffMember is a principal granted privilege to update any ticket.
type StaffMember struct {
	Principal Principal
	AddedBy   Principal
	AddedAt   uint64
}
