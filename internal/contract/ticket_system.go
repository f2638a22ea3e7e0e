// Package contract holds the contracts deployable on the simulated ledger.
package contract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ticketledger/ticket-ledger/internal/domain"
	"github.com/ticketledger/ticket-ledger/internal/events"
	"github.com/ticketledger/ticket-ledger/internal/ledger"
	"github.com/ticketledger/ticket-ledger/internal/repository"
	"github.com/ticketledger/ticket-ledger/internal/value"
)

// DefaultName is the name the ticket system is deployed under.
const DefaultName = "ticket-system"

// Error codes carried in (err uN) responses.
const (
	ErrNotAuthorized  value.UInt = 100
	ErrTicketNotFound value.UInt = 101
	ErrInvalidStatus  value.UInt = 102
	ErrInvalidInput   value.UInt = 103
)

// Function names.
const (
	FnCreateTicket       = "create-ticket"
	FnGetTicket          = "get-ticket"
	FnUpdateTicketStatus = "update-ticket-status"
	FnGetTicketCount     = "get-ticket-count"
	FnAddStaffMember     = "add-staff-member"
	FnRemoveStaffMember  = "remove-staff-member"
	FnIsStaffMember      = "is-staff-member"
)

// Options tunes the authorization policy of a deployment.
type Options struct {
	// StaffOnlyStatusUpdates refuses status updates from a ticket's owner
	// unless the owner is also staff.
	StaffOnlyStatusUpdates bool
}

// TicketSystem is the ticket registry and staff directory contract.
type TicketSystem struct {
	tickets repository.TicketRepository
	staff   repository.StaffRepository
	opts    Options
}

// NewTicketSystem builds the contract over store.
func NewTicketSystem(store repository.Store, opts Options) *TicketSystem {
	return &TicketSystem{tickets: store.Tickets, staff: store.Staff, opts: opts}
}

// Functions implements ledger.Contract.
func (c *TicketSystem) Functions() []ledger.Function {
	return []ledger.Function{
		{
			Name: FnCreateTicket,
			Params: []ledger.Param{
				{Name: "title", Type: value.TypeUTF8(domain.MaxTitleLength)},
				{Name: "description", Type: value.TypeUTF8(domain.MaxDescriptionLength)},
			},
			Handler: c.createTicket,
		},
		{
			Name:     FnGetTicket,
			Params:   []ledger.Param{{Name: "ticket-id", Type: value.TypeUInt}},
			ReadOnly: true,
			Handler:  c.getTicket,
		},
		{
			Name: FnUpdateTicketStatus,
			Params: []ledger.Param{
				{Name: "ticket-id", Type: value.TypeUInt},
				{Name: "new-status", Type: value.TypeUInt},
			},
			Handler: c.updateTicketStatus,
		},
		{
			Name:     FnGetTicketCount,
			ReadOnly: true,
			Handler:  c.getTicketCount,
		},
		{
			Name:    FnAddStaffMember,
			Params:  []ledger.Param{{Name: "staff", Type: value.TypePrincipal}},
			Handler: c.addStaffMember,
		},
		{
			Name:    FnRemoveStaffMember,
			Params:  []ledger.Param{{Name: "staff", Type: value.TypePrincipal}},
			Handler: c.removeStaffMember,
		},
		{
			Name:     FnIsStaffMember,
			Params:   []ledger.Param{{Name: "who", Type: value.TypePrincipal}},
			ReadOnly: true,
			Handler:  c.isStaffMember,
		},
	}
}

func (c *TicketSystem) createTicket(ctx context.Context, call *ledger.Call, args []value.Value) (value.Value, error) {
	title := string(args[0].(value.UTF8))
	description := string(args[1].(value.UTF8))
	if strings.TrimSpace(title) == "" {
		return value.Err(ErrInvalidInput), nil
	}

	ticket := &domain.Ticket{
		Owner:       call.Sender,
		Title:       title,
		Description: description,
		Status:      domain.TicketStatusOpen,
		CreatedAt:   call.BlockHeight,
		UpdatedAt:   call.BlockHeight,
	}
	if err := c.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	call.Emit(events.EventTicketCreated, ticket.ID, events.TicketCreatedPayload{
		Owner: ticket.Owner,
		Title: ticket.Title,
	})
	return value.Ok(value.UInt(ticket.ID)), nil
}

func (c *TicketSystem) getTicket(ctx context.Context, _ *ledger.Call, args []value.Value) (value.Value, error) {
	ticket, err := c.tickets.GetByID(ctx, uint64(args[0].(value.UInt)))
	if errors.Is(err, repository.ErrNotFound) {
		return value.None(), nil
	}
	if err != nil {
		return nil, err
	}
	return value.Some(TicketTuple(ticket)), nil
}

func (c *TicketSystem) updateTicketStatus(ctx context.Context, call *ledger.Call, args []value.Value) (value.Value, error) {
	id := uint64(args[0].(value.UInt))
	status := domain.TicketStatus(args[1].(value.UInt))

	ticket, err := c.tickets.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return value.Err(ErrTicketNotFound), nil
	}
	if err != nil {
		return nil, err
	}

	allowed, err := c.canUpdate(ctx, call.Sender, ticket)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return value.Err(ErrNotAuthorized), nil
	}
	if !status.Valid() {
		return value.Err(ErrInvalidStatus), nil
	}

	old := ticket.Status
	ticket.Status = status
	ticket.UpdatedAt = call.BlockHeight
	if err := c.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	call.Emit(events.EventTicketStatusChanged, ticket.ID, events.TicketStatusChangedPayload{
		OldStatus: old,
		NewStatus: status,
	})
	return value.Ok(value.Bool(true)), nil
}

func (c *TicketSystem) canUpdate(ctx context.Context, sender domain.Principal, ticket *domain.Ticket) (bool, error) {
	if sender == ticket.Owner && !c.opts.StaffOnlyStatusUpdates {
		return true, nil
	}
	return c.isStaff(ctx, sender)
}

func (c *TicketSystem) getTicketCount(ctx context.Context, _ *ledger.Call, _ []value.Value) (value.Value, error) {
	last, err := c.tickets.LastID(ctx)
	if err != nil {
		return nil, err
	}
	return value.UInt(last), nil
}

func (c *TicketSystem) addStaffMember(ctx context.Context, call *ledger.Call, args []value.Value) (value.Value, error) {
	if call.Sender != call.Deployer {
		return value.Err(ErrNotAuthorized), nil
	}
	member := domain.Principal(args[0].(value.Principal))
	added, err := c.staff.Add(ctx, &domain.StaffMember{
		Principal: member,
		AddedBy:   call.Sender,
		AddedAt:   call.BlockHeight,
	})
	if err != nil {
		return nil, err
	}
	if added {
		call.Emit(events.EventStaffMemberAdded, 0, events.StaffMemberPayload{Member: member})
	}
	return value.Ok(value.Bool(true)), nil
}

func (c *TicketSystem) removeStaffMember(ctx context.Context, call *ledger.Call, args []value.Value) (value.Value, error) {
	if call.Sender != call.Deployer {
		return value.Err(ErrNotAuthorized), nil
	}
	member := domain.Principal(args[0].(value.Principal))
	removed, err := c.staff.Remove(ctx, member)
	if err != nil {
		return nil, err
	}
	if removed {
		call.Emit(events.EventStaffMemberRemoved, 0, events.StaffMemberPayload{Member: member})
	}
	return value.Ok(value.Bool(removed)), nil
}

func (c *TicketSystem) isStaffMember(ctx context.Context, _ *ledger.Call, args []value.Value) (value.Value, error) {
	ok, err := c.isStaff(ctx, domain.Principal(args[0].(value.Principal)))
	if err != nil {
		return nil, err
	}
	return value.Bool(ok), nil
}

func (c *TicketSystem) isStaff(ctx context.Context, who domain.Principal) (bool, error) {
	_, err := c.staff.Get(ctx, who)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// TicketTuple renders a ticket the way get-ticket returns it.
func TicketTuple(t *domain.Ticket) value.Tuple {
	return value.NewTuple(map[string]value.Value{
		"id":          value.UInt(t.ID),
		"owner":       value.Principal(t.Owner),
		"title":       value.UTF8(t.Title),
		"description": value.UTF8(t.Description),
		"status":      value.UInt(t.Status),
		"created-at":  value.UInt(t.CreatedAt),
		"updated-at":  value.UInt(t.UpdatedAt),
	})
}

// TicketFromTuple is the inverse of TicketTuple.
func TicketFromTuple(t value.Tuple) (*domain.Ticket, error) {
	uints := map[string]uint64{}
	for _, name := range []string{"id", "status", "created-at", "updated-at"} {
		v, err := tupleField[value.UInt](t, name)
		if err != nil {
			return nil, err
		}
		uints[name] = uint64(v)
	}
	owner, err := tupleField[value.Principal](t, "owner")
	if err != nil {
		return nil, err
	}
	title, err := tupleField[value.UTF8](t, "title")
	if err != nil {
		return nil, err
	}
	description, err := tupleField[value.UTF8](t, "description")
	if err != nil {
		return nil, err
	}
	return &domain.Ticket{
		ID:          uints["id"],
		Owner:       domain.Principal(owner),
		Title:       string(title),
		Description: string(description),
		Status:      domain.TicketStatus(uints["status"]),
		CreatedAt:   uints["created-at"],
		UpdatedAt:   uints["updated-at"],
	}, nil
}

func tupleField[T value.Value](t value.Tuple, name string) (T, error) {
	var zero T
	v, ok := t.Get(name)
	if !ok {
		return zero, fmt.Errorf("ticket tuple: missing %s", name)
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("ticket tuple: %s is %s", name, v.Kind())
	}
	return typed, nil
}
