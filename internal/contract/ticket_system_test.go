package contract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketledger/ticket-ledger/internal/domain"
	"github.com/ticketledger/ticket-ledger/internal/events"
	"github.com/ticketledger/ticket-ledger/internal/ledger"
	"github.com/ticketledger/ticket-ledger/internal/ledger/ledgertest"
	"github.com/ticketledger/ticket-ledger/internal/value"
)

func deploy(t *testing.T, opts Options) *ledgertest.Harness {
	t.Helper()
	h := ledgertest.New(t)
	h.Deploy(DefaultName, NewTicketSystem(h.Store, opts))
	return h
}

func createTicket(title, description string, sender domain.Principal) ledger.Tx {
	return ledger.ContractCall(DefaultName, FnCreateTicket,
		[]value.Value{value.UTF8(title), value.UTF8(description)}, sender)
}

func updateStatus(id, status uint64, sender domain.Principal) ledger.Tx {
	return ledger.ContractCall(DefaultName, FnUpdateTicketStatus,
		[]value.Value{value.UInt(id), value.UInt(status)}, sender)
}

func addStaff(member, sender domain.Principal) ledger.Tx {
	return ledger.ContractCall(DefaultName, FnAddStaffMember, []value.Value{value.Principal(member)}, sender)
}

func removeStaff(member, sender domain.Principal) ledger.Tx {
	return ledger.ContractCall(DefaultName, FnRemoveStaffMember, []value.Value{value.Principal(member)}, sender)
}

func TestUsersCanCreateTickets(t *testing.T) {
	h := deploy(t, Options{})
	user1 := h.Address("wallet_1")

	block := h.MineBlock(createTicket("My First Ticket", "I'm having an issue with my account", user1))
	ledgertest.ExpectUint(t, ledgertest.ExpectOk(t, block.Receipts[0].Result), 1)

	got := h.CallReadOnly(DefaultName, FnGetTicket, []value.Value{value.UInt(1)}, user1)
	ticket := ledgertest.ExpectTuple(t, ledgertest.ExpectSome(t, got))
	ledgertest.ExpectPrincipal(t, ticket["owner"], user1)
	ledgertest.ExpectUTF8(t, ticket["title"], "My First Ticket")
	ledgertest.ExpectUTF8(t, ticket["description"], "I'm having an issue with my account")
	ledgertest.ExpectUint(t, ticket["status"], uint64(domain.TicketStatusOpen))
	ledgertest.ExpectUint(t, ticket["created-at"], block.Height)
	ledgertest.ExpectUint(t, ticket["updated-at"], block.Height)
}

func TestTicketIDsAreSequential(t *testing.T) {
	h := deploy(t, Options{})
	user1 := h.Address("wallet_1")
	user2 := h.Address("wallet_2")

	block := h.MineBlock(
		createTicket("one", "", user1),
		createTicket("two", "", user2),
	)
	block2 := h.MineBlock(createTicket("three", "", user1))

	ledgertest.ExpectUint(t, ledgertest.ExpectOk(t, block.Receipts[0].Result), 1)
	ledgertest.ExpectUint(t, ledgertest.ExpectOk(t, block.Receipts[1].Result), 2)
	ledgertest.ExpectUint(t, ledgertest.ExpectOk(t, block2.Receipts[0].Result), 3)
	ledgertest.ExpectUint(t, h.CallReadOnly(DefaultName, FnGetTicketCount, nil, user1), 3)
}

func TestGetMissingTicketIsNone(t *testing.T) {
	h := deploy(t, Options{})
	ledgertest.ExpectNone(t, h.CallReadOnly(DefaultName, FnGetTicket, []value.Value{value.UInt(1)}, h.Address("wallet_1")))
	ledgertest.ExpectUint(t, h.CallReadOnly(DefaultName, FnGetTicketCount, nil, h.Address("wallet_1")), 0)
}

func TestEmptyTitleIsRejected(t *testing.T) {
	h := deploy(t, Options{})
	block := h.MineBlock(createTicket("   ", "blank", h.Address("wallet_1")))
	ledgertest.ExpectUint(t, ledgertest.ExpectErr(t, block.Receipts[0].Result), uint64(ErrInvalidInput))
	ledgertest.ExpectUint(t, h.CallReadOnly(DefaultName, FnGetTicketCount, nil, h.Address("wallet_1")), 0)
}

func TestOverlongTitleRejectsBlock(t *testing.T) {
	h := deploy(t, Options{})
	long := make([]rune, domain.MaxTitleLength+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err := h.Chain.MineBlock(context.Background(), []ledger.Tx{createTicket(string(long), "", h.Address("wallet_1"))})
	require.ErrorIs(t, err, ledger.ErrBadArguments)
	assert.Equal(t, uint64(0), h.Chain.Height())
}

func TestInvalidUTF8TitleRejectsBlock(t *testing.T) {
	h := deploy(t, Options{})
	_, err := h.Chain.MineBlock(context.Background(), []ledger.Tx{createTicket("bad\xff\xfe title", "", h.Address("wallet_1"))})
	require.ErrorIs(t, err, ledger.ErrBadArguments)
	assert.Equal(t, uint64(0), h.Chain.Height())
	ledgertest.ExpectUint(t, h.CallReadOnly(DefaultName, FnGetTicketCount, nil, h.Address("wallet_1")), 0)
}

func TestOnlyAuthorizedUsersCanUpdateStatus(t *testing.T) {
	h := deploy(t, Options{})
	deployer := h.Address(ledger.DeployerAccount)
	user1 := h.Address("wallet_1")
	user2 := h.Address("wallet_2")
	user3 := h.Address("wallet_3")

	h.MineBlock(createTicket("Test Ticket", "Description", user1))
	block := h.MineBlock(addStaff(user2, deployer))
	ledgertest.ExpectBool(t, ledgertest.ExpectOk(t, block.Receipts[0].Result), true)

	block = h.MineBlock(updateStatus(1, uint64(domain.TicketStatusInProgress), user2))
	ledgertest.ExpectBool(t, ledgertest.ExpectOk(t, block.Receipts[0].Result), true)

	block = h.MineBlock(updateStatus(1, uint64(domain.TicketStatusResolved), user3))
	ledgertest.ExpectUint(t, ledgertest.ExpectErr(t, block.Receipts[0].Result), uint64(ErrNotAuthorized))

	ticket := ledgertest.ExpectTuple(t, ledgertest.ExpectSome(t,
		h.CallReadOnly(DefaultName, FnGetTicket, []value.Value{value.UInt(1)}, user1)))
	ledgertest.ExpectUint(t, ticket["status"], uint64(domain.TicketStatusInProgress))
	ledgertest.ExpectUint(t, ticket["updated-at"], 3)
}

func TestOwnerMayUpdateOwnTicket(t *testing.T) {
	h := deploy(t, Options{})
	user1 := h.Address("wallet_1")

	h.MineBlock(createTicket("Test Ticket", "Description", user1))
	block := h.MineBlock(updateStatus(1, uint64(domain.TicketStatusClosed), user1))
	ledgertest.ExpectBool(t, ledgertest.ExpectOk(t, block.Receipts[0].Result), true)
}

func TestStaffOnlyStatusUpdatesRefusesOwner(t *testing.T) {
	h := deploy(t, Options{StaffOnlyStatusUpdates: true})
	deployer := h.Address(ledger.DeployerAccount)
	user1 := h.Address("wallet_1")
	user2 := h.Address("wallet_2")

	h.MineBlock(createTicket("Test Ticket", "Description", user1))
	h.MineBlock(addStaff(user2, deployer))

	block := h.MineBlock(updateStatus(1, uint64(domain.TicketStatusInProgress), user2))
	ledgertest.ExpectBool(t, ledgertest.ExpectOk(t, block.Receipts[0].Result), true)

	block = h.MineBlock(updateStatus(1, uint64(domain.TicketStatusResolved), user1))
	ledgertest.ExpectUint(t, ledgertest.ExpectErr(t, block.Receipts[0].Result), uint64(ErrNotAuthorized))
}

func TestUpdateStatusCheckOrder(t *testing.T) {
	h := deploy(t, Options{})
	user1 := h.Address("wallet_1")
	user3 := h.Address("wallet_3")

	h.MineBlock(createTicket("Test Ticket", "Description", user1))

	cases := []struct {
		name string
		tx   ledger.Tx
		want value.UInt
	}{
		{"missing ticket before auth", updateStatus(9, 9, user3), ErrTicketNotFound},
		{"auth before status", updateStatus(1, 9, user3), ErrNotAuthorized},
		{"status zero", updateStatus(1, 0, user1), ErrInvalidStatus},
		{"status five", updateStatus(1, 5, user1), ErrInvalidStatus},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			block := h.MineBlock(tc.tx)
			ledgertest.ExpectUint(t, ledgertest.ExpectErr(t, block.Receipts[0].Result), uint64(tc.want))
		})
	}
}

func TestStaffDirectory(t *testing.T) {
	h := deploy(t, Options{})
	deployer := h.Address(ledger.DeployerAccount)
	user1 := h.Address("wallet_1")
	user2 := h.Address("wallet_2")
	isStaff := func(who domain.Principal) value.Value {
		return h.CallReadOnly(DefaultName, FnIsStaffMember, []value.Value{value.Principal(who)}, user1)
	}

	block := h.MineBlock(addStaff(user2, user1))
	ledgertest.ExpectUint(t, ledgertest.ExpectErr(t, block.Receipts[0].Result), uint64(ErrNotAuthorized))
	ledgertest.ExpectBool(t, isStaff(user2), false)

	block = h.MineBlock(addStaff(user2, deployer), addStaff(user2, deployer))
	ledgertest.ExpectBool(t, ledgertest.ExpectOk(t, block.Receipts[0].Result), true)
	ledgertest.ExpectBool(t, ledgertest.ExpectOk(t, block.Receipts[1].Result), true)
	assert.Len(t, block.Receipts[0].Events, 1)
	assert.Empty(t, block.Receipts[1].Events, "re-adding a member changes nothing")
	ledgertest.ExpectBool(t, isStaff(user2), true)

	member, err := h.Store.Staff.Get(context.Background(), user2)
	require.NoError(t, err)
	assert.Equal(t, deployer, member.AddedBy)
	assert.Equal(t, block.Height, member.AddedAt)

	block = h.MineBlock(removeStaff(user2, user1))
	ledgertest.ExpectUint(t, ledgertest.ExpectErr(t, block.Receipts[0].Result), uint64(ErrNotAuthorized))

	block = h.MineBlock(removeStaff(user2, deployer), removeStaff(user2, deployer))
	ledgertest.ExpectBool(t, ledgertest.ExpectOk(t, block.Receipts[0].Result), true)
	ledgertest.ExpectBool(t, ledgertest.ExpectOk(t, block.Receipts[1].Result), false)
	ledgertest.ExpectBool(t, isStaff(user2), false)
}

func TestFailedTxLeavesNoStateAndLaterTxsApply(t *testing.T) {
	h := deploy(t, Options{})
	user1 := h.Address("wallet_1")
	user3 := h.Address("wallet_3")

	block := h.MineBlock(
		createTicket("first", "", user1),
		updateStatus(1, uint64(domain.TicketStatusClosed), user3),
		createTicket("", "", user1),
		createTicket("second", "", user1),
	)
	ledgertest.ExpectOk(t, block.Receipts[0].Result)
	ledgertest.ExpectErr(t, block.Receipts[1].Result)
	ledgertest.ExpectErr(t, block.Receipts[2].Result)
	ledgertest.ExpectUint(t, ledgertest.ExpectOk(t, block.Receipts[3].Result), 2)

	ticket := ledgertest.ExpectTuple(t, ledgertest.ExpectSome(t,
		h.CallReadOnly(DefaultName, FnGetTicket, []value.Value{value.UInt(1)}, user1)))
	ledgertest.ExpectUint(t, ticket["status"], uint64(domain.TicketStatusOpen))
}

func TestContractEvents(t *testing.T) {
	h := deploy(t, Options{})
	user1 := h.Address("wallet_1")

	var changes []events.TicketStatusChangedPayload
	h.Dispatcher.Subscribe(events.EventTicketStatusChanged, func(_ context.Context, e events.Event) error {
		changes = append(changes, e.Payload.(events.TicketStatusChangedPayload))
		return nil
	})

	block := h.MineBlock(createTicket("evented", "", user1))
	require.Len(t, block.Receipts[0].Events, 1)
	created := block.Receipts[0].Events[0]
	assert.Equal(t, events.EventTicketCreated, created.Type)
	assert.Equal(t, DefaultName, created.Contract)
	assert.Equal(t, uint64(1), created.TicketID)
	assert.Equal(t, events.TicketCreatedPayload{Owner: user1, Title: "evented"}, created.Payload)

	h.MineBlock(updateStatus(1, uint64(domain.TicketStatusResolved), user1))
	require.Len(t, changes, 1)
	assert.Equal(t, domain.TicketStatusOpen, changes[0].OldStatus)
	assert.Equal(t, domain.TicketStatusResolved, changes[0].NewStatus)
}

func TestTicketTupleRoundTrip(t *testing.T) {
	ticket := &domain.Ticket{ID: 4, Owner: "ST1", Title: "t", Description: "d", Status: domain.TicketStatusResolved, CreatedAt: 2, UpdatedAt: 7}
	back, err := TicketFromTuple(TicketTuple(ticket))
	require.NoError(t, err)
	assert.Equal(t, ticket, back)

	_, err = TicketFromTuple(value.NewTuple(map[string]value.Value{"id": value.Bool(true)}))
	require.Error(t, err)
}
