package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/guregu/null/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketledger/ticket-ledger/internal/domain"
)

func TestMemoryTicketsAreNumberedSequentially(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for want := uint64(1); want <= 3; want++ {
		ticket := &domain.Ticket{Owner: "ST1", Title: "t", Status: domain.TicketStatusOpen}
		require.NoError(t, store.Tickets.Create(ctx, ticket))
		assert.Equal(t, want, ticket.ID)
	}

	last, err := store.Tickets.LastID(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), last)

	_, err = store.Tickets.GetByID(ctx, 4)
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.Tickets.Update(ctx, &domain.Ticket{ID: 9})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	ticket := &domain.Ticket{Owner: "ST1", Title: "original", Status: domain.TicketStatusOpen}
	require.NoError(t, store.Tickets.Create(ctx, ticket))

	got, err := store.Tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	got.Title = "mutated"

	again, err := store.Tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", again.Title)
}

func TestMemoryTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	failure := errors.New("abort")

	err := store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		assert.True(t, InTransaction(ctx))
		require.NoError(t, store.Tickets.Create(ctx, &domain.Ticket{Owner: "ST1"}))
		_, err := store.Staff.Add(ctx, &domain.StaffMember{Principal: "ST2"})
		require.NoError(t, err)
		return failure
	})
	require.ErrorIs(t, err, failure)

	last, err := store.Tickets.LastID(ctx)
	require.NoError(t, err)
	assert.Zero(t, last, "id counter must roll back too")

	_, err = store.Staff.Get(ctx, "ST2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryTransactionCommits(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	err := store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		return store.Tx.WithinTx(ctx, func(ctx context.Context) error {
			return store.Tickets.Create(ctx, &domain.Ticket{Owner: "ST1"})
		})
	})
	require.NoError(t, err)
	assert.False(t, InTransaction(ctx))

	got, err := store.Tickets.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.Principal("ST1"), got.Owner)
}

func TestMemoryNestedTransactionIsSavepoint(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	failure := errors.New("inner")

	err := store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, store.Tickets.Create(ctx, &domain.Ticket{Owner: "ST1"}))
		innerErr := store.Tx.WithinTx(ctx, func(ctx context.Context) error {
			require.NoError(t, store.Tickets.Create(ctx, &domain.Ticket{Owner: "ST2"}))
			return failure
		})
		assert.ErrorIs(t, innerErr, failure)
		return store.Tickets.Create(ctx, &domain.Ticket{Owner: "ST3"})
	})
	require.NoError(t, err)

	last, err := store.Tickets.LastID(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), last)

	second, err := store.Tickets.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, domain.Principal("ST3"), second.Owner)
}

func TestMemoryStaffAddIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	added, err := store.Staff.Add(ctx, &domain.StaffMember{Principal: "ST2", AddedBy: "ST0", AddedAt: 2})
	require.NoError(t, err)
	assert.True(t, added)

	added, err = store.Staff.Add(ctx, &domain.StaffMember{Principal: "ST2", AddedBy: "ST0", AddedAt: 5})
	require.NoError(t, err)
	assert.False(t, added)

	member, err := store.Staff.Get(ctx, "ST2")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), member.AddedAt, "first membership record is kept")

	removed, err := store.Staff.Remove(ctx, "ST2")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.Staff.Remove(ctx, "ST2")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestMemoryStaffListOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	for _, m := range []domain.StaffMember{
		{Principal: "STC", AddedAt: 3},
		{Principal: "STB", AddedAt: 1},
		{Principal: "STA", AddedAt: 1},
	} {
		m := m
		_, err := store.Staff.Add(ctx, &m)
		require.NoError(t, err)
	}

	all, err := store.Staff.List(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []domain.Principal{"STA", "STB", "STC"}, []domain.Principal{all[0].Principal, all[1].Principal, all[2].Principal})

	page, err := store.Staff.List(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, domain.Principal("STC"), page[0].Principal)

	empty, err := store.Staff.List(ctx, 10, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryHistory(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTicketHistoryRepository()

	require.NoError(t, repo.Create(ctx, &domain.TicketHistory{
		TicketID:   1,
		ChangeType: domain.ChangeTypeCreated,
		NewStatus:  domain.TicketStatusOpen,
	}))
	require.NoError(t, repo.Create(ctx, &domain.TicketHistory{
		TicketID:   1,
		ChangeType: domain.ChangeTypeStatus,
		OldStatus:  null.IntFrom(int64(domain.TicketStatusOpen)),
		NewStatus:  domain.TicketStatusInProgress,
	}))

	entries, err := repo.ListByTicket(ctx, 1, 0, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.False(t, entries[0].OldStatus.Valid)
	assert.Equal(t, int64(1), entries[1].OldStatus.Int64)
	assert.False(t, entries[1].CreatedAt.IsZero())

	none, err := repo.ListByTicket(ctx, 2, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewMemoryStore()

	err := store.Tickets.Create(ctx, &domain.Ticket{})
	assert.ErrorIs(t, err, context.Canceled)
}
