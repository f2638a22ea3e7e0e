package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ticketledger/ticket-ledger/internal/domain"
)

const testCachePrefix = "test:ticket:"

func newCachedStore(t *testing.T) (Store, TicketRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewMemoryStore()
	cached := NewCachedTicketRepository(store.Tickets, client, testCachePrefix, time.Minute, zap.NewNop())
	return store, cached, mr
}

func TestCachedTicketRepositoryReadThrough(t *testing.T) {
	store, cached, mr := newCachedStore(t)
	ctx := context.Background()

	ticket := &domain.Ticket{Owner: "ST1", Title: "cached", Status: domain.TicketStatusOpen}
	require.NoError(t, cached.Create(ctx, ticket))
	assert.False(t, mr.Exists(testCachePrefix+"1"))

	got, err := cached.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "cached", got.Title)
	assert.True(t, mr.Exists(testCachePrefix+"1"))
	assert.Equal(t, time.Minute, mr.TTL(testCachePrefix+"1"))

	// a write that skips the cache leaves the cached copy in place
	stale := *ticket
	stale.Title = "behind the cache"
	require.NoError(t, store.Tickets.Update(ctx, &stale))
	got, err = cached.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "cached", got.Title)

	_, err = cached.GetByID(ctx, 99)
	require.ErrorIs(t, err, ErrNotFound)
	assert.False(t, mr.Exists(testCachePrefix+"99"))
}

func TestCachedTicketRepositoryInvalidatesOnWrite(t *testing.T) {
	_, cached, mr := newCachedStore(t)
	ctx := context.Background()

	ticket := &domain.Ticket{Owner: "ST1", Title: "before", Status: domain.TicketStatusOpen}
	require.NoError(t, cached.Create(ctx, ticket))
	_, err := cached.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	require.True(t, mr.Exists(testCachePrefix+"1"))

	ticket.Title = "after"
	ticket.Status = domain.TicketStatusInProgress
	require.NoError(t, cached.Update(ctx, ticket))
	assert.False(t, mr.Exists(testCachePrefix+"1"))

	got, err := cached.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Title)
	assert.Equal(t, domain.TicketStatusInProgress, got.Status)
}

func TestCachedTicketRepositoryBypassedInTransaction(t *testing.T) {
	store, cached, mr := newCachedStore(t)
	ctx := context.Background()

	ticket := &domain.Ticket{Owner: "ST1", Title: "committed", Status: domain.TicketStatusOpen}
	require.NoError(t, cached.Create(ctx, ticket))
	_, err := cached.GetByID(ctx, ticket.ID)
	require.NoError(t, err)

	err = store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		pending := *ticket
		pending.Title = "pending"
		require.NoError(t, store.Tickets.Update(ctx, &pending))

		got, err := cached.GetByID(ctx, ticket.ID)
		require.NoError(t, err)
		assert.Equal(t, "pending", got.Title)
		return ErrNotFound
	})
	require.ErrorIs(t, err, ErrNotFound)

	mr.Del(testCachePrefix + "1")
	err = store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		_, err := cached.GetByID(ctx, ticket.ID)
		return err
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists(testCachePrefix+"1"), "reads inside a transaction must not fill the cache")

	got, err := cached.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "committed", got.Title)
}

func TestCachedTicketRepositoryDiscardsUndecodableEntry(t *testing.T) {
	_, cached, mr := newCachedStore(t)
	ctx := context.Background()

	require.NoError(t, cached.Create(ctx, &domain.Ticket{Owner: "ST1", Title: "real", Status: domain.TicketStatusOpen}))
	require.NoError(t, mr.Set(testCachePrefix+"1", "not cbor"))

	got, err := cached.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "real", got.Title)

	raw, err := mr.Get(testCachePrefix + "1")
	require.NoError(t, err)
	assert.NotEqual(t, "not cbor", raw)
}

func TestCachedTicketRepositoryFallsBackWhenRedisIsDown(t *testing.T) {
	_, cached, mr := newCachedStore(t)
	ctx := context.Background()

	require.NoError(t, cached.Create(ctx, &domain.Ticket{Owner: "ST1", Title: "still served", Status: domain.TicketStatusOpen}))
	mr.Close()

	got, err := cached.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "still served", got.Title)
}
