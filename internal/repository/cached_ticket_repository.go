package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ticketledger/ticket-ledger/internal/codec"
	"github.com/ticketledger/ticket-ledger/internal/domain"
)

// cachedTicketRepository serves GetByID from Redis. Reads inside a store
// transaction bypass the cache so uncommitted state is never cached.
type cachedTicketRepository struct {
	next   TicketRepository
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedTicketRepository wraps next with a Redis read-through cache.
// Keys are prefix followed by the ticket id.
func NewCachedTicketRepository(next TicketRepository, client *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) TicketRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &cachedTicketRepository{next: next, client: client, prefix: prefix, ttl: ttl, logger: logger}
}

func (r *cachedTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	if err := r.next.Create(ctx, ticket); err != nil {
		return err
	}
	r.invalidate(ctx, ticket.ID)
	return nil
}

func (r *cachedTicketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	if err := r.next.Update(ctx, ticket); err != nil {
		return err
	}
	r.invalidate(ctx, ticket.ID)
	return nil
}

func (r *cachedTicketRepository) GetByID(ctx context.Context, id uint64) (*domain.Ticket, error) {
	if InTransaction(ctx) {
		return r.next.GetByID(ctx, id)
	}

	key := r.key(id)
	data, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var ticket domain.Ticket
		if decodeErr := codec.Unmarshal(data, &ticket); decodeErr == nil {
			return &ticket, nil
		}
		r.logger.Warn("discarding undecodable cached ticket", zap.Uint64("ticket_id", id))
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("ticket cache read failed", zap.Uint64("ticket_id", id), zap.Error(err))
	}

	ticket, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if encoded, err := codec.Marshal(ticket); err == nil {
		if err := r.client.Set(ctx, key, encoded, r.ttl).Err(); err != nil {
			r.logger.Warn("ticket cache write failed", zap.Uint64("ticket_id", id), zap.Error(err))
		}
	}
	return ticket, nil
}

func (r *cachedTicketRepository) LastID(ctx context.Context) (uint64, error) {
	return r.next.LastID(ctx)
}

func (r *cachedTicketRepository) invalidate(ctx context.Context, id uint64) {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		r.logger.Warn("ticket cache invalidation failed", zap.Uint64("ticket_id", id), zap.Error(err))
	}
}

func (r *cachedTicketRepository) key(id uint64) string {
	return r.prefix + strconv.FormatUint(id, 10)
}
