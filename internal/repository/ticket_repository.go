package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ticketledger/ticket-ledger/internal/domain"
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	// Create assigns the next sequential id (starting at 1) and stores ticket.
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id uint64) (*domain.Ticket, error)
	// LastID returns the most recently assigned id, or 0.
	LastID(ctx context.Context) (uint64, error)
}

const ticketCounter = "ticket_id"

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	q := conn(ctx, r.pool)

	var id int64
	if err := q.QueryRow(ctx,
		`UPDATE ledger_counters SET value = value + 1 WHERE name=$1 RETURNING value`,
		ticketCounter,
	).Scan(&id); err != nil {
		return err
	}

	const query = `
        INSERT INTO tickets (id, owner, title, description, status, created_at_height, updated_at_height)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`
	if _, err := q.Exec(ctx, query,
		id,
		string(ticket.Owner),
		ticket.Title,
		ticket.Description,
		int64(ticket.Status),
		int64(ticket.CreatedAt),
		int64(ticket.UpdatedAt),
	); err != nil {
		return err
	}
	ticket.ID = uint64(id)
	return nil
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, status=$3, updated_at_height=$4
        WHERE id=$5`
	cmd, err := conn(ctx, r.pool).Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		int64(ticket.Status),
		int64(ticket.UpdatedAt),
		int64(ticket.ID),
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id uint64) (*domain.Ticket, error) {
	const query = `
        SELECT id, owner, title, description, status, created_at_height, updated_at_height
        FROM tickets WHERE id=$1`
	return scanTicket(conn(ctx, r.pool).QueryRow(ctx, query, int64(id)))
}

func (r *ticketRepository) LastID(ctx context.Context) (uint64, error) {
	var id int64
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT value FROM ledger_counters WHERE name=$1`, ticketCounter,
	).Scan(&id)
	if err != nil {
		return 0, mapNoRows(err)
	}
	return uint64(id), nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var owner string
	var id, status, created, updated int64
	if err := row.Scan(
		&id,
		&owner,
		&ticket.Title,
		&ticket.Description,
		&status,
		&created,
		&updated,
	); err != nil {
		return nil, mapNoRows(err)
	}
	ticket.ID = uint64(id)
	ticket.Owner = domain.Principal(owner)
	ticket.Status = domain.TicketStatus(status)
	ticket.CreatedAt = uint64(created)
	ticket.UpdatedAt = uint64(updated)
	return &ticket, nil
}
