package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ticketledger/ticket-ledger/internal/domain"
)

// TicketHistoryRepository stores audit entries.
type TicketHistoryRepository interface {
	Create(ctx context.Context, history *domain.TicketHistory) error
	ListByTicket(ctx context.Context, ticketID uint64, limit, offset int) ([]domain.TicketHistory, error)
}

type ticketHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewTicketHistoryRepository builds repository.
func NewTicketHistoryRepository(pool *pgxpool.Pool) TicketHistoryRepository {
	return &ticketHistoryRepository{pool: pool}
}

func (r *ticketHistoryRepository) Create(ctx context.Context, history *domain.TicketHistory) error {
	const query = `
        INSERT INTO ticket_history (id, ticket_id, changed_by, change_type, old_status, new_status, block_height, tx_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING created_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		history.ID,
		int64(history.TicketID),
		string(history.ChangedBy),
		string(history.ChangeType),
		history.OldStatus,
		int64(history.NewStatus),
		int64(history.BlockHeight),
		history.TxID,
	).Scan(&history.CreatedAt)
}

func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID uint64, limit, offset int) ([]domain.TicketHistory, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`
        SELECT id, ticket_id, changed_by, change_type, old_status, new_status, block_height, tx_id, created_at
        FROM ticket_history WHERE ticket_id=$1 ORDER BY block_height ASC, created_at ASC LIMIT %d OFFSET %d`, limit, offset)
	rows, err := conn(ctx, r.pool).Query(ctx, query, int64(ticketID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketHistory
	for rows.Next() {
		var history domain.TicketHistory
		var changedBy, changeType string
		var id, newStatus, height int64
		if err := rows.Scan(
			&history.ID,
			&id,
			&changedBy,
			&changeType,
			&history.OldStatus,
			&newStatus,
			&height,
			&history.TxID,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		history.TicketID = uint64(id)
		history.ChangedBy = domain.Principal(changedBy)
		history.ChangeType = domain.TicketChangeType(changeType)
		history.NewStatus = domain.TicketStatus(newStatus)
		history.BlockHeight = uint64(height)
		result = append(result, history)
	}
	return result, rows.Err()
}
