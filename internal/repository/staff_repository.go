package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ticketledger/ticket-ledger/internal/domain"
)

// StaffRepository handles persistence for the staff directory.
type StaffRepository interface {
	// Add inserts member and reports whether membership changed. An
	// existing record is left untouched.
	Add(ctx context.Context, member *domain.StaffMember) (bool, error)
	// Remove deletes principal and reports whether it was a member.
	Remove(ctx context.Context, principal domain.Principal) (bool, error)
	Get(ctx context.Context, principal domain.Principal) (*domain.StaffMember, error)
	List(ctx context.Context, limit, offset int) ([]domain.StaffMember, error)
}

type staffRepository struct {
	pool *pgxpool.Pool
}

// NewStaffRepository instantiates the repository.
func NewStaffRepository(pool *pgxpool.Pool) StaffRepository {
	return &staffRepository{pool: pool}
}

func (r *staffRepository) Add(ctx context.Context, member *domain.StaffMember) (bool, error) {
	const query = `
        INSERT INTO staff_members (principal, added_by, added_at_height)
        VALUES ($1,$2,$3)
        ON CONFLICT (principal) DO NOTHING`
	cmd, err := conn(ctx, r.pool).Exec(ctx, query,
		string(member.Principal),
		string(member.AddedBy),
		int64(member.AddedAt),
	)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *staffRepository) Remove(ctx context.Context, principal domain.Principal) (bool, error) {
	cmd, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM staff_members WHERE principal=$1`, string(principal))
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *staffRepository) Get(ctx context.Context, principal domain.Principal) (*domain.StaffMember, error) {
	const query = `
        SELECT principal, added_by, added_at_height
        FROM staff_members WHERE principal=$1`

	var member domain.StaffMember
	var p, addedBy string
	var addedAt int64
	if err := conn(ctx, r.pool).QueryRow(ctx, query, string(principal)).Scan(&p, &addedBy, &addedAt); err != nil {
		return nil, mapNoRows(err)
	}
	member.Principal = domain.Principal(p)
	member.AddedBy = domain.Principal(addedBy)
	member.AddedAt = uint64(addedAt)
	return &member, nil
}

func (r *staffRepository) List(ctx context.Context, limit, offset int) ([]domain.StaffMember, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`
        SELECT principal, added_by, added_at_height
        FROM staff_members ORDER BY added_at_height ASC, principal ASC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := conn(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StaffMember
	for rows.Next() {
		var (
			p, addedBy string
			addedAt    int64
		)
		if err := rows.Scan(&p, &addedBy, &addedAt); err != nil {
			return nil, err
		}
		result = append(result, domain.StaffMember{
			Principal: domain.Principal(p),
			AddedBy:   domain.Principal(addedBy),
			AddedAt:   uint64(addedAt),
		})
	}
	return result, rows.Err()
}
