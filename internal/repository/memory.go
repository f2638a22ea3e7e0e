package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ticketledger/ticket-ledger/internal/domain"
)

// memoryState is the shared state behind the in-memory repositories. A
// transaction snapshots it and restores the snapshot on failure.
type memoryState struct {
	mu      sync.RWMutex
	tickets map[uint64]domain.Ticket
	lastID  uint64
	staff   map[domain.Principal]domain.StaffMember
}

type memorySnapshot struct {
	tickets map[uint64]domain.Ticket
	lastID  uint64
	staff   map[domain.Principal]domain.StaffMember
}

func (s *memoryState) snapshot() memorySnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := memorySnapshot{
		tickets: make(map[uint64]domain.Ticket, len(s.tickets)),
		lastID:  s.lastID,
		staff:   make(map[domain.Principal]domain.StaffMember, len(s.staff)),
	}
	for k, v := range s.tickets {
		snap.tickets[k] = v
	}
	for k, v := range s.staff {
		snap.staff[k] = v
	}
	return snap
}

func (s *memoryState) restore(snap memorySnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets = snap.tickets
	s.lastID = snap.lastID
	s.staff = snap.staff
}

// NewMemoryStore builds a store kept entirely in process memory.
func NewMemoryStore() Store {
	state := &memoryState{
		tickets: make(map[uint64]domain.Ticket),
		staff:   make(map[domain.Principal]domain.StaffMember),
	}
	return Store{
		Tickets: &memoryTicketRepository{state: state},
		Staff:   &memoryStaffRepository{state: state},
		Tx:      &memoryTransactor{state: state},
	}
}

type memoryTransactor struct {
	state *memoryState
}

func (t *memoryTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := t.state.snapshot()
	if err := fn(context.WithValue(ctx, txActiveKey{}, true)); err != nil {
		t.state.restore(snap)
		return err
	}
	return nil
}

type memoryTicketRepository struct {
	state *memoryState
}

func (r *memoryTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	r.state.lastID++
	ticket.ID = r.state.lastID
	r.state.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memoryTicketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	if _, ok := r.state.tickets[ticket.ID]; !ok {
		return ErrNotFound
	}
	r.state.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memoryTicketRepository) GetByID(ctx context.Context, id uint64) (*domain.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()
	ticket, ok := r.state.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &ticket, nil
}

func (r *memoryTicketRepository) LastID(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()
	return r.state.lastID, nil
}

type memoryStaffRepository struct {
	state *memoryState
}

func (r *memoryStaffRepository) Add(ctx context.Context, member *domain.StaffMember) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	if _, ok := r.state.staff[member.Principal]; ok {
		return false, nil
	}
	r.state.staff[member.Principal] = *member
	return true, nil
}

func (r *memoryStaffRepository) Remove(ctx context.Context, principal domain.Principal) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	if _, ok := r.state.staff[principal]; !ok {
		return false, nil
	}
	delete(r.state.staff, principal)
	return true, nil
}

func (r *memoryStaffRepository) Get(ctx context.Context, principal domain.Principal) (*domain.StaffMember, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()
	member, ok := r.state.staff[principal]
	if !ok {
		return nil, ErrNotFound
	}
	return &member, nil
}

func (r *memoryStaffRepository) List(ctx context.Context, limit, offset int) ([]domain.StaffMember, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.state.mu.RLock()
	members := make([]domain.StaffMember, 0, len(r.state.staff))
	for _, m := range r.state.staff {
		members = append(members, m)
	}
	r.state.mu.RUnlock()

	sort.Slice(members, func(i, j int) bool {
		if members[i].AddedAt != members[j].AddedAt {
			return members[i].AddedAt < members[j].AddedAt
		}
		return members[i].Principal < members[j].Principal
	})
	return paginate(members, limit, offset, 50), nil
}

// memoryTicketHistoryRepository is not part of a Store: history is an
// index rebuilt from events, not contract state.
type memoryTicketHistoryRepository struct {
	mu      sync.RWMutex
	entries map[uint64][]domain.TicketHistory
}

// NewMemoryTicketHistoryRepository builds an in-memory history index.
func NewMemoryTicketHistoryRepository() TicketHistoryRepository {
	return &memoryTicketHistoryRepository{entries: make(map[uint64][]domain.TicketHistory)}
}

func (r *memoryTicketHistoryRepository) Create(ctx context.Context, history *domain.TicketHistory) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if history.CreatedAt.IsZero() {
		history.CreatedAt = time.Now().UTC()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[history.TicketID] = append(r.entries[history.TicketID], *history)
	return nil
}

func (r *memoryTicketHistoryRepository) ListByTicket(ctx context.Context, ticketID uint64, limit, offset int) ([]domain.TicketHistory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	entries := append([]domain.TicketHistory(nil), r.entries[ticketID]...)
	r.mu.RUnlock()
	return paginate(entries, limit, offset, 100), nil
}

func paginate[T any](items []T, limit, offset, defaultLimit int) []T {
	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
