package service

import (
	"context"
	"fmt"

	"github.com/ticketledger/ticket-ledger/internal/contract"
	"github.com/ticketledger/ticket-ledger/internal/domain"
	"github.com/ticketledger/ticket-ledger/internal/ledger"
	"github.com/ticketledger/ticket-ledger/internal/repository"
	"github.com/ticketledger/ticket-ledger/internal/value"
	apperrors "github.com/ticketledger/ticket-ledger/pkg/util/errorutil"
)

// LedgerService is the API's entry point to the chain. Ticket and staff
// helpers each mine a single-transaction block against the ticket system.
type LedgerService struct {
	chain    *ledger.Chain
	contract string
	history  repository.TicketHistoryRepository
}

// LedgerDependencies bundles the ledger service requirements.
type LedgerDependencies struct {
	Chain        *ledger.Chain
	ContractName string
	HistoryRepo  repository.TicketHistoryRepository
}

// TxInput is one call of a submitted block.
type TxInput struct {
	Contract string
	Function string
	Args     []value.Value
}

// NewLedgerService constructs the service.
func NewLedgerService(deps LedgerDependencies) *LedgerService {
	name := deps.ContractName
	if name == "" {
		name = contract.DefaultName
	}
	return &LedgerService{chain: deps.Chain, contract: name, history: deps.HistoryRepo}
}

// ContractName returns the name the ticket system is deployed under.
func (s *LedgerService) ContractName() string {
	return s.contract
}

// Height returns the current chain height.
func (s *LedgerService) Height() uint64 {
	return s.chain.Height()
}

// SubmitBlock mines txs, all sent by sender, as the next block.
func (s *LedgerService) SubmitBlock(ctx context.Context, sender domain.Principal, txs []TxInput) (*ledger.Block, error) {
	if len(txs) == 0 {
		return nil, apperrors.NewValidationError("at least one transaction required", nil)
	}
	calls := make([]ledger.Tx, len(txs))
	for i, tx := range txs {
		calls[i] = ledger.ContractCall(tx.Contract, tx.Function, tx.Args, sender)
	}
	return s.chain.MineBlock(ctx, calls)
}

// Block returns a mined block.
func (s *LedgerService) Block(height uint64) (*ledger.Block, error) {
	block, ok := s.chain.Block(height)
	if !ok {
		return nil, apperrors.NewNotFound("block", map[string]any{"height": height})
	}
	return block, nil
}

// CallReadOnly evaluates a read-only function as sender.
func (s *LedgerService) CallReadOnly(ctx context.Context, sender domain.Principal, contractName, function string, args []value.Value) (value.Value, error) {
	return s.chain.CallReadOnly(ctx, contractName, function, args, sender)
}

// CreateTicket opens a ticket owned by sender.
func (s *LedgerService) CreateTicket(ctx context.Context, sender domain.Principal, title, description string) (*domain.Ticket, *ledger.Receipt, error) {
	receipt, err := s.mineOne(ctx, sender, contract.FnCreateTicket, value.UTF8(title), value.UTF8(description))
	if err != nil {
		return nil, nil, err
	}
	inner, err := okResult(receipt)
	if err != nil {
		return nil, receipt, err
	}
	id, ok := inner.(value.UInt)
	if !ok {
		return nil, receipt, apperrors.NewInternalError(fmt.Errorf("create-ticket returned %s", inner))
	}
	ticket, err := s.GetTicket(ctx, sender, uint64(id))
	return ticket, receipt, err
}

// GetTicket reads a ticket through the contract.
func (s *LedgerService) GetTicket(ctx context.Context, sender domain.Principal, id uint64) (*domain.Ticket, error) {
	out, err := s.chain.CallReadOnly(ctx, s.contract, contract.FnGetTicket, []value.Value{value.UInt(id)}, sender)
	if err != nil {
		return nil, err
	}
	opt, ok := out.(value.Optional)
	if !ok {
		return nil, apperrors.NewInternalError(fmt.Errorf("get-ticket returned %s", out))
	}
	if opt.IsNone() {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
	}
	tuple, ok := opt.Inner.(value.Tuple)
	if !ok {
		return nil, apperrors.NewInternalError(fmt.Errorf("get-ticket returned %s", out))
	}
	ticket, err := contract.TicketFromTuple(tuple)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return ticket, nil
}

// UpdateTicketStatus moves a ticket to status as sender.
func (s *LedgerService) UpdateTicketStatus(ctx context.Context, sender domain.Principal, id uint64, status domain.TicketStatus) (*domain.Ticket, *ledger.Receipt, error) {
	receipt, err := s.mineOne(ctx, sender, contract.FnUpdateTicketStatus, value.UInt(id), value.UInt(status))
	if err != nil {
		return nil, nil, err
	}
	if _, err := okResult(receipt); err != nil {
		return nil, receipt, err
	}
	ticket, err := s.GetTicket(ctx, sender, id)
	return ticket, receipt, err
}

// TicketHistory lists indexed changes of a ticket, oldest first.
func (s *LedgerService) TicketHistory(ctx context.Context, sender domain.Principal, id uint64, limit, offset int) ([]domain.TicketHistory, error) {
	if _, err := s.GetTicket(ctx, sender, id); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []domain.TicketHistory{}, nil
	}
	return s.history.ListByTicket(ctx, id, limit, offset)
}

// AddStaffMember grants member staff privilege; only the deployer succeeds.
func (s *LedgerService) AddStaffMember(ctx context.Context, sender, member domain.Principal) (*ledger.Receipt, error) {
	receipt, err := s.mineOne(ctx, sender, contract.FnAddStaffMember, value.Principal(member))
	if err != nil {
		return nil, err
	}
	_, err = okResult(receipt)
	return receipt, err
}

// RemoveStaffMember revokes member and reports whether it was staff.
func (s *LedgerService) RemoveStaffMember(ctx context.Context, sender, member domain.Principal) (bool, *ledger.Receipt, error) {
	receipt, err := s.mineOne(ctx, sender, contract.FnRemoveStaffMember, value.Principal(member))
	if err != nil {
		return false, nil, err
	}
	inner, err := okResult(receipt)
	if err != nil {
		return false, receipt, err
	}
	removed, _ := inner.(value.Bool)
	return bool(removed), receipt, nil
}

// IsStaffMember reports whether who is staff.
func (s *LedgerService) IsStaffMember(ctx context.Context, sender, who domain.Principal) (bool, error) {
	out, err := s.chain.CallReadOnly(ctx, s.contract, contract.FnIsStaffMember, []value.Value{value.Principal(who)}, sender)
	if err != nil {
		return false, err
	}
	b, ok := out.(value.Bool)
	if !ok {
		return false, apperrors.NewInternalError(fmt.Errorf("is-staff-member returned %s", out))
	}
	return bool(b), nil
}

func (s *LedgerService) mineOne(ctx context.Context, sender domain.Principal, function string, args ...value.Value) (*ledger.Receipt, error) {
	block, err := s.chain.MineBlock(ctx, []ledger.Tx{ledger.ContractCall(s.contract, function, args, sender)})
	if err != nil {
		return nil, err
	}
	return &block.Receipts[0], nil
}

// okResult unwraps an (ok ...) receipt or maps its (err uN) code.
func okResult(receipt *ledger.Receipt) (value.Value, error) {
	resp, ok := receipt.Result.(value.Response)
	if !ok {
		return nil, apperrors.NewInternalError(fmt.Errorf("%s returned %s", receipt.Function, receipt.Result))
	}
	if resp.OK {
		return resp.Inner, nil
	}
	code, _ := resp.Inner.(value.UInt)
	return nil, apperrors.NewContractError(uint64(code), map[string]any{"tx_id": receipt.TxID})
}
