package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ticketledger/ticket-ledger/internal/config"
	"github.com/ticketledger/ticket-ledger/internal/contract"
	"github.com/ticketledger/ticket-ledger/internal/domain"
	"github.com/ticketledger/ticket-ledger/internal/ledger"
	"github.com/ticketledger/ticket-ledger/internal/ledger/ledgertest"
	"github.com/ticketledger/ticket-ledger/internal/repository"
	"github.com/ticketledger/ticket-ledger/internal/value"
	apperrors "github.com/ticketledger/ticket-ledger/pkg/util/errorutil"
)

type fixture struct {
	h       *ledgertest.Harness
	svc     *LedgerService
	history repository.TicketHistoryRepository
	notify  *NotificationService
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	h := ledgertest.New(t)
	h.Deploy(contract.DefaultName, contract.NewTicketSystem(h.Store, contract.Options{}))

	history := repository.NewMemoryTicketHistoryRepository()
	NewHistoryIndexer(h.Dispatcher, history, zap.NewNop()).RegisterHandlers()
	notify := NewNotificationService(h.Dispatcher, zap.NewNop(), config.NotificationConfig{WebhookURL: "http://hooks.invalid"})
	notify.RegisterHandlers()

	svc := NewLedgerService(LedgerDependencies{Chain: h.Chain, HistoryRepo: history})
	return fixture{h: h, svc: svc, history: history, notify: notify}
}

func requireDomainStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, status, apperrors.ToDomainError(err).HTTPStatus, err.Error())
}

func TestLedgerServiceTicketLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user1 := f.h.Address("wallet_1")
	user2 := f.h.Address("wallet_2")
	user3 := f.h.Address("wallet_3")
	deployer := f.h.Address(ledger.DeployerAccount)

	ticket, receipt, err := f.svc.CreateTicket(ctx, user1, "My First Ticket", "details")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), ticket.ID)
	assert.Equal(t, user1, ticket.Owner)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.NotEmpty(t, receipt.TxID)

	_, err = f.svc.AddStaffMember(ctx, deployer, user2)
	require.NoError(t, err)
	isStaff, err := f.svc.IsStaffMember(ctx, user1, user2)
	require.NoError(t, err)
	assert.True(t, isStaff)

	ticket, _, err = f.svc.UpdateTicketStatus(ctx, user2, 1, domain.TicketStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, ticket.Status)

	_, receipt, err = f.svc.UpdateTicketStatus(ctx, user3, 1, domain.TicketStatusResolved)
	requireDomainStatus(t, err, http.StatusForbidden)
	assert.Equal(t, "(err u100)", receipt.Result.String())

	_, _, err = f.svc.UpdateTicketStatus(ctx, user1, 42, domain.TicketStatusResolved)
	requireDomainStatus(t, err, http.StatusNotFound)

	_, _, err = f.svc.UpdateTicketStatus(ctx, user1, 1, domain.TicketStatus(9))
	requireDomainStatus(t, err, http.StatusBadRequest)

	entries, err := f.svc.TicketHistory(ctx, user1, 1, 0, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.ChangeTypeCreated, entries[0].ChangeType)
	assert.False(t, entries[0].OldStatus.Valid)
	assert.Equal(t, domain.ChangeTypeStatus, entries[1].ChangeType)
	assert.Equal(t, int64(domain.TicketStatusOpen), entries[1].OldStatus.Int64)
	assert.Equal(t, domain.TicketStatusInProgress, entries[1].NewStatus)
	assert.Equal(t, user2, entries[1].ChangedBy)
	assert.Equal(t, uint64(3), entries[1].BlockHeight)

	// create, staff add, status change each hit the webhook stub
	assert.Equal(t, int64(3), f.notify.Sent())
}

func TestLedgerServiceValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user1 := f.h.Address("wallet_1")

	_, _, err := f.svc.CreateTicket(ctx, user1, "", "empty title")
	requireDomainStatus(t, err, http.StatusBadRequest)

	_, err = f.svc.GetTicket(ctx, user1, 1)
	requireDomainStatus(t, err, http.StatusNotFound)

	_, err = f.svc.TicketHistory(ctx, user1, 1, 0, 0)
	requireDomainStatus(t, err, http.StatusNotFound)

	_, err = f.svc.SubmitBlock(ctx, user1, nil)
	requireDomainStatus(t, err, http.StatusBadRequest)

	_, err = f.svc.SubmitBlock(ctx, user1, []TxInput{{Contract: contract.DefaultName, Function: contract.FnGetTicket, Args: []value.Value{value.UInt(1)}}})
	require.ErrorIs(t, err, ledger.ErrReadOnlyTx)

	_, err = f.svc.Block(99)
	requireDomainStatus(t, err, http.StatusNotFound)
}

func TestLedgerServiceStaffRemoval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	deployer := f.h.Address(ledger.DeployerAccount)
	user2 := f.h.Address("wallet_2")

	_, err := f.svc.AddStaffMember(ctx, user2, user2)
	requireDomainStatus(t, err, http.StatusForbidden)

	removed, _, err := f.svc.RemoveStaffMember(ctx, deployer, user2)
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = f.svc.AddStaffMember(ctx, deployer, user2)
	require.NoError(t, err)
	removed, _, err = f.svc.RemoveStaffMember(ctx, deployer, user2)
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestLedgerServiceSubmitBlock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user1 := f.h.Address("wallet_1")

	block, err := f.svc.SubmitBlock(ctx, user1, []TxInput{
		{Contract: contract.DefaultName, Function: contract.FnCreateTicket, Args: []value.Value{value.UTF8("a"), value.UTF8("")}},
		{Contract: contract.DefaultName, Function: contract.FnCreateTicket, Args: []value.Value{value.UTF8("b"), value.UTF8("")}},
	})
	require.NoError(t, err)
	require.Len(t, block.Receipts, 2)
	assert.Equal(t, "(ok u2)", block.Receipts[1].Result.String())
	assert.Equal(t, block.Height, f.svc.Height())

	got, err := f.svc.Block(block.Height)
	require.NoError(t, err)
	assert.Equal(t, block.Hash, got.Hash)

	count, err := f.svc.CallReadOnly(ctx, user1, contract.DefaultName, contract.FnGetTicketCount, nil)
	require.NoError(t, err)
	assert.Equal(t, value.UInt(2), count)
}

func TestAuthServiceLogin(t *testing.T) {
	h := ledgertest.New(t)
	genesis := ledger.Genesis{ChainID: "devnet", Accounts: []ledger.GenesisAccount{
		{Name: ledger.DeployerAccount, Passphrase: "deploy me"},
		{Name: "wallet_1"},
		{Name: "wallet_2"},
	}}
	cfg := config.AuthConfig{JWTSecret: "secret", AccessTokenTTLMinutes: 5, BcryptCost: bcrypt.MinCost}

	svc, err := NewAuthService(cfg, AuthDependencies{Genesis: genesis, Accounts: h.Chain})
	require.NoError(t, err)

	account, token, _, err := svc.Login(context.Background(), ledger.DeployerAccount, "deploy me")
	require.NoError(t, err)
	assert.Equal(t, h.Address(ledger.DeployerAccount), account.Address)
	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, account.Address, claims.Principal())

	_, _, _, err = svc.Login(context.Background(), ledger.DeployerAccount, "wrong")
	requireDomainStatus(t, err, http.StatusUnauthorized)
	_, _, _, err = svc.Login(context.Background(), "wallet_1", "")
	requireDomainStatus(t, err, http.StatusUnauthorized)

	cfg.DevnetPassphrase = "devnet"
	svc, err = NewAuthService(cfg, AuthDependencies{Genesis: genesis, Accounts: h.Chain})
	require.NoError(t, err)
	_, _, _, err = svc.Login(context.Background(), "wallet_1", "devnet")
	require.NoError(t, err)
	_, _, _, err = svc.Login(context.Background(), "nobody", "devnet")
	requireDomainStatus(t, err, http.StatusUnauthorized)

	genesis.Accounts[1].PassphraseHash = "not-a-hash"
	_, err = NewAuthService(cfg, AuthDependencies{Genesis: genesis, Accounts: h.Chain})
	require.Error(t, err)
}
