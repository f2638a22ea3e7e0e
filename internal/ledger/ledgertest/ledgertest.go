// Package ledgertest drives a simulated chain from tests: devnet accounts,
// block mining helpers and assertions on contract values.
package ledgertest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ticketledger/ticket-ledger/internal/domain"
	"github.com/ticketledger/ticket-ledger/internal/events"
	"github.com/ticketledger/ticket-ledger/internal/ledger"
	"github.com/ticketledger/ticket-ledger/internal/repository"
	"github.com/ticketledger/ticket-ledger/internal/value"
)

// Harness is a fresh devnet chain backed by an in-memory store.
type Harness struct {
	t          testing.TB
	Chain      *ledger.Chain
	Store      repository.Store
	Dispatcher events.Dispatcher
	Accounts   map[string]ledger.Account
}

// New builds a devnet chain with deployer and wallet_1..wallet_9.
func New(t testing.TB) *Harness {
	t.Helper()
	store := repository.NewMemoryStore()
	dispatcher := events.NewInMemoryDispatcher()
	chain, err := ledger.NewChain(ledger.Options{
		Genesis:    ledger.DevnetGenesis(),
		State:      store.Tx,
		Dispatcher: dispatcher,
	})
	require.NoError(t, err)

	accounts := make(map[string]ledger.Account)
	for _, a := range chain.Accounts() {
		accounts[a.Name] = a
	}
	return &Harness{t: t, Chain: chain, Store: store, Dispatcher: dispatcher, Accounts: accounts}
}

// Address returns the principal of a devnet account, failing the test if
// the name is unknown.
func (h *Harness) Address(name string) domain.Principal {
	h.t.Helper()
	a, ok := h.Accounts[name]
	require.Truef(h.t, ok, "unknown account %q", name)
	return a.Address
}

// Deploy deploys contract as the deployer account.
func (h *Harness) Deploy(name string, contract ledger.Contract) {
	h.t.Helper()
	require.NoError(h.t, h.Chain.Deploy(name, h.Address(ledger.DeployerAccount), contract))
}

// MineBlock mines txs and fails the test if the block is rejected.
func (h *Harness) MineBlock(txs ...ledger.Tx) *ledger.Block {
	h.t.Helper()
	block, err := h.Chain.MineBlock(context.Background(), txs)
	require.NoError(h.t, err)
	require.Len(h.t, block.Receipts, len(txs))
	return block
}

// CallReadOnly evaluates a read-only function and fails the test on error.
func (h *Harness) CallReadOnly(contract, function string, args []value.Value, sender domain.Principal) value.Value {
	h.t.Helper()
	v, err := h.Chain.CallReadOnly(context.Background(), contract, function, args, sender)
	require.NoError(h.t, err)
	return v
}

// ExpectOk asserts v is (ok ...) and returns the inner value.
func ExpectOk(t testing.TB, v value.Value) value.Value {
	t.Helper()
	resp, ok := v.(value.Response)
	require.Truef(t, ok, "expected response, got %s", v)
	require.Truef(t, resp.OK, "expected (ok ...), got %s", v)
	return resp.Inner
}

// ExpectErr asserts v is (err ...) and returns the inner value.
func ExpectErr(t testing.TB, v value.Value) value.Value {
	t.Helper()
	resp, ok := v.(value.Response)
	require.Truef(t, ok, "expected response, got %s", v)
	require.Falsef(t, resp.OK, "expected (err ...), got %s", v)
	return resp.Inner
}

// ExpectUint asserts v is the uint want.
func ExpectUint(t testing.TB, v value.Value, want uint64) {
	t.Helper()
	require.Equal(t, value.UInt(want).String(), stringOf(v))
}

// ExpectBool asserts v is the bool want.
func ExpectBool(t testing.TB, v value.Value, want bool) {
	t.Helper()
	require.Equal(t, value.Bool(want).String(), stringOf(v))
}

// ExpectUTF8 asserts v is the string want.
func ExpectUTF8(t testing.TB, v value.Value, want string) {
	t.Helper()
	require.Equal(t, value.UTF8(want).String(), stringOf(v))
}

// ExpectPrincipal asserts v is the principal want.
func ExpectPrincipal(t testing.TB, v value.Value, want domain.Principal) {
	t.Helper()
	require.Equal(t, value.Principal(want).String(), stringOf(v))
}

// ExpectSome asserts v is (some ...) and returns the inner value.
func ExpectSome(t testing.TB, v value.Value) value.Value {
	t.Helper()
	opt, ok := v.(value.Optional)
	require.Truef(t, ok, "expected optional, got %s", v)
	require.Falsef(t, opt.IsNone(), "expected (some ...), got none")
	return opt.Inner
}

// ExpectNone asserts v is none.
func ExpectNone(t testing.TB, v value.Value) {
	t.Helper()
	opt, ok := v.(value.Optional)
	require.Truef(t, ok, "expected optional, got %s", v)
	require.Truef(t, opt.IsNone(), "expected none, got %s", v)
}

// ExpectTuple asserts v is a tuple and returns its fields.
func ExpectTuple(t testing.TB, v value.Value) map[string]value.Value {
	t.Helper()
	tuple, ok := v.(value.Tuple)
	require.Truef(t, ok, "expected tuple, got %s", v)
	return tuple.Fields
}

func stringOf(v value.Value) string {
	if v == nil {
		return "<nil>"
	}
	return v.String()
}
