package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ticketledger/ticket-ledger/internal/domain"
	"github.com/ticketledger/ticket-ledger/internal/events"
	"github.com/ticketledger/ticket-ledger/internal/repository"
	"github.com/ticketledger/ticket-ledger/internal/value"
)

// TxObserver is told the outcome of every applied transaction.
type TxObserver interface {
	ObserveTx(contract, function string, ok bool)
}

// Options configures a Chain.
type Options struct {
	Genesis Genesis
	// State is the transactor of the store deployed contracts keep their
	// state in. A block runs in one transaction and each tx in a savepoint.
	State      repository.Transactor
	Dispatcher events.Dispatcher
	Observer   TxObserver
	Logger     *zap.Logger
	Clock      func() time.Time
}

// Chain is a single-process simulated ledger. Blocks are applied one at a
// time; read-only calls never run concurrently with a block.
type Chain struct {
	mu sync.RWMutex

	chainID    string
	accounts   []Account
	byName     map[string]Account
	byAddress  map[domain.Principal]struct{}
	contracts  map[string]*deployment
	blocks     []*Block
	state      repository.Transactor
	dispatcher events.Dispatcher
	observer   TxObserver
	logger     *zap.Logger
	now        func() time.Time
}

var errRollback = errors.New("rollback")

// NewChain builds a chain at height 0 with the genesis accounts.
func NewChain(opts Options) (*Chain, error) {
	if len(opts.Genesis.Accounts) == 0 {
		opts.Genesis = DevnetGenesis()
	}
	if err := opts.Genesis.Validate(); err != nil {
		return nil, err
	}
	if opts.State == nil {
		return nil, errors.New("ledger: state transactor required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	c := &Chain{
		chainID:    opts.Genesis.ChainID,
		accounts:   opts.Genesis.ResolvedAccounts(),
		byName:     make(map[string]Account),
		byAddress:  make(map[domain.Principal]struct{}),
		contracts:  make(map[string]*deployment),
		state:      opts.State,
		dispatcher: opts.Dispatcher,
		observer:   opts.Observer,
		logger:     opts.Logger,
		now:        opts.Clock,
	}
	for _, a := range c.accounts {
		c.byName[a.Name] = a
		c.byAddress[a.Address] = struct{}{}
	}

	genesis := &Block{Height: 0, Timestamp: c.now().UTC()}
	hash, err := blockHash(c.chainID, genesis)
	if err != nil {
		return nil, fmt.Errorf("hash genesis: %w", err)
	}
	genesis.Hash = hash
	c.blocks = []*Block{genesis}
	return c, nil
}

// Account looks up a genesis account by name.
func (c *Chain) Account(name string) (Account, bool) {
	a, ok := c.byName[name]
	return a, ok
}

// Accounts returns the genesis accounts in genesis order.
func (c *Chain) Accounts() []Account {
	return append([]Account(nil), c.accounts...)
}

// Deploy registers contract under name, owned by deployer.
func (c *Chain) Deploy(name string, deployer domain.Principal, contract Contract) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.contracts[name]; exists {
		return fmt.Errorf("%s: %w", name, ErrContractExists)
	}
	d := &deployment{
		name:       name,
		deployer:   deployer,
		deployedAt: c.height(),
		functions:  make(map[string]Function),
	}
	for _, fn := range contract.Functions() {
		d.functions[fn.Name] = fn
	}
	c.contracts[name] = d
	c.logger.Info("contract deployed",
		zap.String("contract", name),
		zap.String("deployer", string(deployer)),
		zap.Int("functions", len(d.functions)))
	return nil
}

// Contract describes a deployed contract.
func (c *Chain) Contract(name string) (ContractInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.contracts[name]
	if !ok {
		return ContractInfo{}, false
	}
	info := ContractInfo{Name: d.name, Deployer: d.deployer, DeployedAt: d.deployedAt}
	for fn := range d.functions {
		info.Functions = append(info.Functions, fn)
	}
	sort.Strings(info.Functions)
	return info, true
}

// Height returns the height of the latest block.
func (c *Chain) Height() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.height()
}

func (c *Chain) height() uint64 {
	return uint64(len(c.blocks) - 1)
}

// Block returns the block at height.
func (c *Chain) Block(height uint64) (*Block, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if height >= uint64(len(c.blocks)) {
		return nil, false
	}
	return c.blocks[height], true
}

type preparedTx struct {
	tx         Tx
	deployment *deployment
	fn         Function
}

// MineBlock applies txs in order as the next block and returns it with one
// receipt per tx. A tx whose result is an err response leaves no state
// behind; later txs still apply. A malformed tx, or one sent by an account
// missing from genesis, rejects the whole block.
func (c *Chain) MineBlock(ctx context.Context, txs []Tx) (*Block, error) {
	c.mu.Lock()

	prepared := make([]preparedTx, len(txs))
	for i, tx := range txs {
		if _, ok := c.byAddress[tx.Sender]; !ok {
			c.mu.Unlock()
			return nil, c.reject(i, fmt.Errorf("sender %s: %w", tx.Sender, ErrUnknownAccount))
		}
		d, ok := c.contracts[tx.Contract]
		if !ok {
			c.mu.Unlock()
			return nil, c.reject(i, fmt.Errorf("%s: %w", tx.Contract, ErrUnknownContract))
		}
		fn, err := d.resolve(tx.Function, tx.Args)
		if err != nil {
			c.mu.Unlock()
			return nil, c.reject(i, err)
		}
		if fn.ReadOnly {
			c.mu.Unlock()
			return nil, c.reject(i, fmt.Errorf("%s.%s: %w", tx.Contract, tx.Function, ErrReadOnlyTx))
		}
		prepared[i] = preparedTx{tx: tx, deployment: d, fn: fn}
	}

	parent := c.blocks[len(c.blocks)-1]
	block := &Block{
		Height:     parent.Height + 1,
		ParentHash: parent.Hash,
		Timestamp:  c.now().UTC(),
		Receipts:   make([]Receipt, 0, len(txs)),
	}

	err := c.state.WithinTx(ctx, func(ctx context.Context) error {
		for i, p := range prepared {
			receipt, err := c.apply(ctx, block.Height, i, p)
			if err != nil {
				return err
			}
			block.Receipts = append(block.Receipts, receipt)
		}
		return nil
	})
	if err != nil {
		c.mu.Unlock()
		c.logger.Warn("block aborted", zap.Uint64("height", block.Height), zap.Error(err))
		return nil, err
	}

	hash, err := blockHash(c.chainID, block)
	if err != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("hash block: %w", err)
	}
	block.Hash = hash
	c.blocks = append(c.blocks, block)
	c.mu.Unlock()

	c.logger.Info("block mined",
		zap.Uint64("height", block.Height),
		zap.Int("txs", len(block.Receipts)),
		zap.String("hash", block.Hash))
	c.publish(ctx, block)
	return block, nil
}

// MineEmptyBlocks advances the chain by count blocks without transactions
// and returns the new height.
func (c *Chain) MineEmptyBlocks(ctx context.Context, count int) (uint64, error) {
	for i := 0; i < count; i++ {
		if _, err := c.MineBlock(ctx, nil); err != nil {
			return 0, err
		}
	}
	return c.Height(), nil
}

func (c *Chain) apply(ctx context.Context, height uint64, index int, p preparedTx) (Receipt, error) {
	id, err := txID(p.tx, height, index)
	if err != nil {
		return Receipt{}, fmt.Errorf("hash tx %d: %w", index, err)
	}
	call := &Call{
		Contract:    p.deployment.name,
		Sender:      p.tx.Sender,
		Deployer:    p.deployment.deployer,
		BlockHeight: height,
	}

	var result value.Value
	err = c.state.WithinTx(ctx, func(ctx context.Context) error {
		out, err := p.fn.Handler(ctx, call, p.tx.Args)
		if err != nil {
			return err
		}
		resp, ok := out.(value.Response)
		if !ok {
			return fmt.Errorf("%s.%s: %w", p.tx.Contract, p.tx.Function, ErrInvalidReturnType)
		}
		result = resp
		if !resp.OK {
			return errRollback
		}
		return nil
	})
	if err != nil && !errors.Is(err, errRollback) {
		return Receipt{}, fmt.Errorf("tx %d %s.%s: %w", index, p.tx.Contract, p.tx.Function, err)
	}

	ok := err == nil
	if c.observer != nil {
		c.observer.ObserveTx(p.tx.Contract, p.tx.Function, ok)
	}

	receipt := Receipt{
		TxID:        id,
		BlockHeight: height,
		Contract:    p.tx.Contract,
		Function:    p.tx.Function,
		Sender:      p.tx.Sender,
		Result:      result,
		Events:      []events.Event{},
	}
	if ok {
		for _, e := range call.events {
			e.ID = uuid.NewString()
			e.TxID = id
			e.BlockHeight = height
			receipt.Events = append(receipt.Events, e)
		}
	}
	return receipt, nil
}

// CallReadOnly evaluates a read-only function against current state.
func (c *Chain) CallReadOnly(ctx context.Context, contract, function string, args []value.Value, sender domain.Principal) (value.Value, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, ok := c.contracts[contract]
	if !ok {
		return nil, fmt.Errorf("%s: %w", contract, ErrUnknownContract)
	}
	fn, err := d.resolve(function, args)
	if err != nil {
		return nil, err
	}
	if !fn.ReadOnly {
		return nil, fmt.Errorf("%s.%s: %w", contract, function, ErrNotReadOnly)
	}
	call := &Call{
		Contract:    d.name,
		Sender:      sender,
		Deployer:    d.deployer,
		BlockHeight: c.height(),
		ReadOnly:    true,
	}
	return fn.Handler(ctx, call, args)
}

func (c *Chain) reject(index int, err error) error {
	c.logger.Warn("block rejected", zap.Int("tx_index", index), zap.Error(err))
	return fmt.Errorf("tx %d: %w", index, err)
}

func (c *Chain) publish(ctx context.Context, block *Block) {
	if c.dispatcher == nil {
		return
	}
	for _, r := range block.Receipts {
		for _, e := range r.Events {
			e.Timestamp = block.Timestamp
			if err := c.dispatcher.Publish(ctx, e); err != nil {
				c.logger.Warn("event handler failed",
					zap.String("event_type", string(e.Type)),
					zap.String("tx_id", e.TxID),
					zap.Error(err))
			}
		}
	}
}
