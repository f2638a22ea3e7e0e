package scenario

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ticketledger/ticket-ledger/internal/contract"
	"github.com/ticketledger/ticket-ledger/internal/domain"
	"github.com/ticketledger/ticket-ledger/internal/events"
	"github.com/ticketledger/ticket-ledger/internal/ledger"
	"github.com/ticketledger/ticket-ledger/internal/repository"
	"github.com/ticketledger/ticket-ledger/internal/service"
	"github.com/ticketledger/ticket-ledger/internal/value"
)

// Outcome is the result of one call or step.
type Outcome struct {
	Step     int
	Height   uint64
	Sender   string
	Function string
	Got      string
	Want     string
	Events   []events.Event
	Err      error
}

// Passed reports whether the outcome met its expectation.
func (o Outcome) Passed() bool {
	if o.Err != nil {
		return false
	}
	return o.Want == "" || o.Want == o.Got
}

func (o Outcome) String() string {
	status := "ok"
	if !o.Passed() {
		status = "FAIL"
	}
	line := fmt.Sprintf("[%s] step %d height %d %s %s -> %s", status, o.Step, o.Height, o.Sender, o.Function, o.Got)
	if o.Err != nil {
		line += " error: " + o.Err.Error()
	} else if !o.Passed() {
		line += " want " + o.Want
	}
	return line
}

// Report collects every outcome of a run. History holds the ticket audit
// trail indexed from the run's events.
type Report struct {
	Scenario string
	Outcomes []Outcome
	History  repository.TicketHistoryRepository
}

// Failures counts outcomes that missed their expectation.
func (r *Report) Failures() int {
	n := 0
	for _, o := range r.Outcomes {
		if !o.Passed() {
			n++
		}
	}
	return n
}

// Runner replays scenarios on a fresh chain per run.
type Runner struct {
	genesis ledger.Genesis
	logger  *zap.Logger
}

// NewRunner creates a runner for genesis.
func NewRunner(genesis ledger.Genesis, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{genesis: genesis, logger: logger}
}

type run struct {
	sc        *Scenario
	chain     *ledger.Chain
	addresses map[string]domain.Principal
	names     map[domain.Principal]string
	logger    *zap.Logger
	report    *Report
}

// Run deploys the ticket system and replays sc. A returned error means the
// run could not continue; unmet expectations are recorded in the report.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Report, error) {
	store := repository.NewMemoryStore()
	dispatcher := events.NewInMemoryDispatcher()
	history := repository.NewMemoryTicketHistoryRepository()
	service.NewHistoryIndexer(dispatcher, history, r.logger.Named("history")).RegisterHandlers()
	chain, err := ledger.NewChain(ledger.Options{
		Genesis:    r.genesis,
		State:      store.Tx,
		Dispatcher: dispatcher,
		Logger:     r.logger.Named("ledger"),
	})
	if err != nil {
		return nil, err
	}

	st := &run{
		sc:        sc,
		chain:     chain,
		addresses: map[string]domain.Principal{},
		names:     map[domain.Principal]string{},
		logger:    r.logger,
		report:    &Report{Scenario: sc.Name, History: history},
	}
	for _, a := range chain.Accounts() {
		st.addresses[a.Name] = a.Address
		st.names[a.Address] = a.Name
	}

	deployer, ok := chain.Account(ledger.DeployerAccount)
	if !ok {
		return nil, fmt.Errorf("genesis has no %s account", ledger.DeployerAccount)
	}
	ts := contract.NewTicketSystem(store, contract.Options{StaffOnlyStatusUpdates: sc.Options.StaffOnlyStatusUpdates})
	if err := chain.Deploy(sc.Contract, deployer.Address, ts); err != nil {
		return nil, err
	}

	for i, step := range sc.Steps {
		var err error
		switch {
		case len(step.Block) > 0:
			err = st.block(ctx, i+1, step)
		case step.ReadOnly != nil:
			err = st.readOnly(ctx, i+1, *step.ReadOnly)
		default:
			_, err = chain.MineEmptyBlocks(ctx, step.Advance)
		}
		if err != nil {
			return st.report, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return st.report, nil
}

func (st *run) block(ctx context.Context, index int, step Step) error {
	txs := make([]ledger.Tx, len(step.Block))
	for i, call := range step.Block {
		sender, args, err := st.resolve(call)
		if err != nil {
			return err
		}
		txs[i] = ledger.ContractCall(st.sc.Contract, call.Function, args, sender)
	}

	block, err := st.chain.MineBlock(ctx, txs)
	if step.Rejected {
		o := Outcome{Step: index, Height: st.chain.Height(), Sender: step.Block[0].Sender, Function: "block", Got: "rejected", Want: "rejected"}
		if err == nil {
			o.Got = fmt.Sprintf("mined at %d", block.Height)
		} else if !isRejection(err) {
			return err
		}
		st.record(o)
		return nil
	}
	if err != nil {
		return err
	}
	for i, receipt := range block.Receipts {
		st.record(Outcome{
			Step:     index,
			Height:   block.Height,
			Sender:   step.Block[i].Sender,
			Function: receipt.Function,
			Got:      st.render(receipt.Result),
			Want:     strings.TrimSpace(step.Block[i].Expect),
			Events:   receipt.Events,
		})
	}
	return nil
}

func (st *run) readOnly(ctx context.Context, index int, call Call) error {
	sender, args, err := st.resolve(call)
	if err != nil {
		return err
	}
	o := Outcome{Step: index, Height: st.chain.Height(), Sender: call.Sender, Function: call.Function, Want: strings.TrimSpace(call.Expect)}
	out, err := st.chain.CallReadOnly(ctx, st.sc.Contract, call.Function, args, sender)
	if err != nil {
		o.Err = err
	} else {
		o.Got = st.render(out)
	}
	st.record(o)
	return nil
}

func (st *run) resolve(call Call) (domain.Principal, []value.Value, error) {
	sender, ok := st.addresses[call.Sender]
	if !ok {
		return "", nil, fmt.Errorf("unknown sender %q", call.Sender)
	}
	args := make([]value.Value, len(call.Args))
	for i, lit := range call.Args {
		v, err := ParseLiteral(lit, st.addresses)
		if err != nil {
			return "", nil, fmt.Errorf("%s arg %d: %w", call.Function, i+1, err)
		}
		args[i] = v
	}
	return sender, args, nil
}

// render prints v with account addresses replaced by 'name.
func (st *run) render(v value.Value) string {
	s := v.String()
	for addr, name := range st.names {
		s = strings.ReplaceAll(s, "'"+string(addr), "'"+name)
	}
	return s
}

func (st *run) record(o Outcome) {
	st.report.Outcomes = append(st.report.Outcomes, o)
	fields := []zap.Field{
		zap.Int("step", o.Step),
		zap.Uint64("height", o.Height),
		zap.String("sender", o.Sender),
		zap.String("function", o.Function),
		zap.String("result", o.Got),
		zap.Int("events", len(o.Events)),
	}
	if o.Passed() {
		st.logger.Debug("scenario outcome", fields...)
		return
	}
	st.logger.Warn("scenario expectation missed", append(fields, zap.String("want", o.Want), zap.Error(o.Err))...)
}

func isRejection(err error) bool {
	return errors.Is(err, ledger.ErrUnknownContract) ||
		errors.Is(err, ledger.ErrUnknownFunction) ||
		errors.Is(err, ledger.ErrBadArguments) ||
		errors.Is(err, ledger.ErrReadOnlyTx) ||
		errors.Is(err, ledger.ErrUnknownAccount)
}
