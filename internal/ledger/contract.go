package ledger

import (
	"context"
	"fmt"

	"github.com/ticketledger/ticket-ledger/internal/domain"
	"github.com/ticketledger/ticket-ledger/internal/events"
	"github.com/ticketledger/ticket-ledger/internal/value"
)

// Param is a named, typed function parameter.
type Param struct {
	Name string
	Type value.Type
}

// Handler executes a contract function. Contract-level failures are
// returned as err responses; a Go error aborts the whole block.
type Handler func(ctx context.Context, call *Call, args []value.Value) (value.Value, error)

// Function is one entry point of a contract.
type Function struct {
	Name     string
	Params   []Param
	ReadOnly bool
	Handler  Handler
}

// Contract is deployable contract code.
type Contract interface {
	Functions() []Function
}

// Call is the execution context handed to a Handler.
type Call struct {
	Contract    string
	Sender      domain.Principal
	Deployer    domain.Principal
	BlockHeight uint64
	ReadOnly    bool

	events []events.Event
}

// Emit records an event on the transaction receipt. Read-only calls
// discard events.
func (c *Call) Emit(eventType events.EventType, ticketID uint64, payload any) {
	if c.ReadOnly {
		return
	}
	c.events = append(c.events, events.Event{
		Type:     eventType,
		Contract: c.Contract,
		TicketID: ticketID,
		Actor:    c.Sender,
		Payload:  payload,
	})
}

type deployment struct {
	name       string
	deployer   domain.Principal
	deployedAt uint64
	functions  map[string]Function
}

func (d *deployment) resolve(function string, args []value.Value) (Function, error) {
	fn, ok := d.functions[function]
	if !ok {
		return Function{}, fmt.Errorf("%s.%s: %w", d.name, function, ErrUnknownFunction)
	}
	if len(args) != len(fn.Params) {
		return Function{}, fmt.Errorf("%s.%s: expected %d arguments, got %d: %w",
			d.name, function, len(fn.Params), len(args), ErrBadArguments)
	}
	for i, p := range fn.Params {
		if err := p.Type.Admit(args[i]); err != nil {
			return Function{}, fmt.Errorf("%s.%s: argument %s: %v: %w", d.name, function, p.Name, err, ErrBadArguments)
		}
	}
	return fn, nil
}

// ContractInfo describes a deployed contract.
type ContractInfo struct {
	Name       string
	Deployer   domain.Principal
	DeployedAt uint64
	Functions  []string
}
