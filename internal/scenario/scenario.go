// Package scenario replays scripted blocks and read-only calls against a
// fresh in-memory chain and checks their results.
package scenario

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ticketledger/ticket-ledger/internal/contract"
	"github.com/ticketledger/ticket-ledger/internal/domain"
	"github.com/ticketledger/ticket-ledger/internal/value"
)

// Scenario is a replayable script.
type Scenario struct {
	Name     string  `yaml:"name"`
	Contract string  `yaml:"contract"`
	Options  Options `yaml:"options"`
	Steps    []Step  `yaml:"steps"`
}

// Options configures the ticket system deployment.
type Options struct {
	StaffOnlyStatusUpdates bool `yaml:"staff_only_status_updates"`
}

// Step is exactly one of a block, a read-only call or an empty-block advance.
type Step struct {
	Name     string `yaml:"name"`
	Block    []Call `yaml:"block"`
	Rejected bool   `yaml:"rejected"`
	ReadOnly *Call  `yaml:"read_only"`
	Advance  int    `yaml:"advance"`
}

// Call is one contract invocation. Args and Expect use value literals such
// as u1, u"text", 'wallet_1, true and none.
type Call struct {
	Sender   string   `yaml:"sender"`
	Function string   `yaml:"call"`
	Args     []string `yaml:"args"`
	Expect   string   `yaml:"expect"`
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a scenario document.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if sc.Contract == "" {
		sc.Contract = contract.DefaultName
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (sc *Scenario) validate() error {
	if len(sc.Steps) == 0 {
		return fmt.Errorf("scenario %q: no steps", sc.Name)
	}
	for i, step := range sc.Steps {
		kinds := 0
		if len(step.Block) > 0 {
			kinds++
		}
		if step.ReadOnly != nil {
			kinds++
		}
		if step.Advance > 0 {
			kinds++
		}
		if kinds != 1 {
			return fmt.Errorf("step %d: want exactly one of block, read_only, advance", i+1)
		}
		calls := step.Block
		if step.ReadOnly != nil {
			calls = []Call{*step.ReadOnly}
		}
		for j, call := range calls {
			if call.Sender == "" || call.Function == "" {
				return fmt.Errorf("step %d call %d: sender and call required", i+1, j+1)
			}
		}
	}
	return nil
}

// ParseLiteral converts a value literal into a value. Principals written as
// 'name are resolved through accounts when name is a known account.
func ParseLiteral(lit string, accounts map[string]domain.Principal) (value.Value, error) {
	lit = strings.TrimSpace(lit)
	switch {
	case lit == "true":
		return value.Bool(true), nil
	case lit == "false":
		return value.Bool(false), nil
	case lit == "none":
		return value.None(), nil
	case strings.HasPrefix(lit, "'"):
		name := lit[1:]
		if name == "" {
			return nil, fmt.Errorf("empty principal literal")
		}
		if addr, ok := accounts[name]; ok {
			return value.Principal(addr), nil
		}
		return value.Principal(name), nil
	case strings.HasPrefix(lit, `u"`):
		s, err := strconv.Unquote(lit[1:])
		if err != nil {
			return nil, fmt.Errorf("bad utf8 literal %s: %w", lit, err)
		}
		return value.UTF8(s), nil
	case strings.HasPrefix(lit, "u"):
		n, err := strconv.ParseUint(lit[1:], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad uint literal %s: %w", lit, err)
		}
		return value.UInt(n), nil
	}
	return nil, fmt.Errorf("unrecognised literal %q", lit)
}
