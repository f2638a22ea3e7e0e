package ledger

import (
	"encoding/base32"
	"fmt"
	"os"

	"golang.org/x/crypto/blake2b"
	"gopkg.in/yaml.v3"

	"github.com/ticketledger/ticket-ledger/internal/domain"
)

// DeployerAccount is the devnet account that deploys contracts.
const DeployerAccount = "deployer"

// Account is a named principal known at genesis.
type Account struct {
	Name    string
	Address domain.Principal
}

// GenesisAccount is one entry of a genesis file. Passphrase fields are
// consumed by the API login flow, not by the ledger.
type GenesisAccount struct {
	Name           string `yaml:"name"`
	Address        string `yaml:"address,omitempty"`
	Passphrase     string `yaml:"passphrase,omitempty"`
	PassphraseHash string `yaml:"passphrase_hash,omitempty"`
}

// Genesis describes the accounts a chain starts with.
type Genesis struct {
	ChainID  string           `yaml:"chain_id"`
	Accounts []GenesisAccount `yaml:"accounts"`
}

var addressEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// DeriveAddress returns the deterministic devnet address for an account name.
func DeriveAddress(name string) domain.Principal {
	h, _ := blake2b.New(20, nil)
	h.Write([]byte("ticket-ledger/account/" + name))
	return domain.Principal("ST" + addressEncoding.EncodeToString(h.Sum(nil)))
}

// DevnetGenesis returns the default accounts: deployer and wallet_1..wallet_9.
func DevnetGenesis() Genesis {
	g := Genesis{ChainID: "devnet"}
	g.Accounts = append(g.Accounts, GenesisAccount{Name: DeployerAccount})
	for i := 1; i <= 9; i++ {
		g.Accounts = append(g.Accounts, GenesisAccount{Name: fmt.Sprintf("wallet_%d", i)})
	}
	return g
}

// LoadGenesis reads a YAML genesis file.
func LoadGenesis(path string) (Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, fmt.Errorf("read genesis: %w", err)
	}
	var g Genesis
	if err := yaml.Unmarshal(data, &g); err != nil {
		return Genesis{}, fmt.Errorf("parse genesis: %w", err)
	}
	if err := g.Validate(); err != nil {
		return Genesis{}, err
	}
	return g, nil
}

// Validate checks names and resolved addresses are unique and a deployer
// exists.
func (g Genesis) Validate() error {
	seen := make(map[string]struct{}, len(g.Accounts))
	owners := make(map[domain.Principal]string, len(g.Accounts))
	hasDeployer := false
	for i, a := range g.Accounts {
		if a.Name == "" {
			return fmt.Errorf("genesis account %d: name required", i)
		}
		if _, dup := seen[a.Name]; dup {
			return fmt.Errorf("genesis account %q: duplicate name", a.Name)
		}
		seen[a.Name] = struct{}{}
		addr := a.resolve()
		if other, dup := owners[addr]; dup {
			return fmt.Errorf("genesis account %q: address %s already used by %q", a.Name, addr, other)
		}
		owners[addr] = a.Name
		if a.Name == DeployerAccount {
			hasDeployer = true
		}
	}
	if !hasDeployer {
		return fmt.Errorf("genesis: %q account required", DeployerAccount)
	}
	return nil
}

// ResolvedAccounts returns the ledger accounts, deriving missing addresses.
func (g Genesis) ResolvedAccounts() []Account {
	accounts := make([]Account, 0, len(g.Accounts))
	for _, a := range g.Accounts {
		accounts = append(accounts, Account{Name: a.Name, Address: a.resolve()})
	}
	return accounts
}

func (a GenesisAccount) resolve() domain.Principal {
	if a.Address != "" {
		return domain.Principal(a.Address)
	}
	return DeriveAddress(a.Name)
}
