package account

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Type is the kind of account (checking, credit card, cash...).
type Type string

const (
	TypeChecking   Type = "checking"
	TypeSavings    Type = "savings"
	TypeCreditCard Type = "credit_card"
	TypeCash       Type = "cash"
)

// Account identifies where money moved. It is a comparable value and is
// used directly as a map key.
type Account struct {
	BaseCurrency string `yaml:"base_currency" json:"base_currency"`
	Holder       string `yaml:"holder" json:"holder"`
	Bank         string `yaml:"bank" json:"bank"`
	Type         Type   `yaml:"type" json:"type"`
}

// Key is the (holder, bank, type) triple. Matching only ever considers
// ledger rows whose account has the same key as the searched transaction.
type Key struct {
	Holder string
	Bank   string
	Type   Type
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Holder, k.Bank, k.Type)
}

func (a Account) Key() Key {
	return Key{Holder: a.Holder, Bank: a.Bank, Type: a.Type}
}

func (a Account) String() string {
	return fmt.Sprintf("%s (%s)", a.Key(), a.BaseCurrency)
}

// Validate reports every empty field at once.
func (a Account) Validate() error {
	var errs []error

	if strings.TrimSpace(a.BaseCurrency) == "" {
		errs = append(errs, errors.New("base currency is required"))
	}

	if strings.TrimSpace(a.Holder) == "" {
		errs = append(errs, errors.New("holder is required"))
	}

	if strings.TrimSpace(a.Bank) == "" {
		errs = append(errs, errors.New("bank is required"))
	}

	if strings.TrimSpace(string(a.Type)) == "" {
		errs = append(errs, errors.New("account type is required"))
	}

	return errors.Join(errs...)
}

// Set is the active account configuration.
type Set struct {
	accounts map[Account]struct{}
	byKey    map[Key]Account
}

func NewSet(accounts ...Account) *Set {
	s := &Set{
		accounts: make(map[Account]struct{}, len(accounts)),
		byKey:    make(map[Key]Account, len(accounts)),
	}

	for _, a := range accounts {
		s.accounts[a] = struct{}{}
		s.byKey[a.Key()] = a
	}

	return s
}

func (s *Set) Contains(a Account) bool {
	_, ok := s.accounts[a]
	return ok
}

// Lookup finds the configured account for a (holder, bank, type) triple.
func (s *Set) Lookup(k Key) (Account, bool) {
	a, ok := s.byKey[k]
	return a, ok
}

func (s *Set) Len() int {
	return len(s.accounts)
}

// All returns the accounts sorted by key, then currency.
func (s *Set) All() []Account {
	out := make([]Account, 0, len(s.accounts))
	for a := range s.accounts {
		out = append(out, a)
	}

	slices.SortFunc(out, Compare)

	return out
}

// Compare orders accounts by holder, bank, type and currency.
func Compare(a, b Account) int {
	if c := strings.Compare(a.Holder, b.Holder); c != 0 {
		return c
	}

	if c := strings.Compare(a.Bank, b.Bank); c != 0 {
		return c
	}

	if c := strings.Compare(string(a.Type), string(b.Type)); c != 0 {
		return c
	}

	return strings.Compare(a.BaseCurrency, b.BaseCurrency)
}
