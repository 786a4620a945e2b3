package importer

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/MrJamesThe3rd/tally/internal/account"
	"github.com/MrJamesThe3rd/tally/internal/importer/cgd"
	"github.com/MrJamesThe3rd/tally/internal/transaction"
)

var ErrUnknownBank = errors.New("unknown bank")

type Service struct {
	importers map[Bank]Importer
}

func NewService() *Service {
	return &Service{
		importers: map[Bank]Importer{
			BankCGD: cgd.NewParser(),
		},
	}
}

// Banks lists the statement formats the service can read.
func (s *Service) Banks() []Bank {
	return slices.Sorted(maps.Keys(s.importers))
}

func (s *Service) Import(bank Bank, acc account.Account, r io.Reader) ([]*transaction.CsvTransaction, error) {
	importer, ok := s.importers[bank]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBank, bank)
	}

	if err := acc.Validate(); err != nil {
		return nil, fmt.Errorf("import account: %w", err)
	}

	return importer.Parse(r, acc)
}

// ImportStatement reads a statement listed in the accounts file.
func (s *Service) ImportStatement(acc account.Account, st account.Statement) ([]*transaction.CsvTransaction, error) {
	f, err := os.Open(st.Path)
	if err != nil {
		return nil, fmt.Errorf("opening statement: %w", err)
	}
	defer f.Close()

	txs, err := s.Import(Bank(st.Bank), acc, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", st.Path, err)
	}

	return txs, nil
}
