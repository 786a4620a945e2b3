package importer

import (
	"io"

	"github.com/MrJamesThe3rd/tally/internal/account"
	"github.com/MrJamesThe3rd/tally/internal/transaction"
)

// Bank names the statement format of a bank export.
type Bank string

const (
	BankCGD Bank = "cgd"
)

// Importer turns one bank export into ledger rows of acc. Amounts are
// signed: money leaving the account is negative.
type Importer interface {
	Parse(r io.Reader, acc account.Account) ([]*transaction.CsvTransaction, error)
}
