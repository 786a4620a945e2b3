package transaction

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tally/internal/account"
)

// Transaction is the shape shared by receipt legs and ledger rows. Two
// transactions with the same ID are the same transaction, whichever
// variant produced them.
type Transaction interface {
	ID() ID
	Account() account.Account
	Date() time.Time
	TenderedOut() decimal.Decimal
	ChangeReturned() decimal.Decimal
	NetAmount() decimal.Decimal
	Description() string
}

type base struct {
	id      ID
	account account.Account
	date    time.Time
	desc    string
}

func (b base) ID() ID                   { return b.id }
func (b base) Account() account.Account { return b.account }
func (b base) Date() time.Time          { return b.date }
func (b base) Description() string      { return b.desc }

// AccountTransaction is one payment leg entered from a receipt.
type AccountTransaction struct {
	base
	tendered decimal.Decimal
	change   decimal.Decimal
}

type AccountTransactionParams struct {
	Account        account.Account
	Date           time.Time
	TenderedOut    decimal.Decimal
	ChangeReturned decimal.Decimal
	Description    string
}

func NewAccountTransaction(p AccountTransactionParams) *AccountTransaction {
	date := Day(p.Date)

	return &AccountTransaction{
		base: base{
			id:      Fingerprint(date, p.TenderedOut, p.ChangeReturned),
			account: p.Account,
			date:    date,
			desc:    p.Description,
		},
		tendered: p.TenderedOut,
		change:   p.ChangeReturned,
	}
}

func (t *AccountTransaction) TenderedOut() decimal.Decimal    { return t.tendered }
func (t *AccountTransaction) ChangeReturned() decimal.Decimal { return t.change }

func (t *AccountTransaction) NetAmount() decimal.Decimal {
	return t.tendered.Sub(t.change)
}

// CsvTransaction is a ledger row ingested from a bank statement. It only
// knows its native net amount.
type CsvTransaction struct {
	base
	amount decimal.Decimal
}

type CsvParams struct {
	Account     account.Account
	Date        time.Time
	Amount      decimal.Decimal
	Description string
}

func NewCsvTransaction(p CsvParams) *CsvTransaction {
	date := Day(p.Date)

	return &CsvTransaction{
		base: base{
			id:      Fingerprint(date, p.Amount, decimal.Zero),
			account: p.Account,
			date:    date,
			desc:    p.Description,
		},
		amount: p.Amount,
	}
}

func (t *CsvTransaction) TenderedOut() decimal.Decimal    { return t.amount }
func (t *CsvTransaction) ChangeReturned() decimal.Decimal { return decimal.Zero }
func (t *CsvTransaction) NetAmount() decimal.Decimal      { return t.amount }

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Same reports whether a and b are the same logical event: same date and
// same net amount to the cent.
func Same(a, b Transaction) bool {
	return a.Date().Equal(b.Date()) && Round(a.NetAmount()).Equal(Round(b.NetAmount()))
}

// Round rounds to the currency precision used everywhere in the ledger.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
