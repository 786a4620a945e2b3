package cgd

import "github.com/shopspring/decimal"

// amountReader extracts the ledger amount of a row from named columns.
// Ledger amounts are signed with expenses negative, whatever the export
// itself does.
type amountReader struct {
	columns []string
	read    func(cell func(col string) string) (decimal.Decimal, bool)
}

// signed reads one column that already carries the sign.
func signed(col string) amountReader {
	return amountReader{
		columns: []string{col},
		read: func(cell func(string) string) (decimal.Decimal, bool) {
			return nonZero(cell(col))
		},
	}
}

// split reads unsigned debit and credit columns; debits become negative.
func split(debit, credit string) amountReader {
	return amountReader{
		columns: []string{debit, credit},
		read: func(cell func(string) string) (decimal.Decimal, bool) {
			if d, ok := nonZero(cell(debit)); ok {
				return d.Abs().Neg(), true
			}

			if d, ok := nonZero(cell(credit)); ok {
				return d.Abs(), true
			}

			return decimal.Zero, false
		},
	}
}

// layout is one flavour of CGD export.
type layout struct {
	name   string
	date   string
	desc   string
	amount amountReader
}

func (l layout) required() []string {
	return append([]string{l.date, l.desc}, l.amount.columns...)
}

// layouts are tried in order. The card export shares its date and
// description headers with the others, so it goes first.
var layouts = []layout{
	{name: "cartão", date: "Data", desc: "Descrição", amount: split("Débito", "Crédito")},
	{name: "extrato", date: "Data mov.", desc: "Descrição", amount: signed("Movimento")},
	{name: "conta", date: "Data mov.", desc: "Descrição", amount: signed("Montante")},
}
