package transaction

import (
	"slices"

	"github.com/MrJamesThe3rd/tally/internal/account"
)

// Ledger groups ledger rows by account and then by year.
type Ledger map[account.Account]map[int][]Transaction

// Add files tx under its account and year.
func (l Ledger) Add(txs ...Transaction) {
	for _, tx := range txs {
		years, ok := l[tx.Account()]
		if !ok {
			years = make(map[int][]Transaction)
			l[tx.Account()] = years
		}

		years[tx.Date().Year()] = append(years[tx.Date().Year()], tx)
	}
}

// Accounts returns every account present, in a stable order.
func (l Ledger) Accounts() []account.Account {
	out := make([]account.Account, 0, len(l))
	for a := range l {
		out = append(out, a)
	}

	slices.SortFunc(out, account.Compare)

	return out
}

// Years returns the years recorded for acc, ascending.
func (l Ledger) Years(acc account.Account) []int {
	out := make([]int, 0, len(l[acc]))
	for y := range l[acc] {
		out = append(out, y)
	}

	slices.Sort(out)

	return out
}

// ForKey returns the rows of every account sharing key, restricted to the
// given years. Rows of other holders, banks or account types never appear.
func (l Ledger) ForKey(key account.Key, years ...int) []Transaction {
	var out []Transaction

	for _, acc := range l.Accounts() {
		if acc.Key() != key {
			continue
		}

		for _, y := range years {
			out = append(out, l[acc][y]...)
		}
	}

	return out
}

// Len counts every row.
func (l Ledger) Len() int {
	n := 0

	for _, years := range l {
		for _, txs := range years {
			n += len(txs)
		}
	}

	return n
}

// Find looks id up among the rows of every account sharing key.
func (l Ledger) Find(key account.Key, id ID) (Transaction, bool) {
	for _, acc := range l.Accounts() {
		if acc.Key() != key {
			continue
		}

		for _, y := range l.Years(acc) {
			for _, tx := range l[acc][y] {
				if tx.ID() == id {
					return tx, true
				}
			}
		}
	}

	return nil, false
}
