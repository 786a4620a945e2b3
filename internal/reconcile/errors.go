package reconcile

import (
	"fmt"
	"strings"

	"github.com/MrJamesThe3rd/tally/internal/account"
	"github.com/MrJamesThe3rd/tally/internal/transaction"
)

// MissingAccount is an account some receipt leg pays from but which is not
// in the active configuration.
type MissingAccount struct {
	Account account.Account
	Legs    []transaction.ID
}

// MissingAccountsError lists every unconfigured account of a run at once.
type MissingAccountsError struct {
	Accounts []MissingAccount
}

func (e *MissingAccountsError) Error() string {
	parts := make([]string, len(e.Accounts))
	for i, m := range e.Accounts {
		parts[i] = fmt.Sprintf("%s (%d legs, first %s)", m.Account, len(m.Legs), m.Legs[0])
	}

	return fmt.Sprintf("%d accounts referenced by receipts are not configured: %s",
		len(e.Accounts), strings.Join(parts, "; "))
}
