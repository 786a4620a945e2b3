// Package params reads the query and form values shared by the API handlers.
package params

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/MrJamesThe3rd/tally/internal/account"
)

var ErrIncompleteAccount = errors.New("account needs currency, holder, bank and type")

// Account reads an account from currency, holder, bank and type values. It
// returns nil when none of them is set.
func Account(v url.Values) (*account.Account, error) {
	acc := account.Account{
		BaseCurrency: v.Get("currency"),
		Holder:       v.Get("holder"),
		Bank:         v.Get("bank"),
		Type:         account.Type(v.Get("type")),
	}

	if acc == (account.Account{}) {
		return nil, nil
	}

	if err := acc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIncompleteAccount, err)
	}

	return &acc, nil
}

// Date reads an optional YYYY-MM-DD value.
func Date(v url.Values, key string) (*time.Time, error) {
	s := v.Get(key)
	if s == "" {
		return nil, nil
	}

	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("%s: expected YYYY-MM-DD", key)
	}

	return &t, nil
}
