package resolve

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tally/internal/matching"
	"github.com/MrJamesThe3rd/tally/internal/transaction"
)

// ManyMatchesThreshold is the largest candidate count still offered to the
// operator as a list.
const ManyMatchesThreshold = 14

type State string

const (
	StateNoMatch     State = "NO_MATCH"
	StateOneMatch    State = "ONE_MATCH"
	StateFewMatches  State = "FEW_MATCHES"
	StateManyMatches State = "MANY_MATCHES"
)

// StateFor classifies a candidate count.
func StateFor(n int) State {
	switch {
	case n <= 0:
		return StateNoMatch
	case n == 1:
		return StateOneMatch
	case n <= ManyMatchesThreshold:
		return StateFewMatches
	default:
		return StateManyMatches
	}
}

type Action string

const (
	ActionAutoLink       Action = "AUTO_LINK"
	ActionUserSelect     Action = "USER_SELECT"
	ActionWidenAndRetry  Action = "WIDEN_AND_RETRY"
	ActionConfirmNoMatch Action = "CONFIRM_NO_MATCH"
	ActionAbortAmbiguous Action = "ABORT_AMBIGUOUS"
)

// Committed reports whether the action settles a search transaction.
func (a Action) Committed() bool {
	return a == ActionAutoLink || a == ActionUserSelect || a == ActionConfirmNoMatch
}

var ErrAborted = errors.New("reconciliation aborted by operator")

// AmbiguityError is returned when too many candidates match. It ends the
// resolution of one search transaction, not the run.
type AmbiguityError struct {
	ID         transaction.ID
	Date       time.Time
	Amount     decimal.Decimal
	Candidates int
	Config     matching.Config
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("ambiguous match: %d candidates for %s (date %s, amount %s) within %s",
		e.Candidates, e.ID, e.Date.Format(time.DateOnly), transaction.Round(e.Amount).StringFixed(2), e.Config)
}
