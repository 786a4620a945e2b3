package resolve

import (
	"context"

	"github.com/MrJamesThe3rd/tally/internal/matching"
	"github.com/MrJamesThe3rd/tally/internal/transaction"
)

// Kind tells the operator which decision is being asked for.
type Kind string

const (
	KindSelect    Kind = "select"
	KindNoMatch   Kind = "no_match"
	KindAmbiguous Kind = "ambiguous"
)

// Option keys for KindNoMatch and KindAmbiguous requests. KindSelect
// requests use "0".."N", where "0" means none of the candidates.
const (
	OptionNone        = "0"
	OptionWidenDays   = "days"
	OptionWidenAmount = "amount"
	OptionConfirm     = "none"
	OptionSkip        = "skip"
	OptionAbort       = "abort"
)

type Option struct {
	Key        string
	Label      string
	NeedsValue bool
}

// Request is one question put to the operator. Problem carries the reason
// the previous answer was rejected, if any.
type Request struct {
	Kind       Kind
	Search     transaction.Transaction
	Receipt    string
	Candidates []matching.Candidate
	Options    []Option
	Config     matching.Config
	Problem    string
}

// Response is the operator's raw answer. Key names the chosen option and
// Value holds any typed number; neither is trusted.
type Response struct {
	Key   string
	Value string
}

// Operator answers requests, usually by blocking on a human.
type Operator interface {
	Ask(ctx context.Context, req Request) (Response, error)
}

// OperatorFunc adapts a function to Operator.
type OperatorFunc func(ctx context.Context, req Request) (Response, error)

func (f OperatorFunc) Ask(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}
