package resolve

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tally/internal/account"
	"github.com/MrJamesThe3rd/tally/internal/matching"
	"github.com/MrJamesThe3rd/tally/internal/transaction"
)

// ActionValuePair is the audit record of one resolution.
type ActionValuePair struct {
	RunID        uuid.UUID
	Seq          int
	SearchID     transaction.ID
	SearchDate   time.Time
	SearchAmount decimal.Decimal
	Account      account.Account
	Receipt      string
	MatchID      *transaction.ID
	Action       Action
	Config       matching.Config
	CreatedAt    time.Time
}

// ActionDataset is the append-only audit trail of one run, plus the
// records of earlier runs it was seeded with.
type ActionDataset struct {
	runID uuid.UUID
	prior []ActionValuePair
	pairs []ActionValuePair
}

func NewActionDataset(runID uuid.UUID, prior []ActionValuePair) *ActionDataset {
	return &ActionDataset{runID: runID, prior: slices.Clone(prior)}
}

func (d *ActionDataset) RunID() uuid.UUID {
	return d.runID
}

// Append stamps p with the run id and the next sequence number and records it.
func (d *ActionDataset) Append(p ActionValuePair) ActionValuePair {
	p.RunID = d.runID
	p.Seq = len(d.pairs) + 1
	d.pairs = append(d.pairs, p)

	return p
}

// Pairs returns the records appended during this run.
func (d *ActionDataset) Pairs() []ActionValuePair {
	return slices.Clone(d.pairs)
}

func (d *ActionDataset) Len() int {
	return len(d.pairs)
}

// Committed returns the most recent settling record an earlier run left
// for search id on acc.
func (d *ActionDataset) Committed(acc account.Account, id transaction.ID) (ActionValuePair, bool) {
	for i := len(d.prior) - 1; i >= 0; i-- {
		p := d.prior[i]
		if p.SearchID == id && p.Account == acc && p.Action.Committed() {
			return p, true
		}
	}

	return ActionValuePair{}, false
}
