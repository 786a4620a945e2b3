package reconcile

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/tally/internal/account"
	"github.com/MrJamesThe3rd/tally/internal/classify"
	"github.com/MrJamesThe3rd/tally/internal/matching"
	"github.com/MrJamesThe3rd/tally/internal/receipt"
	"github.com/MrJamesThe3rd/tally/internal/resolve"
	"github.com/MrJamesThe3rd/tally/internal/transaction"
)

// Partition is one account and calendar year.
type Partition struct {
	Account account.Account
	Year    int
}

func (p Partition) String() string {
	return fmt.Sprintf("%s %d", p.Account, p.Year)
}

func comparePartitions(a, b Partition) int {
	if c := account.Compare(a.Account, b.Account); c != 0 {
		return c
	}

	return cmp.Compare(a.Year, b.Year)
}

// Exporter receives the labelled transactions of one partition.
type Exporter interface {
	Export(ctx context.Context, acc account.Account, year int, txs []transaction.ProcessedTransaction) error
}

type Input struct {
	Receipts []*receipt.Receipt
	Ledger   transaction.Ledger
	Accounts *account.Set
	Config   matching.Config
	Ratios   matching.Ratios
	Prior    []resolve.ActionValuePair
}

type PartitionResult struct {
	Partition    Partition
	Transactions []transaction.ProcessedTransaction
}

type Result struct {
	RunID      uuid.UUID
	Actions    []resolve.ActionValuePair
	Partitions []PartitionResult
	Skipped    []transaction.ID
}

type Orchestrator struct {
	resolver *resolve.Resolver
	composer *classify.Composer
	exporter Exporter
	logger   *slog.Logger
	newRunID func() uuid.UUID
}

// NewOrchestrator wires a run. exporter may be nil when the caller only
// wants the result.
func NewOrchestrator(resolver *resolve.Resolver, composer *classify.Composer, exporter Exporter, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		resolver: resolver,
		composer: composer,
		exporter: exporter,
		logger:   logger,
		newRunID: uuid.New,
	}
}

// searchLeg is a receipt leg waiting for a ledger counterpart.
type searchLeg struct {
	tx    transaction.Transaction
	image string
}

type ledgerKey struct {
	account account.Account
	id      transaction.ID
}

// run holds the state shared by the partitions of one Run call.
type run struct {
	in       Input
	ds       *resolve.ActionDataset
	registry *transaction.Registry

	links    map[ledgerKey]transaction.ReceiptLink
	unlinked map[Partition][]transaction.ProcessedTransaction
	skipped  []transaction.ID
}

// Run resolves every receipt leg against the ledger one partition at a
// time, then labels and exports each partition. Legs paying from an
// unconfigured account are left out and reported together in a
// *MissingAccountsError returned alongside the result.
func (o *Orchestrator) Run(ctx context.Context, in Input) (*Result, error) {
	if err := in.Config.Validate(); err != nil {
		return nil, fmt.Errorf("validating matching config: %w", err)
	}

	r := &run{
		in:       in,
		ds:       resolve.NewActionDataset(o.newRunID(), in.Prior),
		registry: transaction.NewRegistry(),
		links:    make(map[ledgerKey]transaction.ReceiptLink),
		unlinked: make(map[Partition][]transaction.ProcessedTransaction),
	}

	for _, acc := range in.Ledger.Accounts() {
		for _, y := range in.Ledger.Years(acc) {
			for _, tx := range in.Ledger[acc][y] {
				if _, err := r.registry.Register(tx); err != nil {
					return nil, err
				}
			}
		}
	}

	byPartition, missing, err := o.partitionLegs(in)
	if err != nil {
		return nil, err
	}

	order := slices.SortedFunc(maps.Keys(byPartition), comparePartitions)

	for _, p := range order {
		if err := o.resolvePartition(ctx, r, p, byPartition[p]); err != nil {
			return nil, err
		}
	}

	result := &Result{
		RunID:   r.ds.RunID(),
		Actions: r.ds.Pairs(),
		Skipped: r.skipped,
	}

	for _, p := range o.outputPartitions(r) {
		txs, err := o.assemble(ctx, r, p)
		if err != nil {
			return result, err
		}

		if o.exporter != nil {
			if err := o.exporter.Export(ctx, p.Account, p.Year, txs); err != nil {
				return result, fmt.Errorf("exporting %s: %w", p, err)
			}
		}

		result.Partitions = append(result.Partitions, PartitionResult{Partition: p, Transactions: txs})
	}

	o.logger.Info("reconciliation finished",
		"run", result.RunID.String(),
		"actions", len(result.Actions),
		"partitions", len(result.Partitions),
		"skipped", len(result.Skipped),
	)

	if len(missing) > 0 {
		return result, &MissingAccountsError{Accounts: missing}
	}

	return result, nil
}

// partitionLegs validates receipts, groups their legs by partition and
// collects the legs whose account is not configured.
func (o *Orchestrator) partitionLegs(in Input) (map[Partition][]searchLeg, []MissingAccount, error) {
	byPartition := make(map[Partition][]searchLeg)
	missingLegs := make(map[account.Account][]transaction.ID)

	for _, rc := range in.Receipts {
		if err := rc.Validate(); err != nil {
			return nil, nil, err
		}

		for _, leg := range rc.Legs() {
			acc := leg.Transaction.Account()

			if in.Accounts == nil || !in.Accounts.Contains(acc) {
				missingLegs[acc] = append(missingLegs[acc], leg.Transaction.ID())
				continue
			}

			p := Partition{Account: acc, Year: leg.Transaction.Date().Year()}
			byPartition[p] = append(byPartition[p], searchLeg{tx: leg.Transaction, image: rc.Image})
		}
	}

	var missing []MissingAccount
	for _, acc := range slices.SortedFunc(maps.Keys(missingLegs), account.Compare) {
		missing = append(missing, MissingAccount{Account: acc, Legs: missingLegs[acc]})
	}

	return byPartition, missing, nil
}

func (o *Orchestrator) resolvePartition(ctx context.Context, r *run, p Partition, legs []searchLeg) error {
	o.logger.Info("reconciling partition", "partition", p.String(), "legs", len(legs))

	cfg := r.in.Config
	committed := make(map[transaction.ID]struct{}, len(legs))

	for _, leg := range legs {
		if _, err := r.registry.Register(leg.tx); err != nil {
			return err
		}

		if _, dup := committed[leg.tx.ID()]; dup {
			return transaction.InvariantError(leg.tx, "committed twice in %s", p)
		}

		item := resolve.Item{
			Query:   matching.Query{Transaction: leg.tx, Ratios: r.in.Ratios},
			Receipt: leg.image,
			Ledger:  r.in.Ledger,
			Config:  cfg,
		}

		out, err := o.resolver.Resolve(ctx, item, r.ds)
		if err != nil {
			var amb *resolve.AmbiguityError
			if !errors.As(err, &amb) {
				return fmt.Errorf("resolving %s in %s: %w", leg.tx.ID(), p, err)
			}

			if err := o.resolver.ConfirmSkip(ctx, item, amb); err != nil {
				return err
			}

			o.logger.Warn("skipped ambiguous transaction", "id", leg.tx.ID().String(), "receipt", leg.image)
			r.skipped = append(r.skipped, leg.tx.ID())

			continue
		}

		cfg = out.Config
		committed[leg.tx.ID()] = struct{}{}

		link := transaction.ReceiptLink{Image: leg.image, LegID: leg.tx.ID()}

		if out.Match == nil {
			r.unlinked[p] = append(r.unlinked[p], transaction.NewProcessed(leg.tx).WithReceipt(link))
			continue
		}

		key := ledgerKey{account: out.Match.Account(), id: out.Match.ID()}

		if prev, ok := r.links[key]; ok && prev.Image != link.Image && !r.in.Config.MultipleReceiptsPerTransaction {
			return transaction.InvariantError(out.Match, "ledger transaction already linked to receipt %s, cannot link %s", prev.Image, link.Image)
		}

		r.links[key] = link
	}

	return nil
}

// Snapshot rebuilds the labelled partitions of ledger from stored audit
// records without asking the operator anything. Committed matches become
// receipt links; later records win over earlier ones.
func (o *Orchestrator) Snapshot(ctx context.Context, ledger transaction.Ledger, pairs []resolve.ActionValuePair) ([]PartitionResult, error) {
	r := &run{
		in:       Input{Ledger: ledger},
		links:    make(map[ledgerKey]transaction.ReceiptLink),
		unlinked: make(map[Partition][]transaction.ProcessedTransaction),
	}

	for _, p := range pairs {
		if !p.Action.Committed() || p.MatchID == nil {
			continue
		}

		match, ok := ledger.Find(p.Account.Key(), *p.MatchID)
		if !ok {
			continue
		}

		r.links[ledgerKey{account: match.Account(), id: match.ID()}] = transaction.ReceiptLink{Image: p.Receipt, LegID: p.SearchID}
	}

	var out []PartitionResult

	for _, p := range o.outputPartitions(r) {
		txs, err := o.assemble(ctx, r, p)
		if err != nil {
			return nil, err
		}

		out = append(out, PartitionResult{Partition: p, Transactions: txs})
	}

	return out, nil
}

// outputPartitions lists every partition with ledger rows or unlinked legs.
func (o *Orchestrator) outputPartitions(r *run) []Partition {
	set := make(map[Partition]struct{})

	for _, acc := range r.in.Ledger.Accounts() {
		for _, y := range r.in.Ledger.Years(acc) {
			set[Partition{Account: acc, Year: y}] = struct{}{}
		}
	}

	for p := range r.unlinked {
		set[p] = struct{}{}
	}

	return slices.SortedFunc(maps.Keys(set), comparePartitions)
}

func (o *Orchestrator) assemble(ctx context.Context, r *run, p Partition) ([]transaction.ProcessedTransaction, error) {
	var txs []transaction.ProcessedTransaction

	for _, tx := range r.in.Ledger[p.Account][p.Year] {
		pt := transaction.NewProcessed(tx)
		if link, ok := r.links[ledgerKey{account: p.Account, id: tx.ID()}]; ok {
			pt = pt.WithReceipt(link)
		}

		txs = append(txs, pt)
	}

	txs = append(txs, r.unlinked[p]...)

	slices.SortStableFunc(txs, func(a, b transaction.ProcessedTransaction) int {
		if c := a.Transaction().Date().Compare(b.Transaction().Date()); c != 0 {
			return c
		}

		return cmp.Compare(a.ID(), b.ID())
	})

	if o.composer == nil {
		return txs, nil
	}

	labelled, err := o.composer.ComposeAll(ctx, txs)
	if err != nil {
		return nil, fmt.Errorf("labelling %s: %w", p, err)
	}

	return labelled, nil
}
