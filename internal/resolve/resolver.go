package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tally/internal/matching"
	"github.com/MrJamesThe3rd/tally/internal/transaction"
)

// Item is one search transaction to resolve against the ledger.
type Item struct {
	Query   matching.Query
	Receipt string
	Ledger  transaction.Ledger
	Config  matching.Config
}

// Outcome is the committed decision for one item. Config is the search
// configuration in effect when the decision was taken, widened or not.
type Outcome struct {
	Action Action
	Match  transaction.Transaction
	Config matching.Config
	Path   []string
}

type Resolver struct {
	operator Operator
	logger   *slog.Logger
	now      func() time.Time
}

func NewResolver(operator Operator, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}

	return &Resolver{
		operator: operator,
		logger:   logger,
		now:      time.Now,
	}
}

// Resolve decides which ledger row, if any, corresponds to the item and
// appends exactly one record to ds. An *AmbiguityError still records the
// ABORT_AMBIGUOUS outcome; operator and search failures record nothing.
func (r *Resolver) Resolve(ctx context.Context, item Item, ds *ActionDataset) (Outcome, error) {
	search := item.Query.Transaction

	out, ok, err := r.replay(item, ds)
	if err != nil {
		return Outcome{}, err
	}

	if !ok {
		out, err = r.run(ctx, item)
		if err != nil {
			var amb *AmbiguityError
			if errors.As(err, &amb) {
				ds.Append(r.pair(item, out))
				r.logger.Warn("ambiguous transaction",
					"id", search.ID().String(),
					"date", search.Date().Format(time.DateOnly),
					"amount", search.NetAmount().StringFixed(2),
					"candidates", amb.Candidates,
				)
			}

			return out, err
		}
	}

	ds.Append(r.pair(item, out))

	attrs := []any{
		"id", search.ID().String(),
		"date", search.Date().Format(time.DateOnly),
		"amount", search.NetAmount().StringFixed(2),
		"action", out.Action,
		"path", strings.Join(out.Path, " → "),
	}
	if out.Match != nil {
		attrs = append(attrs, "match", out.Match.ID().String())
	}

	r.logger.Info("resolved transaction", attrs...)

	return out, nil
}

// replay reuses a settled outcome from an earlier run so that re-running
// over linked receipts asks nothing. A prior link whose ledger row has
// disappeared, or a prior "no match" that now has candidates, is resolved
// again.
func (r *Resolver) replay(item Item, ds *ActionDataset) (Outcome, bool, error) {
	search := item.Query.Transaction

	prior, ok := ds.Committed(search.Account(), search.ID())
	if !ok {
		return Outcome{}, false, nil
	}

	if prior.MatchID != nil {
		tx, found := item.Ledger.Find(search.Account().Key(), *prior.MatchID)
		if !found {
			return Outcome{}, false, nil
		}

		return Outcome{
			Action: ActionAutoLink,
			Match:  tx,
			Config: item.Config,
			Path:   []string{string(StateOneMatch), string(ActionAutoLink)},
		}, true, nil
	}

	cands, err := matching.Search(item.Query, item.Ledger, item.Config)
	if err != nil {
		return Outcome{}, false, fmt.Errorf("searching candidates: %w", err)
	}

	if len(cands) > 0 {
		return Outcome{}, false, nil
	}

	return Outcome{
		Action: ActionConfirmNoMatch,
		Config: item.Config,
		Path:   []string{string(StateNoMatch), string(ActionConfirmNoMatch)},
	}, true, nil
}

func (r *Resolver) run(ctx context.Context, item Item) (Outcome, error) {
	search := item.Query.Transaction
	cfg := item.Config

	var path []string

	for {
		cands, err := matching.Search(item.Query, item.Ledger, cfg)
		if err != nil {
			return Outcome{Config: cfg, Path: path}, fmt.Errorf("searching candidates: %w", err)
		}

		state := StateFor(len(cands))
		path = append(path, string(state))

		r.logger.Debug("searched ledger",
			"id", search.ID().String(),
			"state", state,
			"candidates", len(cands),
			"config", cfg.String(),
		)

		switch state {
		case StateOneMatch:
			return Outcome{
				Action: ActionAutoLink,
				Match:  cands[0].Transaction,
				Config: cfg,
				Path:   append(path, string(ActionAutoLink)),
			}, nil

		case StateManyMatches:
			out := Outcome{Action: ActionAbortAmbiguous, Config: cfg, Path: append(path, string(ActionAbortAmbiguous))}

			return out, &AmbiguityError{
				ID:         search.ID(),
				Date:       search.Date(),
				Amount:     search.NetAmount(),
				Candidates: len(cands),
				Config:     cfg,
			}

		case StateFewMatches:
			choice, err := r.selectCandidate(ctx, item, cands, cfg)
			if err != nil {
				return Outcome{Config: cfg, Path: path}, err
			}

			if choice > 0 {
				return Outcome{
					Action: ActionUserSelect,
					Match:  cands[choice-1].Transaction,
					Config: cfg,
					Path:   append(path, string(ActionUserSelect)),
				}, nil
			}

			path = append(path, string(StateNoMatch))
		}

		action, next, err := r.noMatch(ctx, item, cfg)
		if err != nil {
			return Outcome{Config: cfg, Path: path}, err
		}

		path = append(path, string(action))

		if action == ActionConfirmNoMatch {
			return Outcome{Action: ActionConfirmNoMatch, Config: cfg, Path: path}, nil
		}

		cfg = next
	}
}

func (r *Resolver) selectCandidate(ctx context.Context, item Item, cands []matching.Candidate, cfg matching.Config) (int, error) {
	req := Request{
		Kind:       KindSelect,
		Search:     item.Query.Transaction,
		Receipt:    item.Receipt,
		Candidates: cands,
		Options:    selectOptions(cands),
		Config:     cfg,
	}

	for {
		resp, err := r.operator.Ask(ctx, req)
		if err != nil {
			return 0, fmt.Errorf("asking operator: %w", err)
		}

		choice, err := parseChoice(resp.Key, len(cands))
		if err == nil {
			return choice, nil
		}

		req.Problem = r.rejected(item, err)
	}
}

func (r *Resolver) noMatch(ctx context.Context, item Item, cfg matching.Config) (Action, matching.Config, error) {
	req := Request{
		Kind:    KindNoMatch,
		Search:  item.Query.Transaction,
		Receipt: item.Receipt,
		Options: noMatchOptions,
		Config:  cfg,
	}

	for {
		resp, err := r.operator.Ask(ctx, req)
		if err != nil {
			return "", cfg, fmt.Errorf("asking operator: %w", err)
		}

		action, next, err := applyNoMatch(cfg, resp)
		if err == nil {
			return action, next, nil
		}

		req.Problem = r.rejected(item, err)
	}
}

// ConfirmSkip asks the operator whether to skip an item that failed with
// cause. It returns ErrAborted when the operator stops the run instead.
func (r *Resolver) ConfirmSkip(ctx context.Context, item Item, cause error) error {
	req := Request{
		Kind:    KindAmbiguous,
		Search:  item.Query.Transaction,
		Receipt: item.Receipt,
		Options: ambiguousOptions,
		Config:  item.Config,
		Problem: cause.Error(),
	}

	for {
		resp, err := r.operator.Ask(ctx, req)
		if err != nil {
			return fmt.Errorf("asking operator: %w", err)
		}

		switch resp.Key {
		case OptionSkip:
			return nil
		case OptionAbort:
			return ErrAborted
		}

		req.Problem = r.rejected(item, &matching.InputValidationError{Input: resp.Key, Reason: "choose skip or abort"})
	}
}

func (r *Resolver) rejected(item Item, err error) string {
	r.logger.Warn("rejected operator input",
		"id", item.Query.Transaction.ID().String(),
		"error", err,
	)

	return err.Error()
}

func (r *Resolver) pair(item Item, out Outcome) ActionValuePair {
	search := item.Query.Transaction

	p := ActionValuePair{
		SearchID:     search.ID(),
		SearchDate:   search.Date(),
		SearchAmount: search.NetAmount(),
		Account:      search.Account(),
		Receipt:      item.Receipt,
		Action:       out.Action,
		Config:       out.Config,
		CreatedAt:    r.now(),
	}

	if out.Match != nil {
		p.MatchID = new(out.Match.ID())
	}

	return p
}

var noMatchOptions = []Option{
	{Key: OptionWidenDays, Label: "Widen date range by N days", NeedsValue: true},
	{Key: OptionWidenAmount, Label: "Widen amount range by X", NeedsValue: true},
	{Key: OptionConfirm, Label: "No ledger counterpart exists"},
}

var ambiguousOptions = []Option{
	{Key: OptionSkip, Label: "Skip this transaction"},
	{Key: OptionAbort, Label: "Abort the run"},
}

func selectOptions(cands []matching.Candidate) []Option {
	opts := make([]Option, 0, len(cands)+1)
	opts = append(opts, Option{Key: OptionNone, Label: "None of these"})

	for i, c := range cands {
		label := fmt.Sprintf("%s  %10s  %s",
			c.Transaction.Date().Format(time.DateOnly),
			c.Transaction.NetAmount().StringFixed(2),
			c.Transaction.Description(),
		)
		if c.MonthSwapped {
			label += " (day/month swapped)"
		}

		opts = append(opts, Option{Key: strconv.Itoa(i + 1), Label: label})
	}

	return opts
}

func parseChoice(raw string, n int) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &matching.InputValidationError{Input: raw, Reason: "not a number"}
	}

	if v < 0 || v > n {
		return 0, &matching.InputValidationError{Input: raw, Reason: fmt.Sprintf("choose between 0 and %d", n)}
	}

	return v, nil
}

func applyNoMatch(cfg matching.Config, resp Response) (Action, matching.Config, error) {
	value := strings.TrimSpace(resp.Value)

	switch resp.Key {
	case OptionConfirm:
		return ActionConfirmNoMatch, cfg, nil

	case OptionWidenDays:
		days, err := strconv.Atoi(value)
		if err != nil {
			return "", cfg, &matching.InputValidationError{Input: resp.Value, Reason: "day count must be a whole number"}
		}

		next, err := matching.WidenDateRange(cfg, days)

		return ActionWidenAndRetry, next, err

	case OptionWidenAmount:
		delta, err := decimal.NewFromString(value)
		if err != nil {
			return "", cfg, &matching.InputValidationError{Input: resp.Value, Reason: "amount must be a number"}
		}

		next, err := matching.WidenAmountRange(cfg, delta)

		return ActionWidenAndRetry, next, err
	}

	return "", cfg, &matching.InputValidationError{Input: resp.Key, Reason: "unknown option"}
}
