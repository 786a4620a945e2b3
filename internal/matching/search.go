package matching

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tally/internal/transaction"
)

var ErrNoConversionRatio = errors.New("no conversion ratio for cross-currency search")

// Pair names a conversion from one currency into another.
type Pair struct {
	From string
	To   string
}

// Ratios maps a currency pair to how many From units make one To unit.
type Ratios map[Pair]decimal.Decimal

// Query is one search transaction plus the conversion ratios on offer.
type Query struct {
	Transaction transaction.Transaction
	Ratios      Ratios
}

// Candidate is a ledger row that could be the search transaction's
// counterpart.
type Candidate struct {
	Transaction  transaction.Transaction
	AmountDiff   decimal.Decimal
	MonthSwapped bool
}

// Search returns the ledger rows plausibly matching q.Transaction, ordered
// by date and then by closeness of amount. Only rows of accounts with the
// same holder, bank and type are considered; rows in a currency with no
// conversion ratio on offer are skipped.
func Search(q Query, ledger transaction.Ledger, cfg Config) ([]Candidate, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	search := q.Transaction
	day := transaction.Day(search.Date())
	lo := day.AddDate(0, 0, -cfg.Days)
	hi := day.AddDate(0, 0, cfg.Days)

	swapped, hasSwap := time.Time{}, false
	if cfg.DaysMonthSwap {
		swapped, hasSwap = swapDayMonth(day)
	}

	var out []Candidate

	for _, tx := range ledger.ForKey(search.Account().Key(), yearsBetween(lo, hi)...) {
		d := tx.Date()

		inWindow := !d.Before(lo) && !d.After(hi)
		isSwap := hasSwap && d.Equal(swapped)

		if !inWindow && !isSwap {
			continue
		}

		target, err := q.target(tx.Account().BaseCurrency)
		if errors.Is(err, ErrNoConversionRatio) {
			slog.Warn("skipping candidate without conversion ratio",
				"id", tx.ID().String(),
				"from", search.Account().BaseCurrency,
				"to", tx.Account().BaseCurrency,
			)

			continue
		}

		if err != nil {
			return nil, err
		}

		diff := tx.NetAmount().Sub(target).Abs()
		if diff.GreaterThan(cfg.AmountRange) {
			continue
		}

		out = append(out, Candidate{
			Transaction:  tx,
			AmountDiff:   diff,
			MonthSwapped: isSwap && !inWindow,
		})
	}

	slices.SortStableFunc(out, compareCandidates)

	return out, nil
}

// target is the search net amount expressed in currency.
func (q Query) target(currency string) (decimal.Decimal, error) {
	net := q.Transaction.NetAmount()
	from := q.Transaction.Account().BaseCurrency

	if currency == from {
		return net, nil
	}

	ratio, ok := q.Ratios[Pair{From: from, To: currency}]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s to %s", ErrNoConversionRatio, from, currency)
	}

	if !ratio.IsPositive() {
		return decimal.Zero, &InputValidationError{Input: ratio.String(), Reason: "conversion ratio must be positive"}
	}

	return transaction.Round(net.Div(ratio)), nil
}

func compareCandidates(a, b Candidate) int {
	if c := a.Transaction.Date().Compare(b.Transaction.Date()); c != 0 {
		return c
	}

	if c := a.AmountDiff.Cmp(b.AmountDiff); c != 0 {
		return c
	}

	return cmp.Compare(a.Transaction.ID(), b.Transaction.ID())
}

// swapDayMonth returns day with its day and month exchanged, when that is
// a different, real calendar date.
func swapDayMonth(day time.Time) (time.Time, bool) {
	m, d := int(day.Month()), day.Day()
	if m == d || d > 12 {
		return time.Time{}, false
	}

	swapped := time.Date(day.Year(), time.Month(d), m, 0, 0, 0, 0, time.UTC)
	if swapped.Day() != m || int(swapped.Month()) != d {
		return time.Time{}, false
	}

	return swapped, true
}

func yearsBetween(lo, hi time.Time) []int {
	var years []int
	for y := lo.Year(); y <= hi.Year(); y++ {
		years = append(years, y)
	}

	return years
}
