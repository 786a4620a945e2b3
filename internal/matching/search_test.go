package matching_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/tally/internal/account"
	"github.com/MrJamesThe3rd/tally/internal/matching"
	"github.com/MrJamesThe3rd/tally/internal/transaction"
)

var (
	eur  = account.Account{BaseCurrency: "EUR", Holder: "JOHN DOE", Bank: "cgd", Type: account.TypeChecking}
	usd  = account.Account{BaseCurrency: "USD", Holder: "JOHN DOE", Bank: "cgd", Type: account.TypeChecking}
	card = account.Account{BaseCurrency: "EUR", Holder: "JOHN DOE", Bank: "cgd", Type: account.TypeCreditCard}
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func ledgerRow(acc account.Account, t time.Time, amount string) *transaction.CsvTransaction {
	return transaction.NewCsvTransaction(transaction.CsvParams{Account: acc, Date: t, Amount: dec(amount)})
}

func leg(acc account.Account, t time.Time, amount string) *transaction.AccountTransaction {
	return transaction.NewAccountTransaction(transaction.AccountTransactionParams{
		Account:     acc,
		Date:        t,
		TenderedOut: dec(amount),
	})
}

func dates(cands []matching.Candidate) []time.Time {
	out := make([]time.Time, len(cands))
	for i, c := range cands {
		out[i] = c.Transaction.Date()
	}

	return out
}

func TestSearch_DateAndAmountWindow(t *testing.T) {
	l := make(transaction.Ledger)
	l.Add(
		ledgerRow(eur, date(2024, 3, 9), "-42.50"),
		ledgerRow(eur, date(2024, 3, 11), "-42.00"),
		ledgerRow(eur, date(2024, 3, 13), "-42.50"),
		ledgerRow(eur, date(2024, 3, 10), "-44.00"),
		ledgerRow(card, date(2024, 3, 10), "-42.50"),
	)

	cfg := matching.Config{Days: 2, AmountRange: dec("1.0")}

	got, err := matching.Search(matching.Query{Transaction: leg(eur, date(2024, 3, 10), "-42.50")}, l, cfg)
	require.NoError(t, err)

	assert.Equal(t, []time.Time{date(2024, 3, 9), date(2024, 3, 11)}, dates(got))
	assert.True(t, got[0].AmountDiff.IsZero())
	assert.True(t, got[1].AmountDiff.Equal(dec("0.5")))
}

func TestSearch_Boundaries(t *testing.T) {
	type testCase struct {
		name    string
		row     *transaction.CsvTransaction
		cfg     matching.Config
		wantHit bool
	}

	search := date(2024, 3, 10)

	tests := []testCase{
		{
			name:    "DateEdgeInclusive",
			row:     ledgerRow(eur, date(2024, 3, 12), "-10.00"),
			cfg:     matching.Config{Days: 2, AmountRange: dec("0")},
			wantHit: true,
		},
		{
			name: "DateJustOutside",
			row:  ledgerRow(eur, date(2024, 3, 13), "-10.00"),
			cfg:  matching.Config{Days: 2, AmountRange: dec("0")},
		},
		{
			name:    "AmountEdgeInclusive",
			row:     ledgerRow(eur, search, "-10.50"),
			cfg:     matching.Config{Days: 0, AmountRange: dec("0.50")},
			wantHit: true,
		},
		{
			name: "AmountJustOutside",
			row:  ledgerRow(eur, search, "-10.51"),
			cfg:  matching.Config{Days: 0, AmountRange: dec("0.50")},
		},
		{
			name: "OtherAccountKeyIgnored",
			row:  ledgerRow(card, search, "-10.00"),
			cfg:  matching.Config{Days: 5, AmountRange: dec("5")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := make(transaction.Ledger)
			l.Add(tt.row)

			got, err := matching.Search(matching.Query{Transaction: leg(eur, search, "-10.00")}, l, tt.cfg)
			require.NoError(t, err)

			if tt.wantHit {
				assert.Len(t, got, 1)
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestSearch_TieBreakByAmount(t *testing.T) {
	l := make(transaction.Ledger)
	l.Add(
		ledgerRow(eur, date(2024, 3, 10), "-9.00"),
		ledgerRow(eur, date(2024, 3, 10), "-10.20"),
		ledgerRow(eur, date(2024, 3, 9), "-11.00"),
	)

	got, err := matching.Search(matching.Query{Transaction: leg(eur, date(2024, 3, 10), "-10.00")}, l,
		matching.Config{Days: 1, AmountRange: dec("1")})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, date(2024, 3, 9), got[0].Transaction.Date())
	assert.True(t, got[1].Transaction.NetAmount().Equal(dec("-10.20")))
	assert.True(t, got[2].Transaction.NetAmount().Equal(dec("-9.00")))
}

func TestSearch_YearBoundary(t *testing.T) {
	l := make(transaction.Ledger)
	l.Add(ledgerRow(eur, date(2023, 12, 31), "-5.00"))

	got, err := matching.Search(matching.Query{Transaction: leg(eur, date(2024, 1, 1), "-5.00")}, l,
		matching.Config{Days: 1, AmountRange: dec("0")})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSearch_MonthSwap(t *testing.T) {
	type testCase struct {
		name     string
		search   time.Time
		row      time.Time
		swap     bool
		wantHit  bool
		wantFlag bool
	}

	tests := []testCase{
		{
			name:     "SwappedDateAccepted",
			search:   date(2024, 3, 5),
			row:      date(2024, 5, 3),
			swap:     true,
			wantHit:  true,
			wantFlag: true,
		},
		{
			name:   "SwapDisabled",
			search: date(2024, 3, 5),
			row:    date(2024, 5, 3),
		},
		{
			name:   "InvalidSwapIgnored",
			search: date(2024, 2, 29),
			row:    date(2024, 12, 2),
			swap:   true,
		},
		{
			name:    "InWindowNotFlagged",
			search:  date(2024, 4, 4),
			row:     date(2024, 4, 4),
			swap:    true,
			wantHit: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := make(transaction.Ledger)
			l.Add(ledgerRow(eur, tt.row, "-7.00"))

			got, err := matching.Search(matching.Query{Transaction: leg(eur, tt.search, "-7.00")}, l,
				matching.Config{Days: 1, AmountRange: dec("0"), DaysMonthSwap: tt.swap})
			require.NoError(t, err)

			if !tt.wantHit {
				assert.Empty(t, got)
				return
			}

			require.Len(t, got, 1)
			assert.Equal(t, tt.wantFlag, got[0].MonthSwapped)
		})
	}
}

func TestSearch_CrossCurrency(t *testing.T) {
	l := make(transaction.Ledger)
	l.Add(ledgerRow(usd, date(2024, 3, 10), "-11.00"))

	q := matching.Query{Transaction: leg(eur, date(2024, 3, 10), "-10.00")}
	cfg := matching.Config{Days: 0, AmountRange: dec("0.05")}

	got, err := matching.Search(q, l, cfg)
	require.NoError(t, err)
	assert.Empty(t, got)

	// 1 USD = 0.9091 EUR, so -10.00 EUR is -11.00 USD.
	q.Ratios = matching.Ratios{{From: "EUR", To: "USD"}: dec("0.9091")}

	got, err = matching.Search(q, l, cfg)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	q.Ratios = matching.Ratios{{From: "EUR", To: "USD"}: dec("0")}
	_, err = matching.Search(q, l, cfg)

	var inv *matching.InputValidationError
	assert.True(t, errors.As(err, &inv))
}

func TestSearch_SkipsSiblingCurrencyWithoutRatio(t *testing.T) {
	l := make(transaction.Ledger)
	exact := ledgerRow(eur, date(2024, 3, 10), "-10.00")
	l.Add(exact)
	l.Add(ledgerRow(usd, date(2024, 3, 10), "-99.00"))

	got, err := matching.Search(matching.Query{Transaction: leg(eur, date(2024, 3, 10), "-10.00")}, l,
		matching.Config{Days: 1, AmountRange: dec("0.5")})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, exact.ID(), got[0].Transaction.ID())
}

func TestSearch_InvalidConfig(t *testing.T) {
	_, err := matching.Search(matching.Query{Transaction: leg(eur, date(2024, 1, 1), "-1")},
		make(transaction.Ledger), matching.Config{Days: -1})

	var inv *matching.InputValidationError
	assert.True(t, errors.As(err, &inv))

	_, err = matching.Search(matching.Query{Transaction: leg(eur, date(2024, 1, 1), "-1")},
		make(transaction.Ledger), matching.Config{Days: matching.MaxDays + 1})
	assert.True(t, errors.As(err, &inv))
}
