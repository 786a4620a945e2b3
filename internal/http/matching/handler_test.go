package matching_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/tally/internal/account"
	httpmatching "github.com/MrJamesThe3rd/tally/internal/http/matching"
	"github.com/MrJamesThe3rd/tally/internal/matching"
	"github.com/MrJamesThe3rd/tally/internal/transaction"
)

var eur = account.Account{BaseCurrency: "EUR", Holder: "JOHN DOE", Bank: "cgd", Type: account.TypeChecking}

type fakeLedger struct {
	ledger transaction.Ledger
	filter transaction.ListFilter
}

func (f *fakeLedger) Ledger(_ context.Context, filter transaction.ListFilter) (transaction.Ledger, error) {
	f.filter = filter
	return f.ledger, nil
}

func row(t time.Time, amount, desc string) *transaction.CsvTransaction {
	return transaction.NewCsvTransaction(transaction.CsvParams{
		Account:     eur,
		Date:        t,
		Amount:      decimal.RequireFromString(amount),
		Description: desc,
	})
}

func serve(t *testing.T, h *httpmatching.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()

	r := chi.NewRouter()
	r.Route("/search", h.Routes)

	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	return rec
}

func TestHandler_Search(t *testing.T) {
	loader := &fakeLedger{ledger: make(transaction.Ledger)}
	loader.ledger.Add(
		row(time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), "-42.50", "CONTINENTE"),
		row(time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC), "-42.50", "TOO LATE"),
	)

	h := httpmatching.NewHandler(loader, matching.Config{Days: 2, AmountRange: decimal.RequireFromString("0.10")}, nil)

	type testCase struct {
		name   string
		body   string
		status int
		state  string
		count  int
	}

	tests := []testCase{
		{
			name:   "OneMatch",
			body:   `{"account":{"base_currency":"EUR","holder":"JOHN DOE","bank":"cgd","type":"checking"},"date":"2024-03-10","tendered_out":"-42.50"}`,
			status: http.StatusOK,
			state:  "ONE_MATCH",
			count:  1,
		},
		{
			name:   "WiderWindowFromRequest",
			body:   `{"account":{"base_currency":"EUR","holder":"JOHN DOE","bank":"cgd","type":"checking"},"date":"2024-03-10","tendered_out":"-42.50","config":{"days":10,"amount_range":"0.10"}}`,
			status: http.StatusOK,
			state:  "FEW_MATCHES",
			count:  2,
		},
		{
			name:   "NoMatch",
			body:   `{"account":{"base_currency":"EUR","holder":"JOHN DOE","bank":"cgd","type":"checking"},"date":"2024-03-10","tendered_out":"-1.00"}`,
			status: http.StatusOK,
			state:  "NO_MATCH",
		},
		{
			name:   "CrossCurrencyWithoutRatio",
			body:   `{"account":{"base_currency":"USD","holder":"JOHN DOE","bank":"cgd","type":"checking"},"date":"2024-03-10","tendered_out":"-46.00"}`,
			status: http.StatusOK,
			state:  "NO_MATCH",
		},
		{
			name:   "CrossCurrencyWithRatio",
			body:   `{"account":{"base_currency":"USD","holder":"JOHN DOE","bank":"cgd","type":"checking"},"date":"2024-03-10","tendered_out":"-46.00","ratios":[{"from":"USD","to":"EUR","ratio":"1.0824"}]}`,
			status: http.StatusOK,
			state:  "ONE_MATCH",
			count:  1,
		},
		{
			name:   "InvalidConfig",
			body:   `{"account":{"base_currency":"EUR","holder":"JOHN DOE","bank":"cgd","type":"checking"},"date":"2024-03-10","tendered_out":"-42.50","config":{"days":-1,"amount_range":"0"}}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "MissingAccount",
			body:   `{"date":"2024-03-10","tendered_out":"-42.50"}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "BadDate",
			body:   `{"account":{"base_currency":"EUR","holder":"JOHN DOE","bank":"cgd","type":"checking"},"date":"10/03/2024","tendered_out":"-42.50"}`,
			status: http.StatusBadRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(t, h, tc.body)
			require.Equal(t, tc.status, rec.Code, rec.Body.String())

			if tc.status != http.StatusOK {
				return
			}

			var resp struct {
				State      string `json:"state"`
				Candidates []struct {
					Description string `json:"description"`
					AmountDiff  string `json:"amount_diff"`
				} `json:"candidates"`
			}

			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tc.state, resp.State)
			assert.Len(t, resp.Candidates, tc.count)
		})
	}

	require.NotNil(t, loader.filter.StartDate)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *loader.filter.StartDate)
}
