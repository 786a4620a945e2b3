package transaction_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/tally/internal/account"
	txHandler "github.com/MrJamesThe3rd/tally/internal/http/transaction"
	"github.com/MrJamesThe3rd/tally/internal/transaction"
)

var eur = account.Account{BaseCurrency: "EUR", Holder: "JOHN DOE", Bank: "cgd", Type: account.TypeChecking}

const accountQuery = "currency=EUR&holder=JOHN+DOE&bank=cgd&type=checking"

func row() *transaction.CsvTransaction {
	return transaction.NewCsvTransaction(transaction.CsvParams{
		Account:     eur,
		Date:        time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
		Amount:      decimal.RequireFromString("-42.5"),
		Description: "CONTINENTE",
	})
}

func serve(repo transaction.Repository, target string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Route("/ledger", txHandler.NewHandler(transaction.NewService(repo)).Routes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	return rec
}

func TestHandler_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := transaction.NewMockRepository(ctrl)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	repo.EXPECT().
		ListTransactions(gomock.Any(), transaction.ListFilter{Account: &eur, StartDate: &start}).
		Return([]*transaction.CsvTransaction{row()}, nil)

	rec := serve(repo, "/ledger?"+accountQuery+"&start_date=2024-01-01")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, row().ID().String(), resp[0]["id"])
	assert.Equal(t, "-42.50", resp[0]["amount"])
	assert.Equal(t, "2024-03-09", resp[0]["date"])
}

func TestHandler_Get(t *testing.T) {
	tx := row()

	type testCase struct {
		name   string
		target string
		setup  func(repo *transaction.MockRepository)
		status int
	}

	tests := []testCase{
		{
			name:   "Found",
			target: "/ledger/" + tx.ID().String() + "?" + accountQuery,
			setup: func(repo *transaction.MockRepository) {
				repo.EXPECT().GetTransaction(gomock.Any(), eur, tx.ID()).Return(tx, nil)
			},
			status: http.StatusOK,
		},
		{
			name:   "NotFound",
			target: "/ledger/" + tx.ID().String() + "?" + accountQuery,
			setup: func(repo *transaction.MockRepository) {
				repo.EXPECT().GetTransaction(gomock.Any(), eur, tx.ID()).Return(nil, transaction.ErrNotFound)
			},
			status: http.StatusNotFound,
		},
		{
			name:   "InvalidID",
			target: "/ledger/xyz?" + accountQuery,
			status: http.StatusBadRequest,
		},
		{
			name:   "MissingAccount",
			target: "/ledger/" + tx.ID().String(),
			status: http.StatusBadRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := transaction.NewMockRepository(ctrl)

			if tc.setup != nil {
				tc.setup(repo)
			}

			rec := serve(repo, tc.target)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}
