package prompt

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/tally/internal/account"
	"github.com/MrJamesThe3rd/tally/internal/matching"
	"github.com/MrJamesThe3rd/tally/internal/resolve"
	"github.com/MrJamesThe3rd/tally/internal/transaction"
)

var eur = account.Account{BaseCurrency: "EUR", Holder: "JOHN DOE", Bank: "cgd", Type: account.TypeChecking}

func noMatchRequest() resolve.Request {
	return resolve.Request{
		Kind:    resolve.KindNoMatch,
		Receipt: "groceries.jpg",
		Search: transaction.NewAccountTransaction(transaction.AccountTransactionParams{
			Account:     eur,
			Date:        time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
			TenderedOut: decimal.RequireFromString("-42.5"),
			Description: "weekly shop",
		}),
		Options: []resolve.Option{
			{Key: resolve.OptionWidenDays, Label: "Widen date range", NeedsValue: true},
			{Key: resolve.OptionWidenAmount, Label: "Widen amount range", NeedsValue: true},
			{Key: resolve.OptionConfirm, Label: "Confirm there is no match"},
		},
		Config:  matching.Config{Days: 2, AmountRange: decimal.RequireFromString("0.5")},
		Problem: `invalid input "x": day count must be a whole number`,
	}
}

func TestRender(t *testing.T) {
	out := Render(noMatchRequest())

	for _, want := range []string{
		"Receipt groceries.jpg",
		"2024-03-10  -42.50 EUR  JOHN DOE/cgd/checking",
		"weekly shop",
		"window ±2 days, ±0.50",
		"day count must be a whole number",
	} {
		assert.Contains(t, out, want)
	}

	assert.NotContains(t, out, "candidates")
}

func TestOptions(t *testing.T) {
	req := noMatchRequest()

	opts := options(req.Options)
	assert.Len(t, opts, 3)
	assert.Equal(t, resolve.OptionWidenDays, opts[0].Value)
	assert.Equal(t, "Widen date range", opts[0].Key)

	assert.True(t, optionNeedsValue(req.Options, resolve.OptionWidenAmount))
	assert.False(t, optionNeedsValue(req.Options, resolve.OptionConfirm))
	assert.False(t, optionNeedsValue(req.Options, "unknown"))
}

func TestQuestion(t *testing.T) {
	assert.Equal(t, "Which ledger transaction is this?", question(resolve.KindSelect))
	assert.Equal(t, "other", question(resolve.Kind("other")))
}

func selectRequest() resolve.Request {
	req := noMatchRequest()
	req.Kind = resolve.KindSelect
	req.Problem = ""
	req.Options = []resolve.Option{
		{Key: resolve.OptionNone, Label: "None of these"},
		{Key: "1", Label: "2024-03-09  -42.50  CONTINENTE"},
		{Key: "2", Label: "2024-03-11  -42.50  PINGO DOCE"},
	}

	return req
}

func TestOperator_Ask(t *testing.T) {
	type testCase struct {
		name      string
		req       resolve.Request
		input     string
		want      resolve.Response
		asksValue bool
	}

	tests := []testCase{
		{
			name:  "SelectCandidate",
			req:   selectRequest(),
			input: "3\n",
			want:  resolve.Response{Key: "2"},
		},
		{
			name:  "SelectNone",
			req:   selectRequest(),
			input: "1\n",
			want:  resolve.Response{Key: resolve.OptionNone},
		},
		{
			name:      "WidenDays",
			req:       noMatchRequest(),
			input:     "1\n 5 \n",
			want:      resolve.Response{Key: resolve.OptionWidenDays, Value: "5"},
			asksValue: true,
		},
		{
			name:      "WidenAmount",
			req:       noMatchRequest(),
			input:     "2\n0.25\n",
			want:      resolve.Response{Key: resolve.OptionWidenAmount, Value: "0.25"},
			asksValue: true,
		},
		{
			name:  "ConfirmSkipsValue",
			req:   noMatchRequest(),
			input: "3\n7\n",
			want:  resolve.Response{Key: resolve.OptionConfirm},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder

			op := New(
				WithInput(iotest.OneByteReader(strings.NewReader(tt.input))),
				WithOutput(&out),
				WithAccessible(true),
			)

			got, err := op.Ask(context.Background(), tt.req)
			require.NoError(t, err)

			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "Receipt groceries.jpg")
			assert.Contains(t, out.String(), question(tt.req.Kind))
			assert.Equal(t, tt.asksValue, strings.Contains(out.String(), "How m"))
		})
	}
}

func TestOperator_AskCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out strings.Builder

	_, err := New(WithInput(strings.NewReader("1\n")), WithOutput(&out), WithAccessible(true)).
		Ask(ctx, noMatchRequest())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.String())
}

func TestFormError(t *testing.T) {
	assert.NoError(t, formError(nil))
	assert.ErrorIs(t, formError(huh.ErrUserAborted), resolve.ErrAborted)
	assert.ErrorIs(t, formError(errors.Join(errors.New("tea"), huh.ErrUserAborted)), resolve.ErrAborted)

	err := formError(huh.ErrTimeout)
	assert.ErrorIs(t, err, huh.ErrTimeout)
	assert.NotErrorIs(t, err, resolve.ErrAborted)
}

func TestValueTitle(t *testing.T) {
	req := noMatchRequest()

	assert.Equal(t, "How many more days? (now 2)", valueTitle(req, resolve.OptionWidenDays))
	assert.Equal(t, "How much more amount? (now 0.50)", valueTitle(req, resolve.OptionWidenAmount))
}
