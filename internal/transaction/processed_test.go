package transaction_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/tally/internal/account"
	"github.com/MrJamesThe3rd/tally/internal/transaction"
)

func TestProcessedTransaction_CopyOnWrite(t *testing.T) {
	row := transaction.NewCsvTransaction(transaction.CsvParams{
		Account: eur,
		Date:    date(2024, 3, 10),
		Amount:  dec("-12.00"),
	})

	orig := transaction.NewProcessed(row)
	labelled := orig.WithLabel(transaction.SourceRule, "category", "Groceries")
	linked := labelled.WithReceipt(transaction.ReceiptLink{Image: "r1.jpg", LegID: row.ID()})

	assert.Empty(t, orig.Labels())
	_, ok := orig.Receipt()
	assert.False(t, ok)

	_, ok = labelled.Receipt()
	assert.False(t, ok)

	link, ok := linked.Receipt()
	assert.True(t, ok)
	assert.Equal(t, "r1.jpg", link.Image)

	assert.Equal(t, row.ID(), linked.ID())
	assert.Same(t, row, linked.Transaction())

	rules := labelled.RuleLabels()
	rules["category"] = "mutated"
	assert.Equal(t, "Groceries", labelled.Labels()["category"])
}

func TestProcessedTransaction_AIWinsOnCollision(t *testing.T) {
	row := transaction.NewCsvTransaction(transaction.CsvParams{Account: eur, Date: date(2024, 3, 10), Amount: dec("-3")})

	p := transaction.NewProcessed(row).
		WithLabel(transaction.SourceAI, "category", "Dining").
		WithLabel(transaction.SourceRule, "category", "Groceries").
		WithLabel(transaction.SourceRule, "merchant", "Continente")

	assert.Equal(t, map[string]string{
		"category": "Dining",
		"merchant": "Continente",
	}, p.Labels())
	assert.Equal(t, map[string]string{"category": "Groceries", "merchant": "Continente"}, p.RuleLabels())
	assert.Equal(t, map[string]string{"category": "Dining"}, p.AILabels())
}

func TestLedger(t *testing.T) {
	card := account.Account{BaseCurrency: "EUR", Holder: "JOHN DOE", Bank: "cgd", Type: account.TypeCreditCard}
	usd := eur
	usd.BaseCurrency = "USD"

	l := make(transaction.Ledger)
	l.Add(
		transaction.NewCsvTransaction(transaction.CsvParams{Account: eur, Date: date(2023, 12, 31), Amount: dec("-1")}),
		transaction.NewCsvTransaction(transaction.CsvParams{Account: eur, Date: date(2024, 1, 1), Amount: dec("-2")}),
		transaction.NewCsvTransaction(transaction.CsvParams{Account: usd, Date: date(2024, 1, 2), Amount: dec("-3")}),
		transaction.NewCsvTransaction(transaction.CsvParams{Account: card, Date: date(2024, 1, 1), Amount: dec("-4")}),
	)

	assert.Equal(t, 4, l.Len())
	assert.Equal(t, []int{2023, 2024}, l.Years(eur))
	assert.Len(t, l.ForKey(eur.Key(), 2024), 2)
	assert.Len(t, l.ForKey(eur.Key(), 2023, 2024), 3)
	assert.Len(t, l.ForKey(card.Key(), 2023), 0)
	assert.Equal(t, []account.Account{eur, usd, card}, l.Accounts())

	want := transaction.Fingerprint(date(2024, 1, 2), dec("-3"), dec("0"))
	got, ok := l.Find(eur.Key(), want)
	require.True(t, ok)
	assert.Equal(t, usd, got.Account())

	_, ok = l.Find(card.Key(), want)
	assert.False(t, ok)
}
