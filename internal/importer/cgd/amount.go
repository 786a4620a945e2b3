package cgd

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tally/internal/transaction"
)

// parseEuropeanAmount parses a European-formatted amount.
// Format examples: "1.234,56" -> 1234.56, "-588,74" -> -588.74, "10,00" -> 10.
func parseEuropeanAmount(s string) (decimal.Decimal, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ".", "")
	clean = strings.ReplaceAll(clean, ",", ".")

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, err
	}

	return transaction.Round(d), nil
}
