package transaction

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("transaction not found")

// DataInvariantError aborts a run. It is never coerced or merged away.
type DataInvariantError struct {
	ID     ID
	Date   time.Time
	Amount decimal.Decimal
	Reason string
}

func (e *DataInvariantError) Error() string {
	return fmt.Sprintf("data invariant violated: %s (id %s, date %s, amount %s)",
		e.Reason, e.ID, e.Date.Format(time.DateOnly), Round(e.Amount).StringFixed(2))
}

// InvariantError builds a DataInvariantError describing tx.
func InvariantError(tx Transaction, format string, args ...any) *DataInvariantError {
	return &DataInvariantError{
		ID:     tx.ID(),
		Date:   tx.Date(),
		Amount: tx.NetAmount(),
		Reason: fmt.Sprintf(format, args...),
	}
}
