package matching

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Config holds the search tolerances. Values are never changed in place:
// the widen functions return a new Config.
type Config struct {
	Days                           int             `json:"days"`
	AmountRange                    decimal.Decimal `json:"amount_range"`
	DaysMonthSwap                  bool            `json:"days_month_swap"`
	MultipleReceiptsPerTransaction bool            `json:"multiple_receipts_per_transaction"`
}

// MaxDays bounds the date window on either side of the search date.
const MaxDays = 36500

// InputValidationError reports operator or caller input that cannot be
// used. It is recoverable: the caller asks again.
type InputValidationError struct {
	Input  string
	Reason string
}

func (e *InputValidationError) Error() string {
	return fmt.Sprintf("invalid input %q: %s", e.Input, e.Reason)
}

func (c Config) Validate() error {
	if c.Days < 0 {
		return &InputValidationError{Input: fmt.Sprint(c.Days), Reason: "days must not be negative"}
	}

	if c.Days > MaxDays {
		return &InputValidationError{Input: fmt.Sprint(c.Days), Reason: fmt.Sprintf("days must not exceed %d", MaxDays)}
	}

	if c.AmountRange.IsNegative() {
		return &InputValidationError{Input: c.AmountRange.String(), Reason: "amount range must not be negative"}
	}

	return nil
}

// WidenDateRange returns a copy of cfg with the date window grown by days.
func WidenDateRange(cfg Config, days int) (Config, error) {
	if days <= 0 {
		return cfg, &InputValidationError{Input: fmt.Sprint(days), Reason: "day count must be positive"}
	}

	if days > MaxDays-cfg.Days {
		return cfg, &InputValidationError{
			Input:  fmt.Sprint(days),
			Reason: fmt.Sprintf("window of %d days would exceed %d", cfg.Days, MaxDays),
		}
	}

	cfg.Days += days

	return cfg, nil
}

// WidenAmountRange returns a copy of cfg with the amount tolerance grown by delta.
func WidenAmountRange(cfg Config, delta decimal.Decimal) (Config, error) {
	if !delta.IsPositive() {
		return cfg, &InputValidationError{Input: delta.String(), Reason: "amount must be positive"}
	}

	cfg.AmountRange = cfg.AmountRange.Add(delta)

	return cfg, nil
}

func (c Config) String() string {
	return fmt.Sprintf("±%d days, ±%s", c.Days, c.AmountRange.StringFixed(2))
}
