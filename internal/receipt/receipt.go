package receipt

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tally/internal/transaction"
)

// conservationTolerance is the largest accepted gap between an item's
// priced total and what its legs actually paid.
var conservationTolerance = decimal.New(1, -2)

var ErrInvalidItem = errors.New("invalid exchanged item")

// ExchangedItem is one priced line of a receipt, settled by one or more legs.
type ExchangedItem struct {
	Quantity    decimal.Decimal
	UnitPrice   decimal.NullDecimal
	Description string
	Date        time.Time
	Legs        []transaction.Transaction
}

// LegsNet is the currency-rounded sum of the legs' net amounts.
func (i ExchangedItem) LegsNet() decimal.Decimal {
	sum := decimal.Zero
	for _, leg := range i.Legs {
		sum = sum.Add(leg.NetAmount())
	}

	return transaction.Round(sum)
}

// Validate checks the item's shape and, when a unit price is known, that
// quantity × unit price equals what the legs paid within 0.01 inclusive.
// Magnitudes are compared because legs carry the ledger's sign convention.
func (i ExchangedItem) Validate() error {
	if len(i.Legs) == 0 {
		return fmt.Errorf("%w: %q has no payment legs", ErrInvalidItem, i.Description)
	}

	if i.Quantity.IsNegative() {
		return fmt.Errorf("%w: %q has negative quantity %s", ErrInvalidItem, i.Description, i.Quantity)
	}

	if !i.UnitPrice.Valid {
		return nil
	}

	priced := i.Quantity.Mul(i.UnitPrice.Decimal).Abs()
	paid := i.LegsNet().Abs()

	if priced.Sub(paid).Abs().GreaterThan(conservationTolerance) {
		return transaction.InvariantError(i.Legs[0],
			"item %q: quantity %s × unit price %s = %s but legs sum to %s",
			i.Description, i.Quantity, i.UnitPrice.Decimal.StringFixed(2),
			transaction.Round(priced).StringFixed(2), paid.StringFixed(2))
	}

	return nil
}

// Receipt is one purchase/return event as entered by a person.
type Receipt struct {
	Image    string
	Date     time.Time
	Bought   []ExchangedItem
	Returned []ExchangedItem
}

// Leg is a payment leg together with the item that produced it.
type Leg struct {
	Transaction transaction.Transaction
	Item        *ExchangedItem
	Returned    bool
}

func (r *Receipt) Validate() error {
	if len(r.Bought) == 0 && len(r.Returned) == 0 {
		return fmt.Errorf("receipt %s: no items", r.Image)
	}

	for i := range r.Bought {
		if err := r.Bought[i].Validate(); err != nil {
			return fmt.Errorf("receipt %s: bought item %d: %w", r.Image, i+1, err)
		}
	}

	for i := range r.Returned {
		if err := r.Returned[i].Validate(); err != nil {
			return fmt.Errorf("receipt %s: returned item %d: %w", r.Image, i+1, err)
		}
	}

	return nil
}

// Legs lists every payment leg, bought items first.
func (r *Receipt) Legs() []Leg {
	var legs []Leg

	for i := range r.Bought {
		for _, tx := range r.Bought[i].Legs {
			legs = append(legs, Leg{Transaction: tx, Item: &r.Bought[i]})
		}
	}

	for i := range r.Returned {
		for _, tx := range r.Returned[i].Legs {
			legs = append(legs, Leg{Transaction: tx, Item: &r.Returned[i], Returned: true})
		}
	}

	return legs
}

// NetByCurrency is the net exchange per currency: what was paid for bought
// items minus what came back for returned ones.
func (r *Receipt) NetByCurrency() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)

	for _, leg := range r.Legs() {
		cur := leg.Transaction.Account().BaseCurrency
		amount := leg.Transaction.NetAmount()

		if leg.Returned {
			amount = amount.Neg()
		}

		out[cur] = transaction.Round(out[cur].Add(amount))
	}

	return out
}
