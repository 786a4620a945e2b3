package receipt

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tally/internal/account"
	"github.com/MrJamesThe3rd/tally/internal/transaction"
)

// Document is the JSON shape written by the receipt labelling pipeline.
type Document struct {
	Image    string         `json:"image"`
	Date     string         `json:"date"`
	Bought   []itemDocument `json:"bought"`
	Returned []itemDocument `json:"returned"`
}

type itemDocument struct {
	Quantity    decimal.Decimal     `json:"quantity"`
	UnitPrice   decimal.NullDecimal `json:"unit_price"`
	Description string              `json:"description"`
	Date        string              `json:"date,omitempty"`
	Legs        []legDocument       `json:"legs"`
}

type legDocument struct {
	Account        account.Account `json:"account"`
	Date           string          `json:"date,omitempty"`
	TenderedOut    decimal.Decimal `json:"tendered_out"`
	ChangeReturned decimal.Decimal `json:"change_returned"`
}

// Decode reads and validates one receipt document.
func Decode(r io.Reader) (*Receipt, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding receipt: %w", err)
	}

	rc, err := doc.Receipt()
	if err != nil {
		return nil, err
	}

	if err := rc.Validate(); err != nil {
		return nil, err
	}

	return rc, nil
}

// Receipt converts the document; dates cascade from receipt to item to leg.
func (d Document) Receipt() (*Receipt, error) {
	date, err := parseDate(d.Date, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("receipt %s: %w", d.Image, err)
	}

	rc := &Receipt{Image: d.Image, Date: date}

	if rc.Bought, err = convertItems(d.Bought, date); err != nil {
		return nil, fmt.Errorf("receipt %s: bought: %w", d.Image, err)
	}

	if rc.Returned, err = convertItems(d.Returned, date); err != nil {
		return nil, fmt.Errorf("receipt %s: returned: %w", d.Image, err)
	}

	return rc, nil
}

func convertItems(docs []itemDocument, fallback time.Time) ([]ExchangedItem, error) {
	items := make([]ExchangedItem, 0, len(docs))

	for i, d := range docs {
		itemDate, err := parseDate(d.Date, fallback)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}

		item := ExchangedItem{
			Quantity:    d.Quantity,
			UnitPrice:   d.UnitPrice,
			Description: d.Description,
			Date:        itemDate,
		}

		for j, l := range d.Legs {
			legDate, err := parseDate(l.Date, itemDate)
			if err != nil {
				return nil, fmt.Errorf("item %d leg %d: %w", i+1, j+1, err)
			}

			if err := l.Account.Validate(); err != nil {
				return nil, fmt.Errorf("item %d leg %d: %w", i+1, j+1, err)
			}

			item.Legs = append(item.Legs, transaction.NewAccountTransaction(transaction.AccountTransactionParams{
				Account:        l.Account,
				Date:           legDate,
				TenderedOut:    l.TenderedOut,
				ChangeReturned: l.ChangeReturned,
				Description:    d.Description,
			}))
		}

		items = append(items, item)
	}

	return items, nil
}

func parseDate(s string, fallback time.Time) (time.Time, error) {
	if s == "" {
		if fallback.IsZero() {
			return time.Time{}, fmt.Errorf("missing date")
		}

		return fallback, nil
	}

	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}

	return t, nil
}

// LoadDir decodes every *.json file in dir, in file name order.
func LoadDir(dir string) ([]*Receipt, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}

	slices.Sort(paths)

	receipts := make([]*Receipt, 0, len(paths))

	for _, p := range paths {
		rc, err := loadFile(p)
		if err != nil {
			return nil, err
		}

		receipts = append(receipts, rc)
	}

	return receipts, nil
}

func loadFile(path string) (*Receipt, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening receipt: %w", err)
	}
	defer f.Close()

	rc, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	return rc, nil
}
