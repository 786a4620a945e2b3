package cgd

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tally/internal/account"
	enc "github.com/MrJamesThe3rd/tally/internal/encoding"
	"github.com/MrJamesThe3rd/tally/internal/transaction"
)

var ErrUnknownFormat = errors.New("no matching CGD format found: expected columns for conta, extrato, or cartão")

// Parser reads CGD bank CSV exports. The export flavour is detected from
// the column headers.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader, acc account.Account) ([]*transaction.CsvTransaction, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(utf8r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	l, cols, headerIdx := detectLayout(rows)
	if l == nil {
		return nil, ErrUnknownFormat
	}

	sheet := statement{layout: l, cols: cols, account: acc}

	return sheet.rows(rows[headerIdx+1:], headerIdx+1)
}

type colIndex map[string]int

// detectLayout returns the first layout whose columns all appear in one
// row, that row's column index and its position.
func detectLayout(rows [][]string) (*layout, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			if name := strings.TrimSpace(cell); name != "" {
				cols[name] = i
			}
		}

		for i := range layouts {
			if cols.has(layouts[i].required()...) {
				return &layouts[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func (c colIndex) has(names ...string) bool {
	for _, name := range names {
		if _, ok := c[name]; !ok {
			return false
		}
	}

	return true
}

type statement struct {
	layout  *layout
	cols    colIndex
	account account.Account
}

// rows converts the data rows below the header. Rows without a date or a
// non-zero amount are footers and page markers.
func (s statement) rows(rows [][]string, headerRowNum int) ([]*transaction.CsvTransaction, error) {
	var txs []*transaction.CsvTransaction

	for i, row := range rows {
		rowNum := headerRowNum + i + 1

		date, ok := parseDate(cellValue(row, s.cols[s.layout.date]))
		if !ok {
			continue
		}

		desc := cellValue(row, s.cols[s.layout.desc])
		if desc == "" {
			return nil, fmt.Errorf("row %d (%s): missing description", rowNum, s.layout.name)
		}

		amount, ok := s.layout.amount.read(func(col string) string {
			return cellValue(row, s.cols[col])
		})
		if !ok {
			continue
		}

		txs = append(txs, transaction.NewCsvTransaction(transaction.CsvParams{
			Account:     s.account,
			Date:        date,
			Amount:      amount,
			Description: desc,
		}))
	}

	return txs, nil
}

func nonZero(s string) (decimal.Decimal, bool) {
	if s == "" {
		return decimal.Zero, false
	}

	d, err := parseEuropeanAmount(s)
	if err != nil || d.IsZero() {
		return decimal.Zero, false
	}

	return d, true
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}

	t, err := time.Parse("02-01-2006", s)
	if err != nil {
		return time.Time{}, false
	}

	return t, true
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
