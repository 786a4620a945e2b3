package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/tally/internal/account"
	"github.com/MrJamesThe3rd/tally/internal/transaction"
)

// Item is a single exported transaction with the local path of its
// receipt image, if any.
type Item struct {
	Transaction transaction.ProcessedTransaction
	FilePath    string
}

// Service writes one CSV per account and year, copying receipt images next
// to it.
type Service struct {
	outputDir   string
	receiptsDir string
}

// NewService creates a Service. Receipt images are resolved against
// receiptsDir; when it is empty images are not copied.
func NewService(outputDir, receiptsDir string) *Service {
	return &Service{outputDir: outputDir, receiptsDir: receiptsDir}
}

var header = []string{"date", "amount", "currency", "description", "labels", "receipt"}

// Export writes the partition file and returns what was written.
func (s *Service) Export(ctx context.Context, acc account.Account, year int, txs []transaction.ProcessedTransaction) error {
	_, err := s.ExportItems(ctx, acc, year, txs)
	return err
}

func (s *Service) ExportItems(ctx context.Context, acc account.Account, year int, txs []transaction.ProcessedTransaction) ([]Item, error) {
	dir := filepath.Join(s.outputDir, fmt.Sprint(year))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	items := make([]Item, 0, len(txs))

	for _, pt := range txs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		item := Item{Transaction: pt}

		if link, ok := pt.Receipt(); ok && s.receiptsDir != "" {
			path, err := s.copyReceipt(link, pt.Transaction(), dir)
			if err != nil {
				return nil, fmt.Errorf("copying receipt for transaction %s: %w", pt.ID(), err)
			}

			item.FilePath = path
		}

		items = append(items, item)
	}

	path := filepath.Join(dir, FileName(acc, year))

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, acc, items); err != nil {
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}

	return items, nil
}

// WriteCSV writes items in ledger order with a header row.
func WriteCSV(w io.Writer, acc account.Account, items []Item) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return err
	}

	for _, item := range items {
		tx := item.Transaction.Transaction()

		receipt := ""
		if item.FilePath != "" {
			receipt = filepath.Base(item.FilePath)
		} else if link, ok := item.Transaction.Receipt(); ok {
			receipt = link.Image
		}

		record := []string{
			tx.Date().Format(time.DateOnly),
			transaction.Round(tx.NetAmount()).StringFixed(2),
			acc.BaseCurrency,
			tx.Description(),
			formatLabels(item.Transaction.Labels()),
			receipt,
		}

		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}

// FileName is the CSV name of one partition, e.g. JOHN_DOE_cgd_checking_EUR_2024.csv.
func FileName(acc account.Account, year int) string {
	return fmt.Sprintf("%s_%s_%s_%s_%d.csv",
		sanitize(acc.Holder), sanitize(acc.Bank), sanitize(string(acc.Type)), sanitize(acc.BaseCurrency), year)
}

func (s *Service) copyReceipt(link transaction.ReceiptLink, tx transaction.Transaction, dir string) (string, error) {
	src, err := os.Open(filepath.Join(s.receiptsDir, link.Image))
	if err != nil {
		return "", fmt.Errorf("opening receipt: %w", err)
	}
	defer src.Close()

	ext := filepath.Ext(link.Image)
	if ext == "" {
		ext = ".jpg"
	}

	// Format: YYYYMMDD_Description_id.ext
	name := fmt.Sprintf("%s_%s_%s%s", tx.Date().Format("20060102"), sanitize(tx.Description()), link.LegID, ext)
	path := filepath.Join(dir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}

	return path, nil
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}

		return '_'
	}, s)
}

func formatLabels(labels map[string]string) string {
	parts := make([]string, 0, len(labels))
	for _, k := range slices.Sorted(maps.Keys(labels)) {
		parts = append(parts, k+"="+labels[k])
	}

	return strings.Join(parts, ";")
}

// Summary renders one line per item, for pasting into a message to the
// bookkeeper.
func Summary(items []Item) string {
	var sb strings.Builder

	for _, item := range items {
		tx := item.Transaction.Transaction()

		fileStatus := "Sem Fatura"
		if item.FilePath != "" {
			fileStatus = filepath.Base(item.FilePath)
		} else if link, ok := item.Transaction.Receipt(); ok {
			fileStatus = link.Image
		}

		desc := tx.Description()
		if label, ok := item.Transaction.Labels()["category"]; ok {
			desc += " [" + label + "]"
		}

		sb.WriteString(fmt.Sprintf("* %s | %s | %s %s | %s\n",
			tx.Date().Format(time.DateOnly),
			desc,
			transaction.Round(tx.NetAmount()).StringFixed(2),
			tx.Account().BaseCurrency,
			fileStatus,
		))
	}

	return sb.String()
}
