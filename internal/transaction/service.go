package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/MrJamesThe3rd/tally/internal/account"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=transaction
type Repository interface {
	GetTransaction(ctx context.Context, acc account.Account, id ID) (*CsvTransaction, error)
	ListTransactions(ctx context.Context, filter ListFilter) ([]*CsvTransaction, error)

	BeginImport(ctx context.Context, acc account.Account, minDate, maxDate time.Time) (ImportTx, error)
}

type ImportTx interface {
	FindExisting(ctx context.Context, acc account.Account, ids []ID) ([]*CsvTransaction, error)
	CreateTransactions(ctx context.Context, txs []*CsvTransaction) error
	Commit() error
	Rollback() error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type ListFilter struct {
	Account   *account.Account
	StartDate *time.Time
	EndDate   *time.Time
}

func (s *Service) Get(ctx context.Context, acc account.Account, id ID) (*CsvTransaction, error) {
	return s.repo.GetTransaction(ctx, acc, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*CsvTransaction, error) {
	return s.repo.ListTransactions(ctx, filter)
}

// Ledger loads the rows matching filter grouped by account and year.
func (s *Service) Ledger(ctx context.Context, filter ListFilter) (Ledger, error) {
	txs, err := s.repo.ListTransactions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing ledger: %w", err)
	}

	l := make(Ledger)
	for _, tx := range txs {
		l.Add(tx)
	}

	return l, nil
}

type ImportResult struct {
	Imported   []*CsvTransaction
	Duplicates []*CsvTransaction
}

// ImportBatch stores the rows of one account's statement. Rows whose
// identity is already stored (or repeated inside the batch) are reported as
// duplicates and skipped. Two rows sharing an identity without being the
// same logical transaction abort the import.
func (s *Service) ImportBatch(ctx context.Context, acc account.Account, txs []*CsvTransaction) (*ImportResult, error) {
	if len(txs) == 0 {
		return &ImportResult{}, nil
	}

	for _, tx := range txs {
		if tx.Account() != acc {
			return nil, fmt.Errorf("import for %s: row %s belongs to %s", acc, tx.ID(), tx.Account())
		}
	}

	minDate, maxDate := dateRange(txs)

	itx, err := s.repo.BeginImport(ctx, acc, minDate, maxDate)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer itx.Rollback()

	ids := make([]ID, len(txs))
	for i, tx := range txs {
		ids[i] = tx.ID()
	}

	existing, err := itx.FindExisting(ctx, acc, ids)
	if err != nil {
		return nil, fmt.Errorf("find existing: %w", err)
	}

	reg := NewRegistry()
	for _, e := range existing {
		if _, err := reg.Register(e); err != nil {
			return nil, err
		}
	}

	result := &ImportResult{}

	for _, tx := range txs {
		known, err := reg.Register(tx)
		if err != nil {
			return nil, err
		}

		if known {
			result.Duplicates = append(result.Duplicates, tx)
			continue
		}

		result.Imported = append(result.Imported, tx)
	}

	if len(result.Imported) == 0 {
		return result, nil
	}

	if err := itx.CreateTransactions(ctx, result.Imported); err != nil {
		return nil, fmt.Errorf("create transactions: %w", err)
	}

	if err := itx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	return result, nil
}

func dateRange(txs []*CsvTransaction) (time.Time, time.Time) {
	minDate := txs[0].Date()
	maxDate := txs[0].Date()

	for _, tx := range txs[1:] {
		if tx.Date().Before(minDate) {
			minDate = tx.Date()
		}

		if tx.Date().After(maxDate) {
			maxDate = tx.Date()
		}
	}

	return minDate, maxDate
}
