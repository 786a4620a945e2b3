package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tally/internal/account"
	"github.com/MrJamesThe3rd/tally/internal/transaction"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Expected column order: id, currency, holder, bank, account_type, date, amount, description.
func scanTransaction(s scanner) (*transaction.CsvTransaction, error) {
	var (
		id     int64
		acc    account.Account
		typ    string
		date   time.Time
		amount decimal.Decimal
		desc   sql.NullString
	)

	if err := s.Scan(&id, &acc.BaseCurrency, &acc.Holder, &acc.Bank, &typ, &date, &amount, &desc); err != nil {
		return nil, err
	}

	acc.Type = account.Type(typ)

	tx := transaction.NewCsvTransaction(transaction.CsvParams{
		Account:     acc,
		Date:        date,
		Amount:      amount,
		Description: desc.String,
	})

	// The stored id is derived data; a mismatch means the row was edited
	// behind our back or the fingerprint encoding changed.
	if uint64(tx.ID()) != uint64(id) {
		return nil, transaction.InvariantError(tx, "stored id %016x does not match content", uint64(id))
	}

	return tx, nil
}

const selectColumns = `id, currency, holder, bank, account_type, date, amount, description`

func (s *Store) GetTransaction(ctx context.Context, acc account.Account, id transaction.ID) (*transaction.CsvTransaction, error) {
	query := `SELECT ` + selectColumns + `
		FROM ledger_transactions
		WHERE id = $1 AND currency = $2 AND holder = $3 AND bank = $4 AND account_type = $5`

	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query,
		int64(id), acc.BaseCurrency, acc.Holder, acc.Bank, acc.Type,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transaction.ErrNotFound
		}

		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	return tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, filter transaction.ListFilter) ([]*transaction.CsvTransaction, error) {
	query := `SELECT ` + selectColumns + ` FROM ledger_transactions WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.Account != nil {
		query += fmt.Sprintf(" AND currency = $%d AND holder = $%d AND bank = $%d AND account_type = $%d",
			argIdx, argIdx+1, argIdx+2, argIdx+3)

		args = append(args, filter.Account.BaseCurrency, filter.Account.Holder, filter.Account.Bank, filter.Account.Type)
		argIdx += 4
	}

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND date >= $%d", argIdx)

		args = append(args, *filter.StartDate)
		argIdx++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND date <= $%d", argIdx)

		args = append(args, *filter.EndDate)
	}

	query += " ORDER BY date ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var txs []*transaction.CsvTransaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transactions: %w", err)
	}

	return txs, nil
}

// importLockKey serialises concurrent imports touching the same account
// and date range.
func importLockKey(acc account.Account, minDate, maxDate time.Time) int64 {
	h := fnv.New64a()
	h.Write([]byte(acc.String()))
	h.Write([]byte{0})
	h.Write([]byte(minDate.Format(time.DateOnly)))
	h.Write([]byte{0})
	h.Write([]byte(maxDate.Format(time.DateOnly)))

	return int64(h.Sum64())
}

type importTx struct {
	tx *sql.Tx
}

func (s *Store) BeginImport(ctx context.Context, acc account.Account, minDate, maxDate time.Time) (transaction.ImportTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning import tx: %w", err)
	}

	if _, err := dbTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", importLockKey(acc, minDate, maxDate)); err != nil {
		dbTx.Rollback()
		return nil, fmt.Errorf("acquiring import lock: %w", err)
	}

	return &importTx{tx: dbTx}, nil
}

func (itx *importTx) Commit() error   { return itx.tx.Commit() }
func (itx *importTx) Rollback() error { return itx.tx.Rollback() }

func (itx *importTx) FindExisting(ctx context.Context, acc account.Account, ids []transaction.ID) ([]*transaction.CsvTransaction, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	raw := make([]int64, len(ids))
	for i, id := range ids {
		raw[i] = int64(id)
	}

	query := `SELECT ` + selectColumns + `
		FROM ledger_transactions
		WHERE currency = $1 AND holder = $2 AND bank = $3 AND account_type = $4 AND id = ANY($5)
		ORDER BY date ASC`

	rows, err := itx.tx.QueryContext(ctx, query, acc.BaseCurrency, acc.Holder, acc.Bank, acc.Type, raw)
	if err != nil {
		return nil, fmt.Errorf("finding existing: %w", err)
	}
	defer rows.Close()

	var existing []*transaction.CsvTransaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		existing = append(existing, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating existing rows: %w", err)
	}

	return existing, nil
}

func (itx *importTx) CreateTransactions(ctx context.Context, txs []*transaction.CsvTransaction) error {
	query := `
		INSERT INTO ledger_transactions (id, currency, holder, bank, account_type, date, amount, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`

	for _, tx := range txs {
		acc := tx.Account()

		_, err := itx.tx.ExecContext(ctx, query,
			int64(tx.ID()),
			acc.BaseCurrency,
			acc.Holder,
			acc.Bank,
			acc.Type,
			tx.Date(),
			tx.NetAmount(),
			tx.Description(),
		)
		if err != nil {
			return fmt.Errorf("creating transaction %s: %w", tx.ID(), err)
		}
	}

	return nil
}
