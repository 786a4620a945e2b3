package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tally/internal/account"
	"github.com/MrJamesThe3rd/tally/internal/matching"
	"github.com/MrJamesThe3rd/tally/internal/resolve"
	"github.com/MrJamesThe3rd/tally/internal/transaction"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Filter narrows ListPairs. A zero Filter returns every record.
type Filter struct {
	RunID   *uuid.UUID
	Account *account.Account
	Limit   int
}

const selectColumns = `run_id, seq, search_id, search_date, search_amount,
	currency, holder, bank, account_type, receipt, match_id, action,
	days, amount_range, days_month_swap, multiple_receipts, created_at`

// SavePairs inserts the records of one run atomically. Records are never
// updated: a second save of the same (run_id, seq) fails.
func (s *Store) SavePairs(ctx context.Context, pairs []resolve.ActionValuePair) error {
	if len(pairs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO action_values (` + selectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	for _, p := range pairs {
		var match sql.NullInt64
		if p.MatchID != nil {
			match = sql.NullInt64{Int64: int64(*p.MatchID), Valid: true}
		}

		_, err := tx.ExecContext(ctx, query,
			p.RunID,
			p.Seq,
			int64(p.SearchID),
			p.SearchDate,
			p.SearchAmount,
			p.Account.BaseCurrency,
			p.Account.Holder,
			p.Account.Bank,
			p.Account.Type,
			p.Receipt,
			match,
			p.Action,
			p.Config.Days,
			p.Config.AmountRange,
			p.Config.DaysMonthSwap,
			p.Config.MultipleReceiptsPerTransaction,
			p.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting action %d of run %s: %w", p.Seq, p.RunID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing actions: %w", err)
	}

	return nil
}

// ListPairs returns records oldest first.
func (s *Store) ListPairs(ctx context.Context, filter Filter) ([]resolve.ActionValuePair, error) {
	query := `SELECT ` + selectColumns + ` FROM action_values WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.RunID != nil {
		query += fmt.Sprintf(" AND run_id = $%d", argIdx)

		args = append(args, *filter.RunID)
		argIdx++
	}

	if filter.Account != nil {
		query += fmt.Sprintf(" AND currency = $%d AND holder = $%d AND bank = $%d AND account_type = $%d",
			argIdx, argIdx+1, argIdx+2, argIdx+3)

		args = append(args, filter.Account.BaseCurrency, filter.Account.Holder, filter.Account.Bank, filter.Account.Type)
		argIdx += 4
	}

	query += " ORDER BY created_at ASC, run_id, seq ASC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)

		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing actions: %w", err)
	}
	defer rows.Close()

	var pairs []resolve.ActionValuePair

	for rows.Next() {
		p, err := scanPair(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning action: %w", err)
		}

		pairs = append(pairs, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating actions: %w", err)
	}

	return pairs, nil
}

func scanPair(rows *sql.Rows) (resolve.ActionValuePair, error) {
	var (
		p        resolve.ActionValuePair
		searchID int64
		match    sql.NullInt64
		typ      string
		action   string
		days     int
		amount   decimal.Decimal
		swap     bool
		multiple bool
		date     time.Time
	)

	err := rows.Scan(
		&p.RunID, &p.Seq, &searchID, &date, &p.SearchAmount,
		&p.Account.BaseCurrency, &p.Account.Holder, &p.Account.Bank, &typ,
		&p.Receipt, &match, &action,
		&days, &amount, &swap, &multiple, &p.CreatedAt,
	)
	if err != nil {
		return p, err
	}

	p.SearchID = transaction.ID(searchID)
	p.SearchDate = transaction.Day(date)
	p.Account.Type = account.Type(typ)
	p.Action = resolve.Action(action)
	p.Config = matching.Config{
		Days:                           days,
		AmountRange:                    amount,
		DaysMonthSwap:                  swap,
		MultipleReceiptsPerTransaction: multiple,
	}

	if match.Valid {
		p.MatchID = new(transaction.ID(match.Int64))
	}

	return p, nil
}
