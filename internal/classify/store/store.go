package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MrJamesThe3rd/tally/internal/classify"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) FindLabel(ctx context.Context, model, description string) (string, error) {
	query := `
		SELECT label
		FROM label_rules
		WHERE model = $1 AND $2 ILIKE '%' || raw_pattern || '%'
		ORDER BY LENGTH(raw_pattern) DESC, created_at DESC
		LIMIT 1
	`

	var label string

	err := s.db.QueryRowContext(ctx, query, model, description).Scan(&label)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}

		return "", fmt.Errorf("finding label: %w", err)
	}

	return label, nil
}

func (s *Store) CreateRule(ctx context.Context, model, rawPattern, label string) error {
	query := `
		INSERT INTO label_rules (model, raw_pattern, label, created_at)
		VALUES ($1, $2, $3, NOW())
	`

	if _, err := s.db.ExecContext(ctx, query, model, rawPattern, label); err != nil {
		return fmt.Errorf("creating rule: %w", err)
	}

	return nil
}

func (s *Store) ListRules(ctx context.Context, model string) ([]classify.Rule, error) {
	query := `
		SELECT id, model, raw_pattern, label, created_at
		FROM label_rules
		WHERE model = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := s.db.QueryContext(ctx, query, model)
	if err != nil {
		return nil, fmt.Errorf("listing rules: %w", err)
	}
	defer rows.Close()

	var rules []classify.Rule

	for rows.Next() {
		var r classify.Rule
		if err := rows.Scan(&r.ID, &r.Model, &r.RawPattern, &r.Label, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning rule: %w", err)
		}

		rules = append(rules, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rules: %w", err)
	}

	return rules, nil
}
