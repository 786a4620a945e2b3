package classify

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/tally/internal/transaction"
)

//go:generate mockgen -source=rule.go -destination=repository_mock.go -package=classify

type Rule struct {
	ID         int64
	Model      string
	RawPattern string
	Label      string
	CreatedAt  time.Time
}

type RuleRepository interface {
	FindLabel(ctx context.Context, model, description string) (string, error)
	CreateRule(ctx context.Context, model, rawPattern, label string) error
	ListRules(ctx context.Context, model string) ([]Rule, error)
}

var ErrEmptyRule = errors.New("rule pattern and label are required")

// RuleModel labels transactions with learned description patterns: the
// longest stored pattern contained in the description wins.
type RuleModel struct {
	name string
	repo RuleRepository
}

func NewRuleModel(name string, repo RuleRepository) *RuleModel {
	return &RuleModel{name: name, repo: repo}
}

func (m *RuleModel) Name() string               { return m.name }
func (m *RuleModel) Source() transaction.Source { return transaction.SourceRule }

func (m *RuleModel) Classify(ctx context.Context, tx transaction.Transaction) (string, error) {
	if strings.TrimSpace(tx.Description()) == "" {
		return "", nil
	}

	return m.repo.FindLabel(ctx, m.name, tx.Description())
}

// Learn remembers that descriptions containing rawPattern get label.
func (m *RuleModel) Learn(ctx context.Context, rawPattern, label string) error {
	rawPattern = strings.TrimSpace(rawPattern)
	label = strings.TrimSpace(label)

	if rawPattern == "" || label == "" {
		return ErrEmptyRule
	}

	return m.repo.CreateRule(ctx, m.name, rawPattern, label)
}

func (m *RuleModel) Rules(ctx context.Context) ([]Rule, error) {
	return m.repo.ListRules(ctx, m.name)
}
