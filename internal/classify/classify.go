package classify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MrJamesThe3rd/tally/internal/transaction"
)

// Model labels a transaction. An empty label means the model has no
// opinion.
type Model interface {
	Name() string
	Source() transaction.Source
	Classify(ctx context.Context, tx transaction.Transaction) (string, error)
}

// Composer runs every model over a transaction and collects the labels on
// a new ProcessedTransaction.
type Composer struct {
	models []Model
	logger *slog.Logger
}

func NewComposer(logger *slog.Logger, models ...Model) *Composer {
	if logger == nil {
		logger = slog.Default()
	}

	return &Composer{models: models, logger: logger}
}

func (c *Composer) Models() []Model {
	return c.models
}

// Compose labels p with every model. p itself is left untouched; rule and
// AI labels land in separate maps and p.Labels() resolves collisions in
// favour of the AI label.
func (c *Composer) Compose(ctx context.Context, p transaction.ProcessedTransaction) (transaction.ProcessedTransaction, error) {
	out := p

	for _, m := range c.models {
		label, err := m.Classify(ctx, p.Transaction())
		if err != nil {
			return p, fmt.Errorf("classifying with %s: %w", m.Name(), err)
		}

		if label == "" {
			continue
		}

		out = out.WithLabel(m.Source(), m.Name(), label)
	}

	c.logger.Debug("classified transaction",
		"id", p.ID().String(),
		"labels", out.Labels(),
	)

	return out, nil
}

// ComposeAll labels every transaction, stopping at the first failure.
func (c *Composer) ComposeAll(ctx context.Context, txs []transaction.ProcessedTransaction) ([]transaction.ProcessedTransaction, error) {
	out := make([]transaction.ProcessedTransaction, 0, len(txs))

	for _, p := range txs {
		labelled, err := c.Compose(ctx, p)
		if err != nil {
			return nil, err
		}

		out = append(out, labelled)
	}

	return out, nil
}
