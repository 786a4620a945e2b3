package transaction

import (
	"maps"
)

// Source tells where a label came from.
type Source string

const (
	SourceRule Source = "rule"
	SourceAI   Source = "ai"
)

// ReceiptLink ties a processed transaction to the receipt that explains it.
type ReceiptLink struct {
	Image string
	LegID ID
}

// ProcessedTransaction is an immutable view over a Transaction with labels
// and an optional receipt. Every With* method returns a new value and leaves
// the receiver untouched; the wrapped transaction and its ID never change.
type ProcessedTransaction struct {
	tx      Transaction
	rule    map[string]string
	ai      map[string]string
	receipt *ReceiptLink
}

func NewProcessed(tx Transaction) ProcessedTransaction {
	return ProcessedTransaction{tx: tx}
}

func (p ProcessedTransaction) Transaction() Transaction {
	return p.tx
}

func (p ProcessedTransaction) ID() ID {
	return p.tx.ID()
}

// WithLabel returns a copy carrying label for model under source.
func (p ProcessedTransaction) WithLabel(source Source, model, label string) ProcessedTransaction {
	out := p

	switch source {
	case SourceAI:
		out.ai = maps.Clone(p.ai)
		if out.ai == nil {
			out.ai = make(map[string]string)
		}

		out.ai[model] = label
	default:
		out.rule = maps.Clone(p.rule)
		if out.rule == nil {
			out.rule = make(map[string]string)
		}

		out.rule[model] = label
	}

	return out
}

// WithReceipt returns a copy linked to the given receipt.
func (p ProcessedTransaction) WithReceipt(link ReceiptLink) ProcessedTransaction {
	out := p
	out.receipt = &link

	return out
}

func (p ProcessedTransaction) Receipt() (ReceiptLink, bool) {
	if p.receipt == nil {
		return ReceiptLink{}, false
	}

	return *p.receipt, true
}

func (p ProcessedTransaction) RuleLabels() map[string]string {
	return maps.Clone(p.rule)
}

func (p ProcessedTransaction) AILabels() map[string]string {
	return maps.Clone(p.ai)
}

// Labels composes both label maps: rule-based labels first, AI-derived
// labels second, so the AI label wins when both name the same model.
func (p ProcessedTransaction) Labels() map[string]string {
	out := make(map[string]string, len(p.rule)+len(p.ai))
	maps.Copy(out, p.rule)
	maps.Copy(out, p.ai)

	return out
}
