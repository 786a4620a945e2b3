package classify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/MrJamesThe3rd/tally/internal/transaction"
)

// Generator is the part of *genai.Models the AI model needs.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiModel asks a Gemini model to pick one category per transaction.
type GeminiModel struct {
	name       string
	model      string
	categories []string
	gen        Generator
}

func NewGeminiModel(name, model string, categories []string, gen Generator) *GeminiModel {
	return &GeminiModel{name: name, model: model, categories: categories, gen: gen}
}

func (m *GeminiModel) Name() string               { return m.name }
func (m *GeminiModel) Source() transaction.Source { return transaction.SourceAI }

// Classify returns one of the configured categories, or "" when the model
// answers with something else.
func (m *GeminiModel) Classify(ctx context.Context, tx transaction.Transaction) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: m.prompt(tx)}},
		},
	}

	resp, err := m.gen.GenerateContent(ctx, m.model, contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0),
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	return m.canonical(resp.Text()), nil
}

func (m *GeminiModel) prompt(tx transaction.Transaction) string {
	var b strings.Builder

	b.WriteString("You classify personal bank transactions for bookkeeping.\n\n")
	b.WriteString("Categories:\n")

	for _, c := range m.categories {
		b.WriteString("- " + c + "\n")
	}

	b.WriteString("\nRules:\n")
	b.WriteString("- Answer with exactly one category from the list, spelled as listed.\n")
	b.WriteString("- Answer with the category only. No punctuation, no explanation.\n\n")

	fmt.Fprintf(&b, "Transaction:\ndate: %s\namount: %s %s\ndescription: %s\n",
		tx.Date().Format(time.DateOnly),
		tx.NetAmount().StringFixed(2),
		tx.Account().BaseCurrency,
		tx.Description(),
	)

	return b.String()
}

func (m *GeminiModel) canonical(raw string) string {
	answer := strings.Trim(strings.TrimSpace(raw), "`\"'.")

	for _, c := range m.categories {
		if strings.EqualFold(c, answer) {
			return c
		}
	}

	return ""
}
