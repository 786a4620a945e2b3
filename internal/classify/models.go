package classify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/genai"
)

// Settings selects which models run. Every name in RuleModels gets a rule
// model; GeminiModel, when set, adds an AI model under AIName.
type Settings struct {
	RuleModels  []string
	AIName      string
	GeminiModel string
	Categories  []string
}

var ErrNoGenerator = errors.New("gemini model configured without a client")

// NewModels builds the configured models in order: rule models first, AI
// model last.
func NewModels(s Settings, repo RuleRepository, gen Generator) ([]Model, error) {
	var models []Model

	for _, name := range s.RuleModels {
		if name == "" {
			continue
		}

		models = append(models, NewRuleModel(name, repo))
	}

	if s.GeminiModel == "" {
		return models, nil
	}

	if gen == nil {
		return nil, ErrNoGenerator
	}

	if len(s.Categories) == 0 {
		slog.Warn("gemini model configured without categories, it will never label anything")
	}

	name := s.AIName
	if name == "" {
		name = "category"
	}

	return append(models, NewGeminiModel(name, s.GeminiModel, s.Categories, gen)), nil
}

// NewClient connects to the Gemini API. An empty apiKey falls back to the
// GOOGLE_API_KEY / GEMINI_API_KEY environment variables read by genai.
func NewClient(ctx context.Context, apiKey string) (Generator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return client.Models, nil
}
