package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tally/internal/classify"
	"github.com/MrJamesThe3rd/tally/internal/matching"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"Tally"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"tally"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	}

	Auth struct {
		JWTSecret      string   `envconfig:"JWT_SECRET"`
		AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`
	}

	Paths struct {
		Accounts string `envconfig:"ACCOUNTS_FILE" default:"accounts.yaml"`
		Receipts string `envconfig:"RECEIPTS_DIR" default:"receipts"`
		Export   string `envconfig:"EXPORT_DIR" default:"export"`
	}

	Matching struct {
		Days                           int             `envconfig:"MATCH_DAYS" default:"3"`
		AmountRange                    decimal.Decimal `envconfig:"MATCH_AMOUNT_RANGE" default:"0.01"`
		DaysMonthSwap                  bool            `envconfig:"MATCH_DAYS_MONTH_SWAP" default:"true"`
		MultipleReceiptsPerTransaction bool            `envconfig:"MATCH_MULTIPLE_RECEIPTS_PER_TRANSACTION" default:"false"`
		// e.g. "USD/EUR=1.08,GBP/EUR=0.86"
		Ratios Ratios `envconfig:"MATCH_RATIOS"`
	}

	Classify struct {
		RuleModels  []string `envconfig:"CLASSIFY_RULE_MODELS" default:"description"`
		AIName      string   `envconfig:"CLASSIFY_AI_NAME" default:"category"`
		GeminiModel string   `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
		Categories  []string `envconfig:"CLASSIFY_CATEGORIES"`
	}

	Gemini struct {
		APIKey string `envconfig:"GEMINI_API_KEY"`
	}
}

// Ratios decodes conversion ratios written as FROM/TO=ratio pairs.
type Ratios matching.Ratios

func (r *Ratios) Decode(value string) error {
	out := make(Ratios)

	for entry := range strings.SplitSeq(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		pair, ratio, ok := strings.Cut(entry, "=")
		if !ok {
			return fmt.Errorf("ratio %q: expected FROM/TO=value", entry)
		}

		from, to, ok := strings.Cut(pair, "/")
		if !ok {
			return fmt.Errorf("ratio %q: expected FROM/TO=value", entry)
		}

		d, err := decimal.NewFromString(strings.TrimSpace(ratio))
		if err != nil {
			return fmt.Errorf("ratio %q: %w", entry, err)
		}

		if !d.IsPositive() {
			return fmt.Errorf("ratio %q: must be positive", entry)
		}

		out[matching.Pair{From: strings.TrimSpace(from), To: strings.TrimSpace(to)}] = d
	}

	*r = out

	return nil
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

// MatchingConfig is the initial search window of a run.
func (c *Config) MatchingConfig() matching.Config {
	return matching.Config{
		Days:                           c.Matching.Days,
		AmountRange:                    c.Matching.AmountRange,
		DaysMonthSwap:                  c.Matching.DaysMonthSwap,
		MultipleReceiptsPerTransaction: c.Matching.MultipleReceiptsPerTransaction,
	}
}

func (c *Config) MatchingRatios() matching.Ratios {
	return matching.Ratios(c.Matching.Ratios)
}

func (c *Config) ClassifySettings() classify.Settings {
	return classify.Settings{
		RuleModels:  c.Classify.RuleModels,
		AIName:      c.Classify.AIName,
		GeminiModel: c.Classify.GeminiModel,
		Categories:  c.Classify.Categories,
	}
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.MatchingConfig().Validate(); err != nil {
		return nil, fmt.Errorf("matching config: %w", err)
	}

	return &cfg, nil
}
