package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/tally/internal/account"
	"github.com/MrJamesThe3rd/tally/internal/classify"
	classifyStore "github.com/MrJamesThe3rd/tally/internal/classify/store"
	"github.com/MrJamesThe3rd/tally/internal/config"
	"github.com/MrJamesThe3rd/tally/internal/database"
	"github.com/MrJamesThe3rd/tally/internal/export"
	"github.com/MrJamesThe3rd/tally/internal/importer"
	"github.com/MrJamesThe3rd/tally/internal/prompt"
	"github.com/MrJamesThe3rd/tally/internal/receipt"
	"github.com/MrJamesThe3rd/tally/internal/reconcile"
	"github.com/MrJamesThe3rd/tally/internal/resolve"
	actionStore "github.com/MrJamesThe3rd/tally/internal/resolve/store"
	"github.com/MrJamesThe3rd/tally/internal/transaction"
	txStore "github.com/MrJamesThe3rd/tally/internal/transaction/store"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("reconciliation failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	accountCfgs, err := account.Load(cfg.Paths.Accounts)
	if err != nil {
		return err
	}

	var (
		transactionService = transaction.NewService(txStore.New(db))
		importService      = importer.NewService()
		actions            = actionStore.New(db)
	)

	if err := importStatements(ctx, accountCfgs, importService, transactionService); err != nil {
		return err
	}

	ledger, err := transactionService.Ledger(ctx, transaction.ListFilter{})
	if err != nil {
		return err
	}

	receipts, err := receipt.LoadDir(cfg.Paths.Receipts)
	if err != nil {
		return err
	}

	prior, err := actions.ListPairs(ctx, actionStore.Filter{})
	if err != nil {
		return err
	}

	models, err := classifyModels(ctx, cfg, classifyStore.New(db))
	if err != nil {
		return err
	}

	orchestrator := reconcile.NewOrchestrator(
		resolve.NewResolver(prompt.New(), slog.Default()),
		classify.NewComposer(slog.Default(), models...),
		export.NewService(cfg.Paths.Export, cfg.Paths.Receipts),
		slog.Default(),
	)

	slog.Info("starting reconciliation",
		"receipts", len(receipts),
		"ledger", ledger.Len(),
		"prior_actions", len(prior),
		"window", cfg.MatchingConfig().String(),
	)

	result, runErr := orchestrator.Run(ctx, reconcile.Input{
		Receipts: receipts,
		Ledger:   ledger,
		Accounts: account.SetOf(accountCfgs),
		Config:   cfg.MatchingConfig(),
		Ratios:   cfg.MatchingRatios(),
		Prior:    prior,
	})

	if result != nil {
		if err := actions.SavePairs(ctx, result.Actions); err != nil {
			return errors.Join(runErr, fmt.Errorf("saving actions: %w", err))
		}

		printSummary(result)
	}

	var missing *reconcile.MissingAccountsError
	if errors.As(runErr, &missing) {
		for _, m := range missing.Accounts {
			slog.Error("account not configured", "account", m.Account.String(), "legs", len(m.Legs))
		}
	}

	return runErr
}

func importStatements(ctx context.Context, cfgs []account.Config, importService *importer.Service, txService *transaction.Service) error {
	for _, c := range cfgs {
		for _, st := range c.Statements {
			txs, err := importService.ImportStatement(c.Account, st)
			if err != nil {
				return err
			}

			res, err := txService.ImportBatch(ctx, c.Account, txs)
			if err != nil {
				return fmt.Errorf("importing %s: %w", st.Path, err)
			}

			slog.Info("statement imported",
				"account", c.Account.String(),
				"path", st.Path,
				"imported", len(res.Imported),
				"duplicates", len(res.Duplicates),
			)
		}
	}

	return nil
}

func printSummary(result *reconcile.Result) {
	for _, p := range result.Partitions {
		items := make([]export.Item, len(p.Transactions))
		for i, pt := range p.Transactions {
			items[i] = export.Item{Transaction: pt}
		}

		fmt.Printf("\n%s (%s)\n%s", p.Partition, export.FileName(p.Partition.Account, p.Partition.Year), export.Summary(items))
	}

	if len(result.Skipped) > 0 {
		fmt.Printf("\n%d ambiguous legs skipped\n", len(result.Skipped))
	}
}

func classifyModels(ctx context.Context, cfg *config.Config, rules classify.RuleRepository) ([]classify.Model, error) {
	settings := cfg.ClassifySettings()

	if cfg.Gemini.APIKey == "" {
		slog.Warn("GEMINI_API_KEY not set, AI labels disabled")

		settings.GeminiModel = ""

		return classify.NewModels(settings, rules, nil)
	}

	gen, err := classify.NewClient(ctx, cfg.Gemini.APIKey)
	if err != nil {
		return nil, err
	}

	return classify.NewModels(settings, rules, gen)
}
