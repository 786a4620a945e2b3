package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/tally/internal/account"
	"github.com/MrJamesThe3rd/tally/internal/classify"
	classifyStore "github.com/MrJamesThe3rd/tally/internal/classify/store"
	"github.com/MrJamesThe3rd/tally/internal/config"
	"github.com/MrJamesThe3rd/tally/internal/database"
	tallyHttp "github.com/MrJamesThe3rd/tally/internal/http"
	actionsHandler "github.com/MrJamesThe3rd/tally/internal/http/actions"
	exportHandler "github.com/MrJamesThe3rd/tally/internal/http/export"
	importHandler "github.com/MrJamesThe3rd/tally/internal/http/importcsv"
	searchHandler "github.com/MrJamesThe3rd/tally/internal/http/matching"
	rulesHandler "github.com/MrJamesThe3rd/tally/internal/http/rules"
	txHandler "github.com/MrJamesThe3rd/tally/internal/http/transaction"
	"github.com/MrJamesThe3rd/tally/internal/importer"
	"github.com/MrJamesThe3rd/tally/internal/reconcile"
	actionStore "github.com/MrJamesThe3rd/tally/internal/resolve/store"
	"github.com/MrJamesThe3rd/tally/internal/transaction"
	txStore "github.com/MrJamesThe3rd/tally/internal/transaction/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	accounts, err := loadAccounts(cfg.Paths.Accounts)
	if err != nil {
		slog.Error("failed to load accounts", "error", err)
		os.Exit(1)
	}

	models, err := classifyModels(ctx, cfg, classifyStore.New(db))
	if err != nil {
		slog.Error("failed to set up classification", "error", err)
		os.Exit(1)
	}

	var (
		transactionService = transaction.NewService(txStore.New(db))
		importService      = importer.NewService()
		actions            = actionStore.New(db)
		snapshots          = reconcile.NewOrchestrator(nil, classify.NewComposer(slog.Default(), models...), nil, slog.Default())
	)

	router := tallyHttp.New(
		tallyHttp.Options{
			AllowedOrigins: cfg.Auth.AllowedOrigins,
			JWTSecret:      cfg.Auth.JWTSecret,
		},
		tallyHttp.Handlers{
			Ledger:  txHandler.NewHandler(transactionService),
			Import:  importHandler.NewHandler(importService, transactionService, accounts),
			Search:  searchHandler.NewHandler(transactionService, cfg.MatchingConfig(), cfg.MatchingRatios()),
			Actions: actionsHandler.NewHandler(actions),
			Rules:   rulesHandler.NewHandler(models),
			Export:  exportHandler.NewHandler(transactionService, actions, snapshots, cfg.Paths.Receipts),
		},
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	slog.Info("starting server", "port", srv.Addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// loadAccounts returns nil, accepting any account, when the accounts file
// does not exist.
func loadAccounts(path string) (*account.Set, error) {
	cfgs, err := account.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Warn("accounts file not found, accepting any account", "path", path)
			return nil, nil
		}

		return nil, err
	}

	return account.SetOf(cfgs), nil
}

func classifyModels(ctx context.Context, cfg *config.Config, rules classify.RuleRepository) ([]classify.Model, error) {
	settings := cfg.ClassifySettings()

	if cfg.Gemini.APIKey == "" {
		settings.GeminiModel = ""
		return classify.NewModels(settings, rules, nil)
	}

	gen, err := classify.NewClient(ctx, cfg.Gemini.APIKey)
	if err != nil {
		return nil, err
	}

	return classify.NewModels(settings, rules, gen)
}
