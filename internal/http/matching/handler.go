package matching

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"maps"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tally/internal/account"
	"github.com/MrJamesThe3rd/tally/internal/matching"
	"github.com/MrJamesThe3rd/tally/internal/resolve"
	"github.com/MrJamesThe3rd/tally/internal/transaction"
)

type LedgerLoader interface {
	Ledger(ctx context.Context, filter transaction.ListFilter) (transaction.Ledger, error)
}

// Handler previews the candidates of a search transaction without
// recording anything.
type Handler struct {
	ledger   LedgerLoader
	defaults matching.Config
	ratios   matching.Ratios
}

func NewHandler(ledger LedgerLoader, defaults matching.Config, ratios matching.Ratios) *Handler {
	return &Handler{ledger: ledger, defaults: defaults, ratios: ratios}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.search)
}

type ratioDTO struct {
	From  string          `json:"from"`
	To    string          `json:"to"`
	Ratio decimal.Decimal `json:"ratio"`
}

type searchRequest struct {
	Account        account.Account  `json:"account"`
	Date           string           `json:"date"`
	TenderedOut    decimal.Decimal  `json:"tendered_out"`
	ChangeReturned decimal.Decimal  `json:"change_returned"`
	Description    string           `json:"description"`
	Config         *matching.Config `json:"config,omitempty"`
	Ratios         []ratioDTO       `json:"ratios,omitempty"`
}

type candidateResponse struct {
	ID           string          `json:"id"`
	Account      account.Account `json:"account"`
	Date         string          `json:"date"`
	Amount       string          `json:"amount"`
	Description  string          `json:"description"`
	AmountDiff   string          `json:"amount_diff"`
	MonthSwapped bool            `json:"month_swapped,omitempty"`
}

type searchResponse struct {
	SearchID   string              `json:"search_id"`
	State      resolve.State       `json:"state"`
	Config     matching.Config     `json:"config"`
	Candidates []candidateResponse `json:"candidates"`
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := req.Account.Validate(); err != nil {
		http.Error(w, "account: "+err.Error(), http.StatusBadRequest)
		return
	}

	date, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		http.Error(w, "date: expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	cfg := h.defaults
	if req.Config != nil {
		cfg = *req.Config
	}

	ratios := make(matching.Ratios, len(h.ratios)+len(req.Ratios))
	maps.Copy(ratios, h.ratios)

	for _, rt := range req.Ratios {
		ratios[matching.Pair{From: rt.From, To: rt.To}] = rt.Ratio
	}

	search := transaction.NewAccountTransaction(transaction.AccountTransactionParams{
		Account:        req.Account,
		Date:           date,
		TenderedOut:    req.TenderedOut,
		ChangeReturned: req.ChangeReturned,
		Description:    req.Description,
	})

	ledger, err := h.ledger.Ledger(r.Context(), window(search.Date(), cfg))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	candidates, err := matching.Search(matching.Query{Transaction: search, Ratios: ratios}, ledger, cfg)
	if err != nil {
		var invalid *matching.InputValidationError

		switch {
		case errors.As(err, &invalid):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}

		return
	}

	resp := searchResponse{
		SearchID:   search.ID().String(),
		State:      resolve.StateFor(len(candidates)),
		Config:     cfg,
		Candidates: make([]candidateResponse, 0, len(candidates)),
	}

	for _, c := range candidates {
		resp.Candidates = append(resp.Candidates, candidateResponse{
			ID:           c.Transaction.ID().String(),
			Account:      c.Transaction.Account(),
			Date:         c.Transaction.Date().Format(time.DateOnly),
			Amount:       transaction.Round(c.Transaction.NetAmount()).StringFixed(2),
			Description:  c.Transaction.Description(),
			AmountDiff:   transaction.Round(c.AmountDiff).StringFixed(2),
			MonthSwapped: c.MonthSwapped,
		})
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// window loads whole calendar years so that month-swapped dates are
// reachable too.
func window(date time.Time, cfg matching.Config) transaction.ListFilter {
	lo := date.AddDate(0, 0, -cfg.Days)
	hi := date.AddDate(0, 0, cfg.Days)

	start := time.Date(lo.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(hi.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)

	return transaction.ListFilter{StartDate: &start, EndDate: &end}
}
