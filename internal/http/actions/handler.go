package actions

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/tally/internal/account"
	"github.com/MrJamesThe3rd/tally/internal/http/params"
	"github.com/MrJamesThe3rd/tally/internal/matching"
	"github.com/MrJamesThe3rd/tally/internal/resolve"
	"github.com/MrJamesThe3rd/tally/internal/resolve/store"
)

type Lister interface {
	ListPairs(ctx context.Context, filter store.Filter) ([]resolve.ActionValuePair, error)
}

// Handler serves the audit trail of past runs.
type Handler struct {
	pairs Lister
}

func NewHandler(pairs Lister) *Handler {
	return &Handler{pairs: pairs}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
}

type actionResponse struct {
	RunID        uuid.UUID       `json:"run_id"`
	Seq          int             `json:"seq"`
	SearchID     string          `json:"search_id"`
	SearchDate   string          `json:"search_date"`
	SearchAmount string          `json:"search_amount"`
	Account      account.Account `json:"account"`
	Receipt      string          `json:"receipt"`
	MatchID      string          `json:"match_id,omitempty"`
	Action       resolve.Action  `json:"action"`
	Config       matching.Config `json:"config"`
	CreatedAt    time.Time       `json:"created_at"`
}

func toResponse(p resolve.ActionValuePair) actionResponse {
	resp := actionResponse{
		RunID:        p.RunID,
		Seq:          p.Seq,
		SearchID:     p.SearchID.String(),
		SearchDate:   p.SearchDate.Format(time.DateOnly),
		SearchAmount: p.SearchAmount.StringFixed(2),
		Account:      p.Account,
		Receipt:      p.Receipt,
		Action:       p.Action,
		Config:       p.Config,
		CreatedAt:    p.CreatedAt,
	}

	if p.MatchID != nil {
		resp.MatchID = p.MatchID.String()
	}

	return resp
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var filter store.Filter

	if s := q.Get("run_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			http.Error(w, "invalid run_id", http.StatusBadRequest)
			return
		}

		filter.RunID = &id
	}

	acc, err := params.Account(q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	filter.Account = acc

	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}

		filter.Limit = n
	}

	pairs, err := h.pairs.ListPairs(r.Context(), filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := make([]actionResponse, 0, len(pairs))
	for _, p := range pairs {
		resp = append(resp, toResponse(p))
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
