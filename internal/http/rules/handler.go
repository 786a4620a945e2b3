package rules

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/tally/internal/classify"
	"github.com/MrJamesThe3rd/tally/internal/transaction"
)

type Handler struct {
	models map[string]*classify.RuleModel
}

// NewHandler exposes the rule models among models; other models are
// ignored.
func NewHandler(models []classify.Model) *Handler {
	h := &Handler{models: make(map[string]*classify.RuleModel)}

	for _, m := range models {
		if rm, ok := m.(*classify.RuleModel); ok {
			h.models[rm.Name()] = rm
		}
	}

	return h
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/suggest", h.suggest)
	r.Post("/", h.learn)
}

type ruleResponse struct {
	ID         int64     `json:"id"`
	Model      string    `json:"model"`
	RawPattern string    `json:"raw_pattern"`
	Label      string    `json:"label"`
	CreatedAt  time.Time `json:"created_at"`
}

func (h *Handler) model(w http.ResponseWriter, name string) (*classify.RuleModel, bool) {
	m, ok := h.models[name]
	if !ok {
		http.Error(w, "unknown rule model "+name, http.StatusNotFound)
	}

	return m, ok
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	m, ok := h.model(w, r.URL.Query().Get("model"))
	if !ok {
		return
	}

	rules, err := m.Rules(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := make([]ruleResponse, 0, len(rules))
	for _, rule := range rules {
		resp = append(resp, ruleResponse(rule))
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type suggestResponse struct {
	Model       string `json:"model"`
	Description string `json:"description"`
	Label       string `json:"label"`
}

func (h *Handler) suggest(w http.ResponseWriter, r *http.Request) {
	m, ok := h.model(w, r.URL.Query().Get("model"))
	if !ok {
		return
	}

	desc := r.URL.Query().Get("description")
	if desc == "" {
		http.Error(w, "description query parameter is required", http.StatusBadRequest)
		return
	}

	probe := transaction.NewCsvTransaction(transaction.CsvParams{Description: desc})

	label, err := m.Classify(r.Context(), probe)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(suggestResponse{
		Model:       m.Name(),
		Description: desc,
		Label:       label,
	}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type learnRequest struct {
	Model      string `json:"model"`
	RawPattern string `json:"raw_pattern"`
	Label      string `json:"label"`
}

func (h *Handler) learn(w http.ResponseWriter, r *http.Request) {
	var req learnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m, ok := h.model(w, req.Model)
	if !ok {
		return
	}

	if err := m.Learn(r.Context(), req.RawPattern, req.Label); err != nil {
		if errors.Is(err, classify.ErrEmptyRule) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	w.WriteHeader(http.StatusCreated)
}
