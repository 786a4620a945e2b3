package importcsv

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/tally/internal/account"
	"github.com/MrJamesThe3rd/tally/internal/http/params"
	"github.com/MrJamesThe3rd/tally/internal/importer"
	"github.com/MrJamesThe3rd/tally/internal/transaction"
)

type Handler struct {
	importSvc *importer.Service
	txSvc     *transaction.Service
	accounts  *account.Set
}

// NewHandler creates the statement upload handler. Uploads are only
// accepted for accounts in accounts; a nil set accepts any account.
func NewHandler(importSvc *importer.Service, txSvc *transaction.Service, accounts *account.Set) *Handler {
	return &Handler{
		importSvc: importSvc,
		txSvc:     txSvc,
		accounts:  accounts,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importCSV)
}

type rowResponse struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

type importResponse struct {
	Account    account.Account `json:"account"`
	Imported   []rowResponse   `json:"imported"`
	Duplicates []rowResponse   `json:"duplicates"`
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	acc, err := params.Account(r.Form)
	if err != nil || acc == nil {
		http.Error(w, "currency, holder, bank and type fields are required", http.StatusBadRequest)
		return
	}

	if h.accounts != nil && !h.accounts.Contains(*acc) {
		http.Error(w, "account "+acc.String()+" is not configured", http.StatusUnprocessableEntity)
		return
	}

	format := importer.Bank(r.FormValue("format"))
	if format == "" {
		format = importer.Bank(acc.Bank)
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	txs, err := h.importSvc.Import(format, *acc, file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.txSvc.ImportBatch(r.Context(), *acc, txs)
	if err != nil {
		var inv *transaction.DataInvariantError
		if errors.As(err, &inv) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}

		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	slog.Info("statement imported",
		"account", acc.String(),
		"imported", len(result.Imported),
		"duplicates", len(result.Duplicates),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(importResponse{
		Account:    *acc,
		Imported:   toRows(result.Imported),
		Duplicates: toRows(result.Duplicates),
	}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func toRows(txs []*transaction.CsvTransaction) []rowResponse {
	rows := make([]rowResponse, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, rowResponse{
			ID:          tx.ID().String(),
			Date:        tx.Date().Format(time.DateOnly),
			Amount:      transaction.Round(tx.NetAmount()).StringFixed(2),
			Description: tx.Description(),
		})
	}

	return rows
}
