package export

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/tally/internal/account"
	"github.com/MrJamesThe3rd/tally/internal/export"
	"github.com/MrJamesThe3rd/tally/internal/http/params"
	"github.com/MrJamesThe3rd/tally/internal/reconcile"
	"github.com/MrJamesThe3rd/tally/internal/resolve"
	"github.com/MrJamesThe3rd/tally/internal/resolve/store"
	"github.com/MrJamesThe3rd/tally/internal/transaction"
)

type LedgerLoader interface {
	Ledger(ctx context.Context, filter transaction.ListFilter) (transaction.Ledger, error)
}

type PairLister interface {
	ListPairs(ctx context.Context, filter store.Filter) ([]resolve.ActionValuePair, error)
}

// Handler exports the already reconciled ledger of one year: receipt links
// come from the stored audit trail.
type Handler struct {
	ledger      LedgerLoader
	pairs       PairLister
	snapshots   *reconcile.Orchestrator
	receiptsDir string
}

func NewHandler(ledger LedgerLoader, pairs PairLister, snapshots *reconcile.Orchestrator, receiptsDir string) *Handler {
	return &Handler{
		ledger:      ledger,
		pairs:       pairs,
		snapshots:   snapshots,
		receiptsDir: receiptsDir,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.metadata)
	r.Get("/download", h.download)
}

type partitionResponse struct {
	Account  account.Account `json:"account"`
	Year     int             `json:"year"`
	File     string          `json:"file"`
	Rows     int             `json:"rows"`
	Linked   int             `json:"linked"`
	Unlinked int             `json:"unlinked"`
}

type exportMetadataResponse struct {
	Partitions []partitionResponse `json:"partitions"`
	EmailBody  string              `json:"email_body"`
}

type exportRequest struct {
	year    int
	account *account.Account
}

func parseRequest(r *http.Request) (exportRequest, error) {
	q := r.URL.Query()

	year, err := strconv.Atoi(q.Get("year"))
	if err != nil {
		return exportRequest{}, fmt.Errorf("year query parameter is required")
	}

	acc, err := params.Account(q)
	if err != nil {
		return exportRequest{}, err
	}

	return exportRequest{year: year, account: acc}, nil
}

// write exports the requested partitions into dir.
func (h *Handler) write(ctx context.Context, req exportRequest, dir string) ([]reconcile.PartitionResult, []export.Item, error) {
	start := time.Date(req.year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(req.year, time.December, 31, 0, 0, 0, 0, time.UTC)

	ledger, err := h.ledger.Ledger(ctx, transaction.ListFilter{Account: req.account, StartDate: &start, EndDate: &end})
	if err != nil {
		return nil, nil, err
	}

	pairs, err := h.pairs.ListPairs(ctx, store.Filter{})
	if err != nil {
		return nil, nil, err
	}

	parts, err := h.snapshots.Snapshot(ctx, ledger, pairs)
	if err != nil {
		return nil, nil, err
	}

	svc := export.NewService(dir, h.receiptsDir)

	var items []export.Item

	for _, p := range parts {
		written, err := svc.ExportItems(ctx, p.Partition.Account, p.Partition.Year, p.Transactions)
		if err != nil {
			return nil, nil, fmt.Errorf("exporting %s: %w", p.Partition, err)
		}

		items = append(items, written...)
	}

	return parts, items, nil
}

func (h *Handler) metadata(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tmpDir, err := os.MkdirTemp("", "tally-export-*")
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer os.RemoveAll(tmpDir)

	parts, items, err := h.write(r.Context(), req, tmpDir)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := exportMetadataResponse{
		Partitions: make([]partitionResponse, 0, len(parts)),
		EmailBody:  export.Summary(items),
	}

	for _, p := range parts {
		pr := partitionResponse{
			Account: p.Partition.Account,
			Year:    p.Partition.Year,
			File:    export.FileName(p.Partition.Account, p.Partition.Year),
			Rows:    len(p.Transactions),
		}

		for _, pt := range p.Transactions {
			if _, ok := pt.Receipt(); ok {
				pr.Linked++
			} else {
				pr.Unlinked++
			}
		}

		resp.Partitions = append(resp.Partitions, pr)
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tmpDir, err := os.MkdirTemp("", "tally-export-*")
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer os.RemoveAll(tmpDir)

	_, items, err := h.write(r.Context(), req, tmpDir)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := os.WriteFile(filepath.Join(tmpDir, "email_body.txt"), []byte(export.Summary(items)), 0o644); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"export_%d.zip\"", req.year))

	zipWriter := zip.NewWriter(w)
	defer zipWriter.Close()

	err = filepath.Walk(tmpDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}

		relPath, _ := filepath.Rel(tmpDir, path)

		zf, err := zipWriter.Create(filepath.ToSlash(relPath))
		if err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(zf, f)

		return err
	})
	if err != nil {
		slog.Error("failed to create zip", "error", err)
	}
}
