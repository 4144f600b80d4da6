package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/theryston/cerrado/internal/allocation"
	"github.com/theryston/cerrado/internal/checklist"
	"github.com/theryston/cerrado/internal/domain"
	"github.com/theryston/cerrado/internal/external"
)

const maxBodyBytes = 1 << 20

// WalletStore loads and saves wallet snapshots.
type WalletStore interface {
	Load(ctx context.Context, code string) (domain.Portfolio, error)
	Save(ctx context.Context, code string, p domain.Portfolio) (string, error)
}

// QuoteService resolves and refreshes asset prices.
type QuoteService interface {
	GetQuote(ctx context.Context, ticker string) (external.Quote, error)
	SaveManualQuote(ctx context.Context, ticker string, price decimal.Decimal) (external.Quote, error)
	ApplyQuotes(ctx context.Context, p domain.Portfolio) (domain.Portfolio, []string)
	FetchAndStoreQuotes(ctx context.Context) error
}

// Autosave queues wallet writes and serves snapshots that are not yet stored.
type Autosave interface {
	Schedule(code string, p domain.Portfolio)
	Pending(code string) (domain.Portfolio, bool)
}

// Handler provides HTTP endpoints for allocation, wallets, quotes and checklists.
type Handler struct {
	wallets  WalletStore
	quotes   QuoteService
	autosave Autosave // optional; writes are synchronous without it
}

// NewHandler creates a new API handler.
func NewHandler(wallets WalletStore, quotes QuoteService, autosave Autosave) *Handler {
	return &Handler{wallets: wallets, quotes: quotes, autosave: autosave}
}

type allocationRequest struct {
	AssetClasses       []domain.AssetClass `json:"assetClasses"`
	Assets             []domain.Asset      `json:"assets"`
	CurrentTotalValue  *decimal.Decimal    `json:"currentTotalValue"`
	ContributionAmount decimal.Decimal     `json:"contributionAmount"`
}

type allocationResponse struct {
	Investments []domain.AllocationResult `json:"investments"`
	Summary     allocation.Summary        `json:"summary"`
}

// ComputeAllocation handles POST /api/v1/allocations.
func (h *Handler) ComputeAllocation(w http.ResponseWriter, r *http.Request) {
	var req allocationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	p := domain.Portfolio{AssetClasses: req.AssetClasses, Assets: req.Assets}
	currentTotal := p.CurrentTotal()
	if req.CurrentTotalValue != nil {
		currentTotal = *req.CurrentTotalValue
	}

	results, err := allocation.Allocate(req.AssetClasses, req.Assets, currentTotal, req.ContributionAmount)
	if err != nil {
		writeAllocationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, allocationResponse{
		Investments: results,
		Summary:     allocation.Summarize(results, req.ContributionAmount),
	})
}

// DefaultAssetClasses handles GET /api/v1/asset-classes/defaults.
func (h *Handler) DefaultAssetClasses(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.DefaultAssetClasses())
}

// TesouroTypes handles GET /api/v1/tesouro-types.
func (h *Handler) TesouroTypes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.DefaultTesouroTypes())
}

// ListChecklists handles GET /api/v1/checklists[?classId=].
func (h *Handler) ListChecklists(w http.ResponseWriter, r *http.Request) {
	if classID := r.URL.Query().Get("classId"); classID != "" {
		writeJSON(w, http.StatusOK, checklist.ForClass(classID))
		return
	}
	writeJSON(w, http.StatusOK, checklist.Defaults())
}

type scoreRequest struct {
	ClassID   string   `json:"classId"`
	Checklist string   `json:"checklist"`
	Checked   []string `json:"checked"`
	Points    []int    `json:"points"`
}

// ComputeScore handles POST /api/v1/scores. Either raw points or a checklist with
// checked item keys may be given.
func (h *Handler) ComputeScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.Points != nil {
		writeJSON(w, http.StatusOK, checklist.FromPoints(req.Points))
		return
	}

	var (
		list checklist.Checklist
		ok   bool
	)
	if req.Checklist != "" {
		list, ok = checklist.Find(req.ClassID, req.Checklist)
	} else if lists := checklist.ForClass(req.ClassID); len(lists) > 0 {
		list, ok = lists[0], true
	}
	if !ok {
		writeError(w, http.StatusNotFound, "checklist not found")
		return
	}

	writeJSON(w, http.StatusOK, checklist.Score(list.Items, req.Checked))
}

// decodeBody reads a size-limited JSON body into v, answering 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func writeAllocationError(w http.ResponseWriter, err error) {
	if errors.Is(err, allocation.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	slog.Error("allocation failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
