package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/theryston/cerrado/internal/allocation"
	"github.com/theryston/cerrado/internal/domain"
	"github.com/theryston/cerrado/internal/export"
	"github.com/theryston/cerrado/internal/session"
	"github.com/theryston/cerrado/internal/wallet"
)

type walletResponse struct {
	Code   string           `json:"code"`
	Wallet domain.Portfolio `json:"wallet"`
}

type allocateWalletResponse struct {
	walletResponse
	Summary allocation.Summary `json:"summary"`
}

type refreshPricesResponse struct {
	walletResponse
	Failed []string `json:"failed"`
}

// GetWallet handles GET /api/v1/wallets/{code}.
func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	p, err := h.loadWallet(r.Context(), code)
	if err != nil {
		writeWalletError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, walletResponse{Code: code, Wallet: p})
}

// CreateWallet handles POST /api/v1/wallets. The body is optional; an empty body
// creates a wallet with the default classes.
func (h *Handler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	p, ok := readWallet(w, r, true)
	if !ok {
		return
	}
	if err := domain.ValidateTargets(p.AssetClasses); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	code, err := h.wallets.Save(r.Context(), "", p)
	if err != nil {
		slog.Error("failed to create wallet", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, walletResponse{Code: code, Wallet: p})
}

// PutWallet handles PUT /api/v1/wallets/{code}.
func (h *Handler) PutWallet(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if err := wallet.ValidateCode(code); err != nil {
		writeWalletError(w, err)
		return
	}

	p, ok := readWallet(w, r, false)
	if !ok {
		return
	}
	if err := domain.ValidateTargets(p.AssetClasses); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, err := h.openSession(r.Context(), code)
	if err != nil {
		writeWalletError(w, err)
		return
	}
	sess.Replace(p)
	if err := h.commit(r.Context(), sess); err != nil {
		writeWalletError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, walletResponse{Code: code, Wallet: sess.Snapshot()})
}

type allocateWalletRequest struct {
	ContributionAmount *decimal.Decimal `json:"contributionAmount"`
}

// AllocateWallet handles POST /api/v1/wallets/{code}/allocate. Without a
// contributionAmount the wallet's stored contribution is used.
func (h *Handler) AllocateWallet(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	var req allocateWalletRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}

	sess, err := h.openSession(r.Context(), code)
	if err != nil {
		writeWalletError(w, err)
		return
	}

	var p domain.Portfolio
	if req.ContributionAmount != nil {
		p, err = sess.Allocate(*req.ContributionAmount)
	} else {
		p, err = sess.Recalculate()
	}
	if errors.Is(err, session.ErrNegativeContribution) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeAllocationError(w, err)
		return
	}
	if err := h.commit(r.Context(), sess); err != nil {
		writeWalletError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, allocateWalletResponse{
		walletResponse: walletResponse{Code: code, Wallet: p},
		Summary:        allocation.Summarize(p.Investments, p.ContributionAmount),
	})
}

// RefreshWalletPrices handles POST /api/v1/wallets/{code}/prices/refresh.
func (h *Handler) RefreshWalletPrices(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	sess, err := h.openSession(r.Context(), code)
	if err != nil {
		writeWalletError(w, err)
		return
	}

	updated, failed := h.quotes.ApplyQuotes(r.Context(), sess.Snapshot())
	p := sess.Replace(updated)
	if err := h.commit(r.Context(), sess); err != nil {
		writeWalletError(w, err)
		return
	}

	if failed == nil {
		failed = []string{}
	}
	writeJSON(w, http.StatusOK, refreshPricesResponse{
		walletResponse: walletResponse{Code: code, Wallet: p},
		Failed:         failed,
	})
}

// ExportWallet handles GET /api/v1/wallets/{code}/export.xlsx. The stored plan is
// exported; a wallet without one gets a freshly computed plan.
func (h *Handler) ExportWallet(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	p, err := h.loadWallet(r.Context(), code)
	if err != nil {
		writeWalletError(w, err)
		return
	}

	results := p.Investments
	if len(results) == 0 {
		results, err = allocation.ForPortfolio(p)
		if err != nil {
			writeAllocationError(w, err)
			return
		}
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, p, results); err != nil {
		slog.Error("failed to render workbook", "code", code, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="cerrado-%s.xlsx"`, code))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("failed to write workbook", "code", code, "error", err)
	}
}

// loadWallet prefers a snapshot still waiting in the autosave queue over the stored one.
func (h *Handler) loadWallet(ctx context.Context, code string) (domain.Portfolio, error) {
	if err := wallet.ValidateCode(code); err != nil {
		return domain.Portfolio{}, err
	}
	if h.autosave != nil {
		if p, ok := h.autosave.Pending(code); ok {
			return p, nil
		}
	}
	return h.wallets.Load(ctx, code)
}

func (h *Handler) newSession(code string, p domain.Portfolio) *session.Session {
	var onChange session.ChangeFunc
	if h.autosave != nil {
		onChange = h.autosave.Schedule
	}
	return session.New(code, p, onChange)
}

func (h *Handler) openSession(ctx context.Context, code string) (*session.Session, error) {
	p, err := h.loadWallet(ctx, code)
	if err != nil {
		return nil, err
	}
	return h.newSession(code, p), nil
}

// commit stores the session snapshot right away when no autosaver is configured.
func (h *Handler) commit(ctx context.Context, sess *session.Session) error {
	if h.autosave != nil {
		return nil
	}
	_, err := h.wallets.Save(ctx, sess.Code(), sess.Snapshot())
	return err
}

// readWallet decodes a wallet body, accepting legacy field names. An empty body
// yields the default wallet when allowEmpty is set.
func readWallet(w http.ResponseWriter, r *http.Request, allowEmpty bool) (domain.Portfolio, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return domain.Portfolio{}, false
	}
	if len(bytes.TrimSpace(data)) == 0 {
		if allowEmpty {
			return domain.DefaultPortfolio(), true
		}
		writeError(w, http.StatusBadRequest, "request body is required")
		return domain.Portfolio{}, false
	}

	p, err := wallet.Decode(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid wallet: %v", err))
		return domain.Portfolio{}, false
	}
	return p, true
}

func writeWalletError(w http.ResponseWriter, err error) {
	if errors.Is(err, wallet.ErrInvalidCode) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	slog.Error("wallet operation failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}
