package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/theryston/cerrado/internal/external"
)

// GetQuote handles GET /api/v1/quotes/{ticker}.
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	ticker := r.PathValue("ticker")

	q, err := h.quotes.GetQuote(r.Context(), ticker)
	if err != nil {
		if errors.Is(err, external.ErrNoQuote) {
			writeError(w, http.StatusNotFound, "quote not found")
			return
		}
		slog.Error("failed to get quote", "ticker", ticker, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, q)
}

type manualQuoteRequest struct {
	Price decimal.Decimal `json:"price"`
}

// PutManualQuote handles PUT /api/v1/quotes/{ticker} for prices the quote API does not list.
func (h *Handler) PutManualQuote(w http.ResponseWriter, r *http.Request) {
	var req manualQuoteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	q, err := h.quotes.SaveManualQuote(r.Context(), r.PathValue("ticker"), req.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// RefreshQuotes handles POST /api/v1/quotes/refresh.
func (h *Handler) RefreshQuotes(w http.ResponseWriter, r *http.Request) {
	if err := h.quotes.FetchAndStoreQuotes(r.Context()); err != nil {
		slog.Error("quote refresh failed", "error", err)
		writeError(w, http.StatusBadGateway, "quote refresh failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
