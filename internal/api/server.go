package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"
)

// NewServer creates an HTTP server with all routes configured.
func NewServer(port string, handler *Handler, adminAPIKey string) *http.Server {
	return &http.Server{
		Addr:         ":" + port,
		Handler:      NewMux(handler, adminAPIKey),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewMux registers every API route on a new ServeMux.
func NewMux(handler *Handler, adminAPIKey string) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/allocations", handler.ComputeAllocation)
	mux.HandleFunc("GET /api/v1/asset-classes/defaults", handler.DefaultAssetClasses)
	mux.HandleFunc("GET /api/v1/tesouro-types", handler.TesouroTypes)
	mux.HandleFunc("GET /api/v1/checklists", handler.ListChecklists)
	mux.HandleFunc("POST /api/v1/scores", handler.ComputeScore)

	mux.HandleFunc("POST /api/v1/wallets", handler.CreateWallet)
	mux.HandleFunc("GET /api/v1/wallets/{code}", handler.GetWallet)
	mux.HandleFunc("PUT /api/v1/wallets/{code}", handler.PutWallet)
	mux.HandleFunc("POST /api/v1/wallets/{code}/allocate", handler.AllocateWallet)
	mux.HandleFunc("POST /api/v1/wallets/{code}/prices/refresh", handler.RefreshWalletPrices)
	mux.HandleFunc("GET /api/v1/wallets/{code}/export.xlsx", handler.ExportWallet)

	mux.HandleFunc("GET /api/v1/quotes/{ticker}", handler.GetQuote)
	mux.HandleFunc("PUT /api/v1/quotes/{ticker}", handler.PutManualQuote)

	refreshHandler := http.HandlerFunc(handler.RefreshQuotes)
	if adminAPIKey != "" {
		mux.Handle("POST /api/v1/quotes/refresh", requireAuth(adminAPIKey, refreshHandler))
	} else {
		mux.Handle("POST /api/v1/quotes/refresh", refreshHandler)
	}

	return mux
}

func requireAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
