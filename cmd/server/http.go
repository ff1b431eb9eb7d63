package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"aurora-assets/internal/domain"
	"aurora-assets/internal/ledger"
	"aurora-assets/internal/mint"
	"aurora-assets/internal/observability"
	"aurora-assets/internal/storage"
)

// routes mounts every endpoint of the service.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("/metrics", observability.Handler())

	// Status endpoint
	mux.HandleFunc("/status", s.handleStatus)

	// Read model
	s.gateway.Register(mux)

	// Ledger
	mux.HandleFunc("GET /api/ledger/balances/{address}", s.handleBalance)
	mux.HandleFunc("GET /api/ledger/holders", s.handleHolders)

	// Mint
	mux.HandleFunc("POST /api/nfts/{id}/mint", s.handleMint)

	return mux
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status         string    `json:"status"`
	Uptime         string    `json:"uptime"`
	Started        time.Time `json:"started"`
	WalletDetected bool      `json:"wallet_detected"`
	TotalSupply    uint64    `json:"total_supply"`
	LedgerEvents   int       `json:"ledger_events"`
	MintsRun       int       `json:"mints_run"`
	MintsConfirmed int       `json:"mints_confirmed"`
	LastMint       time.Time `json:"last_mint,omitempty"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := StatusResponse{
		Status:         "running",
		Uptime:         time.Since(s.started).String(),
		Started:        s.started,
		WalletDetected: s.walletsOK,
		MintsRun:       s.mintsRun,
		MintsConfirmed: s.mintsOK,
		LastMint:       s.lastMint,
	}
	s.mu.Unlock()

	resp.TotalSupply = s.ledger.TotalSupply()
	resp.LedgerEvents = len(s.ledger.Events())

	writeJSON(w, http.StatusOK, resp)
}

// BalanceResponse is the JSON response for /api/ledger/balances/{address}.
type BalanceResponse struct {
	Address     domain.Address `json:"address"`
	Balance     uint64         `json:"balance"`
	TotalSupply uint64         `json:"total_supply"`
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	addr, err := domain.ParseAddress(r.PathValue("address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{
		Address:     addr,
		Balance:     s.ledger.BalanceOf(addr),
		TotalSupply: s.ledger.TotalSupply(),
	})
}

func (s *Server) handleHolders(w http.ResponseWriter, r *http.Request) {
	holders := s.ledger.Holders()
	if holders == nil {
		holders = []ledger.BalanceEntry{}
	}
	writeJSON(w, http.StatusOK, holders)
}

// MintResponse is the JSON response for POST /api/nfts/{id}/mint.
type MintResponse struct {
	RequestID   string   `json:"request_id"`
	State       string   `json:"state"`
	ErrorKind   string   `json:"error_kind,omitempty"`
	Error       string   `json:"error,omitempty"`
	Retryable   bool     `json:"retryable,omitempty"`
	Account     string   `json:"account,omitempty"`
	TxSignature string   `json:"tx_signature,omitempty"`
	BlockID     string   `json:"block_id,omitempty"`
	Visited     []string `json:"visited"`
}

// handleMint mints an NFT. The orchestrator has no timeout of its own;
// the request is bounded by --mint-timeout.
func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.MintTimeout)
	defer cancel()

	res, err := s.assets.MintNFT(ctx, r.PathValue("id"))
	if res == nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			writeError(w, http.StatusNotFound, err)
		case errors.Is(err, storage.ErrInvalidTransition):
			writeError(w, http.StatusConflict, err)
		default:
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	s.mu.Lock()
	s.mintsRun++
	if res.Confirmed() {
		s.mintsOK++
	}
	s.lastMint = res.FinishedAt
	s.mu.Unlock()

	resp := MintResponse{
		RequestID:   res.RequestID,
		State:       res.State.String(),
		Account:     res.Account,
		TxSignature: res.TxSignature,
		BlockID:     res.BlockID,
		Visited:     make([]string, len(res.Visited)),
	}
	for i, st := range res.Visited {
		resp.Visited[i] = st.String()
	}

	status := http.StatusOK
	if res.Err != nil {
		resp.ErrorKind = res.Kind.String()
		resp.Error = res.Err.Error()
		resp.Retryable = res.Kind.Retryable()
		status = mintStatus(res.Kind)
	} else if err != nil {
		// confirmed on chain but the read model was not updated
		resp.Error = err.Error()
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, resp)
}

func mintStatus(kind mint.Kind) int {
	switch kind {
	case mint.KindNoProvider:
		return http.StatusServiceUnavailable
	case mint.KindAuthorizationDenied:
		return http.StatusForbidden
	default:
		return http.StatusBadGateway
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
