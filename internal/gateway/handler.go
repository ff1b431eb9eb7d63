package gateway

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"aurora-assets/internal/domain"
)

// Handler serves GET /api/{kind} for each collection and GET /api/snapshot.
type Handler struct {
	source     Source
	aggregator *Aggregator
	logger     *log.Logger
	mux        *http.ServeMux
}

// NewHandler creates a Handler. Snapshots are built by aggregating source.
func NewHandler(source Source, logger *log.Logger) *Handler {
	h := &Handler{
		source:     source,
		aggregator: NewAggregator(source, AggregatorOptions{Logger: logger}),
		logger:     logger,
		mux:        http.NewServeMux(),
	}
	h.Register(h.mux)
	return h
}

// Register mounts the gateway routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/snapshot", h.handleSnapshot)
	mux.HandleFunc("GET /api/{kind}", h.handleCollection)
}

// ServeHTTP serves the gateway routes on their own mux.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// SnapshotResponse is the JSON body of /api/snapshot.
type SnapshotResponse struct {
	Tokens    []*domain.TokenRecord  `json:"tokens"`
	NFTs      []*domain.NFTRecord    `json:"nfts"`
	Chains    []*domain.ChainRecord  `json:"chains"`
	Modules   []*domain.ModuleRecord `json:"modules"`
	Errors    map[string]string      `json:"errors,omitempty"`
	Complete  bool                   `json:"complete"`
	FetchedAt time.Time              `json:"fetched_at"`
}

// NewSnapshotResponse converts a Snapshot for the wire.
func NewSnapshotResponse(s *Snapshot) SnapshotResponse {
	resp := SnapshotResponse{
		Tokens:    s.Tokens,
		NFTs:      s.NFTs,
		Chains:    s.Chains,
		Modules:   s.Modules,
		Complete:  s.Complete(),
		FetchedAt: s.FetchedAt,
	}
	if len(s.Errors) > 0 {
		resp.Errors = make(map[string]string, len(s.Errors))
		for kind, err := range s.Errors {
			resp.Errors[kind.String()] = err.Error()
		}
	}
	return resp
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := h.aggregator.Snapshot(r.Context())
	writeJSON(w, http.StatusOK, NewSnapshotResponse(snap))
}

func (h *Handler) handleCollection(w http.ResponseWriter, r *http.Request) {
	kind := domain.CollectionKind(r.PathValue("kind"))
	if !kind.IsValid() {
		writeError(w, http.StatusNotFound, ErrUnknownKind)
		return
	}

	records, err := h.source.Fetch(r.Context(), kind)
	if err != nil {
		if errors.Is(err, ErrUnknownKind) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		h.logf("fetch %s: %v", kind, err)
		writeError(w, http.StatusBadGateway, err)
		return
	}
	if records == nil {
		records = []domain.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) logf(format string, args ...interface{}) {
	if h.logger != nil {
		h.logger.Printf(format, args...)
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
