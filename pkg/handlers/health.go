package handlers

import (
	"net/http"
	"os"
	"runtime"

	"go.uber.org/zap"

	"github.com/psylab-io/psy-engine/pkg/config"
	"github.com/psylab-io/psy-engine/pkg/store"
)

// PingResponse contains service status, version and store information.
type PingResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Service     string `json:"service"`
	GoVersion   string `json:"go_version"`
	Hostname    string `json:"hostname"`
	Environment string `json:"environment"`
	Database    string `json:"database"`
	Documents   int    `json:"documents"`
}

// HealthHandler handles health check and ping endpoints.
type HealthHandler struct {
	cfg    *config.Config
	st     *store.Store
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler over the given configuration
// and document store.
func NewHealthHandler(cfg *config.Config, st *store.Store, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{cfg: cfg, st: st, logger: logger}
}

// RegisterRoutes registers the health handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", h.Health)
	mux.HandleFunc("/ping", h.Ping)
}

// Health handles GET /healthz requests.
// Returns a simple "ok" status for liveness probes.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ping handles GET /ping requests. Returns service information plus the
// store location and seeded document count, which is the quickest way to
// tell an empty data dir from a populated one.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	hostname, err := os.Hostname()
	if err != nil {
		http.Error(w, "failed to get hostname", http.StatusInternalServerError)
		return
	}

	documents, err := h.st.Count(r.Context())
	if err != nil {
		h.logger.Error("Failed to count store documents", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "store_unavailable", "document store unavailable"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := PingResponse{
		Status:      "ok",
		Version:     h.cfg.Version,
		Service:     "psy-engine",
		GoVersion:   runtime.Version(),
		Hostname:    hostname,
		Environment: h.cfg.Env,
		Database:    h.cfg.Storage.DatabasePath(),
		Documents:   documents,
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode ping response", zap.Error(err))
	}
}
