package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/netlens/netlens/internal/config"
	"github.com/netlens/netlens/internal/logging"
	"github.com/netlens/netlens/internal/netinfo"
	"github.com/netlens/netlens/internal/notify"
	"github.com/netlens/netlens/internal/probe"
	"github.com/netlens/netlens/internal/session"
)

const defaultDNSDomain = "example.com"

// Handler exposes the diagnostics engine over HTTP for serve mode.
type Handler struct {
	config       *config.Config
	orchestrator *session.Orchestrator
	aggregator   *netinfo.Aggregator
	chain        *probe.Chain
	client       *probe.Client
	notifier     *notify.Notifier
	version      string
}

func NewHandler(cfg *config.Config, orch *session.Orchestrator, agg *netinfo.Aggregator, chain *probe.Chain, client *probe.Client, notifier *notify.Notifier) *Handler {
	return &Handler{
		config:       cfg,
		orchestrator: orch,
		aggregator:   agg,
		chain:        chain,
		client:       client,
		notifier:     notifier,
	}
}

func (h *Handler) SetVersion(version string) {
	if version == "" {
		version = "dev"
	}
	h.version = version
}

type VersionResponse struct {
	Version string `json:"version"`
}

type StartTestResponse struct {
	SessionID string `json:"sessionId"`
	Status    string `json:"status"`
}

// StartTest begins a new measurement session. A session already in flight
// is reported as a conflict rather than restarted.
func (h *Handler) StartTest(w http.ResponseWriter, r *http.Request) {
	sessionID, started := h.orchestrator.Start(r.Context())
	if !started {
		respondJSON(w, map[string]string{"error": "test already running"}, http.StatusConflict)
		return
	}

	logging.Info("Test session started",
		logging.Field{Key: "session_id", Value: sessionID})

	respondJSON(w, StartTestResponse{
		SessionID: sessionID,
		Status:    "running",
	}, http.StatusCreated)
}

// StopTest requests cooperative cancellation of the running session. The
// in-flight transfer is allowed to finish; stopping an idle engine is a no-op.
func (h *Handler) StopTest(w http.ResponseWriter, _ *http.Request) {
	if !h.orchestrator.IsRunning() {
		respondJSON(w, map[string]string{"status": "idle"}, http.StatusOK)
		return
	}

	h.orchestrator.Stop()
	respondJSON(w, map[string]string{"status": "stopping"}, http.StatusAccepted)
}

type StatusResponse struct {
	Running    bool            `json:"running"`
	TestData   interface{}     `json:"testData"`
	Statistics interface{}     `json:"statistics"`
	Notices    []notify.Notice `json:"notices"`
}

func (h *Handler) GetStatus(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, StatusResponse{
		Running:    h.orchestrator.IsRunning(),
		TestData:   h.orchestrator.TestData(),
		Statistics: h.orchestrator.Stats(),
		Notices:    h.notifier.Active(),
	}, http.StatusOK)
}

// GetNetworkInfo gathers the full network overview. Lookups can take a few
// seconds; partial failures come back with placeholder fields, never an error.
func (h *Handler) GetNetworkInfo(w http.ResponseWriter, r *http.Request) {
	info := h.aggregator.Gather(r.Context())
	respondJSON(w, info, http.StatusOK)
}

type LatencyResponse struct {
	AvgMs     float64   `json:"avgMs"`
	Trials    []float64 `json:"trials"`
	Estimated bool      `json:"estimated"`
}

func (h *Handler) GetLatency(w http.ResponseWriter, r *http.Request) {
	result := h.chain.Measure(r.Context())
	respondJSON(w, LatencyResponse{
		AvgMs:     result.AvgMs,
		Trials:    result.Trials,
		Estimated: result.Estimated,
	}, http.StatusOK)
}

type DNSResponse struct {
	Domain    string                 `json:"domain"`
	Type      string                 `json:"type"`
	Resolvers []probe.ResolverTiming `json:"resolvers"`
}

func (h *Handler) GetDNSTimings(w http.ResponseWriter, r *http.Request) {
	domain := r.URL.Query().Get("domain")
	if domain == "" {
		domain = defaultDNSDomain
	}
	recordType := r.URL.Query().Get("type")
	if recordType == "" {
		recordType = "A"
	}

	timings := probe.TimeResolvers(r.Context(), h.client, h.config.Resolvers, domain, recordType, h.config.LookupTimeout)
	respondJSON(w, DNSResponse{
		Domain:    domain,
		Type:      recordType,
		Resolvers: timings,
	}, http.StatusOK)
}

// GetExport returns the session snapshot as a downloadable document.
func (h *Handler) GetExport(w http.ResponseWriter, r *http.Request) {
	info := h.aggregator.Gather(r.Context())
	snap := h.orchestrator.Snapshot(info)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="netlens-snapshot.json"`)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		logging.Warn("Snapshot encode failed",
			logging.Field{Key: "error", Value: err})
	}
}

func (h *Handler) GetVersion(w http.ResponseWriter, _ *http.Request) {
	version := h.version
	if version == "" {
		version = "dev"
	}
	respondJSON(w, VersionResponse{Version: version}, http.StatusOK)
}

func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

func respondJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Warn("JSON response encode failed",
			logging.Field{Key: "error", Value: err})
	}
}
