package restserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/chrissnell/weatherlink-ns/pkg/responseformat"
	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
)

// Default and maximum span of the history endpoint, in hours
const (
	defaultHistoryHours = 24
	maxHistoryHours     = 24 * 31
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// GetHealth reports whether the node server is configured and polling
func (h *Handlers) GetHealth(w http.ResponseWriter, req *http.Request) {
	ns := h.controller.nodes
	resp := HealthResponse{
		Status:     "ok",
		Configured: ns.Configured(),
		Uptime:     humanize.RelTime(h.controller.started, time.Now(), "", ""),
	}

	last, err := ns.LastPoll()
	if !last.IsZero() {
		resp.LastPoll = &last
	}
	if err != nil {
		resp.Status = "degraded"
		resp.LastError = err.Error()
	}

	if h.controller.storage != nil {
		resp.Storage = h.controller.storage.Health(req.Context())
		for _, s := range resp.Storage {
			if s != "healthy" {
				resp.Status = "degraded"
			}
		}
	}

	h.formatter.WriteResponse(w, req, http.StatusOK, resp)
}

// GetNodes returns every node with its drivers
func (h *Handlers) GetNodes(w http.ResponseWriter, req *http.Request) {
	all := h.controller.nodes.Nodes()
	resp := make([]NodeResponse, 0, len(all))
	for _, n := range all {
		resp = append(resp, transformNode(n))
	}
	h.formatter.WriteResponse(w, req, http.StatusOK, resp)
}

// GetNode returns a single node
func (h *Handlers) GetNode(w http.ResponseWriter, req *http.Request) {
	address := mux.Vars(req)["address"]
	n, ok := h.controller.nodes.NodeByAddress(address)
	if !ok {
		h.formatter.WriteError(w, req, http.StatusNotFound, "node not found: "+address)
		return
	}
	h.formatter.WriteResponse(w, req, http.StatusOK, transformNode(n))
}

// GetDriver returns one driver of a node
func (h *Handlers) GetDriver(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	n, ok := h.controller.nodes.NodeByAddress(vars["address"])
	if !ok {
		h.formatter.WriteError(w, req, http.StatusNotFound, "node not found: "+vars["address"])
		return
	}

	d, ok := n.Driver(vars["driver"])
	if !ok {
		h.formatter.WriteError(w, req, http.StatusNotFound, "driver not found: "+vars["driver"])
		return
	}
	h.formatter.WriteResponse(w, req, http.StatusOK, transformDriver(d))
}

// GetDriverHistory returns stored values of one driver.  The span is set with
// ?hours= and defaults to one day.
func (h *Handlers) GetDriverHistory(w http.ResponseWriter, req *http.Request) {
	if h.controller.history == nil {
		h.formatter.WriteError(w, req, http.StatusServiceUnavailable, "no storage backend configured")
		return
	}

	vars := mux.Vars(req)
	n, ok := h.controller.nodes.NodeByAddress(vars["address"])
	if !ok {
		h.formatter.WriteError(w, req, http.StatusNotFound, "node not found: "+vars["address"])
		return
	}
	if _, ok := n.Driver(vars["driver"]); !ok {
		h.formatter.WriteError(w, req, http.StatusNotFound, "driver not found: "+vars["driver"])
		return
	}

	hours := defaultHistoryHours
	if v := req.URL.Query().Get("hours"); v != "" {
		var err error
		hours, err = strconv.Atoi(v)
		if err != nil || hours < 1 || hours > maxHistoryHours {
			h.formatter.WriteError(w, req, http.StatusBadRequest, "invalid hours")
			return
		}
	}

	since := time.Now().Add(-time.Duration(hours) * time.Hour).UTC()
	readings, err := h.controller.history.History(req.Context(), vars["address"], vars["driver"], since)
	if err != nil {
		h.controller.logger.Errorf("history query failed: %v", err)
		h.formatter.WriteError(w, req, http.StatusInternalServerError, "history query failed")
		return
	}

	h.formatter.WriteResponse(w, req, http.StatusOK, HistoryResponse{
		Address:  vars["address"],
		Driver:   vars["driver"],
		Since:    since,
		Readings: readings,
	})
}

// PostQuery re-reports every driver to the host
func (h *Handlers) PostQuery(w http.ResponseWriter, req *http.Request) {
	if err := h.controller.nodes.Query(req.Context()); err != nil {
		h.controller.logger.Errorf("query failed: %v", err)
		h.formatter.WriteError(w, req, http.StatusBadGateway, err.Error())
		return
	}
	h.formatter.WriteResponse(w, req, http.StatusAccepted, QueryResponse{Status: "queried"})
}

// NotFound answers unknown routes in the API's error format
func (h *Handlers) NotFound(w http.ResponseWriter, req *http.Request) {
	h.formatter.WriteError(w, req, http.StatusNotFound, "not found")
}
