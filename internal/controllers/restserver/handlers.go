package restserver

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/chrissnell/precipmeter/internal/meter"
	"github.com/chrissnell/precipmeter/internal/storage"
	"github.com/chrissnell/precipmeter/pkg/responseformat"
	"github.com/gorilla/mux"
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

// StationSummary is one entry of the station list
type StationSummary struct {
	Name      string `json:"name"`
	RunID     string `json:"runId"`
	Connected bool   `json:"connected"`
}

// WindRequest is the body of PUT /stations/{station}/wind, in m/s
type WindRequest struct {
	Sustained *float64 `json:"sustained"`
	Gust      *float64 `json:"gust"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status   string                     `json:"status"`
	Stations map[string]bool            `json:"stations"`
	Storage  map[string]*storage.Health `json:"storage,omitempty"`
}

// GetStations lists the configured stations
func (h *Handlers) GetStations(w http.ResponseWriter, req *http.Request) {
	meters := h.controller.meters.Meters()
	out := make([]StationSummary, 0, len(meters))
	for _, m := range meters {
		out = append(out, StationSummary{Name: m.Name(), RunID: m.RunID(), Connected: m.Connected()})
	}
	h.write(w, req, out)
}

// GetCurrent returns the latest classification of a station
func (h *Handlers) GetCurrent(w http.ResponseWriter, req *http.Request) {
	m := h.lookup(w, req)
	if m == nil {
		return
	}
	h.write(w, req, m.Current())
}

// GetEpisodes returns the episode window of a station
func (h *Handlers) GetEpisodes(w http.ResponseWriter, req *http.Request) {
	m := h.lookup(w, req)
	if m == nil {
		return
	}
	h.write(w, req, m.History())
}

// GetReport returns the record of the last closed report interval
func (h *Handlers) GetReport(w http.ResponseWriter, req *http.Request) {
	m := h.lookup(w, req)
	if m == nil {
		return
	}
	rec, ok := m.LastReport()
	if !ok {
		h.error(w, req, http.StatusNotFound, fmt.Sprintf("no report interval of %s has closed yet", m.Name()))
		return
	}
	h.write(w, req, rec)
}

// PutWind records a wind observation used by the squall test
func (h *Handlers) PutWind(w http.ResponseWriter, req *http.Request) {
	m := h.lookup(w, req)
	if m == nil {
		return
	}

	var wr WindRequest
	if err := json.NewDecoder(req.Body).Decode(&wr); err != nil {
		h.error(w, req, http.StatusBadRequest, fmt.Sprintf("invalid wind observation: %v", err))
		return
	}
	if wr.Sustained == nil || wr.Gust == nil || *wr.Sustained < 0 || *wr.Gust < 0 {
		h.error(w, req, http.StatusBadRequest, "sustained and gust must be given and not negative")
		return
	}

	m.SetWind(*wr.Sustained, *wr.Gust)
	h.write(w, req, m.Wind())
}

// GetHealth reports station connectivity and storage engine health
func (h *Handlers) GetHealth(w http.ResponseWriter, req *http.Request) {
	resp := HealthResponse{Status: storage.StatusHealthy, Stations: make(map[string]bool)}
	for _, m := range h.controller.meters.Meters() {
		resp.Stations[m.Name()] = m.Connected()
	}
	if h.controller.health != nil {
		resp.Storage = h.controller.health(req.Context())
		for _, s := range resp.Storage {
			if !s.Healthy() {
				resp.Status = storage.StatusUnhealthy
			}
		}
	}
	h.write(w, req, resp)
}

func (h *Handlers) lookup(w http.ResponseWriter, req *http.Request) *meter.Meter {
	name := mux.Vars(req)["station"]
	m := h.controller.meters.GetMeter(name)
	if m == nil {
		h.error(w, req, http.StatusNotFound, fmt.Sprintf("station not found: %s", name))
	}
	return m
}

func (h *Handlers) write(w http.ResponseWriter, req *http.Request, data any) {
	if err := h.formatter.WriteResponse(w, req, data, map[string]string{"Cache-Control": "no-cache"}); err != nil {
		h.controller.logger.Errorf("error writing response to %s: %v", req.URL.Path, err)
	}
}

func (h *Handlers) error(w http.ResponseWriter, req *http.Request, status int, msg string) {
	if err := h.formatter.WriteError(w, req, status, msg); err != nil {
		h.controller.logger.Errorf("error writing response to %s: %v", req.URL.Path, err)
	}
}
