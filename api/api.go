// Package api exposes the cached device state and the command
// dispatcher over HTTP.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/juju/loggo"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"powerhouse-bridge/dispatch"
	"powerhouse-bridge/params"
	"powerhouse-bridge/state"
)

var log = loggo.GetLogger("phb.api")

// Controller is the command surface the handlers dispatch to.
type Controller interface {
	SetACOutput(on bool) error
	SetTwelveVoltOutput(on bool) error
	SetPowerSave(on bool) error
	SetScreenBrightness(level int) error
	SetLed(level int) error
	SetRechargePower(watts int) error
	SetScreenTimeout(seconds int) error
	SetACTimer(seconds int) error
	SetTwelveVoltTimer(seconds int) error
}

type apiError struct {
	Error string `json:"error"`
}

type apiSuccess struct {
	Success bool `json:"success"`
}

type statusResponse struct {
	Connected bool                   `json:"connected"`
	State     params.ConnectionState `json:"state"`
	LastError string                 `json:"last_error,omitempty"`
	Attempts  uint64                 `json:"reconnect_attempts"`
}

type boolRequest struct {
	IsOn bool `json:"is_on"`
}

type levelRequest struct {
	Level int `json:"level"`
}

type wattsRequest struct {
	Watts int `json:"watts"`
}

type secondsRequest struct {
	Seconds int `json:"seconds"`
}

// NewRouter builds the full HTTP mux: status and telemetry reads,
// command posts, Prometheus metrics, health and API docs, with an
// optional static file tree at the root.
func NewRouter(store *state.Store, controller Controller, gatherer prometheus.Gatherer, staticDir string) *http.ServeMux {
	h := &handlers{
		store:      store,
		controller: controller,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", h.getStatus)
	mux.HandleFunc("GET /api/telemetry", h.getTelemetry)
	mux.HandleFunc("GET /api/device-state", h.getDeviceState)

	mux.HandleFunc("POST /api/ac-output", h.boolCommand(func(on bool) error {
		return controller.SetACOutput(on)
	}))
	mux.HandleFunc("POST /api/twelve-volt-output", h.boolCommand(func(on bool) error {
		return controller.SetTwelveVoltOutput(on)
	}))
	mux.HandleFunc("POST /api/power-save", h.boolCommand(func(on bool) error {
		return controller.SetPowerSave(on)
	}))
	mux.HandleFunc("POST /api/screen-brightness", h.levelCommand(func(level int) error {
		return controller.SetScreenBrightness(level)
	}))
	mux.HandleFunc("POST /api/led", h.levelCommand(func(level int) error {
		return controller.SetLed(level)
	}))
	mux.HandleFunc("POST /api/recharge-power", h.wattsCommand(func(watts int) error {
		return controller.SetRechargePower(watts)
	}))
	mux.HandleFunc("POST /api/screen-timeout", h.secondsCommand(func(seconds int) error {
		return controller.SetScreenTimeout(seconds)
	}))
	mux.HandleFunc("POST /api/ac-timer", h.secondsCommand(func(seconds int) error {
		return controller.SetACTimer(seconds)
	}))
	mux.HandleFunc("POST /api/twelve-volt-timer", h.secondsCommand(func(seconds int) error {
		return controller.SetTwelveVoltTimer(seconds)
	}))

	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /health", h.getHealth)
	mux.HandleFunc("GET /api-docs", h.getAPIDocs)

	if staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}
	return mux
}

type handlers struct {
	store      *state.Store
	controller Controller
}

func (h *handlers) getStatus(w http.ResponseWriter, r *http.Request) {
	status := h.store.Status()
	writeJSON(w, http.StatusOK, statusResponse{
		Connected: status.State == params.StateConnected,
		State:     status.State,
		LastError: status.LastError,
		Attempts:  status.Attempts,
	})
}

func (h *handlers) getTelemetry(w http.ResponseWriter, r *http.Request) {
	telemetry, ok := h.store.Telemetry()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, apiError{Error: "No telemetry available"})
		return
	}
	writeJSON(w, http.StatusOK, telemetry)
}

func (h *handlers) getDeviceState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.SetState())
}

func (h *handlers) getHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) getAPIDocs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(openAPIDocument)); err != nil {
		log.Debugf("writing api docs: %s", err)
	}
}

func (h *handlers) boolCommand(send func(bool) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req boolRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		writeCommandResult(w, send(req.IsOn))
	}
}

func (h *handlers) levelCommand(send func(int) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req levelRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		writeCommandResult(w, send(req.Level))
	}
}

func (h *handlers) wattsCommand(send func(int) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req wattsRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		writeCommandResult(w, send(req.Watts))
	}
}

func (h *handlers) secondsCommand(send func(int) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req secondsRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		writeCommandResult(w, send(req.Seconds))
	}
}

func decodeRequest(w http.ResponseWriter, r *http.Request, into interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(into); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: errors.Wrap(err, "invalid request body").Error()})
		return false
	}
	return true
}

func writeCommandResult(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, apiSuccess{Success: true})
	case errors.Is(err, dispatch.ErrOutOfDomain):
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
	default:
		// Not connected and transmit failures both mean the device
		// cannot take the command right now.
		writeJSON(w, http.StatusServiceUnavailable, apiError{Error: err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("encoding response: %s", err)
	}
}
