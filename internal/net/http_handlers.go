package net

import (
	"encoding/json"
	"io"
	"log"
	nethttp "net/http"
	"net/http/pprof"
	"time"

	server "gridwalk/server"
	"gridwalk/server/internal/grid"
	"gridwalk/server/internal/net/ws"
	"gridwalk/server/internal/observability"
)

type HTTPHandlerConfig struct {
	Logger        *log.Logger
	Observability observability.Config
}

// NewHTTPHandler assembles the playground's HTTP surface: join, websocket
// upgrade, one-shot route queries, scenario management, and diagnostics.
func NewHTTPHandler(hub *server.Hub, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/join", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, logger, hub.Join())
	})

	mux.HandleFunc("/route", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}

		type routeRequest struct {
			ClientID string  `json:"clientId"`
			StartX   int     `json:"startX"`
			StartZ   int     `json:"startZ"`
			GoalX    int     `json:"goalX"`
			GoalZ    int     `json:"goalZ"`
			Speed    float64 `json:"speed"`
		}
		var req routeRequest
		if r.Body != nil {
			defer r.Body.Close()
			decoder := json.NewDecoder(r.Body)
			if err := decoder.Decode(&req); err != nil && err != io.EOF {
				httpError(w, "invalid payload", nethttp.StatusBadRequest)
				return
			}
		}

		result, ok := hub.CommandRoute(req.ClientID,
			grid.Position{X: req.StartX, Z: req.StartZ},
			grid.Position{X: req.GoalX, Z: req.GoalZ},
			req.Speed)
		if !ok {
			httpError(w, "no route", nethttp.StatusUnprocessableEntity)
			return
		}
		writeJSON(w, logger, result)
	})

	mux.HandleFunc("/scenarios", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := struct {
			Scenarios []string `json:"scenarios"`
		}{Scenarios: hub.ScenarioIDs()}
		writeJSON(w, logger, payload)
	})

	mux.HandleFunc("/world/reset", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}

		type resetRequest struct {
			Scenario string `json:"scenario"`
		}
		var req resetRequest
		if r.Body != nil {
			defer r.Body.Close()
			decoder := json.NewDecoder(r.Body)
			if err := decoder.Decode(&req); err != nil && err != io.EOF {
				httpError(w, "invalid payload", nethttp.StatusBadRequest)
				return
			}
		}
		if req.Scenario == "" {
			httpError(w, "missing scenario", nethttp.StatusBadRequest)
			return
		}

		if err := hub.ResetScenario(req.Scenario); err != nil {
			logger.Printf("scenario reset failed: %v", err)
			httpError(w, err.Error(), nethttp.StatusBadRequest)
			return
		}
		writeJSON(w, logger, hub.GridSnapshot())
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := struct {
			Status     string            `json:"status"`
			ServerTime int64             `json:"serverTime"`
			Tick       uint64            `json:"tick"`
			Clients    any               `json:"clients"`
			TickRate   int               `json:"tickRate"`
			Heartbeat  int64             `json:"heartbeatMillis"`
			Telemetry  map[string]uint64 `json:"telemetry"`
		}{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			Tick:       hub.Tick(),
			Clients:    hub.DiagnosticsSnapshot(),
			TickRate:   server.TickRate(),
			Heartbeat:  server.HeartbeatInterval().Milliseconds(),
			Telemetry:  hub.TelemetrySnapshot(),
		}
		writeJSON(w, logger, payload)
	})

	wsHandler := ws.NewHandler(hub, ws.HandlerConfig{Logger: logger})
	mux.HandleFunc("/ws", wsHandler.Handle)

	if cfg.Observability.EnablePprofTrace {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	return mux
}

func writeJSON(w nethttp.ResponseWriter, logger *log.Logger, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Printf("failed to encode response: %v", err)
		httpError(w, "failed to encode", nethttp.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func httpError(w nethttp.ResponseWriter, message string, code int) {
	nethttp.Error(w, message, code)
}
