// Package api exposes the device registry over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/finchlabs/labflow"
	"github.com/finchlabs/labflow/valve"
)

// Server serves the uniform valve API for every registered device.
type Server struct {
	manager *labflow.Manager
	metrics *Metrics
	log     *slog.Logger
}

// NewHandler builds the HTTP handler for a device registry.
func NewHandler(manager *labflow.Manager, metrics *Metrics, log *slog.Logger) http.Handler {
	s := &Server{manager: manager, metrics: metrics, log: log}

	r := chi.NewRouter()
	r.Get("/healthz", s.health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Route("/devices", func(r chi.Router) {
		r.Get("/", s.listDevices)
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/position", s.getPosition)
			r.Put("/position", s.setPosition)
			r.Get("/positions", s.listPositions)
		})
	})
	return r
}

type positionResponse struct {
	Key    int       `json:"key"`
	Groups [][]uint8 `json:"groups"`
}

type setPositionRequest struct {
	// Key switches directly to a position; when set, the requirement
	// fields are ignored.
	Key     *int       `json:"key,omitempty"`
	Connect [][2]uint8 `json:"connect,omitempty"`
	Avoid   [][2]uint8 `json:"avoid,omitempty"`
	// AllowAmbiguous defaults to true when omitted: several matching
	// positions resolve to the lowest key instead of failing.
	AllowAmbiguous bool `json:"allow_ambiguous"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listDevices(w http.ResponseWriter, r *http.Request) {
	devs := s.manager.List()
	infos := make([]labflow.Info, len(devs))
	for i, d := range devs {
		infos[i] = d.Info()
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) getPosition(w http.ResponseWriter, r *http.Request) {
	dev, err := s.manager.Get(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	ctrl := dev.Controller()
	start := time.Now()
	state, err := ctrl.Position(r.Context())
	s.metrics.ObserveRead(dev.Info().Name, start)
	if err != nil {
		s.countComm(dev.Info().Name, err)
		s.log.Error("position read failed", "device", dev.Info().Name, "error", err)
		s.writeError(w, err)
		return
	}

	key, _ := ctrl.Current()
	writeJSON(w, http.StatusOK, positionResponse{
		Key:    int(key),
		Groups: groupsJSON(state),
	})
}

func (s *Server) setPosition(w http.ResponseWriter, r *http.Request) {
	dev, err := s.manager.Get(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	// An omitted allow_ambiguous accepts the lowest matching key.
	req := setPositionRequest{AllowAmbiguous: true}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	ctrl := dev.Controller()
	name := dev.Info().Name

	key := valve.PositionUnknown
	if req.Key != nil {
		key = valve.Position(*req.Key)
	} else {
		key, err = ctrl.Graph().Resolve(pairs(req.Connect), pairs(req.Avoid), req.AllowAmbiguous)
		if err != nil {
			s.writeError(w, err)
			return
		}
	}

	start := time.Now()
	err = ctrl.SwitchTo(r.Context(), key)
	s.metrics.ObserveSwitch(name, start, err)
	if err != nil {
		s.countComm(name, err)
		s.log.Error("switch failed", "device", name, "key", key, "error", err)
		s.writeError(w, err)
		return
	}

	state, err := ctrl.Graph().State(key)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Info("switched", "device", name, "key", key)
	writeJSON(w, http.StatusOK, positionResponse{Key: int(key), Groups: groupsJSON(state)})
}

func (s *Server) listPositions(w http.ResponseWriter, r *http.Request) {
	dev, err := s.manager.Get(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	states := dev.Controller().Graph().States()
	out := make([]positionResponse, len(states))
	for i, st := range states {
		out[i] = positionResponse{Key: i, Groups: groupsJSON(st)}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) countComm(device string, err error) {
	if errors.Is(err, valve.ErrCommunication) {
		s.metrics.CommFailure(device)
	}
}

// writeError maps the domain errors onto HTTP statuses. Unsatisfiable and
// out-of-range requests are the client's fault; a dead serial line is the
// gateway's.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, labflow.ErrUnknownDevice):
		status = http.StatusNotFound
	case errors.Is(err, valve.ErrConnectionImpossible),
		errors.Is(err, valve.ErrPositionOutOfRange):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, valve.ErrAmbiguousConnection):
		status = http.StatusConflict
	case errors.Is(err, valve.ErrCommunication):
		status = http.StatusBadGateway
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func pairs(raw [][2]uint8) []valve.Pair {
	out := make([]valve.Pair, len(raw))
	for i, p := range raw {
		out[i] = valve.Pair{A: valve.P(p[0]), B: valve.P(p[1])}
	}
	return out
}

func groupsJSON(cs valve.ConnectionSet) [][]uint8 {
	out := make([][]uint8, len(cs))
	for i, g := range cs {
		nums := make([]uint8, len(g))
		for j, p := range g {
			nums[j] = p.Num()
		}
		out[i] = nums
	}
	return out
}
