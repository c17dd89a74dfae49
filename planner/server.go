package planner

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/atomic"
	"goji.io"
	"goji.io/pat"

	"go.viam.com/pathsmoother/logging"
	"go.viam.com/pathsmoother/smoothing"
)

// maxStoredPlans bounds how many recent plans can be fetched by id.
const maxStoredPlans = 32

type activePlanner struct {
	planner    Planner
	samplingDt float64
}

// Server exposes a Planner over HTTP:
//
//	POST /plan          PlanRequest -> PlanResponse
//	POST /publish_path  republishes the path of the most recent plan
//	GET  /plans/:id     returns a recent plan
//	GET  /healthz
type Server struct {
	root      *goji.Mux
	routes    *goji.Mux
	active    *atomic.Pointer[activePlanner]
	publisher Publisher
	logger    logging.Logger

	mu    sync.Mutex
	plans map[uuid.UUID]*PlanResponse
	order []uuid.UUID
}

// NewServer returns a server that plans with p, sampling paths every samplingDt seconds. publisher
// may be nil, in which case publish requests fail.
func NewServer(p Planner, samplingDt float64, publisher Publisher, logger logging.Logger) *Server {
	s := &Server{
		root:      goji.NewMux(),
		routes:    goji.SubMux(),
		active:    atomic.NewPointer(&activePlanner{planner: p, samplingDt: samplingDt}),
		publisher: publisher,
		logger:    logger,
		plans:     map[uuid.UUID]*PlanResponse{},
	}
	s.routes.HandleFunc(pat.Post("/plan"), s.handlePlan)
	s.routes.HandleFunc(pat.Post("/publish_path"), s.handlePublishPath)
	s.routes.HandleFunc(pat.Get("/plans/:id"), s.handleGetPlan)
	s.routes.HandleFunc(pat.Get("/healthz"), func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.logger)
	})
	s.Mount(s.root, "")
	return s
}

// Mount serves the planner routes under prefix, e.g. "/ns/loco" for POST /ns/loco/plan.
func (s *Server) Mount(mux *goji.Mux, prefix string) {
	mux.Handle(pat.New(strings.TrimSuffix(prefix, "/")+"/*"), s.routes)
}

// SetPlanner replaces the planner used by subsequent requests. Requests in flight finish with the
// planner they started with.
func (s *Server) SetPlanner(p Planner, samplingDt float64) {
	s.active.Store(&activePlanner{planner: p, samplingDt: samplingDt})
	s.logger.Infow("planner updated", "sampling_dt", samplingDt)
}

// ServeHTTP implements http.Handler, serving the routes at the root.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.root.ServeHTTP(w, r)
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err, s.logger)
		return
	}
	active := s.active.Load()

	resp := &PlanResponse{ID: uuid.New(), Converged: true}
	traj, err := active.planner.Plan(r.Context(), req.Start, req.Goal)
	var notConverged *smoothing.NotConvergedError
	if errors.As(err, &notConverged) && notConverged.Best != nil {
		s.logger.Warnw("returning unconverged plan", "id", resp.ID, "error", err)
		traj, err = notConverged.Best, nil
		resp.Converged = false
	}
	if err != nil {
		s.logger.Warnw("planning failed", "start", req.Start.Position, "goal", req.Goal.Position, "error", err)
		writeError(w, statusFor(err), err, s.logger)
		return
	}
	out, err := smoothing.Materialize(traj, true, active.samplingDt)
	if err != nil {
		s.logger.Warnw("cannot sample plan", "id", resp.ID, "error", err)
		writeError(w, statusFor(err), err, s.logger)
		return
	}
	resp.Trajectory, resp.Path = out.Trajectory, out.States
	s.store(resp)
	s.logger.Debugw("planned", "id", resp.ID, "duration", traj.Duration(), "samples", len(resp.Path))
	writeJSON(w, http.StatusOK, resp, s.logger)
}

func (s *Server) handlePublishPath(w http.ResponseWriter, r *http.Request) {
	if s.publisher == nil {
		writeError(w, http.StatusNotImplemented, errors.New("no path publisher configured"), s.logger)
		return
	}
	latest := s.latest()
	if latest == nil {
		writeError(w, http.StatusNotFound, errors.New("nothing has been planned yet"), s.logger)
		return
	}
	if err := s.publisher.PublishPath(r.Context(), latest.ID, latest.Path); err != nil {
		s.logger.Warnw("publishing path failed", "id", latest.ID, "error", err)
		writeError(w, http.StatusBadGateway, err, s.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uuid.UUID{"id": latest.ID}, s.logger)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(pat.Param(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err, s.logger)
		return
	}
	s.mu.Lock()
	resp, ok := s.plans[id]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("unknown plan "+id.String()), s.logger)
		return
	}
	writeJSON(w, http.StatusOK, resp, s.logger)
}

func (s *Server) store(resp *PlanResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[resp.ID] = resp
	s.order = append(s.order, resp.ID)
	if len(s.order) > maxStoredPlans {
		delete(s.plans, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *Server) latest() *PlanResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.order) == 0 {
		return nil
	}
	return s.plans[s.order[len(s.order)-1]]
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, smoothing.ErrDegenerateInput), errors.Is(err, smoothing.ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, smoothing.ErrNoPathFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error, logger logging.Logger) {
	writeJSON(w, status, errorResponse{Error: err.Error()}, logger)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}, logger logging.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Debugw("failed to write response", "error", err)
	}
}
