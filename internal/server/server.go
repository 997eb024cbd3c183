// Package server exposes solve jobs over HTTP: a JSON-RPC 2.0 endpoint plus
// REST shims. Jobs run asynchronously and are polled by id.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/copyleftdev/FJORD/internal/benchmark"
	"github.com/copyleftdev/FJORD/internal/config"
	"github.com/copyleftdev/FJORD/internal/solver"
	"github.com/copyleftdev/FJORD/internal/solver/registry"
)

// SolveRequest describes one solve job: the strategy, the named objective and
// the search space. Bounds drive the box-constrained strategies; Start drives
// nelder-mead.
type SolveRequest struct {
	Strategy  string                `json:"strategy"`
	Objective string                `json:"objective"`
	Maximize  bool                  `json:"maximize"`
	Bounds    map[string][2]float64 `json:"bounds,omitempty"`
	Start     map[string]float64    `json:"start,omitempty"`
	NumEvals  int                   `json:"num_evals,omitempty"`
	Seed      int64                 `json:"seed,omitempty"`
}

// job tracks the state of one solve. Guarded by the server mutex.
type job struct {
	ID          string
	Status      string // "pending", "running", "completed", "failed", "cancelled"
	Request     SolveRequest
	StartTime   time.Time
	EndTime     *time.Time
	LastUpdated time.Time
	Best        solver.Assignment
	Value       float64
	Report      *solver.Report
	Err         string
	cancel      context.CancelFunc
}

// Server manages solve jobs.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	mu   sync.RWMutex
	jobs map[string]*job
}

// New creates a server instance.
func New(cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger,
		jobs:   make(map[string]*job),
	}
}

// RegisterRoutes mounts the REST and JSON-RPC endpoints.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/solve", s.handleSolve)
		r.Get("/solve/{id}", s.handleStatus)
		r.Delete("/solve/{id}", s.handleCancel)
		r.Get("/strategies", s.handleStrategies)
	})
	r.Post("/rpc", s.handleJSONRPC)
}

// Close cancels every running job.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		if j.cancel != nil {
			j.cancel()
		}
	}
	return nil
}

func (s *Server) startSolve(req SolveRequest) (string, error) {
	if req.NumEvals < 1 {
		req.NumEvals = s.cfg.Solver.DefaultBudget
	}

	objective, err := benchmark.Lookup(req.Objective)
	if err != nil {
		return "", err
	}
	strat, err := registry.Build(registry.Spec{
		Strategy: req.Strategy,
		Bounds:   req.Bounds,
		Start:    req.Start,
		NumEvals: req.NumEvals,
		Seed:     req.Seed,
	})
	if err != nil {
		return "", err
	}

	id := fmt.Sprintf("solve_%d", time.Now().UnixNano())
	ctx, cancel := context.WithCancel(context.Background())
	j := &job{
		ID:          id,
		Status:      "pending",
		Request:     req,
		StartTime:   time.Now(),
		LastUpdated: time.Now(),
		cancel:      cancel,
	}

	s.mu.Lock()
	s.jobs[id] = j
	s.mu.Unlock()

	solvesStarted.Inc()
	go s.runSolve(ctx, j, strat, objective)
	return id, nil
}

func (s *Server) runSolve(ctx context.Context, j *job, strat solver.Solver, objective solver.Objective) {
	s.mu.Lock()
	j.Status = "running"
	j.LastUpdated = time.Now()
	s.mu.Unlock()

	eval := instrument(solver.Pool(s.cfg.Solver.Workers))
	best, report, err := strat.Optimize(ctx, objective, j.Request.Maximize, eval)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	j.EndTime = &now
	j.LastUpdated = now

	switch {
	case err != nil && ctx.Err() != nil:
		// cancellation surfaced through the evaluator
		j.Status = "cancelled"
	case err != nil:
		s.logger.Error("solve failed", zap.String("id", j.ID), zap.Error(err))
		j.Status = "failed"
		j.Err = err.Error()
	default:
		j.Status = "completed"
		j.Best = best
		j.Report = report
		if value, verr := objective(best); verr == nil {
			j.Value = value
		}
		s.logger.Info("solve completed",
			zap.String("id", j.ID),
			zap.String("strategy", j.Request.Strategy),
			zap.Float64("value", j.Value),
		)
	}
	solvesFinished.WithLabelValues(j.Status).Inc()
}

func (s *Server) jobStatus(id string) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("solve %q not found", id)
	}

	resp := map[string]interface{}{
		"id":          j.ID,
		"status":      j.Status,
		"strategy":    j.Request.Strategy,
		"objective":   j.Request.Objective,
		"start_time":  j.StartTime.Format(time.RFC3339),
		"last_update": j.LastUpdated.Format(time.RFC3339),
	}
	if j.EndTime != nil {
		resp["end_time"] = j.EndTime.Format(time.RFC3339)
	}
	if j.Err != "" {
		resp["error"] = j.Err
	}
	if j.Best != nil {
		resp["best"] = map[string]interface{}{
			"params": j.Best,
			"value":  j.Value,
		}
	}
	if j.Report != nil {
		resp["evaluations_logged"] = len(j.Report.Log)
	}
	return resp, nil
}

func (s *Server) cancelJob(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("solve %q not found", id)
	}
	switch j.Status {
	case "completed", "failed", "cancelled":
		return fmt.Errorf("cannot cancel solve with status %q", j.Status)
	}
	if j.cancel != nil {
		j.cancel()
	}
	j.Status = "cancelled"
	now := time.Now()
	j.EndTime = &now
	j.LastUpdated = now

	s.logger.Info("solve cancelled", zap.String("id", id))
	return nil
}

// jsonRPCRequest is a JSON-RPC 2.0 request with object params.
type jsonRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var req jsonRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeRPCError(w, -32700, "Parse error", nil)
		return
	}
	if req.JSONRPC != "2.0" {
		s.writeRPCError(w, -32600, "Invalid Request", req.ID)
		return
	}

	var (
		result interface{}
		err    error
	)
	switch req.Method {
	case "solve.start":
		var sr SolveRequest
		if err = json.Unmarshal(req.Params, &sr); err == nil {
			var id string
			if id, err = s.startSolve(sr); err == nil {
				result = map[string]interface{}{"solve_id": id, "status": "pending"}
			}
		}
	case "solve.status":
		var p struct {
			SolveID string `json:"solve_id"`
		}
		if err = json.Unmarshal(req.Params, &p); err == nil {
			result, err = s.jobStatus(p.SolveID)
		}
	case "solve.cancel":
		var p struct {
			SolveID string `json:"solve_id"`
		}
		if err = json.Unmarshal(req.Params, &p); err == nil {
			if err = s.cancelJob(p.SolveID); err == nil {
				result = map[string]interface{}{"status": "cancellation requested"}
			}
		}
	default:
		s.writeRPCError(w, -32601, "Method not found", req.ID)
		return
	}

	if err != nil {
		s.writeRPCError(w, -32000, err.Error(), req.ID)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      req.ID,
		"result":  result,
	})
}

func (s *Server) writeRPCError(w http.ResponseWriter, code int, message string, id interface{}) {
	s.logger.Warn("rpc error", zap.Int("code", code), zap.String("message", message))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"error":   map[string]interface{}{"code": code, "message": message},
	})
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	id, err := s.startSolve(req)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"solve_id": id, "status": "pending"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	resp, err := s.jobStatus(id)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.cancelJob(id); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "cancellation requested"})
}

func (s *Server) handleStrategies(w http.ResponseWriter, r *http.Request) {
	type strategyInfo struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	var out []strategyInfo
	for _, name := range registry.Names() {
		desc, _ := registry.Describe(name)
		out = append(out, strategyInfo{Name: name, Description: desc})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"strategies": out,
		"objectives": benchmark.Names(),
	})
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
