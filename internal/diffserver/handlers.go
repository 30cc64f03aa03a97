package diffserver

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/difflyhq/difflycore/internal/diffopts"
	"github.com/difflyhq/difflycore/internal/diffyerr"
	"github.com/difflyhq/difflycore/internal/engine"
	"github.com/difflyhq/difflycore/internal/sink"
)

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createJob(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleJobByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/jobs/")
	if id == "" {
		http.Error(w, "job id missing", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.getJob(w, r, id)
	case http.MethodDelete:
		s.cancelJob(w, r, id)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) createJob(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var req JobRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.APath == "" || req.BPath == "" {
		http.Error(w, "a_path and b_path are required", http.StatusBadRequest)
		return
	}
	if req.HeaderMode == "" {
		req.HeaderMode = string(diffopts.HeaderModeStrict)
	}
	mode, err := diffopts.ParseHeaderMode(req.HeaderMode)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	jobID := newJobID()
	status := &JobStatus{
		JobID:     jobID,
		Status:    "queued",
		StartedAt: time.Now(),
	}
	entry := &jobEntry{status: status, cancelled: newCancelFlag()}

	s.mu.Lock()
	s.jobs[jobID] = entry
	s.mu.Unlock()

	go s.runJob(jobID, entry, req, mode)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(JobResponse{JobID: jobID})
}

func (s *Server) runJob(jobID string, entry *jobEntry, req JobRequest, mode diffopts.HeaderMode) {
	s.mu.Lock()
	entry.status.Status = "running"
	s.mu.Unlock()

	opts := diffopts.Options{
		KeyColumns:    req.KeyColumns,
		HeaderMode:    mode,
		EmitUnchanged: req.EmitUnchanged,
	}
	runCfg := engine.RunConfig{
		EmitProgress:           req.EmitProgress,
		ProgressIntervalEvents: req.ProgressIntervalEvents,
		PartitionCount:         req.PartitionCount,
	}

	collector := sink.NewCollect()
	err := engine.RunFiles(req.APath, req.BPath, opts, runCfg, entry.cancelled, collector)

	s.mu.Lock()
	defer s.mu.Unlock()
	finished := time.Now()
	entry.status.FinishedAt = &finished
	entry.status.Events = collector.Events

	if err == nil {
		entry.status.Status = "finished"
		return
	}

	var engErr *engine.Error
	if ok := asEngineError(err, &engErr); ok && engErr.Kind == engine.ErrorKindCancelled {
		entry.status.Status = "cancelled"
		return
	}

	logrus.Errorf("job %s failed: %v", jobID, err)
	entry.status.Status = "error"
	entry.status.Error = err.Error()
	entry.status.ErrorCode = string(diffyerr.CodeOf(err))
}

func asEngineError(err error, target **engine.Error) bool {
	e, ok := err.(*engine.Error)
	if ok {
		*target = e
	}
	return ok
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request, id string) {
	s.mu.RLock()
	entry, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}

	s.mu.RLock()
	status := *entry.status
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

func (s *Server) cancelJob(w http.ResponseWriter, r *http.Request, id string) {
	s.mu.Lock()
	entry, ok := s.jobs[id]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}

	entry.cancelled.Trip()
	w.WriteHeader(http.StatusAccepted)
}

func newJobID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

