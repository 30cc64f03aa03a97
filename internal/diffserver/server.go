// Package diffserver is a thin HTTP front-end over the diff engine,
// adapted from the teacher's job-queue API (internal/api in the source
// tree): POST /jobs launches an asynchronous diff, GET /jobs/{id} polls its
// status, DELETE /jobs/{id} cancels it via the engine's CancelCheck
// interface rather than context cancellation directly, since the engine's
// cooperative cancellation is polled between event emissions (spec.md §5).
package diffserver

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Server encapsulates the HTTP server, router, and job registry.
type Server struct {
	mux  *http.ServeMux
	mu   sync.RWMutex
	jobs map[string]*jobEntry
}

type jobEntry struct {
	status    *JobStatus
	cancelled *cancelFlag
}

// NewServer builds a server with its routes and an empty job registry. The
// logging and panic-recovery middleware are applied by Run.
func NewServer() *Server {
	mux := http.NewServeMux()
	s := &Server{
		mux:  mux,
		jobs: make(map[string]*jobEntry),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/jobs", s.handleJobs)
	s.mux.HandleFunc("/jobs/", s.handleJobByID)
}

// Run starts the HTTP server on the provided port.
func (s *Server) Run(port string) error {
	addr := fmt.Sprintf(":%s", port)
	handler := s.recoveryMiddleware(s.loggingMiddleware(s.mux))
	logrus.WithField("addr", addr).Info("diffserverd running")
	return http.ListenAndServe(addr, handler)
}

// statusRecorder captures the status code a handler wrote, so the logging
// middleware can report it alongside method/path/duration the way the run
// driver reports its final stats (internal/engine/driver.go).
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logrus.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("handled request")
	})
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logrus.WithFields(logrus.Fields{
					"method": r.Method,
					"path":   r.URL.Path,
					"panic":  rec,
				}).Error("panic recovered")
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
