// Package controlplane implements the HTTP query/stop surface: a
// check_subscriber lookup against the session table and a stop endpoint
// that flips the shared shutdown flag.
package controlplane

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/Atomic7996/Mini-PGW/session"
)

var requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "pgw_http_requests_total",
	Help: "Total HTTP requests by path and status.",
}, []string{"path", "status"})

func init() {
	prometheus.MustRegister(requestsTotal)
}

// Stopper is the minimal view of the coordinator needed by the /stop
// handler to initiate shutdown.
type Stopper interface {
	InitiateShutdown()
}

// Server owns the HTTP listener for the control surface.
type Server struct {
	port   int
	table  *session.Table
	stop   Stopper
	log    *logrus.Logger
	http   *http.Server
}

// New builds the control-plane HTTP server with the /check_subscriber,
// /stop, and /metrics routes wired in.
func New(port int, table *session.Table, stop Stopper, log *logrus.Logger) *Server {
	mux := http.NewServeMux()
	s := &Server{port: port, table: table, stop: stop, log: log}

	mux.HandleFunc("/check_subscriber", s.withRequestID(s.handleCheckSubscriber))
	mux.HandleFunc("/stop", s.withRequestID(s.handleStop))
	mux.Handle("/metrics", promhttp.Handler())

	s.http = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	return s
}

// withRequestID stamps every response with an X-Request-Id header and logs
// the request path with that id, mirroring the correlation-id convention
// used elsewhere in the stack.
func (s *Server) withRequestID(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()
		w.Header().Set("X-Request-Id", id)
		s.log.WithFields(logrus.Fields{"component": "controlplane", "request_id": id}).Debugf("http request %s", r.URL.Path)
		next(w, r)
	}
}

func (s *Server) handleCheckSubscriber(w http.ResponseWriter, r *http.Request) {
	imsi := r.URL.Query().Get("imsi")
	s.log.WithFields(logrus.Fields{"component": "controlplane", "imsi": imsi}).Debug("http /check_subscriber")
	if imsi == "" {
		requestsTotal.WithLabelValues("/check_subscriber", "400").Inc()
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, "imsi is required")
		return
	}

	body := "not active"
	if s.table.Contains(imsi) {
		body = "active"
	}
	requestsTotal.WithLabelValues("/check_subscriber", "200").Inc()
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, body)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.log.WithField("component", "controlplane").Info("http /stop called")
	s.stop.InitiateShutdown()
	requestsTotal.WithLabelValues("/stop", "200").Inc()
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "Shutdown initiated")
}

// Run starts accepting connections. It blocks until the listener is closed
// via Shutdown, returning nil in that case. A bind failure is returned to
// the caller, who must log it and keep the rest of the server running per
// the HttpBindFail disposition.
func (s *Server) Run() error {
	s.log.WithField("component", "controlplane").Infof("http listening on :%d", s.port)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("controlplane: listen: %w", err)
	}
	return nil
}

// Shutdown stops accepting new connections.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
