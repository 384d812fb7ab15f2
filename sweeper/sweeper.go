// Package sweeper implements the two-phase expiry and graceful-drain loop:
// steady-state timeout eviction while running, paced eviction of every
// remaining session during shutdown.
package sweeper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/Atomic7996/Mini-PGW/cdr"
	"github.com/Atomic7996/Mini-PGW/logging"
	"github.com/Atomic7996/Mini-PGW/session"
)

const tickInterval = time.Second

var drainRemaining = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "pgw_drain_remaining_sessions",
	Help: "Number of sessions still outstanding during graceful drain.",
})

func init() {
	prometheus.MustRegister(drainRemaining)
}

// ShutdownFlag is the minimal view of the coordinator's shared shutdown
// state that the sweeper needs to poll.
type ShutdownFlag interface {
	ShuttingDown() bool
}

// DrainSignal is notified exactly once, when every session has been
// evicted during the graceful drain phase.
type DrainSignal interface {
	SignalDrainComplete()
}

// Sweeper owns the timeout/drain loop over a session table.
type Sweeper struct {
	table       *session.Table
	writer      *cdr.Writer
	log         *logrus.Logger
	flag        ShutdownFlag
	signal      DrainSignal
	timeout     time.Duration
	drainRate   int
}

// New constructs a Sweeper. timeout is the per-session lifetime, measured
// from the session's creation time;
// drainRate is the maximum number of evictions performed per second during
// the graceful drain phase.
func New(table *session.Table, writer *cdr.Writer, log *logrus.Logger, flag ShutdownFlag, signal DrainSignal, timeout time.Duration, drainRate int) *Sweeper {
	return &Sweeper{
		table:     table,
		writer:    writer,
		log:       log,
		flag:      flag,
		signal:    signal,
		timeout:   timeout,
		drainRate: drainRate,
	}
}

// Run executes phase A until the shutdown flag is observed, then phase B
// until the table is empty, then signals drain completion exactly once. It
// always returns nil; the signature matches the coordinator's Worker
// interface.
func (s *Sweeper) Run() error {
	s.field().Debug("sweeper starting")
	s.runSteadyState()
	s.runDrain()
	return nil
}

// field returns a logrus.Entry tagged with this component's name, for log
// sites that have no identity to attach.
func (s *Sweeper) field() *logrus.Entry {
	return s.log.WithField("component", "sweeper")
}

func (s *Sweeper) runSteadyState() {
	for {
		if s.flag.ShuttingDown() {
			return
		}
		time.Sleep(tickInterval)

		expired := s.table.SnapshotExpired(time.Now(), s.timeout)
		for _, imsi := range expired {
			fields := logrus.Fields{"component": "sweeper", "imsi": logging.MaskIMSI(imsi), "event": cdr.EventDeleted}
			if err := s.writer.Append(imsi, cdr.EventDeleted); err != nil {
				s.log.WithFields(fields).Errorf("cdr write failed: %v", err)
			}
			s.table.Remove(imsi)
			s.log.WithFields(fields).Info("session deleted")
		}
	}
}

func (s *Sweeper) runDrain() {
	s.field().Infof("graceful shutdown with %d deleted sessions per sec", s.drainRate)
	for {
		size := s.table.Size()
		drainRemaining.Set(float64(size))
		if size == 0 {
			s.signal.SignalDrainComplete()
			s.field().Info("graceful shutdown completed")
			return
		}

		remaining := s.table.SnapshotFirstN(s.drainRate)
		if len(remaining) == 0 {
			s.field().Debug("no sessions to delete with shutdown")
		}

		for _, imsi := range remaining {
			fields := logrus.Fields{"component": "sweeper", "imsi": logging.MaskIMSI(imsi), "event": cdr.EventDeleteWithShutdown}
			if err := s.writer.Append(imsi, cdr.EventDeleteWithShutdown); err != nil {
				s.log.WithFields(fields).Errorf("cdr write failed: %v", err)
			}
			s.table.Remove(imsi)
			s.log.WithFields(fields).Info("gracefully deleted session")
		}

		time.Sleep(tickInterval)
	}
}
