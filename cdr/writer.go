// Package cdr implements the append-only call-detail-record stream written
// by the session table's insertion and eviction paths.
package cdr

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Event names recognized in the CDR stream.
const (
	EventCreate            = "create"
	EventDeleted           = "deleted"
	EventDeleteWithShutdown = "delete with shutdown"
)

const timeLayout = "2006-01-02 15:04:05"

var (
	writesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pgw_cdr_writes_total",
		Help: "Total successful CDR appends by event.",
	}, []string{"event"})

	writeErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pgw_cdr_write_errors_total",
		Help: "Total failed CDR append attempts.",
	})
)

func init() {
	prometheus.MustRegister(writesTotal, writeErrorsTotal)
}

// Writer serializes appends to the CDR file under its own mutex, independent
// of the session table's mutex. Callers must never hold the table mutex
// while calling Append; the lock order M -> M_cdr is enforced by convention
// at the call sites in udpserver and sweeper, not by this type.
type Writer struct {
	mu   sync.Mutex
	file *os.File
}

// Open opens path in append mode, creating it if necessary. It fails
// fatally at the caller's discretion; callers at startup should treat a
// non-nil error as fatal.
func Open(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("cdr: open %s: %w", path, err)
	}
	return &Writer{file: f}, nil
}

// Append writes a single CDR line "<localtime>,<imsi>,<event>\n" under the
// writer's mutex. A write failure is returned to the caller, who is expected
// to log it at error level and continue; this function never terminates the
// process.
func (w *Writer) Append(imsi, event string) error {
	line := fmt.Sprintf("%s,%s,%s\n", time.Now().Format(timeLayout), imsi, event)
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.file.WriteString(line); err != nil {
		writeErrorsTotal.Inc()
		return fmt.Errorf("cdr: write: %w", err)
	}
	writesTotal.WithLabelValues(event).Inc()
	return nil
}

// Flush forces any buffered data to stable storage. os.File performs
// unbuffered writes, so this is a best-effort fsync rather than a flush of
// an in-process buffer.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Sync()
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("cdr: sync on close: %w", err)
	}
	return w.file.Close()
}
