// Package lifecycle coordinates the three long-lived workers (UDP receiver,
// HTTP control plane, expiry sweeper) through one shared shutdown flag and
// a drain-completion signal, and joins them at exit.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// State names the coordinator's process-wide lifecycle stage.
type State int

const (
	StateRunning State = iota
	StateDraining
	StateDrained
	StateExited
)

// RunError wraps a fatal startup or shutdown failure with its process exit
// code.
type RunError struct {
	Code int
	Err  error
}

func (e *RunError) Error() string { return e.Err.Error() }
func (e *RunError) Unwrap() error { return e.Err }

// Worker is a long-lived task joined by the coordinator at exit.
type Worker interface {
	Run() error
}

// Closer is implemented by workers (and the CDR writer) that need an
// explicit teardown step after all workers have stopped.
type Closer interface {
	Close() error
}

// Coordinator owns the shutdown flag, the drain-complete signal, and the
// worker group.
type Coordinator struct {
	log *logrus.Logger

	shuttingDown int32
	drainedOnce  sync.Once
	drained      chan struct{}
}

// New constructs a Coordinator in the Running state.
func New(log *logrus.Logger) *Coordinator {
	return &Coordinator{log: log, drained: make(chan struct{})}
}

// ShuttingDown reports whether shutdown has been initiated. It satisfies
// the udpserver.ShutdownFlag and sweeper.ShutdownFlag interfaces.
func (c *Coordinator) ShuttingDown() bool {
	return atomic.LoadInt32(&c.shuttingDown) != 0
}

// InitiateShutdown sets the shutdown flag exactly once. It satisfies the
// controlplane.Stopper interface.
func (c *Coordinator) InitiateShutdown() {
	if atomic.CompareAndSwapInt32(&c.shuttingDown, 0, 1) {
		c.field().Info("shutdown initiated, transitioning to draining")
	}
}

// field returns a logrus.Entry tagged with this component's name.
func (c *Coordinator) field() *logrus.Entry {
	return c.log.WithField("component", "lifecycle")
}

// SignalDrainComplete is called by the sweeper exactly once, when every
// session has been evicted during the graceful drain phase.
func (c *Coordinator) SignalDrainComplete() {
	c.drainedOnce.Do(func() {
		close(c.drained)
	})
}

// Run starts udp, http, and sweeper concurrently via an errgroup, blocks
// until SignalDrainComplete fires, requests the HTTP listener to stop
// accepting, joins all workers, and finally runs closers (CDR writer
// close). A worker that returns an error does not stop the other workers
// or end the wait for drain completion; the HTTP worker's error is also
// logged as soon as it occurs. After the join, every worker error and
// closer error is collected and returned as a *RunError with exit code 1.
func (c *Coordinator) Run(udp, http, sweeperTask Worker, httpShutdown func(context.Context) error, closers ...Closer) error {
	var grp errgroup.Group

	grp.Go(func() error {
		if err := udp.Run(); err != nil {
			return fmt.Errorf("lifecycle: udp worker: %w", err)
		}
		return nil
	})
	grp.Go(func() error {
		if err := http.Run(); err != nil {
			c.field().Errorf("http control plane exited: %v", err)
			return fmt.Errorf("lifecycle: http worker: %w", err)
		}
		return nil
	})
	grp.Go(func() error {
		if err := sweeperTask.Run(); err != nil {
			return fmt.Errorf("lifecycle: sweeper worker: %w", err)
		}
		return nil
	})

	<-c.drained
	c.field().Info("drain complete, joining workers")
	if httpShutdown != nil {
		if err := httpShutdown(context.Background()); err != nil {
			c.field().Errorf("lifecycle: http shutdown: %v", err)
		}
	}

	var result *multierror.Error
	if err := grp.Wait(); err != nil {
		result = multierror.Append(result, err)
	}
	for _, closer := range closers {
		if err := closer.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("lifecycle: close: %w", err))
		}
	}

	c.field().Info("exit from server")
	if result != nil {
		return &RunError{Code: 1, Err: result}
	}
	return nil
}
