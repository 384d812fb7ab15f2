package controlplane

import (
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Atomic7996/Mini-PGW/session"
)

type testStopper struct{ called int32 }

func (s *testStopper) InitiateShutdown() { atomic.StoreInt32(&s.called, 1) }

func newTestLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(noopWriter{})
	return l
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestCheckSubscriberActive(t *testing.T) {
	table := session.NewTable(nil)
	table.TryAdmit("250010123456789", time.Now())
	srv := New(0, table, &testStopper{}, newTestLogger())

	req := httptest.NewRequest("GET", "/check_subscriber?imsi=250010123456789", nil)
	rec := httptest.NewRecorder()
	srv.handleCheckSubscriber(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "active" {
		t.Fatalf("expected active, got %q", rec.Body.String())
	}
}

func TestCheckSubscriberNotActive(t *testing.T) {
	table := session.NewTable(nil)
	srv := New(0, table, &testStopper{}, newTestLogger())

	req := httptest.NewRequest("GET", "/check_subscriber?imsi=250010123456789", nil)
	rec := httptest.NewRecorder()
	srv.handleCheckSubscriber(rec, req)

	if rec.Body.String() != "not active" {
		t.Fatalf("expected not active, got %q", rec.Body.String())
	}
}

func TestCheckSubscriberMissingParam(t *testing.T) {
	table := session.NewTable(nil)
	srv := New(0, table, &testStopper{}, newTestLogger())

	req := httptest.NewRequest("GET", "/check_subscriber", nil)
	rec := httptest.NewRecorder()
	srv.handleCheckSubscriber(rec, req)

	if rec.Code != 400 {
		t.Fatalf("expected 400 for missing imsi, got %d", rec.Code)
	}
}

func TestStopInitiatesShutdown(t *testing.T) {
	table := session.NewTable(nil)
	stopper := &testStopper{}
	srv := New(0, table, stopper, newTestLogger())

	req := httptest.NewRequest("GET", "/stop", nil)
	rec := httptest.NewRecorder()
	srv.handleStop(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "Shutdown initiated" {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
	if atomic.LoadInt32(&stopper.called) != 1 {
		t.Fatalf("expected InitiateShutdown to be called")
	}
}
