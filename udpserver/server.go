// Package udpserver implements the datagram receive loop that decodes
// subscriber identities, consults the session table, and replies with
// admission/rejection.
package udpserver

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/Atomic7996/Mini-PGW/bcd"
	"github.com/Atomic7996/Mini-PGW/cdr"
	"github.com/Atomic7996/Mini-PGW/logging"
	"github.com/Atomic7996/Mini-PGW/session"
)

const (
	recvTimeout   = time.Second
	replyCreated  = "created"
	replyRejected = "rejected"
)

var admissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "pgw_admissions_total",
	Help: "Total UDP admission decisions by outcome.",
}, []string{"result"})

func init() {
	prometheus.MustRegister(admissionsTotal)
}

// ShutdownFlag is the minimal view of the coordinator's shared shutdown
// state that the receive loop needs to poll cooperatively.
type ShutdownFlag interface {
	ShuttingDown() bool
}

// Server owns the UDP socket and the receive loop.
type Server struct {
	addr    string
	table   *session.Table
	writer  *cdr.Writer
	log     *logrus.Logger
	flag    ShutdownFlag
	conn    *net.UDPConn
}

// New resolves addr and binds a UDP socket. A resolve or bind failure is
// returned wrapped to the caller, who must treat it as fatal at startup.
func New(ip string, port int, table *session.Table, writer *cdr.Writer, log *logrus.Logger, flag ShutdownFlag) (*Server, error) {
	addr := fmt.Sprintf("%s:%d", ip, port)
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("udpserver: resolve %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("udpserver: bind %s: %w", addr, err)
	}
	return &Server{addr: addr, table: table, writer: writer, log: log, flag: flag, conn: conn}, nil
}

// Run executes the receive loop until the shutdown flag is observed at the
// top of an iteration. It never returns an error for datagram-scoped
// failures; those are logged and the loop continues.
func (s *Server) Run() error {
	s.field().Infof("udp listening on %s", s.addr)
	buf := make([]byte, bcd.WireLength+1)
	for {
		if s.flag.ShuttingDown() {
			s.field().Debug("udp receive loop observed shutdown flag, exiting")
			return nil
		}

		if err := s.conn.SetReadDeadline(time.Now().Add(recvTimeout)); err != nil {
			s.field().Errorf("udpserver: set read deadline: %v", err)
		}

		n, clientAddr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if isTimeout(err) {
				continue
			}
			s.field().Errorf("udpserver: recvfrom: %v", err)
			continue
		}

		if n != bcd.WireLength {
			s.field().Warnf("udpserver: expected %d bytes, got %d from %s", bcd.WireLength, n, clientAddr)
			continue
		}

		imsi, err := bcd.Decode(buf[:n])
		if err != nil {
			s.field().Warnf("udpserver: bcd decode failed: %v", err)
			continue
		}
		s.log.WithFields(logrus.Fields{"component": "udpserver", "imsi": imsi}).
			Debugf("decoded imsi from %s", clientAddr)

		s.admit(imsi, clientAddr)
	}
}

// admit performs the admission decision under the table lock, then does
// reply and CDR I/O after releasing it, per the M -> M_cdr lock order.
func (s *Server) admit(imsi string, clientAddr *net.UDPAddr) {
	admitted := s.table.TryAdmit(imsi, time.Now())
	fields := logrus.Fields{"component": "udpserver", "imsi": logging.MaskIMSI(imsi)}
	if !admitted {
		admissionsTotal.WithLabelValues("rejected").Inc()
		s.log.WithFields(fields).Info("subscriber rejected")
		s.reply(clientAddr, replyRejected)
		return
	}

	if err := s.writer.Append(imsi, cdr.EventCreate); err != nil {
		s.log.WithFields(fields).WithField("event", cdr.EventCreate).Errorf("cdr write failed: %v", err)
	}
	admissionsTotal.WithLabelValues("created").Inc()
	s.log.WithFields(fields).WithField("event", cdr.EventCreate).Info("session created")
	s.reply(clientAddr, replyCreated)
}

func (s *Server) reply(addr *net.UDPAddr, payload string) {
	if _, err := s.conn.WriteToUDP([]byte(payload), addr); err != nil {
		s.field().Errorf("udpserver: send reply: %v", err)
	}
}

// field returns a logrus.Entry tagged with this component's name, for log
// sites that have no identity to attach.
func (s *Server) field() *logrus.Entry {
	return s.log.WithField("component", "udpserver")
}

// Close releases the underlying socket.
func (s *Server) Close() error {
	return s.conn.Close()
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}
