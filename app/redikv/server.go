package redikv

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/kvwire/redikv/app/redikv/command"
	"github.com/kvwire/redikv/app/redikv/config"
	"github.com/kvwire/redikv/app/redikv/store"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Server owns the listener, the DB scope guard, and the accept loop of
// §4.F. Admission is capped by a counting semaphore sized to
// config.MaxClients; additional connections queue in the kernel accept
// backlog rather than being refused outright.
type Server struct {
	cfg      *config.Config
	db       *store.DB
	registry *command.Registry
	log      *logrus.Logger
	metrics  *Metrics

	listener net.Listener
	sem      chan struct{}
	wg       sync.WaitGroup
	done     chan struct{}
	closeOnce sync.Once
}

// NewServer wires a DB, command registry and logger around cfg. The DB
// is owned by the server for its whole lifetime (§3's "scope guard"):
// Shutdown closes it, which in turn stops the expiry reaper.
func NewServer(cfg *config.Config, log *logrus.Logger) *Server {
	return &Server{
		cfg:      cfg,
		db:       store.New(),
		registry: command.NewRegistry(),
		log:      log,
		sem:      make(chan struct{}, cfg.MaxClients),
		done:     make(chan struct{}),
	}
}

// listenConfig sets SO_REUSEADDR on the raw listening socket before
// bind, so a restarted server can rebind a just-closed port immediately
// — net.Listen alone leaves the socket in TIME_WAIT on some platforms.
var listenConfig = net.ListenConfig{
	Control: func(_, _ string, c syscall.RawConn) error {
		var sockErr error
		if err := c.Control(func(fd uintptr) {
			sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
		}); err != nil {
			return err
		}
		return sockErr
	},
}

// Listen binds the TCP listener. Call before Serve.
func (s *Server) Listen(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	listener, err := listenConfig.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", addr, err)
	}
	s.listener = listener
	return nil
}

// EnableMetrics turns on the Ambient Stack's Prometheus registration and
// starts serving /metrics on addr. Call after Listen, before Serve.
func (s *Server) EnableMetrics(ctx context.Context, addr string) {
	s.metrics = NewMetrics(s.db)
	go func() {
		if err := s.metrics.Serve(ctx, addr); err != nil {
			s.log.WithError(err).Warn("metrics endpoint stopped")
		}
	}()
}

// Serve runs the accept loop (§4.F) until Shutdown is called or the
// listener errors. It blocks until every in-flight session has returned.
func (s *Server) Serve() error {
	defer s.wg.Wait()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return nil
			default:
				return fmt.Errorf("accept: %w", err)
			}
		}

		select {
		case s.sem <- struct{}{}:
		case <-s.done:
			conn.Close()
			return nil
		}

		s.wg.Add(1)
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer s.wg.Done()
	defer func() { <-s.sem }()

	log := s.log.WithField("conn", conn.RemoteAddr().String())
	if s.metrics != nil {
		s.metrics.SessionOpened()
		defer s.metrics.SessionClosed()
	}

	session := NewSession(conn, s.db, s.registry, s.done, log, s.metrics)
	session.Run()
}

// Shutdown notifies every session and the reaper, closes the listener so
// Serve's Accept unblocks, and waits for in-flight sessions to drain —
// §4.F's "notifies all sessions, forgets all remaining permits, and
// returns".
func (s *Server) Shutdown() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.listener != nil {
			s.listener.Close()
		}
	})
	s.wg.Wait()
	s.db.Close()
}

// Run ties Listen, Serve and signal-driven Shutdown together — the
// binary's main entry point.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(ctx); err != nil {
		return err
	}
	s.log.WithField("addr", s.listener.Addr().String()).Info("listening")

	if s.cfg.MetricsAddr != "" {
		s.EnableMetrics(ctx, s.cfg.MetricsAddr)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	serveErr := make(chan error, 1)
	go func() { serveErr <- s.Serve() }()

	select {
	case <-sig:
		s.log.Info("shutting down")
		s.Shutdown()
		return nil
	case err := <-serveErr:
		s.Shutdown()
		return err
	}
}
