package redikv

import (
	"bufio"
	"errors"
	"io"
	"net"

	"github.com/kvwire/redikv/app/redikv/command"
	"github.com/kvwire/redikv/app/redikv/resp"
	"github.com/kvwire/redikv/app/redikv/store"
	"github.com/sirupsen/logrus"
)

const readChunkSize = 4096

// frameWriter adapts a buffered net.Conn writer to command.FrameWriter,
// flushing after every frame so replies reach the wire promptly even
// though the stream sits behind a bufio.Writer.
type frameWriter struct {
	w *bufio.Writer
}

func (fw *frameWriter) WriteFrame(f resp.Frame) error {
	if _, err := fw.w.Write(resp.Serialize(f)); err != nil {
		return err
	}
	return fw.w.Flush()
}

// Session drives one connection's RESP request/reply loop (§4.E).
type Session struct {
	conn     net.Conn
	db       *store.DB
	registry *command.Registry
	log      *logrus.Entry
	done     <-chan struct{}
	metrics  *Metrics

	buf []byte
}

// NewSession constructs a session for an already-accepted connection.
// done is the server-wide shutdown fan-out (§5 "cancellation semantics").
// metrics may be nil — every call site checks before use.
func NewSession(conn net.Conn, db *store.DB, registry *command.Registry, done <-chan struct{}, log *logrus.Entry, metrics *Metrics) *Session {
	return &Session{conn: conn, db: db, registry: registry, log: log, done: done, metrics: metrics}
}

// Run executes the session until the peer disconnects, a transport error
// occurs, QUIT is received, or shutdown fires. It never returns an error;
// transport and protocol failures are either logged or surfaced to the
// peer per §7's propagation policy.
func (s *Session) Run() {
	defer s.conn.Close()

	// The shutdown notifier is awaited "alongside every long-lived
	// read" (§4.E); since net.Conn.Read has no channel form, a watcher
	// closes the connection on shutdown, unblocking whatever read is
	// in flight.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-s.done:
			s.conn.Close()
		case <-watchDone:
		}
	}()

	inbound := make(chan command.Inbound)
	go s.readLoop(inbound)
	// Once Run returns, keep draining inbound so readLoop is never left
	// blocked on a send; it exits when its read on the closed conn fails.
	defer func() {
		go func() {
			for range inbound {
			}
		}()
	}()

	writer := &frameWriter{w: bufio.NewWriter(s.conn)}
	ctx := command.NewContext(s.db, s.registry, writer, inbound, s.done, s.log)
	defer ctx.Close()

	for {
		select {
		case <-s.done:
			return
		case in, ok := <-inbound:
			if !ok {
				return
			}
			cont, err := s.handleInbound(ctx, writer, in)
			if err != nil {
				s.log.WithError(err).Debug("session write failed")
				return
			}
			if !cont || ctx.CloseRequested {
				return
			}
		}
	}
}

// handleInbound processes one parsed frame (or parse failure) against
// the top-level (non-subscribed) command set. cont reports whether the
// session loop should keep reading.
func (s *Session) handleInbound(ctx *command.Context, writer *frameWriter, in command.Inbound) (cont bool, err error) {
	if in.Err != nil {
		if errors.Is(in.Err, io.EOF) || errors.Is(in.Err, command.ErrConnectionAborted) {
			return false, nil
		}
		return true, writer.WriteFrame(resp.Error(in.Err.Error()))
	}

	cmd, parseErr := ctx.Registry.Parse(in.Frame)
	if parseErr != nil {
		return true, writer.WriteFrame(resp.Error(parseErr.Error()))
	}

	ctx.Suppressed = false
	reply, applyErr := cmd.Apply(ctx)
	if s.metrics != nil {
		s.metrics.CommandApplied()
	}
	if applyErr != nil {
		return true, writer.WriteFrame(resp.Error(applyErr.Error()))
	}
	if ctx.Suppressed {
		return true, nil
	}
	return true, writer.WriteFrame(reply)
}

// readLoop pulls RESP frames off the connection and feeds them to out
// until the connection errors or shutdown fires. After the session has
// returned, Run drains out and closes the connection, so the next read
// fails and this goroutine exits.
func (s *Session) readLoop(out chan<- command.Inbound) {
	defer close(out)
	for {
		frame, err := s.readFrame()
		select {
		case out <- command.Inbound{Frame: frame, Err: err}:
		case <-s.done:
			return
		}
		if errors.Is(err, io.EOF) || errors.Is(err, command.ErrConnectionAborted) {
			return
		}
	}
}

// readFrame implements §4.E step 1: grow buf until resp.Parse reports
// Complete or Malformed. A read returning 0 bytes on an empty buffer is
// a clean disconnect (io.EOF); on a non-empty buffer it is
// command.ErrConnectionAborted.
func (s *Session) readFrame() (resp.Frame, error) {
	for {
		frame, n, status := resp.Parse(s.buf)
		switch status {
		case resp.Complete:
			s.buf = append([]byte(nil), s.buf[n:]...)
			return frame, nil
		case resp.Malformed:
			s.buf = nil
			return resp.Frame{}, errMalformedFrame
		}

		chunk := make([]byte, readChunkSize)
		n2, readErr := s.conn.Read(chunk)
		if n2 > 0 {
			s.buf = append(s.buf, chunk[:n2]...)
		}
		if readErr != nil {
			if len(s.buf) == 0 {
				return resp.Frame{}, io.EOF
			}
			return resp.Frame{}, command.ErrConnectionAborted
		}
	}
}

var errMalformedFrame = errors.New("ERR Protocol error: malformed frame")
