package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"

	"clipsync/internal/wire"
)

// Server is the inbound role: it listens, accepts one connection at a
// time, and dispatches payloads via Dispatch.
type Server struct {
	Dispatch    Dispatch
	Progress    Progress
	Status      ConnectStatus
	ErrorDialog ErrorDialog

	cancel context.CancelFunc
}

// Serve runs the accept loop until ctx is cancelled or Stop is called;
// each session's errors are reported to ErrorDialog and do not tear down
// the listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	defer cancel()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.setStatus(StatusOffline)
				return nil
			}
			return fmt.Errorf("transfer: accept: %w", err)
		}
		s.runSession(ctx, conn)
	}
}

// Stop cancels the outer accept loop; Serve returns once the in-flight
// Accept unwinds.
func (s *Server) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Server) setStatus(st Status) {
	if s.Status != nil {
		s.Status.SetStatus(st)
	}
}

func (s *Server) reportError(err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	if s.ErrorDialog != nil {
		s.ErrorDialog.ShowError(err)
	} else {
		log.Printf("transfer: session error: %v", err)
	}
}

func (s *Server) runSession(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	w := wire.NewWriter(flushingWriter{conn})
	r := wire.NewReader(conn)

	if err := ServerHandshake(w, r); err != nil {
		s.reportError(err)
		return
	}
	s.setStatus(StatusOnline)
	defer s.setStatus(StatusOffline)

	for {
		if err := RecvSession(w, r, s.Dispatch, s.Progress); err != nil {
			if !errors.Is(err, io.EOF) {
				s.reportError(err)
			}
			return
		}
	}
}
