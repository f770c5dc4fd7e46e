// Package transfer implements the framed request/response protocol
// between the data client (outbound role) and data server (inbound
// role): handshake, ClipboardData transfer, file-drop transfer, ping,
// and the connection lifecycle.
package transfer

import (
	"context"

	"clipsync/internal/clipdata"
)

// Dispatch forwards assembled payloads to the OS clipboard. The GUI
// shell owns the concrete implementation; the core only calls it.
type Dispatch interface {
	DeliverClipboardData(*clipdata.Data) error
	DeliverFilePaths(paths []string) error
	DeliverImage(bmp []byte) error
}

// ProgressMode distinguishes a send from a receive for the progress
// indicator.
type ProgressMode int

const (
	ProgressSend ProgressMode = iota
	ProgressReceive
)

// ProgressHandle is released on every exit path of the scope that
// acquired it.
type ProgressHandle interface {
	SetMaxTick(total int64)
	Tick(delta int64)
	Close() error
}

// Progress begins a scoped progress indicator session.
type Progress interface {
	Begin(mode ProgressMode) (ProgressHandle, error)
}

// Status is a ConnectStatus transition.
type Status int

const (
	StatusOffline Status = iota
	StatusOnline
	StatusClientOffline
	StatusClientOnline
)

func (s Status) String() string {
	switch s {
	case StatusOffline:
		return "Offline"
	case StatusOnline:
		return "Online"
	case StatusClientOffline:
		return "ClientOffline"
	case StatusClientOnline:
		return "ClientOnline"
	default:
		return "Unknown"
	}
}

// ConnectStatus is notified of handshake-driven state transitions.
type ConnectStatus interface {
	SetStatus(s Status)
}

// ErrorDialog surfaces an error to the user; the core never swallows an
// error silently during connection setup or session run.
type ErrorDialog interface {
	ShowError(err error)
}

// AddressDiscovery resolves a partner's discovery id to a host:port.
type AddressDiscovery interface {
	Discover(ctx context.Context, id string) (host string, port int, err error)
}

// noopProgressHandle is used when no Progress collaborator is wired.
type noopProgressHandle struct{}

func (noopProgressHandle) SetMaxTick(int64) {}
func (noopProgressHandle) Tick(int64)       {}
func (noopProgressHandle) Close() error     { return nil }

// NoopProgress never reports anything; useful for tests and for
// deployments that don't want a progress indicator.
type NoopProgress struct{}

func (NoopProgress) Begin(ProgressMode) (ProgressHandle, error) { return noopProgressHandle{}, nil }
