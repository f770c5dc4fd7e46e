package transfer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"clipsync/internal/clipdata"
	"clipsync/internal/wire"

	"github.com/google/uuid"
)

// ConnState is the data client's lifecycle state.
type ConnState int

const (
	StateIdle ConnState = iota
	StateConnecting
	StateOnline
	StateSending
	StateDisconnected
)

func (s ConnState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateConnecting:
		return "Connecting"
	case StateOnline:
		return "Online"
	case StateSending:
		return "Sending"
	case StateDisconnected:
		return "Disconnected"
	default:
		return "Unknown"
	}
}

// DataClientPingPeriod is the interval at which the keep-alive ping fires
// while idle.
const DataClientPingPeriod = 15 * time.Second

// quiesceWait is how long a send operation waits for a superseded send
// to unwind before proceeding.
const quiesceWait = 1 * time.Second

// Client is the outbound role: it connects, handshakes, and pushes
// either a ClipboardData payload or a file-drop stream, running a
// periodic ping while idle.
type Client struct {
	// PartnerAddress is either "host:port" or a bare discovery id.
	PartnerAddress string
	Discovery      AddressDiscovery
	Progress       Progress
	Status         ConnectStatus
	ErrorDialog    ErrorDialog

	ID string

	mu         sync.Mutex
	conn       net.Conn
	state      ConnState
	cancel     context.CancelFunc
	pingOn     bool
	stopPing   chan struct{}
	pingDoneWG sync.WaitGroup
}

// NewClient builds a Client with a fresh 8-character id.
func NewClient(partnerAddress string, discovery AddressDiscovery) *Client {
	return &Client{
		PartnerAddress: partnerAddress,
		Discovery:      discovery,
		ID:             uuid.NewString()[:8],
		state:          StateIdle,
	}
}

func (c *Client) setState(s ConnState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Client) setStatus(s Status) {
	if c.Status != nil {
		c.Status.SetStatus(s)
	}
}

func (c *Client) reportError(err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return // cancellation is never shown to the user
	}
	if c.ErrorDialog != nil {
		c.ErrorDialog.ShowError(err)
	}
}

/*────── connection management ───────────────────────────────────*/

// resolveAddress turns PartnerAddress into a dialable "host:port". With
// no Discovery wired, PartnerAddress must already be host:port. With
// Discovery wired, PartnerAddress is a bare id resolved through it —
// ids never carry a port of their own, since discovery resolves both
// host and port, so a colon in the id is rejected outright rather than
// being split and dialed literally.
func (c *Client) resolveAddress(ctx context.Context) (string, error) {
	if c.Discovery != nil {
		if strings.Contains(c.PartnerAddress, ":") {
			return "", fmt.Errorf("%w: discovery id %q must not carry a port", ErrInvalidConfiguration, c.PartnerAddress)
		}
		h, p, err := c.Discovery.Discover(ctx, c.PartnerAddress)
		if err != nil {
			return "", fmt.Errorf("transfer: discover %s: %w", c.PartnerAddress, err)
		}
		return fmt.Sprintf("%s:%d", h, p), nil
	}

	host, port, err := splitHostPort(c.PartnerAddress)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not host:port and no discovery collaborator is wired", ErrInvalidConfiguration, c.PartnerAddress)
	}
	return net.JoinHostPort(host, port), nil
}

// isReusable reports whether the current socket looks safe to reuse
// without a handshake, probed with a one-byte read under a 1 ms
// deadline: a successful Read means data was pending (peer sent
// something unexpected — not reusable; the byte is consumed), an EOF or
// other non-timeout error means the peer has closed or the socket
// failed (not reusable); a timeout error means nothing is pending and
// the connection is presumed alive.
func isReusable(conn net.Conn) bool {
	if conn == nil {
		return false
	}
	if err := conn.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
		return false
	}
	defer conn.SetReadDeadline(time.Time{})

	var probe [1]byte
	_, err := conn.Read(probe[:])
	if err == nil {
		return false // unexpected data — don't trust this connection
	}
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}

// connect reuses the live socket if possible, otherwise dials fresh and
// runs the handshake.
func (c *Client) connect(ctx context.Context) error {
	c.mu.Lock()
	reusable := isReusable(c.conn)
	c.mu.Unlock()
	if reusable {
		return nil
	}

	c.setState(StateConnecting)
	c.closeConn()

	addr, err := c.resolveAddress(ctx)
	if err != nil {
		return err
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("transfer: dial %s: %w", addr, err)
	}

	w := wire.NewWriter(flushingWriter{conn})
	r := wire.NewReader(conn)
	if err := ClientHandshake(w, r); err != nil {
		conn.Close()
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.setState(StateOnline)
	c.setStatus(StatusClientOnline)
	return nil
}

func (c *Client) closeConn() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

/*────── cancellation bookkeeping ────────────────────────────────*/

// beginExclusive cancels the context of any in-flight operation, waits
// the full quiesceWait, and installs a fresh context. The superseded
// operation only observes its context while dialing, so once it is past
// connect it may still be using the connection after the wait.
func (c *Client) beginExclusive(parent context.Context) (context.Context, context.CancelFunc) {
	c.mu.Lock()
	prevCancel := c.cancel
	c.mu.Unlock()

	if prevCancel != nil {
		prevCancel()
		time.Sleep(quiesceWait)
	}

	ctx, cancel := context.WithCancel(parent)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	return ctx, cancel
}

func (c *Client) endExclusive(cancel context.CancelFunc) {
	cancel()
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel = nil
	}
	c.mu.Unlock()
}

/*────── public operations ───────────────────────────────────────*/

// SendClipboardData pushes a ClipboardData payload to the partner.
func (c *Client) SendClipboardData(ctx context.Context, data *clipdata.Data) error {
	ctx, cancel := c.beginExclusive(ctx)
	defer c.endExclusive(cancel)

	c.setState(StateSending)
	defer c.setState(StateOnline)

	if err := c.connect(ctx); err != nil {
		c.onSendError(err)
		return err
	}

	var progress ProgressHandle = noopProgressHandle{}
	if c.Progress != nil {
		h, err := c.Progress.Begin(ProgressSend)
		if err == nil {
			progress = h
			defer h.Close()
		}
	}

	w, r := c.framer()
	if err := SendData(w, r, data, progress); err != nil {
		c.onSendError(err)
		return err
	}
	return nil
}

// SendFileDropList pushes a file-drop stream built from paths.
func (c *Client) SendFileDropList(ctx context.Context, paths []string) error {
	ctx, cancel := c.beginExclusive(ctx)
	defer c.endExclusive(cancel)

	c.setState(StateSending)
	defer c.setState(StateOnline)

	if err := c.connect(ctx); err != nil {
		c.onSendError(err)
		return err
	}

	var progress ProgressHandle = noopProgressHandle{}
	if c.Progress != nil {
		h, err := c.Progress.Begin(ProgressSend)
		if err == nil {
			progress = h
			defer h.Close()
		}
	}

	w, r := c.framer()
	if err := SendFileDropRoots(w, r, paths, progress); err != nil {
		c.onSendError(err)
		return err
	}
	return nil
}

func (c *Client) onSendError(err error) {
	c.closeConn()
	c.setState(StateDisconnected)
	c.setStatus(StatusClientOffline)
	c.reportError(err)
}

// framer wraps the current connection in an unbuffered wire
// Reader/Writer pair; every write goes straight to the socket, since
// the protocol is request/response over a single byte stream.
func (c *Client) framer() (*wire.Writer, *wire.Reader) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	return wire.NewWriter(flushingWriter{conn}), wire.NewReader(conn)
}

// flushingWriter writes straight through to the socket; no internal
// buffering survives past a single Write call, so every frame is on the
// wire as soon as it is written (equivalent to flush-per-frame).
type flushingWriter struct{ conn net.Conn }

func (f flushingWriter) Write(p []byte) (int, error) { return f.conn.Write(p) }

/*────── ping loop ───────────────────────────────────────────────*/

// Start enables the periodic ping.
func (c *Client) Start() {
	c.mu.Lock()
	if c.pingOn {
		c.mu.Unlock()
		return
	}
	c.pingOn = true
	c.stopPing = make(chan struct{})
	stop := c.stopPing
	c.mu.Unlock()

	c.pingDoneWG.Add(1)
	go c.pingLoop(stop)
}

// Stop disables the periodic ping and closes the socket, transitioning
// to Disconnected.
func (c *Client) Stop() {
	c.mu.Lock()
	wasPinging := c.pingOn
	c.pingOn = false
	stop := c.stopPing
	c.mu.Unlock()

	if wasPinging {
		close(stop)
		c.pingDoneWG.Wait()
	}

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()
	c.closeConn()
	c.setState(StateDisconnected)
	c.setStatus(StatusClientOffline)
}

func (c *Client) pingLoop(stop chan struct{}) {
	defer c.pingDoneWG.Done()

	timer := time.NewTimer(DataClientPingPeriod)
	defer timer.Stop()
	for {
		select {
		case <-stop:
			return
		case <-timer.C:
			c.tryPing()
			timer.Reset(DataClientPingPeriod)
		}
	}
}

// tryPing performs connect + handshake + a zero-length size frame, and
// is suppressed entirely while a transfer holds the connection (checked
// by attempting the same exclusive-access path used by sends).
func (c *Client) tryPing() {
	c.mu.Lock()
	busy := c.cancel != nil
	c.mu.Unlock()
	if busy {
		return
	}

	ctx, cancel := c.beginExclusive(context.Background())
	defer c.endExclusive(cancel)

	if err := c.connect(ctx); err != nil {
		c.onSendError(err)
		return
	}
	w, r := c.framer()
	if err := SendPing(w, r); err != nil {
		c.onSendError(err)
	}
}

/*────── address parsing ─────────────────────────────────────────*/

func splitHostPort(addr string) (host, port string, err error) {
	return net.SplitHostPort(addr)
}
