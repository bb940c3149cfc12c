// Package transport owns one UDP endpoint per logical peer link: a bound
// socket, a dedicated receive loop that validates and decodes every
// datagram's frame envelope, and a bounded reconnect state machine for bind
// failures. Transports share no mutable state with each other; everything
// downstream of the frame handler is the caller's concern.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/VictoriaMetrics/metrics"

	"github.com/skyfence/radarlink/internal/monitoring"
	"github.com/skyfence/radarlink/internal/radar/protocol"
)

// Status is the lifecycle state of a transport. A transport starts Unbound,
// moves to Bound on a successful bind, drops to Reconnecting while the
// retry machine runs, parks at Failed when the retry budget is exhausted,
// and terminates at Closed on explicit shutdown.
type Status int32

const (
	StatusUnbound Status = iota
	StatusBound
	StatusReconnecting
	StatusFailed
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusUnbound:
		return "unbound"
	case StatusBound:
		return "bound"
	case StatusReconnecting:
		return "reconnecting"
	case StatusFailed:
		return "failed"
	case StatusClosed:
		return "closed"
	default:
		return fmt.Sprintf("status(%d)", int32(s))
	}
}

// Transport errors. Per-datagram framing errors never surface here; they
// are counted and the receive loop continues.
var (
	ErrBindFailed       = errors.New("transport: bind failed")
	ErrSocketClosed     = errors.New("transport: socket closed")
	ErrWriteFailed      = errors.New("transport: write failed")
	ErrRetriesExhausted = errors.New("transport: reconnect attempts exhausted")
)

const (
	// DefaultReconnectInterval is the fixed delay between bind retries.
	DefaultReconnectInterval = 3 * time.Second
	// DefaultMaxReconnectAttempts bounds consecutive failed binds before
	// the transport reports permanent failure and stops retrying.
	DefaultMaxReconnectAttempts = 5

	defaultRcvBuf = 1 << 20
	readPoll      = 100 * time.Millisecond
)

// Handler receives every well-formed frame whose identity matches the
// transport's configured peer pair. The frame's payload aliases the receive
// buffer and must not be retained past the call.
type Handler func(frame protocol.Frame, sender *net.UDPAddr)

// Config describes one logical link endpoint.
type Config struct {
	// Name labels logs and metrics for this link ("signal", "data", ...).
	Name string
	// ListenAddr is the local UDP address to bind, e.g. ":8003".
	ListenAddr string
	// LocalID and RemoteID are the protocol node identities of this
	// station and its peer. Inbound frames must carry SrcID==RemoteID and
	// DestID==LocalID or they are dropped; outbound frames are stamped
	// with the reverse pair.
	LocalID  uint16
	RemoteID uint16
	// Handler is invoked on the receive goroutine for every accepted
	// frame. Nil is allowed for send-only links.
	Handler Handler

	// RcvBuf is the socket receive buffer size; 0 selects a default.
	RcvBuf int
	// ReconnectInterval and MaxReconnectAttempts tune the retry machine;
	// zero values select the defaults above.
	ReconnectInterval    time.Duration
	MaxReconnectAttempts int

	// listenUDP is injectable for tests; nil selects net.ListenUDP.
	listenUDP func(network string, laddr *net.UDPAddr) (*net.UDPConn, error)
}

// Transport is one bound UDP endpoint with its receive loop. All exported
// methods are safe for concurrent use.
type Transport struct {
	name       string
	listenAddr string
	localID    uint16
	remoteID   uint16
	handler    Handler
	rcvBuf     int

	reconnectInterval time.Duration
	maxReconnects     int
	listenUDP         func(network string, laddr *net.UDPAddr) (*net.UDPConn, error)

	commCount atomic.Uint32
	status    atomic.Int32

	mu       sync.Mutex
	conn     *net.UDPConn
	loopDone chan struct{} // closed when the current receive loop exits
	closed   bool
	gen      uint64 // bumped by Start; a stale reconnect loop observes the change and exits

	framesAccepted *metrics.Counter
	framesDropped  *metrics.Counter
	identityDrops  *metrics.Counter
	readErrors     *metrics.Counter
	reconnects     *metrics.Counter
}

// New builds a transport from cfg. The transport is Unbound until Start.
func New(cfg Config) *Transport {
	if cfg.RcvBuf == 0 {
		cfg.RcvBuf = defaultRcvBuf
	}
	if cfg.ReconnectInterval == 0 {
		cfg.ReconnectInterval = DefaultReconnectInterval
	}
	if cfg.MaxReconnectAttempts == 0 {
		cfg.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if cfg.listenUDP == nil {
		cfg.listenUDP = net.ListenUDP
	}
	t := &Transport{
		name:              cfg.Name,
		listenAddr:        cfg.ListenAddr,
		localID:           cfg.LocalID,
		remoteID:          cfg.RemoteID,
		handler:           cfg.Handler,
		rcvBuf:            cfg.RcvBuf,
		reconnectInterval: cfg.ReconnectInterval,
		maxReconnects:     cfg.MaxReconnectAttempts,
		listenUDP:         cfg.listenUDP,

		framesAccepted: linkCounter("radarlink_frames_accepted_total", cfg.Name),
		framesDropped:  linkCounter("radarlink_frames_dropped_total", cfg.Name),
		identityDrops:  linkCounter("radarlink_frames_identity_mismatch_total", cfg.Name),
		readErrors:     linkCounter("radarlink_read_errors_total", cfg.Name),
		reconnects:     linkCounter("radarlink_reconnect_attempts_total", cfg.Name),
	}
	t.status.Store(int32(StatusUnbound))
	return t
}

func linkCounter(name, link string) *metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf(`%s{link=%q}`, name, link))
}

// Status returns the current lifecycle state.
func (t *Transport) Status() Status {
	return Status(t.status.Load())
}

// LocalAddr returns the bound socket address, or nil while unbound. Useful
// when the listen port was chosen by the kernel.
func (t *Transport) LocalAddr() net.Addr {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	return t.conn.LocalAddr()
}

// Start binds the local endpoint and launches the receive loop. On bind
// failure the transport enters Reconnecting and retries on a fixed interval
// until the retry budget is exhausted; a later explicit Start resets the
// budget. Start returns the immediate bind error, if any; the retry machine
// keeps running regardless.
func (t *Transport) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrSocketClosed
	}
	// Restarting an already bound transport rebinds from scratch, the
	// same way the original station recreated its socket on demand.
	if t.conn != nil {
		t.conn.Close()
		done := t.loopDone
		t.conn = nil
		t.mu.Unlock()
		if done != nil {
			<-done
		}
		t.mu.Lock()
		if t.closed {
			t.mu.Unlock()
			return ErrSocketClosed
		}
	}
	// Supersede any reconnect loop still running from an earlier Start so
	// its spent attempt counter cannot park the transport at Failed.
	t.gen++
	gen := t.gen
	err := t.bindLocked(ctx)
	t.mu.Unlock()

	if err != nil {
		t.status.Store(int32(StatusReconnecting))
		go t.reconnectLoop(ctx, gen)
		return fmt.Errorf("%w: %s: %v", ErrBindFailed, t.listenAddr, err)
	}
	return nil
}

// bindLocked resolves and binds the listen address and, on success, starts
// the receive loop goroutine. Caller holds t.mu.
func (t *Transport) bindLocked(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp", t.listenAddr)
	if err != nil {
		return err
	}
	conn, err := t.listenUDP("udp", addr)
	if err != nil {
		return err
	}
	if err := conn.SetReadBuffer(t.rcvBuf); err != nil {
		monitoring.Logf("link %s: failed to set receive buffer to %d: %v", t.name, t.rcvBuf, err)
	}

	t.conn = conn
	t.status.Store(int32(StatusBound))
	done := make(chan struct{})
	t.loopDone = done
	go t.receiveLoop(ctx, conn, done)
	monitoring.Logf("link %s: bound on %s", t.name, t.listenAddr)
	return nil
}

// reconnectLoop retries the bind on a fixed interval. It exits on success,
// on Close, when the attempt budget is spent, or when a later Start bumps
// the generation and takes over with a fresh budget.
func (t *Transport) reconnectLoop(ctx context.Context, gen uint64) {
	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(t.reconnectInterval):
		}

		t.mu.Lock()
		if t.closed || t.conn != nil || gen != t.gen {
			// Closed, already rebound, or superseded by a newer Start.
			t.mu.Unlock()
			return
		}
		if attempt > t.maxReconnects {
			t.status.Store(int32(StatusFailed))
			t.mu.Unlock()
			monitoring.Logf("link %s: %v after %d attempts; giving up until restarted",
				t.name, ErrRetriesExhausted, t.maxReconnects)
			return
		}
		t.reconnects.Inc()
		err := t.bindLocked(ctx)
		t.mu.Unlock()

		if err == nil {
			return
		}
		monitoring.Logf("link %s: reconnect attempt %d of %d failed: %v",
			t.name, attempt, t.maxReconnects, err)
	}
}

// receiveLoop reads datagrams until the context is cancelled or the socket
// is torn down. Framing errors drop the datagram and continue; they never
// terminate the loop.
func (t *Transport) receiveLoop(ctx context.Context, conn *net.UDPConn, done chan struct{}) {
	defer close(done)

	buf := make([]byte, 65536)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		// Short read deadline so context cancellation is observed
		// promptly; there is no per-datagram timeout semantic.
		conn.SetReadDeadline(time.Now().Add(readPoll))
		n, sender, err := conn.ReadFromUDP(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return
			}
			t.readErrors.Inc()
			monitoring.Logf("link %s: read error: %v", t.name, err)
			continue
		}
		t.handleDatagram(buf[:n], sender)
	}
}

// handleDatagram validates the frame envelope and peer identity, then hands
// the frame to the configured handler.
func (t *Transport) handleDatagram(data []byte, sender *net.UDPAddr) {
	frame, err := protocol.Decode(data)
	if err != nil {
		t.framesDropped.Inc()
		monitoring.Logf("link %s: dropped datagram from %v: %v", t.name, sender, err)
		return
	}
	if frame.SrcID != t.remoteID || frame.DestID != t.localID {
		t.identityDrops.Inc()
		return
	}
	t.framesAccepted.Inc()
	if t.handler != nil {
		t.handler(frame, sender)
	}
}

// Send wraps payload (msgID-prefixed) in a frame stamped with this link's
// identity pair and a fresh sequence number, then writes it to the given
// destination. Write failures are reported to the caller and not retried.
func (t *Transport) Send(payload []byte, destHost string, destPort int) error {
	frame, err := protocol.Encode(payload, t.localID, t.remoteID, t.commCount.Add(1))
	if err != nil {
		return err
	}
	return t.SendRaw(frame, destHost, destPort)
}

// SendRaw writes an already fully framed datagram. Used for the
// photoelectric uplink, whose frames do not use the radar envelope.
func (t *Transport) SendRaw(datagram []byte, destHost string, destPort int) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return ErrSocketClosed
	}

	raddr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(destHost, fmt.Sprint(destPort)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if _, err := conn.WriteToUDP(datagram, raddr); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return nil
}

// Close tears the transport down: the receive loop is stopped and the
// socket released before Close returns. The transport cannot be restarted.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	conn := t.conn
	done := t.loopDone
	t.conn = nil
	t.mu.Unlock()

	t.status.Store(int32(StatusClosed))
	var err error
	if conn != nil {
		err = conn.Close()
	}
	if done != nil {
		<-done
	}
	return err
}
