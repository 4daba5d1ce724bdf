package transport

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/gnet/v2"
)

// UDP receives telegrams sent as datagrams, one record per datagram. When
// a host is configured, datagrams from other addresses are dropped. The host
// is resolved on every Open.
type UDP struct {
	host   string
	port   int
	lookup func(ctx context.Context, host string) ([]net.IP, error)

	mu      sync.Mutex
	handler *udpHandler
	allowed []net.IP
}

// NewUDP returns a transport listening on port for datagrams from host.
func NewUDP(host string, port int) *UDP {
	return &UDP{
		host: host,
		port: port,
		lookup: func(ctx context.Context, host string) ([]net.IP, error) {
			return net.DefaultResolver.LookupIP(ctx, "ip", host)
		},
	}
}

type datagram struct {
	from net.Addr
	data string
}

type udpHandler struct {
	gnet.BuiltinEventEngine

	booted    chan struct{}
	engine    gnet.Engine
	datagrams chan datagram
}

func (h *udpHandler) OnBoot(eng gnet.Engine) gnet.Action {
	h.engine = eng
	close(h.booted)
	return gnet.None
}

func (h *udpHandler) OnTraffic(c gnet.Conn) gnet.Action {
	buf, err := c.Next(-1)
	if err != nil || len(buf) == 0 {
		return gnet.None
	}
	d := datagram{from: c.RemoteAddr(), data: string(buf)}
	// Drop rather than stall the event loop when nobody is receiving.
	select {
	case h.datagrams <- d:
	default:
	}
	return gnet.None
}

// Open starts the listener.
func (u *UDP) Open(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.handler != nil {
		return nil
	}
	allowed, err := u.resolve(ctx)
	if err != nil {
		return err
	}
	u.allowed = allowed

	h := &udpHandler{
		booted:    make(chan struct{}),
		datagrams: make(chan datagram, 64),
	}
	failed := make(chan error, 1)
	go func() {
		failed <- gnet.Run(h, fmt.Sprintf("udp://:%d", u.port), gnet.WithMulticore(false), gnet.WithReusePort(true))
	}()

	select {
	case <-h.booted:
		u.handler = h
		return nil
	case err := <-failed:
		return fmt.Errorf("failed to start UDP listener on port %d: %w", u.port, err)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive returns the records of the datagrams that arrived within
// timeout from the expected sender.
func (u *UDP) Receive(ctx context.Context, timeout time.Duration) ([]string, error) {
	u.mu.Lock()
	h, allowed := u.handler, u.allowed
	u.mu.Unlock()
	if h == nil {
		return nil, ErrNotOpen
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case d := <-h.datagrams:
			if !u.accepts(allowed, d.from) {
				continue
			}
			return splitDatagram(d.data), nil
		case <-timer.C:
			return nil, ErrTimeout
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// resolve returns the addresses of the configured host, or nil when any
// sender is accepted.
func (u *UDP) resolve(ctx context.Context) ([]net.IP, error) {
	if u.host == "" {
		return nil, nil
	}
	if ip := net.ParseIP(u.host); ip != nil {
		return []net.IP{ip}, nil
	}
	ips, err := u.lookup(ctx, u.host)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP sender %s: %w", u.host, err)
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("failed to resolve UDP sender %s: no addresses", u.host)
	}
	return ips, nil
}

// accepts reports whether a datagram from addr comes from one of the
// allowed addresses.
func (u *UDP) accepts(allowed []net.IP, addr net.Addr) bool {
	if u.host == "" {
		return true
	}
	ua, ok := addr.(*net.UDPAddr)
	if !ok {
		return false
	}
	for _, ip := range allowed {
		if ip.Equal(ua.IP) {
			return true
		}
	}
	return false
}

// splitDatagram returns the records in one datagram. Most sensors send
// exactly one.
func splitDatagram(data string) []string {
	var out []string
	for _, rec := range strings.FieldsFunc(data, func(r rune) bool { return r == '\n' || r == '\x03' }) {
		rec = strings.TrimRight(rec, "\r ")
		if strings.TrimSpace(rec) != "" {
			out = append(out, rec)
		}
	}
	return out
}

// Close stops the listener.
func (u *UDP) Close() error {
	u.mu.Lock()
	h := u.handler
	u.handler = nil
	u.mu.Unlock()
	if h == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return h.engine.Stop(ctx)
}

func (u *UDP) String() string {
	if u.host == "" {
		return fmt.Sprintf("udp://:%d", u.port)
	}
	return fmt.Sprintf("udp://%s:%d", u.host, u.port)
}
