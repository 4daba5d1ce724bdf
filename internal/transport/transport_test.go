package transport

import (
	"context"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		want    string
		wantErr error
	}{
		{name: "tcp", config: Config{Connection: "tcp", Host: "10.0.0.5", Port: 4001}, want: "tcp://10.0.0.5:4001"},
		{name: "tcp without port", config: Config{Connection: "tcp", Host: "10.0.0.5"}, wantErr: ErrMissingTransportTarget},
		{name: "udp", config: Config{Connection: "UDP", Port: 4001}, want: "udp://:4001"},
		{name: "udp without port", config: Config{Connection: "udp", Host: "10.0.0.5"}, wantErr: ErrMissingTransportTarget},
		{name: "usb", config: Config{Connection: "usb", Device: "/dev/ttyUSB0"}, want: "serial:///dev/ttyUSB0@19200"},
		{name: "serial without device", config: Config{Connection: "serial"}, wantErr: ErrMissingTransportTarget},
		{name: "none", config: Config{Connection: "none"}, want: "simulator"},
		{name: "restful", config: Config{Connection: "restful", Host: "x"}, wantErr: ErrUnknownConnection},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := New(tt.config)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, tr.String())
		})
	}
}

func TestTCPReceive(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	sent := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		c.Write([]byte("\x0200.000;0000.00;00;\x03\r\n00.120;0000.01;61;\r\n"))
		sent <- c
	}()

	addr := ln.Addr().(*net.TCPAddr)
	tr := NewTCP("127.0.0.1", addr.Port)
	ctx := context.Background()
	require.NoError(t, tr.Open(ctx))
	defer tr.Close()

	var got []string
	for len(got) < 2 {
		recs, err := tr.Receive(ctx, 2*time.Second)
		require.NoError(t, err)
		got = append(got, recs...)
	}
	assert.Equal(t, []string{"\x0200.000;0000.00;00;", "00.120;0000.01;61;"}, got)

	_, err = tr.Receive(ctx, 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)

	(<-sent).Close()
	_, err = tr.Receive(ctx, 2*time.Second)
	assert.ErrorIs(t, err, io.EOF)

	require.NoError(t, tr.Close())
	_, err = tr.Receive(ctx, time.Millisecond)
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestTCPOpenFails(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	tr := NewTCP("127.0.0.1", port)
	assert.Error(t, tr.Open(context.Background()))
}

func TestSimulator(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sim := NewSimulator(clock, 10*time.Second)
	ctx := context.Background()

	_, err := sim.Receive(ctx, time.Second)
	assert.ErrorIs(t, err, ErrNotOpen)

	require.NoError(t, sim.Open(ctx))
	recs, err := sim.Receive(ctx, 5*time.Second)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	fields := strings.Split(recs[0], ";")
	assert.Equal(t, "200248", fields[0])
	assert.Equal(t, "00", fields[3])

	// The next telegram is due in 10 s, more than the timeout.
	errs := make(chan error, 1)
	go func() {
		_, err := sim.Receive(ctx, 5*time.Second)
		errs <- err
	}()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(5 * time.Second)
	assert.ErrorIs(t, <-errs, ErrTimeout)

	type result struct {
		recs []string
		err  error
	}
	results := make(chan result, 1)
	go func() {
		recs, err := sim.Receive(ctx, 30*time.Second)
		results <- result{recs, err}
	}()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(5 * time.Second)
	r := <-results
	require.NoError(t, r.err)
	require.Len(t, r.recs, 1)

	// Skip ahead into the drizzle phase.
	clock.Advance(30 * time.Second)
	recs, err = sim.Receive(ctx, 5*time.Second)
	require.NoError(t, err)
	fields = strings.Split(recs[0], ";")
	assert.Equal(t, "51", fields[3])
	assert.Equal(t, "   0.25", fields[2])
}

func TestUDPAccepts(t *testing.T) {
	ctx := context.Background()
	from := &net.UDPAddr{IP: net.ParseIP("192.168.1.20"), Port: 5000}

	anySender := NewUDP("", 4001)
	allowed, err := anySender.resolve(ctx)
	require.NoError(t, err)
	assert.True(t, anySender.accepts(allowed, from))

	literal := NewUDP("192.168.1.20", 4001)
	literal.lookup = func(context.Context, string) ([]net.IP, error) {
		t.Fatal("literal address looked up")
		return nil, nil
	}
	allowed, err = literal.resolve(ctx)
	require.NoError(t, err)
	assert.True(t, literal.accepts(allowed, from))
	assert.False(t, literal.accepts(allowed, &net.UDPAddr{IP: net.ParseIP("192.168.1.21")}))
	assert.False(t, literal.accepts(allowed, &net.TCPAddr{IP: from.IP}))
}

func TestUDPResolvesHostOnce(t *testing.T) {
	lookups := 0
	u := NewUDP("disdrometer.lan", 4001)
	u.lookup = func(_ context.Context, host string) ([]net.IP, error) {
		lookups++
		assert.Equal(t, "disdrometer.lan", host)
		return []net.IP{net.ParseIP("10.0.0.7"), net.ParseIP("fd00::7")}, nil
	}

	allowed, err := u.resolve(context.Background())
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		assert.True(t, u.accepts(allowed, &net.UDPAddr{IP: net.ParseIP("10.0.0.7")}))
		assert.True(t, u.accepts(allowed, &net.UDPAddr{IP: net.ParseIP("fd00::7")}))
		assert.False(t, u.accepts(allowed, &net.UDPAddr{IP: net.ParseIP("10.0.0.8")}))
	}
	assert.Equal(t, 1, lookups)

	u.lookup = func(context.Context, string) ([]net.IP, error) {
		return nil, &net.DNSError{Err: "no such host", Name: "disdrometer.lan", IsNotFound: true}
	}
	_, err = u.resolve(context.Background())
	assert.ErrorContains(t, err, "disdrometer.lan")

	u.lookup = func(context.Context, string) ([]net.IP, error) { return nil, nil }
	_, err = u.resolve(context.Background())
	assert.ErrorContains(t, err, "no addresses")
}

func TestSplitDatagram(t *testing.T) {
	assert.Equal(t, []string{"a;b;"}, splitDatagram("a;b;\r\n"))
	assert.Equal(t, []string{"\x02a;b;", "c;d;"}, splitDatagram("\x02a;b;\x03\r\nc;d;\r\n"))
	assert.Empty(t, splitDatagram("\r\n"))
}

func TestSerialNotOpen(t *testing.T) {
	s := NewSerial("/dev/does-not-exist", 0)
	_, err := s.Receive(context.Background(), time.Millisecond)
	assert.ErrorIs(t, err, ErrNotOpen)
	assert.Error(t, s.Open(context.Background()))
	assert.NoError(t, s.Close())
}
