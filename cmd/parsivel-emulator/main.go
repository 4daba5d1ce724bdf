// parsivel-emulator serves synthetic Parsivel telegrams over TCP so a
// precipmeter station can be exercised without a disdrometer.
package main

import (
	"context"
	"flag"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chrissnell/precipmeter/internal/log"
	"github.com/chrissnell/precipmeter/internal/transport"
	"github.com/jonboulle/clockwork"
)

func main() {
	var (
		listen   = flag.String("listen", ":8123", "TCP address to listen on")
		interval = flag.Duration("interval", 10*time.Second, "Interval between telegrams")
		debug    = flag.Bool("debug", false, "Turn on debugging output")
	)
	flag.Parse()

	if err := log.Init(log.Options{Debug: *debug}); err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listener, err := net.Listen("tcp", *listen)
	if err != nil {
		log.Fatalf("Failed to listen: %v", err)
	}
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	log.Infof("Parsivel emulator listening on %s, sending a telegram every %v", listener.Addr(), *interval)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Errorf("Failed to accept connection: %v", err)
			continue
		}

		log.Infof("Client connected from %s", conn.RemoteAddr())
		go handleConnection(ctx, conn, *interval)
	}
}

// handleConnection streams one simulator cycle per client.
func handleConnection(ctx context.Context, conn net.Conn, interval time.Duration) {
	defer conn.Close()

	sim := transport.NewSimulator(clockwork.NewRealClock(), interval)
	if err := sim.Open(ctx); err != nil {
		log.Errorf("Failed to start simulator: %v", err)
		return
	}
	defer sim.Close()

	for {
		telegrams, err := sim.Receive(ctx, 2*interval)
		if err != nil {
			if ctx.Err() == nil {
				log.Errorf("Simulator error: %v", err)
			}
			return
		}
		for _, t := range telegrams {
			if _, err := io.WriteString(conn, t); err != nil {
				log.Infof("Client %s disconnected: %v", conn.RemoteAddr(), err)
				return
			}
			log.Debugf("Sent: %q", t)
		}
	}
}
