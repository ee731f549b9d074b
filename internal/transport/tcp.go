package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/bytehaul/bytehaul/internal/transfer"
)

const tcpDialTimeout = 5 * time.Second

// TCPDialer dials the receiver over plain TCP. The host is resolved once;
// the resolved candidate set is reused by every subsequent attempt.
type TCPDialer struct {
	host     string
	port     int
	resolver *net.Resolver
	dialer   net.Dialer
	logger   *slog.Logger

	mu    sync.Mutex
	addrs []string
}

func NewTCPDialer(host string, port int, logger *slog.Logger) *TCPDialer {
	return &TCPDialer{
		host:     host,
		port:     port,
		resolver: net.DefaultResolver,
		dialer:   net.Dialer{Timeout: tcpDialTimeout},
		logger:   logger,
	}
}

func (d *TCPDialer) Addr() string {
	return net.JoinHostPort(d.host, strconv.Itoa(d.port))
}

// resolve looks the host up on first use and caches the candidates.
func (d *TCPDialer) resolve(ctx context.Context) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.addrs != nil {
		return d.addrs, nil
	}
	ips, err := d.resolver.LookupHost(ctx, d.host)
	if err != nil {
		return nil, transfer.E(transfer.KindResolve, "lookup "+d.host, err)
	}
	addrs := make([]string, 0, len(ips))
	for _, ip := range ips {
		addrs = append(addrs, net.JoinHostPort(ip, strconv.Itoa(d.port)))
	}
	d.addrs = addrs
	d.logger.Debug("resolved receiver", "host", d.host, "addrs", addrs)
	return addrs, nil
}

// Dial tries each resolved candidate in order and returns the first
// connection that succeeds.
func (d *TCPDialer) Dial(ctx context.Context) (Stream, error) {
	addrs, err := d.resolve(ctx)
	if err != nil {
		return nil, err
	}
	var lastErr error
	for _, addr := range addrs {
		conn, err := d.dialer.DialContext(ctx, "tcp", addr)
		if err == nil {
			return conn, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no addresses to dial")
	}
	return nil, transfer.E(transfer.KindConnect, "dial tcp "+d.Addr(), lastErr)
}
