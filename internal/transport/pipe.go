package transport

import (
	"context"
	"errors"
	"net"
	"sync"

	"github.com/bytehaul/bytehaul/internal/transfer"
)

// PipeDialer is an in-process transport for tests. Each Dial hands the
// peer half of a net.Pipe to Accept. It can be scripted to refuse the
// first N dials, which drives the retry path deterministically.
type PipeDialer struct {
	mu        sync.Mutex
	failNext  int
	dialCount int
	accept    chan net.Conn
	closed    bool
}

func NewPipeDialer() *PipeDialer {
	return &PipeDialer{accept: make(chan net.Conn, 16)}
}

// FailNext makes the next n Dial calls fail with a connect error.
func (d *PipeDialer) FailNext(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failNext = n
}

// DialCount reports how many Dial calls have been made.
func (d *PipeDialer) DialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dialCount
}

func (d *PipeDialer) Addr() string { return "pipe" }

func (d *PipeDialer) Dial(ctx context.Context) (Stream, error) {
	d.mu.Lock()
	d.dialCount++
	if d.closed {
		d.mu.Unlock()
		return nil, transfer.E(transfer.KindConnect, "dial pipe", errors.New("dialer closed"))
	}
	if d.failNext > 0 {
		d.failNext--
		d.mu.Unlock()
		return nil, transfer.E(transfer.KindConnect, "dial pipe", errors.New("connection refused"))
	}
	d.mu.Unlock()

	local, remote := net.Pipe()
	select {
	case d.accept <- remote:
		return local, nil
	case <-ctx.Done():
		_ = local.Close()
		_ = remote.Close()
		return nil, ctx.Err()
	}
}

// Accept returns the receiver half of the next dialed connection.
func (d *PipeDialer) Accept(ctx context.Context) (net.Conn, error) {
	select {
	case conn := <-d.accept:
		return conn, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close refuses all further dials.
func (d *PipeDialer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
}
