// Package transport provides stream dialers for the transfer client. A
// dialer hands out a fresh byte stream per call; one stream carries exactly
// one file transfer and is closed when the transfer resolves either way.
package transport

import (
	"context"
	"io"
)

// Stream is the byte stream one file transfer travels over.
type Stream interface {
	io.Reader
	io.Writer
	Close() error
}

// Dialer establishes connections to the receiver. Dial failures carry a
// transfer error kind: KindResolve when the target name cannot be resolved,
// KindConnect when the endpoint is unreachable.
type Dialer interface {
	// Dial establishes a brand-new stream. Callers never reuse a stream
	// across transfers; retry means a fresh Dial.
	Dial(ctx context.Context) (Stream, error)

	// Addr describes the dial target for log lines.
	Addr() string
}
