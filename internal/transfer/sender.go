// Package transfer implements the per-file send protocol: a length-prefixed
// name frame, the raw uint32 file size, the payload streamed in fixed-size
// chunks, then a length-prefixed MD5 hex digest frame. All integers on the
// wire are big-endian.
package transfer

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/bytehaul/bytehaul/internal/wire"
)

const (
	// DefaultChunkSize bounds per-read memory and sets progress granularity.
	DefaultChunkSize = 4096

	maxChunkSize = 8 * 1024 * 1024
)

// Options are the per-transfer settings.
type Options struct {
	// ChunkSize is the payload read/write unit. Zero means DefaultChunkSize.
	ChunkSize int
}

func (o Options) normalized() Options {
	out := o
	if out.ChunkSize <= 0 {
		out.ChunkSize = DefaultChunkSize
	}
	if out.ChunkSize > maxChunkSize {
		out.ChunkSize = maxChunkSize
	}
	return out
}

// ProgressFunc observes payload progress: bytes sent so far out of total.
// It is called after every chunk write, and exactly once for an empty file.
type ProgressFunc func(name string, sent, total int64)

// Result reports a completed transfer.
type Result struct {
	Name   string
	Bytes  int64
	Digest string
}

// Send runs one file transfer over an established stream. The name travels
// on the wire exactly as given. The digest covers the exact bytes written,
// hashed incrementally during the payload pass, so the file is read once.
//
// On failure the stream is left in an indeterminate state; recovery means a
// brand-new connection and a resend from the beginning, which is the retry
// layer's job, not Send's.
func Send(ctx context.Context, w io.Writer, path, name string, opts Options, progressFn ProgressFunc) (Result, error) {
	opts = opts.normalized()

	f, err := os.Open(path)
	if err != nil {
		return Result{}, E(KindOpen, "open "+path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Result{}, E(KindOpen, "stat "+path, err)
	}
	size := info.Size()
	if size > math.MaxUint32 {
		return Result{}, E(KindTooLarge, "size "+path, fmt.Errorf("%d bytes exceeds uint32 size field", size))
	}

	// SendName
	if err := wire.WriteFrame(w, []byte(name)); err != nil {
		return Result{}, E(KindWrite, "write name", err)
	}
	// SendSize: a raw fixed-width field, not a frame.
	if err := wire.WriteUint32(w, uint32(size)); err != nil {
		return Result{}, E(KindWrite, "write size", err)
	}

	// SendPayload
	h := md5.New()
	buf := make([]byte, opts.ChunkSize)
	var sent int64
	for sent < size {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
		}

		chunk := int64(opts.ChunkSize)
		if chunk > size-sent {
			chunk = size - sent
		}
		n, err := f.Read(buf[:chunk])
		if n > 0 {
			h.Write(buf[:n])
			if _, werr := w.Write(buf[:n]); werr != nil {
				return Result{}, E(KindWrite, "write payload", werr)
			}
			sent += int64(n)
			if progressFn != nil {
				progressFn(name, sent, size)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return Result{}, E(KindOpen, "read "+path, err)
		}
	}
	if sent != size {
		return Result{}, E(KindOpen, "read "+path, fmt.Errorf("short read: %d of %d bytes", sent, size))
	}
	if size == 0 && progressFn != nil {
		progressFn(name, 0, 0)
	}

	// SendDigest
	digest := hex.EncodeToString(h.Sum(nil))
	if err := wire.WriteFrame(w, []byte(digest)); err != nil {
		return Result{}, E(KindWrite, "write digest", err)
	}

	return Result{Name: name, Bytes: sent, Digest: digest}, nil
}
