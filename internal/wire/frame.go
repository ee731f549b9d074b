// Package wire implements the length-prefixed framing used on a transfer
// stream. Every multi-byte integer on the wire is big-endian.
//
// A frame is a uint32 length followed by that many payload bytes. The file
// size field is not a frame: it is a raw uint32 written with WriteUint32.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	ErrFrameTooLarge = errors.New("wire: frame exceeds limit")
	ErrShortFrame    = errors.New("wire: short frame")
)

// Limits constrains frame decode memory use.
type Limits struct {
	MaxFrameBytes uint32
}

// DefaultLimits is sized for the frames this protocol carries: a path
// string and a 32-character digest.
func DefaultLimits() Limits {
	return Limits{MaxFrameBytes: 64 * 1024}
}

// WriteFrame writes the 4-byte big-endian length of payload followed by
// the payload itself. Both writes must complete for the frame to count.
func WriteFrame(w io.Writer, payload []byte) error {
	if err := WriteUint32(w, uint32(len(payload))); err != nil {
		return fmt.Errorf("wire: write frame length: %w", err)
	}
	if len(payload) == 0 {
		return nil
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("wire: write frame payload: %w", err)
	}
	return nil
}

// WriteUint32 writes a raw 4-byte big-endian integer field.
func WriteUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// ReadFrame reads one length-prefixed frame. A length above
// limits.MaxFrameBytes fails before any payload byte is read.
func ReadFrame(r io.Reader, limits Limits) ([]byte, error) {
	n, err := ReadUint32(r)
	if err != nil {
		return nil, fmt.Errorf("wire: read frame length: %w", err)
	}
	if limits.MaxFrameBytes > 0 && n > limits.MaxFrameBytes {
		return nil, ErrFrameTooLarge
	}
	payload := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, ErrShortFrame
			}
			return nil, fmt.Errorf("wire: read frame payload: %w", err)
		}
	}
	return payload, nil
}

// ReadUint32 reads a raw 4-byte big-endian integer field.
func ReadUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}
