package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bytehaul/bytehaul/pkg/manifest"
)

// Summary counts terminal outcomes for one run.
type Summary struct {
	Sent      int
	Skipped   int
	Exhausted int
}

// Dispatcher walks the root and pushes each file to completion, in scan
// order, one connection lifecycle at a time.
type Dispatcher struct {
	Root   string
	Pusher *Pusher
	Logger *slog.Logger
}

// Run processes every file under Root. A per-file failure never aborts
// the batch; resolution failures and unclassified errors do.
func (d *Dispatcher) Run(ctx context.Context) (Summary, error) {
	m, err := manifest.Scan(d.Root)
	if err != nil {
		return Summary{}, fmt.Errorf("scanning %s: %w", d.Root, err)
	}
	for _, skip := range m.Skipped {
		d.Logger.Warn("skipping unreadable entry", "error", skip)
	}
	d.Logger.Info("starting run",
		"root", m.Root,
		"files", len(m.Items),
		"total_bytes", m.TotalBytes,
		"receiver", d.Pusher.Dialer.Addr())

	var sum Summary
	for _, item := range m.Items {
		d.Logger.Info("connecting to receiver", "addr", d.Pusher.Dialer.Addr(), "file", item.RelPath)
		outcome, err := d.Pusher.Push(ctx, item)
		if err != nil {
			return sum, fmt.Errorf("pushing %s: %w", item.RelPath, err)
		}
		switch outcome {
		case OutcomeSent:
			sum.Sent++
		case OutcomeSkipped:
			sum.Skipped++
		case OutcomeExhausted:
			sum.Exhausted++
		}
	}

	d.Logger.Info("all files processed",
		"sent", sum.Sent, "skipped", sum.Skipped, "failed", sum.Exhausted)
	return sum, nil
}
