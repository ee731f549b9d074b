// Package app wires the transfer pipeline together: one connection
// lifecycle per file, bounded retry on connection failure, and a
// sequential pass over the scanned file list.
package app

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/bytehaul/bytehaul/internal/progress"
	"github.com/bytehaul/bytehaul/internal/retry"
	"github.com/bytehaul/bytehaul/internal/transfer"
	"github.com/bytehaul/bytehaul/internal/transport"
	"github.com/bytehaul/bytehaul/pkg/manifest"
)

// Outcome is the terminal state of one file's push.
type Outcome int

const (
	// OutcomeSent: the digest frame was written on an open connection.
	OutcomeSent Outcome = iota
	// OutcomeSkipped: a local, non-retryable problem (unreadable file,
	// size beyond the wire format). The run continues.
	OutcomeSkipped
	// OutcomeExhausted: every attempt failed. Terminal for this file
	// only; the run continues.
	OutcomeExhausted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSent:
		return "sent"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Pusher sends single files, establishing a fresh connection per attempt.
type Pusher struct {
	Dialer   transport.Dialer
	Policy   retry.Policy
	Opts     transfer.Options
	Observer progress.Observer
	Logger   *slog.Logger
}

// Push drives one file to a terminal state. The returned error is non-nil
// only for failures that are fatal to the whole run: name resolution,
// context cancellation, or anything unclassified. Per-file failures are
// logged and folded into the Outcome.
//
// A failed attempt abandons its connection entirely; the next attempt
// dials fresh and resends the file from the beginning.
func (p *Pusher) Push(ctx context.Context, item manifest.Item) (Outcome, error) {
	observer := p.Observer
	if observer == nil {
		observer = progress.NopObserver{}
	}
	policy := p.Policy.Normalized()
	log := p.Logger.With("session", uuid.NewString(), "file", item.RelPath)

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		err := p.attempt(ctx, item, observer)
		if err == nil {
			return OutcomeSent, nil
		}

		kind := transfer.KindOf(err)
		switch {
		case kind == transfer.KindResolve:
			// Not transient: abort the run before burning retries.
			return OutcomeExhausted, err
		case kind == transfer.KindOpen:
			log.Error("cannot read file, skipping", "error", err)
			observer.Failed(item.RelPath, err)
			return OutcomeSkipped, nil
		case kind == transfer.KindTooLarge:
			log.Error("file exceeds wire size field, skipping", "error", err)
			observer.Failed(item.RelPath, err)
			return OutcomeSkipped, nil
		case !transfer.Retryable(err):
			return OutcomeExhausted, err
		}

		log.Error("connection error", "error", err, "attempt", attempt, "max_attempts", policy.MaxAttempts)
		observer.Failed(item.RelPath, err)

		if attempt < policy.MaxAttempts {
			if werr := policy.Wait(ctx); werr != nil {
				return OutcomeExhausted, werr
			}
		}
	}

	log.Error("retries exhausted", "attempts", policy.MaxAttempts)
	return OutcomeExhausted, nil
}

// attempt is one connect-and-send cycle: dial, transfer, close.
func (p *Pusher) attempt(ctx context.Context, item manifest.Item, observer progress.Observer) error {
	stream, err := p.Dialer.Dial(ctx)
	if err != nil {
		return err
	}
	defer stream.Close()

	res, err := transfer.Send(ctx, stream, item.Path, item.RelPath, p.Opts, observer.Progress)
	if err != nil {
		return err
	}
	observer.Done(item.RelPath, res.Bytes, res.Digest)
	p.Logger.Info("file sent", "file", item.RelPath, "bytes", res.Bytes, "md5", res.Digest)
	return nil
}
