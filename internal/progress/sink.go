package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Observer receives progress events for files in flight. Implementations
// must tolerate events for a file being restarted from zero after Failed
// (a retried transfer is resent from the beginning).
type Observer interface {
	// Progress reports cumulative payload bytes for a file. total == 0
	// means an empty file, which reads as 100%.
	Progress(name string, sent, total int64)
	// Done reports a completed transfer.
	Done(name string, bytes int64, digest string)
	// Failed reports a failed attempt.
	Failed(name string, err error)
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) Progress(string, int64, int64) {}
func (NopObserver) Done(string, int64, string)    {}
func (NopObserver) Failed(string, error)          {}

const renderInterval = 100 * time.Millisecond

// ConsoleSink renders progress to a console-like writer. It owns the
// mutex guarding the writer, so any number of components can share one
// sink without interleaving output.
type ConsoleSink struct {
	mu       sync.Mutex
	out      io.Writer
	meter    *Meter
	name     string // file currently rendering, "" between files
	inline   bool   // an unterminated \r line is on screen
	lastAt   time.Time
	interval time.Duration
	now      func() time.Time
}

// NewConsoleSink writes to out, or stdout when out is nil.
func NewConsoleSink(out io.Writer) *ConsoleSink {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleSink{
		out:      out,
		meter:    NewMeter(),
		interval: renderInterval,
		now:      time.Now,
	}
}

func (s *ConsoleSink) Progress(name string, sent, total int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.name != name {
		s.name = name
		s.meter.Start(total)
	}
	s.meter.SetDone(sent)
	st := s.meter.Snapshot()

	// Throttle intermediate renders; the final 100% always goes through.
	now := s.now()
	if st.Percent < 100 && now.Sub(s.lastAt) < s.interval {
		return
	}
	s.lastAt = now
	fmt.Fprintf(s.out, "\r%s  %d%%", name, st.Percent)
	s.inline = true
}

func (s *ConsoleSink) Done(name string, bytes int64, digest string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endLine()
	st := s.meter.Snapshot()
	if st.RateBps > 0 {
		fmt.Fprintf(s.out, "sent %s (%d bytes, %s), md5 %s\n", name, bytes, fmtRate(st.RateBps), digest)
	} else {
		fmt.Fprintf(s.out, "sent %s (%d bytes), md5 %s\n", name, bytes, digest)
	}
	s.name = ""
}

func (s *ConsoleSink) Failed(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endLine()
	fmt.Fprintf(s.out, "failed %s: %v\n", name, err)
	s.name = ""
}

func (s *ConsoleSink) endLine() {
	if s.inline {
		fmt.Fprintln(s.out)
		s.inline = false
	}
}

func fmtRate(bps float64) string {
	switch {
	case bps >= 1<<30:
		return fmt.Sprintf("%.1f GiB/s", bps/(1<<30))
	case bps >= 1<<20:
		return fmt.Sprintf("%.1f MiB/s", bps/(1<<20))
	case bps >= 1<<10:
		return fmt.Sprintf("%.1f KiB/s", bps/(1<<10))
	default:
		return fmt.Sprintf("%.0f B/s", bps)
	}
}
