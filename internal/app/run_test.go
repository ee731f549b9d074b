package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bytehaul/bytehaul/internal/progress"
	"github.com/bytehaul/bytehaul/internal/retry"
	"github.com/bytehaul/bytehaul/internal/transport"
)

func writeTree(t *testing.T, root string, files map[string][]byte) {
	t.Helper()
	for rel, data := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
}

func TestDispatcher_Run(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string][]byte{
		"nested/deep.dat": []byte("deep content"),
		"top.dat":         []byte("top content"),
		"empty.dat":       nil,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	d := transport.NewPipeDialer()
	ch := runReceiver(ctx, d, "", 0)

	disp := &Dispatcher{
		Root:   root,
		Pusher: newPusher(d, retry.Policy{MaxAttempts: 3}),
		Logger: testLogger(),
	}
	sum, err := disp.Run(ctx)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if sum.Sent != 3 || sum.Skipped != 0 || sum.Exhausted != 0 {
		t.Fatalf("summary = %+v, want 3 sent", sum)
	}

	// Transfers arrive strictly in scan order (sorted by relative path).
	wantOrder := []string{"empty.dat", "nested/deep.dat", "top.dat"}
	for i, want := range wantOrder {
		got := <-ch
		if got.err != nil {
			t.Fatalf("receiver error on file %d: %v", i, got.err)
		}
		if got.name != want {
			t.Errorf("file %d = %q, want %q", i, got.name, want)
		}
	}
}

func TestDispatcher_EmptyFileOnTheWire(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string][]byte{"zero.dat": nil})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	d := transport.NewPipeDialer()
	ch := runReceiver(ctx, d, "", 0)

	disp := &Dispatcher{
		Root:   root,
		Pusher: newPusher(d, retry.Policy{MaxAttempts: 3}),
		Logger: testLogger(),
	}
	if _, err := disp.Run(ctx); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	got := <-ch
	if got.err != nil {
		t.Fatalf("receiver error: %v", got.err)
	}
	if got.size != 0 || len(got.payload) != 0 {
		t.Errorf("size = %d, payload = %d bytes; want both 0", got.size, len(got.payload))
	}
	const emptyMD5 = "d41d8cd98f00b204e9800998ecf8427e"
	if got.digest != emptyMD5 {
		t.Errorf("digest = %q, want %q", got.digest, emptyMD5)
	}
}

func TestDispatcher_OneFailingFileDoesNotAbortBatch(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string][]byte{
		"bad.dat":  []byte("receiver drops this one"),
		"good.dat": []byte("this one lands"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	d := transport.NewPipeDialer()
	// Drop every attempt for bad.dat so it exhausts its retries.
	ch := runReceiver(ctx, d, "bad.dat", 3)

	disp := &Dispatcher{
		Root:   root,
		Pusher: newPusher(d, retry.Policy{MaxAttempts: 3}),
		Logger: testLogger(),
	}
	sum, err := disp.Run(ctx)
	if err != nil {
		t.Fatalf("a per-file failure must not abort the run: %v", err)
	}
	if sum.Sent != 1 || sum.Exhausted != 1 {
		t.Fatalf("summary = %+v, want 1 sent and 1 exhausted", sum)
	}

	got := <-ch
	if got.err != nil {
		t.Fatalf("receiver error: %v", got.err)
	}
	if got.name != "good.dat" {
		t.Errorf("delivered file = %q, want %q", got.name, "good.dat")
	}
}

func TestDispatcher_ObserverSeesTerminalEvents(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string][]byte{"watch.dat": []byte("observable")})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	d := transport.NewPipeDialer()
	runReceiver(ctx, d, "", 0)

	obs := &recordingObserver{}
	p := newPusher(d, retry.Policy{MaxAttempts: 3})
	p.Observer = obs

	disp := &Dispatcher{Root: root, Pusher: p, Logger: testLogger()}
	if _, err := disp.Run(ctx); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if len(obs.done) != 1 || obs.done[0] != "watch.dat" {
		t.Errorf("done events = %v, want [watch.dat]", obs.done)
	}
	if obs.progressEvents == 0 {
		t.Error("expected at least one progress event")
	}
	if obs.lastBytes != int64(len("observable")) {
		t.Errorf("completion bytes = %d, want %d", obs.lastBytes, len("observable"))
	}
	if len(obs.lastDigest) != 32 {
		t.Errorf("completion digest = %q, want 32 hex chars", obs.lastDigest)
	}
}

type recordingObserver struct {
	progress.NopObserver
	progressEvents int
	done           []string
	lastBytes      int64
	lastDigest     string
}

func (o *recordingObserver) Progress(name string, sent, total int64) { o.progressEvents++ }

func (o *recordingObserver) Done(name string, bytes int64, digest string) {
	o.done = append(o.done, name)
	o.lastBytes = bytes
	o.lastDigest = digest
}
