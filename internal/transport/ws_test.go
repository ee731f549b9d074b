package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bytehaul/bytehaul/internal/transfer"
)

func echoWSServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(msgType, data); err != nil {
				return
			}
		}
	}))
}

func TestWSDialer_DialAndEcho(t *testing.T) {
	srv := echoWSServer(t)
	defer srv.Close()

	url := "ws://" + strings.TrimPrefix(srv.URL, "http://")
	d := NewWSDialer(url, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := d.Dial(ctx)
	if err != nil {
		t.Fatalf("Dial error: %v", err)
	}
	defer stream.Close()

	// Two writes, one larger than a single read buffer, to exercise the
	// message-to-stream adaptation on the read side.
	if _, err := stream.Write([]byte("hello ")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := stream.Write([]byte("bytehaul")); err != nil {
		t.Fatalf("write: %v", err)
	}

	buf := make([]byte, len("hello bytehaul"))
	if _, err := io.ReadFull(stream, buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(buf) != "hello bytehaul" {
		t.Errorf("echo = %q, want %q", buf, "hello bytehaul")
	}
}

func TestWSDialer_UpgradeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no websocket here", http.StatusForbidden)
	}))
	defer srv.Close()

	url := "ws://" + strings.TrimPrefix(srv.URL, "http://")
	d := NewWSDialer(url, testLogger())

	_, err := d.Dial(context.Background())
	if err == nil {
		t.Fatal("expected upgrade failure")
	}
	if kind := transfer.KindOf(err); kind != transfer.KindConnect {
		t.Errorf("kind = %v, want KindConnect", kind)
	}
}
