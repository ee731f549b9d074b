package transport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bytehaul/bytehaul/internal/transfer"
)

// WSDialer dials the receiver over a WebSocket and adapts the connection
// to a byte stream: each Write is one binary message, Read drains
// successive binary messages.
type WSDialer struct {
	url    string
	dialer websocket.Dialer
	logger *slog.Logger
}

func NewWSDialer(url string, logger *slog.Logger) *WSDialer {
	return &WSDialer{
		url:    url,
		dialer: websocket.Dialer{HandshakeTimeout: 5 * time.Second},
		logger: logger,
	}
}

func (d *WSDialer) Addr() string { return d.url }

func (d *WSDialer) Dial(ctx context.Context) (Stream, error) {
	conn, resp, err := d.dialer.DialContext(ctx, d.url, nil)
	if err != nil {
		if resp != nil {
			body, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if len(body) > 0 {
				err = fmt.Errorf("websocket upgrade failed (%d): %s", resp.StatusCode, body)
			} else {
				err = fmt.Errorf("websocket upgrade failed (%d)", resp.StatusCode)
			}
		}
		return nil, transfer.E(transfer.KindConnect, "dial ws "+d.url, err)
	}
	d.logger.Debug("websocket connection established", "url", d.url)
	return &wsStream{conn: conn}, nil
}

type wsStream struct {
	conn *websocket.Conn
	r    io.Reader // current in-flight message, nil between messages
}

func (s *wsStream) Read(p []byte) (int, error) {
	for {
		if s.r == nil {
			msgType, r, err := s.conn.NextReader()
			if err != nil {
				return 0, err
			}
			if msgType != websocket.BinaryMessage {
				continue
			}
			s.r = r
		}
		n, err := s.r.Read(p)
		if err == io.EOF {
			s.r = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (s *wsStream) Write(p []byte) (int, error) {
	if err := s.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (s *wsStream) Close() error {
	deadline := time.Now().Add(time.Second)
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return s.conn.Close()
}
