package transport

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"log/slog"
	"math/big"
	"net"
	"strconv"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/bytehaul/bytehaul/internal/transfer"
)

// ALPNProtocol is the Application-Layer Protocol Negotiation identifier
// a compatible QUIC receiver must accept.
const ALPNProtocol = "bytehaul-quic-v1"

// QUICDialer dials the receiver over QUIC and opens one bidirectional
// stream per transfer.
type QUICDialer struct {
	host   string
	port   int
	logger *slog.Logger
}

func NewQUICDialer(host string, port int, logger *slog.Logger) *QUICDialer {
	return &QUICDialer{host: host, port: port, logger: logger}
}

func (d *QUICDialer) Addr() string {
	return net.JoinHostPort(d.host, strconv.Itoa(d.port))
}

func (d *QUICDialer) Dial(ctx context.Context) (Stream, error) {
	conn, err := quic.DialAddr(ctx, d.Addr(), clientTLSConfig(), clientQUICConfig())
	if err != nil {
		return nil, transfer.E(transfer.KindConnect, "dial quic "+d.Addr(), err)
	}
	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		_ = conn.CloseWithError(0, "open stream failed")
		return nil, transfer.E(transfer.KindConnect, "open quic stream", err)
	}
	d.logger.Debug("quic connection established", "addr", d.Addr())
	return &quicStream{stream: stream, conn: conn}, nil
}

// quicStream ties the stream's lifetime to its connection: one stream, one
// connection, one file.
type quicStream struct {
	stream *quic.Stream
	conn   *quic.Conn
}

func (s *quicStream) Read(p []byte) (int, error)  { return s.stream.Read(p) }
func (s *quicStream) Write(p []byte) (int, error) { return s.stream.Write(p) }

func (s *quicStream) Close() error {
	err := s.stream.Close()
	if cerr := s.conn.CloseWithError(0, "done"); err == nil {
		err = cerr
	}
	return err
}

// clientTLSConfig skips verification: the transport contract here carries
// no authentication layer, matching the plain-TCP path.
func clientTLSConfig() *tls.Config {
	return &tls.Config{
		InsecureSkipVerify: true,
		NextProtos:         []string{ALPNProtocol},
	}
}

func clientQUICConfig() *quic.Config {
	return &quic.Config{
		KeepAlivePeriod: 10 * time.Second,
		MaxIdleTimeout:  30 * time.Second,
	}
}

// ServerTLSConfig returns a self-signed TLS configuration a QUIC receiver
// can listen with. Used by tests and reference receivers.
func ServerTLSConfig() (*tls.Config, error) {
	cert, err := generateSelfSignedCert()
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{ALPNProtocol},
	}, nil
}

func generateSelfSignedCert() (tls.Certificate, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return tls.Certificate{}, err
	}
	template := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{Organization: []string{"bytehaul"}},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	if err != nil {
		return tls.Certificate{}, err
	}
	return tls.Certificate{Certificate: [][]byte{certDER}, PrivateKey: priv}, nil
}
