package transport

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/quic-go/quic-go"
)

// alpnProto: ALPN token for the event-stream endpoint.
const alpnProto = "0http-events"

// streamConn wraps quic.Stream as net.Conn.
type streamConn struct {
	*quic.Stream
	conn *quic.Conn
}

func (c *streamConn) LocalAddr() net.Addr  { return c.conn.LocalAddr() }
func (c *streamConn) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

// DefaultClientTLS TLS for QUIC client (InsecureSkipVerify, event ALPN).
func DefaultClientTLS() *tls.Config {
	return &tls.Config{
		InsecureSkipVerify: true,
		MinVersion:         tls.VersionTLS12,
		NextProtos:         []string{alpnProto},
	}
}

// ServerTLS server TLS with cert and the event ALPN.
func ServerTLS(cert tls.Certificate) *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
		NextProtos:   []string{alpnProto},
	}
}

// DialStream dials QUIC to addr, opens one stream, returns it as net.Conn.
func DialStream(ctx context.Context, addr string, tlsConfig *tls.Config) (net.Conn, error) {
	if tlsConfig == nil {
		tlsConfig = DefaultClientTLS()
	}
	conn, err := quic.DialAddr(ctx, addr, tlsConfig, &quic.Config{
		MaxIdleTimeout: 30 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		_ = conn.CloseWithError(0, "")
		return nil, err
	}
	return &streamConn{Stream: stream, conn: conn}, nil
}

// ListenAddr QUIC listen on addr; tlsConfig must carry Certificates.
func ListenAddr(addr string, tlsConfig *tls.Config) (*quic.Listener, error) {
	return quic.ListenAddr(addr, tlsConfig, &quic.Config{
		MaxIdleTimeout: 30 * time.Second,
	})
}

// Serve accepts connections and streams from ln and hands each stream to
// handle on its own goroutine. Returns when ln closes or ctx is done;
// accepted connections are closed with ctx rather than lingering until
// the idle timeout.
func Serve(ctx context.Context, ln *quic.Listener, handle func(net.Conn)) error {
	for {
		conn, err := ln.Accept(ctx)
		if err != nil {
			return err
		}
		go func(c *quic.Conn) {
			unhook := context.AfterFunc(ctx, func() {
				_ = c.CloseWithError(0, "shutting down")
			})
			defer unhook()
			for {
				stream, err := c.AcceptStream(ctx)
				if err != nil {
					_ = c.CloseWithError(0, "")
					return
				}
				go handle(&streamConn{Stream: stream, conn: c})
			}
		}(conn)
	}
}
