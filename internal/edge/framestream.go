package edge

import (
	"bufio"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"dev.c0redev.0http/internal/hub"
	"dev.c0redev.0http/internal/proto"
)

// frameConn: hub.Conn over a byte stream speaking the frame protocol.
// Events go out as DATA frames on stream 0.
type frameConn struct {
	id     string
	conn   net.Conn
	mu     sync.Mutex // serializes frame writes
	closed atomic.Bool
}

func newFrameConn(c net.Conn) *frameConn {
	return &frameConn{id: "frame-" + uuid.NewString()[:8] + "@" + c.RemoteAddr().String(), conn: c}
}

func (c *frameConn) ID() string   { return c.id }
func (c *frameConn) IsOpen() bool { return !c.closed.Load() }

func (c *frameConn) Send(e hub.Event) error {
	if c.closed.Load() {
		return errConnClosed
	}
	f := proto.NewFrame(proto.TypeData, 0, 0, e.Marshal())
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := proto.EncodeFrame(c.conn, f); err != nil {
		c.close()
		return err
	}
	return nil
}

func (c *frameConn) close() {
	if c.closed.CompareAndSwap(false, true) {
		c.conn.Close()
	}
}

// ServeFrameStream registers conn as a subscriber and reads its frames
// until the peer goes away. PING is answered with an ACK; unknown frame
// types are tolerated and skipped; GOAWAY ends the stream.
func ServeFrameStream(h *hub.Hub, conn net.Conn) {
	c := newFrameConn(conn)
	h.OnOpen(c)
	defer h.OnClose(c)
	defer c.close()

	r := bufio.NewReader(conn)
	payloadBuf := make([]byte, 16*1024)
	for {
		f, err := proto.ReadFrame(r, payloadBuf)
		if err != nil {
			return
		}
		switch {
		case !f.Type.Known():
			// extension frame, skip
		case f.Type == proto.TypePing && !f.HasFlag(proto.FlagAck):
			ack := proto.NewFrame(proto.TypePing, proto.FlagAck, f.StreamID, append([]byte(nil), f.Payload...))
			c.mu.Lock()
			err := proto.EncodeFrame(conn, ack)
			c.mu.Unlock()
			if err != nil {
				return
			}
		case f.Type == proto.TypeGoAway:
			return
		}
	}
}
