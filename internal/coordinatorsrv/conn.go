package coordinatorsrv

import (
	"net"
	"sync"

	"github.com/ahmadhassan44/distributed-lxc/internal/wire"
	"github.com/ahmadhassan44/distributed-lxc/pkg/protocol"
)

// workerConn wraps an accepted connection and serializes writes to it. The
// registry holds it only through the model.Conn interface and clears its
// reference on disconnect; this type owns the socket.
type workerConn struct {
	mu   sync.Mutex
	conn net.Conn
	self string // coordinator's own id, used as SenderID on outbound frames
	peer string // the registered worker's id, used as RecipientID
}

// Send implements model.Conn. It is safe for concurrent use: coordinator
// operator commands and protocol replies may both write to the same
// connection.
func (c *workerConn) Send(msgType uint8, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return wire.WriteFrame(c.conn, wire.Frame{
		Type:        protocol.MessageType(msgType),
		SenderID:    c.self,
		RecipientID: c.peer,
		Payload:     payload,
	})
}

// Close implements model.Conn. The registry calls this from
// MarkDisconnected so the accept goroutine's blocked ReadFrame returns with
// an error instead of leaking.
func (c *workerConn) Close() error {
	return c.conn.Close()
}
