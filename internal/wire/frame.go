// Package wire implements the fixed-size frame codec described in the
// protocol spec: every message is exactly protocol.FrameSize bytes,
// network byte order, one frame per logical message. A short read or
// write is always returned as a fatal error for the caller to act on (close
// the connection); errors from this package carry no orcherr kind, and it
// never retries partial I/O itself.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ahmadhassan44/distributed-lxc/pkg/protocol"
)

// Frame is the decoded, in-memory form of one envelope.
type Frame struct {
	Type        protocol.MessageType
	SenderID    string
	RecipientID string
	Payload     []byte
}

// Encode serializes f into a protocol.FrameSize-byte buffer. It returns an
// error if either ID exceeds protocol.IDFieldSize or the payload exceeds
// protocol.MaxPayload — the caller asked for something this wire format
// cannot carry in one frame.
func Encode(f Frame) ([]byte, error) {
	if len(f.SenderID) > protocol.IDFieldSize {
		return nil, fmt.Errorf("wire: sender id %q exceeds %d bytes", f.SenderID, protocol.IDFieldSize)
	}
	if len(f.RecipientID) > protocol.IDFieldSize {
		return nil, fmt.Errorf("wire: recipient id %q exceeds %d bytes", f.RecipientID, protocol.IDFieldSize)
	}
	if len(f.Payload) > protocol.MaxPayload {
		return nil, fmt.Errorf("wire: payload of %d bytes exceeds max %d", len(f.Payload), protocol.MaxPayload)
	}

	buf := make([]byte, protocol.FrameSize)
	buf[0] = byte(f.Type)

	off := 1
	copy(buf[off:off+protocol.IDFieldSize], f.SenderID)
	off += protocol.IDFieldSize
	copy(buf[off:off+protocol.IDFieldSize], f.RecipientID)
	off += protocol.IDFieldSize

	binary.BigEndian.PutUint32(buf[off:off+4], uint32(len(f.Payload)))
	off += 4

	copy(buf[off:], f.Payload)

	return buf, nil
}

// Decode parses a protocol.FrameSize-byte buffer back into a Frame. It
// returns an error if buf is the wrong length or data_length overruns the
// payload region — both indicate a corrupt or truncated frame.
func Decode(buf []byte) (Frame, error) {
	if len(buf) != protocol.FrameSize {
		return Frame{}, fmt.Errorf("wire: frame must be %d bytes, got %d", protocol.FrameSize, len(buf))
	}

	f := Frame{Type: protocol.MessageType(buf[0])}

	off := 1
	f.SenderID = cstring(buf[off : off+protocol.IDFieldSize])
	off += protocol.IDFieldSize
	f.RecipientID = cstring(buf[off : off+protocol.IDFieldSize])
	off += protocol.IDFieldSize

	dataLen := binary.BigEndian.Uint32(buf[off : off+4])
	off += 4

	maxLen := uint32(len(buf) - off)
	if dataLen > maxLen {
		return Frame{}, fmt.Errorf("wire: data_length %d exceeds payload region %d", dataLen, maxLen)
	}

	f.Payload = append([]byte(nil), buf[off:off+int(dataLen)]...)
	return f, nil
}

// cstring trims a NUL-padded fixed-width field down to its content.
func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// WriteFrame encodes f and writes it to w in a single call. Any error,
// including a short write, is fatal to the connection: the caller should
// close it.
func WriteFrame(w io.Writer, f Frame) error {
	buf, err := Encode(f)
	if err != nil {
		return err
	}
	n, err := w.Write(buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return fmt.Errorf("wire: short write (%d of %d bytes)", n, len(buf))
	}
	return nil
}

// ReadFrame reads exactly one protocol.FrameSize-byte frame from r. A
// short read (including io.EOF before a full frame arrives) is reported as
// an error; the caller must treat it as a fatal connection error and close
// the connection rather than try to resynchronize.
func ReadFrame(r io.Reader) (Frame, error) {
	buf := make([]byte, protocol.FrameSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Frame{}, err
	}
	return Decode(buf)
}
