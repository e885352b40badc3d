package wire

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ahmadhassan44/distributed-lxc/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []Frame{
		{Type: protocol.RegisterNode, SenderID: "w1", RecipientID: "coordinator", Payload: []byte("host 10.0.0.1 9001")},
		{Type: protocol.Ack, SenderID: "coordinator", RecipientID: "w1", Payload: []byte("registered")},
		{Type: protocol.NodeHeartbeat, SenderID: "w1", RecipientID: "coordinator", Payload: []byte{}},
		{Type: protocol.DeployContainer, SenderID: "coordinator", RecipientID: "w1", Payload: bytes.Repeat([]byte("x"), protocol.MaxPayload)},
	}

	for _, c := range cases {
		buf, err := Encode(c)
		require.NoError(t, err)
		assert.Len(t, buf, protocol.FrameSize)

		got, err := Decode(buf)
		require.NoError(t, err)
		assert.Equal(t, c.Type, got.Type)
		assert.Equal(t, c.SenderID, got.SenderID)
		assert.Equal(t, c.RecipientID, got.RecipientID)
		assert.True(t, bytes.Equal(c.Payload, got.Payload))
	}
}

func TestEncodeRejectsOversizedPayload(t *testing.T) {
	_, err := Encode(Frame{Payload: bytes.Repeat([]byte("x"), protocol.MaxPayload+1)})
	assert.Error(t, err)
}

func TestEncodeRejectsOversizedID(t *testing.T) {
	_, err := Encode(Frame{SenderID: strings.Repeat("a", protocol.IDFieldSize+1)})
	assert.Error(t, err)
}

func TestDecodeRejectsWrongLength(t *testing.T) {
	_, err := Decode(make([]byte, protocol.FrameSize-1))
	assert.Error(t, err)
}

func TestDecodeRejectsOverrunDataLength(t *testing.T) {
	buf := make([]byte, protocol.FrameSize)
	// data_length is set to 0xFFFFFFFF, far beyond the payload region.
	buf[1+protocol.IDFieldSize*2] = 0xFF
	buf[1+protocol.IDFieldSize*2+1] = 0xFF
	buf[1+protocol.IDFieldSize*2+2] = 0xFF
	buf[1+protocol.IDFieldSize*2+3] = 0xFF
	_, err := Decode(buf)
	assert.Error(t, err)
}

func TestWriteReadFrame(t *testing.T) {
	var buf bytes.Buffer
	f := Frame{Type: protocol.Ack, SenderID: "coordinator", RecipientID: "w1", Payload: []byte("ok")}

	require.NoError(t, WriteFrame(&buf, f))

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, f.Type, got.Type)
	assert.Equal(t, f.Payload, got.Payload)
}

func TestReadFrameShortReadIsError(t *testing.T) {
	buf := bytes.NewReader(make([]byte, 10))
	_, err := ReadFrame(buf)
	assert.Error(t, err)
}
