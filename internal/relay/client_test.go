package relay

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/framecast/framecast/internal/protocol"
)

func TestSenderOverwrittenOnRelay(t *testing.T) {
	n := newTestNode(0)
	defer func() { _ = n.Shutdown(context.Background()) }()

	c1, mt1 := addTestClient(t, n)
	_, mt2 := addTestClient(t, n)

	// The wire sender byte is a lie, the node must replace it.
	spoofed := protocol.Encode(protocol.Message{Kind: protocol.KindText, Sender: 77, Payload: []byte("hi")})
	mt1.feed(spoofed)

	require.Eventually(t, func() bool {
		return len(mt2.writtenFrames()) == 1
	}, time.Second, 10*time.Millisecond)

	got, err := protocol.Decode(mt2.writtenFrames()[0])
	require.NoError(t, err)
	require.Equal(t, c1.ID(), got.Sender)
	require.Equal(t, protocol.KindText, got.Kind)
	require.Equal(t, []byte("hi"), got.Payload)
}

func TestSenderNotEchoedToItself(t *testing.T) {
	n := newTestNode(0)
	defer func() { _ = n.Shutdown(context.Background()) }()

	_, mt1 := addTestClient(t, n)
	_, mt2 := addTestClient(t, n)

	mt1.feed(protocol.Encode(protocol.Message{Kind: protocol.KindEvent, Payload: []byte("e")}))

	require.Eventually(t, func() bool {
		return len(mt2.writtenFrames()) == 1
	}, time.Second, 10*time.Millisecond)
	require.Empty(t, mt1.writtenFrames())
}

func TestMalformedFrameClosesSession(t *testing.T) {
	n := newTestNode(0)
	defer func() { _ = n.Shutdown(context.Background()) }()

	c1, mt1 := addTestClient(t, n)
	_, mt2 := addTestClient(t, n)

	// Unknown message kind.
	mt1.feed([]byte{0xAB, 0x00, 0x00, 0x00, 0x00, 0x00})

	require.Eventually(t, func() bool {
		return c1.State() == StateClosed
	}, time.Second, 10*time.Millisecond)
	require.True(t, mt1.isClosed())
	// Nothing was relayed.
	require.Empty(t, mt2.writtenFrames())
	require.Equal(t, 1, n.NumClients())
}

func TestPeerDisconnectLeavesOthersRunning(t *testing.T) {
	n := newTestNode(0)
	defer func() { _ = n.Shutdown(context.Background()) }()

	c1, mt1 := addTestClient(t, n)
	_, mt2 := addTestClient(t, n)
	_, mt3 := addTestClient(t, n)

	// Peer 1 goes away.
	require.NoError(t, mt1.Close())
	require.Eventually(t, func() bool {
		return c1.State() == StateClosed && n.NumClients() == 2
	}, time.Second, 10*time.Millisecond)

	// Relay between the remaining peers still works.
	mt2.feed(protocol.Encode(protocol.Message{Kind: protocol.KindText, Payload: []byte("still here")}))
	require.Eventually(t, func() bool {
		return len(mt3.writtenFrames()) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestCloseIsIdempotent(t *testing.T) {
	n := newTestNode(0)
	defer func() { _ = n.Shutdown(context.Background()) }()

	c, _ := addTestClient(t, n)

	require.NoError(t, c.Close("test"))
	require.Equal(t, StateClosed, c.State())
	require.NoError(t, c.Close("test"))
	require.Equal(t, StateClosed, c.State())
	require.Equal(t, 0, n.NumClients())
}

func TestSendAfterClose(t *testing.T) {
	n := newTestNode(0)
	defer func() { _ = n.Shutdown(context.Background()) }()

	c, _ := addTestClient(t, n)
	require.NoError(t, c.Close("test"))

	err := c.Send(protocol.Encode(protocol.Message{Kind: protocol.KindText}))
	require.ErrorIs(t, err, ErrClientClosed)
}

func TestStateString(t *testing.T) {
	require.Equal(t, "active", StateActive.String())
	require.Equal(t, "closing", StateClosing.String())
	require.Equal(t, "closed", StateClosed.String())
	require.Equal(t, "unknown", State(42).String())
}

func TestReadCloseReason(t *testing.T) {
	require.Equal(t, reasonPeerClosed, readCloseReason(io.EOF))
	require.Equal(t, reasonFrameTooLarge, readCloseReason(protocol.ErrFrameTooLarge))
	require.Equal(t, reasonProtocolViolation, readCloseReason(protocol.ErrMalformedFrame))
	require.Equal(t, reasonReadError, readCloseReason(context.DeadlineExceeded))
}
