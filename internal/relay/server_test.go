package relay

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/framecast/framecast/internal/protocol"
)

func startTestServer(t *testing.T, n *Node) (*Server, context.CancelFunc, chan error) {
	t.Helper()
	s := NewServer(n, ServerConfig{Address: "127.0.0.1", Port: 0})
	require.NoError(t, s.Listen())
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		_ = n.Shutdown(context.Background())
	})
	return s, cancel, errCh
}

func dialTestServer(t *testing.T, s *Server) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// dialAndWait dials and waits until the node admitted the session, so
// wire identifiers are deterministic across test clients.
func dialAndWait(t *testing.T, s *Server, n *Node, want int) net.Conn {
	t.Helper()
	conn := dialTestServer(t, s)
	require.Eventually(t, func() bool {
		return n.NumClients() == want
	}, 2*time.Second, 10*time.Millisecond)
	return conn
}

func sendMessage(t *testing.T, conn net.Conn, msg protocol.Message) {
	t.Helper()
	require.NoError(t, protocol.WriteFrame(conn, protocol.Encode(msg)))
}

func readMessage(t *testing.T, conn net.Conn) protocol.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	data, err := protocol.ReadFrame(conn, 0)
	require.NoError(t, err)
	msg, err := protocol.Decode(data)
	require.NoError(t, err)
	require.NoError(t, conn.SetReadDeadline(time.Time{}))
	return msg
}

func requireNoMessage(t *testing.T, conn net.Conn, wait time.Duration) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(wait)))
	_, err := protocol.ReadFrame(conn, 0)
	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	require.True(t, netErr.Timeout())
	require.NoError(t, conn.SetReadDeadline(time.Time{}))
}

func TestServerRelayBetweenTwoClients(t *testing.T) {
	n := newTestNode(0)
	s, _, _ := startTestServer(t, n)

	connA := dialAndWait(t, s, n, 1)
	connB := dialAndWait(t, s, n, 2)

	// The sender byte on the wire is ignored by the node.
	sendMessage(t, connA, protocol.Message{Kind: protocol.KindText, Sender: 9, Payload: []byte("hi")})

	got := readMessage(t, connB)
	require.Equal(t, protocol.KindText, got.Kind)
	require.Equal(t, uint8(1), got.Sender)
	require.Equal(t, []byte("hi"), got.Payload)

	// The sender never hears its own message back.
	requireNoMessage(t, connA, 300*time.Millisecond)

	// And the direction works in reverse.
	sendMessage(t, connB, protocol.Message{Kind: protocol.KindEvent, Payload: []byte("pong")})
	got = readMessage(t, connA)
	require.Equal(t, protocol.KindEvent, got.Kind)
	require.Equal(t, uint8(2), got.Sender)
	require.Equal(t, []byte("pong"), got.Payload)
}

func TestServerPeerDisconnect(t *testing.T) {
	n := newTestNode(0)
	s, _, _ := startTestServer(t, n)

	connA := dialAndWait(t, s, n, 1)
	connB := dialAndWait(t, s, n, 2)
	connC := dialAndWait(t, s, n, 3)

	require.NoError(t, connB.Close())
	require.Eventually(t, func() bool {
		return n.NumClients() == 2
	}, 2*time.Second, 10*time.Millisecond)

	sendMessage(t, connA, protocol.Message{Kind: protocol.KindText, Payload: []byte("still on")})
	got := readMessage(t, connC)
	require.Equal(t, uint8(1), got.Sender)
	require.Equal(t, []byte("still on"), got.Payload)
}

func TestServerMalformedFrameDisconnectsOnlySender(t *testing.T) {
	n := newTestNode(0)
	s, _, _ := startTestServer(t, n)

	connA := dialAndWait(t, s, n, 1)
	connB := dialAndWait(t, s, n, 2)
	connC := dialAndWait(t, s, n, 3)

	// Valid outer frame carrying an envelope with an unknown kind.
	require.NoError(t, protocol.WriteFrame(connA, []byte{0xFF, 0x00, 0x00, 0x00, 0x00, 0x00}))

	// Only the offender is dropped.
	require.NoError(t, connA.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err := protocol.ReadFrame(connA, 0)
	require.Error(t, err)
	require.Eventually(t, func() bool {
		return n.NumClients() == 2
	}, 2*time.Second, 10*time.Millisecond)

	sendMessage(t, connB, protocol.Message{Kind: protocol.KindSnapshot, Payload: []byte{1, 2, 3}})
	got := readMessage(t, connC)
	require.Equal(t, protocol.KindSnapshot, got.Kind)
	require.Equal(t, uint8(2), got.Sender)
}

func TestServerFrameSizeLimit(t *testing.T) {
	n := New(NodeConfig{Name: "test", MaxFrameSize: 64})
	s, _, _ := startTestServer(t, n)

	connA := dialAndWait(t, s, n, 1)
	dialAndWait(t, s, n, 2)

	sendMessage(t, connA, protocol.Message{Kind: protocol.KindText, Payload: make([]byte, 128)})

	require.NoError(t, connA.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err := protocol.ReadFrame(connA, 0)
	require.Error(t, err)
	require.Eventually(t, func() bool {
		return n.NumClients() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestServerRefusesOverConnectionLimit(t *testing.T) {
	n := newTestNode(1)
	s, _, _ := startTestServer(t, n)

	dialAndWait(t, s, n, 1)

	connB := dialTestServer(t, s)
	// The connection is accepted and immediately closed.
	require.NoError(t, connB.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err := protocol.ReadFrame(connB, 0)
	require.Error(t, err)
	require.Equal(t, 1, n.NumClients())
}

func TestServerShutdown(t *testing.T) {
	n := newTestNode(0)
	s, cancel, errCh := startTestServer(t, n)

	connA := dialAndWait(t, s, n, 1)

	cancel()
	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}

	ctx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	require.NoError(t, n.Shutdown(ctx))

	// The existing client observes an orderly close.
	require.NoError(t, connA.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err := protocol.ReadFrame(connA, 0)
	require.Error(t, err)

	// New connections are not accepted anymore.
	_, err = net.Dial("tcp", s.Addr().String())
	require.Error(t, err)
}

func TestServerListenAddressInUse(t *testing.T) {
	n := newTestNode(0)
	s1 := NewServer(n, ServerConfig{Address: "127.0.0.1", Port: 0})
	require.NoError(t, s1.Listen())
	defer func() { _ = s1.ln.Close() }()

	port := s1.Addr().(*net.TCPAddr).Port
	s2 := NewServer(n, ServerConfig{Address: "127.0.0.1", Port: port})
	require.Error(t, s2.Listen())
}
