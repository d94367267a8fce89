package client

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/framecast/framecast/internal/protocol"
	"github.com/framecast/framecast/internal/relay"
)

func startRelay(t *testing.T) (*relay.Node, string) {
	t.Helper()
	n := relay.New(relay.NodeConfig{Name: "test"})
	s := relay.NewServer(n, relay.ServerConfig{Address: "127.0.0.1", Port: 0})
	require.NoError(t, s.Listen())
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = s.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		_ = n.Shutdown(context.Background())
	})
	return n, s.Addr().String()
}

func connectClient(t *testing.T, n *relay.Node, addr string, want int) *Client {
	t.Helper()
	c, err := Connect(addr, Config{DialTimeout: 2 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	require.Eventually(t, func() bool {
		return n.NumClients() == want
	}, 2*time.Second, 10*time.Millisecond)
	return c
}

// waitForText blocks until exactly want text messages queued up, then
// drains them. Messages of one sender arrive in send order, so a text
// sent last doubles as an arrival barrier for everything before it.
func waitForText(t *testing.T, c *Client, want int) []protocol.Message {
	t.Helper()
	require.Eventually(t, func() bool {
		return c.Inbox().Len(protocol.KindText) >= want
	}, 2*time.Second, 10*time.Millisecond)
	msgs := c.Inbox().Drain(protocol.KindText)
	require.Len(t, msgs, want)
	return msgs
}

func TestClientSendReceive(t *testing.T) {
	n, addr := startRelay(t)

	c1 := connectClient(t, n, addr, 1)
	c2 := connectClient(t, n, addr, 2)

	require.NoError(t, c1.SendText([]byte("hi")))

	msgs := waitForText(t, c2, 1)
	require.Equal(t, uint8(1), msgs[0].Sender)
	require.Equal(t, []byte("hi"), msgs[0].Payload)

	// Nothing comes back to the sender.
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, 0, c1.Inbox().Len(protocol.KindText))
}

func TestClientEventOrdering(t *testing.T) {
	n, addr := startRelay(t)

	c1 := connectClient(t, n, addr, 1)
	c2 := connectClient(t, n, addr, 2)

	require.NoError(t, c1.SendEvent([]byte("e1")))
	require.NoError(t, c1.SendEvent([]byte("e2")))
	require.NoError(t, c1.SendEvent([]byte("e3")))
	require.NoError(t, c1.SendText([]byte("barrier")))

	waitForText(t, c2, 1)
	events := c2.Inbox().Drain(protocol.KindEvent)
	require.Len(t, events, 3)
	require.Equal(t, []byte("e1"), events[0].Payload)
	require.Equal(t, []byte("e2"), events[1].Payload)
	require.Equal(t, []byte("e3"), events[2].Payload)
}

func TestClientSnapshotCoalescing(t *testing.T) {
	n, addr := startRelay(t)

	c1 := connectClient(t, n, addr, 1)
	c2 := connectClient(t, n, addr, 2)

	require.NoError(t, c1.SendSnapshot([]byte("s1")))
	require.NoError(t, c1.SendSnapshot([]byte("s2")))
	require.NoError(t, c1.SendSnapshot([]byte("s3")))
	require.NoError(t, c1.SendText([]byte("barrier")))

	waitForText(t, c2, 1)
	snapshots := c2.Inbox().Drain(protocol.KindSnapshot)
	require.Len(t, snapshots, 1)
	require.Equal(t, uint8(1), snapshots[0].Sender)
	require.Equal(t, []byte("s3"), snapshots[0].Payload)
}

func TestClientSnapshotPerSender(t *testing.T) {
	n, addr := startRelay(t)

	c1 := connectClient(t, n, addr, 1)
	c2 := connectClient(t, n, addr, 2)
	c3 := connectClient(t, n, addr, 3)

	require.NoError(t, c1.SendSnapshot([]byte("from 1")))
	require.NoError(t, c1.SendText([]byte("barrier 1")))
	require.NoError(t, c2.SendSnapshot([]byte("from 2")))
	require.NoError(t, c2.SendText([]byte("barrier 2")))

	waitForText(t, c3, 2)
	snapshots := c3.Inbox().Drain(protocol.KindSnapshot)
	require.Len(t, snapshots, 2)
	require.Equal(t, uint8(1), snapshots[0].Sender)
	require.Equal(t, []byte("from 1"), snapshots[0].Payload)
	require.Equal(t, uint8(2), snapshots[1].Sender)
	require.Equal(t, []byte("from 2"), snapshots[1].Payload)
}

func TestClientDoneOnServerShutdown(t *testing.T) {
	n, addr := startRelay(t)

	c := connectClient(t, n, addr, 1)
	require.NoError(t, n.Shutdown(context.Background()))

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("client did not observe shutdown")
	}
	require.ErrorIs(t, c.Err(), io.EOF)
}

func TestClientCloseIdempotent(t *testing.T) {
	n, addr := startRelay(t)

	c := connectClient(t, n, addr, 1)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("client did not finish closing")
	}
	require.NoError(t, c.Err())
}

func TestClientConnectFailure(t *testing.T) {
	_, err := Connect("127.0.0.1:1", Config{DialTimeout: 500 * time.Millisecond})
	require.Error(t, err)
}

func TestClientSendInvalidKind(t *testing.T) {
	n, addr := startRelay(t)
	c := connectClient(t, n, addr, 1)
	require.Error(t, c.Send(protocol.Kind(9), []byte("x")))
}
