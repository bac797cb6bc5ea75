package websocket_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/taskboard/internal/domain/id"
	ws "github.com/lllypuk/taskboard/internal/infrastructure/websocket"
)

const (
	waitReceive = 500 * time.Millisecond
	waitSilence = 50 * time.Millisecond
)

// createWSConnPair returns the server and client ends of a real connection.
func createWSConnPair(t *testing.T) (*websocket.Conn, *websocket.Conn) {
	t.Helper()

	upgrader := websocket.Upgrader{
		CheckOrigin: func(_ *http.Request) bool { return true },
	}
	serverChan := make(chan *websocket.Conn, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverChan <- conn
	}))
	t.Cleanup(server.Close)

	clientConn, resp, err := websocket.DefaultDialer.Dial("ws"+server.URL[4:], nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	select {
	case serverConn := <-serverChan:
		t.Cleanup(func() {
			_ = serverConn.Close()
			_ = clientConn.Close()
		})
		return serverConn, clientConn
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for server connection")
		return nil, nil
	}
}

// newReadingClient registers a client on the running hub and returns what
// the remote end receives.
func newReadingClient(t *testing.T, hub *ws.Hub, boardID id.ID) (*ws.Client, chan []byte) {
	t.Helper()

	serverConn, clientConn := createWSConnPair(t)
	client := ws.NewClient(hub, serverConn, id.New(), boardID)
	received := make(chan []byte, 10)

	go func() {
		for {
			_, msg, err := clientConn.ReadMessage()
			if err != nil {
				return
			}
			received <- msg
		}
	}()
	go client.WritePump()

	hub.Register(client)
	return client, received
}

func runHub(t *testing.T) *ws.Hub {
	t.Helper()

	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	require.Eventually(t, hub.IsRunning, time.Second, 5*time.Millisecond)
	return hub
}

func receive(t *testing.T, ch chan []byte) []byte {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(waitReceive):
		t.Fatal("expected to receive message but did not")
		return nil
	}
}

func assertNotReceived(t *testing.T, ch chan []byte) {
	t.Helper()
	select {
	case msg := <-ch:
		t.Errorf("expected no message but received: %s", string(msg))
	case <-time.After(waitSilence):
	}
}
