package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyz-njeri/Jigsaw-game/config"
)

func dialWebSocket(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketReceivesPublishedEvents(t *testing.T) {
	srv := newTestServer(t, config.ServerConfig{})
	srv.wg.Add(1)
	go srv.run()

	ts := httptest.NewServer(http.HandlerFunc(srv.handleWebSocket))
	defer ts.Close()

	conn := dialWebSocket(t, ts)

	// Give the hub time to register the client before fanning out.
	time.Sleep(50 * time.Millisecond)

	srv.publish(&Event{Type: "hint", SessionID: "sess-1", Data: "payload"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Event
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "hint", got.Type)
	assert.Equal(t, "sess-1", got.SessionID)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
}

func TestWebSocketSubscriptionFiltersSessions(t *testing.T) {
	srv := newTestServer(t, config.ServerConfig{})
	srv.wg.Add(1)
	go srv.run()

	ts := httptest.NewServer(http.HandlerFunc(srv.handleWebSocket))
	defer ts.Close()

	conn := dialWebSocket(t, ts)
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "subscribe", SessionID: "mine"}))
	time.Sleep(50 * time.Millisecond)

	srv.publish(&Event{Type: "progress", SessionID: "other"})
	srv.publish(&Event{Type: "progress", SessionID: "mine"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Event
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "mine", got.SessionID, "events for other sessions must be filtered out")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
}

func TestDisconnectDoesNotBlockAfterShutdown(t *testing.T) {
	srv := newTestServer(t, config.ServerConfig{})

	// Plain upgrade handler: no hub involvement, we drive the client by hand.
	connCh := make(chan *websocket.Conn, 1)
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		assert.NoError(t, err)
		connCh <- conn
	}))
	defer ts.Close()

	dialWebSocket(t, ts)
	serverConn := <-connCh

	client := &Client{
		server: srv,
		conn:   serverConn,
		send:   make(chan *Event),
		id:     "shutdown-test",
	}

	// Hub already gone: nothing will ever read from unregister.
	srv.cancel()

	done := make(chan struct{})
	go func() {
		client.disconnect()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disconnect blocked on unregister after hub shutdown")
	}
}
