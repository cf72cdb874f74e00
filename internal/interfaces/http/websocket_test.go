package http

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukapulse/dukapulse/internal/application"
	"github.com/dukapulse/dukapulse/internal/domain/snapshot"
)

func dialHub(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketSendsLatestOnConnect(t *testing.T) {
	s, engine := newTestServer(t)
	s.hub.Run()
	t.Cleanup(s.hub.Stop)

	conn := dialHub(t, s)

	var res application.Result
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&res))

	assert.Equal(t, engine.Latest().Tick, res.Tick)
	assert.NotEmpty(t, res.Alerts)
}

func TestWebSocketReceivesNewTicks(t *testing.T) {
	s, engine := newTestServer(t)
	s.hub.Run()
	t.Cleanup(s.hub.Stop)

	conn := dialHub(t, s)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var first application.Result
	require.NoError(t, conn.ReadJSON(&first))

	snap := snapshot.Snapshot{Sales: snapshot.SalesMetrics{Today: 90000}}
	next := engine.Evaluate(snap, time.Date(2026, 3, 10, 15, 1, 0, 0, time.UTC))

	var second application.Result
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, next.Tick, second.Tick)
}

func TestWebSocketClientGaugeTracksDisconnect(t *testing.T) {
	s, _ := newTestServer(t)
	s.hub.Run()
	t.Cleanup(s.hub.Stop)

	conn := dialHub(t, s)
	conn.Close()

	// The reader loop notices the close asynchronously.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s.hub.mu.Lock()
		n := len(s.hub.clients)
		s.hub.mu.Unlock()
		if n == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("client not dropped after disconnect")
}
