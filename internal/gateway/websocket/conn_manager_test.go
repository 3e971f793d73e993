package websocket

import (
	"context"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		uid, _ := strconv.Atoi(c.Query("uid"))
		hub.ServeWS(c, uint(uid))
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, uid int) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?uid=" + strconv.Itoa(uid)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHub_PushToOnlineUser(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Start(ctx)

	srv := newTestServer(t, hub)
	conn := dial(t, srv, 42)

	require.Eventually(t, func() bool { return hub.Online(42) }, 2*time.Second, 10*time.Millisecond)
	assert.False(t, hub.Online(7))
	assert.False(t, hub.Push(7, []byte("nobody")))

	require.True(t, hub.Push(42, []byte(`{"title":"hello"}`)))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"hello"}`, string(msg))
}

func TestHub_MultipleConnectionsAndLogout(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Start(ctx)

	srv := newTestServer(t, hub)
	c1 := dial(t, srv, 5)
	c2 := dial(t, srv, 5)

	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients[5]) == 2
	}, 2*time.Second, 10*time.Millisecond)

	require.True(t, hub.Push(5, []byte("x")))
	for _, c := range []*websocket.Conn{c1, c2} {
		_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := c.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, "x", string(msg))
	}

	require.NoError(t, c1.Close())
	require.NoError(t, c2.Close())
	require.Eventually(t, func() bool { return !hub.Online(5) }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	hub := NewHub()
	stopped := make(chan struct{})
	go func() {
		hub.Start(context.Background())
		close(stopped)
	}()

	srv := newTestServer(t, hub)
	conn := dial(t, srv, 1)
	require.Eventually(t, func() bool { return hub.Online(1) }, 2*time.Second, 10*time.Millisecond)

	hub.Close()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}
	assert.False(t, hub.Online(1))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
