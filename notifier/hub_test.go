package notifier

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, server *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "?userId=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestHub_RegistersAndDelivers(t *testing.T) {
	hub := NewHub()
	server := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer server.Close()

	conn := dialHub(t, server, "defender-1")
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Connected("defender-1") }, time.Second, 10*time.Millisecond)

	hub.NotifyNewMessage("defender-1", "assignment-1", "message-1")

	var payload struct {
		Event string            `json:"event"`
		Data  map[string]string `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&payload))
	assert.Equal(t, "new_message", payload.Event)
	assert.Equal(t, "assignment-1", payload.Data["assignmentID"])
	assert.Equal(t, "message-1", payload.Data["messageID"])
}

func TestHub_CleanCloseDeregisters(t *testing.T) {
	hub := NewHub()
	server := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer server.Close()

	conn := dialHub(t, server, "defender-1")
	require.Eventually(t, func() bool { return hub.Connected("defender-1") }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	assert.Eventually(t, func() bool { return !hub.Connected("defender-1") }, time.Second, 10*time.Millisecond)
	conn.Close()
}

func TestHub_AbruptDisconnectDeregisters(t *testing.T) {
	hub := NewHub()
	server := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer server.Close()

	conn := dialHub(t, server, "defender-1")
	require.Eventually(t, func() bool { return hub.Connected("defender-1") }, time.Second, 10*time.Millisecond)

	// Drop the TCP side without a close frame, like a crashed client. The
	// registration must not linger until a later send fails.
	require.NoError(t, conn.UnderlyingConn().Close())
	assert.Eventually(t, func() bool { return !hub.Connected("defender-1") }, time.Second, 10*time.Millisecond)
}
