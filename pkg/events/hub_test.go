package events

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConnPair(t *testing.T) (server, client *websocket.Conn) {
	t.Helper()

	upgrader := websocket.Upgrader{}
	serverConns := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		serverConns <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil) // nolint:bodyclose
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Close()
	})

	return <-serverConns, client
}

func TestHub_Publish(t *testing.T) {
	hub := NewHub(logrus.StandardLogger())
	server, client := testConnPair(t)

	hub.Register("game-1", server)
	assert.Equal(t, 1, hub.Listeners("game-1"))

	hub.Publish("game-1", Event{
		Type:      TypeStateUpdated,
		GameID:    "game-1",
		UpdatedAt: time.Now(),
	})

	var got Event
	require.NoError(t, client.ReadJSON(&got))
	assert.Equal(t, TypeStateUpdated, got.Type)
	assert.Equal(t, "game-1", got.GameID)

	hub.Unregister("game-1", server)
	assert.Equal(t, 0, hub.Listeners("game-1"))
}

func TestHub_PublishDropsDeadConnections(t *testing.T) {
	hub := NewHub(logrus.StandardLogger())
	server, client := testConnPair(t)

	hub.Register("game-1", server)
	require.NoError(t, client.Close())
	require.NoError(t, server.Close())

	hub.Publish("game-1", Event{Type: TypeStateUpdated, GameID: "game-1"})
	assert.Equal(t, 0, hub.Listeners("game-1"))
}

func TestHub_PublishOtherTopic(t *testing.T) {
	hub := NewHub(logrus.StandardLogger())
	server, client := testConnPair(t)

	hub.Register("game-1", server)
	hub.Publish("game-2", Event{Type: TypeStateUpdated, GameID: "game-2"})

	require.NoError(t, client.SetReadDeadline(time.Now().Add(50*time.Millisecond)))
	var got Event
	assert.Error(t, client.ReadJSON(&got))
}
