package mux

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	pongWait   = time.Second * 60
	pingPeriod = pongWait * 9 / 10
	writeWait  = time.Second * 10
)

// getGameUUIDWS subscribes the caller to the game's event stream. The
// connection is read-only from the client's perspective; actions still go
// through POST so they share one validation path.
func (m *Mux) getGameUUIDWS() http.HandlerFunc {
	upgrader := &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			m.logger.WithError(err).Error("could not upgrade connection")
			return
		}

		gameID := gameUUID(r)
		viewerID := playerID(r)

		m.hub.Register(gameID, conn)
		if err := m.dealer.SetConnected(r.Context(), viewerID, true); err != nil {
			m.logger.WithError(err).Warn("could not mark player connected")
		}

		// a subscriber observes the live turn so a timeout is armed even
		// if the server restarted since the last action
		cancelObserve, err := m.dealer.ObserveTurn(r.Context(), gameID)
		if err != nil {
			m.logger.WithError(err).Warn("could not observe turn")
			cancelObserve = func() {}
		}

		defer func() {
			cancelObserve()
			m.hub.Unregister(gameID, conn)
			_ = conn.Close()

			// the request context is gone once the client disconnects
			ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
			defer cancel()
			if err := m.dealer.SetConnected(ctx, viewerID, false); err != nil {
				m.logger.WithError(err).Warn("could not mark player disconnected")
			}
		}()

		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})

		stop := make(chan struct{})
		defer close(stop)
		go pingLoop(conn, pingPeriod, stop)

		// drain until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					m.logger.WithError(err).Debug("websocket closed unexpectedly")
				}

				return
			}
		}
	}
}

// pingLoop keeps idle subscriptions from hitting the read deadline. Pings go
// out as control frames, which gorilla permits concurrently with the hub's
// event writes on the same connection.
func pingLoop(conn *websocket.Conn, period time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
