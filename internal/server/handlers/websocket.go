// internal/server/handlers/websocket.go

package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"miniregion/internal/metrics"
)

// Subscriber subscribes to NATS subjects. *nats.Conn satisfies it.
type Subscriber interface {
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// WebSocketConfig contains configuration for WebSocket connections
type WebSocketConfig struct {
	// Time allowed to write a message to the peer
	WriteWait time.Duration

	// Time allowed to read the next pong message from the peer
	PongWait time.Duration

	// Send pings to peer with this period
	PingPeriod time.Duration

	// Maximum message size allowed from peer
	MaxMessageSize int64
}

// DefaultWebSocketConfig returns the default WebSocket configuration
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     (60 * time.Second * 9) / 10,
		MaxMessageSize: 512,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// refreshClient relays refresh events to one websocket peer
type refreshClient struct {
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	sub    *nats.Subscription
	config WebSocketConfig
	log    *zerolog.Logger
}

// RefreshWebSocketHandler streams restaurant refresh events to websocket
// clients. It answers 503 when no NATS connection is configured.
func RefreshWebSocketHandler(subscriber Subscriber, subject string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := zerolog.Ctx(r.Context())

		if subscriber == nil {
			respondWithError(w, r, http.StatusServiceUnavailable, "Refresh notifications are not available", nil)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("failed to upgrade to websocket")
			return
		}

		client := &refreshClient{
			conn:   conn,
			send:   make(chan []byte, 16),
			done:   make(chan struct{}),
			config: DefaultWebSocketConfig(),
			log:    log,
		}

		client.sub, err = subscriber.Subscribe(subject, client.enqueue)
		if err != nil {
			log.Error().Err(err).Str("subject", subject).Msg("failed to subscribe to refresh events")
			client.close()
			return
		}

		metrics.WebSocketClients.Inc()
		log.Debug().Str("remote", r.RemoteAddr).Msg("refresh websocket connected")

		welcome, _ := json.Marshal(map[string]interface{}{
			"type": "welcome",
			"time": time.Now(),
		})
		client.enqueue(&nats.Msg{Data: welcome})

		go client.writePump()
		go client.readPump()
	}
}

// enqueue hands a message to the write pump. Slow peers drop messages.
func (c *refreshClient) enqueue(msg *nats.Msg) {
	select {
	case <-c.done:
	case c.send <- msg.Data:
	default:
		c.log.Warn().Msg("websocket send buffer full, dropping refresh event")
	}
}

// readPump discards peer messages and detects disconnects
func (c *refreshClient) readPump() {
	defer c.close()

	c.conn.SetReadLimit(c.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn().Err(err).Msg("websocket error")
			}
			return
		}
	}
}

// writePump writes queued events and keepalive pings
func (c *refreshClient) writePump() {
	ticker := time.NewTicker(c.config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// close unsubscribes and closes the connection once
func (c *refreshClient) close() {
	c.once.Do(func() {
		close(c.done)
		if c.sub != nil {
			c.sub.Unsubscribe()
			metrics.WebSocketClients.Dec()
		}
		c.conn.Close()
		c.log.Debug().Msg("refresh websocket closed")
	})
}
