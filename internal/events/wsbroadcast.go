package events

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const sendBufferSize = 256

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wireEvent is the JSON envelope every record is broadcast as.
type wireEvent struct {
	Kind string `json:"kind"`
	Data any    `json:"data"`
}

// wsClient is one subscribed websocket connection and its outbound queue.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// WSBroadcaster is an EventSink that fans every record out to every
// currently-connected websocket subscriber via a register/unregister/
// broadcast hub.
type WSBroadcaster struct {
	log zerolog.Logger

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

// NewWSBroadcaster returns an empty hub. ServeHTTP upgrades new subscribers.
func NewWSBroadcaster(log zerolog.Logger) *WSBroadcaster {
	return &WSBroadcaster{
		log:     log.With().Str("component", "ws_broadcast").Logger(),
		clients: make(map[*wsClient]struct{}),
	}
}

// ServeHTTP upgrades the request to a websocket and registers it as a
// subscriber until it disconnects.
func (b *WSBroadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	c := &wsClient{conn: conn, send: make(chan []byte, sendBufferSize)}

	b.mu.Lock()
	b.clients[c] = struct{}{}
	b.mu.Unlock()

	go b.writePump(c)
	go b.readPump(c)
}

func (b *WSBroadcaster) readPump(c *wsClient) {
	defer b.drop(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (b *WSBroadcaster) writePump(c *wsClient) {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (b *WSBroadcaster) drop(c *wsClient) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		close(c.send)
	}
}

func (b *WSBroadcaster) broadcast(kind string, data any) {
	payload, err := json.Marshal(wireEvent{Kind: kind, Data: data})
	if err != nil {
		b.log.Error().Err(err).Str("kind", kind).Msg("failed to encode event")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		select {
		case c.send <- payload:
		default:
			// Slow consumer: drop rather than block the engine's call path.
			b.log.Warn().Str("kind", kind).Msg("dropping event for slow subscriber")
		}
	}
}

func (b *WSBroadcaster) OrderPlaced(e OrderPlaced)     { b.broadcast("order_placed", e) }
func (b *WSBroadcaster) OrderMatched(e OrderMatched)   { b.broadcast("order_matched", e) }
func (b *WSBroadcaster) OrderCanceled(e OrderCanceled) { b.broadcast("order_canceled", e) }
func (b *WSBroadcaster) MarketClosed(e MarketClosed)   { b.broadcast("market_closed", e) }
func (b *WSBroadcaster) BetRefunded(e BetRefunded)     { b.broadcast("bet_refunded", e) }
func (b *WSBroadcaster) RewardDistributed(e RewardDistributed) {
	b.broadcast("reward_distributed", e)
}
func (b *WSBroadcaster) StatusCounterUpdated(e StatusCounterUpdated) {
	b.broadcast("status_counter_updated", e)
}
