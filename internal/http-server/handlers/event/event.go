package event

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"golang.org/x/exp/slog"

	"go-crash/internal/crash"
	"go-crash/internal/lib/logger/sl"
)

type Message struct {
	Channel string                 `json:"channel"`
	Event   string                 `json:"event"`
	Data    map[string]interface{} `json:"data"`
}

// WSEvent forwards engine events to the ws hub over a single client
// connection. Writes are serialized; gorilla connections do not allow
// concurrent writers.
type WSEvent struct {
	log  *slog.Logger
	mu   sync.Mutex
	conn *websocket.Conn
}

func NewWSEvent(log *slog.Logger, conn *websocket.Conn) *WSEvent {
	return &WSEvent{
		log:  log,
		conn: conn,
	}
}

func (p *WSEvent) Publish(ev crash.Event) error {
	const op = "handlers.event.WSEvent.Publish"

	msg, err := json.Marshal(Message{
		Channel: crash.Channel,
		Event:   ev.Name,
		Data:    ev.Data,
	})
	if err != nil {
		p.log.Error("failed to marshal message", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err = p.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		p.log.Error("failed to publish event", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
