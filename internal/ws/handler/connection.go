package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"golang.org/x/exp/slog"

	"go-crash/internal/lib/logger/sl"
)

type Message struct {
	Channel string                 `json:"channel"`
	Event   string                 `json:"event"`
	Data    map[string]interface{} `json:"data"`
}

type Subscription struct {
	Conn    *websocket.Conn
	Channel string
}

// Hub relays published messages to channel subscribers. It also keeps a
// per-channel view of the live round so a late joiner gets the current
// phase, multiplier and round id on subscribe rather than a replay of
// history.
type Hub struct {
	Channels  map[string]map[*websocket.Conn]bool
	Broadcast chan Message
	Subscribe chan Subscription
	snapshots map[string]map[string]interface{}
	log       *slog.Logger
}

func NewHub(
	log *slog.Logger,
) *Hub {
	return &Hub{
		Channels:  make(map[string]map[*websocket.Conn]bool),
		Broadcast: make(chan Message),
		Subscribe: make(chan Subscription),
		snapshots: make(map[string]map[string]interface{}),
		log:       log,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func (hub *Hub) run() {
	for {
		select {
		case sub := <-hub.Subscribe:
			if hub.Channels[sub.Channel] == nil {
				hub.Channels[sub.Channel] = make(map[*websocket.Conn]bool)
			}
			hub.Channels[sub.Channel][sub.Conn] = true

			hub.sendSnapshot(sub)
		case message := <-hub.Broadcast:
			hub.updateSnapshot(message)

			receivers, ok := hub.Channels[message.Channel]
			if !ok {
				continue
			}

			data, err := json.Marshal(message)
			if err != nil {
				hub.log.Error("failed to marshal message", sl.Err(err))

				continue
			}

			for conn := range receivers {
				if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
					hub.log.Error("failed to write message", sl.Err(err))

					conn.Close()
					delete(receivers, conn)
				}
			}
		}
	}
}

// updateSnapshot folds lifecycle events into the channel's current-state
// view.
func (hub *Hub) updateSnapshot(message Message) {
	snap, ok := hub.snapshots[message.Channel]
	if !ok {
		snap = make(map[string]interface{})
		hub.snapshots[message.Channel] = snap
	}

	switch message.Event {
	case "betting-open":
		snap["phase"] = "betting"
		snap["round_id"] = message.Data["round_id"]
		snap["seed_hash"] = message.Data["seed_hash"]
		snap["multiplier"] = 1.0
	case "flight-started":
		snap["phase"] = "flight"
	case "multiplier-update":
		snap["multiplier"] = message.Data["multiplier"]
	case "crashed":
		snap["phase"] = "crashed"
		snap["multiplier"] = message.Data["multiplier"]
	}
}

func (hub *Hub) sendSnapshot(sub Subscription) {
	snap, ok := hub.snapshots[sub.Channel]
	if !ok {
		return
	}

	data, err := json.Marshal(Message{
		Channel: sub.Channel,
		Event:   "snapshot",
		Data:    snap,
	})
	if err != nil {
		hub.log.Error("failed to marshal snapshot", sl.Err(err))

		return
	}

	if err := sub.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
		hub.log.Error("failed to send snapshot", sl.Err(err))
	}
}

func (hub *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.log.Error("failed to upgrade connection", sl.Err(err))

		return
	}
	defer func(ws *websocket.Conn) {
		err = ws.Close()
		if err != nil {
			hub.log.Error("failed to close connection", sl.Err(err))
		}
	}(ws)

	subscribed := make(map[string]bool)

	if room := r.URL.Query().Get("room"); room != "" {
		hub.Subscribe <- Subscription{Conn: ws, Channel: room}
		subscribed[room] = true
	}

	for {
		_, p, err := ws.ReadMessage()
		if err != nil {
			return
		}

		var message Message

		err = json.Unmarshal(p, &message)
		if err != nil {
			hub.log.Error("failed to unmarshal message", sl.Err(err))

			continue
		}

		hub.log.Info("incoming message", sl.String("channel", message.Channel),
			sl.String("event", message.Event))

		if !subscribed[message.Channel] {
			hub.Subscribe <- Subscription{Conn: ws, Channel: message.Channel}
			subscribed[message.Channel] = true
		}

		hub.Broadcast <- message
	}
}

func (hub *Hub) RunServer() {
	go hub.run()
}
