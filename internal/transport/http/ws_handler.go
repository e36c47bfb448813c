package http

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"kanjizoo/internal/game"
)

// WSHandler upgrades connections and bridges them into the game session:
// inbound frames become session commands, the hub carries events back out.
type WSHandler struct {
	session  *game.Session
	hub      *Hub
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewWSHandler(session *game.Session, hub *Hub, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		session: session,
		hub:     hub,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type joinPayload struct {
	Name string `json:"name"`
}

type answerPayload struct {
	OptionID string `json:"optionId"`
}

// ServeWS handles one websocket connection for its full lifetime. Malformed
// frames are dropped, never answered with an error: a confused client must
// not be able to disturb the game.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	connID := uuid.NewString()
	h.hub.register(connID, conn)
	h.log.Debug().Str("conn", connID).Msg("websocket connected")

	defer func() {
		h.hub.unregister(connID)
		h.session.Leave(connID)
		h.log.Debug().Str("conn", connID).Msg("websocket disconnected")
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}

		switch inbound.Type {
		case "join":
			var payload joinPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Name == "" {
				continue
			}
			h.session.Join(connID, payload.Name)
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				continue
			}
			h.session.Answer(connID, payload.OptionID)
		case "hostStartGame":
			h.session.StartGame()
		case "hostPauseGame":
			h.session.PauseGame()
		case "hostResumeGame":
			h.session.ResumeGame()
		case "hostStopGame", "hostResetGame":
			h.session.StopGame()
		default:
			h.log.Debug().Str("conn", connID).Str("type", inbound.Type).Msg("unsupported message type")
		}
	}
}
