package agents

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/clawnad/backend/pkg/httpext"
	"github.com/clawnad/backend/pkg/sse"
)

const (
	wsReadLimit  = 1 << 20
	wsReadWait   = 60 * time.Second
	wsWriteWait  = 10 * time.Second
	wsCloseGrace = time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // In production, implement proper origin checking
	},
}

// wsFrame mirrors the SSE wire shape over the socket: content frames,
// error frames, and a final done frame.
type wsFrame struct {
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
	Done    bool   `json:"done,omitempty"`
}

// wsSink streams relay events as JSON frames on a websocket connection.
type wsSink struct {
	conn *websocket.Conn
}

func (s *wsSink) Send(ev sse.Event) error {
	s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	switch ev.Type {
	case sse.EventContent:
		return s.conn.WriteJSON(wsFrame{Content: ev.Content})
	case sse.EventError:
		return s.conn.WriteJSON(wsFrame{Error: ev.Message})
	case sse.EventDone:
		return s.conn.WriteJSON(wsFrame{Done: true})
	}
	return nil
}

// handleChatSocket serves one chat request per connection: the client
// sends a single ChatRequest JSON message, the agent streams frames
// back, then the server closes.
func handleChatSocket(agent *Descriptor, rt *Runtime) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Str("agent", agent.Name).Msg("WebSocket upgrade failed")
			return
		}
		defer conn.Close()

		conn.SetReadLimit(wsReadLimit)
		conn.SetReadDeadline(time.Now().Add(wsReadWait))

		var req ChatRequest
		if err := conn.ReadJSON(&req); err != nil {
			writeSocketError(conn, "Invalid request format")
			return
		}
		if err := httpext.Validate(&req); err != nil {
			writeSocketError(conn, "Validation error")
			return
		}

		log.Info().
			Str("agent", agent.Name).
			Int("message_count", len(req.Messages)).
			Msg("Agent chat socket starting")

		sink := &wsSink{conn: conn}
		rt.Relay.Stream(r.Context(), agent.Model, fullConversation(agent, req.Messages), chatMaxTokens,
			"[Demo mode] "+agent.Name+" would respond to this conversation.", sink)

		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		time.Sleep(wsCloseGrace)
	}
}

func writeSocketError(conn *websocket.Conn, message string) {
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	conn.WriteJSON(wsFrame{Error: message})
}
