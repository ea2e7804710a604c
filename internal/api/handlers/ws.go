package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/wonny/chartguess/internal/game"
	"github.com/wonny/chartguess/internal/series"
	"github.com/wonny/chartguess/pkg/logger"
)

// WSHandler plays the game over a websocket. Each connection owns one
// session; reveal windows are pushed as full replacements.
// ⭐ SSOT: 웹소켓 플레이 루프는 여기서만
type WSHandler struct {
	newSession func() *game.Session
	logger     *logger.Logger
	upgrader   websocket.Upgrader
}

// NewWSHandler creates a new websocket play handler
func NewWSHandler(factory func() *game.Session, log *logger.Logger) *WSHandler {
	return &WSHandler{
		newSession: factory,
		logger:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// wsCommand is one inbound message on the play socket
type wsCommand struct {
	Action    string `json:"action"` // start | guess | state
	Symbol    string `json:"symbol,omitempty"`
	Direction string `json:"direction,omitempty"`
}

// wsReply wraps a result or error for the client
type wsReply struct {
	OK     bool         `json:"ok"`
	Error  string       `json:"error,omitempty"`
	Result *game.Result `json:"result,omitempty"`
}

// Play upgrades the connection and runs the read loop
// GET /api/game/ws
func (h *WSHandler) Play(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Error("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	h.logger.WithField("remote", conn.RemoteAddr().String()).Debug("Play socket connected")

	// One session per connection; messages on a single socket arrive
	// sequentially, which preserves the engine's single-writer model
	session := h.newSession()

	for {
		var cmd wsCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			h.logger.WithError(err).Debug("Play socket read failed")
			return
		}

		reply := h.dispatch(r, session, cmd)
		if err := conn.WriteJSON(reply); err != nil {
			h.logger.WithError(err).Debug("Play socket write failed")
			return
		}
	}
}

// dispatch executes one command against the connection's session
func (h *WSHandler) dispatch(r *http.Request, session *game.Session, cmd wsCommand) wsReply {
	switch cmd.Action {
	case "start":
		if cmd.Symbol == "" {
			return wsReply{Error: "symbol is required"}
		}
		result, err := session.Start(r.Context(), cmd.Symbol)
		if err != nil {
			return wsReply{Error: userMessage(err)}
		}
		return wsReply{OK: true, Result: result}

	case "guess":
		direction, err := game.ParseDirection(cmd.Direction)
		if err != nil {
			return wsReply{Error: err.Error()}
		}
		return wsReply{OK: true, Result: session.Guess(direction)}

	case "state":
		return wsReply{OK: true, Result: session.State()}

	default:
		return wsReply{Error: "unknown action (valid: start, guess, state)"}
	}
}

// userMessage maps engine errors onto the status text shown to players
func userMessage(err error) string {
	var de *series.DataError
	if errors.As(err, &de) {
		switch de.Kind {
		case series.DataNotFound:
			return "Unknown ticker symbol"
		case series.DataRateLimited:
			return "Data provider is throttling. Wait a minute and try again."
		default:
			return "Data provider returned a malformed payload"
		}
	}
	if errors.Is(err, series.ErrNoCandidate) || errors.Is(err, game.ErrInsufficientHistory) {
		return "Insufficient history for this symbol"
	}
	return "Failed to start game"
}
