package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quiz-arena-service/internal/arena"
	"quiz-arena-service/internal/domain"
)

// WSHandler upgrades connections and dispatches arena events. Each inbound
// message is validated into its tagged payload type before it reaches the
// service; malformed input earns the sender an error_msg and nothing else.
type WSHandler struct {
	service  *arena.Service
	hub      *Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewWSHandler(service *arena.Service, hub *Hub, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		service: service,
		hub:     hub,
		logger:  logger,
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

type roomPayload struct {
	RoomCode string `json:"roomCode"`
}

func (p roomPayload) validate() error {
	if p.RoomCode == "" {
		return errors.New("roomCode is required")
	}
	return nil
}

type joinPayload struct {
	RoomCode string `json:"roomCode"`
	Name     string `json:"name"`
	UserID   string `json:"userId"`
}

func (p joinPayload) validate() error {
	if p.RoomCode == "" || p.Name == "" {
		return errors.New("roomCode and name are required")
	}
	return nil
}

type pushQuestionPayload struct {
	RoomCode         string   `json:"roomCode"`
	Question         string   `json:"question"`
	Options          []string `json:"options"`
	CorrectIndex     int      `json:"correctIndex"`
	TimeLimitSeconds int      `json:"timeLimit"`
}

func (p pushQuestionPayload) validate() error {
	if p.RoomCode == "" || p.Question == "" {
		return errors.New("roomCode and question are required")
	}
	if len(p.Options) < 2 || len(p.Options) > 6 {
		return errors.New("options must contain 2 to 6 entries")
	}
	if p.CorrectIndex < 0 || p.CorrectIndex >= len(p.Options) {
		return errors.New("correctIndex out of range")
	}
	return nil
}

type pushBankQuestionPayload struct {
	RoomCode      string `json:"roomCode"`
	SetID         string `json:"setId"`
	QuestionIndex int    `json:"questionIndex"`
}

func (p pushBankQuestionPayload) validate() error {
	if p.RoomCode == "" || p.SetID == "" {
		return errors.New("roomCode and setId are required")
	}
	if p.QuestionIndex < 0 {
		return errors.New("questionIndex out of range")
	}
	return nil
}

type submitAnswerPayload struct {
	RoomCode    string `json:"roomCode"`
	AnswerIndex int    `json:"answerIndex"`
	UserID      string `json:"userId"`
	Name        string `json:"name"`
}

func (p submitAnswerPayload) validate() error {
	if p.RoomCode == "" {
		return errors.New("roomCode is required")
	}
	if p.AnswerIndex < 0 {
		return errors.New("answerIndex out of range")
	}
	return nil
}

type ackPayload struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ServeWS runs one connection: upgrade, register with the hub, dispatch
// messages until the peer goes away, then unwind room membership.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	c := h.hub.add(connID, conn)
	go h.writePump(c)

	defer func() {
		rooms := h.hub.remove(connID)
		h.service.Disconnect(r.Context(), connID, rooms)
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("ws read ended", zap.String("conn", connID), zap.Error(err))
			}
			return
		}
		h.dispatch(r, connID, inbound)
	}
}

func (h *WSHandler) dispatch(r *http.Request, connID string, inbound inboundMessage) {
	ctx := r.Context()
	switch inbound.Type {
	case "host_create_quiz":
		var p roomPayload
		if !h.decode(connID, inbound.Payload, &p) {
			return
		}
		if err := h.service.CreateOrResumeRoom(ctx, p.RoomCode, connID); err != nil {
			h.hub.SendToConnection(connID, "create_ack", ackPayload{Status: "error", Message: err.Error()})
			return
		}
		h.hub.SendToConnection(connID, "create_ack", ackPayload{Status: "success"})

	case "host_end_room":
		var p roomPayload
		if !h.decode(connID, inbound.Payload, &p) {
			return
		}
		h.handleErr(connID, h.service.DestroyRoom(ctx, p.RoomCode, connID))

	case "student_join_quiz":
		var p joinPayload
		if !h.decode(connID, inbound.Payload, &p) {
			return
		}
		if err := h.service.Join(ctx, p.RoomCode, connID, p.UserID, p.Name); err != nil {
			h.hub.SendToConnection(connID, arena.EventError, arena.ErrorMessage{Message: "Room not found or inactive"})
			h.hub.SendToConnection(connID, "join_ack", ackPayload{
				Status:  "error",
				Message: "Room not found. Ensure the host's room is active.",
			})
			return
		}
		h.hub.SendToConnection(connID, "join_ack", ackPayload{Status: "success"})

	case "host_push_question":
		var p pushQuestionPayload
		if !h.decode(connID, inbound.Payload, &p) {
			return
		}
		h.handleErr(connID, h.service.PushQuestion(ctx, p.RoomCode, connID, domain.QuestionSpec{
			Text:             p.Question,
			Options:          p.Options,
			CorrectIndex:     p.CorrectIndex,
			TimeLimitSeconds: p.TimeLimitSeconds,
		}))

	case "host_push_bank_question":
		var p pushBankQuestionPayload
		if !h.decode(connID, inbound.Payload, &p) {
			return
		}
		h.handleErr(connID, h.service.PushBankQuestion(ctx, p.RoomCode, connID, p.SetID, p.QuestionIndex))

	case "student_submit_answer":
		var p submitAnswerPayload
		if !h.decode(connID, inbound.Payload, &p) {
			return
		}
		h.handleErr(connID, h.service.SubmitAnswer(ctx, p.RoomCode, connID, p.AnswerIndex, p.UserID, p.Name))

	case "host_show_results":
		var p roomPayload
		if !h.decode(connID, inbound.Payload, &p) {
			return
		}
		h.handleErr(connID, h.service.ShowResults(ctx, p.RoomCode, connID))

	default:
		h.hub.SendToConnection(connID, arena.EventError, arena.ErrorMessage{
			Message: fmt.Sprintf("unsupported message type %q", inbound.Type),
		})
	}
}

// decode unmarshals and validates a payload, reporting a boundary error to the
// sender on failure.
func (h *WSHandler) decode(connID string, raw json.RawMessage, out interface{ validate() error }) bool {
	if err := json.Unmarshal(raw, out); err != nil {
		h.hub.SendToConnection(connID, arena.EventError, arena.ErrorMessage{Message: "invalid payload"})
		return false
	}
	if err := out.validate(); err != nil {
		h.hub.SendToConnection(connID, arena.EventError, arena.ErrorMessage{Message: err.Error()})
		return false
	}
	return true
}

// handleErr applies the propagation policy: silent errors vanish, the rest go
// back to the offending connection only.
func (h *WSHandler) handleErr(connID string, err error) {
	if err == nil || arena.IsSilent(err) {
		return
	}
	h.hub.SendToConnection(connID, arena.EventError, arena.ErrorMessage{Message: err.Error()})
}

func (h *WSHandler) writePump(c *client) {
	for {
		select {
		case msg := <-c.send:
			if err := c.conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", zap.String("conn", c.id), zap.Error(err))
				return
			}
		case <-c.done:
			return
		}
	}
}
