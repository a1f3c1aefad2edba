package wire

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"rollcall/internal/engine"
	"rollcall/internal/store"
	"rollcall/internal/types"
)

// Handler manages WebSocket connections for the edit chat.
type Handler struct {
	engine *engine.Engine
	store  store.Client
	log    *slog.Logger
}

// NewHandler creates a WebSocket handler.
func NewHandler(eng *engine.Engine, st store.Client, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{engine: eng, store: st, log: log}
}

// ServeHTTP upgrades to WebSocket and runs the message loop. One
// connection serves one operator; turns are handled strictly in order.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Error("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	// Operators carry a stable identity across connections; anonymous
	// connections get a throwaway one.
	operatorID := r.URL.Query().Get("operator_id")
	if operatorID == "" {
		operatorID = uuid.New().String()
	}
	ctx := r.Context()

	h.send(ctx, conn, ServerMessage{
		Type: "session",
		Data: SessionData{OperatorID: operatorID},
	})

	for {
		var msg ClientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if websocket.CloseStatus(err) != -1 {
				h.log.Debug("connection closed", "operator_id", operatorID)
			}
			return
		}
		h.handle(ctx, conn, operatorID, msg)
	}
}

func (h *Handler) handle(ctx context.Context, conn *websocket.Conn, operatorID string, msg ClientMessage) {
	switch msg.Type {
	case "start":
		h.handleStart(ctx, conn, operatorID, msg)
	case "select":
		var data SelectData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			h.sendError(ctx, conn, msg.ID, "invalid_data", "не удалось разобрать сообщение")
			return
		}
		rep, err := h.engine.SelectField(operatorID, types.FieldName(data.Field))
		h.finish(ctx, conn, msg.ID, rep, err)
	case "input", "choose":
		var data InputData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			h.sendError(ctx, conn, msg.ID, "invalid_data", "не удалось разобрать сообщение")
			return
		}
		rep, err := h.engine.SubmitInput(operatorID, data.Value)
		h.finish(ctx, conn, msg.ID, rep, err)
	case "save":
		rep, err := h.engine.RequestConfirmation(operatorID)
		h.finish(ctx, conn, msg.ID, rep, err)
	case "commit":
		rep, err := h.engine.Commit(ctx, operatorID)
		h.finish(ctx, conn, msg.ID, rep, err)
	case "retry":
		rep, err := h.engine.RetryCommit(ctx, operatorID)
		h.finish(ctx, conn, msg.ID, rep, err)
	case "cancel":
		rep, err := h.engine.Cancel(ctx, operatorID)
		h.finish(ctx, conn, msg.ID, rep, err)
	case "ping":
		h.send(ctx, conn, ServerMessage{Type: "pong", RequestID: msg.ID})
	default:
		h.sendError(ctx, conn, msg.ID, "unknown_type", fmt.Sprintf("неизвестный тип сообщения: %s", msg.Type))
	}
}

// handleStart fetches the base record and opens the session. The record id
// comes from the search component on the client side.
func (h *Handler) handleStart(ctx context.Context, conn *websocket.Conn, operatorID string, msg ClientMessage) {
	var data StartData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		h.sendError(ctx, conn, msg.ID, "invalid_data", "не удалось разобрать сообщение")
		return
	}
	if data.RecordID == "" {
		h.sendError(ctx, conn, msg.ID, "missing_record", "не указан идентификатор записи")
		return
	}

	base, err := h.store.Fetch(ctx, data.RecordID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			h.sendError(ctx, conn, msg.ID, "record_not_found", "Запись не найдена.")
		default:
			h.log.Warn("record fetch failed", "record_id", data.RecordID, "error", err)
			h.sendError(ctx, conn, msg.ID, "store_unavailable", "Хранилище временно недоступно, попробуйте позже.")
		}
		return
	}

	rep := h.engine.StartSession(ctx, operatorID, data.RecordID, base)
	h.sendReply(ctx, conn, msg.ID, rep)
}

// finish translates an engine outcome into a wire message. Engine errors
// reach the operator as coded, readable messages, never raw.
func (h *Handler) finish(ctx context.Context, conn *websocket.Conn, requestID string, rep *engine.Reply, err error) {
	if err == nil {
		h.sendReply(ctx, conn, requestID, rep)
		return
	}
	switch {
	case errors.Is(err, engine.ErrNoSession):
		h.sendError(ctx, conn, requestID, "no_session", "Нет активной сессии редактирования. Начните заново.")
	case errors.Is(err, engine.ErrInvalidState):
		h.sendError(ctx, conn, requestID, "invalid_state", "Это действие сейчас недоступно.")
	default:
		h.log.Error("engine error", "error", err)
		h.sendError(ctx, conn, requestID, "internal", "Внутренняя ошибка. Попробуйте ещё раз.")
	}
}

func (h *Handler) sendReply(ctx context.Context, conn *websocket.Conn, requestID string, rep *engine.Reply) {
	h.send(ctx, conn, ServerMessage{
		Type:      "reply",
		RequestID: requestID,
		Data:      ReplyData{Reply: rep},
	})
}

func (h *Handler) send(ctx context.Context, conn *websocket.Conn, msg ServerMessage) {
	if err := wsjson.Write(ctx, conn, msg); err != nil {
		h.log.Error("websocket write failed", "error", err)
	}
}

func (h *Handler) sendError(ctx context.Context, conn *websocket.Conn, requestID, code, message string) {
	h.send(ctx, conn, ServerMessage{
		Type:      "error",
		RequestID: requestID,
		Data: ErrorData{
			Code:    code,
			Message: message,
		},
	})
}
