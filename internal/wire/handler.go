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

	"github.com/matthewbaird/cloudconsole/internal/form"
	"github.com/matthewbaird/cloudconsole/internal/form/field"
	"github.com/matthewbaird/cloudconsole/internal/store"
)

// outboxSize is how many server messages may queue ahead of the writer.
const outboxSize = 16

// Dialogs opens and discards dialog sessions.
type Dialogs interface {
	Open(ctx context.Context, req form.OpenRequest, opts ...form.Option) (*form.Session, error)
	Remove(id string)
}

// Handler manages WebSocket connections for dialog sessions. Each
// connection drives at most one dialog at a time; the dialog is discarded
// when the connection goes away.
type Handler struct {
	dialogs Dialogs
	logger  *slog.Logger
}

// NewHandler creates a WebSocket handler.
func NewHandler(d Dialogs, logger *slog.Logger) *Handler {
	return &Handler{dialogs: d, logger: logger}
}

// conn is the per-connection state. Writes go through out so session
// observers, which run on load goroutines, never touch the socket directly.
type conn struct {
	ctx  context.Context
	out  chan ServerMessage
	sess *form.Session
}

func (c *conn) push(msg ServerMessage) {
	select {
	case c.out <- msg:
	case <-c.ctx.Done():
	}
}

// ServeHTTP upgrades to WebSocket and runs the message loop.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Warn("websocket accept", "error", err)
		return
	}
	defer ws.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	c := &conn{ctx: ctx, out: make(chan ServerMessage, outboxSize)}
	defer func() {
		cancel()
		if c.sess != nil {
			h.dialogs.Remove(c.sess.ID())
		}
	}()
	go h.writeLoop(ctx, cancel, ws, c.out)

	for {
		var msg ClientMessage
		if err := wsjson.Read(ctx, ws, &msg); err != nil {
			if websocket.CloseStatus(err) != -1 {
				h.logger.Debug("websocket closed", "status", websocket.CloseStatus(err))
			}
			return
		}

		switch msg.Type {
		case TypeOpen:
			h.handleOpen(c, msg)
		case TypePing:
			c.push(ServerMessage{Type: TypePong, RequestID: msg.ID})
		case form.EventChange, form.EventStage, form.EventCommit,
			form.EventConfirm, form.EventCancel, form.EventRetry:
			h.handleEvent(c, msg)
		default:
			h.sendError(c, msg.ID, "unknown_type", fmt.Sprintf("unknown message type: %s", msg.Type))
		}
	}
}

func (h *Handler) writeLoop(ctx context.Context, cancel context.CancelFunc, ws *websocket.Conn, out <-chan ServerMessage) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-out:
			if err := wsjson.Write(ctx, ws, msg); err != nil {
				h.logger.Debug("websocket write", "error", err)
				cancel()
				return
			}
		}
	}
}

func (h *Handler) handleOpen(c *conn, msg ClientMessage) {
	var req OpenData
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		h.sendError(c, msg.ID, "invalid_data", "invalid open data")
		return
	}
	if c.sess != nil {
		h.dialogs.Remove(c.sess.ID())
		c.sess = nil
	}
	sess, err := h.dialogs.Open(c.ctx, req, form.WithObserver(func(snap form.Snapshot) {
		c.push(ServerMessage{Type: TypeSnapshot, Data: snap})
		if snap.State == form.StateClosed {
			c.push(ServerMessage{Type: TypeClosed, Data: ClosedData{DialogID: snap.ID}})
		}
	}))
	if err != nil {
		h.sendFailure(c, msg.ID, err)
		return
	}
	c.sess = sess
	c.push(ServerMessage{Type: TypeSnapshot, RequestID: msg.ID, Data: sess.Snapshot()})
}

// handleEvent runs one dialog operation. The resulting snapshot reaches the
// client through the session observer.
func (h *Handler) handleEvent(c *conn, msg ClientMessage) {
	if c.sess == nil {
		h.sendError(c, msg.ID, "no_dialog", "no dialog is open")
		return
	}
	var data EventData
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			h.sendError(c, msg.ID, "invalid_data", "invalid event data")
			return
		}
	}

	err := c.sess.Dispatch(c.ctx, form.Event{Type: msg.Type, Key: data.Key, Input: data.Input, Text: data.Text})
	switch {
	case err == nil, errors.Is(err, form.ErrInvalid):
	case form.Rejected(err):
		h.sendFailure(c, msg.ID, err)
	default:
		h.logger.Warn("dialog event failed", "dialog_id", c.sess.ID(), "type", msg.Type, "error", err)
	}

	if c.sess.State() == form.StateClosed {
		h.dialogs.Remove(c.sess.ID())
		c.sess = nil
	}
}

func (h *Handler) sendFailure(c *conn, requestID string, err error) {
	h.sendError(c, requestID, errorCode(err), err.Error())
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, form.ErrBusy):
		return "busy"
	case errors.Is(err, form.ErrNotReady):
		return "not_ready"
	case errors.Is(err, form.ErrClosed):
		return "closed"
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	case errors.Is(err, form.ErrUnknownField), errors.Is(err, field.ErrUnsupportedInput),
		errors.Is(err, field.ErrInvalidOption), errors.Is(err, form.ErrBadRequest):
		return "invalid_input"
	default:
		return "internal"
	}
}

func (h *Handler) sendError(c *conn, requestID, code, message string) {
	c.push(ServerMessage{
		Type:      TypeError,
		RequestID: requestID,
		Data: ErrorData{
			Code:    code,
			Message: message,
		},
	})
}
