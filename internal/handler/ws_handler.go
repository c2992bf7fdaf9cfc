package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"suratku-server/internal/capture"
	"suratku-server/internal/middleware"
	"suratku-server/internal/service"
	"suratku-server/internal/websocket"
	"suratku-server/pkg/jwt"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WebSocketHandler struct {
	manager      *websocket.Manager
	jwtSecret    string
	canvasWidth  int
	canvasHeight int
	upgrader     ws.Upgrader
	logger       *zap.Logger
}

func NewWebSocketHandler(manager *websocket.Manager, jwtSecret string, canvasWidth, canvasHeight, readBuf, writeBuf int, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		manager:      manager,
		jwtSecret:    jwtSecret,
		canvasWidth:  canvasWidth,
		canvasHeight: canvasHeight,
		upgrader: ws.Upgrader{
			ReadBufferSize:  readBuf,
			WriteBufferSize: writeBuf,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger,
	}
}

// HandleConnection opens a capture session. Browsers cannot set headers on
// websocket requests, so the token may come in the query string.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}

	if token == "" {
		http.Error(w, "missing authorization token", http.StatusUnauthorized)
		return
	}

	claims, err := jwt.ValidateToken(token, h.jwtSecret)
	if err != nil {
		h.logger.Debug("websocket token rejected", zap.Error(err))
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	pad, err := capture.NewPad(h.canvasWidth, h.canvasHeight)
	if err != nil {
		http.Error(w, "capture unavailable", http.StatusInternalServerError)
		return
	}

	meta := middleware.RequestMeta(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade connection", zap.Error(err))
		return
	}

	client := websocket.NewClient(uuid.New().String(), claims.UserID, meta, pad, conn, h.manager)

	if msg, err := websocket.NewMessage(websocket.TypeCaptureState, captureState(pad)); err == nil {
		if b, err := json.Marshal(msg); err == nil {
			client.Send <- b
		}
	}

	if !h.manager.Accept(client) {
		// WritePump flushes the pending state, sends a close frame and
		// closes the connection.
		go client.WritePump()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}

// CaptureMessageHandler drives a session's Pad from pointer events and signs
// on capture_submit.
type CaptureMessageHandler struct {
	signer  Signer
	manager *websocket.Manager
	logger  *zap.Logger
}

func NewCaptureMessageHandler(signer Signer, manager *websocket.Manager, logger *zap.Logger) *CaptureMessageHandler {
	return &CaptureMessageHandler{
		signer:  signer,
		manager: manager,
		logger:  logger,
	}
}

func (h *CaptureMessageHandler) HandleWebSocketMessage(client *websocket.Client, msg *websocket.Message) error {
	switch msg.Type {
	case websocket.TypeSetOrigin:
		var payload websocket.OriginPayload
		if err := msg.UnmarshalPayload(&payload); err != nil {
			return h.manager.SendError(client.ID, "invalid_payload", err.Error())
		}
		client.Pad.SetOrigin(payload.Left, payload.Top)
		return nil

	case websocket.TypeStrokeBegin:
		var payload websocket.PointPayload
		if err := msg.UnmarshalPayload(&payload); err != nil {
			return h.manager.SendError(client.ID, "invalid_payload", err.Error())
		}
		wasEmpty := !client.Pad.HasStrokes()
		client.Pad.BeginStroke(payload.Point())
		if wasEmpty && client.Pad.HasStrokes() {
			return h.sendState(client)
		}
		return nil

	case websocket.TypeStrokeExtend:
		var payload websocket.PointPayload
		if err := msg.UnmarshalPayload(&payload); err != nil {
			return h.manager.SendError(client.ID, "invalid_payload", err.Error())
		}
		client.Pad.ExtendStroke(payload.Point())
		return nil

	case websocket.TypeStrokeEnd:
		client.Pad.EndStroke()
		return nil

	case websocket.TypeCaptureReset:
		client.Pad.Reset()
		return h.sendState(client)

	case websocket.TypeCaptureSubmit:
		return h.handleSubmit(client, msg)

	case websocket.TypePing:
		pong, err := websocket.NewMessage(websocket.TypePong, nil)
		if err != nil {
			return err
		}
		return h.manager.SendToClient(client.ID, pong)

	default:
		return h.manager.SendError(client.ID, "unknown_type", "unknown message type: "+string(msg.Type))
	}
}

func (h *CaptureMessageHandler) handleSubmit(client *websocket.Client, msg *websocket.Message) error {
	var payload websocket.SubmitPayload
	if err := msg.UnmarshalPayload(&payload); err != nil || payload.LetterID == "" {
		return h.manager.SendError(client.ID, "invalid_payload", "letter_id is required")
	}

	client.Pad.EndStroke()
	artifact, err := client.Pad.Finalize()
	if err != nil {
		return h.sendSignError(client, err)
	}

	ctx := middleware.WithUserID(context.Background(), client.UserID)
	result, err := h.signer.Sign(ctx, payload.LetterID, artifact, client.Meta)
	if err != nil {
		return h.sendSignError(client, err)
	}

	client.Pad.Reset()

	done, err := websocket.NewMessage(websocket.TypeSignComplete, &websocket.SignCompletePayload{Result: result})
	if err != nil {
		return err
	}
	if err := h.manager.SendToClient(client.ID, done); err != nil {
		return err
	}
	return h.sendState(client)
}

func (h *CaptureMessageHandler) sendSignError(client *websocket.Client, err error) error {
	var transportErr *service.TransportError

	code, message := "internal", "signing failed"
	switch {
	case errors.Is(err, capture.ErrEmptyArtifact):
		code, message = "empty_signature", "draw a signature first"
	case errors.Is(err, service.ErrLetterNotFound):
		code, message = "letter_not_found", "letter not found"
	case errors.Is(err, service.ErrAlreadySigned):
		code, message = "already_signed", "letter is already signed"
	case errors.Is(err, service.ErrUnauthenticated):
		code, message = "unauthenticated", "sign in again"
	case errors.As(err, &transportErr):
		code, message = "unavailable", "storage temporarily unavailable, try again"
	}

	if code == "internal" || code == "unavailable" {
		h.logger.Error("capture submit failed", zap.String("client_id", client.ID), zap.Error(err))
	}

	return h.manager.SendError(client.ID, code, message)
}

func (h *CaptureMessageHandler) sendState(client *websocket.Client) error {
	msg, err := websocket.NewMessage(websocket.TypeCaptureState, captureState(client.Pad))
	if err != nil {
		return err
	}
	return h.manager.SendToClient(client.ID, msg)
}

func captureState(pad *capture.Pad) *websocket.CaptureStatePayload {
	width, height := pad.Size()
	return &websocket.CaptureStatePayload{
		State:   pad.State(),
		Drawing: pad.Drawing(),
		Width:   width,
		Height:  height,
	}
}
