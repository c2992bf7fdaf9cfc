package websocket

import (
	"encoding/json"
	"time"

	"suratku-server/internal/capture"
	"suratku-server/internal/domain"
)

type MessageType string

// Client to server.
const (
	TypeSetOrigin     MessageType = "set_origin"
	TypeStrokeBegin   MessageType = "stroke_begin"
	TypeStrokeExtend  MessageType = "stroke_extend"
	TypeStrokeEnd     MessageType = "stroke_end"
	TypeCaptureReset  MessageType = "capture_reset"
	TypeCaptureSubmit MessageType = "capture_submit"
	TypePing          MessageType = "ping"
)

// Server to client.
const (
	TypeCaptureState MessageType = "capture_state"
	TypeSignComplete MessageType = "sign_complete"
	TypeLetterSigned MessageType = "letter_signed"
	TypeError        MessageType = "error"
	TypePong         MessageType = "pong"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// PointPayload carries a pointer position in client coordinates.
type PointPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p PointPayload) Point() capture.Point {
	return capture.Point{X: p.X, Y: p.Y}
}

type OriginPayload struct {
	Left float64 `json:"left"`
	Top  float64 `json:"top"`
}

type SubmitPayload struct {
	LetterID string `json:"letter_id"`
}

type CaptureStatePayload struct {
	State   capture.State `json:"state"`
	Drawing bool          `json:"drawing"`
	Width   int           `json:"width"`
	Height  int           `json:"height"`
}

type SignCompletePayload struct {
	Result *domain.SignResult `json:"result"`
}

type LetterSignedPayload struct {
	LetterID        string `json:"letter_id"`
	LetterNumber    string `json:"letter_number"`
	DocumentHash    string `json:"document_hash"`
	SignedAt        string `json:"signed_at"`
	VerificationURL string `json:"verification_url"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		bytes, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		payloadBytes = bytes
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Payload:   payloadBytes,
	}, nil
}

func (m *Message) UnmarshalPayload(v interface{}) error {
	if m.Payload == nil {
		return nil
	}
	return json.Unmarshal(m.Payload, v)
}
