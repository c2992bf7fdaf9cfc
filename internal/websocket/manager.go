package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"suratku-server/internal/domain"

	"go.uber.org/zap"
)

type Manager struct {
	clients        map[string]*Client
	userIndex      map[string]map[string]bool
	clientsMutex   sync.RWMutex
	Unregister     chan *Client
	maxConnPerUser int
	maxMessageSize int64
	writeWait      time.Duration
	pongWait       time.Duration
	pingPeriod     time.Duration
	messageHandler MessageHandler
	logger         *zap.Logger
}

type MessageHandler interface {
	HandleWebSocketMessage(client *Client, msg *Message) error
}

type Options struct {
	MaxConnPerUser int
	MaxMessageSize int64
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
}

func NewManager(opts Options, logger *zap.Logger) *Manager {
	return &Manager{
		clients:        make(map[string]*Client),
		userIndex:      make(map[string]map[string]bool),
		Unregister:     make(chan *Client),
		maxConnPerUser: opts.MaxConnPerUser,
		maxMessageSize: opts.MaxMessageSize,
		writeWait:      opts.WriteWait,
		pongWait:       opts.PongWait,
		pingPeriod:     opts.PingPeriod,
		logger:         logger.With(zap.String("component", "websocket")),
	}
}

func (m *Manager) SetMessageHandler(handler MessageHandler) {
	m.messageHandler = handler
}

// Run drains unregistrations. Messages are handled on each client's own
// read loop so a slow signing does not stall other sessions.
func (m *Manager) Run() {
	for client := range m.Unregister {
		m.unregisterClient(client)
	}
}

// Accept registers client and reports whether it was admitted. A rejected
// client has its send channel closed and must not have its reads served.
func (m *Manager) Accept(client *Client) bool {
	return m.registerClient(client)
}

func (m *Manager) registerClient(client *Client) bool {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	if m.userIndex[client.UserID] == nil {
		m.userIndex[client.UserID] = make(map[string]bool)
	}

	if len(m.userIndex[client.UserID]) >= m.maxConnPerUser {
		m.logger.Warn("max connections reached", zap.String("user_id", client.UserID))
		if len(m.userIndex[client.UserID]) == 0 {
			delete(m.userIndex, client.UserID)
		}
		close(client.Send)
		return false
	}

	m.clients[client.ID] = client
	m.userIndex[client.UserID][client.ID] = true

	m.logger.Info("capture session opened", zap.String("client_id", client.ID), zap.String("user_id", client.UserID))
	return true
}

func (m *Manager) registered(client *Client) bool {
	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()
	return m.clients[client.ID] == client
}

func (m *Manager) unregisterClient(client *Client) {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	if _, ok := m.clients[client.ID]; ok {
		delete(m.clients, client.ID)
		delete(m.userIndex[client.UserID], client.ID)

		if len(m.userIndex[client.UserID]) == 0 {
			delete(m.userIndex, client.UserID)
		}

		close(client.Send)
		m.logger.Info("capture session closed", zap.String("client_id", client.ID))
	}
}

func (m *Manager) processMessage(client *Client, raw []byte) {
	if !m.registered(client) {
		m.logger.Debug("message from unregistered session dropped", zap.String("client_id", client.ID))
		return
	}

	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		m.logger.Debug("malformed websocket message", zap.String("client_id", client.ID), zap.Error(err))
		m.SendError(client.ID, "invalid_message", "message is not valid JSON")
		return
	}

	if m.messageHandler != nil {
		if err := m.messageHandler.HandleWebSocketMessage(client, &msg); err != nil {
			m.logger.Error("error handling message",
				zap.String("client_id", client.ID),
				zap.String("type", string(msg.Type)),
				zap.Error(err),
			)
		}
	}
}

// BroadcastToUser sends message to every session of userID except
// excludeClientID. Sessions with a full buffer are dropped.
func (m *Manager) BroadcastToUser(userID string, message *Message, excludeClientID string) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	var slow []*Client

	m.clientsMutex.RLock()
	for clientID := range m.userIndex[userID] {
		client := m.clients[clientID]
		if client.ID == excludeClientID {
			continue
		}
		select {
		case client.Send <- messageBytes:
		default:
			m.logger.Warn("send buffer full, closing session", zap.String("client_id", clientID))
			slow = append(slow, client)
		}
	}
	m.clientsMutex.RUnlock()

	for _, client := range slow {
		go func(c *Client) { m.Unregister <- c }(client)
	}

	return nil
}

func (m *Manager) SendToClient(clientID string, message *Message) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()

	client, exists := m.clients[clientID]
	if !exists {
		return nil
	}

	select {
	case client.Send <- messageBytes:
	default:
		m.logger.Warn("send buffer full", zap.String("client_id", clientID))
	}

	return nil
}

// SendError reports a failed request to one session.
func (m *Manager) SendError(clientID, code, message string) error {
	msg, err := NewMessage(TypeError, &ErrorPayload{Code: code, Message: message})
	if err != nil {
		return err
	}
	return m.SendToClient(clientID, msg)
}

// LetterSigned fans a completed signing out to the signer's sessions.
func (m *Manager) LetterSigned(userID string, result *domain.SignResult) {
	msg, err := NewMessage(TypeLetterSigned, &LetterSignedPayload{
		LetterID:        result.LetterID,
		LetterNumber:    result.LetterNumber,
		DocumentHash:    result.DocumentHash,
		SignedAt:        result.SignedAt,
		VerificationURL: result.VerificationURL,
	})
	if err != nil {
		m.logger.Error("failed to build letter_signed message", zap.Error(err))
		return
	}

	if err := m.BroadcastToUser(userID, msg, ""); err != nil {
		m.logger.Error("failed to broadcast letter_signed", zap.Error(err))
	}
}

func (m *Manager) GetUserConnections(userID string) int {
	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()

	if clients, exists := m.userIndex[userID]; exists {
		return len(clients)
	}
	return 0
}
