// Package notifier delivers real-time websocket events and transactional
// email. Everything here is fire-and-forget: delivery failures are logged and
// never surface to the workflows that trigger them.
package notifier

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub tracks connected users (userID -> *websocket.Conn) and pushes channel
// events to them.
type Hub struct {
	clients map[string]*websocket.Conn
	mutex   sync.Mutex
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*websocket.Conn),
	}
}

// Connected reports whether the user currently has a registered connection.
func (h *Hub) Connected(userID string) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	_, ok := h.clients[userID]
	return ok
}

// HandleWebSocket upgrades the connection and registers the user for event
// delivery until they disconnect.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorw("websocket upgrade failed", "error", err)
		return
	}

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		conn.Close()
		return
	}

	h.mutex.Lock()
	h.clients[userID] = conn
	h.mutex.Unlock()
	zap.S().Infow("user connected to notifications", "userID", userID)

	// Keep the connection alive; inbound frames are drained and ignored. The
	// read loop ends on clean closes and abrupt drops alike, so deregistration
	// happens here rather than in a close handler that abrupt drops skip.
	for {
		if _, _, err := conn.NextReader(); err != nil {
			break
		}
	}
	conn.Close()

	h.mutex.Lock()
	if h.clients[userID] == conn {
		delete(h.clients, userID)
	}
	h.mutex.Unlock()
	zap.S().Infow("user disconnected from notifications", "userID", userID)
}

// NotifyNewMessage tells the recipient a message arrived in their channel.
func (h *Hub) NotifyNewMessage(recipientID, assignmentID, messageID string) {
	h.send(recipientID, "new_message", map[string]interface{}{
		"assignmentID": assignmentID,
		"messageID":    messageID,
	})
}

// NotifyMessageRead tells the sender their message was read.
func (h *Hub) NotifyMessageRead(senderID, assignmentID, messageID string) {
	h.send(senderID, "message_read", map[string]interface{}{
		"assignmentID": assignmentID,
		"messageID":    messageID,
	})
}

// NotifyTyping relays a typing indicator to the other party.
func (h *Hub) NotifyTyping(recipientID, assignmentID, typistID string) {
	h.send(recipientID, "typing", map[string]interface{}{
		"assignmentID": assignmentID,
		"userID":       typistID,
	})
}

func (h *Hub) send(userID, event string, data map[string]interface{}) {
	h.mutex.Lock()
	conn, exists := h.clients[userID]
	h.mutex.Unlock()
	if !exists {
		return
	}

	err := conn.WriteJSON(map[string]interface{}{
		"event": event,
		"data":  data,
	})
	if err != nil {
		zap.S().Errorw("failed to push notification, dropping client", "userID", userID, "event", event, "error", err)
		h.mutex.Lock()
		if h.clients[userID] == conn {
			delete(h.clients, userID)
		}
		h.mutex.Unlock()
		conn.Close()
	}
}
