package websockets

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	STATUS_UNAUTHENTICATED = iota
	STATUS_AUTHENTICATED
	STATUS_CLOSED
)

type Hub struct {
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	clients    map[string]*Client
	mutex      sync.RWMutex
}

func (h *Hub) run(m *Manager) {
	for {
		select {
		case client := <-h.register:
			m.registerClient(client)

		case client := <-h.unregister:
			func() {
				defer func() {
					if r := recover(); r != nil {
						_ = r // Channel may already be closed
					}
				}()
				close(client.send)
			}()
			m.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message, m)
		}
	}
}

func (m *Manager) registerClient(client *Client) {
	m.hub.mutex.Lock()
	defer m.hub.mutex.Unlock()

	m.hub.clients[client.ID] = client

	m.log.Function("registerClient").
		Info("Client registered", "clientID", client.ID, "status", client.Status)
}

func (m *Manager) unregisterClient(client *Client) {
	m.hub.mutex.Lock()
	defer m.hub.mutex.Unlock()

	delete(m.hub.clients, client.ID)

	m.log.Function("unregisterClient").
		Info("Client unregistered", "clientID", client.ID, "userID", client.UserID)
}

func (h *Hub) broadcastMessage(message Message, m *Manager) {
	log := m.log.Function("broadcastMessage")

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if len(h.clients) == 0 {
		return
	}

	sentCount := 0
	for clientID, client := range h.clients {
		if client.Status != STATUS_AUTHENTICATED {
			continue
		}

		select {
		case client.send <- message:
			sentCount++
		default:
			go func(c *Client, cID string, msg Message) {
				select {
				case c.send <- msg:
				case <-time.After(5 * time.Second):
					_ = log.Error("Client too slow, disconnecting", "clientID", cID)
					m.hub.unregister <- c
				}
			}(client, clientID, message)
		}
	}

	log.Debug("Broadcast complete", "messageID", message.ID, "sentTo", sentCount)
}

func (m *Manager) promoteClientToAuthenticated(client *Client) {
	log := m.log.Function("promoteClientToAuthenticated")

	if client.Status != STATUS_AUTHENTICATED {
		log.Warn("Attempted to promote non-authenticated client", "clientID", client.ID)
		return
	}

	log.Info("Client promoted to authenticated", "clientID", client.ID, "userID", client.UserID)
}

func (m *Manager) SendMessageToUser(userID uuid.UUID, message Message) {
	log := m.log.Function("SendMessageToUser")

	m.hub.mutex.RLock()
	defer m.hub.mutex.RUnlock()

	sentCount := 0
	totalUserConnections := 0

	for clientID, client := range m.hub.clients {
		if client.Status == STATUS_AUTHENTICATED && client.UserID == userID {
			totalUserConnections++
			select {
			case client.send <- message:
				sentCount++
			default:
				go func(c *Client, cID string, msg Message, uID uuid.UUID) {
					select {
					case c.send <- msg:
					case <-time.After(5 * time.Second):
						_ = log.Error("Client too slow, disconnecting", "clientID", cID, "userID", uID)
						m.hub.unregister <- c
					}
				}(client, clientID, message, userID)
			}
		}
	}

	if totalUserConnections == 0 {
		log.Debug("No connections found for user", "userID", userID)
		return
	}

	log.Debug(
		"Message sent to user connections",
		"userID", userID,
		"messageID", message.ID,
		"sentTo", sentCount,
		"totalConnections", totalUserConnections,
	)
}
