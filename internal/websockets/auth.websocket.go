package websockets

import (
	"context"
	"time"

	"digitaldome/internal/events"

	"github.com/google/uuid"
)

const AUTH_HANDSHAKE_TIMEOUT = 10 * time.Second

// sendAuthRequest sends the initial authentication challenge to a new client.
func (c *Client) sendAuthRequest() error {
	log := c.Manager.log.Function("sendAuthRequest")

	authRequest := Message{
		ID:        uuid.New().String(),
		Type:      events.AUTH_REQUEST,
		Data:      map[string]any{"action": "authenticate"},
		Timestamp: time.Now(),
	}

	if err := c.Connection.WriteJSON(authRequest); err != nil {
		log.Er("failed to send auth request", err)
		return err
	}

	log.Info("Auth request sent to client", "clientID", c.ID)
	return nil
}

// startAuthTimeout disconnects clients that never complete the handshake.
func (c *Client) startAuthTimeout() {
	log := c.Manager.log.Function("startAuthTimeout")

	go func() {
		time.Sleep(AUTH_HANDSHAKE_TIMEOUT)
		if c.Status == STATUS_UNAUTHENTICATED {
			log.Warn("Client failed to authenticate within timeout, disconnecting",
				"clientID", c.ID,
				"timeout", AUTH_HANDSHAKE_TIMEOUT)

			authTimeout := Message{
				ID:        uuid.New().String(),
				Type:      events.AUTH_FAILURE,
				Data:      map[string]any{"reason": "Authentication timeout"},
				Timestamp: time.Now(),
			}

			select {
			case c.send <- authTimeout:
				time.Sleep(100 * time.Millisecond)
			default:
			}

			if err := c.Connection.Close(); err != nil {
				log.Er("failed to close connection after auth timeout", err, "clientID", c.ID)
			}
		}
	}()
}

// handleAuthResponse validates the session token sent by the client.
func (c *Client) handleAuthResponse(message Message) {
	log := c.Manager.log.Function("handleAuthResponse")

	if c.Status != STATUS_UNAUTHENTICATED {
		log.Warn("Auth response from already authenticated client", "clientID", c.ID)
		return
	}

	token, ok := message.Data["token"].(string)
	if !ok || token == "" {
		log.Warn("Invalid token in auth response", "clientID", c.ID)
		c.sendAuthFailure("Invalid token format")
		return
	}

	user, err := c.Manager.authService.Authenticate(context.Background(), token)
	if err != nil {
		log.Info("WebSocket session validation failed", "clientID", c.ID, "error", err.Error())
		c.sendAuthFailure("Authentication failed")
		return
	}

	c.Status = STATUS_AUTHENTICATED
	c.UserID = user.ID

	log.Info("WebSocket client authenticated successfully",
		"clientID", c.ID,
		"userID", user.ID)

	c.Manager.promoteClientToAuthenticated(c)

	authSuccess := Message{
		ID:        uuid.New().String(),
		Type:      events.AUTH_SUCCESS,
		UserID:    c.UserID.String(),
		Data:      map[string]any{"userId": c.UserID.String()},
		Timestamp: time.Now(),
	}

	c.send <- authSuccess
}

// sendAuthFailure sends a failure response and closes the connection.
func (c *Client) sendAuthFailure(reason string) {
	log := c.Manager.log.Function("sendAuthFailure")

	authFailure := Message{
		ID:        uuid.New().String(),
		Type:      events.AUTH_FAILURE,
		Data:      map[string]any{"reason": reason},
		Timestamp: time.Now(),
	}

	c.send <- authFailure

	log.Info("Auth failure sent, closing connection", "clientID", c.ID, "reason", reason)

	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = c.Connection.Close()
	}()
}

// handleUnauthenticatedMessage rejects traffic before the handshake completes.
func (c *Client) handleUnauthenticatedMessage(message Message) {
	log := c.Manager.log.Function("handleUnauthenticatedMessage")

	log.Warn(
		"Blocking message from unauthenticated client",
		"clientID", c.ID,
		"messageType", message.Type,
	)

	authFailure := Message{
		ID:        uuid.New().String(),
		Type:      events.AUTH_FAILURE,
		Data:      map[string]any{"reason": "Authentication required"},
		Timestamp: time.Now(),
	}
	c.send <- authFailure
}
