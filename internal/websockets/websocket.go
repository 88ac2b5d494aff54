package websockets

import (
	"context"
	"time"

	"journal/internal/events"
	"journal/pkg/logger"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	MESSAGE_TYPE_PING                 = "ping"
	MESSAGE_TYPE_PONG                 = "pong"
	MESSAGE_TYPE_CONNECTED            = "connected"
	MESSAGE_TYPE_TRANSCRIPTION_STATUS = "transcription_status"
	PING_INTERVAL                     = 30 * time.Second
	PONG_TIMEOUT                      = 60 * time.Second
	WRITE_TIMEOUT                     = 10 * time.Second
	MAX_MESSAGE_SIZE                  = 4 * 1024
	SEND_CHANNEL_SIZE                 = 64
)

type Message struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Channel   string         `json:"channel,omitempty"`
	UserID    string         `json:"userId,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

type Client struct {
	ID         string
	UserID     uuid.UUID
	Connection *websocket.Conn
	Manager    *Manager
	send       chan Message
}

// Manager keeps the open sockets of this instance and pushes transcription status
// changes to every socket of the owning user.
type Manager struct {
	hub      *Hub
	log      logger.Logger
	eventBus *events.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
}

func New(eventBus *events.EventBus) (*Manager, error) {
	log := logger.New("websockets")
	ctx, cancel := context.WithCancel(context.Background())

	manager := &Manager{
		hub:      newHub(),
		log:      log,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
	}

	log.Function("New").Info("Starting websocket hub")
	go manager.hub.run(manager)

	if eventBus != nil {
		err := eventBus.Subscribe(events.TRANSCRIPTION_CHANNEL, manager.handleTranscriptionEvent)
		if err != nil {
			cancel()
			return nil, log.Err("failed to subscribe to transcription events", err)
		}
	}

	return manager, nil
}

// HandleWebSocket serves one authenticated connection until it closes
func (m *Manager) HandleWebSocket(c *websocket.Conn, userID uuid.UUID) {
	log := m.log.Function("HandleWebSocket")

	client := &Client{
		ID:         uuid.New().String(),
		UserID:     userID,
		Connection: c,
		Manager:    m,
		send:       make(chan Message, SEND_CHANNEL_SIZE),
	}

	select {
	case m.hub.register <- client:
	case <-m.ctx.Done():
		return
	}
	defer func() {
		log.Info("Client disconnected", "clientID", client.ID, "userID", userID)
		select {
		case m.hub.unregister <- client:
		case <-m.ctx.Done():
			m.unregisterClient(client)
		}
	}()

	client.send <- Message{
		ID:        uuid.New().String(),
		Type:      MESSAGE_TYPE_CONNECTED,
		Channel:   "system",
		UserID:    userID.String(),
		Timestamp: time.Now(),
	}

	go client.writePump()
	client.readPump()
}

func (m *Manager) handleTranscriptionEvent(event events.Event) error {
	log := m.log.Function("handleTranscriptionEvent")

	if event.UserID == nil {
		log.Warn("Transcription event without user, dropping", "eventID", event.ID)
		return nil
	}

	m.SendMessageToUser(*event.UserID, Message{
		ID:        event.ID,
		Type:      MESSAGE_TYPE_TRANSCRIPTION_STATUS,
		Channel:   events.TRANSCRIPTION_CHANNEL.String(),
		UserID:    event.UserID.String(),
		Data:      event.Data,
		Timestamp: event.Timestamp,
	})
	return nil
}

func (m *Manager) Close() {
	m.cancel()
}

func (c *Client) readPump() {
	log := c.Manager.log.Function("readPump")

	c.Connection.SetReadLimit(MAX_MESSAGE_SIZE)
	if err := c.Connection.SetReadDeadline(time.Now().Add(PONG_TIMEOUT)); err != nil {
		log.Er("failed to set read deadline", err, "clientID", c.ID)
	}
	c.Connection.SetPongHandler(func(string) error {
		return c.Connection.SetReadDeadline(time.Now().Add(PONG_TIMEOUT))
	})

	for {
		var message Message
		if err := c.Connection.ReadJSON(&message); err != nil {
			if websocket.IsUnexpectedCloseError(
				err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
			) {
				log.Er("Unexpected close error", err, "clientID", c.ID)
			}
			return
		}

		if message.Type == MESSAGE_TYPE_PING {
			c.trySend(Message{
				ID:        uuid.New().String(),
				Type:      MESSAGE_TYPE_PONG,
				Channel:   "system",
				Timestamp: time.Now(),
			})
			continue
		}

		log.Debug("Ignoring client message", "clientID", c.ID, "type", message.Type)
	}
}

func (c *Client) trySend(message Message) {
	c.Manager.hub.mutex.RLock()
	defer c.Manager.hub.mutex.RUnlock()

	if _, ok := c.Manager.hub.clients[c.ID]; !ok {
		return
	}
	select {
	case c.send <- message:
	default:
	}
}

func (c *Client) writePump() {
	log := c.Manager.log.Function("writePump")

	ticker := time.NewTicker(PING_INTERVAL)
	defer func() {
		ticker.Stop()
		_ = c.Connection.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.Connection.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT)); err != nil {
				log.Er("failed to set write deadline", err, "clientID", c.ID)
			}
			if !ok {
				_ = c.Connection.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Connection.WriteJSON(message); err != nil {
				log.Er("WebSocket write error", err, "clientID", c.ID)
				return
			}

		case <-ticker.C:
			if err := c.Connection.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT)); err != nil {
				log.Er("failed to set write deadline for ping", err, "clientID", c.ID)
			}
			if err := c.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
