package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/shieldmate/backend/internal/missions"
	"github.com/shieldmate/backend/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // allow all origins in dev; restrict in production
	},
}

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client represents a single WebSocket connection in a mission room.
type Client struct {
	ID        string
	MissionID uuid.UUID
	UserID    uuid.UUID
	Party     missions.Party
	hub       *Hub
	repo      *Repository
	conn      *websocket.Conn
	send      chan WSMessage
	logger    *zap.Logger
}

// ServeWs handles the WebSocket upgrade and runs the client loop. Only
// mission parties (the accepted volunteer and approved org members) may
// connect.
func ServeWs(hub *Hub, repo *Repository, svc *missions.Service, logger *zap.Logger, jwtValidate func(token string) (userID, role string, err error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		missionIDStr := c.Query("mission_id")
		token := c.Query("token")
		if missionIDStr == "" || token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "mission_id and token required"})
			return
		}
		missionID, err := uuid.Parse(missionIDStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mission_id"})
			return
		}
		userIDStr, _, err := jwtValidate(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		ctx := c.Request.Context()
		m, err := svc.Mission(ctx, missionID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "mission not found"})
			return
		}
		party, err := svc.PartyOf(ctx, m, userID)
		if err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "you are not a party to this mission"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			ID:        uuid.New().String(),
			MissionID: missionID,
			UserID:    userID,
			Party:     party,
			hub:       hub,
			repo:      repo,
			conn:      conn,
			send:      make(chan WSMessage, 256),
			logger:    logger,
		}
		hub.Register(client)
		go client.writePump()
		client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(65536)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			break
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))

		switch msg.Event {
		case "join":
			c.hub.PublishToMissionOnly(c.MissionID, "presence", map[string]string{
				"user_id": c.UserID.String(),
				"party":   string(c.Party),
			})
		case "chat_message":
			var payload struct {
				Content string `json:"content"`
			}
			if err := json.Unmarshal(msg.Data, &payload); err != nil || payload.Content == "" {
				continue
			}
			stored := &models.ChatMessage{
				MissionID: c.MissionID,
				SenderID:  c.UserID,
				Content:   payload.Content,
			}
			saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := c.repo.Create(saveCtx, stored)
			cancel()
			if err != nil {
				c.logger.Error("failed to persist chat message", zap.String("mission_id", c.MissionID.String()), zap.Error(err))
				continue
			}
			// Publish only so the Redis subscriber broadcasts once for all
			// instances, avoiding duplicate delivery to local clients.
			c.hub.PublishToMissionOnly(c.MissionID, "chat_message", stored)
		default:
			// ignore
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
