package chat

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// Hub maintains mission_id -> set of connections and broadcasts messages.
// Uses Redis pub/sub for horizontal scaling: local broadcast + publish to Redis.
type Hub struct {
	// missionID -> map[clientID]*Client
	missions map[uuid.UUID]map[string]*Client
	subs     map[uuid.UUID]func() // cancel Redis subscription per mission
	mu       sync.RWMutex
	logger   *zap.Logger
	redis    RedisPublisher
	redisSub RedisSubscriber
}

// RedisPublisher is the interface for publishing to Redis (for cross-instance broadcast).
type RedisPublisher interface {
	PublishMissionEvent(missionID uuid.UUID, event string, payload []byte) error
}

// RedisSubscriber subscribes to mission channels and invokes handler for incoming events.
type RedisSubscriber interface {
	SubscribeMission(missionID uuid.UUID, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	return &Hub{
		missions: make(map[uuid.UUID]map[string]*Client),
		subs:     make(map[uuid.UUID]func()),
		logger:   logger,
		redis:    redisPub,
		redisSub: redisSub,
	}
}

// Register adds a client to a mission room. Starts Redis subscription for this mission if first client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.missions[c.MissionID] == nil {
		h.missions[c.MissionID] = make(map[string]*Client)
		if h.redisSub != nil {
			cancel, err := h.redisSub.SubscribeMission(c.MissionID, func(event string, payload []byte) {
				h.BroadcastToMission(c.MissionID, event, json.RawMessage(payload))
			})
			if err == nil {
				h.subs[c.MissionID] = cancel
			}
		}
	}
	h.missions[c.MissionID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client joined mission room", zap.String("client_id", c.ID), zap.String("mission_id", c.MissionID.String()))
}

// Unregister removes a client from a mission room. Cancels Redis subscription when last client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.missions[c.MissionID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.missions, c.MissionID)
			if cancel, ok := h.subs[c.MissionID]; ok {
				cancel()
				delete(h.subs, c.MissionID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client left mission room", zap.String("client_id", c.ID), zap.String("mission_id", c.MissionID.String()))
}

// BroadcastToMission sends a message to all clients in a mission room (local only).
func (h *Hub) BroadcastToMission(missionID uuid.UUID, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		data, _ = json.Marshal(payload)
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	clients := h.missions[missionID]
	h.mu.RUnlock()

	if clients == nil {
		return
	}
	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// PublishToMissionOnly publishes to Redis only (no local broadcast). Used for chat_message
// so that the Redis subscriber callback performs the broadcast once for all instances (including this one),
// avoiding duplicate delivery to local clients.
func (h *Hub) PublishToMissionOnly(missionID uuid.UUID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if h.redis != nil {
		_ = h.redis.PublishMissionEvent(missionID, event, data)
		return
	}
	h.BroadcastToMission(missionID, event, payload)
}

// RoomCount returns the number of connected clients in a mission room.
func (h *Hub) RoomCount(missionID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.missions[missionID])
}
