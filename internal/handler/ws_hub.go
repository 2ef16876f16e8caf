package handler

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/halite-fleet/internal/replay"
)

// Event types sent over WebSocket. Match events reuse the replay frame types.
const (
	EventConnected    = "connected"
	EventMatchStarted = replay.TypeStarted
	EventTurn         = replay.TypeTurn
	EventMatchEnded   = replay.TypeEnded
	EventMatchFailed  = "match_failed"
	EventSnapshot     = "snapshot"
)

// WSEvent is the envelope for all WebSocket messages.
type WSEvent struct {
	Type   string `json:"type"`
	GameID string `json:"game_id"`
	Data   any    `json:"data"`
}

// ClientMessage is the envelope for messages sent from the client.
type ClientMessage struct {
	Action string `json:"action"` // "subscribe" or "unsubscribe"
	GameID string `json:"game_id"`
}

// WSConn wraps a spectator's WebSocket connection and its send queue.
type WSConn struct {
	conn   *websocket.Conn
	remote string
	send   chan []byte
}

// Hub manages spectator connections and per-match subscriptions.
type Hub struct {
	mu          sync.RWMutex
	connections map[*WSConn]bool
	games       map[string]map[*WSConn]bool // matchID -> set of connections
	dropped     int

	frames  FrameSource
	staleMu sync.Mutex
	stale   map[*WSConn]map[string]bool // subscriptions that lost a frame
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		connections: make(map[*WSConn]bool),
		games:       make(map[string]map[*WSConn]bool),
		stale:       make(map[*WSConn]map[string]bool),
	}
}

// SetFrameSource lets the hub resync spectators that dropped a frame with a
// full snapshot. Without one, they only get later deltas.
func (h *Hub) SetFrameSource(frames FrameSource) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frames = frames
}

// Register adds a connection to the hub.
func (h *Hub) Register(c *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c] = true
}

// Unregister removes a connection from the hub and all its subscriptions.
func (h *Hub) Unregister(c *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.connections[c] {
		return
	}
	delete(h.connections, c)
	for gameID, conns := range h.games {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.games, gameID)
		}
	}
	close(c.send)

	h.staleMu.Lock()
	delete(h.stale, c)
	h.staleMu.Unlock()
}

// Subscribe adds a connection to a match channel.
func (h *Hub) Subscribe(c *WSConn, gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.games[gameID] == nil {
		h.games[gameID] = make(map[*WSConn]bool)
	}
	h.games[gameID][c] = true
}

// Unsubscribe removes a connection from a match channel.
func (h *Hub) Unsubscribe(c *WSConn, gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.games[gameID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.games, gameID)
		}
	}
	h.setStale(c, gameID, false)
}

// BroadcastToGame sends an event to all connections subscribed to a match.
// Slow spectators lose messages rather than stall the match; a connection
// that lost one gets a full snapshot in place of its next event.
func (h *Hub) BroadcastToGame(gameID string, event WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("matchId", gameID).Msg("Failed to marshal WebSocket event")
		return
	}

	h.mu.RLock()
	var full int
	var snapshot []byte
	for c := range h.games[gameID] {
		payload, resync := data, false
		if h.isStale(c, gameID) {
			if snapshot == nil {
				snapshot = h.snapshot(gameID)
			}
			if snapshot != nil {
				payload, resync = snapshot, true
			}
		}
		select {
		case c.send <- payload:
			if resync {
				h.setStale(c, gameID, false)
			}
		default:
			full++
			h.setStale(c, gameID, true)
			log.Warn().Str("remote", c.remote).Str("matchId", gameID).Msg("Dropping WebSocket message, buffer full")
		}
	}
	h.mu.RUnlock()

	if full > 0 {
		h.mu.Lock()
		h.dropped += full
		h.mu.Unlock()
	}
}

func (h *Hub) isStale(c *WSConn, gameID string) bool {
	h.staleMu.Lock()
	defer h.staleMu.Unlock()
	return h.stale[c][gameID]
}

func (h *Hub) setStale(c *WSConn, gameID string, stale bool) {
	h.staleMu.Lock()
	defer h.staleMu.Unlock()
	if !stale {
		delete(h.stale[c], gameID)
		if len(h.stale[c]) == 0 {
			delete(h.stale, c)
		}
		return
	}
	if h.stale[c] == nil {
		h.stale[c] = make(map[string]bool)
	}
	h.stale[c][gameID] = true
}

// snapshot builds the resync event for a match, or nil when none is available.
// Callers hold h.mu.
func (h *Hub) snapshot(gameID string) []byte {
	if h.frames == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	frame, err := h.frames.LatestFrame(ctx, gameID)
	if err != nil || frame == nil {
		if err != nil {
			log.Warn().Err(err).Str("matchId", gameID).Msg("Snapshot for resync failed")
		}
		return nil
	}
	b, err := json.Marshal(WSEvent{Type: EventSnapshot, GameID: gameID, Data: frame})
	if err != nil {
		return nil
	}
	return b
}

// SendTo queues an event for a single connection if it is still registered.
func (h *Hub) SendTo(c *WSConn, event WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal WebSocket event")
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.connections[c] {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// ConnectionCount returns the total number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// GameSubscriberCount returns the number of connections subscribed to a match.
func (h *Hub) GameSubscriberCount(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.games[gameID])
}

// DroppedCount returns how many messages were discarded for full buffers.
func (h *Hub) DroppedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}
