package handler

// BroadcastGameEvent implements service.Broadcaster using the WebSocket hub.
// Matches without spectators are skipped before any encoding work.
func (h *Hub) BroadcastGameEvent(gameID string, eventType string, data any) {
	if h.GameSubscriberCount(gameID) == 0 {
		return
	}
	h.BroadcastToGame(gameID, WSEvent{
		Type:   eventType,
		GameID: gameID,
		Data:   data,
	})
}
