package handlers

import (
	"sync"

	"github.com/lthibault/log"
)

// ClientManager tracks the handlers of logged in players
type ClientManager struct {
	log log.Logger

	mu      sync.RWMutex
	clients map[string]*ClientHandler // by player id
}

// NewClientManager creates a new client manager
func NewClientManager(logger log.Logger) *ClientManager {
	return &ClientManager{
		clients: make(map[string]*ClientHandler),
		log:     logger,
	}
}

// AddClient registers the handler of a logged in player. A second login
// of the same player replaces the first handler.
func (cm *ClientManager) AddClient(playerID string, handler *ClientHandler) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if prev, ok := cm.clients[playerID]; ok && prev != handler {
		cm.log.WithField("player", playerID).Warn("player logged in twice, dropping old connection")
		prev.conn.Close()
	}
	cm.clients[playerID] = handler
}

// RemoveClient forgets the handler and reports whether it was still the
// one registered for the player.
func (cm *ClientManager) RemoveClient(playerID string, handler *ClientHandler) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.clients[playerID] != handler {
		return false
	}
	delete(cm.clients, playerID)
	return true
}

// Count returns the number of logged in clients
func (cm *ClientManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.clients)
}

// BroadcastToAll sends msg to every logged in player
func (cm *ClientManager) BroadcastToAll(msg interface{}) {
	cm.BroadcastToOthers("", msg)
}

// BroadcastToOthers sends msg to every logged in player except one
func (cm *ClientManager) BroadcastToOthers(excludePlayerID string, msg interface{}) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	for id, client := range cm.clients {
		if id == excludePlayerID {
			continue
		}
		if err := client.conn.SendMessage(msg); err != nil {
			cm.log.WithError(err).WithField("player", id).Debug("broadcast failed")
		}
	}
}

// Each calls fn for every logged in player
func (cm *ClientManager) Each(fn func(*ClientHandler)) {
	cm.mu.RLock()
	clients := make([]*ClientHandler, 0, len(cm.clients))
	for _, client := range cm.clients {
		clients = append(clients, client)
	}
	cm.mu.RUnlock()

	for _, client := range clients {
		fn(client)
	}
}
