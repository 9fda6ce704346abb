package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"terminus-realm/worldgen/models"
)

// JSONStore handles data persistence using a local JSON file
type JSONStore struct {
	filePath string
	mutex    sync.RWMutex
	data     *JSONData
	// serializes writers of the file itself
	writeMu sync.Mutex
}

// JSONData represents the structure of the JSON database
type JSONData struct {
	Players map[string]*models.Player `json:"players"`
	Chunks  map[string]*models.Chunk  `json:"chunks"`
}

// NewJSONStore creates a new JSON storage manager
func NewJSONStore(filePath string) (*JSONStore, error) {
	store := &JSONStore{
		filePath: filePath,
		data: &JSONData{
			Players: make(map[string]*models.Player),
			Chunks:  make(map[string]*models.Chunk),
		},
	}

	if _, err := os.Stat(filePath); err == nil {
		if err := store.loadFromFile(); err != nil {
			return nil, fmt.Errorf("failed to load JSON store: %w", err)
		}
	} else if err := store.saveToFile(); err != nil {
		return nil, fmt.Errorf("failed to create JSON store file: %w", err)
	}

	return store, nil
}

func (js *JSONStore) loadFromFile() error {
	js.mutex.Lock()
	defer js.mutex.Unlock()

	file, err := os.ReadFile(js.filePath)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(file, js.data); err != nil {
		return err
	}

	// files written before chunks were stored have no chunks key
	if js.data.Chunks == nil {
		js.data.Chunks = make(map[string]*models.Chunk)
	}
	if js.data.Players == nil {
		js.data.Players = make(map[string]*models.Player)
	}
	return nil
}

func (js *JSONStore) saveToFile() error {
	js.writeMu.Lock()
	defer js.writeMu.Unlock()

	js.mutex.RLock()
	data, err := json.Marshal(js.data)
	js.mutex.RUnlock()
	if err != nil {
		return err
	}

	tmp := js.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, js.filePath)
}

// SavePlayer saves a player to the store
func (js *JSONStore) SavePlayer(player *models.Player) error {
	js.mutex.Lock()
	js.data.Players[player.ID] = player
	js.mutex.Unlock()

	return js.saveToFile()
}

// LoadPlayer loads a player by ID
func (js *JSONStore) LoadPlayer(playerID string) (*models.Player, error) {
	js.mutex.RLock()
	defer js.mutex.RUnlock()

	player, exists := js.data.Players[playerID]
	if !exists {
		return nil, fmt.Errorf("player with ID %s: %w", playerID, ErrNotFound)
	}

	return player, nil
}

// LoadPlayerByUsername loads a player by username
func (js *JSONStore) LoadPlayerByUsername(username string) (*models.Player, error) {
	js.mutex.RLock()
	defer js.mutex.RUnlock()

	for _, player := range js.data.Players {
		if player.Username == username {
			return player, nil
		}
	}

	return nil, fmt.Errorf("player with username %s: %w", username, ErrNotFound)
}

// SaveChunk saves a generated chunk to the store
func (js *JSONStore) SaveChunk(chunk *models.Chunk) error {
	js.mutex.Lock()
	js.data.Chunks[chunk.Key()] = chunk
	js.mutex.Unlock()

	return js.saveToFile()
}

// LoadChunk loads the chunk at the given world coordinates
func (js *JSONStore) LoadChunk(x, y, height int) (*models.Chunk, error) {
	js.mutex.RLock()
	defer js.mutex.RUnlock()

	key := models.ChunkKey(x, y, height)
	chunk, exists := js.data.Chunks[key]
	if !exists {
		return nil, fmt.Errorf("chunk %s: %w", key, ErrNotFound)
	}

	return chunk, nil
}

// Close closes the store (no-op for JSON store)
func (js *JSONStore) Close() error {
	return nil
}
