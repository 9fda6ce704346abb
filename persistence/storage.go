package persistence

import (
	"errors"

	"terminus-realm/worldgen/models"
)

//go:generate mockgen -destination=mock_persistence/mock_storage.go -package=mock_persistence terminus-realm/worldgen/persistence Storage

// ErrNotFound is returned when a player or chunk has never been saved
var ErrNotFound = errors.New("not found")

// Storage defines the interface for data persistence
type Storage interface {
	SavePlayer(player *models.Player) error
	LoadPlayer(playerID string) (*models.Player, error)
	LoadPlayerByUsername(username string) (*models.Player, error)
	SaveChunk(chunk *models.Chunk) error
	LoadChunk(x, y, height int) (*models.Chunk, error)
	Close() error
}
