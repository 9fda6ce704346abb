package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lthibault/log"

	"terminus-realm/worldgen/messages"
	"terminus-realm/worldgen/models"
	"terminus-realm/worldgen/persistence"
)

// DefaultSpawn is where new players start, on the street through the origin chunk
var DefaultSpawn = models.Position{X: 8, Y: 8, Z: 0}

// healing done by consumable items
var consumables = map[string]int{
	"bandage":    15,
	"heal pills": 30,
}

// PlayerService manages player-related operations
type PlayerService struct {
	players map[string]*models.Player
	world   *WorldService
	db      persistence.Storage
	log     log.Logger
	spawn   models.Position
	mutex   sync.RWMutex
}

// NewPlayerService creates a new player service
func NewPlayerService(world *WorldService, db persistence.Storage, logger log.Logger) *PlayerService {
	return &PlayerService{
		players: make(map[string]*models.Player),
		world:   world,
		db:      db,
		log:     logger,
		spawn:   DefaultSpawn,
	}
}

// GetOrCreatePlayer gets an existing player or creates a new one, and
// places it in the world.
func (ps *PlayerService) GetOrCreatePlayer(ctx context.Context, username string) (*models.Player, error) {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()

	for _, player := range ps.players {
		if player.Username == username {
			return player, nil
		}
	}

	player, err := ps.db.LoadPlayerByUsername(username)
	switch {
	case err == nil:
		ps.log.WithField("player", player.ID).Debug("loaded player")
	case errors.Is(err, persistence.ErrNotFound):
		now := time.Now()
		player = &models.Player{
			ID:        uuid.NewString(),
			Username:  username,
			X:         ps.spawn.X,
			Y:         ps.spawn.Y,
			Z:         ps.spawn.Z,
			Icon:      "@",
			Color:     []int{255, 255, 255},
			HP:        100,
			MaxHP:     100,
			Level:     1,
			Inventory: []string{},
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := ps.db.SavePlayer(player); err != nil {
			return nil, fmt.Errorf("failed to save new player to database: %w", err)
		}
		ps.log.WithField("player", player.ID).Info("created player")
	default:
		return nil, fmt.Errorf("failed to load player %s: %w", username, err)
	}

	if err := ps.world.AddPlayer(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to add player to world: %w", err)
	}
	ps.players[player.ID] = player

	return player, nil
}

// GetPlayer retrieves a player by ID
func (ps *PlayerService) GetPlayer(playerID string) (*models.Player, error) {
	ps.mutex.RLock()
	defer ps.mutex.RUnlock()

	player, exists := ps.players[playerID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}
	return player, nil
}

// Logout saves a player and drops it from the world
func (ps *PlayerService) Logout(playerID string) error {
	ps.mutex.Lock()
	player, exists := ps.players[playerID]
	delete(ps.players, playerID)
	ps.mutex.Unlock()

	ps.world.RemovePlayer(playerID)
	if !exists {
		return nil
	}
	return ps.save(player)
}

// UpdatePlayer replaces the cached player and saves it
func (ps *PlayerService) UpdatePlayer(player *models.Player) error {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()

	if _, exists := ps.players[player.ID]; !exists {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, player.ID)
	}

	ps.players[player.ID] = player
	return ps.world.WithPlayer(player.ID, ps.save)
}

func (ps *PlayerService) save(player *models.Player) error {
	player.UpdatedAt = time.Now()
	if err := ps.db.SavePlayer(player); err != nil {
		return fmt.Errorf("failed to save player to database: %w", err)
	}
	return nil
}

// SaveAll writes every online player to storage
func (ps *PlayerService) SaveAll() error {
	ps.mutex.RLock()
	defer ps.mutex.RUnlock()

	for id := range ps.players {
		if err := ps.world.WithPlayer(id, ps.save); err != nil {
			return err
		}
	}
	return nil
}

// UseItem consumes one item from the player's inventory
func (ps *PlayerService) UseItem(playerID string, item string, target string) (*messages.ItemUsedMessage, error) {
	var used *messages.ItemUsedMessage
	err := ps.world.WithPlayer(playerID, func(player *models.Player) error {
		slot := -1
		for i, name := range player.Inventory {
			if name == item {
				slot = i
				break
			}
		}
		if slot < 0 {
			return fmt.Errorf("%s does not carry %s", player.Username, item)
		}

		heal, ok := consumables[item]
		if !ok {
			used = &messages.ItemUsedMessage{Item: item, Result: "nothing happens", HP: player.HP}
			return nil
		}

		player.Inventory = append(player.Inventory[:slot], player.Inventory[slot+1:]...)
		player.HP += heal
		if player.HP > player.MaxHP {
			player.HP = player.MaxHP
		}
		used = &messages.ItemUsedMessage{Item: item, Result: "healed", HP: player.HP}
		return ps.save(player)
	})
	return used, err
}
