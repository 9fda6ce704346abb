package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lthibault/log"

	"terminus-realm/worldgen/models"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// PostgresStore handles database operations using PostgreSQL
type PostgresStore struct {
	db  *sql.DB
	log log.Logger
}

// NewPostgresStore creates a new PostgreSQL storage manager
func NewPostgresStore(connectionString string, logger log.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{db: db, log: logger}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (dm *PostgresStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS players (
		id TEXT PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		z INTEGER NOT NULL,
		icon TEXT NOT NULL,
		color JSONB NOT NULL,
		hp INTEGER NOT NULL,
		max_hp INTEGER NOT NULL,
		gold INTEGER NOT NULL,
		level INTEGER NOT NULL,
		experience INTEGER NOT NULL,
		inventory JSONB NOT NULL DEFAULT '[]',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS chunks (
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		height INTEGER NOT NULL,
		name TEXT NOT NULL,
		rotation TEXT NOT NULL,
		difficulty DOUBLE PRECISION NOT NULL,
		size_x INTEGER NOT NULL,
		size_y INTEGER NOT NULL,
		tiles JSONB NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		PRIMARY KEY (x, y, height)
	);
	`

	_, err := dm.db.Exec(schema)
	return err
}

// SavePlayer saves a player to the database
func (dm *PostgresStore) SavePlayer(player *models.Player) error {
	colorJSON, err := json.Marshal(player.Color)
	if err != nil {
		return fmt.Errorf("failed to marshal player color: %w", err)
	}
	inventoryJSON, err := json.Marshal(append([]string{}, player.Inventory...))
	if err != nil {
		return fmt.Errorf("failed to marshal player inventory: %w", err)
	}

	query := `
	INSERT INTO players (id, username, x, y, z, icon, color, hp, max_hp, gold, level, experience, inventory)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	ON CONFLICT (id)
	DO UPDATE SET
		x = $3, y = $4, z = $5,
		hp = $8, gold = $10, level = $11, experience = $12, inventory = $13,
		updated_at = NOW()
	`

	_, err = dm.db.Exec(query,
		player.ID, player.Username, player.X, player.Y, player.Z,
		player.Icon, string(colorJSON), player.HP, player.MaxHP,
		player.Gold, player.Level, player.Experience, string(inventoryJSON))
	if err != nil {
		return fmt.Errorf("failed to save player: %w", err)
	}

	return nil
}

const playerColumns = `id, username, x, y, z, icon, color, hp, max_hp, gold, level, experience, inventory, created_at, updated_at`

// LoadPlayer loads a player from the database by ID
func (dm *PostgresStore) LoadPlayer(playerID string) (*models.Player, error) {
	row := dm.db.QueryRow(`SELECT `+playerColumns+` FROM players WHERE id = $1`, playerID)
	return scanPlayer(row, "ID "+playerID)
}

// LoadPlayerByUsername loads a player from the database by username
func (dm *PostgresStore) LoadPlayerByUsername(username string) (*models.Player, error) {
	row := dm.db.QueryRow(`SELECT `+playerColumns+` FROM players WHERE username = $1`, username)
	return scanPlayer(row, "username "+username)
}

func scanPlayer(row *sql.Row, which string) (*models.Player, error) {
	var player models.Player
	var colorJSON, inventoryJSON string

	err := row.Scan(
		&player.ID, &player.Username, &player.X, &player.Y, &player.Z,
		&player.Icon, &colorJSON, &player.HP, &player.MaxHP,
		&player.Gold, &player.Level, &player.Experience, &inventoryJSON,
		&player.CreatedAt, &player.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("player with %s: %w", which, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load player: %w", err)
	}

	if err := json.Unmarshal([]byte(colorJSON), &player.Color); err != nil {
		return nil, fmt.Errorf("failed to unmarshal player color: %w", err)
	}
	if err := json.Unmarshal([]byte(inventoryJSON), &player.Inventory); err != nil {
		return nil, fmt.Errorf("failed to unmarshal player inventory: %w", err)
	}

	return &player, nil
}

// SaveChunk saves a generated chunk to the database
func (dm *PostgresStore) SaveChunk(chunk *models.Chunk) error {
	tilesJSON, err := json.Marshal(chunk.Tiles)
	if err != nil {
		return fmt.Errorf("failed to marshal chunk tiles: %w", err)
	}

	query := `
	INSERT INTO chunks (x, y, height, name, rotation, difficulty, size_x, size_y, tiles)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (x, y, height)
	DO UPDATE SET
		name = $4, rotation = $5, difficulty = $6, size_x = $7, size_y = $8, tiles = $9
	`

	_, err = dm.db.Exec(query,
		chunk.X, chunk.Y, chunk.Height, chunk.Name, chunk.Rotation.String(),
		chunk.Difficulty, chunk.SizeX, chunk.SizeY, string(tilesJSON))
	if err != nil {
		return fmt.Errorf("failed to save chunk: %w", err)
	}

	return nil
}

// LoadChunk loads a chunk from the database by world coordinates
func (dm *PostgresStore) LoadChunk(x, y, height int) (*models.Chunk, error) {
	query := `SELECT name, rotation, difficulty, size_x, size_y, tiles FROM chunks WHERE x = $1 AND y = $2 AND height = $3`

	chunk := models.Chunk{X: x, Y: y, Height: height}
	var rotation, tilesJSON string

	err := dm.db.QueryRow(query, x, y, height).Scan(
		&chunk.Name, &rotation, &chunk.Difficulty, &chunk.SizeX, &chunk.SizeY, &tilesJSON,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("chunk %s: %w", models.ChunkKey(x, y, height), ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load chunk: %w", err)
	}

	if chunk.Rotation, err = models.ParseSide(rotation); err != nil {
		return nil, fmt.Errorf("failed to load chunk: %w", err)
	}
	if err := json.Unmarshal([]byte(tilesJSON), &chunk.Tiles); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chunk tiles: %w", err)
	}

	return &chunk, nil
}

// Close closes the database connection
func (dm *PostgresStore) Close() error {
	dm.log.Info("closing database connection")
	return dm.db.Close()
}
