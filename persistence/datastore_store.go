package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	ds "github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/query"
	ds_sync "github.com/ipfs/go-datastore/sync"
	badgerds "github.com/ipfs/go-ds-badger2"
	"github.com/lthibault/log"

	"terminus-realm/worldgen/models"
)

var (
	playersKey = ds.NewKey("/players")
	chunksKey  = ds.NewKey("/chunks")
)

// DatastoreStore keeps players and chunks as JSON values in a key/value
// datastore, either in memory or in a Badger database on disk.
type DatastoreStore struct {
	d ds.Batching
}

// NewDatastoreStore wraps an existing datastore
func NewDatastoreStore(d ds.Batching) *DatastoreStore {
	return &DatastoreStore{d: d}
}

// NewMemoryStore returns a store that lives for the process lifetime
func NewMemoryStore() *DatastoreStore {
	return NewDatastoreStore(ds_sync.MutexWrap(ds.NewMapDatastore()))
}

type badgerLogger struct{ log.Logger }

func (b badgerLogger) Warningf(fmt string, vs ...interface{}) {
	b.Warnf(fmt, vs...)
}

// NewBadgerStore opens (or creates) a Badger database under dir
func NewBadgerStore(dir string, logger log.Logger) (*DatastoreStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}

	opts := badgerds.DefaultOptions
	opts.Logger = badgerLogger{Logger: logger.WithField("data_dir", dir)}

	d, err := badgerds.NewDatastore(dir, &opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger datastore: %w", err)
	}
	return NewDatastoreStore(d), nil
}

func (s *DatastoreStore) put(key ds.Key, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.d.Put(context.Background(), key, data)
}

func (s *DatastoreStore) get(key ds.Key, v interface{}) error {
	data, err := s.d.Get(context.Background(), key)
	if errors.Is(err, ds.ErrNotFound) {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// SavePlayer saves a player to the store
func (s *DatastoreStore) SavePlayer(player *models.Player) error {
	if err := s.put(playersKey.ChildString(player.ID), player); err != nil {
		return fmt.Errorf("failed to save player: %w", err)
	}
	return nil
}

// LoadPlayer loads a player by ID
func (s *DatastoreStore) LoadPlayer(playerID string) (*models.Player, error) {
	var player models.Player
	if err := s.get(playersKey.ChildString(playerID), &player); err != nil {
		return nil, fmt.Errorf("failed to load player: %w", err)
	}
	return &player, nil
}

// LoadPlayerByUsername scans every stored player for username
func (s *DatastoreStore) LoadPlayerByUsername(username string) (*models.Player, error) {
	res, err := s.d.Query(context.Background(), query.Query{Prefix: playersKey.String()})
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer res.Close()

	for r := range res.Next() {
		if r.Error != nil {
			return nil, fmt.Errorf("failed to query players: %w", r.Error)
		}

		var player models.Player
		if err := json.Unmarshal(r.Value, &player); err != nil {
			return nil, fmt.Errorf("failed to decode player %s: %w", r.Key, err)
		}
		if player.Username == username {
			return &player, nil
		}
	}

	return nil, fmt.Errorf("player with username %s: %w", username, ErrNotFound)
}

// SaveChunk saves a generated chunk to the store
func (s *DatastoreStore) SaveChunk(chunk *models.Chunk) error {
	if err := s.put(chunksKey.ChildString(chunk.Key()), chunk); err != nil {
		return fmt.Errorf("failed to save chunk: %w", err)
	}
	return nil
}

// LoadChunk loads the chunk at the given world coordinates
func (s *DatastoreStore) LoadChunk(x, y, height int) (*models.Chunk, error) {
	var chunk models.Chunk
	if err := s.get(chunksKey.ChildString(models.ChunkKey(x, y, height)), &chunk); err != nil {
		return nil, fmt.Errorf("failed to load chunk: %w", err)
	}
	return &chunk, nil
}

// Close syncs and closes the underlying datastore
func (s *DatastoreStore) Close() error {
	if err := s.d.Sync(context.Background(), ds.NewKey("/")); err != nil {
		return err
	}
	return s.d.Close()
}
