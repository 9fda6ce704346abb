package persistence_test

import (
	"path/filepath"
	"testing"

	"github.com/lthibault/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terminus-realm/worldgen/models"
	"terminus-realm/worldgen/persistence"
)

func stores(t *testing.T) map[string]persistence.Storage {
	t.Helper()

	js, err := persistence.NewJSONStore(filepath.Join(t.TempDir(), "world.json"))
	require.NoError(t, err)

	bs, err := persistence.NewBadgerStore(t.TempDir(), log.New())
	require.NoError(t, err)

	return map[string]persistence.Storage{
		"json":   js,
		"memory": persistence.NewMemoryStore(),
		"badger": bs,
	}
}

func testChunk() *models.Chunk {
	return &models.Chunk{
		Name:       "apartment",
		X:          2,
		Y:          -3,
		Height:     1,
		Rotation:   models.SideLeft,
		Difficulty: 1.5,
		SizeX:      2,
		SizeY:      1,
		Tiles: []models.Tile{
			{Name: "brick_wall", ID: models.TileBrickWall, Rotation: models.SideLeft},
			{ID: -1, Markers: []models.Marker{
				{Kind: models.MarkerDoor, Side: models.SideRight, Material: "wood", State: "closed"},
				{Kind: models.MarkerLight, Strength: 0.8, Offset: []float64{0, 0.5}},
			}},
		},
	}
}

func TestStorePlayers(t *testing.T) {
	t.Parallel()

	for name, store := range stores(t) {
		player := &models.Player{ID: "p1", Username: "alice", X: 3, HP: 10, Inventory: []string{"heal pills"}}
		require.NoError(t, store.SavePlayer(player), name)

		got, err := store.LoadPlayer("p1")
		require.NoError(t, err, name)
		assert.Equal(t, "alice", got.Username, name)
		assert.Equal(t, []string{"heal pills"}, got.Inventory, name)

		got, err = store.LoadPlayerByUsername("alice")
		require.NoError(t, err, name)
		assert.Equal(t, "p1", got.ID, name)

		_, err = store.LoadPlayer("p2")
		assert.ErrorIs(t, err, persistence.ErrNotFound, name)
		_, err = store.LoadPlayerByUsername("bob")
		assert.ErrorIs(t, err, persistence.ErrNotFound, name)

		assert.NoError(t, store.Close(), name)
	}
}

func TestStoreChunks(t *testing.T) {
	t.Parallel()

	for name, store := range stores(t) {
		chunk := testChunk()
		require.NoError(t, store.SaveChunk(chunk), name)

		got, err := store.LoadChunk(2, -3, 1)
		require.NoError(t, err, name)
		assert.Equal(t, chunk, got, name)

		_, err = store.LoadChunk(2, -3, 2)
		assert.ErrorIs(t, err, persistence.ErrNotFound, name)

		assert.NoError(t, store.Close(), name)
	}
}

func TestJSONStoreReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "world.json")
	store, err := persistence.NewJSONStore(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveChunk(testChunk()))

	reopened, err := persistence.NewJSONStore(path)
	require.NoError(t, err)
	got, err := reopened.LoadChunk(2, -3, 1)
	require.NoError(t, err)
	assert.Equal(t, testChunk(), got)
}
