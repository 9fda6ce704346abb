package services_test

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"terminus-realm/worldgen/loot"
	"terminus-realm/worldgen/models"
	"terminus-realm/worldgen/persistence"
	"terminus-realm/worldgen/services"
	"terminus-realm/worldgen/worldgen"
)

// a walled yard with a zombie at (5,5), a crate at (7,7) and stairs at
// (10,10); every other level is open floor with one wall at (3,3)
const yardScript = `
(define (yard)
  (let ((chunk (filled-chunk 'grass)))
    (rectangle-outline chunk (chunk-area) (tile 'brick_wall))
    (put-tile chunk (make-point 10 10) (tile 'stairs_up))
    (combine-markers chunk (make-point 5 5) (list 'enemy 'zombie))
    (combine-markers chunk (make-point 7 7) (list 'furniture 'crate 'up))
    chunk))

(define (loft)
  (let ((chunk (filled-chunk 'wood_floor)))
    (put-tile chunk (make-point 3 3) (tile 'brick_wall))
    chunk))

(if (= height 0) (yard) (loft))
`

func yardLayout(seed int64, chunkX, chunkY, height int) worldgen.Request {
	return worldgen.Request{Name: "yard", X: chunkX, Y: chunkY, Height: height, Levels: 2, Difficulty: 1}
}

func newYardGenerator(t *testing.T) *worldgen.Generator {
	t.Helper()

	g, err := worldgen.NewGenerator(worldgen.Config{
		Seed:    1,
		Scripts: fstest.MapFS{"yard.scm": {Data: []byte(yardScript)}},
	})
	require.NoError(t, err)
	return g
}

type world struct {
	chunks   *services.ChunkManager
	entities *services.EntityRegistry
	world    *services.WorldService
	store    persistence.Storage
}

func newWorld(t *testing.T) *world {
	t.Helper()

	store := persistence.NewMemoryStore()
	chunks := services.NewChunkManager(services.ChunkManagerConfig{
		Generator: newYardGenerator(t),
		Store:     store,
		Layout:    yardLayout,
	})

	entities, err := services.NewEntityRegistry()
	require.NoError(t, err)

	table, err := loot.NewTable(loot.WithSeed(3))
	require.NoError(t, err)

	return &world{
		chunks:   chunks,
		entities: entities,
		store:    store,
		world: services.NewWorldService(services.WorldServiceConfig{
			Chunks:   chunks,
			Entities: entities,
			Loot:     table,
			Store:    store,
			Seed:     5,
		}),
	}
}

func newPlayer(id string, x, y int) *models.Player {
	return &models.Player{ID: id, Username: id, X: x, Y: y, HP: 100, MaxHP: 100, Level: 1}
}

func worldgenDefault() (*worldgen.Generator, error) {
	return worldgen.NewGenerator(worldgen.Config{Seed: 1})
}
