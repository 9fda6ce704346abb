package models_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terminus-realm/worldgen/models"
)

func TestDefaultTileMap(t *testing.T) {
	t.Parallel()

	tm := models.DefaultTileMap()

	id, ok := tm.ID("brick_wall")
	require.True(t, ok)
	assert.Equal(t, models.TileBrickWall, id)
	assert.Equal(t, "brick_wall", tm.Name(id))
	assert.True(t, tm.IsSolid(id))

	_, ok = tm.ID("lava")
	assert.False(t, ok)
	assert.Empty(t, tm.Name(-1))
	assert.Empty(t, tm.Name(len(tm.Names())))
	assert.False(t, tm.IsSolid(models.TileGrass))
}

func TestSides(t *testing.T) {
	t.Parallel()

	assert.Equal(t, models.SideLeft, models.SideDown.Combine(models.SideRight))
	assert.Equal(t, models.SideUp, models.SideLeft.Combine(models.SideRight))
	assert.Equal(t, models.SideRight, models.SideLeft.Mirror())
	assert.Equal(t, models.SideUp, models.SideUp.Mirror())

	side, err := models.ParseSide("Down")
	require.NoError(t, err)
	assert.Equal(t, models.SideDown, side)

	_, err = models.ParseSide("sideways")
	assert.Error(t, err)
}

func TestChunkJSON(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(models.Chunk{Name: "park", X: -1, Y: 2, Height: 0, Rotation: models.SideLeft})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"rotation":"left"`)

	var c models.Chunk
	require.NoError(t, json.Unmarshal(b, &c))
	assert.Equal(t, models.SideLeft, c.Rotation)
	assert.Equal(t, "-1,2,0", c.Key())
	assert.Equal(t, c.Key(), models.ChunkKey(-1, 2, 0))
}

func TestEntityPositions(t *testing.T) {
	t.Parallel()

	for _, e := range []models.Entity{
		&models.Player{ID: "p"},
		&models.Monster{ID: "m"},
		&models.Item{ID: "i"},
	} {
		e.SetPosition(models.Position{X: 1, Y: -2, Z: 3})
		assert.Equal(t, models.Position{X: 1, Y: -2, Z: 3}, e.GetPosition(), e.GetID())
	}
}
