package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terminus-realm/worldgen/models"
	"terminus-realm/worldgen/persistence"
	"terminus-realm/worldgen/persistence/mock_persistence"
	"terminus-realm/worldgen/services"
)

func TestChunkFlightOutlivesCanceledCaller(t *testing.T) {
	t.Parallel()

	entered, gate := make(chan struct{}), make(chan struct{})

	ctrl := gomock.NewController(t)
	store := mock_persistence.NewMockStorage(ctrl)
	store.EXPECT().
		LoadChunk(0, 0, 0).
		DoAndReturn(func(x, y, height int) (*models.Chunk, error) {
			close(entered)
			<-gate
			return nil, persistence.ErrNotFound
		}).
		Times(1)
	store.EXPECT().
		SaveChunk(gomock.Any()).
		Return(nil).
		Times(1)

	cm := services.NewChunkManager(services.ChunkManagerConfig{
		Generator: newYardGenerator(t),
		Store:     store,
		Layout:    yardLayout,
	})

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := cm.GetChunk(ctx, 0, 0, 0)
		first <- err
	}()
	<-entered

	second := make(chan error, 1)
	go func() {
		chunk, err := cm.GetChunk(context.Background(), 0, 0, 0)
		if err == nil && chunk == nil {
			err = errors.New("no chunk")
		}
		second <- err
	}()

	cancel()
	assert.ErrorIs(t, <-first, context.Canceled, "the first caller returns once canceled")

	close(gate)
	require.NoError(t, <-second, "the shared flight finishes for the callers still waiting")
}

func TestChunkManagerGeneratesOnce(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	store := mock_persistence.NewMockStorage(ctrl)
	store.EXPECT().
		LoadChunk(2, -1, 0).
		Return(nil, fmt.Errorf("chunk: %w", persistence.ErrNotFound)).
		Times(1)
	store.EXPECT().
		SaveChunk(gomock.Any()).
		Return(nil).
		Times(1)

	cm := services.NewChunkManager(services.ChunkManagerConfig{
		Generator: newYardGenerator(t),
		Store:     store,
		Layout:    yardLayout,
	})

	var wg sync.WaitGroup
	got := make([]*models.Chunk, 8)
	errs := make([]error, len(got))
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], errs[i] = cm.GetChunk(context.Background(), 2, -1, 0)
		}(i)
	}
	wg.Wait()

	for i := range got {
		require.NoError(t, errs[i])
		assert.Same(t, got[0], got[i])
	}
	assert.Equal(t, "yard", got[0].Name)
	assert.Equal(t, 2, got[0].X)
	assert.Equal(t, -1, got[0].Y)
}

func TestChunkManagerLoadsStored(t *testing.T) {
	t.Parallel()

	stored := &models.Chunk{Name: "saved", X: 1, Y: 1, SizeX: 16, SizeY: 16, Tiles: make([]models.Tile, 256)}

	ctrl := gomock.NewController(t)
	store := mock_persistence.NewMockStorage(ctrl)
	store.EXPECT().LoadChunk(1, 1, 0).Return(stored, nil)

	cm := services.NewChunkManager(services.ChunkManagerConfig{
		Generator: newYardGenerator(t),
		Store:     store,
		Layout:    yardLayout,
	})

	chunk, err := cm.GetChunk(context.Background(), 1, 1, 0)
	require.NoError(t, err)
	assert.Same(t, stored, chunk)

	// cached from now on
	chunk, err = cm.GetChunk(context.Background(), 1, 1, 0)
	require.NoError(t, err)
	assert.Same(t, stored, chunk)
}

func TestChunkManagerStoreError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	store := mock_persistence.NewMockStorage(ctrl)
	store.EXPECT().LoadChunk(0, 0, 0).Return(nil, errors.New("disk on fire"))

	cm := services.NewChunkManager(services.ChunkManagerConfig{
		Generator: newYardGenerator(t),
		Store:     store,
		Layout:    yardLayout,
	})

	_, err := cm.GetChunk(context.Background(), 0, 0, 0)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, persistence.ErrNotFound)
}

func TestChunkManagerPersists(t *testing.T) {
	t.Parallel()

	store := persistence.NewMemoryStore()
	cfg := services.ChunkManagerConfig{
		Generator: newYardGenerator(t),
		Store:     store,
		Layout:    yardLayout,
	}

	first, err := services.NewChunkManager(cfg).GetChunk(context.Background(), 0, 3, 1)
	require.NoError(t, err)

	again, err := services.NewChunkManager(cfg).GetChunk(context.Background(), 0, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestLoadChunksAround(t *testing.T) {
	t.Parallel()

	cm := services.NewChunkManager(services.ChunkManagerConfig{
		Generator:    newYardGenerator(t),
		Store:        persistence.NewMemoryStore(),
		Layout:       yardLayout,
		Workers:      2,
		BufferRadius: 1,
	})

	chunks, err := cm.LoadChunksAround(context.Background(), models.Position{X: -1, Y: -1, Z: 0})
	require.NoError(t, err)
	require.Len(t, chunks, 9)

	i := 0
	for y := -2; y <= 0; y++ {
		for x := -2; x <= 0; x++ {
			assert.Equal(t, x, chunks[i].X)
			assert.Equal(t, y, chunks[i].Y)
			i++
		}
	}
	assert.Len(t, cm.Cached(), 9)
}

func TestTileAt(t *testing.T) {
	t.Parallel()

	cm := services.NewChunkManager(services.ChunkManagerConfig{
		Generator: newYardGenerator(t),
		Store:     persistence.NewMemoryStore(),
		Layout:    yardLayout,
	})

	for _, tt := range []struct {
		pos  models.Position
		want string
	}{
		{models.Position{X: -1, Y: -1}, "brick_wall"},
		{models.Position{X: -16, Y: 0}, "brick_wall"},
		{models.Position{X: -15, Y: 1}, "grass"},
		{models.Position{X: 10, Y: 10}, "stairs_up"},
		{models.Position{X: 26, Y: 26}, "stairs_up"},
		{models.Position{X: 3, Y: 3, Z: 1}, "brick_wall"},
		{models.Position{X: 4, Y: 3, Z: 1}, "wood_floor"},
	} {
		tile, err := cm.TileAt(context.Background(), tt.pos)
		require.NoError(t, err)
		assert.Equal(t, tt.want, tile.Name, "%+v", tt.pos)
	}

	tile, err := cm.TileAt(context.Background(), models.Position{X: 5, Y: 5})
	require.NoError(t, err)
	assert.True(t, tile.IsMarker())
}

func TestCityLayout(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "street", services.CityLayout(1, 0, 3, 0).Name)
	assert.Equal(t, "street", services.CityLayout(1, -4, 3, 0).Name)
	assert.Equal(t, "street", services.CityLayout(1, 5, 8, 0).Name)
	assert.Equal(t, models.SideUp, services.CityLayout(1, 5, 8, 0).Rotation)
	assert.Equal(t, models.SideRight, services.CityLayout(1, 8, 5, 0).Rotation)
	assert.Equal(t, "underground", services.CityLayout(1, 1, 1, -1).Name)

	for x := 1; x < 4; x++ {
		for y := 1; y < 4; y++ {
			req := services.CityLayout(9, x, y, 0)
			assert.Contains(t, []string{"park", "apartment"}, req.Name)
			if req.Name == "apartment" {
				assert.GreaterOrEqual(t, req.Levels, 4)
				assert.LessOrEqual(t, req.Levels, 8)
			}
			assert.Equal(t, req, services.CityLayout(9, x, y, 0))
		}
	}

	assert.Equal(t, 0.0, services.CityLayout(1, 0, 0, 0).Difficulty)
	assert.Equal(t, 5.0, services.CityLayout(1, 100, -100, 0).Difficulty)
}

func TestCityLayoutGenerates(t *testing.T) {
	t.Parallel()

	g, err := worldgenDefault()
	require.NoError(t, err)

	cm := services.NewChunkManager(services.ChunkManagerConfig{
		Generator:    g,
		Store:        persistence.NewMemoryStore(),
		BufferRadius: 2,
	})

	for _, height := range []int{-1, 0, 1, 5} {
		chunks, err := cm.LoadChunksAround(context.Background(), models.Position{X: 20, Y: 20, Z: height})
		require.NoError(t, err, "height %d", height)
		assert.Len(t, chunks, 25)
	}
}
