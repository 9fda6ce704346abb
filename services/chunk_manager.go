package services

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/lthibault/log"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"terminus-realm/worldgen/metrics"
	"terminus-realm/worldgen/models"
	"terminus-realm/worldgen/persistence"
	"terminus-realm/worldgen/worldgen"
)

// Layout decides which chunk script fills a chunk slot
type Layout func(seed int64, chunkX, chunkY, height int) worldgen.Request

// ChunkManagerConfig configures a ChunkManager
type ChunkManagerConfig struct {
	Generator *worldgen.Generator
	Store     persistence.Storage
	Layout    Layout
	Seed      int64
	// Workers bounds concurrent generation in LoadChunksAround
	Workers      int
	BufferRadius int
	Logger       log.Logger
	Metrics      metrics.Metrics
}

// ChunkManager generates chunks on first use, caches them and keeps them
// in storage so a restarted server sees the same world.
type ChunkManager struct {
	gen          *worldgen.Generator
	store        persistence.Storage
	layout       Layout
	seed         int64
	workers      int
	bufferRadius int
	log          log.Logger
	metrics      metrics.Metrics

	group      singleflight.Group
	chunks     map[string]*models.Chunk
	worldMutex sync.RWMutex
}

// NewChunkManager creates a new chunk manager
func NewChunkManager(cfg ChunkManagerConfig) *ChunkManager {
	if cfg.Layout == nil {
		cfg.Layout = CityLayout
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.BufferRadius < 0 {
		cfg.BufferRadius = 0
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Nop{}
	}

	return &ChunkManager{
		gen:          cfg.Generator,
		store:        cfg.Store,
		layout:       cfg.Layout,
		seed:         cfg.Seed,
		workers:      cfg.Workers,
		bufferRadius: cfg.BufferRadius,
		log:          cfg.Logger,
		metrics:      cfg.Metrics.WithPrefix("chunk"),
		chunks:       make(map[string]*models.Chunk),
	}
}

// ChunkSize returns the tile dimensions of every chunk
func (cm *ChunkManager) ChunkSize() (int, int) {
	return cm.gen.Size()
}

// getChunkCoordinates calculates the chunk coordinates for a given position
func (cm *ChunkManager) getChunkCoordinates(x, y int) (int, int) {
	sx, sy := cm.gen.Size()
	return floorDiv(x, sx), floorDiv(y, sy)
}

func floorDiv(v, size int) int {
	c := v / size
	if v < 0 && v%size != 0 {
		c--
	}
	return c
}

// GetChunk returns the chunk at chunk coordinates, loading it from
// storage or generating it when it has never been seen.
func (cm *ChunkManager) GetChunk(ctx context.Context, chunkX, chunkY, height int) (*models.Chunk, error) {
	key := models.ChunkKey(chunkX, chunkY, height)

	cm.worldMutex.RLock()
	chunk, exists := cm.chunks[key]
	cm.worldMutex.RUnlock()

	if exists {
		cm.metrics.Incr("cache_hit")
		return chunk, nil
	}

	// the flight is shared, so it must not end when its first caller gives up
	flight := cm.group.DoChan(key, func() (interface{}, error) {
		return cm.createChunk(context.WithoutCancel(ctx), chunkX, chunkY, height)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-flight:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.Chunk), nil
	}
}

func (cm *ChunkManager) createChunk(ctx context.Context, chunkX, chunkY, height int) (*models.Chunk, error) {
	key := models.ChunkKey(chunkX, chunkY, height)

	// another flight may have finished between the cache miss and now
	cm.worldMutex.RLock()
	chunk, exists := cm.chunks[key]
	cm.worldMutex.RUnlock()
	if exists {
		return chunk, nil
	}

	chunk, err := cm.store.LoadChunk(chunkX, chunkY, height)
	switch {
	case err == nil:
		cm.metrics.Incr("loaded")
	case errors.Is(err, persistence.ErrNotFound):
		if chunk, err = cm.generate(ctx, chunkX, chunkY, height); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("failed to load chunk %s: %w", key, err)
	}

	cm.worldMutex.Lock()
	cm.chunks[key] = chunk
	cm.worldMutex.Unlock()

	return chunk, nil
}

func (cm *ChunkManager) generate(ctx context.Context, chunkX, chunkY, height int) (*models.Chunk, error) {
	req := cm.layout(cm.seed, chunkX, chunkY, height)
	req.X, req.Y, req.Height = chunkX, chunkY, height

	logger := cm.log.WithFields(logrus.Fields{
		"chunk":  models.ChunkKey(chunkX, chunkY, height),
		"script": req.Name,
	})

	start := time.Now()
	chunk, err := cm.gen.Generate(ctx, req)
	cm.metrics.Duration("generate", time.Since(start))
	if err != nil {
		logger.WithError(err).Error("chunk generation failed")
		return nil, fmt.Errorf("failed to generate chunk %s: %w", req.Name, err)
	}
	cm.metrics.Incr("generated")

	if err := cm.store.SaveChunk(chunk); err != nil {
		return nil, fmt.Errorf("failed to save chunk: %w", err)
	}

	logger.WithField("difficulty", req.Difficulty).Debug("generated chunk")
	return chunk, nil
}

// TileAt returns the tile under a world position
func (cm *ChunkManager) TileAt(ctx context.Context, pos models.Position) (models.Tile, error) {
	chunkX, chunkY := cm.getChunkCoordinates(pos.X, pos.Y)
	chunk, err := cm.GetChunk(ctx, chunkX, chunkY, pos.Z)
	if err != nil {
		return models.Tile{}, err
	}

	sx, sy := cm.gen.Size()
	tile, _ := chunk.At(pos.X-chunkX*sx, pos.Y-chunkY*sy)
	return tile, nil
}

// LoadChunksAround loads the chunks within the buffer radius of a world
// position, generating missing ones concurrently.
func (cm *ChunkManager) LoadChunksAround(ctx context.Context, center models.Position) ([]*models.Chunk, error) {
	centerChunkX, centerChunkY := cm.getChunkCoordinates(center.X, center.Y)
	side := cm.bufferRadius*2 + 1
	chunks := make([]*models.Chunk, side*side)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cm.workers)

	for dy := -cm.bufferRadius; dy <= cm.bufferRadius; dy++ {
		for dx := -cm.bufferRadius; dx <= cm.bufferRadius; dx++ {
			i := (dy+cm.bufferRadius)*side + dx + cm.bufferRadius
			chunkX, chunkY := centerChunkX+dx, centerChunkY+dy
			g.Go(func() (err error) {
				chunks[i], err = cm.GetChunk(ctx, chunkX, chunkY, center.Z)
				return
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return chunks, nil
}

// Cached lists the chunks held in memory
func (cm *ChunkManager) Cached() []*models.Chunk {
	cm.worldMutex.RLock()
	defer cm.worldMutex.RUnlock()

	out := make([]*models.Chunk, 0, len(cm.chunks))
	for _, c := range cm.chunks {
		out = append(out, c)
	}
	return out
}

// Flush writes every cached chunk back to storage
func (cm *ChunkManager) Flush() error {
	for _, c := range cm.Cached() {
		if err := cm.store.SaveChunk(c); err != nil {
			return fmt.Errorf("failed to save chunk %s: %w", c.Key(), err)
		}
	}
	return nil
}

const (
	blockSpacing  = 4
	maxDifficulty = 5.0
)

// CityLayout lays streets along every fourth chunk row and column with
// apartment blocks and parks in between. Below ground everything is
// underground. Difficulty grows with distance from the origin.
func CityLayout(seed int64, chunkX, chunkY, height int) worldgen.Request {
	h := layoutHash(seed, chunkX, chunkY)

	req := worldgen.Request{
		X:          chunkX,
		Y:          chunkY,
		Height:     height,
		Levels:     1,
		Rotation:   models.Side(h % 4),
		Difficulty: math.Min(math.Hypot(float64(chunkX), float64(chunkY))/blockSpacing, maxDifficulty),
	}

	onColumn := mod(chunkX, blockSpacing) == 0
	onRow := mod(chunkY, blockSpacing) == 0

	switch {
	case height < 0:
		req.Name = "underground"
	case onRow:
		req.Name, req.Rotation = "street", models.SideUp
	case onColumn:
		req.Name, req.Rotation = "street", models.SideRight
	case h%3 == 0:
		req.Name = "park"
	default:
		req.Name = "apartment"
		req.Levels = 4 + int((h>>8)%5)
	}

	return req
}

func layoutHash(seed int64, chunkX, chunkY int) uint64 {
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:], uint64(seed))
	binary.LittleEndian.PutUint64(buf[8:], uint64(chunkX))
	binary.LittleEndian.PutUint64(buf[16:], uint64(chunkY))
	return xxhash.Sum64(buf[:])
}

func mod(v, m int) int {
	r := v % m
	if r < 0 {
		r += m
	}
	return r
}
