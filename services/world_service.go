package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lthibault/log"
	"github.com/sirupsen/logrus"

	"terminus-realm/worldgen/lisp"
	"terminus-realm/worldgen/loot"
	"terminus-realm/worldgen/messages"
	"terminus-realm/worldgen/metrics"
	"terminus-realm/worldgen/models"
	"terminus-realm/worldgen/persistence"
	"terminus-realm/worldgen/worldgen"
)

var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrTargetNotFound = errors.New("target not found")
	ErrBlocked        = errors.New("movement blocked")
)

const (
	defaultViewRadius   = 10
	defaultScriptSteps  = 1_000_000
	defaultScriptOutput = 64 << 10
)

type monsterStats struct {
	char    string
	hp      int
	attack  int
	defense int
	xp      int
}

// stats per enemy kind placed by chunk scripts
var bestiary = map[string]monsterStats{
	"zombie":        {char: "z", hp: 20, attack: 4, defense: 0, xp: 10},
	"strong_zombie": {char: "Z", hp: 35, attack: 7, defense: 1, xp: 25},
	"tough_zombie":  {char: "T", hp: 50, attack: 5, defense: 3, xp: 30},
}

// WorldServiceConfig configures a WorldService
type WorldServiceConfig struct {
	Chunks   *ChunkManager
	Entities *EntityRegistry
	Loot     *loot.Table
	Tiles    *models.TileMap
	Store    persistence.Storage
	Logger   log.Logger
	Metrics  metrics.Metrics
	// Seed drives combat rolls
	Seed       int64
	ViewRadius int

	// ScriptSteps bounds the evaluation steps of one RunScript call
	ScriptSteps int64
	// ScriptOutput bounds the bytes a script may display
	ScriptOutput int
}

// WorldService manages the game world
type WorldService struct {
	chunks     *ChunkManager
	entities   *EntityRegistry
	loot       *loot.Table
	tiles      *models.TileMap
	db         persistence.Storage
	log        log.Logger
	metrics    metrics.Metrics
	viewRadius int

	scriptSteps  int64
	scriptOutput int

	rng        *rand.Rand
	spawned    map[string]bool
	worldMutex sync.Mutex
}

// NewWorldService creates a new world service
func NewWorldService(cfg WorldServiceConfig) *WorldService {
	if cfg.Tiles == nil {
		cfg.Tiles = models.DefaultTileMap()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Nop{}
	}
	if cfg.ViewRadius <= 0 {
		cfg.ViewRadius = defaultViewRadius
	}
	if cfg.ScriptSteps <= 0 {
		cfg.ScriptSteps = defaultScriptSteps
	}
	if cfg.ScriptOutput <= 0 {
		cfg.ScriptOutput = defaultScriptOutput
	}

	return &WorldService{
		chunks:       cfg.Chunks,
		entities:     cfg.Entities,
		loot:         cfg.Loot,
		tiles:        cfg.Tiles,
		db:           cfg.Store,
		log:          cfg.Logger,
		metrics:      cfg.Metrics,
		viewRadius:   cfg.ViewRadius,
		scriptSteps:  cfg.ScriptSteps,
		scriptOutput: cfg.ScriptOutput,
		rng:          rand.New(rand.NewSource(cfg.Seed)),
		spawned:      make(map[string]bool),
	}
}

// Chunks exposes the chunk manager
func (ws *WorldService) Chunks() *ChunkManager {
	return ws.chunks
}

// AddPlayer adds a player to the world and populates the chunks around it
func (ws *WorldService) AddPlayer(ctx context.Context, player *models.Player) error {
	ws.worldMutex.Lock()
	defer ws.worldMutex.Unlock()

	if err := ws.entities.Add(player); err != nil {
		return err
	}
	return ws.populate(ctx, player.GetPosition())
}

// RemovePlayer removes a player from the world
func (ws *WorldService) RemovePlayer(playerID string) {
	ws.worldMutex.Lock()
	defer ws.worldMutex.Unlock()

	if err := ws.entities.Remove(playerID); err != nil {
		ws.log.WithError(err).WithField("player", playerID).Warn("failed to remove player")
	}
}

func (ws *WorldService) player(playerID string) (*models.Player, error) {
	e, ok := ws.entities.Get(playerID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}
	player, ok := e.(*models.Player)
	if !ok {
		return nil, fmt.Errorf("%w: %s is a %s", ErrPlayerNotFound, playerID, kindOf(e))
	}
	return player, nil
}

// WithPlayer runs fn on a player while the world is locked
func (ws *WorldService) WithPlayer(playerID string, fn func(*models.Player) error) error {
	ws.worldMutex.Lock()
	defer ws.worldMutex.Unlock()

	player, err := ws.player(playerID)
	if err != nil {
		return err
	}
	return fn(player)
}

// populate loads the chunks around pos and spawns the enemies their
// scripts placed, once per chunk.
func (ws *WorldService) populate(ctx context.Context, pos models.Position) error {
	chunks, err := ws.chunks.LoadChunksAround(ctx, pos)
	if err != nil {
		return fmt.Errorf("failed to load chunks: %w", err)
	}

	sx, sy := ws.chunks.ChunkSize()
	for _, chunk := range chunks {
		if ws.spawned[chunk.Key()] {
			continue
		}
		ws.spawned[chunk.Key()] = true

		for i, tile := range chunk.Tiles {
			pos := models.Position{
				X: chunk.X*sx + i%chunk.SizeX,
				Y: chunk.Y*sy + i/chunk.SizeX,
				Z: chunk.Height,
			}
			for _, m := range tile.Markers {
				var e models.Entity
				switch m.Kind {
				case models.MarkerEnemy:
					e = newMonster(m.Name, pos)
				case models.MarkerFurniture:
					e = newFurniture(m.Name, pos)
				default:
					continue
				}
				if err := ws.entities.Add(e); err != nil {
					return err
				}
				ws.metrics.Incr(kindOf(e) + ".spawned")
			}
		}
	}
	return nil
}

func newMonster(name string, pos models.Position) *models.Monster {
	stats, ok := bestiary[name]
	if !ok {
		stats = bestiary["zombie"]
	}
	return &models.Monster{
		ID:       uuid.NewString(),
		Name:     name,
		X:        pos.X,
		Y:        pos.Y,
		Z:        pos.Z,
		Char:     stats.char,
		FgColor:  []int{120, 200, 80},
		HP:       stats.hp,
		MaxHP:    stats.hp,
		Attack:   stats.attack,
		Defense:  stats.defense,
		AIType:   "melee",
		XPReward: stats.xp,
	}
}

func newFurniture(name string, pos models.Position) *models.Item {
	return &models.Item{
		ID:          uuid.NewString(),
		Name:        name,
		Type:        "furniture",
		Char:        "#",
		Color:       []int{160, 110, 60},
		Description: strings.ReplaceAll(name, "_", " "),
		X:           pos.X,
		Y:           pos.Y,
		Z:           pos.Z,
	}
}

// MovePlayer processes a player movement request. Stairs move the player
// one level up or down when the tile above or below is walkable.
func (ws *WorldService) MovePlayer(ctx context.Context, playerID string, direction string) (*models.Position, error) {
	ws.worldMutex.Lock()
	defer ws.worldMutex.Unlock()

	player, err := ws.player(playerID)
	if err != nil {
		return nil, err
	}

	newPos := player.GetPosition()
	switch direction {
	case "north":
		newPos.Y--
	case "south":
		newPos.Y++
	case "east":
		newPos.X++
	case "west":
		newPos.X--
	case "northeast":
		newPos.X++
		newPos.Y--
	case "northwest":
		newPos.X--
		newPos.Y--
	case "southeast":
		newPos.X++
		newPos.Y++
	case "southwest":
		newPos.X--
		newPos.Y++
	default:
		return nil, fmt.Errorf("invalid direction %q", direction)
	}

	tile, err := ws.chunks.TileAt(ctx, newPos)
	if err != nil {
		return nil, err
	}
	if ws.tiles.IsSolid(tile.ID) {
		return nil, fmt.Errorf("%w by %s", ErrBlocked, tile.Name)
	}
	if m, ok := ws.entities.At(KindMonster, newPos); ok {
		return nil, fmt.Errorf("%w by %s", ErrBlocked, m.(*models.Monster).Name)
	}

	if tile.ID == models.TileStairsUp || tile.ID == models.TileStairsDown {
		next := newPos
		if tile.ID == models.TileStairsUp {
			next.Z++
		} else {
			next.Z--
		}
		if landing, err := ws.chunks.TileAt(ctx, next); err == nil && !ws.tiles.IsSolid(landing.ID) {
			newPos = next
		}
	}

	player.SetPosition(newPos)
	if err := ws.populate(ctx, newPos); err != nil {
		return nil, err
	}

	return &newPos, nil
}

// ProcessCombat handles a player attacking a monster or smashing a piece
// of furniture. A monster that survives hits back. Whatever is destroyed
// drops its loot into the attacker's inventory.
func (ws *WorldService) ProcessCombat(ctx context.Context, attackerID string, targetID string, action string) (*messages.CombatResultMessage, error) {
	ws.worldMutex.Lock()
	defer ws.worldMutex.Unlock()

	attacker, err := ws.player(attackerID)
	if err != nil {
		return nil, err
	}

	target, ok := ws.entities.Get(targetID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTargetNotFound, targetID)
	}

	apos, tpos := attacker.GetPosition(), target.GetPosition()
	if apos.Z != tpos.Z || abs(apos.X-tpos.X) > 1 || abs(apos.Y-tpos.Y) > 1 {
		return nil, fmt.Errorf("%s is out of reach", targetID)
	}

	result := &messages.CombatResultMessage{
		Attacker: attacker.Username,
		Target:   targetID,
		Action:   action,
		Result:   "hit",
	}

	var (
		name   string
		states []loot.State
	)
	switch t := target.(type) {
	case *models.Monster:
		result.Damage = ws.rng.Intn(10) + attacker.Level - t.Defense
		if result.Damage < 1 {
			result.Damage = 1
		}
		t.HP -= result.Damage
		result.TargetHP = t.HP

		if t.HP > 0 {
			result.Retaliated = ws.rng.Intn(t.Attack) + 1
			attacker.HP -= result.Retaliated
			if attacker.HP < 1 {
				attacker.HP = 1
			}
			return result, nil
		}

		name, states = t.Name, []loot.State{loot.StateCreate, loot.StateEquip}
		result.TargetHP = 0
		result.Experience = t.XPReward
	case *models.Item:
		// contents spill out along with the salvage
		name, states = t.Name, []loot.State{loot.StateCreate, loot.StateDestroy}
	default:
		return nil, fmt.Errorf("%w: cannot attack %s %s", ErrTargetNotFound, kindOf(target), targetID)
	}

	result.Result = "destroyed"
	if err := ws.entities.Remove(targetID); err != nil {
		return nil, err
	}

	difficulty := 0.0
	sx, sy := ws.chunks.ChunkSize()
	if chunk, err := ws.chunks.GetChunk(ctx, floorDiv(tpos.X, sx), floorDiv(tpos.Y, sy), tpos.Z); err == nil {
		difficulty = chunk.Difficulty
	}

	for _, state := range states {
		items, err := ws.rollLoot(ctx, name, state, difficulty)
		if errors.Is(err, loot.ErrUnknownLootEntry) {
			break
		}
		if err != nil {
			return nil, err
		}
		result.Loot = append(result.Loot, items...)
	}

	attacker.Experience += result.Experience
	attacker.Inventory = append(attacker.Inventory, result.Loot...)
	attacker.UpdatedAt = time.Now()
	if err := ws.db.SavePlayer(attacker); err != nil {
		return nil, fmt.Errorf("failed to save player: %w", err)
	}

	ws.log.WithFields(logrus.Fields{
		"player": attacker.ID,
		"target": name,
		"loot":   result.Loot,
	}).Debug("target destroyed")

	return result, nil
}

// RollLoot rolls a loot table outside of combat
func (ws *WorldService) RollLoot(ctx context.Context, name string, state loot.State, difficulty float64) ([]string, error) {
	return ws.rollLoot(ctx, name, state, difficulty)
}

func (ws *WorldService) rollLoot(ctx context.Context, name string, state loot.State, difficulty float64) ([]string, error) {
	start := time.Now()
	defer func() { ws.metrics.Duration("loot.create", time.Since(start)) }()

	return ws.loot.Create(ctx, name, state, difficulty)
}

// ChunkData returns the chunk at chunk coordinates
func (ws *WorldService) ChunkData(ctx context.Context, chunkX, chunkY, height int) (*models.Chunk, error) {
	return ws.chunks.GetChunk(ctx, chunkX, chunkY, height)
}

// RunScript evaluates an entity script on behalf of a player. The world is
// locked around each entity access rather than for the whole run, and the
// script is stopped once it exceeds its step budget or output cap, or ctx
// is done.
func (ws *WorldService) RunScript(ctx context.Context, playerID, src string) (*messages.ScriptResultMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ws.worldMutex.Lock()
	_, err := ws.player(playerID)
	ws.worldMutex.Unlock()
	if err != nil {
		return nil, err
	}

	result := &messages.ScriptResultMessage{Session: uuid.NewString()}
	logger := ws.log.WithFields(logrus.Fields{
		"player":  playerID,
		"session": result.Session,
	})

	out := &cappedBuffer{max: ws.scriptOutput}
	view := lockedEntities{ents: ws.entities.ScriptView(playerID), mu: &ws.worldMutex}

	start := time.Now()
	value, err := worldgen.RunEntityScript(src, view,
		lisp.WithOutput(out),
		lisp.WithStepLimit(ws.scriptSteps),
		lisp.WithContext(ctx))
	ws.metrics.Duration("script.run", time.Since(start))

	result.Value = value
	result.Output = out.String()
	if err != nil {
		logger.WithError(err).Debug("entity script failed")
		result.Error = err.Error()
	}
	return result, nil
}

// lockedEntities holds a lock for the duration of each entity access
type lockedEntities struct {
	ents worldgen.Entities
	mu   sync.Locker
}

func (l lockedEntities) Player() (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ents.Player()
}

func (l lockedEntities) Query(kind string) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ents.Query(kind)
}

func (l lockedEntities) Position(id string) (models.Position, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ents.Position(id)
}

func (l lockedEntities) SetPosition(id string, pos models.Position) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ents.SetPosition(id, pos)
}

func (l lockedEntities) Component(id, component string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ents.Component(id, component)
}

var errOutputLimit = errors.New("script output limit reached")

// cappedBuffer keeps at most max bytes and fails writes past that
type cappedBuffer struct {
	bytes.Buffer
	max int
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	room := b.max - b.Len()
	if len(p) <= room {
		return b.Buffer.Write(p)
	}
	if room > 0 {
		b.Buffer.Write(p[:room])
	}
	return max(room, 0), errOutputLimit
}

// GetWorldUpdateForPlayer gets the world state for a specific player
func (ws *WorldService) GetWorldUpdateForPlayer(ctx context.Context, playerID string) (*messages.UpdateMessage, error) {
	ws.worldMutex.Lock()
	defer ws.worldMutex.Unlock()

	player, err := ws.player(playerID)
	if err != nil {
		return nil, err
	}
	center := player.GetPosition()

	update := &messages.UpdateMessage{
		Players:  make([]messages.PlayerView, 0),
		Monsters: make([]messages.MonsterView, 0),
		Items:    make([]messages.ItemView, 0),
	}

	nearby, err := ws.entities.Within("", center, ws.viewRadius)
	if err != nil {
		return nil, err
	}
	for _, e := range nearby {
		switch x := e.(type) {
		case *models.Player:
			if x.ID != playerID {
				update.Players = append(update.Players, messages.PlayerView{
					ID: x.ID, Username: x.Username, X: x.X, Y: x.Y, Z: x.Z, Icon: x.Icon,
				})
			}
		case *models.Monster:
			update.Monsters = append(update.Monsters, messages.MonsterView{
				ID: x.ID, Name: x.Name, X: x.X, Y: x.Y, Z: x.Z, Char: x.Char, HP: x.HP, MaxHP: x.MaxHP,
			})
		case *models.Item:
			update.Items = append(update.Items, messages.ItemView{
				ID: x.ID, Name: x.Name, X: x.X, Y: x.Y, Z: x.Z, Char: x.Char,
			})
		}
	}

	viewDiameter := ws.viewRadius*2 + 1
	tiles := make([][]int, viewDiameter)
	for i := 0; i < viewDiameter; i++ {
		tiles[i] = make([]int, viewDiameter)
		for j := 0; j < viewDiameter; j++ {
			tile, err := ws.chunks.TileAt(ctx, models.Position{
				X: center.X - ws.viewRadius + j,
				Y: center.Y - ws.viewRadius + i,
				Z: center.Z,
			})
			if err != nil {
				return nil, err
			}
			tiles[i][j] = tile.ID
		}
	}

	update.Map = messages.MapView{
		CenterX: center.X,
		CenterY: center.Y,
		Z:       center.Z,
		Radius:  ws.viewRadius,
		Tiles:   tiles,
	}
	return update, nil
}

// Helper function to calculate absolute value
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
