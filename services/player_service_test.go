package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/lthibault/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terminus-realm/worldgen/models"
	"terminus-realm/worldgen/persistence"
	"terminus-realm/worldgen/persistence/mock_persistence"
	"terminus-realm/worldgen/services"
)

func TestGetOrCreateNewPlayer(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	db := mock_persistence.NewMockStorage(ctrl)
	db.EXPECT().
		LoadPlayerByUsername("alice").
		Return(nil, fmt.Errorf("player with username alice: %w", persistence.ErrNotFound))
	db.EXPECT().
		SavePlayer(gomock.Any()).
		DoAndReturn(func(p *models.Player) error {
			assert.Equal(t, "alice", p.Username)
			return nil
		})

	ps := services.NewPlayerService(newWorld(t).world, db, log.New())

	player, err := ps.GetOrCreatePlayer(context.Background(), "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, player.ID)
	assert.Equal(t, services.DefaultSpawn, player.GetPosition())
	assert.Equal(t, 100, player.HP)

	// served from memory the second time
	again, err := ps.GetOrCreatePlayer(context.Background(), "alice")
	require.NoError(t, err)
	assert.Same(t, player, again)

	got, err := ps.GetPlayer(player.ID)
	require.NoError(t, err)
	assert.Same(t, player, got)
}

func TestGetOrCreateStoredPlayer(t *testing.T) {
	t.Parallel()

	stored := &models.Player{ID: "p1", Username: "bob", X: 8, Y: 8, HP: 50, MaxHP: 100, Level: 3}

	ctrl := gomock.NewController(t)
	db := mock_persistence.NewMockStorage(ctrl)
	db.EXPECT().LoadPlayerByUsername("bob").Return(stored, nil)

	w := newWorld(t)
	ps := services.NewPlayerService(w.world, db, log.New())

	player, err := ps.GetOrCreatePlayer(context.Background(), "bob")
	require.NoError(t, err)
	assert.Same(t, stored, player)

	e, ok := w.entities.Get("p1")
	require.True(t, ok)
	assert.Same(t, stored, e)
}

func TestGetOrCreateStoreFailure(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	db := mock_persistence.NewMockStorage(ctrl)
	db.EXPECT().LoadPlayerByUsername("carol").Return(nil, errors.New("connection refused"))

	ps := services.NewPlayerService(newWorld(t).world, db, log.New())

	_, err := ps.GetOrCreatePlayer(context.Background(), "carol")
	assert.Error(t, err)

	_, err = ps.GetPlayer("carol")
	assert.ErrorIs(t, err, services.ErrPlayerNotFound)
}

func TestUseItem(t *testing.T) {
	t.Parallel()

	stored := &models.Player{ID: "p1", Username: "bob", X: 8, Y: 8, HP: 80, MaxHP: 100, Inventory: []string{"stick", "heal pills"}}

	ctrl := gomock.NewController(t)
	db := mock_persistence.NewMockStorage(ctrl)
	db.EXPECT().LoadPlayerByUsername("bob").Return(stored, nil)
	db.EXPECT().SavePlayer(stored).Return(nil).Times(1)

	ps := services.NewPlayerService(newWorld(t).world, db, log.New())
	_, err := ps.GetOrCreatePlayer(context.Background(), "bob")
	require.NoError(t, err)

	used, err := ps.UseItem("p1", "heal pills", "self")
	require.NoError(t, err)
	assert.Equal(t, "healed", used.Result)
	assert.Equal(t, 100, used.HP)
	assert.Equal(t, []string{"stick"}, stored.Inventory)

	used, err = ps.UseItem("p1", "stick", "self")
	require.NoError(t, err)
	assert.Equal(t, "nothing happens", used.Result)
	assert.Equal(t, []string{"stick"}, stored.Inventory)

	_, err = ps.UseItem("p1", "bandage", "self")
	assert.Error(t, err)

	_, err = ps.UseItem("ghost", "stick", "self")
	assert.ErrorIs(t, err, services.ErrPlayerNotFound)
}

func TestLogoutSaves(t *testing.T) {
	t.Parallel()

	stored := &models.Player{ID: "p1", Username: "bob", X: 8, Y: 8, HP: 80, MaxHP: 100}

	ctrl := gomock.NewController(t)
	db := mock_persistence.NewMockStorage(ctrl)
	db.EXPECT().LoadPlayerByUsername("bob").Return(stored, nil)
	db.EXPECT().SavePlayer(stored).Return(nil).Times(2)

	w := newWorld(t)
	ps := services.NewPlayerService(w.world, db, log.New())
	_, err := ps.GetOrCreatePlayer(context.Background(), "bob")
	require.NoError(t, err)

	require.NoError(t, ps.SaveAll())
	require.NoError(t, ps.Logout("p1"))
	require.NoError(t, ps.Logout("p1"))

	_, ok := w.entities.Get("p1")
	assert.False(t, ok)
	_, err = ps.GetPlayer("p1")
	assert.ErrorIs(t, err, services.ErrPlayerNotFound)
}
