package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terminus-realm/worldgen/models"
	"terminus-realm/worldgen/services"
)

func newRegistry(t *testing.T) *services.EntityRegistry {
	t.Helper()

	r, err := services.NewEntityRegistry()
	require.NoError(t, err)

	for _, e := range []models.Entity{
		&models.Player{ID: "p1", Username: "alice", X: 1, Y: 1, HP: 7, MaxHP: 10, Level: 2, Inventory: []string{"stick", "heal pills"}},
		&models.Monster{ID: "m2", Name: "zombie", X: 4, Y: 1, HP: 20, MaxHP: 20},
		&models.Monster{ID: "m1", Name: "tough_zombie", X: 30, Y: 1, HP: 50, MaxHP: 50},
		&models.Monster{ID: "m3", Name: "zombie", X: 2, Y: 2, Z: 1},
		&models.Item{ID: "i1", Name: "crate", Description: "crate", X: 1, Y: 2},
	} {
		require.NoError(t, r.Add(e))
	}
	return r
}

func ids(es []models.Entity) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.GetID()
	}
	return out
}

func TestRegistryLookup(t *testing.T) {
	t.Parallel()

	r := newRegistry(t)

	e, ok := r.Get("m1")
	require.True(t, ok)
	assert.Equal(t, "tough_zombie", e.(*models.Monster).Name)

	_, ok = r.Get("nobody")
	assert.False(t, ok)

	monsters, err := r.ByKind(services.KindMonster)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2", "m3"}, ids(monsters))

	all, err := r.ByKind("")
	require.NoError(t, err)
	assert.Equal(t, []string{"i1", "m1", "m2", "m3", "p1"}, ids(all))

	require.NoError(t, r.Remove("m2"))
	require.NoError(t, r.Remove("m2"))
	monsters, err = r.ByKind(services.KindMonster)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m3"}, ids(monsters))
}

func TestRegistryReplace(t *testing.T) {
	t.Parallel()

	r := newRegistry(t)
	require.NoError(t, r.Add(&models.Monster{ID: "m1", Name: "zombie"}))

	e, ok := r.Get("m1")
	require.True(t, ok)
	assert.Equal(t, "zombie", e.(*models.Monster).Name)

	monsters, err := r.ByKind(services.KindMonster)
	require.NoError(t, err)
	assert.Len(t, monsters, 3)
}

func TestRegistryWithin(t *testing.T) {
	t.Parallel()

	r := newRegistry(t)

	near, err := r.Within(services.KindMonster, models.Position{X: 1, Y: 1}, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"m2"}, ids(near), "m1 is too far and m3 is upstairs")

	near, err = r.Within("", models.Position{X: 1, Y: 1}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"i1", "p1"}, ids(near))

	e, ok := r.At(services.KindItem, models.Position{X: 1, Y: 2})
	require.True(t, ok)
	assert.Equal(t, "i1", e.GetID())

	_, ok = r.At(services.KindMonster, models.Position{X: 1, Y: 2})
	assert.False(t, ok)
}

func TestScriptView(t *testing.T) {
	t.Parallel()

	r := newRegistry(t)
	view := r.ScriptView("p1")

	id, ok := view.Player()
	assert.True(t, ok)
	assert.Equal(t, "p1", id)

	_, ok = r.ScriptView("").Player()
	assert.False(t, ok)
	_, ok = r.ScriptView("gone").Player()
	assert.False(t, ok)

	got, err := view.Query(services.KindMonster)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2", "m3"}, got)

	require.NoError(t, view.SetPosition("m1", models.Position{X: 3, Y: 3, Z: -1}))
	pos, err := view.Position("m1")
	require.NoError(t, err)
	assert.Equal(t, models.Position{X: 3, Y: 3, Z: -1}, pos)

	for _, tt := range []struct {
		id, component, want string
	}{
		{"p1", "kind", "player"},
		{"p1", "name", "alice"},
		{"p1", "health", "7/10"},
		{"p1", "level", "2"},
		{"p1", "inventory", "stick, heal pills"},
		{"p1", "position", "1,1,0"},
		{"m2", "name", "zombie"},
		{"m2", "health", "20/20"},
		{"i1", "kind", "item"},
		{"i1", "description", "crate"},
	} {
		text, err := view.Component(tt.id, tt.component)
		require.NoError(t, err, "%s %s", tt.id, tt.component)
		assert.Equal(t, tt.want, text, "%s %s", tt.id, tt.component)
	}

	_, err = view.Component("m2", "inventory")
	assert.Error(t, err)
	_, err = view.Component("ghost", "name")
	assert.Error(t, err)
	_, err = view.Position("ghost")
	assert.Error(t, err)
	assert.Error(t, view.SetPosition("ghost", models.Position{}))
}
