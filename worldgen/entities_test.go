package worldgen

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terminus-realm/worldgen/lisp"
	"terminus-realm/worldgen/models"
)

type fakeEntities struct {
	player    string
	kinds     map[string]string
	positions map[string]models.Position
}

func newFakeEntities() *fakeEntities {
	return &fakeEntities{
		player: "p1",
		kinds:  map[string]string{"p1": "player", "m1": "monster", "m2": "monster"},
		positions: map[string]models.Position{
			"p1": {X: 1, Y: 2, Z: 0},
			"m1": {X: 5, Y: 5, Z: 0},
			"m2": {X: 9, Y: 3, Z: -1},
		},
	}
}

func (f *fakeEntities) Player() (string, bool) { return f.player, f.player != "" }

func (f *fakeEntities) Query(kind string) ([]string, error) {
	var ids []string
	for _, id := range []string{"m1", "m2", "p1"} {
		if kind == "" || f.kinds[id] == kind {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeEntities) Position(id string) (models.Position, error) {
	pos, ok := f.positions[id]
	if !ok {
		return pos, fmt.Errorf("no entity %s", id)
	}
	return pos, nil
}

func (f *fakeEntities) SetPosition(id string, pos models.Position) error {
	if _, ok := f.positions[id]; !ok {
		return fmt.Errorf("no entity %s", id)
	}
	f.positions[id] = pos
	return nil
}

func (f *fakeEntities) Component(id, component string) (string, error) {
	if component != "kind" {
		return "", fmt.Errorf("entity %s has no %s", id, component)
	}
	return f.kinds[id], nil
}

func TestEntityScripts(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		src, want string
	}{
		{"(position-entity (player-entity))", "(1 2 0)"},
		{"(format-component (player-entity) 'kind)", `"player"`},
		{`(define q (all-entities-query 'monster))
		  (define (collect acc)
		    (let ((e (query-entity-next q)))
		      (if (null? e) (reverse acc) (collect (cons (position-entity e) acc)))))
		  (collect '())`, "((5 5 0) (9 3 -1))"},
		{`(define q (all-entities-query))
		  (query-entity-next q) (query-entity-next q) (query-entity-next q)
		  (query-entity-next q)`, "()"},
	} {
		got, err := RunEntityScript(tt.src, newFakeEntities())
		require.NoError(t, err, tt.src)
		assert.Equal(t, tt.want, got, tt.src)
	}
}

func TestEntitySetPosition(t *testing.T) {
	t.Parallel()

	ents := newFakeEntities()
	_, err := RunEntityScript("(set-position (player-entity) (list 4 4 1))", ents)
	require.NoError(t, err)
	assert.Equal(t, models.Position{X: 4, Y: 4, Z: 1}, ents.positions["p1"])

	_, err = RunEntityScript("(set-position (player-entity) '(4 4))", ents)
	assert.ErrorIs(t, err, lisp.ErrNativeCall)
}

func TestEntityErrors(t *testing.T) {
	t.Parallel()

	ents := newFakeEntities()
	ents.player = ""

	got, err := RunEntityScript("(player-entity)", ents)
	require.NoError(t, err)
	assert.Equal(t, "()", got)

	_, err = RunEntityScript("(format-component (car (list (query-entity-next (all-entities-query)))) 'health)", ents)
	assert.ErrorIs(t, err, lisp.ErrNativeCall)

	_, err = RunEntityScript("(position-entity 'm1)", ents)
	assert.ErrorIs(t, err, lisp.ErrNativeCall)
}
