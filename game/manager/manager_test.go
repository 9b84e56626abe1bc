package manager

import (
	"errors"
	"testing"

	"kardium-snake/game/types"
	"kardium-snake/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func newFoodManager(grid types.Grid, seed uint64) *FoodManager {
	return NewFoodManager(grid, NewCollisionManager(grid), rand.New(rand.NewSource(seed)))
}

func TestInBounds(t *testing.T) {
	cm := NewCollisionManager(types.DefaultGrid)

	assert.True(t, cm.InBounds(types.Point{X: 0, Y: 0}))
	assert.True(t, cm.InBounds(types.Point{X: 19, Y: 19}))
	assert.False(t, cm.InBounds(types.Point{X: 20, Y: 0}))
	assert.False(t, cm.InBounds(types.Point{X: 0, Y: -1}))
	assert.False(t, cm.InBounds(types.Point{X: -1, Y: 5}))
}

func TestOccupiedBy(t *testing.T) {
	cm := NewCollisionManager(types.DefaultGrid)
	body := []types.Point{{X: 3, Y: 3}, {X: 2, Y: 3}}

	assert.True(t, cm.OccupiedBy(types.Point{X: 2, Y: 3}, body))
	assert.False(t, cm.OccupiedBy(types.Point{X: 4, Y: 3}, body))
	assert.False(t, cm.OccupiedBy(types.Point{X: 4, Y: 3}, nil))
}

func TestCheckCollisionIncludesTail(t *testing.T) {
	cm := NewCollisionManager(types.DefaultGrid)
	body := []types.Point{{X: 5, Y: 5}, {X: 5, Y: 6}, {X: 4, Y: 6}, {X: 4, Y: 5}}

	// (4,5) is the tail; it would move away this tick but still counts
	assert.Equal(t, types.SelfCollision, cm.CheckCollision(types.Point{X: 4, Y: 5}, body))
	assert.Equal(t, types.WallCollision, cm.CheckCollision(types.Point{X: 20, Y: 5}, body))
	assert.Equal(t, types.NoCollision, cm.CheckCollision(types.Point{X: 6, Y: 5}, body))
}

func TestAdvanceMovesHead(t *testing.T) {
	mm := NewMovementManager(NewCollisionManager(types.DefaultGrid))
	body := []types.Point{{X: 10, Y: 10}}

	res := mm.Advance(body, types.RIGHT, nil)

	assert.False(t, res.Failed)
	assert.False(t, res.Ate)
	assert.Equal(t, []types.Point{{X: 11, Y: 10}}, res.Body)
	assert.Equal(t, []types.Point{{X: 10, Y: 10}}, body, "input body must not change")
}

func TestAdvanceIntoWall(t *testing.T) {
	mm := NewMovementManager(NewCollisionManager(types.DefaultGrid))
	body := []types.Point{{X: 19, Y: 10}}

	res := mm.Advance(body, types.RIGHT, nil)

	assert.True(t, res.Failed)
	assert.Equal(t, types.WallCollision, res.Collision)
	assert.Equal(t, body, res.Body)
}

func TestAdvanceGrowsOnFood(t *testing.T) {
	grid := types.DefaultGrid
	mm := NewMovementManager(NewCollisionManager(grid))
	fm := newFoodManager(grid, 1)
	fm.AddFood(types.Point{X: 11, Y: 10})
	body := []types.Point{{X: 10, Y: 10}, {X: 9, Y: 10}}

	res := mm.Advance(body, types.RIGHT, fm)

	require.True(t, res.Ate)
	assert.Equal(t, []types.Point{{X: 11, Y: 10}, {X: 10, Y: 10}, {X: 9, Y: 10}}, res.Body)
	assert.Equal(t, types.Point{X: 11, Y: 10}, res.Head)
}

func TestAdvanceKeepsLengthWithoutFood(t *testing.T) {
	mm := NewMovementManager(NewCollisionManager(types.DefaultGrid))
	body := []types.Point{{X: 10, Y: 10}, {X: 9, Y: 10}, {X: 8, Y: 10}}

	res := mm.Advance(body, types.DOWN, nil)

	assert.Equal(t, []types.Point{{X: 10, Y: 11}, {X: 10, Y: 10}, {X: 9, Y: 10}}, res.Body)
}

func TestGenerateFoodAvoidsBodyAndFood(t *testing.T) {
	grid := types.Grid{Width: 4, Height: 4}
	fm := newFoodManager(grid, 7)
	body := []types.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0}}

	for i := 0; i < 12; i++ {
		p, err := fm.SpawnFood(body)
		require.NoError(t, err)
		assert.NotEqual(t, 0, p.Y, "food spawned on the body row")
	}
	assert.Equal(t, 12, fm.Count())

	_, err := fm.SpawnFood(body)
	assert.ErrorIs(t, err, ErrGridFull)
}

func TestGenerateFoodOnCrowdedGrid(t *testing.T) {
	grid := types.Grid{Width: 2, Height: 2}
	fm := newFoodManager(grid, 3)
	body := []types.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}

	p, err := fm.GenerateFood(body)
	require.NoError(t, err)
	assert.Equal(t, types.Point{X: 0, Y: 1}, p)
}

func TestFreeCells(t *testing.T) {
	grid := types.Grid{Width: 3, Height: 2}
	fm := newFoodManager(grid, 1)
	fm.AddFood(types.Point{X: 2, Y: 1})

	free := fm.FreeCells([]types.Point{{X: 0, Y: 0}})
	assert.Equal(t, []types.Point{{X: 1, Y: 0}, {X: 2, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}}, free)
}

func TestFoodListIsOrdered(t *testing.T) {
	fm := newFoodManager(types.DefaultGrid, 1)
	fm.AddFood(types.Point{X: 5, Y: 2})
	fm.AddFood(types.Point{X: 1, Y: 2})
	fm.AddFood(types.Point{X: 9, Y: 0})

	assert.Equal(t, []types.Point{{X: 9, Y: 0}, {X: 1, Y: 2}, {X: 5, Y: 2}}, fm.GetFoodList())
	assert.True(t, fm.RemoveFood(types.Point{X: 1, Y: 2}))
	assert.False(t, fm.RemoveFood(types.Point{X: 1, Y: 2}))
	assert.Equal(t, 2, fm.Count())
}

func TestStateManagerLifecycle(t *testing.T) {
	sm, err := NewStateManager(store.NewMemoryStore())
	require.NoError(t, err)
	assert.Equal(t, Idle, sm.Session().Phase())

	assert.False(t, sm.TogglePause(), "pause is ignored while idle")

	sm.Start()
	assert.Equal(t, Running, sm.Session().Phase())

	require.True(t, sm.TogglePause())
	assert.Equal(t, Paused, sm.Session().Phase())
	require.True(t, sm.TogglePause())
	assert.Equal(t, Running, sm.Session().Phase())

	sm.End()
	assert.Equal(t, Over, sm.Session().Phase())
	assert.False(t, sm.TogglePause(), "pause is ignored after game over")

	sm.Start()
	assert.Equal(t, Running, sm.Session().Phase())
	assert.Zero(t, sm.Session().Score)
}

func TestStateManagerBestScore(t *testing.T) {
	st := store.NewMemoryStore()
	require.NoError(t, st.Save(types.HighScoreKey, 30))

	sm, err := NewStateManager(st)
	require.NoError(t, err)
	assert.Equal(t, 30, sm.Session().Best)

	sm.Start()
	for i := 0; i < 3; i++ {
		newBest, err := sm.AddScore(types.FoodReward)
		require.NoError(t, err)
		assert.False(t, newBest)
	}
	newBest, err := sm.AddScore(types.FoodReward)
	require.NoError(t, err)
	assert.True(t, newBest)
	assert.Equal(t, 40, sm.Session().Best)

	saved, err := st.Load(types.HighScoreKey)
	require.NoError(t, err)
	assert.Equal(t, 40, saved)

	// a poorer session never lowers the best
	sm.End()
	sm.Start()
	_, _ = sm.AddScore(types.FoodReward)
	assert.Equal(t, 40, sm.Session().Best)
}

type failingStore struct{}

func (failingStore) Load(string) (int, error) { return 0, errors.New("disk on fire") }
func (failingStore) Save(string, int) error   { return errors.New("disk on fire") }

func TestStateManagerStoreErrors(t *testing.T) {
	_, err := NewStateManager(failingStore{})
	assert.Error(t, err)
}

type readOnlyStore struct{ *store.MemoryStore }

func (readOnlyStore) Save(string, int) error { return errors.New("read-only") }

func TestStateManagerKeepsBestWhenSaveFails(t *testing.T) {
	sm, err := NewStateManager(readOnlyStore{MemoryStore: store.NewMemoryStore()})
	require.NoError(t, err)

	sm.Start()
	newBest, err := sm.AddScore(types.FoodReward)
	assert.True(t, newBest)
	assert.Error(t, err)
	assert.Equal(t, 10, sm.Session().Best)
}
