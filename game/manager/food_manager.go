package manager

import (
	"errors"
	"sort"

	"kardium-snake/game/types"

	"github.com/zyedidia/generic/mapset"
	"golang.org/x/exp/rand"
)

// ErrGridFull is returned when no free cell is left for new food
var ErrGridFull = errors.New("no free cell for food")

// spawnAttempts bounds the rejection sampling before falling back to
// enumerating the free cells
const spawnAttempts = 32

type FoodManager struct {
	grid         types.Grid
	food         mapset.Set[types.Point]
	rng          *rand.Rand
	collisionMgr *CollisionManager
}

func NewFoodManager(grid types.Grid, collisionMgr *CollisionManager, rng *rand.Rand) *FoodManager {
	return &FoodManager{
		grid:         grid,
		food:         mapset.New[types.Point](),
		rng:          rng,
		collisionMgr: collisionMgr,
	}
}

// GenerateFood picks a random in-bounds cell that is neither part of body nor
// already food.
func (fm *FoodManager) GenerateFood(body []types.Point) (types.Point, error) {
	for i := 0; i < spawnAttempts; i++ {
		p := types.Point{
			X: fm.rng.Intn(fm.grid.Width),
			Y: fm.rng.Intn(fm.grid.Height),
		}
		if fm.isFree(p, body) {
			return p, nil
		}
	}

	// Crowded board: sample from the explicit set difference instead
	free := fm.FreeCells(body)
	if len(free) == 0 {
		return types.Point{}, ErrGridFull
	}
	return free[fm.rng.Intn(len(free))], nil
}

// FreeCells lists cells not covered by body or food, row by row
func (fm *FoodManager) FreeCells(body []types.Point) []types.Point {
	occupied := mapset.New[types.Point]()
	for _, p := range body {
		occupied.Put(p)
	}
	var free []types.Point
	for y := 0; y < fm.grid.Height; y++ {
		for x := 0; x < fm.grid.Width; x++ {
			p := types.Point{X: x, Y: y}
			if !occupied.Has(p) && !fm.food.Has(p) {
				free = append(free, p)
			}
		}
	}
	return free
}

func (fm *FoodManager) isFree(p types.Point, body []types.Point) bool {
	return fm.collisionMgr.InBounds(p) && !fm.food.Has(p) && !fm.collisionMgr.OccupiedBy(p, body)
}

// SpawnFood generates and registers one food cell
func (fm *FoodManager) SpawnFood(body []types.Point) (types.Point, error) {
	p, err := fm.GenerateFood(body)
	if err != nil {
		return types.Point{}, err
	}
	fm.food.Put(p)
	return p, nil
}

func (fm *FoodManager) Has(p types.Point) bool {
	return fm.food.Has(p)
}

func (fm *FoodManager) AddFood(food types.Point) {
	fm.food.Put(food)
}

// RemoveFood deletes food at p and reports whether there was any
func (fm *FoodManager) RemoveFood(p types.Point) bool {
	if !fm.food.Has(p) {
		return false
	}
	fm.food.Remove(p)
	return true
}

func (fm *FoodManager) Clear() {
	fm.food.Clear()
}

func (fm *FoodManager) Count() int {
	return fm.food.Size()
}

// GetFoodList returns the food cells ordered by row then column
func (fm *FoodManager) GetFoodList() []types.Point {
	list := make([]types.Point, 0, fm.food.Size())
	fm.food.Each(func(p types.Point) {
		list = append(list, p)
	})
	sort.Slice(list, func(i, j int) bool {
		if list[i].Y != list[j].Y {
			return list[i].Y < list[j].Y
		}
		return list[i].X < list[j].X
	})
	return list
}
