package manager

import (
	"kardium-snake/game/types"
)

type CollisionManager struct {
	grid types.Grid
}

func NewCollisionManager(grid types.Grid) *CollisionManager {
	return &CollisionManager{
		grid: grid,
	}
}

func (cm *CollisionManager) Grid() types.Grid {
	return cm.grid
}

// InBounds reports whether pos lies on the grid
func (cm *CollisionManager) InBounds(pos types.Point) bool {
	return pos.X >= 0 && pos.X < cm.grid.Width && pos.Y >= 0 && pos.Y < cm.grid.Height
}

// OccupiedBy reports whether pos equals any body segment
func (cm *CollisionManager) OccupiedBy(pos types.Point, body []types.Point) bool {
	for _, part := range body {
		if part == pos {
			return true
		}
	}
	return false
}

// CheckCollision classifies a candidate head. The wall check runs first and the
// self check covers the whole body, tail included.
func (cm *CollisionManager) CheckCollision(pos types.Point, body []types.Point) types.CollisionType {
	if !cm.InBounds(pos) {
		return types.WallCollision
	}
	if cm.OccupiedBy(pos, body) {
		return types.SelfCollision
	}
	return types.NoCollision
}
