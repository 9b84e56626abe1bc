package manager

import (
	"kardium-snake/game/types"
)

// FoodSet is the read side of the food collection seen by the movement step
type FoodSet interface {
	Has(p types.Point) bool
}

// MoveResult is the outcome of one Advance
type MoveResult struct {
	Body      []types.Point
	Head      types.Point
	Ate       bool
	Failed    bool
	Collision types.CollisionType
}

type MovementManager struct {
	collisionMgr *CollisionManager
}

func NewMovementManager(collisionMgr *CollisionManager) *MovementManager {
	return &MovementManager{collisionMgr: collisionMgr}
}

// Advance moves body one cell along dir. body is not modified; on failure the
// returned Body is body itself. The caller owns removing the eaten food.
func (mm *MovementManager) Advance(body []types.Point, dir types.Direction, food FoodSet) MoveResult {
	newHead := body[0].Add(dir.ToPoint())

	if c := mm.collisionMgr.CheckCollision(newHead, body); c != types.NoCollision {
		return MoveResult{Body: body, Head: newHead, Failed: true, Collision: c}
	}

	ate := food != nil && food.Has(newHead)
	size := len(body)
	if ate {
		size++
	}

	next := make([]types.Point, 0, size)
	next = append(next, newHead)
	next = append(next, body[:size-1]...)

	return MoveResult{Body: next, Head: newHead, Ate: ate}
}
