package entity

import (
	"kardium-snake/game/types"
)

// Snake is the movable body. Body[0] is the head.
type Snake struct {
	Body      []types.Point
	Direction types.Direction

	// heading the last tick actually moved along; reversal checks use it so
	// two turns queued between ticks cannot fold the head back into the neck
	moved types.Direction
}

func NewSnake(startPos types.Point, dir types.Direction) *Snake {
	return &Snake{
		Body:      []types.Point{startPos},
		Direction: dir,
		moved:     dir,
	}
}

// Apply replaces the body with the result of a completed move along Direction
func (s *Snake) Apply(body []types.Point) {
	s.Body = body
	s.moved = s.Direction
}

func (s *Snake) GetHead() types.Point {
	return s.Body[0]
}

func (s *Snake) Len() int {
	return len(s.Body)
}

// Heading returns the direction of the last completed move
func (s *Snake) Heading() types.Direction {
	return s.moved
}

// SetDirection applies a requested heading, ignoring reversals.
// Returns true when the heading was adopted.
func (s *Snake) SetDirection(dir types.Direction) bool {
	next := OnDirection(dir, s.moved)
	if next != dir {
		return false
	}
	s.Direction = next
	return true
}

// CopyBody returns a snapshot of the body
func (s *Snake) CopyBody() []types.Point {
	body := make([]types.Point, len(s.Body))
	copy(body, s.Body)
	return body
}

// OnDirection returns the heading that results from requesting dir while
// moving along current. The exact opposite of current and NONE are rejected.
func OnDirection(requested, current types.Direction) types.Direction {
	if requested == types.NONE {
		return current
	}
	if current != types.NONE && requested == current.Opposite() {
		return current
	}
	return requested
}
