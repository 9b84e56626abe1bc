package types

import "time"

// Point is a grid cell
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns p translated by d
func (p Point) Add(d Point) Point {
	return Point{X: p.X + d.X, Y: p.Y + d.Y}
}

// Grid represents the game grid dimensions
type Grid struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Cells returns the number of cells in the grid
func (g Grid) Cells() int {
	return g.Width * g.Height
}

// Game constants
const (
	GridSize            = 20
	FoodReward          = 10
	DefaultTickInterval = 200 * time.Millisecond
	HighScoreKey        = "kardiumsnake-highscore"
)

// DefaultGrid is the square board used by the game
var DefaultGrid = Grid{Width: GridSize, Height: GridSize}

// StartPosition is where a fresh snake spawns
var StartPosition = Point{X: 10, Y: 10}

// Direction is a cardinal heading
type Direction int

const (
	NONE Direction = iota
	UP
	RIGHT
	DOWN
	LEFT
)

// ToPoint converts a Direction into a movement vector
func (d Direction) ToPoint() Point {
	switch d {
	case UP:
		return Point{X: 0, Y: -1}
	case RIGHT:
		return Point{X: 1, Y: 0}
	case DOWN:
		return Point{X: 0, Y: 1}
	case LEFT:
		return Point{X: -1, Y: 0}
	default:
		return Point{X: 0, Y: 0}
	}
}

// Opposite returns the reverse heading
func (d Direction) Opposite() Direction {
	switch d {
	case UP:
		return DOWN
	case RIGHT:
		return LEFT
	case DOWN:
		return UP
	case LEFT:
		return RIGHT
	default:
		return d
	}
}

// TurnLeft returns the heading after a left turn
func (d Direction) TurnLeft() Direction {
	switch d {
	case UP:
		return LEFT
	case RIGHT:
		return UP
	case DOWN:
		return RIGHT
	case LEFT:
		return DOWN
	default:
		return d
	}
}

// TurnRight returns the heading after a right turn
func (d Direction) TurnRight() Direction {
	switch d {
	case UP:
		return RIGHT
	case RIGHT:
		return DOWN
	case DOWN:
		return LEFT
	case LEFT:
		return UP
	default:
		return d
	}
}

func (d Direction) String() string {
	switch d {
	case UP:
		return "UP"
	case RIGHT:
		return "RIGHT"
	case DOWN:
		return "DOWN"
	case LEFT:
		return "LEFT"
	default:
		return "NONE"
	}
}

// ParseDirection maps a name back to a Direction, NONE if unknown
func ParseDirection(s string) Direction {
	switch s {
	case "UP", "up", "Up":
		return UP
	case "RIGHT", "right", "Right":
		return RIGHT
	case "DOWN", "down", "Down":
		return DOWN
	case "LEFT", "left", "Left":
		return LEFT
	default:
		return NONE
	}
}

// CollisionType represents the type of collision
type CollisionType int

const (
	NoCollision CollisionType = iota
	WallCollision
	SelfCollision
)

func (c CollisionType) String() string {
	switch c {
	case WallCollision:
		return "wall"
	case SelfCollision:
		return "self"
	default:
		return "none"
	}
}
