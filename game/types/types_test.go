package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirectionOpposite(t *testing.T) {
	assert.Equal(t, DOWN, UP.Opposite())
	assert.Equal(t, LEFT, RIGHT.Opposite())
	assert.Equal(t, UP, DOWN.Opposite())
	assert.Equal(t, RIGHT, LEFT.Opposite())
	assert.Equal(t, NONE, NONE.Opposite())
}

func TestDirectionTurnsAreInverse(t *testing.T) {
	for _, d := range []Direction{UP, RIGHT, DOWN, LEFT} {
		assert.Equal(t, d, d.TurnLeft().TurnRight(), d.String())
		assert.Equal(t, d.Opposite(), d.TurnLeft().TurnLeft(), d.String())
	}
}

func TestToPointSumsToZeroWithOpposite(t *testing.T) {
	for _, d := range []Direction{UP, RIGHT, DOWN, LEFT} {
		assert.Equal(t, Point{}, d.ToPoint().Add(d.Opposite().ToPoint()))
	}
}

func TestParseDirection(t *testing.T) {
	for _, d := range []Direction{UP, RIGHT, DOWN, LEFT} {
		assert.Equal(t, d, ParseDirection(d.String()))
	}
	assert.Equal(t, LEFT, ParseDirection("left"))
	assert.Equal(t, NONE, ParseDirection("sideways"))
}
