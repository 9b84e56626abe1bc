package autopilot

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"kardium-snake/game"
	"kardium-snake/game/types"
)

const (
	RewardFood      = 10.0
	RewardCollision = -10.0
	RewardStep      = -0.1
)

// Controller is the part of the game the driver plays through
type Controller interface {
	Start()
	OnDirection(dir types.Direction) bool
	AddFood() (types.Point, error)
}

type DriverOptions struct {
	// DemoFood keeps one food on the board without transactions
	DemoFood bool
	// RestartDelay is the pause before a new session after game over;
	// negative disables restarting
	RestartDelay time.Duration
	Logger       *log.Logger
}

// Driver steers the snake from game events. Register OnEvent with
// Game.Subscribe.
type Driver struct {
	ctl    Controller
	agent  *Agent
	opts   DriverOptions
	logger *log.Logger

	mu         sync.Mutex
	prevState  string
	prevAction Action
	pending    bool
	games      int
	bestScore  int
}

func NewDriver(ctl Controller, agent *Agent, opts DriverOptions) *Driver {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Driver{
		ctl:    ctl,
		agent:  agent,
		opts:   opts,
		logger: logger,
	}
}

func (d *Driver) Agent() *Agent {
	return d.agent
}

// Games returns the number of sessions the driver has finished
func (d *Driver) Games() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.games
}

// OnEvent is the game listener. It never holds its lock while calling back
// into the game.
func (d *Driver) OnEvent(ev game.Event, snap game.Snapshot) {
	switch ev {
	case game.EventStart:
		d.mu.Lock()
		d.pending = false
		d.mu.Unlock()
		d.feed(snap)
		d.steer(snap)

	case game.EventTick, game.EventAte:
		reward := RewardStep
		if ev == game.EventAte {
			reward = RewardFood
		}
		d.learn(reward, snap, false)
		d.feed(snap)
		d.steer(snap)

	case game.EventOver:
		d.learn(RewardCollision, snap, true)
		d.agent.EndEpisode()

		d.mu.Lock()
		d.games++
		if snap.Session.Score > d.bestScore {
			d.bestScore = snap.Session.Score
		}
		games, best := d.games, d.bestScore
		d.mu.Unlock()

		d.logger.Printf("game %d over: score=%d best=%d epsilon=%.3f states=%d",
			games, snap.Session.Score, best, d.agent.Epsilon(), d.agent.States())
		d.restart()
	}
}

func (d *Driver) learn(reward float64, snap game.Snapshot, terminal bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.pending {
		return
	}
	next := ""
	if !terminal {
		next = EncodeState(snap)
	}
	d.agent.Update(d.prevState, d.prevAction, reward, next, terminal)
	d.pending = false
}

func (d *Driver) steer(snap game.Snapshot) {
	if len(snap.Snake) == 0 {
		return
	}
	state := EncodeState(snap)
	action := d.agent.GetAction(state)

	d.mu.Lock()
	d.prevState = state
	d.prevAction = action
	d.pending = true
	d.mu.Unlock()

	if dir := action.Apply(snap.Direction); dir != snap.Direction {
		d.ctl.OnDirection(dir)
	}
}

func (d *Driver) feed(snap game.Snapshot) {
	if !d.opts.DemoFood || len(snap.Food) > 0 {
		return
	}
	if _, err := d.ctl.AddFood(); err != nil && !errors.Is(err, game.ErrGridFull) && !errors.Is(err, game.ErrNotRunning) {
		d.logger.Printf("demo food: %v", err)
	}
}

func (d *Driver) restart() {
	switch {
	case d.opts.RestartDelay < 0:
	case d.opts.RestartDelay == 0:
		d.ctl.Start()
	default:
		time.AfterFunc(d.opts.RestartDelay, d.ctl.Start)
	}
}

// EncodeState compresses the board into danger ahead/left/right and the
// direction of the nearest food relative to the heading.
func EncodeState(snap game.Snapshot) string {
	head := snap.Snake[0]
	dir := snap.Direction

	danger := func(d types.Direction) int {
		if blocked(snap, head.Add(d.ToPoint())) {
			return 1
		}
		return 0
	}

	ahead, side := 0, 0
	if food, ok := nearest(head, snap.Food); ok {
		delta := types.Point{X: food.X - head.X, Y: food.Y - head.Y}
		ahead = sign(dot(delta, dir.ToPoint()))
		side = sign(dot(delta, dir.TurnLeft().ToPoint()))
	}

	return fmt.Sprintf("%d%d%d|%d|%d", danger(dir), danger(dir.TurnLeft()), danger(dir.TurnRight()), ahead, side)
}

func blocked(snap game.Snapshot, p types.Point) bool {
	if p.X < 0 || p.Y < 0 || p.X >= snap.Grid.Width || p.Y >= snap.Grid.Height {
		return true
	}
	for _, s := range snap.Snake {
		if s == p {
			return true
		}
	}
	return false
}

func nearest(from types.Point, cells []types.Point) (types.Point, bool) {
	best, bestDist := types.Point{}, -1
	for _, c := range cells {
		dist := abs(c.X-from.X) + abs(c.Y-from.Y)
		if bestDist < 0 || dist < bestDist {
			best, bestDist = c, dist
		}
	}
	return best, bestDist >= 0
}

func dot(a, b types.Point) int {
	return a.X*b.X + a.Y*b.Y
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
