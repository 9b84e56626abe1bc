package game

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"kardium-snake/game/entity"
	"kardium-snake/game/manager"
	"kardium-snake/game/types"
	"kardium-snake/store"

	"github.com/google/uuid"
	"golang.org/x/exp/rand"
)

var (
	// ErrNotRunning is returned when food is granted outside a running session
	ErrNotRunning = errors.New("no running session")
	// ErrGridFull is returned when no free cell is left for food
	ErrGridFull = manager.ErrGridFull
	// ErrCellTaken is returned by PlaceFood for an invalid or occupied cell
	ErrCellTaken = errors.New("cell is out of bounds or occupied")
)

// Event tells listeners what changed
type Event int

const (
	EventStart Event = iota
	EventTick
	EventAte
	EventOver
	EventPause
	EventResume
	EventTurn
	EventFood
)

func (e Event) String() string {
	switch e {
	case EventStart:
		return "start"
	case EventTick:
		return "tick"
	case EventAte:
		return "ate"
	case EventOver:
		return "over"
	case EventPause:
		return "pause"
	case EventResume:
		return "resume"
	case EventTurn:
		return "turn"
	case EventFood:
		return "food"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable copy of the game state for renderers
type Snapshot struct {
	SessionID string
	Grid      types.Grid
	Snake     []types.Point
	Food      []types.Point
	Direction types.Direction
	Session   manager.Session
	Phase     manager.Phase
	Collision types.CollisionType
	Tick      uint64
	StartTime time.Time
	EndTime   time.Time
}

// Duration is the play time of the session so far
func (s Snapshot) Duration() time.Duration {
	if s.StartTime.IsZero() {
		return 0
	}
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Listener receives every state change. It runs outside the game lock and may
// call back into the Game.
type Listener func(Event, Snapshot)

type Options struct {
	Grid         types.Grid
	TickInterval time.Duration
	Clock        Clock
	Seed         uint64
	Store        store.Store
	Logger       *log.Logger
}

type Game struct {
	mu sync.Mutex

	grid         types.Grid
	collisionMgr *manager.CollisionManager
	movementMgr  *manager.MovementManager
	foodMgr      *manager.FoodManager
	stateMgr     *manager.StateManager
	snake        *entity.Snake

	sched *Scheduler
	// bumped on every scheduler stop/start; ticks from an older run are dropped
	epoch uint64

	sessionID string
	steps     uint64
	collision types.CollisionType
	startTime time.Time
	endTime   time.Time

	lmu       sync.RWMutex
	listeners []Listener

	logger *log.Logger
}

func NewGame(opts Options) (*Game, error) {
	grid := opts.Grid
	if grid.Width <= 0 || grid.Height <= 0 {
		grid = types.DefaultGrid
	}
	interval := opts.TickInterval
	if interval <= 0 {
		interval = types.DefaultTickInterval
	}
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	st := opts.Store
	if st == nil {
		st = store.NewMemoryStore()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[game] ", log.LstdFlags)
	}

	stateMgr, err := manager.NewStateManager(st)
	if err != nil {
		return nil, err
	}

	collisionMgr := manager.NewCollisionManager(grid)
	g := &Game{
		grid:         grid,
		collisionMgr: collisionMgr,
		movementMgr:  manager.NewMovementManager(collisionMgr),
		foodMgr:      manager.NewFoodManager(grid, collisionMgr, rand.New(rand.NewSource(seed))),
		stateMgr:     stateMgr,
		snake:        entity.NewSnake(startPosition(grid), types.RIGHT),
		sched:        NewScheduler(interval, opts.Clock),
		logger:       logger,
	}
	return g, nil
}

// startPosition keeps the canonical (10,10) spawn on boards that fit it
func startPosition(grid types.Grid) types.Point {
	p := types.StartPosition
	if p.X >= grid.Width || p.Y >= grid.Height {
		p = types.Point{X: grid.Width / 2, Y: grid.Height / 2}
	}
	return p
}

// Subscribe registers a listener for all subsequent events
func (g *Game) Subscribe(l Listener) {
	g.lmu.Lock()
	defer g.lmu.Unlock()
	g.listeners = append(g.listeners, l)
}

func (g *Game) notify(ev Event, snap Snapshot) {
	g.lmu.RLock()
	ls := make([]Listener, len(g.listeners))
	copy(ls, g.listeners)
	g.lmu.RUnlock()

	for _, l := range ls {
		l(ev, snap)
	}
}

// Start begins a fresh session from any phase and starts ticking
func (g *Game) Start() {
	g.mu.Lock()
	g.stopTicking()

	g.snake = entity.NewSnake(startPosition(g.grid), types.RIGHT)
	g.foodMgr.Clear()
	g.stateMgr.Start()
	g.sessionID = uuid.NewString()
	g.steps = 0
	g.collision = types.NoCollision
	g.startTime = time.Now()
	g.endTime = time.Time{}

	g.startTicking()
	snap := g.snapshotLocked()
	g.mu.Unlock()

	g.notify(EventStart, snap)
}

// TogglePause flips pause while a session is running. Returns false when the
// session is idle or over.
func (g *Game) TogglePause() bool {
	g.mu.Lock()
	if !g.stateMgr.TogglePause() {
		g.mu.Unlock()
		return false
	}

	ev := EventResume
	if g.stateMgr.Session().Paused {
		g.stopTicking()
		ev = EventPause
	} else {
		g.startTicking()
	}
	snap := g.snapshotLocked()
	g.mu.Unlock()

	g.notify(ev, snap)
	return true
}

// OnDirection requests a heading change; reversals and inactive sessions are ignored
func (g *Game) OnDirection(dir types.Direction) bool {
	g.mu.Lock()
	if !g.stateMgr.Session().Active() || !g.snake.SetDirection(dir) {
		g.mu.Unlock()
		return false
	}
	snap := g.snapshotLocked()
	g.mu.Unlock()

	g.notify(EventTurn, snap)
	return true
}

// Step advances the simulation by one tick outside the scheduler. It is a
// no-op unless the session is running and not paused.
func (g *Game) Step() (Event, bool) {
	g.mu.Lock()
	ev, ok := g.advanceLocked()
	snap := g.snapshotLocked()
	g.mu.Unlock()

	if ok {
		g.notify(ev, snap)
	}
	return ev, ok
}

func (g *Game) tick(epoch uint64) {
	g.mu.Lock()
	if epoch != g.epoch {
		g.mu.Unlock()
		return
	}
	ev, ok := g.advanceLocked()
	snap := g.snapshotLocked()
	g.mu.Unlock()

	if ok {
		g.notify(ev, snap)
	}
}

func (g *Game) advanceLocked() (Event, bool) {
	if g.stateMgr.Session().Phase() != manager.Running {
		return EventTick, false
	}

	res := g.movementMgr.Advance(g.snake.Body, g.snake.Direction, g.foodMgr)
	g.steps++

	if res.Failed {
		g.collision = res.Collision
		g.stateMgr.End()
		g.stopTicking()
		g.endTime = time.Now()
		return EventOver, true
	}

	g.snake.Apply(res.Body)
	if !res.Ate {
		return EventTick, true
	}

	g.foodMgr.RemoveFood(res.Head)
	if _, err := g.stateMgr.AddScore(types.FoodReward); err != nil {
		g.logger.Printf("best score not persisted: %v", err)
	}
	return EventAte, true
}

func (g *Game) startTicking() {
	g.epoch++
	epoch := g.epoch
	g.sched.Start(func() { g.tick(epoch) })
}

func (g *Game) stopTicking() {
	g.epoch++
	g.sched.Stop()
}

// AddFood places one food at a random free cell. It is the success path of
// the target-granting action and is applied atomically between ticks.
func (g *Game) AddFood() (types.Point, error) {
	g.mu.Lock()
	if !g.stateMgr.Session().Active() {
		g.mu.Unlock()
		return types.Point{}, ErrNotRunning
	}
	p, err := g.foodMgr.SpawnFood(g.snake.Body)
	if err != nil {
		g.mu.Unlock()
		return types.Point{}, fmt.Errorf("failed to place food: %w", err)
	}
	snap := g.snapshotLocked()
	g.mu.Unlock()

	g.notify(EventFood, snap)
	return p, nil
}

// PlaceFood puts food at a specific free cell
func (g *Game) PlaceFood(p types.Point) error {
	g.mu.Lock()
	if !g.stateMgr.Session().Active() {
		g.mu.Unlock()
		return ErrNotRunning
	}
	if !g.collisionMgr.InBounds(p) || g.collisionMgr.OccupiedBy(p, g.snake.Body) || g.foodMgr.Has(p) {
		g.mu.Unlock()
		return ErrCellTaken
	}
	g.foodMgr.AddFood(p)
	snap := g.snapshotLocked()
	g.mu.Unlock()

	g.notify(EventFood, snap)
	return nil
}

func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

func (g *Game) snapshotLocked() Snapshot {
	session := g.stateMgr.Session()
	return Snapshot{
		SessionID: g.sessionID,
		Grid:      g.grid,
		Snake:     g.snake.CopyBody(),
		Food:      g.foodMgr.GetFoodList(),
		Direction: g.snake.Direction,
		Session:   session,
		Phase:     session.Phase(),
		Collision: g.collision,
		Tick:      g.steps,
		StartTime: g.startTime,
		EndTime:   g.endTime,
	}
}

// Scheduler exposes the tick scheduler for inspection
func (g *Game) Scheduler() *Scheduler {
	return g.sched
}

// Close stops ticking and waits for the scheduler goroutine
func (g *Game) Close() {
	g.mu.Lock()
	g.stopTicking()
	g.mu.Unlock()
	g.sched.Wait()
}
