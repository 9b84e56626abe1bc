package manager

import (
	"errors"
	"fmt"

	"kardium-snake/game/types"
	"kardium-snake/store"
)

// Phase is the session lifecycle stage
type Phase int

const (
	Idle Phase = iota
	Running
	Paused
	Over
)

func (p Phase) String() string {
	switch p {
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Over:
		return "over"
	default:
		return "idle"
	}
}

// Session is the score and lifecycle flags of one play-through
type Session struct {
	Score   int
	Best    int
	Running bool
	Paused  bool
	Over    bool
}

// Phase derives the lifecycle stage from the flags
func (s Session) Phase() Phase {
	switch {
	case s.Over:
		return Over
	case s.Running && s.Paused:
		return Paused
	case s.Running:
		return Running
	default:
		return Idle
	}
}

// Active reports whether the session accepts input
func (s Session) Active() bool {
	return s.Running && !s.Over
}

type StateManager struct {
	store   store.Store
	key     string
	session Session
}

// NewStateManager reads the best score once from st. A missing key starts at zero.
func NewStateManager(st store.Store) (*StateManager, error) {
	sm := &StateManager{
		store: st,
		key:   types.HighScoreKey,
	}

	best, err := st.Load(sm.key)
	switch {
	case err == nil:
		if best > 0 {
			sm.session.Best = best
		}
	case errors.Is(err, store.ErrNotFound):
	default:
		return nil, fmt.Errorf("failed to load best score: %w", err)
	}

	return sm, nil
}

func (sm *StateManager) Session() Session {
	return sm.session
}

// Start begins a fresh running session; legal from every phase
func (sm *StateManager) Start() {
	sm.session = Session{
		Best:    sm.session.Best,
		Running: true,
	}
}

// TogglePause flips paused while running and not over. Returns whether
// anything changed.
func (sm *StateManager) TogglePause() bool {
	if !sm.session.Active() {
		return false
	}
	sm.session.Paused = !sm.session.Paused
	return true
}

// End moves the session to Over
func (sm *StateManager) End() {
	sm.session.Running = false
	sm.session.Paused = false
	sm.session.Over = true
}

// AddScore credits points and persists a new best. The in-memory best is kept
// even if the write fails; the error is returned for logging.
func (sm *StateManager) AddScore(points int) (newBest bool, err error) {
	sm.session.Score += points
	if sm.session.Score <= sm.session.Best {
		return false, nil
	}
	sm.session.Best = sm.session.Score
	if err := sm.store.Save(sm.key, sm.session.Best); err != nil {
		return true, fmt.Errorf("failed to save best score: %w", err)
	}
	return true, nil
}
