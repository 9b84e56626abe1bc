// Package autopilot plays the game on its own with a tabular Q-learning
// agent. It serves as the attract mode and as a soak test for the core.
package autopilot

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"kardium-snake/game/types"

	"golang.org/x/exp/rand"
)

// Action is a move relative to the current heading
type Action int

const (
	TurnLeft Action = iota
	Straight
	TurnRight

	NumActions = 3
)

// Apply returns the absolute heading for a relative action
func (a Action) Apply(d types.Direction) types.Direction {
	switch a {
	case TurnLeft:
		return d.TurnLeft()
	case TurnRight:
		return d.TurnRight()
	default:
		return d
	}
}

func (a Action) String() string {
	switch a {
	case TurnLeft:
		return "left"
	case TurnRight:
		return "right"
	default:
		return "straight"
	}
}

// QTable maps an encoded state to one value per action
type QTable map[string][]float64

type AgentConfig struct {
	LearningRate   float64
	Discount       float64
	InitialEpsilon float64
	MinEpsilon     float64
	EpsilonDecay   float64
}

func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		LearningRate:   0.1,
		Discount:       0.9,
		InitialEpsilon: 0.9,
		MinEpsilon:     0.05,
		EpsilonDecay:   0.99,
	}
}

type Agent struct {
	mu sync.Mutex

	qtable  QTable
	cfg     AgentConfig
	epsilon float64
	episode int
	rng     *rand.Rand
}

func NewAgent(cfg AgentConfig, seed uint64) *Agent {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Agent{
		qtable:  make(QTable),
		cfg:     cfg,
		epsilon: cfg.InitialEpsilon,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// GetAction picks an action epsilon-greedily
func (a *Agent) GetAction(state string) Action {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.rng.Float64() < a.epsilon {
		return Action(a.rng.Intn(NumActions))
	}
	return a.bestAction(state)
}

// Update applies Q(s,a) += α [r + γ max Q(s',·) - Q(s,a)]. A terminal
// transition has no future value.
func (a *Agent) Update(state string, action Action, reward float64, next string, terminal bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	q := a.values(state)
	future := 0.0
	if !terminal {
		future = a.maxValue(next)
	}
	q[action] += a.cfg.LearningRate * (reward + a.cfg.Discount*future - q[action])
}

// EndEpisode counts a finished game and decays exploration
func (a *Agent) EndEpisode() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.episode++
	a.epsilon = math.Max(a.cfg.MinEpsilon, a.cfg.InitialEpsilon*math.Pow(a.cfg.EpsilonDecay, float64(a.episode)))
}

func (a *Agent) Epsilon() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.epsilon
}

func (a *Agent) Episodes() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.episode
}

// States returns the number of distinct states seen
func (a *Agent) States() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.qtable)
}

func (a *Agent) Value(state string, action Action) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if q, ok := a.qtable[state]; ok {
		return q[action]
	}
	return 0
}

func (a *Agent) values(state string) []float64 {
	q, ok := a.qtable[state]
	if !ok {
		q = make([]float64, NumActions)
		a.qtable[state] = q
	}
	return q
}

func (a *Agent) bestAction(state string) Action {
	q, ok := a.qtable[state]
	if !ok {
		return Straight
	}
	best := Straight
	for i, v := range q {
		if v > q[best] {
			best = Action(i)
		}
	}
	return best
}

func (a *Agent) maxValue(state string) float64 {
	q, ok := a.qtable[state]
	if !ok {
		return 0
	}
	m := math.Inf(-1)
	for _, v := range q {
		m = math.Max(m, v)
	}
	return m
}

type agentState struct {
	QTable  QTable  `json:"qtable"`
	Epsilon float64 `json:"epsilon"`
	Episode int     `json:"episode"`
}

// Save writes the learned table and exploration state as JSON
func (a *Agent) Save(filename string) error {
	a.mu.Lock()
	data, err := json.MarshalIndent(agentState{
		QTable:  a.qtable,
		Epsilon: a.epsilon,
		Episode: a.episode,
	}, "", "  ")
	a.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to marshal qtable: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write qtable: %w", err)
	}
	return nil
}

// Load restores a table written by Save. A missing file leaves the agent fresh.
func (a *Agent) Load(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read qtable: %w", err)
	}

	var st agentState
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("failed to parse qtable %s: %w", filename, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if st.QTable != nil {
		for k, v := range st.QTable {
			if len(v) != NumActions {
				return fmt.Errorf("qtable state %q has %d actions, want %d", k, len(v), NumActions)
			}
		}
		a.qtable = st.QTable
		a.epsilon = st.Epsilon
		a.episode = st.Episode
	}
	return nil
}
