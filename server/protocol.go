package server

import (
	"encoding/json"
	"fmt"

	"kardium-snake/feed"
	"kardium-snake/game"
	"kardium-snake/game/types"
	"kardium-snake/stats"
)

// Client to server
const (
	MsgStart     = "start"
	MsgToggle    = "toggle"
	MsgDirection = "direction"
	MsgFeed      = "feed"
)

// Server to client
const (
	MsgState = "state"
	MsgError = "error"
)

// Envelope wraps every websocket message
type Envelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p,omitempty"`
}

type Direction struct {
	Dir string `json:"dir"`
}

type State struct {
	SessionID string        `json:"sessionId"`
	Grid      types.Grid    `json:"grid"`
	Snake     []types.Point `json:"snake"`
	Food      []types.Point `json:"food"`
	Direction string        `json:"direction"`
	Score     int           `json:"score"`
	Best      int           `json:"best"`
	Phase     string        `json:"phase"`
	Collision string        `json:"collision,omitempty"`
	Tick      uint64        `json:"tick"`
	Event     string        `json:"event,omitempty"`
}

type FeedResult struct {
	OK      bool          `json:"ok"`
	Error   string        `json:"error,omitempty"`
	Receipt *feed.Receipt `json:"receipt,omitempty"`
}

type Error struct {
	Message string `json:"message"`
}

type StatsResponse struct {
	Summary stats.Summary      `json:"summary"`
	Recent  []stats.GameRecord `json:"recent"`
}

func NewState(snap game.Snapshot) State {
	st := State{
		SessionID: snap.SessionID,
		Grid:      snap.Grid,
		Snake:     snap.Snake,
		Food:      snap.Food,
		Direction: snap.Direction.String(),
		Score:     snap.Session.Score,
		Best:      snap.Session.Best,
		Phase:     snap.Phase.String(),
		Tick:      snap.Tick,
	}
	if snap.Collision != types.NoCollision {
		st.Collision = snap.Collision.String()
	}
	if st.Food == nil {
		st.Food = []types.Point{}
	}
	return st
}

func Encode(t string, payload any) ([]byte, error) {
	if t == "" {
		return nil, fmt.Errorf("trying to encode envelope without type")
	}
	var raw json.RawMessage
	if payload != nil {
		pb, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = pb
	}
	return json.Marshal(Envelope{T: t, P: raw})
}

func DecodeEnvelope(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, fmt.Errorf("empty message")
	}
	var e Envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return Envelope{}, err
	}
	if e.T == "" {
		return Envelope{}, fmt.Errorf("message without type")
	}
	return e, nil
}

func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.P) == 0 {
		return out, fmt.Errorf("empty payload for type %q", env.T)
	}
	err := json.Unmarshal(env.P, &out)
	return out, err
}
