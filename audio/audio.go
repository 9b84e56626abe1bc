// Package audio plays short synthesized cues for game events.
package audio

import (
	"log"
	"math"
	"sync"
	"time"

	"kardium-snake/game"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(44100)

type Cue int

const (
	CueEat Cue = iota
	CueOver
	CueFeed
	CueFeedFailed
	CueStart
)

type note struct {
	freq float64
	dur  time.Duration
}

var cueNotes = map[Cue][]note{
	CueEat:        {{880, 60 * time.Millisecond}, {1320, 60 * time.Millisecond}},
	CueOver:       {{392, 150 * time.Millisecond}, {330, 150 * time.Millisecond}, {262, 300 * time.Millisecond}},
	CueFeed:       {{660, 80 * time.Millisecond}, {990, 120 * time.Millisecond}},
	CueFeedFailed: {{200, 200 * time.Millisecond}},
	CueStart:      {{523, 80 * time.Millisecond}, {659, 80 * time.Millisecond}, {784, 120 * time.Millisecond}},
}

// tone is a sine wave with a short linear attack and release so cues
// don't click
type tone struct {
	freq   float64
	phase  float64
	pos    int
	length int
	fade   int
}

func newTone(freq float64, d time.Duration) *tone {
	n := sampleRate.N(d)
	return &tone{freq: freq, length: n, fade: min(n/4, sampleRate.N(5*time.Millisecond))}
}

func (t *tone) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		if t.pos >= t.length {
			return i, i > 0
		}
		env := 1.0
		if t.fade > 0 {
			switch {
			case t.pos < t.fade:
				env = float64(t.pos) / float64(t.fade)
			case t.length-t.pos < t.fade:
				env = float64(t.length-t.pos) / float64(t.fade)
			}
		}
		v := env * math.Sin(2*math.Pi*t.phase)
		samples[i][0] = v
		samples[i][1] = v

		t.phase += t.freq / float64(sampleRate)
		t.phase -= math.Floor(t.phase)
		t.pos++
	}
	return len(samples), true
}

func (t *tone) Err() error { return nil }

// Streamer builds a fresh streamer for cue at the given volume (0..1)
func Streamer(cue Cue, volume float64) beep.Streamer {
	notes := cueNotes[cue]
	parts := make([]beep.Streamer, 0, len(notes))
	for _, n := range notes {
		parts = append(parts, newTone(n.freq, n.dur))
	}
	s := beep.Seq(parts...)
	if volume <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(min(volume, 1))}
}

// Player mixes cues onto the speaker. A disabled or failed player is silent.
type Player struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	volume      float64
	initialized bool
	logger      *log.Logger
}

func NewPlayer(volume float64, logger *log.Logger) *Player {
	return &Player{
		mixer:  &beep.Mixer{},
		volume: volume,
		logger: logger,
	}
}

// Initialize opens the audio device. On failure the player stays silent and
// the error is returned for logging.
func (p *Player) Initialize() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return err
	}
	speaker.Play(p.mixer)
	p.initialized = true
	return nil
}

func (p *Player) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.initialized
}

func (p *Player) Play(cue Cue) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return
	}
	s := Streamer(cue, p.volume)
	speaker.Lock()
	p.mixer.Add(s)
	speaker.Unlock()
}

// OnEvent maps game events to cues; register it with Game.Subscribe
func (p *Player) OnEvent(ev game.Event, _ game.Snapshot) {
	switch ev {
	case game.EventStart:
		p.Play(CueStart)
	case game.EventAte:
		p.Play(CueEat)
	case game.EventOver:
		p.Play(CueOver)
	case game.EventFood:
		p.Play(CueFeed)
	}
}

// Close silences the mixer
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return
	}
	speaker.Lock()
	p.mixer.Clear()
	speaker.Unlock()
	p.initialized = false
	if p.logger != nil {
		p.logger.Printf("audio closed")
	}
}
