// Package ui is the desktop window front end built on raylib.
package ui

import (
	"context"
	"io"
	"log"
	"sync"

	"kardium-snake/feed"
	"kardium-snake/game"
	"kardium-snake/game/types"
	"kardium-snake/i18n"
	"kardium-snake/stats"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/google/uuid"
)

const demoRecipient = "0x000000000000000000000000000000000000dEaD"

type Options struct {
	Feeder    *feed.Feeder
	Stats     *stats.GameStats
	Catalog   *i18n.Catalog
	Autopilot bool
	Logger    *log.Logger
	Width     int32
	Height    int32
}

type status struct {
	mu    sync.Mutex
	msg   string
	alert bool
}

func (s *status) set(msg string, alert bool) {
	s.mu.Lock()
	s.msg, s.alert = msg, alert
	s.mu.Unlock()
}

func (s *status) get() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.msg, s.alert
}

var keyDirections = map[int32]types.Direction{
	rl.KeyUp:    types.UP,
	rl.KeyW:     types.UP,
	rl.KeyDown:  types.DOWN,
	rl.KeyS:     types.DOWN,
	rl.KeyLeft:  types.LEFT,
	rl.KeyA:     types.LEFT,
	rl.KeyRight: types.RIGHT,
	rl.KeyD:     types.RIGHT,
}

// Run opens the window and blocks until it is closed or ctx ends
func Run(ctx context.Context, g *game.Game, opts Options) error {
	cat := opts.Catalog
	if cat == nil {
		cat = i18n.New(i18n.DefaultLanguage)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	width, height := opts.Width, opts.Height
	if width <= 0 || height <= 0 {
		width, height = 1100, 720
	}

	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(width, height, cat.Get("TITLE"))
	defer rl.CloseWindow()
	rl.SetTargetFPS(60)

	renderer := NewRenderer(cat)
	st := &status{}

	for !rl.WindowShouldClose() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		handleInput(ctx, g, opts, cat, st, logger)

		frame := Frame{
			Snapshot:  g.Snapshot(),
			Autopilot: opts.Autopilot,
		}
		if opts.Stats != nil {
			frame.Summary = opts.Stats.Summary()
			frame.Recent = opts.Stats.Recent(maxGraphGames)
		}
		frame.Message, frame.Alert = st.get()
		renderer.Draw(frame)
	}
	return nil
}

func handleInput(ctx context.Context, g *game.Game, opts Options, cat *i18n.Catalog, st *status, logger *log.Logger) {
	if rl.IsKeyPressed(rl.KeyEnter) || rl.IsKeyPressed(rl.KeyN) {
		g.Start()
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		g.TogglePause()
	}
	if rl.IsKeyPressed(rl.KeyF) && opts.Feeder != nil {
		req := feed.Request{
			TxHash:    "0x" + uuid.New().String(),
			Recipient: demoRecipient,
			Amount:    "0.01",
		}
		st.set(cat.Get("FEED_PENDING"), false)
		opts.Feeder.Submit(ctx, req, func(_ feed.Receipt, err error) {
			if err != nil {
				logger.Printf("transaction %s: %v", req.TxHash, err)
				st.set(cat.Get("FEED_FAILED"), true)
				return
			}
			st.set(cat.Get("FEED_OK"), false)
		})
	}
	if opts.Autopilot {
		return
	}
	for key, dir := range keyDirections {
		if rl.IsKeyPressed(key) {
			g.OnDirection(dir)
		}
	}
}
