// Package term renders the game in a terminal with tcell.
package term

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	"kardium-snake/feed"
	"kardium-snake/game"
	"kardium-snake/game/manager"
	"kardium-snake/game/types"
	"kardium-snake/i18n"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
)

var (
	styleDefault = tcell.StyleDefault
	styleBorder  = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleHead    = tcell.StyleDefault.Foreground(tcell.ColorLime)
	styleBody    = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleFood    = tcell.StyleDefault.Foreground(tcell.ColorFuchsia)
	styleTitle   = tcell.StyleDefault.Foreground(tcell.ColorPurple).Bold(true)
	styleAlert   = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleMuted   = tcell.StyleDefault.Foreground(tcell.ColorSilver)
)

const (
	runeHead = '█'
	runeBody = '▓'
	runeFood = '●'
)

// DemoRecipient receives the transactions sent with the F key
const DemoRecipient = "0x000000000000000000000000000000000000dEaD"

type Options struct {
	Feeder    *feed.Feeder
	Catalog   *i18n.Catalog
	Autopilot bool
	Logger    *log.Logger
}

type Frontend struct {
	screen tcell.Screen
	g      *game.Game
	feeder *feed.Feeder
	cat    *i18n.Catalog
	logger *log.Logger

	autopilot bool

	mu      sync.Mutex
	message string
	alert   bool

	redraw chan struct{}
}

func New(screen tcell.Screen, g *game.Game, opts Options) *Frontend {
	cat := opts.Catalog
	if cat == nil {
		cat = i18n.New(i18n.DefaultLanguage)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	f := &Frontend{
		screen:    screen,
		g:         g,
		feeder:    opts.Feeder,
		cat:       cat,
		logger:    logger,
		autopilot: opts.Autopilot,
		redraw:    make(chan struct{}, 1),
	}
	g.Subscribe(func(game.Event, game.Snapshot) { f.requestRedraw() })
	return f
}

func (f *Frontend) requestRedraw() {
	select {
	case f.redraw <- struct{}{}:
	default:
	}
}

func (f *Frontend) setMessage(msg string, alert bool) {
	f.mu.Lock()
	f.message, f.alert = msg, alert
	f.mu.Unlock()
	f.requestRedraw()
}

// Message returns the current status line
func (f *Frontend) Message() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.message
}

// Run draws and handles input until ctx ends or the player quits. The caller
// owns screen Init and Fini.
func (f *Frontend) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := f.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	f.Draw(f.g.Snapshot())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if !f.HandleKey(ev) {
					return nil
				}
			case *tcell.EventResize:
				f.screen.Sync()
			}
			f.Draw(f.g.Snapshot())
		case <-f.redraw:
			f.Draw(f.g.Snapshot())
		}
	}
}

// KeyDirection maps arrow keys and WASD to headings
func KeyDirection(ev *tcell.EventKey) types.Direction {
	switch ev.Key() {
	case tcell.KeyUp:
		return types.UP
	case tcell.KeyDown:
		return types.DOWN
	case tcell.KeyLeft:
		return types.LEFT
	case tcell.KeyRight:
		return types.RIGHT
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'w', 'W':
			return types.UP
		case 's', 'S':
			return types.DOWN
		case 'a', 'A':
			return types.LEFT
		case 'd', 'D':
			return types.RIGHT
		}
	}
	return types.NONE
}

// HandleKey applies one key press. It returns false when the player quits.
func (f *Frontend) HandleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyEnter:
		f.g.Start()
		return true
	}

	if ev.Key() == tcell.KeyRune {
		switch ev.Rune() {
		case 'q', 'Q':
			return false
		case ' ':
			f.g.TogglePause()
			return true
		case 'n', 'N':
			f.g.Start()
			return true
		case 'f', 'F':
			f.SendDemoTransaction(context.Background())
			return true
		}
	}

	if dir := KeyDirection(ev); dir != types.NONE && !f.autopilot {
		f.g.OnDirection(dir)
	}
	return true
}

// SendDemoTransaction submits a filled-in transaction to the feeder
func (f *Frontend) SendDemoTransaction(ctx context.Context) {
	if f.feeder == nil {
		return
	}
	req := feed.Request{
		TxHash:    "0x" + uuid.New().String(),
		Recipient: DemoRecipient,
		Amount:    "0.01",
	}
	f.setMessage(f.cat.Get("FEED_PENDING"), false)
	f.feeder.Submit(ctx, req, func(_ feed.Receipt, err error) {
		if err != nil {
			f.logger.Printf("transaction %s: %v", req.TxHash, err)
			f.setMessage(f.cat.Get("FEED_FAILED"), true)
			return
		}
		f.setMessage(f.cat.Get("FEED_OK"), false)
	})
}

func drawText(s tcell.Screen, x, y int, text string, st tcell.Style) {
	i := 0
	for _, r := range text {
		s.SetContent(x+i, y, r, nil, st)
		i++
	}
}

// cellX maps a grid column to the screen; each cell is two columns wide
func cellX(x int) int { return 1 + 2*x }
func cellY(y int) int { return 1 + y }

func (f *Frontend) statusText(p manager.Phase) string {
	switch p {
	case manager.Running:
		return f.cat.Get("STATUS_RUNNING")
	case manager.Paused:
		return f.cat.Get("STATUS_PAUSED")
	case manager.Over:
		return f.cat.Get("STATUS_OVER")
	default:
		return f.cat.Get("STATUS_IDLE")
	}
}

// Draw renders one frame
func (f *Frontend) Draw(snap game.Snapshot) {
	s := f.screen
	s.Clear()

	w, h := snap.Grid.Width, snap.Grid.Height
	right, bottom := cellX(w), cellY(h)
	for x := 0; x <= right; x++ {
		s.SetContent(x, 0, '─', nil, styleBorder)
		s.SetContent(x, bottom, '─', nil, styleBorder)
	}
	for y := 0; y <= bottom; y++ {
		s.SetContent(0, y, '│', nil, styleBorder)
		s.SetContent(right, y, '│', nil, styleBorder)
	}
	s.SetContent(0, 0, '┌', nil, styleBorder)
	s.SetContent(right, 0, '┐', nil, styleBorder)
	s.SetContent(0, bottom, '└', nil, styleBorder)
	s.SetContent(right, bottom, '┘', nil, styleBorder)

	for _, p := range snap.Food {
		s.SetContent(cellX(p.X), cellY(p.Y), runeFood, nil, styleFood)
	}
	for i := len(snap.Snake) - 1; i >= 0; i-- {
		p := snap.Snake[i]
		r, st := runeBody, styleBody
		if i == 0 {
			r, st = runeHead, styleHead
		}
		s.SetContent(cellX(p.X), cellY(p.Y), r, nil, st)
		s.SetContent(cellX(p.X)+1, cellY(p.Y), r, nil, st)
	}

	hud := right + 3
	lines := []string{
		f.cat.Get("SCORE", snap.Session.Score),
		f.cat.Get("BEST", snap.Session.Best),
		f.cat.Get("LENGTH", len(snap.Snake)),
		f.cat.Get("FOOD", len(snap.Food)),
		f.cat.Get("HEADING", snap.Direction),
		f.cat.Get("STATUS", f.statusText(snap.Phase)),
	}
	drawText(s, hud, 1, f.cat.Get("TITLE"), styleTitle)
	for i, l := range lines {
		drawText(s, hud, 3+i, l, styleDefault)
	}
	if f.autopilot {
		drawText(s, hud, 4+len(lines), f.cat.Get("AUTOPILOT"), styleMuted)
	}

	f.mu.Lock()
	msg, alert := f.message, f.alert
	f.mu.Unlock()
	if msg != "" {
		st := styleDefault
		if alert {
			st = styleAlert
		}
		drawText(s, hud, 6+len(lines), msg, st)
	}

	mid := cellY(h / 2)
	switch snap.Phase {
	case manager.Idle:
		drawText(s, 2, mid, f.cat.Get("PRESS_START"), styleTitle)
	case manager.Paused:
		drawText(s, 2, mid, f.cat.Get("PAUSED"), styleTitle)
		drawText(s, 2, mid+1, f.cat.Get("CONTINUE"), styleMuted)
	case manager.Over:
		drawText(s, 2, mid, f.cat.Get("GAME_OVER"), styleAlert)
		drawText(s, 2, mid+1, f.cat.Get("FINAL_SCORE", snap.Session.Score), styleDefault)
		drawText(s, 2, mid+2, f.cat.Get("PLAY_AGAIN"), styleMuted)
	}

	drawText(s, 0, bottom+1, f.cat.Get("CONTROLS"), styleMuted)
	s.Show()
}

// String describes the frontend for logs
func (f *Frontend) String() string {
	w, h := f.screen.Size()
	return fmt.Sprintf("term %dx%d (%s)", w, h, f.cat.Lang())
}
