package term

import (
	"context"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"kardium-snake/feed"
	"kardium-snake/game"
	"kardium-snake/game/manager"
	"kardium-snake/game/types"
	"kardium-snake/i18n"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type idleTicker struct{ ch chan time.Time }

func (t idleTicker) C() <-chan time.Time { return t.ch }
func (idleTicker) Stop()                 {}

type idleClock struct{}

func (idleClock) NewTicker(time.Duration) game.Ticker { return idleTicker{ch: make(chan time.Time)} }

func setup(t *testing.T, opts Options) (tcell.SimulationScreen, *game.Game, *Frontend) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(80, 30)
	t.Cleanup(screen.Fini)

	g, err := game.NewGame(game.Options{Clock: idleClock{}, Seed: 1, Logger: log.New(io.Discard, "", 0)})
	require.NoError(t, err)
	t.Cleanup(g.Close)

	return screen, g, New(screen, g, opts)
}

func key(k tcell.Key) *tcell.EventKey {
	return tcell.NewEventKey(k, 0, tcell.ModNone)
}

func runeKey(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func cellRune(t *testing.T, screen tcell.SimulationScreen, x, y int) rune {
	t.Helper()
	cells, w, _ := screen.GetContents()
	c := cells[y*w+x]
	if len(c.Runes) == 0 {
		return ' '
	}
	return c.Runes[0]
}

func rowText(screen tcell.SimulationScreen, y int) string {
	cells, w, _ := screen.GetContents()
	var b strings.Builder
	for x := 0; x < w; x++ {
		if r := cells[y*w+x].Runes; len(r) > 0 {
			b.WriteRune(r[0])
		}
	}
	return b.String()
}

func TestKeyDirection(t *testing.T) {
	assert.Equal(t, types.UP, KeyDirection(key(tcell.KeyUp)))
	assert.Equal(t, types.LEFT, KeyDirection(key(tcell.KeyLeft)))
	assert.Equal(t, types.DOWN, KeyDirection(runeKey('s')))
	assert.Equal(t, types.RIGHT, KeyDirection(runeKey('D')))
	assert.Equal(t, types.NONE, KeyDirection(runeKey('x')))
}

func TestHandleKeyDrivesGame(t *testing.T) {
	_, g, f := setup(t, Options{})

	assert.True(t, f.HandleKey(key(tcell.KeyEnter)))
	assert.Equal(t, manager.Running, g.Snapshot().Phase)

	f.HandleKey(key(tcell.KeyUp))
	assert.Equal(t, types.UP, g.Snapshot().Direction)

	f.HandleKey(runeKey(' '))
	assert.Equal(t, manager.Paused, g.Snapshot().Phase)
	f.HandleKey(runeKey(' '))
	assert.Equal(t, manager.Running, g.Snapshot().Phase)

	assert.False(t, f.HandleKey(key(tcell.KeyEscape)))
	assert.False(t, f.HandleKey(runeKey('q')))
}

func TestAutopilotIgnoresArrows(t *testing.T) {
	_, g, f := setup(t, Options{Autopilot: true})
	g.Start()

	f.HandleKey(key(tcell.KeyUp))
	assert.Equal(t, types.RIGHT, g.Snapshot().Direction)
}

func TestDrawBoard(t *testing.T) {
	screen, g, f := setup(t, Options{})
	g.Start()
	require.NoError(t, g.PlaceFood(types.Point{X: 3, Y: 4}))

	f.Draw(g.Snapshot())

	assert.Equal(t, runeHead, cellRune(t, screen, cellX(10), cellY(10)))
	assert.Equal(t, runeHead, cellRune(t, screen, cellX(10)+1, cellY(10)))
	assert.Equal(t, runeFood, cellRune(t, screen, cellX(3), cellY(4)))
	assert.Equal(t, '┌', cellRune(t, screen, 0, 0))
	assert.Contains(t, rowText(screen, 3), "Score: 0")
}

func TestDrawGameOverInFrench(t *testing.T) {
	screen, g, f := setup(t, Options{Catalog: i18n.New("fr")})
	g.Start()
	for {
		if ev, _ := g.Step(); ev == game.EventOver {
			break
		}
	}

	f.Draw(g.Snapshot())
	assert.Contains(t, rowText(screen, cellY(10)), "Partie terminée !")
}

func TestDemoTransaction(t *testing.T) {
	_, g, f := setup(t, Options{})
	feeder := feed.NewFeeder(g, feed.Options{SuccessRate: 1, Seed: 1, Logger: log.New(io.Discard, "", 0)})
	f.feeder = feeder
	g.Start()

	f.HandleKey(runeKey('f'))
	feeder.Wait()

	assert.Len(t, g.Snapshot().Food, 1)
	assert.Equal(t, i18n.New("en").Get("FEED_OK"), f.Message())
}

func TestRunQuitsOnEscape(t *testing.T) {
	screen, _, f := setup(t, Options{})
	done := make(chan error, 1)

	go func() { done <- f.Run(context.Background()) }()
	screen.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Escape")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	_, _, f := setup(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- f.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
