package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"kardium-snake/audio"
	"kardium-snake/autopilot"
	"kardium-snake/config"
	"kardium-snake/feed"
	"kardium-snake/game"
	"kardium-snake/i18n"
	"kardium-snake/server"
	"kardium-snake/stats"
	"kardium-snake/store"
	"kardium-snake/term"
	"kardium-snake/ui"

	"github.com/gdamore/tcell/v2"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "kardium-snake:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return err
	}

	// the window and terminal own the screen, so they log to a file
	out := io.Writer(os.Stderr)
	if cfg.Frontend != config.FrontendServer {
		f, err := os.OpenFile(cfg.LogPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	logger := func(prefix string) *log.Logger {
		return log.New(out, "["+prefix+"] ", log.LstdFlags)
	}
	mainLog := logger("main")

	var st store.Store = store.NewMemoryStore()
	statsFile := ""
	if !cfg.Ephemeral {
		fs, err := store.NewFileStore(cfg.StorePath())
		if err != nil {
			return err
		}
		st = fs
		statsFile = cfg.StatsPath()
	}

	g, err := game.NewGame(game.Options{
		TickInterval: cfg.Tick,
		Seed:         cfg.Seed,
		Store:        st,
		Logger:       logger("game"),
	})
	if err != nil {
		return err
	}
	defer g.Close()

	gameStats, err := stats.NewGameStats(statsFile)
	if err != nil {
		mainLog.Printf("stats unavailable, starting fresh: %v", err)
		gameStats, _ = stats.NewGameStats("")
	}
	g.Subscribe(func(ev game.Event, snap game.Snapshot) {
		if ev != game.EventOver {
			return
		}
		gameStats.AddGame(snap.SessionID, snap.Session.Score, len(snap.Snake), snap.StartTime, snap.EndTime)
		if err := gameStats.Save(); err != nil {
			mainLog.Printf("save stats: %v", err)
		}
	})

	feeder := feed.NewFeeder(g, feed.Options{
		Delay:       cfg.FeedDelay,
		SuccessRate: cfg.FeedSuccessRate,
		Seed:        cfg.Seed,
		Logger:      logger("feed"),
	})
	defer feeder.Wait()

	if cfg.Sound && cfg.Frontend != config.FrontendServer {
		player := audio.NewPlayer(cfg.Volume, logger("audio"))
		if err := player.Initialize(); err != nil {
			mainLog.Printf("sound disabled: %v", err)
		} else {
			g.Subscribe(player.OnEvent)
			defer player.Close()
		}
	}

	if cfg.Autopilot {
		agent := autopilot.NewAgent(autopilot.DefaultAgentConfig(), cfg.Seed)
		if err := agent.Load(cfg.QTablePath()); err != nil {
			mainLog.Printf("q-table not loaded: %v", err)
		}
		driver := autopilot.NewDriver(g, agent, autopilot.DriverOptions{
			DemoFood:     true,
			RestartDelay: time.Second,
			Logger:       logger("autopilot"),
		})
		g.Subscribe(driver.OnEvent)
		defer func() {
			if cfg.Ephemeral {
				return
			}
			if err := agent.Save(cfg.QTablePath()); err != nil {
				mainLog.Printf("save q-table: %v", err)
			}
		}()
		g.Start()
	}

	cat := i18n.New(cfg.Locale)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mainLog.Printf("starting %s front end (data in %s)", cfg.Frontend, filepath.Clean(cfg.DataDir))
	switch cfg.Frontend {
	case config.FrontendWindow:
		err = ui.Run(ctx, g, ui.Options{
			Feeder:    feeder,
			Stats:     gameStats,
			Catalog:   cat,
			Autopilot: cfg.Autopilot,
			Logger:    logger("ui"),
		})
	case config.FrontendTerm:
		err = runTerm(ctx, g, term.Options{
			Feeder:    feeder,
			Catalog:   cat,
			Autopilot: cfg.Autopilot,
			Logger:    logger("term"),
		})
	case config.FrontendServer:
		srv := server.New(g, server.Options{
			Feeder: feeder,
			Stats:  gameStats,
			Logger: logger("server"),
		})
		err = srv.ListenAndServe(ctx, cfg.Addr)
	default:
		err = fmt.Errorf("unknown front end %q", cfg.Frontend)
	}
	stop()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return err
}

func runTerm(ctx context.Context, g *game.Game, opts term.Options) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	return term.New(screen, g, opts).Run(ctx)
}
