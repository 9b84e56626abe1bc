// Package server exposes the game over HTTP and websockets. Every connected
// browser sees the same session and may steer it.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"kardium-snake/feed"
	"kardium-snake/game"
	"kardium-snake/game/types"
	"kardium-snake/stats"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 32
	recentGames    = 20
)

type Options struct {
	Feeder *feed.Feeder
	Stats  *stats.GameStats
	Logger *log.Logger
	// CheckOrigin defaults to allowing every origin
	CheckOrigin func(r *http.Request) bool
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
	done chan struct{}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

type Server struct {
	g        *game.Game
	feeder   *feed.Feeder
	stats    *stats.GameStats
	logger   *log.Logger
	upgrader websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	clients map[*client]struct{}

	mux *http.ServeMux
}

func New(g *game.Game, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[server] ", log.LstdFlags)
	}
	checkOrigin := opts.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		g:        g,
		feeder:   opts.Feeder,
		stats:    opts.Stats,
		logger:   logger,
		upgrader: websocket.Upgrader{CheckOrigin: checkOrigin},
		ctx:      ctx,
		cancel:   cancel,
		clients:  make(map[*client]struct{}),
		mux:      http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /ws", s.handleWS)
	s.mux.HandleFunc("GET /api/state", s.handleState)
	s.mux.HandleFunc("GET /api/stats", s.handleStats)

	g.Subscribe(s.onEvent)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Printf("listening on %s (ws endpoint: /ws)", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		s.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close drops every websocket client and cancels pending transactions
func (s *Server) Close() {
	s.cancel()
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.clients = make(map[*client]struct{})
	s.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

// Clients returns the number of connected websockets
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) onEvent(ev game.Event, snap game.Snapshot) {
	st := NewState(snap)
	st.Event = ev.String()
	b, err := Encode(MsgState, st)
	if err != nil {
		s.logger.Printf("encode state: %v", err)
		return
	}
	s.broadcast(b)
}

func (s *Server) broadcast(b []byte) {
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		s.enqueue(c, b)
	}
}

// enqueue never blocks; a client that can't keep up is dropped
func (s *Server) enqueue(c *client, b []byte) {
	select {
	case <-c.done:
	case c.send <- b:
	default:
		s.logger.Printf("client %s too slow, dropping", c.conn.RemoteAddr())
		s.remove(c)
	}
}

func (s *Server) remove(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	c.close()
}

func (s *Server) reply(c *client, t string, payload any) {
	b, err := Encode(t, payload)
	if err != nil {
		s.logger.Printf("encode %s: %v", t, err)
		return
	}
	s.enqueue(c, b)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Println("upgrade:", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	defer s.remove(c)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go s.writeLoop(c)
	s.reply(c, MsgState, NewState(s.g.Snapshot()))

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Println("read:", err)
			}
			return
		}
		s.dispatch(c, msg)
	}
}

func (s *Server) writeLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case b := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				s.remove(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.remove(c)
				return
			}
		}
	}
}

func (s *Server) dispatch(c *client, msg []byte) {
	env, err := DecodeEnvelope(msg)
	if err != nil {
		s.reply(c, MsgError, Error{Message: err.Error()})
		return
	}

	switch env.T {
	case MsgStart:
		s.g.Start()

	case MsgToggle:
		s.g.TogglePause()

	case MsgDirection:
		d, err := DecodePayload[Direction](env)
		if err != nil {
			s.reply(c, MsgError, Error{Message: err.Error()})
			return
		}
		dir := types.ParseDirection(d.Dir)
		if dir == types.NONE {
			s.reply(c, MsgError, Error{Message: "unknown direction " + d.Dir})
			return
		}
		s.g.OnDirection(dir)

	case MsgFeed:
		if s.feeder == nil {
			s.reply(c, MsgFeed, FeedResult{Error: "transactions are disabled"})
			return
		}
		req, err := DecodePayload[feed.Request](env)
		if err != nil {
			s.reply(c, MsgError, Error{Message: err.Error()})
			return
		}
		s.feeder.Submit(s.ctx, req, func(rc feed.Receipt, err error) {
			if err != nil {
				s.reply(c, MsgFeed, FeedResult{Error: err.Error()})
				return
			}
			s.reply(c, MsgFeed, FeedResult{OK: true, Receipt: &rc})
		})

	default:
		s.reply(c, MsgError, Error{Message: "unknown message type " + env.T})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, NewState(s.g.Snapshot()))
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	resp := StatsResponse{Recent: []stats.GameRecord{}}
	if s.stats != nil {
		resp.Summary = s.stats.Summary()
		if recent := s.stats.Recent(recentGames); recent != nil {
			resp.Recent = recent
		}
	}
	writeJSON(w, resp)
}
