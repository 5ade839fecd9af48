/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Papayoo live table
//
// Every open game page joins the hub of its game over a websocket. The hub
// owns the draft of the round in progress, so every device around the table
// sees the same card selection until somebody ends the round.
//
// Features:
// - WebSockets per game ID: /game/:id/ws
// - Card selection is checked against the game's card pool as it happens
// - Rejected moves are reported only to the client that sent them
// - Ending a round validates the draft and persists the new totals
// - The last recorded round can be undone
// - Changes made through the JSON API are pushed to connected clients
// - Hubs are reaped after a configurable idle timeout
// - QR code of the game page for other devices, backed by go-qrcode

package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"github.com/Seednode/papayoo/papayoo"
	"github.com/Seednode/papayoo/storage"
)

const storeTimeout = 5 * time.Second

// Messages coming from clients
type ClientMessage struct {
	Type    string `json:"type"`              // "select", "undo_card", "clear", "end_round", "undo_round"
	Player  *int   `json:"player,omitempty"`  // select / undo_card / clear
	Value   int    `json:"value,omitempty"`   // select
	Papayoo bool   `json:"papayoo,omitempty"` // select
}

// StateMessage carries everything a client needs to draw the table.
type StateMessage struct {
	Type        string              `json:"type"` // "game_state"
	Game        *papayoo.Game       `json:"game"`
	Draft       papayoo.Draft       `json:"draft"`
	DraftScores []int               `json:"draft_scores"`
	Expected    int                 `json:"expected"`
	Remaining   int                 `json:"remaining"`
	Available   map[int]bool        `json:"available"`
	Papayoos    papayoo.PapayooInfo `json:"papayoos"`
	Over        bool                `json:"over"`
	Ranking     []papayoo.Standing  `json:"ranking,omitempty"`
}

// RoundMessage announces a recorded round to everyone.
type RoundMessage struct {
	Type     string             `json:"type"` // "round_ended"
	Round    int                `json:"round"`
	Scores   []int              `json:"scores"`
	GameOver bool               `json:"game_over"`
	Ranking  []papayoo.Standing `json:"ranking,omitempty"`
}

// SimpleMessage is for generic notifications ("error", "round_undone", "closed").
type SimpleMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type Client struct {
	conn *websocket.Conn
	send chan any
}

type command struct {
	client *Client
	msg    ClientMessage
}

type Hub struct {
	id    int64
	cfg   *Config
	games *storage.Games

	clients map[*Client]bool

	register chan *Client
	unreg    chan *Client
	commands chan command
	refresh  chan struct{}
	quit     chan struct{}
	stop     sync.Once

	mu sync.RWMutex

	createdAt  time.Time
	lastActive time.Time

	draft papayoo.Draft
	round int
}

func newHub(cfg *Config, games *storage.Games, gameID int64) *Hub {
	now := time.Now()
	return &Hub{
		id:         gameID,
		cfg:        cfg,
		games:      games,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		commands:   make(chan command),
		refresh:    make(chan struct{}, 1),
		quit:       make(chan struct{}),
		createdAt:  now,
		lastActive: now,
		draft:      papayoo.Draft{},
	}
}

func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			if h.stopped() {
				rejectClient(c)
				h.mu.Unlock()

				continue
			}

			h.lastActive = time.Now()
			h.clients[c] = true

			if g, err := h.loadLocked(); err != nil {
				h.sendLocked(c, errorMessage(err))
			} else {
				h.sendLocked(c, h.stateLocked(g))
			}
			h.mu.Unlock()

		case c := <-h.unreg:
			h.mu.Lock()
			h.lastActive = time.Now()

			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case cmd := <-h.commands:
			h.handleCommand(cmd)

		case <-h.refresh:
			h.mu.Lock()
			if g, err := h.loadLocked(); err == nil {
				h.broadcastLocked(h.stateLocked(g))
			}
			h.mu.Unlock()

		case <-h.quit:
			return
		}
	}
}

func (h *Hub) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), storeTimeout)
}

// loadLocked fetches the stored game and drops the draft when the round it
// belonged to has been recorded elsewhere.
func (h *Hub) loadLocked() (*papayoo.Game, error) {
	ctx, cancel := h.ctx()
	defer cancel()

	g, err := h.games.Get(ctx, h.id)
	if err != nil {
		return nil, err
	}

	h.syncRoundLocked(g)

	return g, nil
}

func (h *Hub) syncRoundLocked(g *papayoo.Game) {
	if h.round != g.CurrentRound {
		h.round = g.CurrentRound
		h.draft = papayoo.Draft{}
	}
}

func (h *Hub) stateLocked(g *papayoo.Game) StateMessage {
	mode := h.cfg.roundMode

	msg := StateMessage{
		Type:        "game_state",
		Game:        g,
		Draft:       h.draft.Clone(),
		DraftScores: h.draft.Scores(len(g.Players)),
		Expected:    g.ExpectedRoundTotal(mode),
		Remaining:   g.Remaining(h.draft, mode),
		Available:   g.Availability(h.draft),
		Papayoos:    g.Papayoos(h.draft),
		Over:        g.Over(),
	}
	if msg.Over {
		msg.Ranking = g.Ranking()
	}

	return msg
}

// sendLocked queues msg for one client, dropping the client if its buffer is full.
func (h *Hub) sendLocked(c *Client, msg any) {
	if !h.clients[c] {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) broadcastLocked(msg any) {
	for client := range h.clients {
		h.sendLocked(client, msg)
	}
}

func (h *Hub) handleCommand(cmd command) {
	c := cmd.client
	msg := cmd.msg

	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	g, err := h.loadLocked()
	if err != nil {
		h.sendLocked(c, errorMessage(err))

		return
	}

	switch msg.Type {
	case "select":
		if msg.Player == nil {
			return
		}

		sel := papayoo.Selection{Value: msg.Value, IsPapayoo: msg.Papayoo}
		if msg.Papayoo {
			sel.Value = papayoo.PapayooFace
		}

		if g.Over() {
			h.sendLocked(c, errorMessage(papayoo.ErrGameOver))

			return
		}

		if err := g.CanSelect(h.draft, *msg.Player, sel); err != nil {
			h.sendLocked(c, errorMessage(err))

			return
		}

		h.draft.Add(*msg.Player, sel)

	case "undo_card":
		if msg.Player == nil || !h.draft.UndoLast(*msg.Player) {
			return
		}

	case "clear":
		if msg.Player == nil {
			h.draft = papayoo.Draft{}
		} else {
			h.draft.Clear(*msg.Player)
		}

	case "end_round":
		h.endRoundLocked(c)

		return

	case "undo_round":
		h.undoRoundLocked(c)

		return

	default:
		return
	}

	h.broadcastLocked(h.stateLocked(g))
}

func (h *Hub) endRoundLocked(c *Client) {
	ctx, cancel := h.ctx()
	defer cancel()

	var result papayoo.RoundResult

	g, err := h.games.Modify(ctx, h.id, func(g *papayoo.Game) error {
		var err error
		result, err = g.EndRound(h.draft, h.cfg.roundMode)
		return err
	})
	if err != nil {
		h.sendLocked(c, errorMessage(err))

		return
	}

	logf(h.cfg, "GAMES: Round %d of %d ended with scores %v", result.Round, h.id, result.Scores)
	if result.GameOver {
		logf(h.cfg, "GAMES: Game %d is over, won by %q", h.id, result.Ranking[0].Name)
	}

	h.syncRoundLocked(g)

	h.broadcastLocked(RoundMessage{
		Type:     "round_ended",
		Round:    result.Round,
		Scores:   result.Scores,
		GameOver: result.GameOver,
		Ranking:  result.Ranking,
	})
	h.broadcastLocked(h.stateLocked(g))
}

func (h *Hub) undoRoundLocked(c *Client) {
	ctx, cancel := h.ctx()
	defer cancel()

	g, err := h.games.Modify(ctx, h.id, func(g *papayoo.Game) error {
		return g.UndoRound()
	})
	if err != nil {
		h.sendLocked(c, errorMessage(err))

		return
	}

	logf(h.cfg, "GAMES: Round %d of %d undone", g.CurrentRound, h.id)

	h.syncRoundLocked(g)

	h.broadcastLocked(SimpleMessage{
		Type:    "round_undone",
		Message: "Round " + strconv.Itoa(g.CurrentRound) + " was undone.",
	})
	h.broadcastLocked(h.stateLocked(g))
}

// stopped reports whether closeAll has run. A client registering after
// that must be rejected, since nothing would ever close its send channel.
func (h *Hub) stopped() bool {
	select {
	case <-h.quit:
		return true
	default:
		return false
	}
}

func rejectClient(c *Client) {
	select {
	case c.send <- SimpleMessage{Type: "closed", Message: "This table has been closed."}:
	default:
	}
	close(c.send)
}

// closeAll disconnects all clients of this hub and stops its loop.
func (h *Hub) closeAll() {
	h.stop.Do(func() {
		close(h.quit)

		h.mu.Lock()
		defer h.mu.Unlock()

		for c := range h.clients {
			rejectClient(c)
			delete(h.clients, c)
		}
	})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// GameManager holds the live hubs keyed by game ID.
type GameManager struct {
	mu          sync.Mutex
	cfg         *Config
	games       *storage.Games
	hubs        map[int64]*Hub
	idleTimeout time.Duration
}

func newGameManager(ctx context.Context, cfg *Config, games *storage.Games) *GameManager {
	gm := &GameManager{
		cfg:         cfg,
		games:       games,
		hubs:        make(map[int64]*Hub),
		idleTimeout: cfg.sessionTimeout,
	}
	if gm.idleTimeout > 0 {
		go gm.reaperLoop(ctx)
	}
	return gm
}

func (gm *GameManager) getHub(gameID int64) *Hub {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[gameID]; ok {
		return hub
	}

	hub := newHub(gm.cfg, gm.games, gameID)
	gm.hubs[gameID] = hub
	go hub.run()
	return hub
}

// notify asks a live hub, if any, to reload its game and redraw clients.
func (gm *GameManager) notify(gameID int64) {
	gm.mu.Lock()
	hub, ok := gm.hubs[gameID]
	gm.mu.Unlock()

	if !ok {
		return
	}

	select {
	case hub.refresh <- struct{}{}:
	default:
	}
}

// drop closes the hub of a deleted game.
func (gm *GameManager) drop(gameID int64) {
	gm.mu.Lock()
	hub, ok := gm.hubs[gameID]
	delete(gm.hubs, gameID)
	gm.mu.Unlock()

	if ok {
		hub.closeAll()
	}
}

func (gm *GameManager) closeAll() {
	gm.mu.Lock()
	hubs := gm.hubs
	gm.hubs = make(map[int64]*Hub)
	gm.mu.Unlock()

	for _, hub := range hubs {
		hub.closeAll()
	}
}

// reaperLoop periodically removes hubs that have been idle longer than idleTimeout.
func (gm *GameManager) reaperLoop(ctx context.Context) {
	ticker := time.NewTicker(gm.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		cutoff := time.Now().Add(-gm.idleTimeout)

		gm.mu.Lock()
		for id, hub := range gm.hubs {
			hub.mu.RLock()
			last := hub.lastActive
			hub.mu.RUnlock()

			if last.Before(cutoff) {
				delete(gm.hubs, id)
				logf(gm.cfg, "GAMES: Closed idle table for game %d after %s", id, time.Since(hub.createdAt).Round(time.Second))
				go hub.closeAll()
			}
		}
		gm.mu.Unlock()
	}
}

func parseGameID(ps httprouter.Params) (int64, error) {
	return strconv.ParseInt(ps.ByName("gameid"), 10, 64)
}

// WebSocket handler that picks the hub based on :gameid
func serveWSForManager(cfg *Config, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID, err := parseGameID(ps)
		if err != nil {
			http.Error(w, "invalid game id", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
		_, err = gm.games.Get(ctx, gameID)
		cancel()
		switch {
		case errors.Is(err, storage.ErrNotFound):
			http.Error(w, "game not found", http.StatusNotFound)
			return
		case err != nil:
			http.Error(w, "unable to load game", http.StatusInternalServerError)
			return
		}

		hub := gm.getHub(gameID)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			errorf(cfg, "ERROR: websocket upgrade for game %d: %v", gameID, err)
			return
		}

		client := &Client{
			conn: conn,
			send: make(chan any, 16),
		}

		select {
		case hub.register <- client:
		case <-hub.quit:
			_ = conn.Close()
			return
		}

		logf(cfg, "GAMES: %s joined the table of game %d", realIP(r), gameID)

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.quit:
		}
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "select", "undo_card", "clear", "end_round", "undo_round":
			select {
			case h.commands <- command{client: c, msg: msg}:
			case <-h.quit:
				return
			}
		default:
			// ignore unknown types
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// QR handler: generates a PNG QR code for the current game URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if _, err := parseGameID(ps); err != nil {
		http.Error(w, "invalid game id", http.StatusBadRequest)
		return
	}

	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}
