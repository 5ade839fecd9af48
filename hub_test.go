/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/papayoo/papayoo"
)

type wsReply struct {
	Type        string              `json:"type"`
	Message     string              `json:"message"`
	Game        *papayoo.Game       `json:"game"`
	DraftScores []int               `json:"draft_scores"`
	Remaining   int                 `json:"remaining"`
	Available   map[int]bool        `json:"available"`
	Papayoos    papayoo.PapayooInfo `json:"papayoos"`
	Round       int                 `json:"round"`
	Scores      []int               `json:"scores"`
	GameOver    bool                `json:"game_over"`
}

func dialTable(t *testing.T, app *testApp, id int64) (*websocket.Conn, func() wsReply) {
	t.Helper()

	srv := httptest.NewServer(app.router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + fmt.Sprintf("/game/%d/ws", id)

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })

	read := func() wsReply {
		t.Helper()

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

		var msg wsReply
		require.NoError(t, conn.ReadJSON(&msg))

		return msg
	}

	return conn, read
}

func selectCard(player, value int) ClientMessage {
	return ClientMessage{Type: "select", Player: &player, Value: value}
}

func TestTableDraft(t *testing.T) {
	app := newTestApp(t)
	g := app.seed(t, 500)

	conn, read := dialTable(t, app, g.ID)

	state := read()
	require.Equal(t, "game_state", state.Type)
	assert.Equal(t, 250, state.Remaining)
	assert.Equal(t, 1, state.Game.CurrentRound)

	require.NoError(t, conn.WriteJSON(selectCard(0, 5)))
	state = read()
	assert.Equal(t, []int{5, 0, 0}, state.DraftScores)
	assert.Equal(t, 245, state.Remaining)
	assert.False(t, state.Available[5])

	require.NoError(t, conn.WriteJSON(selectCard(1, 5)))
	reply := read()
	assert.Equal(t, "error", reply.Type)
	assert.Equal(t, "That card is not available anymore.", reply.Message)

	require.NoError(t, conn.WriteJSON(selectCard(7, 1)))
	assert.Equal(t, "error", read().Type)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "end_round"}))
	reply = read()
	assert.Equal(t, "error", reply.Type)
	assert.Contains(t, reply.Message, "must equal 250 points (selected 5)")

	player := 0
	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "undo_card", Player: &player}))
	state = read()
	assert.Equal(t, []int{0, 0, 0}, state.DraftScores)
	assert.True(t, state.Available[5])
}

func TestTableEndRound(t *testing.T) {
	app := newTestApp(t)
	g := app.seed(t, 500)

	conn, read := dialTable(t, app, g.ID)
	read()

	for player, hand := range fullHands() {
		for _, sel := range hand {
			msg := selectCard(player, sel.Value)
			msg.Papayoo = sel.IsPapayoo
			require.NoError(t, conn.WriteJSON(msg))

			require.Equal(t, "game_state", read().Type)
		}
	}

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "end_round"}))

	ended := read()
	require.Equal(t, "round_ended", ended.Type)
	assert.Equal(t, 1, ended.Round)
	assert.Equal(t, []int{55, 155, 40}, ended.Scores)
	assert.False(t, ended.GameOver)

	state := read()
	require.Equal(t, "game_state", state.Type)
	assert.Equal(t, 2, state.Game.CurrentRound)
	assert.Equal(t, []int{0, 0, 0}, state.DraftScores)

	stored, err := app.games.Get(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Equal(t, 155, stored.Players[1].Total)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "undo_round"}))
	assert.Equal(t, "round_undone", read().Type)

	state = read()
	assert.Equal(t, 1, state.Game.CurrentRound)
	assert.Zero(t, state.Game.Players[1].Total)
}

func TestTableSeesAPIRounds(t *testing.T) {
	app := newTestApp(t)
	g := app.seed(t, 500)

	_, read := dialTable(t, app, g.ID)
	read()

	rec := app.do(t, http.MethodPost, fmt.Sprintf("/api/games/%d/rounds", g.ID), roundRequest{Hands: fullHands()})
	require.Equal(t, http.StatusOK, rec.Code)

	state := read()
	require.Equal(t, "game_state", state.Type)
	assert.Equal(t, 2, state.Game.CurrentRound)
	assert.Equal(t, []int{55}, state.Game.Players[0].Scores)
	assert.Equal(t, [][]int{{55, 155, 40}}, state.Game.Scores)
}

func TestTableClosedOnDelete(t *testing.T) {
	app := newTestApp(t)
	g := app.seed(t, 500)

	conn, read := dialTable(t, app, g.ID)
	read()

	rec := app.do(t, http.MethodDelete, fmt.Sprintf("/api/games/%d", g.ID), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	reply := read()
	assert.Equal(t, "closed", reply.Type)

	// The server hangs up after the notice and the game is gone for good.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)

	srv := httptest.NewServer(app.router)
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+fmt.Sprintf("/game/%d/ws", g.ID), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestClosedHubRejectsClients(t *testing.T) {
	app := newTestApp(t)
	g := app.seed(t, 500)

	hub := app.gm.getHub(g.ID)
	hub.closeAll()

	var accepted []*Client
	for range 50 {
		c := &Client{send: make(chan any, 16)}

		select {
		case hub.register <- c:
			accepted = append(accepted, c)
		case <-time.After(10 * time.Millisecond):
		}
	}

	for _, c := range accepted {
		var last any
		for msg := range c.send {
			last = msg
		}
		assert.Equal(t, SimpleMessage{Type: "closed", Message: "This table has been closed."}, last)
	}

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	assert.Empty(t, hub.clients)
}

func TestTableUnknownGame(t *testing.T) {
	app := newTestApp(t)

	srv := httptest.NewServer(app.router)
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/game/99/ws", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
