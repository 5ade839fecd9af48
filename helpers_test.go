/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Seednode/papayoo/papayoo"
	"github.com/Seednode/papayoo/storage"
)

type testApp struct {
	cfg    *Config
	games  *storage.Games
	gm     *GameManager
	router http.Handler
	errs   chan error
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())

	cfg := &Config{
		port:      8080,
		storage:   storage.BackendMemory,
		roundMode: papayoo.TotalNominal,
	}

	kv, err := storage.Open(ctx, cfg.storage, "")
	require.NoError(t, err)

	games := storage.NewGames(kv)
	gm := newGameManager(ctx, cfg, games)
	errs := make(chan error, 64)

	t.Cleanup(func() {
		gm.closeAll()
		cancel()
		_ = kv.Close()
	})

	return &testApp{
		cfg:    cfg,
		games:  games,
		gm:     gm,
		router: newRouter(cfg, games, gm, errs),
		errs:   errs,
	}
}

// seed stores a one-deck game for Ana, Bo and Cy.
func (a *testApp) seed(t *testing.T, limit int) *papayoo.Game {
	t.Helper()

	g, err := papayoo.New(papayoo.Options{
		Name:       "Friday",
		DeckCount:  1,
		Players:    []string{"Ana", "Bo", "Cy"},
		PointLimit: limit,
	})
	require.NoError(t, err)
	require.NoError(t, a.games.Save(context.Background(), g))

	return g
}

// fullHands hands out one complete deck: 1-10, 11-20 and the Papayoo.
func fullHands() [][]papayoo.Selection {
	hands := make([][]papayoo.Selection, 3)
	for v := 1; v <= 10; v++ {
		hands[0] = append(hands[0], papayoo.Selection{Value: v})
	}
	for v := 11; v <= 20; v++ {
		hands[1] = append(hands[1], papayoo.Selection{Value: v})
	}
	hands[2] = append(hands[2], papayoo.Selection{IsPapayoo: true})

	return hands
}
