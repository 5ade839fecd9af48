/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package papayoo

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

const (
	MinPlayers = 3

	// Each deck allows this many more seats at the table.
	MaxPlayersPerDeck = 8

	DefaultPointLimit = 500
)

type Player struct {
	Name   string `json:"name"`
	Scores []int  `json:"scores"`
	Total  int    `json:"total"`
}

// Game is the persisted state of one game. Field names match the stored
// JSON layout.
type Game struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	DeckCount         int       `json:"deckCount"`
	PlayerCount       int       `json:"playerCount"`
	PointLimit        int       `json:"pointLimit"`
	DiceCount         int       `json:"diceCount"`
	PapayooCount      int       `json:"papayoCount"`
	MaxPointsPerRound int       `json:"maxPointsPerRound"`
	Scores            [][]int   `json:"scores"` // per round, per player
	Date              time.Time `json:"date"`
	Players           []Player  `json:"players"`
	CurrentRound      int       `json:"currentRound"`
	Decks             []Deck    `json:"decks"`
	AvailableCards    []Card    `json:"availableCards"`
}

// Options configures a new game.
type Options struct {
	Name       string
	DeckCount  int
	Players    []string
	PointLimit int
	Now        time.Time
}

func MaxPlayers(deckCount int) int {
	return MaxPlayersPerDeck * deckCount
}

// New validates opts and returns a game at round 1 with an empty score sheet.
func New(opts Options) (*Game, error) {
	if opts.DeckCount < MinDecks || opts.DeckCount > MaxDecks {
		return nil, fmt.Errorf("%w: deck count must be between %d-%d inclusive: %d",
			ErrInvalidConfig, MinDecks, MaxDecks, opts.DeckCount)
	}

	if n := len(opts.Players); n < MinPlayers || n > MaxPlayers(opts.DeckCount) {
		return nil, fmt.Errorf("%w: player count must be between %d-%d inclusive: %d",
			ErrInvalidConfig, MinPlayers, MaxPlayers(opts.DeckCount), n)
	}

	if opts.PointLimit <= 0 {
		return nil, fmt.Errorf("%w: point limit must be positive: %d", ErrInvalidConfig, opts.PointLimit)
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	name := strings.TrimSpace(opts.Name)
	if name == "" {
		name = "Game " + now.Format(time.DateOnly)
	}

	players := make([]Player, len(opts.Players))
	for i, p := range opts.Players {
		p = strings.TrimSpace(p)
		if p == "" {
			p = fmt.Sprintf("Player %d", i+1)
		}

		players[i] = Player{
			Name:   p,
			Scores: []int{},
		}
	}

	decks, cards := NewPool(opts.DeckCount)

	return &Game{
		ID:                now.UnixMilli(),
		Name:              name,
		DeckCount:         opts.DeckCount,
		PlayerCount:       len(players),
		PointLimit:        opts.PointLimit,
		DiceCount:         opts.DeckCount,
		PapayooCount:      opts.DeckCount,
		MaxPointsPerRound: PointsPerDeck * opts.DeckCount,
		Scores:            [][]int{},
		Date:              now,
		Players:           players,
		CurrentRound:      1,
		Decks:             decks,
		AvailableCards:    cards,
	}, nil
}

// Over reports whether any player reached the point limit.
func (g *Game) Over() bool {
	for _, p := range g.Players {
		if p.Total >= g.PointLimit {
			return true
		}
	}

	return false
}

// RoundResult describes a recorded round.
type RoundResult struct {
	Round    int        `json:"round"`
	Scores   []int      `json:"scores"`
	GameOver bool       `json:"gameOver"`
	Ranking  []Standing `json:"ranking,omitempty"`
}

// EndRound validates the draft and records it. Players absent from the draft
// score 0 for the round.
func (g *Game) EndRound(d Draft, mode RoundTotalMode) (RoundResult, error) {
	if g.Over() {
		return RoundResult{}, ErrGameOver
	}

	if err := g.ValidateRound(d, mode); err != nil {
		return RoundResult{}, err
	}

	round := g.CurrentRound
	scores := d.Scores(len(g.Players))

	for i := range g.Players {
		g.Players[i].Scores = append(g.Players[i].Scores, scores[i])
		g.Players[i].Total += scores[i]
	}
	g.Scores = append(g.Scores, scores)
	g.CurrentRound++

	result := RoundResult{
		Round:    round,
		Scores:   scores,
		GameOver: g.Over(),
	}
	if result.GameOver {
		result.Ranking = g.Ranking()
	}

	return result, nil
}

// UndoRound removes the last recorded round from every player.
func (g *Game) UndoRound() error {
	if g.CurrentRound <= 1 {
		return ErrNoRounds
	}

	for i := range g.Players {
		p := &g.Players[i]
		if n := len(p.Scores); n > 0 {
			p.Total -= p.Scores[n-1]
			p.Scores = p.Scores[:n-1]
		}
	}
	if n := len(g.Scores); n > 0 {
		g.Scores = g.Scores[:n-1]
	}
	g.CurrentRound--

	return nil
}

// Standing is one line of the final ranking.
type Standing struct {
	Position int    `json:"position"`
	Player   int    `json:"player"`
	Name     string `json:"name"`
	Total    int    `json:"total"`
}

// Ranking orders players by ascending total; the lowest score wins.
func (g *Game) Ranking() []Standing {
	out := make([]Standing, len(g.Players))
	for i, p := range g.Players {
		out[i] = Standing{
			Player: i,
			Name:   p.Name,
			Total:  p.Total,
		}
	}

	slices.SortStableFunc(out, func(a, b Standing) int {
		return a.Total - b.Total
	})

	for i := range out {
		out[i].Position = i + 1
	}

	return out
}

// Progress is a player's total as a fraction of the point limit, capped at 1.
func (g *Game) Progress(player int) float64 {
	if player < 0 || player >= len(g.Players) || g.PointLimit <= 0 {
		return 0
	}

	p := float64(g.Players[player].Total) / float64(g.PointLimit)

	return min(p, 1)
}
