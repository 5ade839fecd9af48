/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/Seednode/papayoo/papayoo"
)

// GamesKey is the key holding the JSON array of every game.
const GamesKey = "papayo_games"

var ErrNotFound = errors.New("game not found")

// Games reads and rewrites the whole game list on every call. mu serializes
// the read-modify-write cycles of concurrent requests.
type Games struct {
	mu sync.Mutex
	kv KV
}

func NewGames(kv KV) *Games {
	return &Games{kv: kv}
}

func (s *Games) load(ctx context.Context) ([]*papayoo.Game, error) {
	data, err := s.kv.Get(ctx, GamesKey)
	if err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return []*papayoo.Game{}, nil
	}

	var games []*papayoo.Game
	if err := json.Unmarshal(data, &games); err != nil {
		return nil, fmt.Errorf("decode %s: %w", GamesKey, err)
	}

	return games, nil
}

func (s *Games) store(ctx context.Context, games []*papayoo.Game) error {
	data, err := json.Marshal(games)
	if err != nil {
		return fmt.Errorf("encode %s: %w", GamesKey, err)
	}

	return s.kv.Set(ctx, GamesKey, data)
}

// Save appends g to the list. A game whose id is already taken is moved to
// the next free id.
func (s *Games) Save(ctx context.Context, g *papayoo.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	games, err := s.load(ctx)
	if err != nil {
		return err
	}

	for slices.ContainsFunc(games, func(e *papayoo.Game) bool { return e.ID == g.ID }) {
		g.ID++
	}

	return s.store(ctx, append(games, g))
}

// List returns every game, newest first.
func (s *Games) List(ctx context.Context) ([]*papayoo.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	games, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(games, func(a, b *papayoo.Game) int {
		return b.Date.Compare(a.Date)
	})

	return games, nil
}

func (s *Games) Get(ctx context.Context, id int64) (*papayoo.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	games, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	i := slices.IndexFunc(games, func(g *papayoo.Game) bool { return g.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	return games[i], nil
}

// Update replaces the stored game with the same id. Unknown ids are ignored.
func (s *Games) Update(ctx context.Context, g *papayoo.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	games, err := s.load(ctx)
	if err != nil {
		return err
	}

	i := slices.IndexFunc(games, func(e *papayoo.Game) bool { return e.ID == g.ID })
	if i < 0 {
		return nil
	}
	games[i] = g

	return s.store(ctx, games)
}

func (s *Games) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	games, err := s.load(ctx)
	if err != nil {
		return err
	}

	kept := slices.DeleteFunc(games, func(g *papayoo.Game) bool { return g.ID == id })

	return s.store(ctx, kept)
}

// Modify applies fn to the stored game and writes it back when fn succeeds.
// The whole cycle runs under the store lock.
func (s *Games) Modify(ctx context.Context, id int64, fn func(*papayoo.Game) error) (*papayoo.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	games, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	i := slices.IndexFunc(games, func(g *papayoo.Game) bool { return g.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	if err := fn(games[i]); err != nil {
		return nil, err
	}

	if err := s.store(ctx, games); err != nil {
		return nil, err
	}

	return games[i], nil
}
