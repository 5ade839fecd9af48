/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Seednode/papayoo/papayoo"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func backends(t *testing.T) map[string]KV {
	t.Helper()

	ctx := context.Background()

	lite, err := Open(ctx, BackendSQLite, filepath.Join(t.TempDir(), "papayoo.db"))
	require.NoError(t, err)

	mem, err := Open(ctx, BackendMemory, "")
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = lite.Close()
		_ = mem.Close()
	})

	return map[string]KV{
		BackendMemory: mem,
		BackendSQLite: lite,
	}
}

func testGame(t *testing.T, name string, at time.Time) *papayoo.Game {
	t.Helper()

	g, err := papayoo.New(papayoo.Options{
		Name:       name,
		DeckCount:  1,
		Players:    []string{"Ana", "Bo", "Cy"},
		PointLimit: 200,
		Now:        at,
	})
	require.NoError(t, err)

	return g
}

func TestKVMissingKey(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			v, err := kv.Get(context.Background(), "nope")
			require.NoError(t, err)
			assert.Nil(t, v)

			require.NoError(t, kv.Set(context.Background(), "k", []byte("1")))
			require.NoError(t, kv.Set(context.Background(), "k", []byte("2")))

			v, err = kv.Get(context.Background(), "k")
			require.NoError(t, err)
			assert.Equal(t, []byte("2"), v)
		})
	}
}

func TestGamesLifecycle(t *testing.T) {
	base := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := NewGames(kv)

			games, err := store.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, games)

			first := testGame(t, "first", base)
			second := testGame(t, "second", base.Add(time.Hour))
			require.NoError(t, store.Save(ctx, first))
			require.NoError(t, store.Save(ctx, second))

			games, err = store.List(ctx)
			require.NoError(t, err)
			require.Len(t, games, 2)
			assert.Equal(t, "second", games[0].Name)
			assert.Equal(t, "first", games[1].Name)

			got, err := store.Get(ctx, first.ID)
			require.NoError(t, err)
			assert.Equal(t, first.Name, got.Name)
			assert.Len(t, got.AvailableCards, 21)

			got.Players[0].Scores = append(got.Players[0].Scores, 12)
			got.Players[0].Total = 12
			got.CurrentRound = 2
			require.NoError(t, store.Update(ctx, got))

			got, err = store.Get(ctx, first.ID)
			require.NoError(t, err)
			assert.Equal(t, 12, got.Players[0].Total)
			assert.Equal(t, 2, got.CurrentRound)

			require.NoError(t, store.Delete(ctx, first.ID))
			_, err = store.Get(ctx, first.ID)
			require.ErrorIs(t, err, ErrNotFound)

			games, err = store.List(ctx)
			require.NoError(t, err)
			assert.Len(t, games, 1)
		})
	}
}

func TestGamesSaveCollision(t *testing.T) {
	ctx := context.Background()
	store := NewGames(NewMemory())
	at := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

	a := testGame(t, "a", at)
	b := testGame(t, "b", at)
	require.NoError(t, store.Save(ctx, a))
	require.NoError(t, store.Save(ctx, b))

	assert.Equal(t, a.ID+1, b.ID)
}

func TestGamesUpdateUnknown(t *testing.T) {
	ctx := context.Background()
	store := NewGames(NewMemory())

	require.NoError(t, store.Update(ctx, testGame(t, "ghost", time.Now())))

	games, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), "redis", "")
	require.Error(t, err)

	_, err = Open(context.Background(), BackendSQLite, "")
	require.Error(t, err)
}

func TestGamesModify(t *testing.T) {
	ctx := context.Background()
	store := NewGames(NewMemory())
	g := testGame(t, "mod", time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC))
	require.NoError(t, store.Save(ctx, g))

	boom := errors.New("boom")
	_, err := store.Modify(ctx, g.ID, func(g *papayoo.Game) error {
		g.Name = "changed"
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "mod", got.Name)

	updated, err := store.Modify(ctx, g.ID, func(g *papayoo.Game) error {
		g.Name = "changed"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "changed", updated.Name)

	_, err = store.Modify(ctx, 42, func(*papayoo.Game) error { return nil })
	require.ErrorIs(t, err, ErrNotFound)
}
