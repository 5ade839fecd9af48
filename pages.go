/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/spf13/cast"

	"github.com/Seednode/papayoo/papayoo"
	"github.com/Seednode/papayoo/storage"
)

type newGameData struct {
	Prefix     string
	Error      string
	Name       string
	DeckCount  int
	Decks      []int
	PlayerMin  int
	PlayerMax  int
	Players    string
	PointLimit int
}

type gameData struct {
	Prefix   string
	Game     *papayoo.Game
	Expected int
	Cards    []int
	Over     bool
	Ranking  []papayoo.Standing
}

func defaultNewGame(prefix string) newGameData {
	decks := make([]int, 0, papayoo.MaxDecks)
	for i := papayoo.MinDecks; i <= papayoo.MaxDecks; i++ {
		decks = append(decks, i)
	}

	return newGameData{
		Prefix:     prefix,
		DeckCount:  papayoo.MinDecks,
		Decks:      decks,
		PlayerMin:  papayoo.MinPlayers,
		PlayerMax:  papayoo.MaxPlayers(papayoo.MaxDecks),
		PointLimit: papayoo.DefaultPointLimit,
	}
}

// parseNewGame reads the creation form. players holds one name per line;
// the player count pads it with blank names, which later default to
// "Player N".
func parseNewGame(r *http.Request) (papayoo.Options, error) {
	if err := r.ParseForm(); err != nil {
		return papayoo.Options{}, err
	}

	decks, err := cast.ToIntE(strings.TrimSpace(r.PostFormValue("decks")))
	if err != nil {
		return papayoo.Options{}, fmt.Errorf("%w: invalid deck count", papayoo.ErrInvalidConfig)
	}

	limit, err := cast.ToIntE(strings.TrimSpace(r.PostFormValue("limit")))
	if err != nil {
		return papayoo.Options{}, fmt.Errorf("%w: invalid point limit", papayoo.ErrInvalidConfig)
	}

	var names []string
	for _, line := range strings.Split(r.PostFormValue("players"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}

	if raw := strings.TrimSpace(r.PostFormValue("count")); raw != "" {
		count, err := cast.ToIntE(raw)
		if err != nil || count < 0 {
			return papayoo.Options{}, fmt.Errorf("%w: invalid player count", papayoo.ErrInvalidConfig)
		}

		for len(names) < count {
			names = append(names, "")
		}
	}

	return papayoo.Options{
		Name:       r.PostFormValue("name"),
		DeckCount:  decks,
		Players:    names,
		PointLimit: limit,
	}, nil
}

func serveNewGameForm(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		written, err := renderPage(cfg, w, http.StatusOK, "new.html", defaultNewGame(cfg.prefix))
		if err != nil {
			errs <- err

			return
		}

		logServed(cfg, "New game page", r, written, startTime)
	}
}

func createGame(cfg *Config, games *storage.Games, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		opts, err := parseNewGame(r)

		var g *papayoo.Game
		if err == nil {
			g, err = papayoo.New(opts)
		}

		if err != nil {
			data := defaultNewGame(cfg.prefix)
			data.Error = userMessage(err)
			data.Name = opts.Name
			data.DeckCount = max(opts.DeckCount, papayoo.MinDecks)
			data.Players = strings.Join(opts.Players, "\n")
			if opts.PointLimit > 0 {
				data.PointLimit = opts.PointLimit
			}

			if _, err := renderPage(cfg, w, http.StatusUnprocessableEntity, "new.html", data); err != nil {
				errs <- err
			}

			return
		}

		if err := games.Save(r.Context(), g); err != nil {
			errs <- err
			writeNotice(cfg, w, http.StatusInternalServerError, "Server Error", "Unable to save the game.")

			return
		}

		logf(cfg, "GAMES: Created game %d (%q, %d decks, %d players) for %s",
			g.ID, g.Name, g.DeckCount, g.PlayerCount, realIP(r))

		http.Redirect(w, r, fmt.Sprintf("%s/game/%d", cfg.prefix, g.ID), http.StatusSeeOther)
	}
}

func serveGamePage(cfg *Config, games *storage.Games, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		startTime := time.Now()

		id, err := parseGameID(ps)
		if err != nil {
			writeNotice(cfg, w, http.StatusBadRequest, "Not Found", "That is not a valid game.")

			return
		}

		g, err := games.Get(r.Context(), id)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			writeNotice(cfg, w, http.StatusNotFound, "Not Found", userMessage(err))

			return
		case err != nil:
			errs <- err
			writeNotice(cfg, w, http.StatusInternalServerError, "Server Error", userMessage(err))

			return
		}

		cards := make([]int, 0, papayoo.CardsPerDeck+1)
		for v := 0; v <= papayoo.CardsPerDeck; v++ {
			cards = append(cards, v)
		}

		data := gameData{
			Prefix:   cfg.prefix,
			Game:     g,
			Expected: g.ExpectedRoundTotal(cfg.roundMode),
			Cards:    cards,
			Over:     g.Over(),
		}
		if data.Over {
			data.Ranking = g.Ranking()
		}

		written, err := renderPage(cfg, w, http.StatusOK, "game.html", data)
		if err != nil {
			errs <- err

			return
		}

		logServed(cfg, fmt.Sprintf("Game %d", id), r, written, startTime)
	}
}

func deleteGame(cfg *Config, games *storage.Games, gm *GameManager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id, err := parseGameID(ps)
		if err != nil {
			writeNotice(cfg, w, http.StatusBadRequest, "Not Found", "That is not a valid game.")

			return
		}

		if err := games.Delete(r.Context(), id); err != nil {
			errs <- err
			writeNotice(cfg, w, http.StatusInternalServerError, "Server Error", "Unable to delete the game.")

			return
		}

		gm.drop(id)

		logf(cfg, "GAMES: Deleted game %d for %s", id, realIP(r))

		http.Redirect(w, r, cfg.prefix+"/", http.StatusSeeOther)
	}
}

// registerGamePages sets up routes so that:
//   - /new               → creation form (GET) and creation (POST)
//   - /game/:gameid      → HTML score sheet
//   - /game/:gameid/ws   → WebSocket for that game's live table
//   - /game/:gameid/qr   → PNG QR code for that game URL
func registerGamePages(cfg *Config, games *storage.Games, gm *GameManager, mux *httprouter.Router, errs chan<- error) {
	mux.GET(cfg.prefix+"/new", serveNewGameForm(cfg, errs))
	mux.POST(cfg.prefix+"/new", createGame(cfg, games, errs))

	mux.GET(cfg.prefix+"/game/:gameid", serveGamePage(cfg, games, errs))
	mux.POST(cfg.prefix+"/game/:gameid/delete", deleteGame(cfg, games, gm, errs))

	mux.GET(cfg.prefix+"/game/:gameid/ws", serveWSForManager(cfg, gm))

	mux.GET(cfg.prefix+"/game/:gameid/qr", qrHandler)
}
