/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/Seednode/papayoo/papayoo"
	"github.com/Seednode/papayoo/storage"
)

const maxBodyBytes = 1 << 16

type createRequest struct {
	Name       string   `json:"name"`
	DeckCount  int      `json:"deckCount"`
	Players    []string `json:"players"`
	PointLimit int      `json:"pointLimit"`
}

// roundRequest lists the cards each player took, indexed like the game's
// players.
type roundRequest struct {
	Hands [][]papayoo.Selection `json:"hands"`
}

func (rr roundRequest) draft() papayoo.Draft {
	d := papayoo.Draft{}
	for player, hand := range rr.Hands {
		for _, sel := range hand {
			if sel.IsPapayoo {
				sel.Value = papayoo.PapayooFace
			}
			d.Add(player, sel)
		}
	}

	return d
}

type apiError struct {
	Error string `json:"error"`
}

func writeJSON(cfg *Config, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	securityHeaders(cfg, w)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		errorf(cfg, "ERROR: encode response: %v", err)
	}
}

func writeAPIError(cfg *Config, w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		errorf(cfg, "ERROR: %v", err)
	}

	writeJSON(cfg, w, status, apiError{Error: userMessage(err)})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	return dec.Decode(v)
}

func apiListGames(cfg *Config, games *storage.Games) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		list, err := games.List(r.Context())
		if err != nil {
			writeAPIError(cfg, w, err)
			return
		}

		writeJSON(cfg, w, http.StatusOK, list)
	}
}

func apiCreateGame(cfg *Config, games *storage.Games) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req createRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeJSON(cfg, w, http.StatusBadRequest, apiError{Error: "malformed request body"})
			return
		}

		if req.PointLimit == 0 {
			req.PointLimit = papayoo.DefaultPointLimit
		}

		g, err := papayoo.New(papayoo.Options{
			Name:       req.Name,
			DeckCount:  req.DeckCount,
			Players:    req.Players,
			PointLimit: req.PointLimit,
		})
		if err != nil {
			writeAPIError(cfg, w, err)
			return
		}

		if err := games.Save(r.Context(), g); err != nil {
			writeAPIError(cfg, w, err)
			return
		}

		logf(cfg, "GAMES: Created game %d (%q) via API for %s", g.ID, g.Name, realIP(r))

		writeJSON(cfg, w, http.StatusCreated, g)
	}
}

func apiGetGame(cfg *Config, games *storage.Games) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id, err := parseGameID(ps)
		if err != nil {
			writeJSON(cfg, w, http.StatusBadRequest, apiError{Error: "invalid game id"})
			return
		}

		g, err := games.Get(r.Context(), id)
		if err != nil {
			writeAPIError(cfg, w, err)
			return
		}

		writeJSON(cfg, w, http.StatusOK, g)
	}
}

func apiDeleteGame(cfg *Config, games *storage.Games, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id, err := parseGameID(ps)
		if err != nil {
			writeJSON(cfg, w, http.StatusBadRequest, apiError{Error: "invalid game id"})
			return
		}

		if err := games.Delete(r.Context(), id); err != nil {
			writeAPIError(cfg, w, err)
			return
		}

		gm.drop(id)

		logf(cfg, "GAMES: Deleted game %d via API for %s", id, realIP(r))

		w.WriteHeader(http.StatusNoContent)
	}
}

func apiEndRound(cfg *Config, games *storage.Games, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		startTime := time.Now()

		id, err := parseGameID(ps)
		if err != nil {
			writeJSON(cfg, w, http.StatusBadRequest, apiError{Error: "invalid game id"})
			return
		}

		var req roundRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeJSON(cfg, w, http.StatusBadRequest, apiError{Error: "malformed request body"})
			return
		}

		var result papayoo.RoundResult
		_, err = games.Modify(r.Context(), id, func(g *papayoo.Game) error {
			if len(req.Hands) > len(g.Players) {
				return papayoo.ErrUnknownPlayer
			}

			var err error
			result, err = g.EndRound(req.draft(), cfg.roundMode)
			return err
		})
		if err != nil {
			writeAPIError(cfg, w, err)
			return
		}

		gm.notify(id)

		logf(cfg, "GAMES: Round %d of %d recorded via API in %s",
			result.Round, id, time.Since(startTime).Round(time.Microsecond))

		writeJSON(cfg, w, http.StatusOK, result)
	}
}

func apiUndoRound(cfg *Config, games *storage.Games, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id, err := parseGameID(ps)
		if err != nil {
			writeJSON(cfg, w, http.StatusBadRequest, apiError{Error: "invalid game id"})
			return
		}

		g, err := games.Modify(r.Context(), id, func(g *papayoo.Game) error {
			return g.UndoRound()
		})
		if err != nil {
			writeAPIError(cfg, w, err)
			return
		}

		gm.notify(id)

		writeJSON(cfg, w, http.StatusOK, g)
	}
}

func apiRanking(cfg *Config, games *storage.Games) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id, err := parseGameID(ps)
		if err != nil {
			writeJSON(cfg, w, http.StatusBadRequest, apiError{Error: "invalid game id"})
			return
		}

		g, err := games.Get(r.Context(), id)
		if err != nil {
			writeAPIError(cfg, w, err)
			return
		}

		writeJSON(cfg, w, http.StatusOK, struct {
			Over    bool               `json:"over"`
			Ranking []papayoo.Standing `json:"ranking"`
		}{
			Over:    g.Over(),
			Ranking: g.Ranking(),
		})
	}
}

func registerAPI(cfg *Config, games *storage.Games, gm *GameManager, mux *httprouter.Router) {
	base := cfg.prefix + "/api/games"

	mux.GET(base, apiListGames(cfg, games))
	mux.POST(base, apiCreateGame(cfg, games))
	mux.GET(base+"/:gameid", apiGetGame(cfg, games))
	mux.DELETE(base+"/:gameid", apiDeleteGame(cfg, games, gm))
	mux.POST(base+"/:gameid/rounds", apiEndRound(cfg, games, gm))
	mux.DELETE(base+"/:gameid/rounds", apiUndoRound(cfg, games, gm))
	mux.GET(base+"/:gameid/ranking", apiRanking(cfg, games))
}
