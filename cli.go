/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/Seednode/papayoo/papayoo"
	"github.com/Seednode/papayoo/storage"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	cellStyle   = lipgloss.NewStyle().PaddingRight(2)
	winnerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	mutedStyle  = lipgloss.NewStyle().Faint(true)
)

// withGames opens the configured store for the duration of fn.
func withGames(ctx context.Context, cfg *Config, fn func(*storage.Games) error) error {
	kv, err := storage.Open(ctx, cfg.storage, cfg.database)
	if err != nil {
		return err
	}
	defer kv.Close()

	return fn(storage.NewGames(kv))
}

// renderTable lays out rows in padded, borderless columns; the first row is
// the header.
func renderTable(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	t := table.New().
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderHeader(false).
		BorderRow(false).
		Headers(rows[0]...).
		Rows(rows[1:]...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.PaddingRight(2)
			}
			return cellStyle
		})

	return t.String() + "\n"
}

func printGames(w io.Writer, games []*papayoo.Game) {
	if len(games) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No saved games."))
		return
	}

	rows := [][]string{{"ID", "Name", "Date", "Players", "Decks", "Round", "Status"}}
	for _, g := range games {
		status := "playing"
		if g.Over() {
			status = "over"
		}

		rows = append(rows, []string{
			strconv.FormatInt(g.ID, 10),
			g.Name,
			g.Date.Local().Format("2006-01-02"),
			strconv.Itoa(g.PlayerCount),
			strconv.Itoa(g.DeckCount),
			strconv.Itoa(g.CurrentRound),
			status,
		})
	}

	fmt.Fprint(w, renderTable(rows))
}

func printRanking(w io.Writer, g *papayoo.Game) {
	title := fmt.Sprintf("%s · round %d · limit %d", g.Name, g.CurrentRound, g.PointLimit)
	if g.Over() {
		title += " · game over"
	}
	fmt.Fprintln(w, headerStyle.Render(title))

	rows := [][]string{{"#", "Player", "Total", "Rounds"}}
	for _, s := range g.Ranking() {
		var history []string
		for _, score := range g.Players[s.Player].Scores {
			history = append(history, strconv.Itoa(score))
		}

		name := s.Name
		if s.Position == 1 && g.Over() {
			name = winnerStyle.Render(name)
		}

		rows = append(rows, []string{
			strconv.Itoa(s.Position),
			name,
			strconv.Itoa(s.Total),
			strings.Join(history, " → "),
		})
	}

	fmt.Fprint(w, renderTable(rows))
}

func newGamesCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "games",
		Short: "List saved games, newest first.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGames(cmd.Context(), cfg, func(games *storage.Games) error {
				list, err := games.List(cmd.Context())
				if err != nil {
					return err
				}

				printGames(cmd.OutOrStdout(), list)

				return nil
			})
		},
	}
}

func newRankingCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "ranking <game id>",
		Short: "Show the standings of a saved game, lowest total first.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid game id: %q", args[0])
			}

			return withGames(cmd.Context(), cfg, func(games *storage.Games) error {
				g, err := games.Get(cmd.Context(), id)
				if err != nil {
					return err
				}

				printRanking(cmd.OutOrStdout(), g)

				return nil
			})
		},
	}
}
