/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/papayoo/papayoo"
)

func TestPrintGames(t *testing.T) {
	var buf bytes.Buffer
	printGames(&buf, nil)
	assert.Contains(t, buf.String(), "No saved games.")

	g, err := papayoo.New(papayoo.Options{
		Name:       "Friday",
		DeckCount:  2,
		Players:    []string{"Ana", "Bo", "Cy", "Di"},
		PointLimit: 500,
		Now:        time.Date(2026, 10, 16, 20, 0, 0, 0, time.Local),
	})
	require.NoError(t, err)

	buf.Reset()
	printGames(&buf, []*papayoo.Game{g})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Status")
	assert.Contains(t, lines[1], "Friday")
	assert.Contains(t, lines[1], "2026-10-16")
	assert.Contains(t, lines[1], "playing")
}

func TestPrintRanking(t *testing.T) {
	g, err := papayoo.New(papayoo.Options{
		Name:       "Friday",
		DeckCount:  1,
		Players:    []string{"Ana", "Bo", "Cy"},
		PointLimit: 300,
	})
	require.NoError(t, err)

	for range 2 {
		d := papayoo.Draft{}
		for player, hand := range fullHands() {
			for _, sel := range hand {
				if sel.IsPapayoo {
					sel.Value = papayoo.PapayooFace
				}
				d.Add(player, sel)
			}
		}
		_, err := g.EndRound(d, papayoo.TotalPool)
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	printRanking(&buf, g)

	out := buf.String()
	assert.Contains(t, out, "game over")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[2], "Cy")
	assert.Contains(t, lines[2], "40 → 40")
	assert.Contains(t, lines[4], "Bo")
	assert.Contains(t, lines[4], "310")
}

func TestRenderTableAligns(t *testing.T) {
	out := renderTable([][]string{{"A", "B"}, {"long value", "x"}})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Index(lines[0], "B"), strings.Index(lines[1], "x"))
	assert.Empty(t, renderTable(nil))
}
