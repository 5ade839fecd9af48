/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package papayoo

import (
	"fmt"
	"slices"
)

// Selection is a card a player took during a round. A non-Papayoo selection
// with value 0 records that the player took nothing.
type Selection struct {
	Value     int  `json:"value"`
	IsPapayoo bool `json:"isPapayo"`
}

func (s Selection) Points() int {
	if s.IsPapayoo {
		return PapayooPoints
	}

	return s.Value
}

func (s Selection) matches(c Card) bool {
	if s.IsPapayoo {
		return c.IsPapayoo
	}

	return !c.IsPapayoo && c.Value == s.Value
}

func (s Selection) String() string {
	if s.IsPapayoo {
		return fmt.Sprintf("Papayoo (%d)", PapayooPoints)
	}

	return fmt.Sprintf("%d", s.Value)
}

func HandScore(hand []Selection) int {
	sum := 0
	for _, s := range hand {
		sum += s.Points()
	}

	return sum
}

// RoundTotalMode selects the total a round has to add up to.
type RoundTotalMode string

const (
	// TotalNominal expects PointsPerDeck for every deck in play. This is
	// the default.
	TotalNominal RoundTotalMode = "nominal"
	// TotalPool expects the sum of every card in the game's pool, which
	// exceeds TotalNominal once more than one deck is used.
	TotalPool RoundTotalMode = "pool"
)

func ParseRoundTotalMode(s string) (RoundTotalMode, error) {
	switch m := RoundTotalMode(s); m {
	case TotalPool, TotalNominal:
		return m, nil
	case "":
		return TotalNominal, nil
	default:
		return "", fmt.Errorf("invalid round total mode (must be %q or %q): %q", TotalPool, TotalNominal, s)
	}
}

// Draft holds the cards selected so far in the current round, keyed by
// player index.
type Draft map[int][]Selection

func (d Draft) Add(player int, sel Selection) {
	d[player] = append(d[player], sel)
}

// UndoLast drops the most recent selection of a player.
func (d Draft) UndoLast(player int) bool {
	hand := d[player]
	if len(hand) == 0 {
		return false
	}

	d[player] = hand[:len(hand)-1]

	return true
}

func (d Draft) Clear(player int) {
	delete(d, player)
}

func (d Draft) Empty() bool {
	return len(d) == 0
}

func (d Draft) Points() int {
	sum := 0
	for _, hand := range d {
		sum += HandScore(hand)
	}

	return sum
}

// Count returns how many times a card matching sel was selected across all
// players.
func (d Draft) Count(sel Selection) int {
	n := 0
	for _, hand := range d {
		for _, s := range hand {
			if s.IsPapayoo == sel.IsPapayoo && (s.IsPapayoo || s.Value == sel.Value) {
				n++
			}
		}
	}

	return n
}

// Scores returns the round score of each of the players.
func (d Draft) Scores(players int) []int {
	scores := make([]int, players)
	for i := range scores {
		scores[i] = HandScore(d[i])
	}

	return scores
}

func (d Draft) Clone() Draft {
	out := make(Draft, len(d))
	for k, v := range d {
		out[k] = slices.Clone(v)
	}

	return out
}

// PapayooInfo reports selected and total Papayoo cards.
type PapayooInfo struct {
	Selected int `json:"selected"`
	Total    int `json:"total"`
}

// ExpectedRoundTotal is the total the players' round scores must add up to.
func (g *Game) ExpectedRoundTotal(mode RoundTotalMode) int {
	if mode == TotalNominal {
		deckCount := g.DeckCount
		if deckCount == 0 {
			deckCount = 1
		}

		return deckCount * PointsPerDeck
	}

	return PoolTotal(g.AvailableCards)
}

func (g *Game) Remaining(d Draft, mode RoundTotalMode) int {
	return g.ExpectedRoundTotal(mode) - d.Points()
}

// Available reports whether another copy of sel can still be handed out in
// this round.
func (g *Game) Available(d Draft, sel Selection) bool {
	if !sel.IsPapayoo && sel.Value == 0 {
		return true
	}

	pool := CountOf(g.AvailableCards, sel)
	if pool == 0 {
		return false
	}

	return d.Count(sel) < pool
}

// Availability maps every card value 1..CardsPerDeck to whether it can still
// be selected.
func (g *Game) Availability(d Draft) map[int]bool {
	out := make(map[int]bool, CardsPerDeck)
	for v := 1; v <= CardsPerDeck; v++ {
		out[v] = g.Available(d, Selection{Value: v})
	}

	return out
}

func (g *Game) Papayoos(d Draft) PapayooInfo {
	return PapayooInfo{
		Selected: d.Count(Selection{IsPapayoo: true}),
		Total:    CountOf(g.AvailableCards, Selection{IsPapayoo: true}),
	}
}

// CanSelect checks that player exists and that sel is still available.
func (g *Game) CanSelect(d Draft, player int, sel Selection) error {
	if player < 0 || player >= len(g.Players) {
		return fmt.Errorf("%w: no player %d", ErrUnknownPlayer, player)
	}

	if sel.Value < 0 || (!sel.IsPapayoo && sel.Value > CardsPerDeck) {
		return fmt.Errorf("%w: %s", ErrCardUnavailable, sel)
	}

	if !g.Available(d, sel) {
		return fmt.Errorf("%w: %s", ErrCardUnavailable, sel)
	}

	return nil
}

// ValidateRound checks a complete draft before it is recorded.
func (g *Game) ValidateRound(d Draft, mode RoundTotalMode) error {
	if d.Empty() {
		return ErrEmptyRound
	}

	check := make(Draft, len(d))
	for player, hand := range d {
		for _, sel := range hand {
			if err := g.CanSelect(check, player, sel); err != nil {
				return err
			}
			check.Add(player, sel)
		}
	}

	expected := g.ExpectedRoundTotal(mode)
	if actual := d.Points(); actual != expected {
		return &RoundTotalError{Expected: expected, Actual: actual}
	}

	return nil
}
