/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package papayoo holds the scoring rules of the Papayoo card game: the card
// pool for a given number of decks, round validation and the running totals
// of a game.
package papayoo

import "fmt"

const (
	MinDecks = 1
	MaxDecks = 4

	// Cards numbered 1 through CardsPerDeck in every deck.
	CardsPerDeck = 20

	// Papayoo cards always score this many points.
	PapayooPoints = 40

	// Nominal value printed on a Papayoo card.
	PapayooFace = 7

	// Official points of a single deck.
	PointsPerDeck = 250

	papayooSuit = "papayo"
)

type Card struct {
	ID        string `json:"id"`
	Value     int    `json:"value"`
	IsPapayoo bool   `json:"isPapayo"`
	Suit      string `json:"suit,omitempty"`
}

type Deck struct {
	ID    string `json:"id"`
	Cards []Card `json:"cards"`
}

// Points returns the score of the card: face value, or PapayooPoints for a Papayoo.
func (c Card) Points() int {
	if c.IsPapayoo {
		return PapayooPoints
	}

	return c.Value
}

// NewDeck builds deck number deckIndex of a game played with totalDecks decks.
// The totalDecks² Papayoo cards of the game are split evenly across decks.
func NewDeck(deckIndex, totalDecks int) Deck {
	papayoos := 0
	if totalDecks > 0 {
		papayoos = totalDecks * totalDecks / totalDecks
	}

	cards := make([]Card, 0, CardsPerDeck+papayoos)

	for value := 1; value <= CardsPerDeck; value++ {
		cards = append(cards, Card{
			ID:    fmt.Sprintf("deck%d-normal-%d", deckIndex, value),
			Value: value,
		})
	}

	for i := 0; i < papayoos; i++ {
		cards = append(cards, Card{
			ID:        fmt.Sprintf("deck%d-papayo-%d", deckIndex, i),
			Value:     PapayooFace,
			IsPapayoo: true,
			Suit:      papayooSuit,
		})
	}

	return Deck{
		ID:    fmt.Sprintf("deck-%d", deckIndex),
		Cards: cards,
	}
}

// NewPool returns every deck of a game and the flattened list of their cards.
func NewPool(deckCount int) ([]Deck, []Card) {
	decks := make([]Deck, 0, deckCount)
	cards := make([]Card, 0, deckCount*(CardsPerDeck+deckCount))

	for i := 0; i < deckCount; i++ {
		deck := NewDeck(i, deckCount)
		decks = append(decks, deck)
		cards = append(cards, deck.Cards...)
	}

	return decks, cards
}

func PoolTotal(cards []Card) int {
	total := 0
	for _, c := range cards {
		total += c.Points()
	}

	return total
}

// CountOf reports how many cards in the pool match the selection.
func CountOf(cards []Card, sel Selection) int {
	n := 0
	for _, c := range cards {
		if sel.matches(c) {
			n++
		}
	}

	return n
}
