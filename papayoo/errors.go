/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package papayoo

import (
	"errors"
	"fmt"
)

var (
	ErrCardUnavailable = errors.New("card not available")
	ErrEmptyRound      = errors.New("no scores selected")
	ErrGameOver        = errors.New("game is over")
	ErrInvalidConfig   = errors.New("invalid game configuration")
	ErrNoRounds        = errors.New("no rounds to undo")
	ErrRoundTotal      = errors.New("invalid round total")
	ErrUnknownPlayer   = errors.New("unknown player")
)

// RoundTotalError is returned when the selected cards of a round do not add
// up to the expected total.
type RoundTotalError struct {
	Expected int
	Actual   int
}

func (e *RoundTotalError) Error() string {
	return fmt.Sprintf("the total round score must equal %d points (got %d)", e.Expected, e.Actual)
}

func (e *RoundTotalError) Is(target error) bool {
	return target == ErrRoundTotal
}
