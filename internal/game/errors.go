package game

import "errors"

var (
	ErrMatchNotFound     = errors.New("match not found")
	ErrNotInProgress     = errors.New("match is not in progress")
	ErrNotYourTurn       = errors.New("not your turn")
	ErrNotSeated         = errors.New("player is not seated in this match")
	ErrInvalidPower      = errors.New("invalid power")
	ErrBallsMoving       = errors.New("balls are still moving")
	ErrNotBallInHand     = errors.New("not ball-in-hand")
	ErrOutOfBounds       = errors.New("position out of bounds")
	ErrOverlap           = errors.New("overlapping with another ball")
	ErrInvalidOption     = errors.New("invalid rule option")
	ErrAlreadyInProgress = errors.New("match already initialized")
	ErrArchiveDisabled   = errors.New("match archive is not configured")
)
