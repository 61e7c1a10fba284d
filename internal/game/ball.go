package game

import "fmt"

// BallGroup is the group a ball belongs to, and the group a player is assigned.
type BallGroup string

const (
	GroupNone    BallGroup = "" // player not yet assigned
	GroupCue     BallGroup = "CUE"
	GroupSolids  BallGroup = "SOLIDS"
	GroupStripes BallGroup = "STRIPES"
	GroupEight   BallGroup = "EIGHT"
)

// Opposite returns the complementary object-ball group.
func (g BallGroup) Opposite() BallGroup {
	switch g {
	case GroupSolids:
		return GroupStripes
	case GroupStripes:
		return GroupSolids
	}
	return GroupNone
}

// IsObject reports whether g is one of the two assignable groups.
func (g BallGroup) IsObject() bool {
	return g == GroupSolids || g == GroupStripes
}

// GroupOf maps a ball id to its group.
func GroupOf(id int) BallGroup {
	switch {
	case id == CueBallID:
		return GroupCue
	case id == EightBallID:
		return GroupEight
	case id >= 1 && id <= 7:
		return GroupSolids
	case id >= 9 && id <= 15:
		return GroupStripes
	}
	return GroupNone
}

// Ball is a single ball on the table. ID and Group never change after construction.
type Ball struct {
	ID       int       `json:"id"`
	Group    BallGroup `json:"group"`
	Position Vec2      `json:"position"`
	Velocity Vec2      `json:"velocity"`
	Active   bool      `json:"active"`

	spawn Vec2 // rack position, used to respawn the cue ball
}

// NewBall creates an active ball at rest at position.
func NewBall(id int, position Vec2) (*Ball, error) {
	if id < 0 || id >= NumBalls {
		return nil, fmt.Errorf("ball id %d out of range", id)
	}
	return &Ball{
		ID:       id,
		Group:    GroupOf(id),
		Position: position,
		Active:   true,
		spawn:    position,
	}, nil
}

func (b *Ball) Speed() float64 {
	return b.Velocity.Magnitude()
}

// IsMoving reports whether the ball is above the stop threshold.
func (b *Ball) IsMoving() bool {
	return b.Speed() >= MinVelocity
}

// ApplyForce adds an impulse directly to the velocity.
func (b *Ball) ApplyForce(force Vec2) {
	b.Velocity = b.Velocity.Plus(force)
}

// Respawn puts the ball back on its rack position at rest.
func (b *Ball) Respawn() {
	b.Position = b.spawn
	b.Velocity = Vec2{}
	b.Active = true
}
