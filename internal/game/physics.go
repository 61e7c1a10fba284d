package game

import "math"

// CollisionEvent records a contact for rule checking and client playback.
type CollisionEvent struct {
	Type     string  `json:"type"` // "ball", "cushion", "pocket"
	BallID   int     `json:"ball_id"`
	TargetID int     `json:"target_id"` // other ball id or pocket id; -1 for cushions
	Speed    float64 `json:"speed"`     // impact speed
}

// Integrate advances one ball by dt seconds inside bounds.
//
// The step reflects each axis independently when the tentative position would
// push the ball edge past the rails, decays velocity by FrictionBase per
// 1/FrictionReferenceRate seconds, and moves the ball twice: once before the
// stop clamp and once after. It returns true if the ball bounced.
func Integrate(b *Ball, dt float64, bounds Rect) bool {
	bounced := false
	next := b.Position.Plus(b.Velocity.Times(dt))

	if next.X-BallRadius < bounds.MinX || next.X+BallRadius > bounds.MaxX {
		b.Velocity.X = -b.Velocity.X
		bounced = true
	}
	if next.Y-BallRadius < bounds.MinY || next.Y+BallRadius > bounds.MaxY {
		b.Velocity.Y = -b.Velocity.Y
		bounced = true
	}

	b.Velocity = b.Velocity.Times(math.Pow(FrictionBase, dt*FrictionReferenceRate))
	b.Position = b.Position.Plus(b.Velocity.Times(dt))

	if b.Velocity.Magnitude() < MinVelocity {
		b.Velocity = Vec2{}
	}
	b.Position = b.Position.Plus(b.Velocity.Times(dt))

	b.Position = clampInto(b.Position, bounds.Inset(BallRadius))
	return bounced
}

func clampInto(p Vec2, r Rect) Vec2 {
	return Vec2{
		X: math.Max(r.MinX, math.Min(r.MaxX, p.X)),
		Y: math.Max(r.MinY, math.Min(r.MaxY, p.Y)),
	}
}

// ResolvePair resolves an overlap between two equal balls with an elastic
// impulse along the line of centers. Tangential velocity is untouched.
//
// It reports whether the balls were in contact. Coincident centers are a
// no-op, and balls that are already separating keep their velocities.
func ResolvePair(a, b *Ball) (contact bool, impulse float64) {
	direction := b.Position.Minus(a.Position)
	distance := direction.Magnitude()

	if distance >= 2*BallRadius || distance == 0 {
		return false, 0
	}
	direction = direction.Times(1 / distance)

	relative := b.Velocity.Minus(a.Velocity)
	closing := relative.Dot(direction)
	if closing >= 0 {
		return true, 0
	}

	impulse = 2 * closing / (1/BallRadius + 1/BallRadius)
	push := direction.Times(impulse / BallRadius)
	a.Velocity = a.Velocity.Plus(push)
	b.Velocity = b.Velocity.Minus(push)
	return true, math.Abs(impulse)
}

// ResolveCollisions checks every unordered pair of active balls once and
// returns a "ball" event for every pair in contact.
func ResolveCollisions(balls []*Ball) []CollisionEvent {
	var events []CollisionEvent
	for i := 0; i < len(balls); i++ {
		a := balls[i]
		if a == nil || !a.Active {
			continue
		}
		for j := i + 1; j < len(balls); j++ {
			b := balls[j]
			if b == nil || !b.Active {
				continue
			}
			contact, impulse := ResolvePair(a, b)
			if !contact {
				continue
			}
			events = append(events, CollisionEvent{
				Type:     "ball",
				BallID:   a.ID,
				TargetID: b.ID,
				Speed:    impulse / BallRadius,
			})
		}
	}
	return events
}
