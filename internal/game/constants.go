package game

// Table geometry and physics constants. Coordinates are table-relative with the
// origin at the outer top-left corner of the frame and +y pointing down.

const (
	TableWidth  = 1000.0
	TableHeight = 660.0
	TableBorder = 40.0

	BallRadius   = 20.0
	PocketRadius = 30.0 // larger than BallRadius*sqrt(2) so a ball wedged in a corner drops

	FrictionBase          = 0.99  // velocity kept per reference step
	FrictionReferenceRate = 120.0 // reference steps per second
	MinVelocity           = 5.0   // below this speed a ball is snapped to rest

	MaxPower       = 1500.0
	FixedStep      = 1.0 / 120.0
	MaxSettleTicks = 120 * 60
	NumBalls       = 16 // 0=cue, 1-7=solids, 8=eight, 9-15=stripes

	CueBallID   = 0
	EightBallID = 8
)
