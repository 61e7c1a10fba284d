package game

// TickResult is what one Tick produced.
type TickResult struct {
	Pocketed   []int            `json:"pocketed,omitempty"`
	Collisions []CollisionEvent `json:"collisions,omitempty"`
	Events     []Event          `json:"events,omitempty"`
}

// Simulation owns the balls, the table and the rule engine of one match and
// advances them one tick at a time. It is not safe for concurrent use.
type Simulation struct {
	Table *Table
	Rules *RuleEngine

	balls [NumBalls]*Ball
	ticks int
}

// NewSimulation racks every ball on a standard table.
func NewSimulation(opts RuleOptions) *Simulation {
	s := &Simulation{
		Table: NewStandardTable(),
		Rules: NewRuleEngine(opts),
	}
	for id, pos := range StandardRack() {
		b, err := NewBall(id, pos)
		if err != nil {
			panic(err)
		}
		s.balls[id] = b
	}
	return s
}

// NewSimulationWithBalls builds a simulation from explicit balls. Ids missing
// from balls are off the table.
func NewSimulationWithBalls(opts RuleOptions, balls ...*Ball) *Simulation {
	s := &Simulation{
		Table: NewStandardTable(),
		Rules: NewRuleEngine(opts),
	}
	for _, b := range balls {
		if b != nil && b.ID >= 0 && b.ID < NumBalls {
			s.balls[b.ID] = b
		}
	}
	return s
}

// Ball returns the ball with id, or nil if it was never racked.
func (s *Simulation) Ball(id int) *Ball {
	if id < 0 || id >= NumBalls {
		return nil
	}
	return s.balls[id]
}

func (s *Simulation) CueBall() *Ball {
	return s.balls[CueBallID]
}

// Ticks is the number of ticks simulated so far.
func (s *Simulation) Ticks() int {
	return s.ticks
}

// ActiveBalls returns the balls still in play, ordered by id.
func (s *Simulation) ActiveBalls() []*Ball {
	out := make([]*Ball, 0, NumBalls)
	for _, b := range s.balls {
		if b != nil && b.Active {
			out = append(out, b)
		}
	}
	return out
}

// AllStopped returns true if every active ball is at rest.
func (s *Simulation) AllStopped() bool {
	for _, b := range s.balls {
		if b != nil && b.Active && !b.Velocity.IsZero() {
			return false
		}
	}
	return true
}

// Shoot strikes the cue ball with impulse and opens a new turn.
func (s *Simulation) Shoot(impulse Vec2) {
	cue := s.CueBall()
	if cue == nil {
		return
	}
	cue.ApplyForce(impulse)
	s.Rules.BeginShot()
}

// Tick advances the table by dt seconds: integrate every ball, resolve
// overlapping pairs, take pocketed balls off the table, then feed the rule
// engine.
func (s *Simulation) Tick(dt float64) TickResult {
	s.ticks++
	var res TickResult

	bounds := s.Table.Bounds
	for _, b := range s.balls {
		if b == nil || !b.Active {
			continue
		}
		if Integrate(b, dt, bounds) {
			res.Collisions = append(res.Collisions, CollisionEvent{Type: "cushion", BallID: b.ID, TargetID: -1, Speed: b.Speed()})
		}
	}

	contacts := ResolveCollisions(s.balls[:])
	res.Collisions = append(res.Collisions, contacts...)

	var cueContacts []int
	for _, c := range contacts {
		if c.BallID == CueBallID {
			cueContacts = append(cueContacts, c.TargetID)
		} else if c.TargetID == CueBallID {
			cueContacts = append(cueContacts, c.BallID)
		}
	}

	// Snapshot first, then remove, so removals never disturb the scan.
	for _, b := range s.balls {
		if b == nil || !b.Active {
			continue
		}
		if pk, ok := s.Table.PocketAt(b.Position); ok {
			res.Pocketed = append(res.Pocketed, b.ID)
			res.Collisions = append(res.Collisions, CollisionEvent{Type: "pocket", BallID: b.ID, TargetID: pk.ID, Speed: b.Speed()})
		}
	}
	for _, id := range res.Pocketed {
		b := s.balls[id]
		if id == CueBallID {
			b.Respawn()
			continue
		}
		b.Active = false
		b.Velocity = Vec2{}
	}

	var cueSpeed float64
	if cue := s.CueBall(); cue != nil && cue.Active {
		cueSpeed = cue.Speed()
	}
	res.Events = s.Rules.Apply(TickReport{
		Pocketed:    res.Pocketed,
		CueContacts: cueContacts,
		CueSpeed:    cueSpeed,
	})
	return res
}

// PlaceCueBall moves the cue ball to p at rest if p is a legal spot.
func (s *Simulation) PlaceCueBall(p Vec2) error {
	if !s.Table.BallBounds().Contains(p) {
		return ErrOutOfBounds
	}
	if _, ok := s.Table.PocketAt(p); ok {
		return ErrOutOfBounds
	}
	for _, b := range s.balls {
		if b == nil || !b.Active || b.ID == CueBallID {
			continue
		}
		if b.Position.DistanceTo(p) < 2*BallRadius {
			return ErrOverlap
		}
	}
	cue := s.CueBall()
	cue.Position = p
	cue.Velocity = Vec2{}
	cue.Active = true
	return nil
}

// BallState is a ball's serialized state.
type BallState struct {
	ID     int       `json:"id"`
	Group  BallGroup `json:"group"`
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	VX     float64   `json:"vx"`
	VY     float64   `json:"vy"`
	Active bool      `json:"active"`
}

// Frame is the table at one tick, for playback.
type Frame struct {
	Tick  int         `json:"tick"`
	Balls []BallState `json:"balls"`
}

// BallStates returns the state of every racked ball, ordered by id.
func (s *Simulation) BallStates() []BallState {
	out := make([]BallState, 0, NumBalls)
	for _, b := range s.balls {
		if b == nil {
			continue
		}
		out = append(out, BallState{
			ID:     b.ID,
			Group:  b.Group,
			X:      b.Position.X,
			Y:      b.Position.Y,
			VX:     b.Velocity.X,
			VY:     b.Velocity.Y,
			Active: b.Active,
		})
	}
	return out
}

// Frame captures the active balls at the current tick.
func (s *Simulation) Frame() Frame {
	states := s.BallStates()
	active := states[:0]
	for _, st := range states {
		if st.Active {
			active = append(active, st)
		}
	}
	return Frame{Tick: s.ticks, Balls: active}
}

// Settle ticks with FixedStep until every ball rests or maxTicks elapse.
// When sampleEvery > 0 a frame is captured every sampleEvery ticks plus the
// final one.
func (s *Simulation) Settle(maxTicks, sampleEvery int) (TickResult, []Frame) {
	var total TickResult
	var frames []Frame
	for i := 0; i < maxTicks; i++ {
		res := s.Tick(FixedStep)
		total.Pocketed = append(total.Pocketed, res.Pocketed...)
		total.Collisions = append(total.Collisions, res.Collisions...)
		total.Events = append(total.Events, res.Events...)
		if sampleEvery > 0 && i%sampleEvery == 0 {
			frames = append(frames, s.Frame())
		}
		if s.AllStopped() && s.Rules.Phase() == PhaseEvaluated {
			break
		}
	}
	if sampleEvery > 0 {
		frames = append(frames, s.Frame())
	}
	return total, frames
}
