package game

import "testing"

func TestNewSimulationRacksAllBalls(t *testing.T) {
	s := NewSimulation(DefaultRuleOptions())

	if n := len(s.ActiveBalls()); n != NumBalls {
		t.Fatalf("active = %d, want %d", n, NumBalls)
	}
	rack := StandardRack()
	for id := 0; id < NumBalls; id++ {
		b := s.Ball(id)
		if b.Position != rack[id] || b.Group != GroupOf(id) {
			t.Errorf("ball %d at %v group %q", id, b.Position, b.Group)
		}
	}
	if !s.AllStopped() {
		t.Error("fresh rack is moving")
	}
	if s.Ball(-1) != nil || s.Ball(NumBalls) != nil {
		t.Error("Ball accepted an out-of-range id")
	}
}

func TestScratchRespawnsCueBall(t *testing.T) {
	cue := ballAt(t, CueBallID, 100, 100, 0, 0)
	three := ballAt(t, 3, 700, 400, 0, 0)
	s := NewSimulationWithBalls(DefaultRuleOptions(), cue, three)

	s.Shoot(NewVec2(-600, -600))
	total, _ := s.Settle(MaxSettleTicks, 0)

	if len(total.Pocketed) != 1 || total.Pocketed[0] != CueBallID {
		t.Fatalf("pocketed = %v, want [0]", total.Pocketed)
	}
	if !cue.Active || cue.Position != NewVec2(100, 100) || !cue.Velocity.IsZero() {
		t.Errorf("cue ball not respawned: active=%v pos=%v vel=%v", cue.Active, cue.Position, cue.Velocity)
	}
	if s.Rules.CurrentPlayer() != Player2 {
		t.Errorf("current = %d, want 2", s.Rules.CurrentPlayer())
	}
	if f := s.Rules.LastFoul(); f == nil || f.Type != FoulScratch {
		t.Errorf("foul = %+v, want scratch", f)
	}
}

func TestPocketedObjectBallLeavesTable(t *testing.T) {
	cue := ballAt(t, CueBallID, 500, 300, 0, 0)
	two := ballAt(t, 2, 508, 95, 0, 0)
	s := NewSimulationWithBalls(DefaultRuleOptions(), cue, two)

	s.Shoot(NewVec2(0, -600))
	total, _ := s.Settle(MaxSettleTicks, 0)

	if len(total.Pocketed) != 1 || total.Pocketed[0] != 2 {
		t.Fatalf("pocketed = %v, want [2]", total.Pocketed)
	}
	if two.Active {
		t.Error("pocketed object ball is still active")
	}
	if len(s.ActiveBalls()) != 1 {
		t.Errorf("active = %d, want only the cue ball", len(s.ActiveBalls()))
	}
	if s.Rules.Group(Player1) != GroupSolids || s.Rules.CurrentPlayer() != Player1 {
		t.Errorf("group=%q current=%d, want SOLIDS and player 1", s.Rules.Group(Player1), s.Rules.CurrentPlayer())
	}

	var ballContact, pocket bool
	for _, c := range total.Collisions {
		switch c.Type {
		case "ball":
			ballContact = ballContact || (c.BallID == CueBallID && c.TargetID == 2)
		case "pocket":
			pocket = pocket || (c.BallID == 2 && c.TargetID == 1)
		}
	}
	if !ballContact || !pocket {
		t.Errorf("collisions missing cue contact (%v) or middle pocket (%v)", ballContact, pocket)
	}
}

func TestPlaceCueBall(t *testing.T) {
	s := NewSimulation(DefaultRuleOptions())

	if err := s.PlaceCueBall(NewVec2(10, 10)); err != ErrOutOfBounds {
		t.Errorf("outside table: err = %v", err)
	}
	if err := s.PlaceCueBall(NewVec2(500, 60)); err != ErrOutOfBounds {
		t.Errorf("in pocket: err = %v", err)
	}
	if err := s.PlaceCueBall(StandardRack()[1].Plus(NewVec2(-10, 0))); err != ErrOverlap {
		t.Errorf("overlap: err = %v", err)
	}
	if err := s.PlaceCueBall(NewVec2(300, 500)); err != nil {
		t.Fatalf("legal spot: %v", err)
	}
	if s.CueBall().Position != NewVec2(300, 500) {
		t.Errorf("cue ball at %v", s.CueBall().Position)
	}
}

func TestSettleSamplesFrames(t *testing.T) {
	s := NewSimulation(DefaultRuleOptions())
	s.Shoot(NewVec2(800, 5))

	_, frames := s.Settle(MaxSettleTicks, 4)
	if len(frames) < 2 {
		t.Fatalf("got %d frames", len(frames))
	}
	if frames[0].Tick != 1 {
		t.Errorf("first frame at tick %d, want 1", frames[0].Tick)
	}
	if last := frames[len(frames)-1]; last.Tick != s.Ticks() {
		t.Errorf("last frame at tick %d, want %d", last.Tick, s.Ticks())
	}
	for _, f := range frames {
		for _, b := range f.Balls {
			if !b.Active {
				t.Fatalf("frame %d has inactive ball %d", f.Tick, b.ID)
			}
		}
	}
}

func TestBreakShotSettles(t *testing.T) {
	s := NewSimulation(DefaultRuleOptions())
	s.Shoot(FromAngle(0.01, MaxPower))

	total, _ := s.Settle(MaxSettleTicks, 0)

	if !s.AllStopped() {
		t.Fatalf("table still moving after %d ticks", s.Ticks())
	}
	if s.Ticks() >= MaxSettleTicks {
		t.Errorf("settle hit the tick cap")
	}
	if s.Rules.Phase() != PhaseEvaluated {
		t.Errorf("phase = %v, want EVALUATED", s.Rules.Phase())
	}

	inner := s.Table.BallBounds()
	for _, b := range s.ActiveBalls() {
		if !inner.Contains(b.Position) {
			t.Errorf("ball %d resting outside the table at %v", b.ID, b.Position)
		}
	}

	removed := 0
	for _, id := range total.Pocketed {
		if id != CueBallID {
			removed++
		}
	}
	if got := len(s.ActiveBalls()); got != NumBalls-removed {
		t.Errorf("active = %d, want %d", got, NumBalls-removed)
	}
}
