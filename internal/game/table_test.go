package game

import "testing"

func TestStandardTableGeometry(t *testing.T) {
	table := NewStandardTable()

	want := Rect{MinX: 40, MinY: 40, MaxX: 960, MaxY: 620}
	if table.Bounds != want {
		t.Errorf("bounds = %+v, want %+v", table.Bounds, want)
	}
	if len(table.Pockets) != 6 {
		t.Fatalf("got %d pockets, want 6", len(table.Pockets))
	}
	for _, pk := range table.Pockets {
		if pk.Radius != PocketRadius {
			t.Errorf("pocket %d radius = %v", pk.ID, pk.Radius)
		}
	}
	if got := table.BallBounds(); got != want.Inset(BallRadius) {
		t.Errorf("ball bounds = %+v", got)
	}
}

func TestPocketContainment(t *testing.T) {
	table := NewStandardTable()

	for _, pk := range table.Pockets {
		b := &Ball{ID: 1, Position: pk.Position, Active: true}
		if !table.IsPocketed(b) {
			t.Errorf("ball at center of pocket %d not pocketed", pk.ID)
		}
	}

	cases := []struct {
		name string
		pos  Vec2
		want bool
	}{
		{"table center", NewVec2(500, 330), false},
		{"wedged in corner", NewVec2(60, 60), true},
		{"against top rail off the middle pocket", NewVec2(560, 60), false},
		{"just outside radius", NewVec2(40+PocketRadius+0.01, 40), false},
		{"on the radius", NewVec2(500, 40+PocketRadius), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := table.IsPocketed(&Ball{Position: tc.pos})
			if got != tc.want {
				t.Errorf("IsPocketed(%v) = %v, want %v", tc.pos, got, tc.want)
			}
		})
	}
}

func TestRackIsLegal(t *testing.T) {
	table := NewStandardTable()
	rack := StandardRack()

	for id, p := range rack {
		if !table.BallBounds().Contains(p) {
			t.Errorf("ball %d racked outside the table at %v", id, p)
		}
		if _, ok := table.PocketAt(p); ok {
			t.Errorf("ball %d racked inside a pocket", id)
		}
		for other := id + 1; other < NumBalls; other++ {
			if d := p.DistanceTo(rack[other]); d < 2*BallRadius {
				t.Errorf("balls %d and %d overlap (distance %.2f)", id, other, d)
			}
		}
	}
}

func TestGroupOf(t *testing.T) {
	cases := map[int]BallGroup{0: GroupCue, 1: GroupSolids, 7: GroupSolids, 8: GroupEight, 9: GroupStripes, 15: GroupStripes, 16: GroupNone}
	for id, want := range cases {
		if got := GroupOf(id); got != want {
			t.Errorf("GroupOf(%d) = %q, want %q", id, got, want)
		}
	}
	if GroupSolids.Opposite() != GroupStripes || GroupStripes.Opposite() != GroupSolids {
		t.Error("Opposite is not complementary")
	}
	if _, err := NewBall(16, Vec2{}); err == nil {
		t.Error("NewBall accepted id 16")
	}
}
