package game

import (
	"errors"
	"testing"
)

// shot runs one turn on r: the strike, one tick of motion with the given
// contacts and pockets, then the tick where the cue ball stops.
func shot(r *RuleEngine, contacts []int, pocketed ...int) {
	r.BeginShot()
	r.Apply(TickReport{CueSpeed: 300, CueContacts: contacts, Pocketed: pocketed})
	r.Apply(TickReport{CueSpeed: 0})
}

func hasEvent(events []Event, kind EventKind) bool {
	for _, ev := range events {
		if ev.Kind == kind {
			return true
		}
	}
	return false
}

func TestNewRuleEngine(t *testing.T) {
	r := NewRuleEngine(RuleOptions{})

	if r.CurrentPlayer() != Player1 {
		t.Errorf("current player = %d, want 1", r.CurrentPlayer())
	}
	if r.Phase() != PhaseEvaluated {
		t.Errorf("phase = %v, want EVALUATED", r.Phase())
	}
	if r.GameOver() || r.Winner() != 0 {
		t.Error("fresh engine is over")
	}
	if r.Options() != DefaultRuleOptions() {
		t.Errorf("options = %+v, want defaults", r.Options())
	}
}

func TestTurnTransitionAssignsGroups(t *testing.T) {
	r := NewRuleEngine(DefaultRuleOptions())

	shot(r, []int{3}, 3)

	if g := r.Group(Player1); g != GroupSolids {
		t.Errorf("player 1 group = %q, want SOLIDS", g)
	}
	if g := r.Group(Player2); g != GroupStripes {
		t.Errorf("player 2 group = %q, want STRIPES", g)
	}
	if r.CurrentPlayer() != Player1 {
		t.Errorf("player 1 should keep the turn, current = %d", r.CurrentPlayer())
	}
	if score := r.Score(Player1); len(score) != 1 || score[0] != 3 {
		t.Errorf("player 1 score = %v, want [3]", score)
	}
	if r.LastFoul() != nil {
		t.Errorf("unexpected foul %+v", r.LastFoul())
	}
	if !hasEvent(r.Events(), EventGroupAssigned) || !hasEvent(r.Events(), EventTurnKept) {
		t.Errorf("missing group_assigned/turn_kept in %+v", r.Events())
	}
}

func TestWrongGroupPocketPassesTurnImmediately(t *testing.T) {
	r := NewRuleEngine(DefaultRuleOptions())
	shot(r, []int{3}, 3) // player 1 takes solids

	r.BeginShot()
	r.Apply(TickReport{CueSpeed: 300, CueContacts: []int{1}, Pocketed: []int{10}})
	if r.CurrentPlayer() != Player2 {
		t.Fatalf("turn should pass at once, current = %d", r.CurrentPlayer())
	}
	r.Apply(TickReport{CueSpeed: 0})

	if r.CurrentPlayer() != Player2 {
		t.Errorf("stop evaluation changed the turn back, current = %d", r.CurrentPlayer())
	}
	if score := r.Score(Player2); len(score) != 1 || score[0] != 10 {
		t.Errorf("player 2 score = %v, want [10]", score)
	}
	if score := r.Score(Player1); len(score) != 1 {
		t.Errorf("player 1 score = %v, want only [3]", score)
	}
}

func TestNoContactFoul(t *testing.T) {
	r := NewRuleEngine(DefaultRuleOptions())

	shot(r, nil)

	if r.CurrentPlayer() != Player2 {
		t.Errorf("current = %d, want 2", r.CurrentPlayer())
	}
	if f := r.LastFoul(); f == nil || f.Type != FoulNoContact {
		t.Errorf("foul = %+v, want no_contact", f)
	}
	if r.BallInHand() {
		t.Error("turn policy should not grant ball-in-hand")
	}
	if r.Phase() != PhaseEvaluated {
		t.Errorf("phase = %v, want EVALUATED", r.Phase())
	}
}

func TestCleanMissPassesTurnWithoutFoul(t *testing.T) {
	r := NewRuleEngine(DefaultRuleOptions())

	shot(r, []int{5})

	if r.CurrentPlayer() != Player2 {
		t.Errorf("current = %d, want 2", r.CurrentPlayer())
	}
	if r.LastFoul() != nil {
		t.Errorf("unexpected foul %+v", r.LastFoul())
	}
}

func TestWrongGroupContactFoul(t *testing.T) {
	r := NewRuleEngine(DefaultRuleOptions())
	shot(r, []int{3}, 3) // player 1 takes solids

	shot(r, []int{12})

	if f := r.LastFoul(); f == nil || f.Type != FoulWrongContact {
		t.Errorf("foul = %+v, want wrong_group_contact", f)
	}
	if r.CurrentPlayer() != Player2 {
		t.Errorf("current = %d, want 2", r.CurrentPlayer())
	}
}

func TestScratchPassesTurnOnce(t *testing.T) {
	r := NewRuleEngine(DefaultRuleOptions())

	r.BeginShot()
	r.Apply(TickReport{CueSpeed: 300, Pocketed: []int{CueBallID}})
	if r.CurrentPlayer() != Player2 {
		t.Fatalf("scratch should pass the turn at once, current = %d", r.CurrentPlayer())
	}
	if r.Phase() != PhaseEvaluated {
		t.Errorf("phase = %v, want EVALUATED", r.Phase())
	}
	for i := 0; i < 5; i++ {
		r.Apply(TickReport{CueSpeed: 0})
	}

	if r.CurrentPlayer() != Player2 {
		t.Errorf("turn flipped again after the scratch, current = %d", r.CurrentPlayer())
	}
	if f := r.LastFoul(); f == nil || f.Type != FoulScratch {
		t.Errorf("foul = %+v, want scratch", f)
	}
}

func TestBallInHandPolicy(t *testing.T) {
	r := NewRuleEngine(RuleOptions{FoulPolicy: FoulPolicyBallInHand})

	r.BeginShot()
	r.Apply(TickReport{CueSpeed: 300, Pocketed: []int{CueBallID}})
	if !r.BallInHand() {
		t.Fatal("scratch under ball_in_hand should grant ball-in-hand")
	}
	r.ClearBallInHand()
	if r.BallInHand() {
		t.Error("ClearBallInHand did not clear")
	}

	shot(r, nil)
	if !r.BallInHand() {
		t.Error("no-contact foul should grant ball-in-hand")
	}
	r.BeginShot()
	if r.BallInHand() {
		t.Error("a new shot should clear ball-in-hand")
	}
}

func TestEightBallReferenceCreditsOpponent(t *testing.T) {
	r := NewRuleEngine(DefaultRuleOptions())

	r.BeginShot()
	events := r.Apply(TickReport{CueSpeed: 300, CueContacts: []int{8}, Pocketed: []int{EightBallID, 3}})

	if !r.GameOver() || r.Winner() != Player2 {
		t.Fatalf("winner = %d, want 2", r.Winner())
	}
	if !hasEvent(events, EventGameOver) {
		t.Errorf("missing game_over event in %+v", events)
	}
	if len(r.Score(Player1)) != 0 {
		t.Errorf("balls after the eight should not be processed, score = %v", r.Score(Player1))
	}
}

func TestTerminalStateIgnoresFurtherTicks(t *testing.T) {
	r := NewRuleEngine(DefaultRuleOptions())
	shot(r, []int{8}, EightBallID)

	state := r.State()
	logged := len(r.Events())

	if ev := r.Apply(TickReport{CueSpeed: 300, Pocketed: []int{1, 2, CueBallID}}); ev != nil {
		t.Errorf("Apply after game over logged %+v", ev)
	}
	r.Apply(TickReport{CueSpeed: 0})
	r.BeginShot()

	if len(r.Events()) != logged {
		t.Errorf("event log grew after game over")
	}
	after := r.State()
	if after.CurrentPlayer != state.CurrentPlayer || after.Winner != state.Winner ||
		len(after.Player1Score) != len(state.Player1Score) || len(after.Player2Score) != len(state.Player2Score) {
		t.Errorf("state changed after game over: %+v -> %+v", state, after)
	}
}

func clearSolids(r *RuleEngine) {
	r.BeginShot()
	r.Apply(TickReport{CueSpeed: 300, CueContacts: []int{1}, Pocketed: []int{1, 2, 3, 4, 5, 6, 7}})
	r.Apply(TickReport{CueSpeed: 0})
}

func TestClearedGroupShooterWins(t *testing.T) {
	r := NewRuleEngine(RuleOptions{EightBallRule: EightBallClearedGroup})
	clearSolids(r)
	if r.CurrentPlayer() != Player1 {
		t.Fatalf("player 1 should keep the turn, current = %d", r.CurrentPlayer())
	}

	shot(r, []int{8}, EightBallID)

	if r.Winner() != Player1 || r.WinType() != "pocket_eight" {
		t.Errorf("winner = %d (%s), want 1 (pocket_eight)", r.Winner(), r.WinType())
	}
}

func TestClearedGroupEarlyEightLoses(t *testing.T) {
	r := NewRuleEngine(RuleOptions{EightBallRule: EightBallClearedGroup})
	shot(r, []int{3}, 3)

	shot(r, []int{8}, EightBallID)

	if r.Winner() != Player2 {
		t.Errorf("winner = %d, want 2", r.Winner())
	}
	if f := r.LastFoul(); f == nil || f.Type != FoulIllegalEight {
		t.Errorf("foul = %+v, want illegal_eight", f)
	}
}

func TestClearedGroupScratchOnEightLoses(t *testing.T) {
	r := NewRuleEngine(RuleOptions{EightBallRule: EightBallClearedGroup})
	clearSolids(r)

	r.BeginShot()
	r.Apply(TickReport{CueSpeed: 300, CueContacts: []int{8}, Pocketed: []int{CueBallID, EightBallID}})

	if r.Winner() != Player2 {
		t.Errorf("winner = %d, want 2", r.Winner())
	}
}

func TestEightIsLegalTargetOnceGroupCleared(t *testing.T) {
	r := NewRuleEngine(DefaultRuleOptions())
	clearSolids(r)

	shot(r, []int{8})

	if r.LastFoul() != nil {
		t.Errorf("touching the eight with a cleared group is legal, got %+v", r.LastFoul())
	}
	if r.CurrentPlayer() != Player2 {
		t.Errorf("current = %d, want 2", r.CurrentPlayer())
	}
}

func TestMotionWithoutBeginShotStartsTurn(t *testing.T) {
	r := NewRuleEngine(DefaultRuleOptions())

	r.Apply(TickReport{CueSpeed: 300})
	if r.Phase() != PhaseInProgress {
		t.Fatalf("phase = %v, want IN_PROGRESS", r.Phase())
	}
	r.Apply(TickReport{CueSpeed: 1})
	if r.Phase() != PhaseEvaluated || r.CurrentPlayer() != Player2 {
		t.Errorf("phase=%v current=%d, want EVALUATED and 2", r.Phase(), r.CurrentPlayer())
	}
}

func TestForfeit(t *testing.T) {
	r := NewRuleEngine(DefaultRuleOptions())
	r.Forfeit(Player1, "concede")

	if r.Winner() != Player2 || r.WinType() != "concede" {
		t.Errorf("winner = %d (%s)", r.Winner(), r.WinType())
	}
	r.Forfeit(Player2, "disconnect")
	if r.Winner() != Player2 {
		t.Error("second forfeit overrode the winner")
	}
}

func TestEventsSince(t *testing.T) {
	r := NewRuleEngine(DefaultRuleOptions())
	shot(r, nil)
	n := len(r.Events())
	shot(r, []int{4}, 4)

	since := r.EventsSince(n)
	if len(since) == 0 || since[0].Kind != EventShot || since[0].Player != Player2 {
		t.Errorf("EventsSince = %+v", since)
	}
	if r.EventsSince(len(r.Events())) != nil {
		t.Error("EventsSince(len) should be nil")
	}
}

func TestParseOptions(t *testing.T) {
	if p, err := ParseFoulPolicy(""); err != nil || p != FoulPolicyTurn {
		t.Errorf("ParseFoulPolicy(\"\") = %q, %v", p, err)
	}
	if p, err := ParseFoulPolicy("ball_in_hand"); err != nil || p != FoulPolicyBallInHand {
		t.Errorf("ParseFoulPolicy(ball_in_hand) = %q, %v", p, err)
	}
	if _, err := ParseFoulPolicy("spot"); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("ParseFoulPolicy(spot) err = %v", err)
	}
	if r, err := ParseEightBallRule("cleared_group"); err != nil || r != EightBallClearedGroup {
		t.Errorf("ParseEightBallRule(cleared_group) = %q, %v", r, err)
	}
	if _, err := ParseEightBallRule("sudden_death"); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("ParseEightBallRule(sudden_death) err = %v", err)
	}
}

func TestPhaseMarshalText(t *testing.T) {
	b, err := PhaseAwaitingStopEvaluation.MarshalText()
	if err != nil || string(b) != "AWAITING_STOP_EVALUATION" {
		t.Errorf("MarshalText = %q, %v", b, err)
	}
}

func TestPhaseTextRoundTrip(t *testing.T) {
	for _, p := range []TurnPhase{PhaseInProgress, PhaseAwaitingStopEvaluation, PhaseEvaluated} {
		b, _ := p.MarshalText()
		var got TurnPhase
		if err := got.UnmarshalText(b); err != nil || got != p {
			t.Errorf("UnmarshalText(%q) = %v, %v", b, got, err)
		}
	}
	var p TurnPhase
	if err := p.UnmarshalText([]byte("TurnPhase(7)")); err == nil {
		t.Error("accepted an unknown phase")
	}
}
