package game

import (
	"fmt"
	"log"
)

const (
	Player1 = 1
	Player2 = 2
)

// Opponent returns the other seat.
func Opponent(player int) int {
	if player == Player1 {
		return Player2
	}
	return Player1
}

// TurnPhase is where the current turn stands relative to the cue ball.
type TurnPhase int

const (
	// PhaseInProgress: the cue ball has been struck and has not yet stopped.
	PhaseInProgress TurnPhase = iota
	// PhaseAwaitingStopEvaluation: the cue ball just came to rest; the outcome is pending.
	PhaseAwaitingStopEvaluation
	// PhaseEvaluated: the outcome is settled and the table waits for the next shot.
	PhaseEvaluated
)

func (p TurnPhase) String() string {
	switch p {
	case PhaseInProgress:
		return "IN_PROGRESS"
	case PhaseAwaitingStopEvaluation:
		return "AWAITING_STOP_EVALUATION"
	case PhaseEvaluated:
		return "EVALUATED"
	}
	return fmt.Sprintf("TurnPhase(%d)", int(p))
}

func (p TurnPhase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *TurnPhase) UnmarshalText(text []byte) error {
	switch string(text) {
	case "IN_PROGRESS":
		*p = PhaseInProgress
	case "AWAITING_STOP_EVALUATION":
		*p = PhaseAwaitingStopEvaluation
	case "EVALUATED":
		*p = PhaseEvaluated
	default:
		return fmt.Errorf("unknown turn phase %q", text)
	}
	return nil
}

// FoulPolicy decides what the incoming player gets after a foul.
type FoulPolicy string

const (
	FoulPolicyTurn       FoulPolicy = "turn"         // turn passes, nothing else
	FoulPolicyBallInHand FoulPolicy = "ball_in_hand" // turn passes and the cue ball may be placed
)

// EightBallRule decides who wins when the eight ball drops.
type EightBallRule string

const (
	// EightBallReference always credits the player who did not pocket it.
	EightBallReference EightBallRule = "reference"
	// EightBallClearedGroup lets the shooter win after clearing their group without scratching.
	EightBallClearedGroup EightBallRule = "cleared_group"
)

// ParseFoulPolicy maps a config string to a policy; empty means the default.
func ParseFoulPolicy(s string) (FoulPolicy, error) {
	switch FoulPolicy(s) {
	case "", FoulPolicyTurn:
		return FoulPolicyTurn, nil
	case FoulPolicyBallInHand:
		return FoulPolicyBallInHand, nil
	}
	return "", fmt.Errorf("%w: foul policy %q", ErrInvalidOption, s)
}

// ParseEightBallRule maps a config string to a rule; empty means the default.
func ParseEightBallRule(s string) (EightBallRule, error) {
	switch EightBallRule(s) {
	case "", EightBallReference:
		return EightBallReference, nil
	case EightBallClearedGroup:
		return EightBallClearedGroup, nil
	}
	return "", fmt.Errorf("%w: eight ball rule %q", ErrInvalidOption, s)
}

// RuleOptions are the policy points of a match.
type RuleOptions struct {
	FoulPolicy    FoulPolicy    `json:"foul_policy"`
	EightBallRule EightBallRule `json:"eight_ball_rule"`
}

// DefaultRuleOptions reproduces the reference behavior.
func DefaultRuleOptions() RuleOptions {
	return RuleOptions{FoulPolicy: FoulPolicyTurn, EightBallRule: EightBallReference}
}

// Foul types.
const (
	FoulNoContact    = "no_contact"
	FoulWrongContact = "wrong_group_contact"
	FoulScratch      = "scratch"
	FoulIllegalEight = "illegal_eight"
)

// FoulInfo describes a foul that occurred during a turn.
type FoulInfo struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// EventKind classifies an Event.
type EventKind string

const (
	EventShot          EventKind = "shot"
	EventPocketed      EventKind = "ball_pocketed"
	EventGroupAssigned EventKind = "group_assigned"
	EventWrongGroup    EventKind = "wrong_group_pocketed"
	EventScratch       EventKind = "cue_ball_pocketed"
	EventFoul          EventKind = "foul"
	EventTurnKept      EventKind = "turn_kept"
	EventTurnChange    EventKind = "turn_change"
	EventGameOver      EventKind = "game_over"
)

// Event is one entry of the status log.
type Event struct {
	Tick    int       `json:"tick"`
	Kind    EventKind `json:"kind"`
	Player  int       `json:"player"`
	BallID  int       `json:"ball_id"` // -1 when no ball is involved
	Message string    `json:"message"`
}

// TickReport is what the table observed during one tick, after physics and
// cue ball respawn.
type TickReport struct {
	Pocketed    []int   // ids in iteration order
	CueContacts []int   // object balls the cue ball was touching
	CueSpeed    float64 // cue ball speed at the end of the tick
}

// RuleEngine is the turn, foul and scoring state machine of one match.
type RuleEngine struct {
	opts RuleOptions

	currentPlayer int
	shooter       int // player who struck the cue ball this turn
	groups        [3]BallGroup
	scores        [3][]int
	phase         TurnPhase

	pocketedThisTurn  bool
	scratchedThisTurn bool
	touched           map[int]bool
	off               map[int]bool // object balls that left the table

	ballInHand bool
	lastFoul   *FoulInfo
	winner     int
	winType    string

	tick   int
	events []Event
}

// NewRuleEngine creates an engine with player 1 to break.
func NewRuleEngine(opts RuleOptions) *RuleEngine {
	if opts.FoulPolicy == "" {
		opts.FoulPolicy = FoulPolicyTurn
	}
	if opts.EightBallRule == "" {
		opts.EightBallRule = EightBallReference
	}
	return &RuleEngine{
		opts:          opts,
		currentPlayer: Player1,
		shooter:       Player1,
		phase:         PhaseEvaluated,
		touched:       make(map[int]bool),
		off:           make(map[int]bool),
	}
}

func (r *RuleEngine) Options() RuleOptions {
	return r.opts
}

func (r *RuleEngine) CurrentPlayer() int {
	return r.currentPlayer
}

func (r *RuleEngine) Phase() TurnPhase {
	return r.phase
}

// Winner is 0 until the game is over.
func (r *RuleEngine) Winner() int {
	return r.winner
}

func (r *RuleEngine) WinType() string {
	return r.winType
}

func (r *RuleEngine) GameOver() bool {
	return r.winner != 0
}

func (r *RuleEngine) BallInHand() bool {
	return r.ballInHand
}

func (r *RuleEngine) LastFoul() *FoulInfo {
	return r.lastFoul
}

func (r *RuleEngine) Group(player int) BallGroup {
	if player != Player1 && player != Player2 {
		return GroupNone
	}
	return r.groups[player]
}

// Score returns a copy of the balls credited to player.
func (r *RuleEngine) Score(player int) []int {
	if player != Player1 && player != Player2 {
		return nil
	}
	out := make([]int, len(r.scores[player]))
	copy(out, r.scores[player])
	return out
}

// Events returns a copy of the full event log.
func (r *RuleEngine) Events() []Event {
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// EventsSince returns the events logged after the first n.
func (r *RuleEngine) EventsSince(n int) []Event {
	if n >= len(r.events) {
		return nil
	}
	out := make([]Event, len(r.events)-n)
	copy(out, r.events[n:])
	return out
}

// BeginShot opens a new turn for the current player. Called when the cue
// ball is struck.
func (r *RuleEngine) BeginShot() {
	if r.GameOver() {
		return
	}
	r.startTurn()
	r.logEvent(EventShot, r.currentPlayer, -1, fmt.Sprintf("Player %d shoots", r.currentPlayer))
}

// ClearBallInHand is called once the incoming player placed the cue ball.
func (r *RuleEngine) ClearBallInHand() {
	r.ballInHand = false
}

// Forfeit ends the match in favor of the opponent of loser.
func (r *RuleEngine) Forfeit(loser int, winType string) {
	if r.GameOver() {
		return
	}
	r.winner = Opponent(loser)
	r.winType = winType
	r.phase = PhaseEvaluated
	r.logEvent(EventGameOver, r.winner, -1, fmt.Sprintf("Player %d wins (%s)", r.winner, winType))
}

// Apply consumes one tick of table observations and returns the events it logged.
// After the game is over it does nothing.
func (r *RuleEngine) Apply(rep TickReport) []Event {
	if r.GameOver() {
		return nil
	}
	r.tick++
	before := len(r.events)

	moving := rep.CueSpeed >= MinVelocity
	if moving && r.phase == PhaseEvaluated {
		r.startTurn()
	}
	if r.phase == PhaseInProgress {
		for _, id := range rep.CueContacts {
			r.touched[id] = true
		}
	}

	r.pocketingPass(rep.Pocketed)

	if !r.GameOver() && !moving && r.phase == PhaseInProgress {
		r.phase = PhaseAwaitingStopEvaluation
		r.evaluateStop()
		r.phase = PhaseEvaluated
	}

	return r.EventsSince(before)
}

func (r *RuleEngine) startTurn() {
	r.phase = PhaseInProgress
	r.shooter = r.currentPlayer
	r.pocketedThisTurn = false
	r.scratchedThisTurn = false
	r.touched = make(map[int]bool)
	r.ballInHand = false
	r.lastFoul = nil
}

func (r *RuleEngine) pocketingPass(pocketed []int) {
	for _, id := range pocketed {
		switch GroupOf(id) {
		case GroupCue:
			r.scratch()
		case GroupEight:
			r.eightBall()
			return
		case GroupSolids, GroupStripes:
			r.objectBall(id)
		}
	}
}

// scratch switches the turn at once and closes it, so the stop evaluation
// does not switch it back.
func (r *RuleEngine) scratch() {
	r.scratchedThisTurn = true
	r.logEvent(EventScratch, r.currentPlayer, CueBallID, "Cue ball pocketed")
	r.foul(FoulScratch, "Cue ball pocketed")
	r.switchPlayer()
	r.pocketedThisTurn = false
	r.phase = PhaseEvaluated
}

func (r *RuleEngine) eightBall() {
	shooter := r.shooter
	switch r.opts.EightBallRule {
	case EightBallClearedGroup:
		if r.groupCleared(shooter) && !r.scratchedThisTurn {
			r.winner = shooter
			r.winType = "pocket_eight"
		} else {
			r.winner = Opponent(shooter)
			r.winType = "illegal_eight"
			r.foul(FoulIllegalEight, "Eight ball pocketed before clearing group")
		}
	default:
		r.winner = Opponent(shooter)
		r.winType = "eight_ball_pocketed"
	}
	r.logEvent(EventPocketed, shooter, EightBallID, fmt.Sprintf("Player %d pocketed the eight ball", shooter))
	r.logEvent(EventGameOver, r.winner, -1, fmt.Sprintf("Player %d wins (%s)", r.winner, r.winType))
	r.phase = PhaseEvaluated
	log.Printf("[RULES] game over: winner=%d win_type=%s", r.winner, r.winType)
}

func (r *RuleEngine) objectBall(id int) {
	group := GroupOf(id)
	cur := r.currentPlayer
	opp := Opponent(cur)
	r.off[id] = true
	r.pocketedThisTurn = true

	switch {
	case r.groups[cur] == GroupNone:
		r.groups[cur] = group
		r.groups[opp] = group.Opposite()
		r.scores[cur] = append(r.scores[cur], id)
		r.logEvent(EventGroupAssigned, cur, id, fmt.Sprintf("Player %d takes %s", cur, group))
	case r.groups[cur] == group:
		r.scores[cur] = append(r.scores[cur], id)
		r.logEvent(EventPocketed, cur, id, fmt.Sprintf("Player %d pocketed ball %d", cur, id))
	default:
		r.scores[opp] = append(r.scores[opp], id)
		r.logEvent(EventWrongGroup, cur, id, fmt.Sprintf("Ball %d belongs to player %d", id, opp))
		r.switchPlayer()
	}
}

func (r *RuleEngine) evaluateStop() {
	cur := r.currentPlayer
	if r.pocketedThisTurn {
		r.pocketedThisTurn = false
		r.logEvent(EventTurnKept, cur, -1, fmt.Sprintf("Player %d continues", cur))
		return
	}

	if len(r.touched) == 0 {
		r.foul(FoulNoContact, "Cue ball touched no ball")
	} else if r.groups[cur].IsObject() && !r.touchedLegalTarget(cur) {
		r.foul(FoulWrongContact, "Cue ball touched none of the player's group")
	}
	r.switchPlayer()
}

func (r *RuleEngine) touchedLegalTarget(player int) bool {
	cleared := r.groupCleared(player)
	for id := range r.touched {
		g := GroupOf(id)
		if g == r.groups[player] || (cleared && g == GroupEight) {
			return true
		}
	}
	return false
}

// groupCleared reports whether every ball of the player's group left the table.
func (r *RuleEngine) groupCleared(player int) bool {
	g := r.groups[player]
	if !g.IsObject() {
		return false
	}
	n := 0
	for id := range r.off {
		if GroupOf(id) == g {
			n++
		}
	}
	return n == 7
}

func (r *RuleEngine) foul(kind, msg string) {
	r.lastFoul = &FoulInfo{Type: kind, Message: msg}
	r.logEvent(EventFoul, r.currentPlayer, -1, msg)
	if r.opts.FoulPolicy == FoulPolicyBallInHand && kind != FoulIllegalEight {
		r.ballInHand = true
	}
}

func (r *RuleEngine) switchPlayer() {
	r.currentPlayer = Opponent(r.currentPlayer)
	r.logEvent(EventTurnChange, r.currentPlayer, -1, fmt.Sprintf("Player %d to shoot", r.currentPlayer))
}

func (r *RuleEngine) logEvent(kind EventKind, player, ballID int, msg string) {
	r.events = append(r.events, Event{Tick: r.tick, Kind: kind, Player: player, BallID: ballID, Message: msg})
}

// RuleState is the display state exposed to callers.
type RuleState struct {
	CurrentPlayer int         `json:"current_player"`
	Phase         TurnPhase   `json:"phase"`
	Player1Group  BallGroup   `json:"player1_group"`
	Player2Group  BallGroup   `json:"player2_group"`
	Player1Score  []int       `json:"player1_score"`
	Player2Score  []int       `json:"player2_score"`
	BallInHand    bool        `json:"ball_in_hand"`
	LastFoul      *FoulInfo   `json:"last_foul,omitempty"`
	Winner        int         `json:"winner,omitempty"`
	WinType       string      `json:"win_type,omitempty"`
	GameOver      bool        `json:"game_over"`
	Options       RuleOptions `json:"options"`
}

// State returns a copy of the display state.
func (r *RuleEngine) State() RuleState {
	return RuleState{
		CurrentPlayer: r.currentPlayer,
		Phase:         r.phase,
		Player1Group:  r.groups[Player1],
		Player2Group:  r.groups[Player2],
		Player1Score:  r.Score(Player1),
		Player2Score:  r.Score(Player2),
		BallInHand:    r.ballInHand,
		LastFoul:      r.lastFoul,
		Winner:        r.winner,
		WinType:       r.winType,
		GameOver:      r.GameOver(),
		Options:       r.opts,
	}
}
