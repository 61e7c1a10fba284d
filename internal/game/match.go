package game

import (
	"fmt"
	"log"
	"math"
	"sync"
	"time"
)

// MatchStatus represents the lifecycle of a match.
type MatchStatus string

const (
	StatusWaiting    MatchStatus = "WAITING"
	StatusInProgress MatchStatus = "IN_PROGRESS"
	StatusCompleted  MatchStatus = "COMPLETED"
)

// MatchPlayer is a player seated at the table.
type MatchPlayer struct {
	ID             string     `json:"id"`
	DisplayName    string     `json:"display_name"`
	Seat           int        `json:"seat"`
	Connected      bool       `json:"connected"`
	DisconnectedAt *time.Time `json:"-"`
}

// ShotParams is the input for a shot.
type ShotParams struct {
	Angle float64 `json:"angle"` // radians
	Power float64 `json:"power"` // initial cue ball speed, (0, MaxPower]
}

// Impulse converts the shot into a cue ball velocity change.
func (p ShotParams) Impulse() Vec2 {
	return FromAngle(p.Angle, p.Power)
}

// ShotResult is the outcome of one shot once the table is at rest.
type ShotResult struct {
	ShotNumber    int              `json:"shot_number"`
	Player        string           `json:"player"`
	ShotParams    ShotParams       `json:"shot_params"`
	PocketedBalls []int            `json:"pocketed_balls"`
	Foul          *FoulInfo        `json:"foul,omitempty"`
	GroupAssigned bool             `json:"group_assigned"`
	Player1Group  BallGroup        `json:"player1_group"`
	Player2Group  BallGroup        `json:"player2_group"`
	TurnChange    bool             `json:"turn_change"`
	NextTurn      string           `json:"next_turn"`
	BallInHand    bool             `json:"ball_in_hand"`
	GameOver      bool             `json:"game_over"`
	Winner        string           `json:"winner,omitempty"`
	WinType       string           `json:"win_type,omitempty"`
	Events        []Event          `json:"events"`
	Collisions    []CollisionEvent `json:"collisions,omitempty"`
	BallPositions []BallState      `json:"ball_positions"`
	Frames        []Frame          `json:"frames,omitempty"`
	Ticks         int              `json:"ticks"`
}

// MatchSnapshot is the serializable state of a match.
type MatchSnapshot struct {
	ID          string      `json:"id"`
	Token       string      `json:"-"`
	Status      MatchStatus `json:"status"`
	Player1     MatchPlayer `json:"player1"`
	Player2     MatchPlayer `json:"player2"`
	CurrentTurn string      `json:"current_turn"`
	Rules       RuleState   `json:"rules"`
	Balls       []BallState `json:"balls"`
	Events      []Event     `json:"events"`
	ShotNumber  int         `json:"shot_number"`
	Winner      string      `json:"winner,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	StartedAt   *time.Time  `json:"started_at,omitempty"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

// Match is one two-player game around a Simulation.
type Match struct {
	ID      string
	Token   string
	Player1 *MatchPlayer
	Player2 *MatchPlayer

	Status       MatchStatus
	ShotNumber   int
	CreatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	LastActivity time.Time
	SessionID    int // archive row id, 0 when not archived

	sim         *Simulation
	opts        RuleOptions
	sampleEvery int
	mu          sync.RWMutex
}

// NewMatch creates a match waiting for Initialize.
func NewMatch(id, token, p1ID, p1Name, p2ID, p2Name string, opts RuleOptions) *Match {
	now := time.Now()
	return &Match{
		ID:           id,
		Token:        token,
		Player1:      &MatchPlayer{ID: p1ID, DisplayName: p1Name, Seat: Player1},
		Player2:      &MatchPlayer{ID: p2ID, DisplayName: p2Name, Seat: Player2},
		Status:       StatusWaiting,
		CreatedAt:    now,
		LastActivity: now,
		sim:          NewSimulation(opts),
		opts:         opts,
	}
}

// SetFrameSampling captures a playback frame every n settle ticks; 0 disables frames.
func (m *Match) SetFrameSampling(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sampleEvery = n
}

// Initialize racks the balls; player 1 breaks.
func (m *Match) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Status != StatusWaiting {
		return ErrAlreadyInProgress
	}

	m.sim = NewSimulation(m.opts)
	now := time.Now()
	m.StartedAt = &now
	m.Status = StatusInProgress
	m.LastActivity = now

	log.Printf("[MATCH] %s initialized, %s breaks", m.ID, m.Player1.ID)
	return nil
}

// ValidateCanShoot checks whether playerID may take a shot with params.
func (m *Match) ValidateCanShoot(playerID string, params ShotParams) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.validateShotLocked(playerID, params)
}

func (m *Match) validateShotLocked(playerID string, params ShotParams) error {
	if m.Status != StatusInProgress {
		return ErrNotInProgress
	}
	seat := m.seatOf(playerID)
	if seat == 0 {
		return ErrNotSeated
	}
	if m.sim.Rules.CurrentPlayer() != seat {
		return ErrNotYourTurn
	}
	if math.IsNaN(params.Power) || math.IsNaN(params.Angle) || params.Power < MinVelocity || params.Power > MaxPower {
		return fmt.Errorf("%w: %.1f outside [%.0f, %.0f]", ErrInvalidPower, params.Power, MinVelocity, MaxPower)
	}
	if !m.sim.AllStopped() {
		return ErrBallsMoving
	}
	return nil
}

// TakeShot strikes the cue ball for playerID and simulates until the table
// is at rest.
func (m *Match) TakeShot(playerID string, params ShotParams) (*ShotResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.validateShotLocked(playerID, params); err != nil {
		return nil, err
	}

	rules := m.sim.Rules
	groupsBefore := [3]BallGroup{GroupNone, rules.Group(Player1), rules.Group(Player2)}
	shooter := rules.CurrentPlayer()

	m.ShotNumber++
	logged := len(rules.Events())
	m.sim.Shoot(params.Impulse())
	total, frames := m.sim.Settle(MaxSettleTicks, m.sampleEvery)

	result := &ShotResult{
		ShotNumber:    m.ShotNumber,
		Player:        playerID,
		ShotParams:    params,
		PocketedBalls: total.Pocketed,
		Foul:          rules.LastFoul(),
		Player1Group:  rules.Group(Player1),
		Player2Group:  rules.Group(Player2),
		TurnChange:    rules.CurrentPlayer() != shooter,
		BallInHand:    rules.BallInHand(),
		GameOver:      rules.GameOver(),
		Events:        rules.EventsSince(logged),
		Collisions:    total.Collisions,
		BallPositions: m.sim.BallStates(),
		Frames:        frames,
		Ticks:         m.sim.Ticks(),
	}
	if result.PocketedBalls == nil {
		result.PocketedBalls = []int{}
	}
	result.GroupAssigned = groupsBefore[Player1] == GroupNone && result.Player1Group != GroupNone

	if rules.GameOver() {
		m.complete()
		result.Winner = m.winnerID()
		result.WinType = rules.WinType()
	} else {
		result.NextTurn = m.playerAt(rules.CurrentPlayer()).ID
	}
	m.LastActivity = time.Now()

	log.Printf("[MATCH] Shot #%d by %s in %s, pocketed=%v, foul=%v, gameOver=%v, nextTurn=%s",
		m.ShotNumber, playerID, m.ID, result.PocketedBalls, result.Foul != nil, result.GameOver, result.NextTurn)

	return result, nil
}

// Strike validates and strikes the cue ball without simulating. The caller
// drives the table with Advance until Settled reports true.
func (m *Match) Strike(playerID string, params ShotParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.validateShotLocked(playerID, params); err != nil {
		return err
	}
	m.ShotNumber++
	m.sim.Shoot(params.Impulse())
	m.LastActivity = time.Now()
	return nil
}

// Settled reports whether every ball on the table is at rest.
func (m *Match) Settled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sim.AllStopped()
}

// Advance runs one frame-driven tick of dt seconds.
func (m *Match) Advance(dt float64) TickResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	res := m.sim.Tick(dt)
	if m.Status == StatusInProgress && m.sim.Rules.GameOver() {
		m.complete()
	}
	return res
}

// PlaceCueBall places the cue ball for ball-in-hand.
func (m *Match) PlaceCueBall(playerID string, x, y float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Status != StatusInProgress {
		return ErrNotInProgress
	}
	seat := m.seatOf(playerID)
	if seat == 0 {
		return ErrNotSeated
	}
	if m.sim.Rules.CurrentPlayer() != seat {
		return ErrNotYourTurn
	}
	if !m.sim.Rules.BallInHand() {
		return ErrNotBallInHand
	}
	if !m.sim.AllStopped() {
		return ErrBallsMoving
	}
	if err := m.sim.PlaceCueBall(NewVec2(x, y)); err != nil {
		return err
	}
	m.sim.Rules.ClearBallInHand()
	m.LastActivity = time.Now()

	log.Printf("[MATCH] Cue ball placed at (%.0f, %.0f) by %s", x, y, playerID)
	return nil
}

// Concede forfeits the match for playerID.
func (m *Match) Concede(playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Status != StatusInProgress {
		return ErrNotInProgress
	}
	seat := m.seatOf(playerID)
	if seat == 0 {
		return ErrNotSeated
	}
	m.sim.Rules.Forfeit(seat, "concede")
	m.complete()
	return nil
}

// ForfeitIfDisconnected forfeits the match for playerID when their socket has
// been gone for at least grace. It reports whether the match ended.
func (m *Match) ForfeitIfDisconnected(playerID string, grace time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Status != StatusInProgress {
		return false
	}
	p := m.playerByID(playerID)
	if p == nil || p.Connected || p.DisconnectedAt == nil || time.Since(*p.DisconnectedAt) < grace {
		return false
	}
	m.sim.Rules.Forfeit(p.Seat, "disconnect")
	m.complete()
	return true
}

// Snapshot returns a copy of the match state.
func (m *Match) Snapshot() MatchSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := MatchSnapshot{
		ID:          m.ID,
		Token:       m.Token,
		Status:      m.Status,
		Player1:     *m.Player1,
		Player2:     *m.Player2,
		Rules:       m.sim.Rules.State(),
		Balls:       m.sim.BallStates(),
		Events:      m.sim.Rules.Events(),
		ShotNumber:  m.ShotNumber,
		Winner:      m.winnerID(),
		CreatedAt:   m.CreatedAt,
		StartedAt:   m.StartedAt,
		CompletedAt: m.CompletedAt,
	}
	if m.Status == StatusInProgress {
		snap.CurrentTurn = m.playerAt(m.sim.Rules.CurrentPlayer()).ID
	}
	return snap
}

// StateForPlayer returns the state as seen from playerID's seat.
func (m *Match) StateForPlayer(playerID string) map[string]interface{} {
	snap := m.Snapshot()

	me, opp := snap.Player1, snap.Player2
	myGroup, oppGroup := snap.Rules.Player1Group, snap.Rules.Player2Group
	myScore, oppScore := snap.Rules.Player1Score, snap.Rules.Player2Score
	if snap.Player2.ID == playerID {
		me, opp = opp, me
		myGroup, oppGroup = oppGroup, myGroup
		myScore, oppScore = oppScore, myScore
	}

	return map[string]interface{}{
		"match_id":           snap.ID,
		"status":             snap.Status,
		"my_id":              me.ID,
		"my_seat":            me.Seat,
		"my_display_name":    me.DisplayName,
		"my_connected":       me.Connected,
		"my_group":           myGroup,
		"my_score":           myScore,
		"opponent_id":        opp.ID,
		"opponent_name":      opp.DisplayName,
		"opponent_connected": opp.Connected,
		"opponent_group":     oppGroup,
		"opponent_score":     oppScore,
		"balls":              snap.Balls,
		"current_turn":       snap.CurrentTurn,
		"my_turn":            snap.CurrentTurn == playerID,
		"phase":              snap.Rules.Phase,
		"ball_in_hand":       snap.Rules.BallInHand,
		"last_foul":          snap.Rules.LastFoul,
		"shot_number":        snap.ShotNumber,
		"winner":             snap.Winner,
		"win_type":           snap.Rules.WinType,
	}
}

// Winner returns the winning player id, or "" while the match runs.
func (m *Match) Winner() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.winnerID()
}

func (m *Match) winnerID() string {
	w := m.sim.Rules.Winner()
	if w == 0 {
		return ""
	}
	return m.playerAt(w).ID
}

// === Connection management ===

func (m *Match) SetPlayerConnected(playerID string, connected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.playerByID(playerID)
	if p == nil {
		return
	}
	p.Connected = connected
	if connected {
		p.DisconnectedAt = nil
	} else {
		now := time.Now()
		p.DisconnectedAt = &now
	}
}

// SeatOf returns 1 or 2, or 0 when playerID is not seated.
func (m *Match) SeatOf(playerID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.seatOf(playerID)
}

// === Internal helpers ===

func (m *Match) complete() {
	if m.Status == StatusCompleted {
		return
	}
	now := time.Now()
	m.Status = StatusCompleted
	m.CompletedAt = &now
	log.Printf("[MATCH] %s completed, winner=%s (%s)", m.ID, m.winnerID(), m.sim.Rules.WinType())
}

func (m *Match) seatOf(playerID string) int {
	switch playerID {
	case m.Player1.ID:
		return Player1
	case m.Player2.ID:
		return Player2
	}
	return 0
}

func (m *Match) playerAt(seat int) *MatchPlayer {
	if seat == Player2 {
		return m.Player2
	}
	return m.Player1
}

func (m *Match) playerByID(playerID string) *MatchPlayer {
	switch playerID {
	case m.Player1.ID:
		return m.Player1
	case m.Player2.ID:
		return m.Player2
	}
	return nil
}
