package game

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/billiards/internal/config"
	"github.com/playmatatu/billiards/internal/models"
	"github.com/redis/go-redis/v9"
)

// MatchEventsChannel is the Redis channel shot results are published on.
const MatchEventsChannel = "match_events"

// MatchManager holds every live match and mirrors them to Redis and Postgres.
type MatchManager struct {
	matches     map[string]*Match // keyed by match ID
	rdb         *redis.Client     // snapshots + pub/sub, optional
	db          *sqlx.DB          // match archive, optional
	config      *config.Config
	defaultOpts RuleOptions
	mu          sync.RWMutex
}

var (
	// Global match manager instance
	Manager *MatchManager
)

// InitializeManager sets up the global manager and starts its expiry checker.
func InitializeManager(ctx context.Context, db *sqlx.DB, rdb *redis.Client, cfg *config.Config) error {
	m, err := NewMatchManager(db, rdb, cfg)
	if err != nil {
		return err
	}
	Manager = m
	go Manager.StartExpiryChecker(ctx)
	return nil
}

// NewMatchManager creates a manager; db and rdb may be nil.
func NewMatchManager(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) (*MatchManager, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	foul, err := ParseFoulPolicy(cfg.FoulPolicy)
	if err != nil {
		return nil, err
	}
	eight, err := ParseEightBallRule(cfg.EightBallRule)
	if err != nil {
		return nil, err
	}
	return &MatchManager{
		matches:     make(map[string]*Match),
		rdb:         rdb,
		db:          db,
		config:      cfg,
		defaultOpts: RuleOptions{FoulPolicy: foul, EightBallRule: eight},
	}, nil
}

func (mm *MatchManager) GetConfig() *config.Config {
	return mm.config
}

// DefaultOptions are the rule options used when a match does not override them.
func (mm *MatchManager) DefaultOptions() RuleOptions {
	return mm.defaultOpts
}

// generateToken generates a secure random token
func generateToken(length int) string {
	bytes := make([]byte, length)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

func generateMatchID() string {
	return "match_" + generateToken(8)
}

// CreateMatch seats two players, racks the table and archives the match.
func (mm *MatchManager) CreateMatch(p1Name, p2Name string, opts RuleOptions) (*Match, error) {
	if opts.FoulPolicy == "" {
		opts.FoulPolicy = mm.defaultOpts.FoulPolicy
	}
	if opts.EightBallRule == "" {
		opts.EightBallRule = mm.defaultOpts.EightBallRule
	}

	m := NewMatch(generateMatchID(), generateToken(16),
		"p1_"+generateToken(4), p1Name,
		"p2_"+generateToken(4), p2Name,
		opts)
	m.SetFrameSampling(mm.config.FrameSampleEvery)
	if err := m.Initialize(); err != nil {
		return nil, err
	}

	if sessionID, err := mm.createSession(m); err != nil {
		log.Printf("[DB] Failed to archive match %s: %v", m.ID, err)
	} else {
		m.SessionID = sessionID
	}

	mm.mu.Lock()
	mm.matches[m.ID] = m
	mm.mu.Unlock()

	if err := mm.saveMatchToRedis(m); err != nil {
		log.Printf("[REDIS] Failed to save match %s: %v", m.ID, err)
	}

	log.Printf("[MATCH] Created %s (token=%s, foul=%s, eight=%s)", m.ID, m.Token, opts.FoulPolicy, opts.EightBallRule)
	return m, nil
}

// GetMatch returns a live match by ID.
func (mm *MatchManager) GetMatch(matchID string) (*Match, error) {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	m, ok := mm.matches[matchID]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return m, nil
}

// Snapshot returns the live state of a match, falling back to the last
// snapshot in Redis when this instance does not hold it.
func (mm *MatchManager) Snapshot(ctx context.Context, matchID string) (*MatchSnapshot, error) {
	if m, err := mm.GetMatch(matchID); err == nil {
		snap := m.Snapshot()
		return &snap, nil
	}
	return mm.loadSnapshotFromRedis(ctx, matchID)
}

func (mm *MatchManager) GetActiveMatchCount() int {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	n := 0
	for _, m := range mm.matches {
		if m.Snapshot().Status == StatusInProgress {
			n++
		}
	}
	return n
}

// RemoveMatch drops a match from memory.
func (mm *MatchManager) RemoveMatch(matchID string) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	delete(mm.matches, matchID)
}

// AfterShot runs the side effects of a resolved shot: snapshot, archive,
// fan-out and, when the match ended, the final record.
func (mm *MatchManager) AfterShot(m *Match, result *ShotResult) {
	if err := mm.saveMatchToRedis(m); err != nil {
		log.Printf("[REDIS] Failed to save match %s: %v", m.ID, err)
	}
	mm.RecordShot(m, result)
	mm.PublishMatchEvent(m.ID, "shot_result", result)
	if result.GameOver {
		mm.SaveFinalMatch(m)
	}
}

// AfterStateChange snapshots and publishes a match after a placement,
// concede or forfeit.
func (mm *MatchManager) AfterStateChange(m *Match) {
	if err := mm.saveMatchToRedis(m); err != nil {
		log.Printf("[REDIS] Failed to save match %s: %v", m.ID, err)
	}
	snap := m.Snapshot()
	mm.PublishMatchEvent(m.ID, "match_snapshot", snap)
	if snap.Status == StatusCompleted {
		mm.SaveFinalMatch(m)
	}
}

// MatchEvent is the payload published on MatchEventsChannel.
type MatchEvent struct {
	Type    string          `json:"type"`
	MatchID string          `json:"match_id"`
	Origin  string          `json:"origin"`
	Data    json.RawMessage `json:"data"`
}

// instanceID tags published events so an instance can skip its own.
var instanceID = generateToken(6)

// InstanceID identifies this process on MatchEventsChannel.
func InstanceID() string {
	return instanceID
}

// PublishMatchEvent publishes payload for other server instances.
func (mm *MatchManager) PublishMatchEvent(matchID, eventType string, payload interface{}) {
	if mm.rdb == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[REDIS] Failed to marshal %s for %s: %v", eventType, matchID, err)
		return
	}
	b, err := json.Marshal(MatchEvent{Type: eventType, MatchID: matchID, Origin: instanceID, Data: data})
	if err != nil {
		return
	}
	if n, err := mm.rdb.Publish(context.Background(), MatchEventsChannel, b).Result(); err != nil {
		log.Printf("[REDIS] Publish %s for %s failed: %v", eventType, matchID, err)
	} else {
		log.Printf("[REDIS] Published %s for %s to %d subscribers", eventType, matchID, n)
	}
}

func matchStateKey(matchID string) string {
	return "match:" + matchID + ":state"
}

// saveMatchToRedis saves the match snapshot to Redis.
func (mm *MatchManager) saveMatchToRedis(m *Match) error {
	if mm.rdb == nil {
		return nil
	}
	data, err := json.Marshal(m.Snapshot())
	if err != nil {
		return err
	}
	ttl := time.Duration(mm.config.RedisStateTTLMinutes) * time.Minute
	return mm.rdb.SetEx(context.Background(), matchStateKey(m.ID), data, ttl).Err()
}

func (mm *MatchManager) loadSnapshotFromRedis(ctx context.Context, matchID string) (*MatchSnapshot, error) {
	if mm.rdb == nil {
		return nil, ErrMatchNotFound
	}
	data, err := mm.rdb.Get(ctx, matchStateKey(matchID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", matchID, err)
	}
	var snap MatchSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", matchID, err)
	}
	return &snap, nil
}

// createSession inserts the archive row for a new match.
func (mm *MatchManager) createSession(m *Match) (int, error) {
	if mm.db == nil {
		return 0, nil
	}
	var id int
	err := mm.db.QueryRowx(
		`INSERT INTO matches (match_id, match_token, player1_name, player2_name, foul_policy, eight_ball_rule, status, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`,
		m.ID, m.Token, m.Player1.DisplayName, m.Player2.DisplayName,
		string(m.opts.FoulPolicy), string(m.opts.EightBallRule), string(StatusInProgress), m.CreatedAt,
	).Scan(&id)
	return id, err
}

// RecordShot archives a shot with its outcome as JSONB.
func (mm *MatchManager) RecordShot(m *Match, result *ShotResult) {
	if mm.db == nil || m.SessionID == 0 {
		return
	}

	outcome, err := json.Marshal(struct {
		PocketedBalls []int     `json:"pocketed_balls"`
		Foul          *FoulInfo `json:"foul,omitempty"`
		Events        []Event   `json:"events"`
		NextTurn      string    `json:"next_turn"`
		GameOver      bool      `json:"game_over"`
	}{result.PocketedBalls, result.Foul, result.Events, result.NextTurn, result.GameOver})
	if err != nil {
		log.Printf("[DB] Failed to marshal shot outcome for session %d: %v", m.SessionID, err)
		return
	}

	_, err = mm.db.Exec(
		`INSERT INTO match_shots (session_id, shot_number, seat, angle, power, outcome, created_at) VALUES ($1,$2,$3,$4,$5,$6::jsonb,NOW())`,
		m.SessionID, result.ShotNumber, m.SeatOf(result.Player), result.ShotParams.Angle, result.ShotParams.Power, string(outcome),
	)
	if err != nil {
		log.Printf("[DB] Failed to record shot for session %d: %v", m.SessionID, err)
	}
}

// SaveFinalMatch stores the winner of a completed match.
func (mm *MatchManager) SaveFinalMatch(m *Match) {
	if mm.db == nil || m.SessionID == 0 {
		return
	}
	snap := m.Snapshot()
	_, err := mm.db.Exec(
		`UPDATE matches SET status=$1, winner_seat=$2, win_type=$3, shot_count=$4, completed_at=$5 WHERE id=$6`,
		string(snap.Status), snap.Rules.Winner, snap.Rules.WinType, snap.ShotNumber, snap.CompletedAt, m.SessionID,
	)
	if err != nil {
		log.Printf("[DB] Failed to save final state for session %d: %v", m.SessionID, err)
		return
	}
	log.Printf("[DB] Session %d completed, winner seat %d", m.SessionID, snap.Rules.Winner)
}

// MatchHistory reads an archived match and its shots in order.
func (mm *MatchManager) MatchHistory(ctx context.Context, matchID string) (*models.MatchRecord, []models.ShotRecord, error) {
	if mm.db == nil {
		return nil, nil, ErrArchiveDisabled
	}

	var rec models.MatchRecord
	err := mm.db.GetContext(ctx, &rec, `SELECT * FROM matches WHERE match_id=$1`, matchID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load match %s: %w", matchID, err)
	}

	shots := []models.ShotRecord{}
	if err := mm.db.SelectContext(ctx, &shots,
		`SELECT * FROM match_shots WHERE session_id=$1 ORDER BY shot_number`, rec.ID); err != nil {
		return nil, nil, fmt.Errorf("load shots for %s: %w", matchID, err)
	}
	return &rec, shots, nil
}

// StartExpiryChecker periodically drops idle and long-finished matches.
func (mm *MatchManager) StartExpiryChecker(ctx context.Context) {
	interval := time.Duration(mm.config.ExpiryCheckSeconds) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[EXPIRY] Expiry checker stopping")
			return
		case <-ticker.C:
			if n := mm.ExpireIdleMatches(time.Now()); n > 0 {
				log.Printf("[EXPIRY] Removed %d idle matches", n)
			}
		}
	}
}

// ExpireIdleMatches removes matches with no activity for MatchExpiryMinutes.
func (mm *MatchManager) ExpireIdleMatches(now time.Time) int {
	maxIdle := time.Duration(mm.config.MatchExpiryMinutes) * time.Minute

	mm.mu.RLock()
	var stale []string
	for id, m := range mm.matches {
		m.mu.RLock()
		idle := now.Sub(m.LastActivity)
		m.mu.RUnlock()
		if idle >= maxIdle {
			stale = append(stale, id)
		}
	}
	mm.mu.RUnlock()

	for _, id := range stale {
		mm.RemoveMatch(id)
	}
	return len(stale)
}
