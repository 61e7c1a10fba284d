package models

import (
	"database/sql"
	"time"
)

// MatchRecord is an archived match.
type MatchRecord struct {
	ID            int            `db:"id" json:"id"`
	MatchID       string         `db:"match_id" json:"match_id"`
	MatchToken    string         `db:"match_token" json:"match_token"`
	Player1Name   string         `db:"player1_name" json:"player1_name"`
	Player2Name   string         `db:"player2_name" json:"player2_name"`
	FoulPolicy    string         `db:"foul_policy" json:"foul_policy"`
	EightBallRule string         `db:"eight_ball_rule" json:"eight_ball_rule"`
	Status        string         `db:"status" json:"status"`
	WinnerSeat    sql.NullInt64  `db:"winner_seat" json:"winner_seat,omitempty"`
	WinType       sql.NullString `db:"win_type" json:"win_type,omitempty"`
	ShotCount     int            `db:"shot_count" json:"shot_count"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	CompletedAt   sql.NullTime   `db:"completed_at" json:"completed_at,omitempty"`
}

// ShotRecord is one archived shot with its outcome as JSONB.
type ShotRecord struct {
	ID         int       `db:"id" json:"id"`
	SessionID  int       `db:"session_id" json:"session_id"`
	ShotNumber int       `db:"shot_number" json:"shot_number"`
	Seat       int       `db:"seat" json:"seat"`
	Angle      float64   `db:"angle" json:"angle"`
	Power      float64   `db:"power" json:"power"`
	Outcome    string    `db:"outcome" json:"outcome"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
