package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/billiards/internal/auth"
	"github.com/playmatatu/billiards/internal/config"
	"github.com/playmatatu/billiards/internal/game"
	"github.com/playmatatu/billiards/internal/middleware"
	"github.com/playmatatu/billiards/internal/ws"
)

type seatResponse struct {
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
	Seat        int    `json:"seat"`
	SeatToken   string `json:"seat_token"`
}

// CreateMatch seats two players at a freshly racked table and returns one
// seat token per player.
func CreateMatch(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Player1Name   string `json:"player1_name"`
			Player2Name   string `json:"player2_name"`
			FoulPolicy    string `json:"foul_policy,omitempty"`
			EightBallRule string `json:"eight_ball_rule,omitempty"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		p1 := normalizeDisplayName(req.Player1Name, "Player 1")
		p2 := normalizeDisplayName(req.Player2Name, "Player 2")
		if p1 == "" || p2 == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid display name"})
			return
		}

		var opts game.RuleOptions
		if req.FoulPolicy != "" {
			policy, err := game.ParseFoulPolicy(req.FoulPolicy)
			if err != nil {
				respondError(c, err)
				return
			}
			opts.FoulPolicy = policy
		}
		if req.EightBallRule != "" {
			rule, err := game.ParseEightBallRule(req.EightBallRule)
			if err != nil {
				respondError(c, err)
				return
			}
			opts.EightBallRule = rule
		}

		m, err := game.Manager.CreateMatch(p1, p2, opts)
		if err != nil {
			log.Printf("[API] CreateMatch failed: %v", err)
			respondError(c, err)
			return
		}

		ttl := time.Duration(cfg.SeatTokenTTLMinutes) * time.Minute
		seats := make([]seatResponse, 0, 2)
		for _, p := range []*game.MatchPlayer{m.Player1, m.Player2} {
			token, err := auth.IssueSeatToken(cfg.JWTSecret, m.ID, p.ID, p.Seat, ttl)
			if err != nil {
				log.Printf("[API] Failed to sign seat token for %s: %v", p.ID, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue seat tokens"})
				return
			}
			seats = append(seats, seatResponse{PlayerID: p.ID, DisplayName: p.DisplayName, Seat: p.Seat, SeatToken: token})
		}

		c.Header("X-Match-ID", m.ID)
		c.JSON(http.StatusCreated, gin.H{
			"match_id": m.ID,
			"token":    m.Token,
			"seats":    seats,
			"state":    m.Snapshot(),
		})
	}
}

// GetMatch returns the match snapshot, from Redis when another instance holds it.
func GetMatch(c *gin.Context) {
	snap, err := game.Manager.Snapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// GetMatchHistory returns the archived record and shots of a match.
func GetMatchHistory(c *gin.Context) {
	rec, shots, err := game.Manager.MatchHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"match": rec, "shots": shots})
}

// TakeShot resolves a shot for the seated player to rest.
func TakeShot(c *gin.Context) {
	var req game.ShotParams
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "angle and power required"})
		return
	}

	m, err := game.Manager.GetMatch(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	playerID := c.GetString(middleware.PlayerIDKey)
	result, err := m.TakeShot(playerID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	game.Manager.AfterShot(m, result)
	ws.BroadcastShotResult(ws.MatchHub, m, result)
	c.JSON(http.StatusOK, result)
}

// PlaceCueBall places the cue ball under ball-in-hand.
func PlaceCueBall(c *gin.Context) {
	var req struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.X == nil || req.Y == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "x and y required"})
		return
	}

	m, err := game.Manager.GetMatch(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	playerID := c.GetString(middleware.PlayerIDKey)
	if err := m.PlaceCueBall(playerID, *req.X, *req.Y); err != nil {
		respondError(c, err)
		return
	}

	game.Manager.AfterStateChange(m)
	ws.BroadcastCueBallPlaced(ws.MatchHub, m, *req.X, *req.Y)
	c.JSON(http.StatusOK, m.StateForPlayer(playerID))
}

// Concede forfeits the match for the seated player.
func Concede(c *gin.Context) {
	m, err := game.Manager.GetMatch(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	playerID := c.GetString(middleware.PlayerIDKey)
	if err := m.Concede(playerID); err != nil {
		respondError(c, err)
		return
	}

	game.Manager.AfterStateChange(m)
	ws.BroadcastConcede(ws.MatchHub, m, playerID)
	c.JSON(http.StatusOK, m.Snapshot())
}
