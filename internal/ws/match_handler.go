package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/playmatatu/billiards/internal/auth"
	"github.com/playmatatu/billiards/internal/config"
	"github.com/playmatatu/billiards/internal/game"
)

// TakeShotData is the payload of a take_shot message.
type TakeShotData struct {
	Angle float64 `json:"angle"`
	Power float64 `json:"power"`
}

// PlaceCueBallData is the payload of a place_cue_ball message.
type PlaceCueBallData struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// MatchHub is the single hub for all matches.
var MatchHub *Hub

func init() {
	MatchHub = NewHub()
	go runMatchHub(MatchHub)
}

// HandleWebSocket upgrades a seated player's connection for the match in :id.
// The seat token is passed as the pt query parameter.
func HandleWebSocket(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		matchID := c.Param("id")
		seatToken := c.Query("pt")
		if seatToken == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "pt required"})
			return
		}

		claims, err := auth.ParseSeatToken(cfg.JWTSecret, seatToken)
		if err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid seat token"})
			return
		}
		if claims.MatchID != matchID {
			c.JSON(http.StatusForbidden, gin.H{"error": "token is for another match"})
			return
		}

		m, err := game.Manager.GetMatch(matchID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "match not found"})
			return
		}
		if m.SeatOf(claims.PlayerID) == 0 {
			c.JSON(http.StatusForbidden, gin.H{"error": "not seated in this match"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[WS] Upgrade error: %v", err)
			return
		}

		client := newClient(conn, claims.PlayerID, m.ID)

		MatchHub.register <- client

		go client.writePump()
		go client.readPump()
	}
}

// runMatchHub serializes connects and disconnects.
func runMatchHub(h *Hub) {
	for {
		select {
		case client := <-h.register:
			if old := h.attach(client); old != nil {
				log.Printf("[WS] Player %s reconnecting, closing old connection", client.playerID)
				old.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "replaced by new connection"),
					time.Now().Add(5*time.Second))
				old.close()
				old.conn.Close()
			}
			log.Printf("[WS] Player %s connected to match %s", client.playerID, client.matchID)

			m, err := game.Manager.GetMatch(client.matchID)
			if err != nil {
				log.Printf("[WS] Match %s gone: %v", client.matchID, err)
				continue
			}
			m.SetPlayerConnected(client.playerID, true)
			SendMatchState(h, m, client.playerID)
			h.BroadcastToMatch(client.matchID, map[string]interface{}{
				"type":   "player_connected",
				"player": client.playerID,
			})

		case client := <-h.unregister:
			if !h.detach(client) {
				continue
			}
			client.close()
			log.Printf("[WS] Player %s disconnected from match %s", client.playerID, client.matchID)

			m, err := game.Manager.GetMatch(client.matchID)
			if err != nil {
				continue
			}
			m.SetPlayerConnected(client.playerID, false)
			if m.Snapshot().Status != game.StatusInProgress {
				continue
			}

			grace := time.Duration(game.Manager.GetConfig().DisconnectGraceSecs) * time.Second
			h.BroadcastToMatch(client.matchID, map[string]interface{}{
				"type":          "player_disconnected",
				"player":        client.playerID,
				"grace_seconds": int(grace.Seconds()),
				"message":       fmt.Sprintf("Opponent disconnected. Waiting %d seconds...", int(grace.Seconds())),
			})
			go watchDisconnect(h, m, client.playerID, grace)
		}
	}
}

// watchDisconnect forfeits the match if playerID has not returned within grace.
func watchDisconnect(h *Hub, m *game.Match, playerID string, grace time.Duration) {
	time.Sleep(grace)
	if !m.ForfeitIfDisconnected(playerID, grace) {
		return
	}
	log.Printf("[WS] Player %s forfeited match %s by disconnect", playerID, m.ID)
	game.Manager.AfterStateChange(m)
	BroadcastMatchState(h, m)
}

// readPump reads messages until the connection drops.
func (c *Client) readPump() {
	defer func() {
		MatchHub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] Unexpected close for player %s: %v", c.playerID, err)
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendError("Invalid message")
			continue
		}

		c.handleMessage(msg)
	}
}

// handleMessage dispatches one client message.
func (c *Client) handleMessage(msg WSMessage) {
	m, err := game.Manager.GetMatch(c.matchID)
	if err != nil {
		c.sendError("Match not found")
		return
	}

	switch msg.Type {
	case "take_shot":
		var data TakeShotData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("Invalid shot data")
			return
		}
		c.handleTakeShot(m, data)

	case "place_cue_ball":
		var data PlaceCueBallData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("Invalid placement data")
			return
		}
		c.handlePlaceCueBall(m, data)

	case "get_state":
		SendMatchState(MatchHub, m, c.playerID)

	case "concede":
		c.handleConcede(m)

	default:
		c.sendError("Unknown message type")
	}
}

func (c *Client) handleTakeShot(m *game.Match, data TakeShotData) {
	result, err := m.TakeShot(c.playerID, game.ShotParams{Angle: data.Angle, Power: data.Power})
	if err != nil {
		c.sendError(clientMessage(err))
		return
	}
	game.Manager.AfterShot(m, result)
	BroadcastShotResult(MatchHub, m, result)
}

func (c *Client) handlePlaceCueBall(m *game.Match, data PlaceCueBallData) {
	if err := m.PlaceCueBall(c.playerID, data.X, data.Y); err != nil {
		c.sendError(clientMessage(err))
		return
	}
	game.Manager.AfterStateChange(m)
	BroadcastCueBallPlaced(MatchHub, m, data.X, data.Y)
}

func (c *Client) handleConcede(m *game.Match) {
	if err := m.Concede(c.playerID); err != nil {
		c.sendError(clientMessage(err))
		return
	}
	game.Manager.AfterStateChange(m)
	BroadcastConcede(MatchHub, m, c.playerID)
}

// clientMessage strips wrapping context from rule errors that are safe to show.
func clientMessage(err error) string {
	for _, known := range []error{
		game.ErrNotInProgress, game.ErrNotYourTurn, game.ErrNotSeated, game.ErrBallsMoving,
		game.ErrNotBallInHand, game.ErrOutOfBounds, game.ErrOverlap,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return err.Error()
}

// SendMatchState sends playerID their view of the match.
func SendMatchState(h *Hub, m *game.Match, playerID string) {
	state := m.StateForPlayer(playerID)
	state["type"] = "match_state"
	h.SendToPlayer(playerID, state)
}

// BroadcastMatchState sends each seated player their view of the match.
func BroadcastMatchState(h *Hub, m *game.Match) {
	SendMatchState(h, m, m.Player1.ID)
	SendMatchState(h, m, m.Player2.ID)
}

// BroadcastShotResult fans a resolved shot out to the room, followed by fresh state.
func BroadcastShotResult(h *Hub, m *game.Match, result *game.ShotResult) {
	h.BroadcastToMatch(m.ID, map[string]interface{}{
		"type": "shot_result",
		"data": result,
	})
	BroadcastMatchState(h, m)
}

// BroadcastCueBallPlaced announces a ball-in-hand placement.
func BroadcastCueBallPlaced(h *Hub, m *game.Match, x, y float64) {
	h.BroadcastToMatch(m.ID, map[string]interface{}{
		"type": "ball_placed",
		"x":    x,
		"y":    y,
	})
	BroadcastMatchState(h, m)
}

// BroadcastConcede announces that playerID conceded.
func BroadcastConcede(h *Hub, m *game.Match, playerID string) {
	h.BroadcastToMatch(m.ID, map[string]interface{}{
		"type":    "player_conceded",
		"player":  playerID,
		"message": "Player conceded",
	})
	BroadcastMatchState(h, m)
}
