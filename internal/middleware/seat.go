package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/billiards/internal/auth"
	"github.com/playmatatu/billiards/internal/config"
)

// Context keys set by SeatAuth.
const (
	PlayerIDKey = "player_id"
	SeatKey     = "seat"
)

// SeatAuth validates the bearer seat token and checks it belongs to the
// match named by the :id route parameter.
func SeatAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		claims, err := auth.ParseSeatToken(cfg.JWTSecret, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if id := c.Param("id"); id != "" && id != claims.MatchID {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "token is for another match"})
			return
		}

		c.Set(PlayerIDKey, claims.PlayerID)
		c.Set(SeatKey, claims.Seat)
		c.Next()
	}
}
