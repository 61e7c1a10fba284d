package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var ErrInvalidToken = errors.New("invalid seat token")

// SeatClaims bind a player to one seat of one match.
type SeatClaims struct {
	MatchID  string `json:"match_id"`
	PlayerID string `json:"player_id"`
	Seat     int    `json:"seat"`
	jwt.RegisteredClaims
}

// IssueSeatToken signs a seat token valid for ttl.
func IssueSeatToken(secret, matchID, playerID string, seat int, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := SeatClaims{
		MatchID:  matchID,
		PlayerID: playerID,
		Seat:     seat,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   playerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseSeatToken validates a seat token and returns its claims.
func ParseSeatToken(secret, token string) (*SeatClaims, error) {
	claims := &SeatClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.MatchID == "" || claims.PlayerID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
