package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/billiards/internal/auth"
	"github.com/playmatatu/billiards/internal/game"
)

const maxDisplayNameLen = 50

// letters, numbers, punctuation, symbols and space separators
var validName = regexp.MustCompile(`^[\p{L}\p{N}\p{P}\p{S}\p{Zs}]+$`)

// normalizeDisplayName trims name and falls back when it is empty.
// It returns "" when the name is not acceptable.
func normalizeDisplayName(name, fallback string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback
	}
	if len(name) > maxDisplayNameLen || !validName.MatchString(name) {
		return ""
	}
	return name
}

// errorStatus maps match errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, game.ErrMatchNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrNotSeated), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusForbidden
	case errors.Is(err, game.ErrInvalidPower), errors.Is(err, game.ErrOutOfBounds),
		errors.Is(err, game.ErrOverlap), errors.Is(err, game.ErrInvalidOption):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrArchiveDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, game.ErrNotInProgress), errors.Is(err, game.ErrNotYourTurn),
		errors.Is(err, game.ErrBallsMoving), errors.Is(err, game.ErrNotBallInHand),
		errors.Is(err, game.ErrAlreadyInProgress):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError writes err with its mapped status.
func respondError(c *gin.Context, err error) {
	status := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	c.JSON(status, gin.H{"error": msg})
}
