package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/codedrop/session"
)

// Participants identify themselves with an opaque id header; a friendly
// nickname is optional and generated server-side when absent.
const (
	HeaderParticipantID   = "X-Participant-Id"
	HeaderParticipantName = "X-Participant-Name"
)

func participantID(c *gin.Context) string {
	return c.GetHeader(HeaderParticipantID)
}

func participantName(c *gin.Context) string {
	return c.GetHeader(HeaderParticipantName)
}

// statusForSessionError maps registry sentinel errors onto HTTP statuses.
func statusForSessionError(err error) int {
	switch {
	case errors.Is(err, session.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrSessionExpired):
		return http.StatusGone
	case errors.Is(err, session.ErrAlreadyJoined),
		errors.Is(err, session.ErrInvalidState),
		errors.Is(err, session.ErrIncompleteTransfer):
		return http.StatusConflict
	case errors.Is(err, session.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, session.ErrInvalidIndex),
		errors.Is(err, session.ErrInvalidChunkSize):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
