package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengacalc/jengacalc/internal/common"
)

var statusByError = []struct {
	err    error
	status int
}{
	{common.ErrRateLimited, http.StatusTooManyRequests},
	{common.ErrNotifierUnavailable, http.StatusServiceUnavailable},
	{common.ErrStorageFailure, http.StatusServiceUnavailable},
	{common.ErrProviderUnavailable, http.StatusBadGateway},
	{common.ErrorUnauthorized, http.StatusUnauthorized},
	{common.ErrInvalidToken, http.StatusUnauthorized},
	{common.ErrSessionExpired, http.StatusUnauthorized},
	{common.ErrInvalidEmail, http.StatusBadRequest},
	{common.ErrDisposableDomain, http.StatusBadRequest},
	{common.ErrUnknownDomain, http.StatusBadRequest},
	{common.ErrNoChallenge, http.StatusBadRequest},
	{common.ErrChallengeExpired, http.StatusBadRequest},
	{common.ErrTooManyAttempts, http.StatusBadRequest},
	{common.ErrCodeMismatch, http.StatusBadRequest},
	{common.ErrInvalidInput, http.StatusBadRequest},
	{common.ErrBadEvent, http.StatusBadRequest},
	{common.ErrorNotFound, http.StatusNotFound},
}

func statusFor(err error) int {
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

// errorBody never carries internal detail outside development.
func (s *HTTPServer) errorBody(err error) gin.H {
	body := gin.H{"success": false, "message": common.Message(err)}
	if s.development {
		body["error"] = err.Error()
	}
	return body
}

func (s *HTTPServer) abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), s.errorBody(err))
}
