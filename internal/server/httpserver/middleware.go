package httpserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengacalc/jengacalc/internal/common"
)

func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// sessionToken reads the session cookie, falling back to a bearer token.
func sessionToken(c *gin.Context) string {
	if token, err := c.Cookie(common.SessionCookieName); err == nil && token != "" {
		return token
	}
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// requireSession resolves the verified identity and stores it under
// common.IdentityContextKey. Pages redirect to the login form; API calls get
// a JSON error.
func (s *HTTPServer) requireSession(redirect bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := s.svc.Sessions.Resolve(c.Request.Context(), sessionToken(c))
		if err != nil {
			if errors.Is(err, common.ErrStorageFailure) {
				s.logger.Error(c.Request.Context(), "session lookup failed", "error", err)
				s.abortWithError(c, err)
				return
			}
			if redirect {
				c.Redirect(http.StatusSeeOther, "/login")
				c.Abort()
				return
			}
			s.abortWithError(c, err)
			return
		}
		c.Set(common.IdentityContextKey, sess.Email)
		c.Next()
	}
}

func identity(c *gin.Context) string {
	return c.GetString(common.IdentityContextKey)
}

func (s *HTTPServer) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(common.SessionCookieName, token, int(s.sessionTTL/time.Second), "/", "", s.secureCookie, true)
}

func (s *HTTPServer) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(common.SessionCookieName, "", -1, "/", "", s.secureCookie, true)
}
