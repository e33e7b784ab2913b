package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengacalc/jengacalc/internal/common"
)

type sendVerificationRequest struct {
	Email string `form:"email" json:"email" binding:"required"`
}

type verifyCodeRequest struct {
	Email string `form:"email" json:"email" binding:"required"`
	Code  string `form:"code" json:"code" binding:"required"`
}

func (s *HTTPServer) sendVerification(c *gin.Context) {
	var req sendVerificationRequest
	if err := c.ShouldBind(&req); err != nil {
		s.abortWithError(c, common.ErrInvalidEmail)
		return
	}

	if err := s.svc.Verifier.RequestCode(c.Request.Context(), req.Email); err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Verification code sent to your email."})
}

func (s *HTTPServer) verifyCode(c *gin.Context) {
	var req verifyCodeRequest
	if err := c.ShouldBind(&req); err != nil {
		s.abortWithError(c, common.ErrInvalidInput)
		return
	}

	ctx := c.Request.Context()
	email, err := s.svc.Verifier.VerifyCode(ctx, req.Email, req.Code)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	token, sess, err := s.svc.Sessions.Create(ctx, email)
	if err != nil {
		s.logger.Error(ctx, "create session failed", "email", email, "error", err)
		s.abortWithError(c, err)
		return
	}
	s.setSessionCookie(c, token)

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Email verified successfully!",
		"email":     sess.Email,
		"expiresAt": sess.ExpiresAt,
	})
}

func (s *HTTPServer) logout(c *gin.Context) {
	if token := sessionToken(c); token != "" {
		if err := s.svc.Sessions.Destroy(c.Request.Context(), token); err != nil {
			s.logger.Warn(c.Request.Context(), "destroy session failed", "error", err)
		}
	}
	s.clearSessionCookie(c)

	if c.Request.Method == http.MethodGet {
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
