package httpserver

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengacalc/jengacalc/internal/common"
	"github.com/jengacalc/jengacalc/internal/server/paystack"
	"github.com/jengacalc/jengacalc/internal/server/services"
)

const maxWebhookBody = 1 << 20

type topUpRequest struct {
	Amount int64 `form:"amount" json:"amount" binding:"required"`
}

func (s *HTTPServer) userStatus(c *gin.Context) {
	status, err := s.svc.Access.GetEntitlement(c.Request.Context(), identity(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	remaining := status.FreeCalculations - status.CalculationsUsed
	if remaining < 0 {
		remaining = 0
	}
	c.JSON(http.StatusOK, gin.H{
		"email":               status.Email,
		"subscriptionActive":  status.SubscriptionActive,
		"subscriptionExpires": status.SubscriptionExpires,
		"tokenBalance":        status.TokenBalance,
		"calculationsUsed":    status.CalculationsUsed,
		"freeRemaining":       remaining,
	})
}

func (s *HTTPServer) subscribe(c *gin.Context) {
	auth, err := s.svc.Checkout.Subscribe(c.Request.Context(), identity(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"authorization_url": auth.AuthorizationURL,
		"reference":         auth.Reference,
	})
}

func (s *HTTPServer) topUp(c *gin.Context) {
	var req topUpRequest
	if err := c.ShouldBind(&req); err != nil {
		s.abortWithError(c, common.ErrInvalidInput)
		return
	}

	auth, err := s.svc.Checkout.TopUp(c.Request.Context(), identity(c), req.Amount)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"authorization_url": auth.AuthorizationURL,
		"access_code":       auth.AccessCode,
		"reference":         auth.Reference,
	})
}

func (s *HTTPServer) listPayments(c *gin.Context) {
	list, err := s.svc.Activator.Payments(c.Request.Context(), identity(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "payments": list})
}

// paystackWebhook acknowledges with 200 only when the event is applied,
// already applied, or irrelevant. Anything else makes the provider retry.
func (s *HTTPServer) paystackWebhook(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		s.abortWithError(c, common.ErrBadEvent)
		return
	}
	if !paystack.VerifySignature(body, c.GetHeader(paystack.SignatureHeader), s.webhookSecret) {
		s.logger.Warn(ctx, "webhook signature rejected", "remote", c.ClientIP())
		s.abortWithError(c, common.ErrBadEvent)
		return
	}

	res, err := s.svc.Activator.HandleEvent(ctx, body)
	if err != nil {
		if errors.Is(err, common.ErrBadEvent) {
			s.abortWithError(c, err)
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, s.errorBody(err))
		return
	}

	out := gin.H{"status": res.Status}
	if res.Status != services.EventIgnored {
		out["reference"] = res.Reference
	}
	c.JSON(http.StatusOK, out)
}
