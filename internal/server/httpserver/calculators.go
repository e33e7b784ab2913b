package httpserver

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengacalc/jengacalc/internal/common"
	"github.com/jengacalc/jengacalc/internal/server/calc"
	"github.com/jengacalc/jengacalc/internal/server/services"
)

const denyMessage = "Free limit reached. Subscribe for unlimited calculations."

type computeFunc func(c *gin.Context) (*calc.Result, error)

var computers = map[string]computeFunc{
	calc.Concrete:   bindAndCompute(calc.ComputeConcrete),
	calc.Walling:    bindAndCompute(calc.ComputeWalling),
	calc.Plaster:    bindAndCompute(calc.ComputePlaster),
	calc.Excavation: bindAndCompute(calc.ComputeExcavation),
}

func bindAndCompute[T any](compute func(T) (*calc.Result, error)) computeFunc {
	return func(c *gin.Context) (*calc.Result, error) {
		var in T
		if err := c.ShouldBind(&in); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
		}
		return compute(in)
	}
}

// authorize writes the DENY or failure response itself and reports whether
// the handler may continue.
func (s *HTTPServer) authorize(c *gin.Context, consuming bool) bool {
	d, err := s.svc.Access.Authorize(c.Request.Context(), identity(c), consuming)
	if err != nil {
		s.abortWithError(c, err)
		return false
	}
	if !d.Allowed {
		s.deny(c, d)
		return false
	}
	return true
}

// paywallView feeds the "paywall" template.
type paywallView struct {
	Email            string
	CalculationsUsed int64
	SubscribeURL     string
}

// deny answers browsers with the paywall page and API clients with JSON.
func (s *HTTPServer) deny(c *gin.Context, d *services.Decision) {
	view := paywallView{Email: identity(c), SubscribeURL: d.RemediationURL}
	if d.Entitlement != nil {
		view.CalculationsUsed = d.Entitlement.CalculationsUsed
	}

	switch c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) {
	case gin.MIMEJSON:
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success":          false,
			"message":          denyMessage,
			"email":            view.Email,
			"subscribeUrl":     view.SubscribeURL,
			"calculationsUsed": view.CalculationsUsed,
		})
	default:
		c.HTML(http.StatusForbidden, "paywall", view)
		c.Abort()
	}
}

func (s *HTTPServer) calculatorPage(name string) gin.HandlerFunc {
	form := calc.Forms[name]
	return func(c *gin.Context) {
		if !s.authorize(c, false) {
			return
		}
		c.HTML(http.StatusOK, "form", form)
	}
}

// calculatorSubmit validates and computes before authorizing so that a
// rejected form does not use up quota.
func (s *HTTPServer) calculatorSubmit(name string) gin.HandlerFunc {
	compute := computers[name]
	return func(c *gin.Context) {
		result, err := compute(c)
		if err != nil {
			s.abortWithError(c, err)
			return
		}
		if !s.authorize(c, true) {
			return
		}

		s.svc.Materials.Record(c.Request.Context(), name, identity(c), result.Record(), s.now())

		switch c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) {
		case gin.MIMEJSON:
			c.JSON(http.StatusOK, gin.H{"success": true, "result": result})
		default:
			c.HTML(http.StatusOK, "result", result)
		}
	}
}
