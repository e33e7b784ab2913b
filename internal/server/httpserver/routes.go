package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengacalc/jengacalc/internal/server/calc"
)

func (s *HTTPServer) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.SetHTMLTemplate(pages)

	r.GET("/healthz", s.healthz)
	r.GET("/login", s.loginPage)
	r.GET("/payment-success", s.paymentSuccessPage)
	r.POST("/webhook/paystack", s.paystackWebhook)

	authGroup := r.Group("/auth")
	authGroup.POST("/send-verification", s.sendVerification)
	authGroup.POST("/verify-code", s.verifyCode)
	authGroup.POST("/logout", s.logout)
	authGroup.GET("/logout", s.logout)

	api := r.Group("/api", s.requireSession(false))
	api.GET("/user/status", s.userStatus)
	api.GET("/paystack/subscribe", s.subscribe)
	api.POST("/pay", s.topUp)
	api.GET("/payments", s.listPayments)

	pagesGroup := r.Group("/", s.requireSession(true))
	pagesGroup.GET("/", s.homePage)
	for _, name := range calc.Names {
		pagesGroup.GET("/"+name, s.calculatorPage(name))
		pagesGroup.POST("/"+name+"/submit", s.calculatorSubmit(name))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Not found."})
	})
	return r
}
