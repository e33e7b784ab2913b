package httpserver

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengacalc/jengacalc/internal/server/calc"
)

var pages = template.Must(template.New("pages").Parse(`
{{define "head"}}<html><head><meta charset="utf-8"><title>Construction Calculator</title><link rel="stylesheet" href="/styles.css"></head><body>{{end}}
{{define "foot"}}</body></html>{{end}}

{{define "login"}}{{template "head"}}
<h1>Construction Calculator</h1>
<form id="send" method="POST" action="/auth/send-verification">
  <label for="email">Email</label>
  <input type="email" name="email" placeholder="yourname@gmail.com" required>
  <input type="submit" value="Send code">
</form>
<form id="verify" method="POST" action="/auth/verify-code">
  <input type="email" name="email" placeholder="yourname@gmail.com" required>
  <input type="text" name="code" placeholder="6-digit code" maxlength="6" required>
  <input type="submit" value="Verify">
</form>
{{template "foot"}}{{end}}

{{define "home"}}{{template "head"}}
<h1>Construction Calculator</h1>
<p>Signed in as {{.Email}}</p>
<ul>{{range .Calculators}}<li><a href="/{{.}}">{{.}}</a></li>{{end}}</ul>
<a href="/auth/logout">Logout</a>
{{template "foot"}}{{end}}

{{define "form"}}{{template "head"}}
<h1>{{.Title}}</h1>
<form action="/{{.Name}}/submit" method="POST">
{{range .Fields}}  <label for="{{.Name}}">{{.Label}}</label>
  <input type="{{.Type}}" step="any" name="{{.Name}}" placeholder="{{.Placeholder}}" required>
{{end}}  <input type="submit" value="Calculate">
</form>
{{template "foot"}}{{end}}

{{define "result"}}{{template "head"}}
<h1>{{.Title}}</h1>
{{range .Header}}<p>{{.}}</p>{{end}}
<h2>Materials</h2>
<ul>
{{range .Lines}}  <li>{{.}}</li>
{{end}}  <li>materials ... {{.Materials}}</li>
  <li>labor ... {{.Labor}}</li>
  <li>subtotal ... {{.Total}}</li>
</ul>
<a href="/{{.Calculator}}">Go Back</a>
{{template "foot"}}{{end}}

{{define "paywall"}}{{template "head"}}
<h1>Free limit reached</h1>
<p>{{.Email}} has used {{.CalculationsUsed}} free calculations.</p>
<p>Subscribe for unlimited access to all the construction calculators.</p>
<a href="{{.SubscribeURL}}">Subscribe Now</a>
<a href="/auth/logout">Logout</a>
{{template "foot"}}{{end}}

{{define "payment_success"}}{{template "head"}}
<h1>Payment Successful!</h1>
<p>Your payment has been processed successfully.</p>
<p>You can now access all the construction calculators.</p>
<a href="/">Go to Calculators</a>
{{template "foot"}}{{end}}
`))

func (s *HTTPServer) loginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login", nil)
}

func (s *HTTPServer) homePage(c *gin.Context) {
	c.HTML(http.StatusOK, "home", gin.H{"Email": identity(c), "Calculators": calc.Names})
}

func (s *HTTPServer) paymentSuccessPage(c *gin.Context) {
	c.HTML(http.StatusOK, "payment_success", nil)
}

func (s *HTTPServer) healthz(c *gin.Context) {
	if s.svc.Health != nil {
		if err := s.svc.Health(c.Request.Context()); err != nil {
			s.logger.Error(c.Request.Context(), "health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
