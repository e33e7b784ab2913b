// Package notify delivers verification codes to users.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/jengacalc/jengacalc/internal/common"
	"github.com/jengacalc/jengacalc/internal/logging"
)

// Subject of the verification email.
const Subject = "Your Construction Calculator Verification Code"

// Notifier sends a one-time code to email. Any failure is reported as
// common.ErrNotifierUnavailable.
type Notifier interface {
	Send(ctx context.Context, email, code string) error
}

// SMTPConfig holds the mail relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// SMTPNotifier sends plain-text + HTML mail through an SMTP relay.
type SMTPNotifier struct {
	cfg    SMTPConfig
	logger logging.Logger
}

// sendMail is a seam for testing smtp.SendMail.
var sendMail = smtp.SendMail

func NewSMTPNotifier(cfg SMTPConfig, logger logging.Logger) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, logger: logger.With("module", "notify")}
}

func (n *SMTPNotifier) Send(ctx context.Context, email, code string) error {
	addr := n.cfg.Host + ":" + strconv.Itoa(n.cfg.Port)

	var auth smtp.Auth
	if n.cfg.User != "" {
		auth = smtp.PlainAuth("", n.cfg.User, n.cfg.Password, n.cfg.Host)
	}

	if err := sendMail(addr, auth, n.cfg.From, []string{email}, buildMessage(n.cfg.From, email, code)); err != nil {
		n.logger.Error(ctx, "smtp send failed", "email", email, "error", err)
		return fmt.Errorf("%w: %v", common.ErrNotifierUnavailable, err)
	}

	n.logger.Info(ctx, "verification email sent", "email", email)
	return nil
}

func buildMessage(from, to, code string) []byte {
	const boundary = "jengacalc-boundary"

	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: multipart/alternative; boundary=" + boundary + "\r\n\r\n")

	b.WriteString("--" + boundary + "\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString("Your Construction Calculator verification code is " + code + ".\r\n")
	b.WriteString("The code expires in 15 minutes. If you did not request it, ignore this email.\r\n\r\n")

	b.WriteString("--" + boundary + "\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">`)
	b.WriteString(`<h1>Construction Calculator</h1><p>Please use the verification code below to verify your email address:</p>`)
	b.WriteString(`<p style="font-size: 32px; font-weight: bold; letter-spacing: 5px;">` + code + `</p>`)
	b.WriteString(`<p>This code expires in 15 minutes.</p></div>` + "\r\n\r\n")

	b.WriteString("--" + boundary + "--\r\n")
	return []byte(b.String())
}

// LogNotifier writes the code to the log instead of sending mail. For
// development only.
type LogNotifier struct {
	logger logging.Logger
}

func NewLogNotifier(logger logging.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("module", "notify")}
}

func (n *LogNotifier) Send(ctx context.Context, email, code string) error {
	n.logger.Warn(ctx, "development notifier: verification code", "email", email, "code", code)
	return nil
}

// Disabled always fails. Used when no mail relay is configured outside
// development.
type Disabled struct{}

func (Disabled) Send(context.Context, string, string) error {
	return common.ErrNotifierUnavailable
}
