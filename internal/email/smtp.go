// Package email delivers generated outreach over SMTP.
package email

import (
	"context"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"

	"leadpilot_backend/platform/apperr"
	"leadpilot_backend/platform/config"
	"leadpilot_backend/platform/logger"
)

// SMTPSender sends outreach emails via a direct SMTP connection.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
	log       *logger.Logger
}

// NewSMTPSender creates a sender from the email config. Returns nil when
// SMTP is not configured; callers treat a nil sender as delivery disabled.
func NewSMTPSender(cfg config.EmailConfig, log *logger.Logger) *SMTPSender {
	if !cfg.IsEmailEnabled() {
		return nil
	}
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
		log:       log,
	}
}

// SendOutreach delivers a drafted outreach email as plain text. Delivery
// failures surface as BadGateway so the send endpoint reports them while
// draft generation stays unaffected.
func (s *SMTPSender) SendOutreach(ctx context.Context, to, subject, body string) error {
	const op = "email.SendOutreach"

	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return apperr.Wrap(apperr.KindInternal, "invalid sender address", err).WithOp(op)
	}
	if err := msg.To(to); err != nil {
		return apperr.Wrap(apperr.KindValidation, "invalid recipient address", err).WithOp(op)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to build smtp client", err).WithOp(op)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return apperr.Wrap(apperr.KindBadGateway, "smtp delivery failed", err).WithOp(op)
	}

	s.log.Info("outreach email sent", "to", to, "subject", subject)
	return nil
}
