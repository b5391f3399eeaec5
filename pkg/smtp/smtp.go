package smtp

import (
	"context"
	"fmt"
	"heimdall/pkg/alert"
	smtpPkg "net/smtp"
	"os"
	"strings"
)

type sendMailFunc func(addr string, a smtpPkg.Auth, from string, to []string, msg []byte) error

type smtp struct {
	auth     smtpPkg.Auth
	addr     string
	mail     string
	to       []string
	sendMail sendMailFunc
}

// New returns nil unless SMTP_MAIL and ALERT_EMAIL_TO are both set.
func New() alert.Notifier {
	mail := os.Getenv("SMTP_MAIL")
	recipients := splitRecipients(os.Getenv("ALERT_EMAIL_TO"))
	if mail == "" || len(recipients) == 0 {
		return nil
	}

	host := os.Getenv("SMTP_HOST")
	if host == "" {
		host = "smtp.gmail.com"
	}
	port := os.Getenv("SMTP_PORT")
	if port == "" {
		port = "587"
	}

	auth := smtpPkg.PlainAuth("", mail, os.Getenv("SMTP_PASSWORD"), host)
	return &smtp{
		auth:     auth,
		addr:     fmt.Sprintf("%s:%s", host, port),
		mail:     mail,
		to:       recipients,
		sendMail: smtpPkg.SendMail,
	}
}

func (s *smtp) Name() string {
	return "smtp"
}

// Notify ignores ctx; net/smtp has no cancellation hook.
func (s *smtp) Notify(_ context.Context, v alert.Violation) error {
	message := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		s.mail, strings.Join(s.to, ", "), v.Subject(), strings.ReplaceAll(v.Body(), "\n", "\r\n")))

	return s.sendMail(s.addr, s.auth, s.mail, s.to, message)
}

func splitRecipients(raw string) []string {
	var out []string
	for _, r := range strings.Split(raw, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
