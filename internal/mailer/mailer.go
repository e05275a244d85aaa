// Package mailer delivers transactional email: verification links, password
// reset links and completion certificates. Delivery is always best-effort
// from the platform's point of view; callers decide whether a failed send is
// fatal for their flow.
package mailer

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/openstudent/platform/internal/config"
)

// Mailer sends one HTML message.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// New selects an implementation from config: SMTP when a host is configured,
// otherwise a log-only sender so development environments work without a
// relay.
func New(cfg config.Config) Mailer {
	if cfg.SMTPHost == "" {
		return LogMailer{}
	}
	from := cfg.SMTPFromEmail
	if from == "" {
		from = cfg.SMTPUser
	}
	return &SMTPMailer{
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     from,
		fromName: cfg.SMTPFromName,
	}
}

// LogMailer records the send instead of delivering it.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, to, subject, _ string) error {
	log.Printf("mail (log only): to=%s subject=%q", to, subject)
	return nil
}

// SMTPMailer sends through a plain-auth SMTP relay.
type SMTPMailer struct {
	addr     string
	host     string
	user     string
	password string
	from     string
	fromName string
}

func (s *SMTPMailer) Send(_ context.Context, to, subject, html string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", s.fromName, s.from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(html)

	var auth smtp.Auth
	if s.user != "" {
		auth = smtp.PlainAuth("", s.user, s.password, s.host)
	}
	if err := smtp.SendMail(s.addr, auth, s.from, []string{to}, []byte(b.String())); err != nil {
		log.Printf("mail: send to %s failed: %v", to, err)
		return err
	}
	return nil
}
