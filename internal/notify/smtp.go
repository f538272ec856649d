package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender delivers HTML email through an SMTP relay with PLAIN auth.
type SMTPSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string

	send sendMailFunc
	now  func() time.Time
}

func NewSMTPSender(host string, port int, user, password, from string) *SMTPSender {
	if port == 0 {
		port = 587
	}
	return &SMTPSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		send:     smtp.SendMail,
		now:      time.Now,
	}
}

func (s *SMTPSender) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var auth smtp.Auth
	if s.User != "" {
		auth = smtp.PlainAuth("", s.User, s.Password, s.Host)
	}
	addr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	msg := s.message(to, subject, htmlBody)
	if err := s.send(addr, auth, s.From, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send via %s: %w", addr, err)
	}
	return nil
}

func (s *SMTPSender) message(to, subject, htmlBody string) []byte {
	var b strings.Builder
	b.WriteString("From: AuthFlow <" + s.From + ">\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("Date: " + s.now().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(htmlBody, "\n", "\r\n"))
	return []byte(b.String())
}
