package notify

import "context"

type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
}

type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Sender delivers both kinds of message.
type Sender interface {
	EmailSender
	SMSSender
}

// Split routes email and SMS to different backends, e.g. SMTP for mail and
// Twilio for texts.
type Split struct {
	Email EmailSender
	SMS   SMSSender
}

func (s Split) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	return s.Email.SendEmail(ctx, to, subject, htmlBody)
}

func (s Split) SendSMS(ctx context.Context, to, body string) error {
	return s.SMS.SendSMS(ctx, to, body)
}
