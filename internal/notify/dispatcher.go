package notify

import "context"

// LogDispatcher delivers synchronously through a Sender, without a broker.
// With a FileSender behind it, verification links and codes end up in
// logs/dispatch.log, which is all a local run needs.
type LogDispatcher struct {
	Composer Composer
	Sender   Sender
}

func NewLogDispatcher(frontendURL string, sender Sender) *LogDispatcher {
	return &LogDispatcher{Composer: Composer{FrontendURL: frontendURL}, Sender: sender}
}

func (d *LogDispatcher) SendVerificationEmail(ctx context.Context, email, token string) error {
	_, subject, body := d.Composer.VerificationEmail(token)
	return d.Sender.SendEmail(ctx, email, subject, body)
}

func (d *LogDispatcher) SendVerificationSMS(ctx context.Context, phone, code string) error {
	return d.Sender.SendSMS(ctx, phone, d.Composer.VerificationSMS(code))
}

func (d *LogDispatcher) SendLoginCode(ctx context.Context, phone, code string) error {
	return d.Sender.SendSMS(ctx, phone, d.Composer.LoginCodeSMS(code))
}
