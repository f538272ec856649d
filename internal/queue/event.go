// Package queue carries verification messages over RabbitMQ: the publisher
// side is the service's Dispatcher, the consumer side hands each message to a
// notify.Sender.
package queue

const (
	EmailQueue = "verification.email"
	SMSQueue   = "verification.sms"
)

// SMS purposes.
const (
	PurposeVerifyPhone = "verify_phone"
	PurposeLoginCode   = "login_code"
)

// VerificationEmailEvent is a fully rendered email ready for delivery.
type VerificationEmailEvent struct {
	To       string `json:"to"`
	Link     string `json:"link"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	QueuedAt string `json:"queued_at"`
}

// VerificationSMSEvent is a fully rendered text message.
type VerificationSMSEvent struct {
	To       string `json:"to"`
	Purpose  string `json:"purpose"`
	Body     string `json:"body"`
	QueuedAt string `json:"queued_at"`
}
