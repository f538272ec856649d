package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/authflow/internal/logging"
	"github.com/iliyamo/authflow/internal/notify"
)

// confirmTimeout bounds how long a publish waits for the broker ack.
const confirmTimeout = 5 * time.Second

var errNotAcked = errors.New("rabbitmq: publish not acknowledged")

// Publisher renders verification messages and publishes them to the durable
// verification queues.  It keeps one connection and one confirm-mode channel
// open and redials after any channel error.  A publish only succeeds once the
// broker has acknowledged it.
type Publisher struct {
	url      string
	composer notify.Composer
	log      logging.Logger
	now      func() time.Time

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(url, frontendURL string, log logging.Logger) *Publisher {
	if log == nil {
		log = logging.Discard()
	}
	return &Publisher{
		url:      url,
		composer: notify.Composer{FrontendURL: frontendURL},
		log:      log,
		now:      time.Now,
	}
}

func (p *Publisher) SendVerificationEmail(ctx context.Context, email, token string) error {
	return p.publish(ctx, EmailQueue, p.emailEvent(email, token))
}

func (p *Publisher) SendVerificationSMS(ctx context.Context, phone, code string) error {
	return p.publish(ctx, SMSQueue, p.smsEvent(phone, PurposeVerifyPhone, p.composer.VerificationSMS(code)))
}

func (p *Publisher) SendLoginCode(ctx context.Context, phone, code string) error {
	return p.publish(ctx, SMSQueue, p.smsEvent(phone, PurposeLoginCode, p.composer.LoginCodeSMS(code)))
}

func (p *Publisher) emailEvent(email, token string) VerificationEmailEvent {
	link, subject, body := p.composer.VerificationEmail(token)
	return VerificationEmailEvent{
		To:       email,
		Link:     link,
		Subject:  subject,
		Body:     body,
		QueuedAt: p.now().UTC().Format(time.RFC3339),
	}
}

func (p *Publisher) smsEvent(phone, purpose, body string) VerificationSMSEvent {
	return VerificationSMSEvent{
		To:       phone,
		Purpose:  purpose,
		Body:     body,
		QueuedAt: p.now().UTC().Format(time.RFC3339),
	}
}

// newPublishing encodes ev as a persistent JSON message.
func newPublishing(ev any, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    now.UTC(),
		Body:         body,
	}, nil
}

func (p *Publisher) publish(ctx context.Context, queue string, ev any) error {
	pub, err := newPublishing(ev, p.now())
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		p.log.Warn(ctx, "rabbitmq: connect failed", "error", err)
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, confirmTimeout)
	defer cancel()

	conf, err := ch.PublishWithDeferredConfirmWithContext(ctx, "", queue, false, false, pub)
	if err != nil {
		p.reset()
		p.log.Warn(ctx, "rabbitmq: publish failed", "queue", queue, "error", err)
		return fmt.Errorf("publish %s: %w", queue, err)
	}
	acked, err := conf.WaitContext(ctx)
	if err != nil {
		p.reset()
		return fmt.Errorf("confirm %s: %w", queue, err)
	}
	if !acked {
		return errNotAcked
	}
	return nil
}

// channel returns the open confirm-mode channel, dialing if needed.  Both
// queues are declared on every fresh channel.  Caller holds p.mu.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("confirm mode: %w", err)
	}
	if err := declareQueues(ch); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}

// declareQueues makes sure both queues exist (idempotent).  Durable so
// messages survive broker restarts.
func declareQueues(ch *amqp.Channel) error {
	for _, name := range []string{EmailQueue, SMSQueue} {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
	}
	return nil
}
