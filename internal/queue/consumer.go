package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/authflow/internal/logging"
	"github.com/iliyamo/authflow/internal/notify"
)

const (
	minBackoff = time.Second
	maxBackoff = 30 * time.Second
)

// errBadPayload marks messages that can never be delivered and must not be
// requeued.
var errBadPayload = errors.New("bad payload")

// Consumer drains both verification queues and delivers each message through
// a notify.Sender.
type Consumer struct {
	url      string
	sender   notify.Sender
	log      logging.Logger
	prefetch int
}

func NewConsumer(url string, sender notify.Sender, log logging.Logger) *Consumer {
	if log == nil {
		log = logging.Discard()
	}
	return &Consumer{url: url, sender: sender, log: log, prefetch: 50}
}

// Run connects, consumes, and reconnects with exponential backoff until ctx
// is cancelled.  It only returns ctx.Err().
func (c *Consumer) Run(ctx context.Context) error {
	backoff := minBackoff
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn(ctx, "dispatch-consumer: dial failed", "error", err, "retry_in", backoff.String())
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = nextBackoff(backoff)
			continue
		}
		backoff = minBackoff

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn(ctx, "dispatch-consumer: consume loop ended; reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		c.log.Warn(ctx, "dispatch-consumer: set QoS failed", "error", err)
	}
	if err := declareQueues(ch); err != nil {
		return err
	}

	emails, err := ch.Consume(EmailQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", EmailQueue, err)
	}
	texts, err := ch.Consume(SMSQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", SMSQueue, err)
	}
	c.log.Info(ctx, "dispatch-consumer: consuming", "queues", []string{EmailQueue, SMSQueue})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-emails:
			if !ok {
				return errors.New("email deliveries channel closed")
			}
			c.settle(ctx, d, EmailQueue)
		case d, ok := <-texts:
			if !ok {
				return errors.New("sms deliveries channel closed")
			}
			c.settle(ctx, d, SMSQueue)
		}
	}
}

// settle acks delivered messages, drops undecodable ones and requeues
// transient send failures.
func (c *Consumer) settle(ctx context.Context, d amqp.Delivery, queue string) {
	err := c.Handle(ctx, queue, d.Body)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, errBadPayload):
		c.log.Error(ctx, "dispatch-consumer: dropping message", "queue", queue, "error", err)
		_ = d.Nack(false, false)
	default:
		c.log.Warn(ctx, "dispatch-consumer: delivery failed; requeueing", "queue", queue, "error", err)
		_ = d.Nack(false, true)
	}
}

// Handle decodes one message from queue and delivers it.
func (c *Consumer) Handle(ctx context.Context, queue string, body []byte) error {
	switch queue {
	case EmailQueue:
		var ev VerificationEmailEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("%w: unmarshal: %v", errBadPayload, err)
		}
		if ev.To == "" {
			return fmt.Errorf("%w: missing recipient", errBadPayload)
		}
		return c.sender.SendEmail(ctx, ev.To, ev.Subject, ev.Body)
	case SMSQueue:
		var ev VerificationSMSEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("%w: unmarshal: %v", errBadPayload, err)
		}
		if ev.To == "" {
			return fmt.Errorf("%w: missing recipient", errBadPayload)
		}
		return c.sender.SendSMS(ctx, ev.To, ev.Body)
	}
	return fmt.Errorf("%w: unknown queue %q", errBadPayload, queue)
}

func nextBackoff(d time.Duration) time.Duration {
	if d *= 2; d > maxBackoff {
		return maxBackoff
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
