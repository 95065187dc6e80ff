package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures = 5
	openTimeout = 30 * time.Second
)

type Client struct {
	url          string
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string

	failureCount int64
	state        int32
	lastFailure  time.Time
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		url:          url,
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	// Declare exchange
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	// Declare queue
	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Bind queue to exchange
	err = c.channel.QueueBind(
		c.queueName,    // queue name
		c.queueName,    // routing key (same as queue name for direct exchange)
		c.exchangeName, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// exponentialBackoff returns the wait before reconnect attempt n, capped at 30s.
func exponentialBackoff(attempt int) time.Duration {
	if attempt >= 5 {
		return 30 * time.Second
	}
	return time.Second << uint(attempt)
}

var connectionErrorFragments = []string{
	"connection refused",
	"connection closed",
	"unexpected EOF",
	"broken pipe",
	"use of closed network connection",
}

// isConnectionError reports whether err looks like a broken broker connection
// rather than a protocol or application failure.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, fragment := range connectionErrorFragments {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

// isCircuitOpen checks the circuit state, transitioning open to half-open
// once openTimeout has elapsed since the last failure.
func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}
	if time.Since(c.lastFailure) > openTimeout {
		atomic.StoreInt32(&c.state, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	count := atomic.AddInt64(&c.failureCount, 1)
	c.lastFailure = time.Now()
	if count >= maxFailures {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

// reconnect redials the broker with exponential backoff until it succeeds,
// the context is cancelled, or the circuit opens.
func (c *Client) reconnect(ctx context.Context) error {
	for attempt := 0; ; attempt++ {
		if c.isCircuitOpen() {
			return fmt.Errorf("circuit breaker is open: giving up reconnect")
		}

		conn, err := amqp091.Dial(c.url)
		if err == nil {
			channel, chErr := conn.Channel()
			if chErr == nil {
				c.conn = conn
				c.channel = channel
				if setupErr := c.setup(); setupErr == nil {
					c.recordSuccess()
					slog.InfoContext(ctx, "Reconnected to AMQP broker", "attempt", attempt)
					return nil
				}
				channel.Close()
			}
			conn.Close()
		}

		c.recordFailure()
		wait := exponentialBackoff(attempt)
		slog.WarnContext(ctx, "Reconnect attempt failed", "attempt", attempt, "retry_in", wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// PublishRateRefresh publishes a rate refresh request
func (c *Client) PublishRateRefresh(ctx context.Context, requestedBy string) error {
	if c.isCircuitOpen() {
		return fmt.Errorf("circuit breaker is open: refusing to publish")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := NewRateRefreshMessage(requestedBy)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent, // make message persistent
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		if isConnectionError(err) {
			c.recordFailure()
		}
		return fmt.Errorf("publish message: %w", err)
	}

	c.recordSuccess()
	slog.InfoContext(ctx, "Published rate refresh request",
		"requested_by", requestedBy,
		"exchange", c.exchangeName,
		"queue", c.queueName)

	return nil
}

// ConsumeRateRefresh consumes rate refresh requests
func (c *Client) ConsumeRateRefresh(ctx context.Context, handler func(*RateRefreshMessage) error) error {
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack (we want manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming rate refresh requests", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				// Broker dropped us. Redial and resubscribe.
				if err := c.reconnect(ctx); err != nil {
					return fmt.Errorf("reconnect after channel close: %w", err)
				}
				return c.ConsumeRateRefresh(ctx, handler)
			}

			msg, err := RateRefreshMessageFromJSON(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to unmarshal message", "error", err)
				delivery.Nack(false, false) // reject and don't requeue
				continue
			}

			slog.InfoContext(ctx, "Processing rate refresh request",
				"requested_by", msg.RequestedBy)

			if err := handler(msg); err != nil {
				slog.ErrorContext(ctx, "Failed to handle message",
					"error", err,
					"requested_by", msg.RequestedBy)
				delivery.Nack(false, true) // reject and requeue
				continue
			}

			delivery.Ack(false) // acknowledge successful processing
			slog.InfoContext(ctx, "Refreshed exchange rates",
				"requested_by", msg.RequestedBy)
		}
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
