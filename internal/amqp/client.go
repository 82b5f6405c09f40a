package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"wrapped/internal/log"
)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures     = 5
	openTimeout     = 30 * time.Second
	maxAttempts     = 3
	publishTimeout  = 5 * time.Second
	maxBackoffDelay = 30 * time.Second
)

// ErrCircuitOpen is returned while the broker is considered unavailable.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type (
	channel interface {
		ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
		PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
		Close() error
	}

	connection interface {
		Channel() (channel, error)
		Close() error
	}

	dialFunc func(url string) (connection, error)
)

type amqpConnection struct{ *amqp091.Connection }

func (c amqpConnection) Channel() (channel, error) { return c.Connection.Channel() }

func dialAMQP(url string) (connection, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, err
	}
	return amqpConnection{conn}, nil
}

// Client publishes recap messages to a topic exchange. Connections are
// opened lazily and re-established after connection errors.
type Client struct {
	url          string
	exchangeName string
	routingKey   string
	logger       *log.Logger
	dial         dialFunc
	sleep        func(ctx context.Context, d time.Duration) error

	mu      sync.Mutex
	conn    connection
	channel channel

	state        int32
	failureCount int64
	lastFailure  time.Time
}

// NewClient connects to url and declares the exchange.
func NewClient(url, exchangeName, routingKey string, logger *log.Logger) (*Client, error) {
	c := newClient(url, exchangeName, routingKey, logger, dialAMQP)
	if _, err := c.ensureChannel(); err != nil {
		return nil, err
	}
	return c, nil
}

func newClient(url, exchangeName, routingKey string, logger *log.Logger, dial dialFunc) *Client {
	if logger == nil {
		logger = log.Discard()
	}
	return &Client{
		url:          url,
		exchangeName: exchangeName,
		routingKey:   routingKey,
		logger:       logger.WithComponent(log.ComponentAMQP),
		dial:         dial,
		sleep:        sleepContext,
	}
}

func (c *Client) ensureChannel() (channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		return c.channel, nil
	}
	if c.dial == nil {
		return nil, errors.New("amqp client not initialized")
	}

	conn, err := c.dial(c.url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		c.exchangeName, // name
		"topic",        // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	c.conn, c.channel = conn, ch
	return ch, nil
}

func (c *Client) resetConnection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// PublishRecap publishes msg, retrying connection errors with exponential backoff.
func (c *Client) PublishRecap(ctx context.Context, msg *RecapMessage) error {
	if c.isCircuitOpen() {
		return fmt.Errorf("publish recap %s: %w", msg.ID, ErrCircuitOpen)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	key := msg.RoutingKey(c.routingKey)

	for attempt := 0; ; attempt++ {
		err = c.publishOnce(ctx, key, msg, body)
		if err == nil {
			c.recordSuccess()
			c.logger.InfoContext(ctx, "Published recap message",
				"id", msg.ID,
				log.FieldYear, msg.Year,
				log.FieldExchange, c.exchangeName,
				log.FieldRoutingKey, key)
			return nil
		}

		c.recordFailure()
		if !isConnectionError(err) || attempt+1 >= maxAttempts {
			return fmt.Errorf("publish message: %w", err)
		}
		c.resetConnection()

		delay := exponentialBackoff(attempt)
		c.logger.WarnContext(ctx, "Publish failed, reconnecting",
			log.FieldError, err.Error(), "attempt", attempt+1, "retry_in", delay)
		if err := c.sleep(ctx, delay); err != nil {
			return err
		}
	}
}

func (c *Client) publishOnce(ctx context.Context, key string, msg *RecapMessage, body []byte) error {
	ch, err := c.ensureChannel()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	return ch.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		key,            // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    msg.ID,
			Type:         MessageType,
			Timestamp:    msg.Timestamp,
			Body:         body,
		},
	)
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}
	c.mu.Lock()
	last := c.lastFailure
	c.mu.Unlock()
	if time.Since(last) > openTimeout {
		atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	c.mu.Lock()
	c.lastFailure = time.Now()
	c.mu.Unlock()
	if atomic.AddInt64(&c.failureCount, 1) >= maxFailures || atomic.LoadInt32(&c.state) == StateHalfOpen {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

func exponentialBackoff(attempt int) time.Duration {
	if attempt >= 5 {
		return maxBackoffDelay
	}
	d := time.Second << attempt
	if d > maxBackoffDelay {
		return maxBackoffDelay
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := err.Error()
	for _, s := range []string{"connection refused", "connection closed", "EOF", "broken pipe", "use of closed network connection", "channel/connection is not open"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}
