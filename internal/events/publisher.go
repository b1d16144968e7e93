// Package events publishes ledger state changes to an AMQP exchange.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/mmynk/fintrack/internal/ledger"
	"github.com/mmynk/fintrack/internal/models"
)

// Circuit states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	publishTimeout = 5 * time.Second
)

var errCircuitOpen = errors.New("circuit breaker is open")

// channel is the subset of *amqp091.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// session is a channel that can also declare the topology.
type session interface {
	channel
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp091.Table) error
}

// dialFunc opens a connection and a channel on it.
type dialFunc func(url string) (io.Closer, session, error)

func dialAMQP(url string) (io.Closer, session, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to dial AMQP: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}
	return conn, ch, nil
}

// open dials and declares the exchange and queue.
func open(dial dialFunc, url, exchange, queue string) (io.Closer, session, error) {
	conn, ch, err := dial(url)
	if err != nil {
		return nil, nil, err
	}
	if err := setup(ch, exchange, queue); err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("failed to set up exchange and queue: %w", err)
	}
	return conn, ch, nil
}

// Publisher implements ledger.Notifier over a durable direct exchange.
// After maxFailures consecutive publish errors it stops trying for
// openTimeout and fails fast.
type Publisher struct {
	url      string
	exchange string
	queue    string
	dial     dialFunc

	mu   sync.Mutex
	conn io.Closer
	ch   channel

	state        int32
	failureCount int64
	lastFailure  time.Time

	now func() time.Time
}

var _ ledger.Notifier = (*Publisher)(nil)

// NewPublisher dials url and declares exchange along with a durable queue
// bound to every routing key.
func NewPublisher(url, exchange, queue string) (*Publisher, error) {
	conn, ch, err := open(dialAMQP, url, exchange, queue)
	if err != nil {
		return nil, err
	}

	return &Publisher{
		url:      url,
		exchange: exchange,
		queue:    queue,
		dial:     dialAMQP,
		conn:     conn,
		ch:       ch,
		now:      time.Now,
	}, nil
}

func setup(ch session, exchange, queue string) error {
	if err := ch.ExchangeDeclare(exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	if queue == "" {
		return nil
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	for _, key := range []string{KeyMonthClosed, KeyHoldingChanged} {
		if err := ch.QueueBind(queue, key, exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue to %s: %w", key, err)
		}
	}
	return nil
}

// MonthClosed publishes a month.closed event.
func (p *Publisher) MonthClosed(ctx context.Context, snap *models.MonthlySnapshot) error {
	return p.publish(ctx, KeyMonthClosed, newMonthClosed(snap, p.now()))
}

// HoldingChanged publishes a holding.changed event.
func (p *Publisher) HoldingChanged(ctx context.Context, change ledger.HoldingChange) error {
	return p.publish(ctx, KeyHoldingChanged, newHoldingChanged(change, p.now()))
}

func (p *Publisher) publish(ctx context.Context, key string, msg any) error {
	if p.isCircuitOpen() {
		return fmt.Errorf("failed to publish %s: %w", key, errCircuitOpen)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal %s message: %w", key, err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	ch := p.ch
	p.mu.Unlock()
	if ch == nil {
		p.recordFailure()
		return fmt.Errorf("failed to publish %s: channel closed", key)
	}

	err = ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    p.now(),
		Body:         body,
	})
	if err != nil {
		p.recordFailure()
		if isConnectionError(err) {
			p.reconnect()
		}
		return fmt.Errorf("failed to publish %s: %w", key, err)
	}

	p.recordSuccess()
	slog.DebugContext(ctx, "Published event", "routing_key", key, "exchange", p.exchange)
	return nil
}

// reconnect replaces a dead connection and redeclares the topology.
// Failures leave the channel nil so the breaker keeps counting.
func (p *Publisher) reconnect() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
	if p.dial == nil {
		return
	}

	conn, ch, err := open(p.dial, p.url, p.exchange, p.queue)
	if err != nil {
		slog.Warn("AMQP reconnect failed", "error", err)
		return
	}
	p.conn, p.ch = conn, ch
	slog.Info("AMQP reconnected", "exchange", p.exchange)
}

func (p *Publisher) isCircuitOpen() bool {
	if atomic.LoadInt32(&p.state) != StateOpen {
		return false
	}
	p.mu.Lock()
	last := p.lastFailure
	p.mu.Unlock()
	if p.now().Sub(last) > openTimeout {
		atomic.CompareAndSwapInt32(&p.state, StateOpen, StateHalfOpen)
		return false
	}
	return true
}

func (p *Publisher) recordSuccess() {
	atomic.StoreInt64(&p.failureCount, 0)
	atomic.StoreInt32(&p.state, StateClosed)
}

func (p *Publisher) recordFailure() {
	p.mu.Lock()
	p.lastFailure = p.now()
	p.mu.Unlock()

	n := atomic.AddInt64(&p.failureCount, 1)
	if n >= maxFailures || atomic.LoadInt32(&p.state) == StateHalfOpen {
		if atomic.SwapInt32(&p.state, StateOpen) != StateOpen {
			slog.Warn("AMQP circuit opened", "failures", n)
		}
	}
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := err.Error()
	for _, s := range []string{"connection", "EOF", "broken pipe", "channel/connection is not open"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// Close shuts the channel and connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		err := p.conn.Close()
		p.conn = nil
		return err
	}
	return nil
}
