package scm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vvatanabe/scm/internal/constant"
	"go.uber.org/zap"
)

const defaultMaximumAttempts = 0 // unlimited

// ErrConsumerClosed is returned by StartConsuming after Shutdown has been called.
var ErrConsumerClosed = errors.New("scm: Consumer closed")

// ConsumerOptions contains configuration options for a Consumer.
type ConsumerOptions struct {
	// PollingInterval is the pause between two reads of the notification list.
	PollingInterval time.Duration
	// Concurrency is the number of workers handing notifications to the processor.
	Concurrency int
	// MaximumAttempts is how many times a failing notification is processed before
	// it is marked read anyway. Zero retries forever.
	MaximumAttempts int
	// Logger receives processing failures. Defaults to a no-op logger.
	Logger *zap.Logger
	// OnShutdown functions run, each in its own goroutine, when Shutdown is called.
	OnShutdown []func()
}

// WithPollingInterval sets the pause between two reads of the notification list.
func WithPollingInterval(pollingInterval time.Duration) func(o *ConsumerOptions) {
	return func(o *ConsumerOptions) {
		o.PollingInterval = pollingInterval
	}
}

// WithConcurrency sets the number of workers. Values below 1 are raised to 1.
func WithConcurrency(concurrency int) func(o *ConsumerOptions) {
	return func(o *ConsumerOptions) {
		o.Concurrency = concurrency
	}
}

// WithMaximumAttempts sets how many failed attempts a notification gets before it
// is marked read anyway. Zero, the default, retries forever.
func WithMaximumAttempts(maximumAttempts int) func(o *ConsumerOptions) {
	return func(o *ConsumerOptions) {
		o.MaximumAttempts = maximumAttempts
	}
}

// WithLogger sets the logger for processing failures.
func WithLogger(logger *zap.Logger) func(o *ConsumerOptions) {
	return func(o *ConsumerOptions) {
		o.Logger = logger
	}
}

// WithOnShutdown registers functions to run when Shutdown is called.
func WithOnShutdown(onShutdown []func()) func(o *ConsumerOptions) {
	return func(o *ConsumerOptions) {
		o.OnShutdown = onShutdown
	}
}

// NewConsumer creates a Consumer that hands every unread notification of client to processor.
func NewConsumer(client Client, processor NotificationProcessor, opts ...func(o *ConsumerOptions)) *Consumer {
	o := &ConsumerOptions{
		PollingInterval: constant.DefaultPollingInterval,
		Concurrency:     constant.DefaultConcurrency,
		MaximumAttempts: defaultMaximumAttempts,
		Logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.Concurrency < 1 {
		o.Concurrency = 1
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return &Consumer{
		client:          client,
		processor:       processor,
		pollingInterval: o.PollingInterval,
		concurrency:     o.Concurrency,
		maximumAttempts: o.MaximumAttempts,
		logger:          o.Logger,
		onShutdown:      o.OnShutdown,
		active:          make(map[string]struct{}),
		attempts:        make(map[string]int),
		doneChan:        make(chan struct{}),
	}
}

// NotificationProcessor handles one notification. A nil error marks it read.
type NotificationProcessor interface {
	Process(ctx context.Context, n *Notification) error
}

// NotificationProcessorFunc adapts a function to NotificationProcessor.
type NotificationProcessorFunc func(ctx context.Context, n *Notification) error

// Process calls f(ctx, n).
func (f NotificationProcessorFunc) Process(ctx context.Context, n *Notification) error {
	return f(ctx, n)
}

// Consumer polls the notification list and dispatches unread notifications.
// Use NewConsumer to create one.
type Consumer struct {
	client          Client
	processor       NotificationProcessor
	pollingInterval time.Duration
	concurrency     int
	maximumAttempts int
	logger          *zap.Logger
	onShutdown      []func()

	inShutdown int32
	mu         sync.Mutex
	active     map[string]struct{}
	attempts   map[string]int
	activeWG   sync.WaitGroup
	doneChan   chan struct{}
}

// StartConsuming blocks until Shutdown is called, in which case it returns
// ErrConsumerClosed, or until listing fails with a non-temporary error.
func (c *Consumer) StartConsuming() error {
	jobs := make(chan *Notification, c.concurrency)
	defer close(jobs)

	for i := 0; i < c.concurrency; i++ {
		go func() {
			for n := range jobs {
				c.processNotification(context.Background(), n)
			}
		}()
	}

	for {
		if c.shuttingDown() {
			return ErrConsumerClosed
		}
		out, err := c.client.ListNotifications(context.Background(), &ListNotificationsInput{})
		if err != nil {
			if c.shuttingDown() {
				return ErrConsumerClosed
			}
			if !isTemporary(err) {
				return fmt.Errorf("scm: Failed to list notifications: %w", err)
			}
			c.logger.Warn("failed to list notifications", zap.Error(err))
		} else {
			if err := c.dispatch(jobs, out.Notifications); err != nil {
				return err
			}
		}
		select {
		case <-c.doneChan:
			return ErrConsumerClosed
		case <-time.After(c.pollingInterval):
		}
	}
}

// Oldest first, so consumers see events in the order they happened.
func (c *Consumer) dispatch(jobs chan<- *Notification, notifications []*Notification) error {
	for i := len(notifications) - 1; i >= 0; i-- {
		n := notifications[i]
		if n.Read || !c.track(n.ID) {
			continue
		}
		select {
		case jobs <- n:
		case <-c.doneChan:
			c.untrack(n.ID)
			return ErrConsumerClosed
		}
	}
	return nil
}

func (c *Consumer) processNotification(ctx context.Context, n *Notification) {
	defer c.untrack(n.ID)
	if c.exhausted(n.ID) {
		// Already given up on; only marking it read is left.
		c.markRead(ctx, n)
		return
	}
	if err := c.processor.Process(ctx, n); err != nil {
		c.handleError(ctx, n, err)
		return
	}
	c.markRead(ctx, n)
}

func (c *Consumer) handleError(ctx context.Context, n *Notification, err error) {
	attempts := c.recordAttempt(n.ID)
	if c.maximumAttempts == 0 || attempts < c.maximumAttempts {
		c.logger.Warn("failed to process notification, will retry",
			zap.String("id", n.ID), zap.Int("attempts", attempts), zap.Error(err))
		return
	}
	c.logger.Error("giving up on notification",
		zap.String("id", n.ID), zap.Int("attempts", attempts), zap.Error(err))
	c.markRead(ctx, n)
}

// markRead drops the attempt count only once the notification is stored as read,
// so a failed mark keeps a given-up notification from being processed again.
func (c *Consumer) markRead(ctx context.Context, n *Notification) {
	if _, err := c.client.MarkNotificationRead(ctx, &MarkNotificationReadInput{ID: n.ID}); err != nil {
		c.logger.Error("failed to mark notification read", zap.String("id", n.ID), zap.Error(err))
		return
	}
	c.forget(n.ID)
}

// track reports false when id is already being processed or the consumer is shutting down.
func (c *Consumer) track(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shuttingDown() {
		return false
	}
	if _, ok := c.active[id]; ok {
		return false
	}
	c.active[id] = struct{}{}
	c.activeWG.Add(1)
	return true
}

func (c *Consumer) untrack(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.active, id)
	c.activeWG.Done()
}

func (c *Consumer) recordAttempt(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attempts[id]++
	return c.attempts[id]
}

func (c *Consumer) exhausted(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maximumAttempts > 0 && c.attempts[id] >= c.maximumAttempts
}

func (c *Consumer) forget(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.attempts, id)
}

func (c *Consumer) shuttingDown() bool {
	return atomic.LoadInt32(&c.inShutdown) != 0
}

// Shutdown stops polling and waits for in-flight notifications or for ctx to end.
func (c *Consumer) Shutdown(ctx context.Context) error {
	atomic.StoreInt32(&c.inShutdown, 1)

	c.mu.Lock()
	c.closeDoneChanLocked()
	for _, f := range c.onShutdown {
		go f()
	}
	c.mu.Unlock()

	finished := make(chan struct{}, 1)
	go func() {
		c.activeWG.Wait()
		finished <- struct{}{}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-finished:
		return nil
	}
}

func (c *Consumer) closeDoneChanLocked() {
	select {
	case <-c.doneChan:
		// Already closed.
	default:
		close(c.doneChan)
	}
}

func isTemporary(err error) bool {
	var (
		conditionalCheckFailedError ConditionalCheckFailedError
		dynamoDBAPIError            DynamoDBAPIError
	)
	return errors.As(err, &conditionalCheckFailedError) || errors.As(err, &dynamoDBAPIError)
}
