// internal/app/system/dispatch/dispatcher.go
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dalemusser/stratalaw/internal/app/system/mailer"
	"github.com/dalemusser/stratalaw/internal/app/system/timeouts"
	"github.com/dalemusser/stratalaw/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Queue is the outbox as seen by the dispatcher. *outboxstore.Store implements it.
type Queue interface {
	ClaimNext(ctx context.Context, workerID string) (*models.Notification, error)
	Complete(ctx context.Context, id primitive.ObjectID) error
	Fail(ctx context.Context, id primitive.ObjectID, errMsg string, retryDelay time.Duration) (*models.Notification, error)
}

// Config holds configuration for the dispatcher.
type Config struct {
	// Workers is the number of concurrent senders.
	Workers int

	// PollInterval is how often each idle worker looks for due notifications.
	PollInterval time.Duration

	// RetryDelay is the base delay before a failed send is retried.
	// The store multiplies it by the attempt count.
	RetryDelay time.Duration

	// SendTimeout bounds a single send, including the SMTP exchange.
	SendTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:      2,
		PollInterval: 2 * time.Second,
		RetryDelay:   30 * time.Second,
		SendTimeout:  time.Minute,
	}
}

// ErrNotConfigured is recorded on notifications claimed while SMTP is unset.
var ErrNotConfigured = errors.New("mail delivery is not configured")

// Dispatcher claims due notifications from the outbox and sends them.
type Dispatcher struct {
	queue  Queue
	sender mailer.Sender
	config Config
	logger *zap.Logger

	workerID string
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	active   atomic.Int32
	sent     atomic.Int64
	failed   atomic.Int64

	mu      sync.Mutex
	started bool
}

// New creates a dispatcher. A nil sender leaves every claimed notification
// failing with ErrNotConfigured so it stays visible in the outbox.
func New(queue Queue, sender mailer.Sender, logger *zap.Logger, cfg Config) *Dispatcher {
	def := DefaultConfig()
	if cfg.Workers < 1 {
		cfg.Workers = def.Workers
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = def.SendTimeout
	}
	return &Dispatcher{
		queue:    queue,
		sender:   sender,
		config:   cfg,
		logger:   logger,
		workerID: uuid.New().String()[:8],
	}
}

// Start launches the workers. It returns an error if already started.
func (d *Dispatcher) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return fmt.Errorf("dispatcher already started")
	}
	d.started = true

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel

	for i := 0; i < d.config.Workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, fmt.Sprintf("%s-%d", d.workerID, i))
	}

	d.logger.Info("notification dispatcher started",
		zap.String("worker_id", d.workerID),
		zap.Int("workers", d.config.Workers),
		zap.Duration("poll_interval", d.config.PollInterval))
	return nil
}

// Stop signals the workers and waits for in-flight sends within ctx's deadline.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	started := d.started
	d.mu.Unlock()
	if !started {
		return nil
	}
	if d.cancel != nil {
		d.cancel()
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("notification dispatcher stopped gracefully",
			zap.Int64("sent", d.sent.Load()),
			zap.Int64("failed", d.failed.Load()))
		return nil
	case <-ctx.Done():
		d.logger.Warn("notification dispatcher shutdown timed out",
			zap.Int32("active_sends", d.active.Load()))
		return ctx.Err()
	}
}

func (d *Dispatcher) worker(ctx context.Context, name string) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Drain everything due before waiting for the next tick.
			for ctx.Err() == nil && d.ProcessNext(ctx, name) {
			}
		}
	}
}

// ProcessNext claims and sends one notification. It reports whether a
// notification was claimed.
func (d *Dispatcher) ProcessNext(ctx context.Context, workerName string) bool {
	claimCtx, cancel := context.WithTimeout(ctx, timeouts.Short())
	n, err := d.queue.ClaimNext(claimCtx, workerName)
	cancel()
	if err != nil {
		if ctx.Err() == nil {
			d.logger.Error("failed to claim notification", zap.Error(err))
		}
		return false
	}
	if n == nil {
		return false
	}

	d.active.Add(1)
	defer d.active.Add(-1)

	start := time.Now()
	sendErr := d.send(ctx, n)

	// Record the outcome even when shutdown cancelled ctx.
	recCtx, cancel := context.WithTimeout(context.Background(), timeouts.Short())
	defer cancel()

	if sendErr != nil {
		d.failed.Add(1)
		after, err := d.queue.Fail(recCtx, n.ID, sendErr.Error(), d.config.RetryDelay)
		if err != nil {
			d.logger.Error("failed to record notification failure",
				zap.String("notification_id", n.ID.Hex()),
				zap.Error(err))
			return true
		}
		d.logger.Warn("notification send failed",
			zap.String("notification_id", n.ID.Hex()),
			zap.String("kind", n.Kind),
			zap.Int("attempt", after.Attempts),
			zap.Int("max_attempts", after.MaxAttempts),
			zap.String("status", after.Status),
			zap.Error(sendErr))
		return true
	}

	d.sent.Add(1)
	if err := d.queue.Complete(recCtx, n.ID); err != nil {
		d.logger.Error("failed to mark notification sent",
			zap.String("notification_id", n.ID.Hex()),
			zap.Error(err))
		return true
	}
	d.logger.Info("notification sent",
		zap.String("notification_id", n.ID.Hex()),
		zap.String("kind", n.Kind),
		zap.Duration("duration", time.Since(start)))
	return true
}

// send runs the SMTP exchange in its own goroutine so SendTimeout and
// shutdown can abandon a hung server.
func (d *Dispatcher) send(ctx context.Context, n *models.Notification) error {
	if d.sender == nil {
		return ErrNotConfigured
	}
	email := mailer.Email{
		To:       n.Payload.To,
		ReplyTo:  n.Payload.ReplyTo,
		Subject:  n.Payload.Subject,
		TextBody: n.Payload.TextBody,
		HTMLBody: n.Payload.HTMLBody,
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.config.SendTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- d.sender.Send(email) }()

	select {
	case err := <-done:
		return err
	case <-sendCtx.Done():
		return fmt.Errorf("send abandoned: %w", sendCtx.Err())
	}
}

// Stats is a snapshot of dispatcher counters since Start.
type Stats struct {
	WorkerID    string `json:"worker_id"`
	Workers     int    `json:"workers"`
	ActiveSends int32  `json:"active_sends"`
	Sent        int64  `json:"sent"`
	Failed      int64  `json:"failed"`
}

// Stats returns current counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		WorkerID:    d.workerID,
		Workers:     d.config.Workers,
		ActiveSends: d.active.Load(),
		Sent:        d.sent.Load(),
		Failed:      d.failed.Load(),
	}
}
