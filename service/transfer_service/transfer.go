package transfer_service

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"bot-file-system/common"
	"bot-file-system/conf"
	"bot-file-system/logging"
	"bot-file-system/node"
)

// BlobRef where one stored blob lives
type BlobRef struct {
	NodeID string `json:"nodeId"`
	BlobID string `json:"blobId"`
}

// RetryPolicy retry budget and backoff schedule of one transfer
type RetryPolicy struct {
	MaxRetries     int // Extra attempts after the first
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	Multiplier     float64
	Jitter         float64 // 0.1 means the delay varies by +-10%
	AttemptTimeout time.Duration
}

// RetryPolicyFromConfig retry policy from transfer configuration
func RetryPolicyFromConfig(cfg conf.TransferConfig) RetryPolicy {
	return RetryPolicy{
		MaxRetries:     cfg.MaxRetries,
		InitialDelay:   cfg.InitialDelay,
		MaxDelay:       cfg.MaxDelay,
		Multiplier:     cfg.Multiplier,
		Jitter:         cfg.Jitter,
		AttemptTimeout: cfg.AttemptTimeout,
	}
}

// Backoff delay before retry number attempt+1. r in [0,1) picks the
// jitter: 0 gives the low edge, 0.5 the nominal delay.
func (p RetryPolicy) Backoff(attempt int, r float64) time.Duration {
	nominal := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt))
	if max := float64(p.MaxDelay); nominal > max {
		nominal = max
	}
	return time.Duration(nominal * (1 + p.Jitter*(2*r-1)))
}

// Transfer moves single blobs to and from nodes, retrying with backoff.
// It is the only layer that retries.
type Transfer struct {
	selector *node.Selector
	policy   RetryPolicy
	log      logging.Logger
	sleep    func(ctx context.Context, d time.Duration) error
	random   func() float64
}

type Option func(*Transfer)

// WithSleep replace the backoff sleep
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(t *Transfer) {
		t.sleep = sleep
	}
}

// WithRandom replace the jitter source
func WithRandom(random func() float64) Option {
	return func(t *Transfer) {
		t.random = random
	}
}

func NewTransfer(selector *node.Selector, policy RetryPolicy, log logging.Logger, opts ...Option) *Transfer {
	t := &Transfer{
		selector: selector,
		policy:   policy,
		log:      log,
		sleep:    sleepContext,
		random:   rand.Float64,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (t *Transfer) attempts() int {
	return t.policy.MaxRetries + 1
}

func (t *Transfer) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if t.policy.AttemptTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, t.policy.AttemptTimeout)
}

// backoffBefore sleeps before attempt (attempt > 0)
func (t *Transfer) backoffBefore(ctx context.Context, attempt int) error {
	if attempt == 0 {
		return nil
	}
	return t.sleep(ctx, t.policy.Backoff(attempt-1, t.random()))
}

// Upload store data on the next selected node
func (t *Transfer) Upload(ctx context.Context, data []byte, name string) (BlobRef, error) {
	if !t.selector.IsAvailable() {
		return BlobRef{}, common.ErrServiceUnavailable
	}

	var lastErr error
	tried := 0
	for attempt := 0; attempt < t.attempts(); attempt++ {
		// The last active node retired on the previous attempt
		if attempt > 0 && !t.selector.IsAvailable() {
			break
		}
		if err := t.backoffBefore(ctx, attempt); err != nil {
			return BlobRef{}, err
		}

		n := t.selector.SelectNode()
		if n == nil {
			if lastErr == nil {
				return BlobRef{}, common.ErrServiceUnavailable
			}
			break
		}
		tried++

		attemptCtx, cancel := t.attemptContext(ctx)
		blobID, err := n.Sink.Upload(attemptCtx, name, data)
		cancel()
		if err == nil {
			t.selector.RecordSuccess(n)
			return BlobRef{NodeID: n.ID, BlobID: blobID}, nil
		}
		// A caller that went away says nothing about the node
		if ctx.Err() != nil {
			return BlobRef{}, ctx.Err()
		}

		t.selector.RecordFailure(n)
		lastErr = fmt.Errorf("node %s: %w", n.ID, err)
		t.log.Warn(ctx, "blob upload attempt failed",
			"node", n.ID, "name", name, "size", len(data), "attempt", attempt+1, "error", err)
	}

	return BlobRef{}, &common.TransportError{Op: "upload", Attempts: tried, Err: lastErr}
}

// Download fetch a blob from the node that holds it. Failures here are
// retried but do not count against the node's health.
func (t *Transfer) Download(ctx context.Context, nodeID, blobID string) ([]byte, error) {
	n := t.selector.Registry().Get(nodeID)
	if n == nil {
		return nil, fmt.Errorf("unknown storage node %s: %w", nodeID, common.ErrStorageUnavailable)
	}

	var lastErr error
	for attempt := 0; attempt < t.attempts(); attempt++ {
		if err := t.backoffBefore(ctx, attempt); err != nil {
			return nil, err
		}

		attemptCtx, cancel := t.attemptContext(ctx)
		data, err := n.Sink.Download(attemptCtx, blobID)
		cancel()
		if err == nil {
			t.selector.RecordSuccess(n)
			return data, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lastErr = fmt.Errorf("node %s: %w", n.ID, err)
		t.log.Warn(ctx, "blob download attempt failed",
			"node", n.ID, "blob", blobID, "attempt", attempt+1, "error", err)
	}

	return nil, &common.TransportError{Op: "download", Attempts: t.attempts(), Err: lastErr}
}
