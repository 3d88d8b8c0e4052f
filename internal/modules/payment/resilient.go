package payment

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

type RetryConfig struct {
	// MaxRetries is the number of extra attempts after the first one.
	MaxRetries      int
	AttemptTimeout  time.Duration
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	JitterFactor    float64
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      2,
		AttemptTimeout:  10 * time.Second,
		InitialInterval: 250 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.1,
	}
}

// Resilient bounds every charge attempt by a timeout and retries retryable
// failures with exponential backoff. Refunds get a single bounded attempt.
type Resilient struct {
	next Gateway
	cfg  RetryConfig
	log  *zap.Logger
}

func NewResilient(next Gateway, cfg RetryConfig, log *zap.Logger) *Resilient {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = 1
	}
	return &Resilient{next: next, cfg: cfg, log: log}
}

func (r *Resilient) Name() string { return r.next.Name() }

func (r *Resilient) Charge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	var lastErr *ChargeError

	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return nil, lastErr
			}
			return nil, AsChargeError(err)
		}

		c, err := r.attempt(ctx, req)
		if err == nil {
			return c, nil
		}

		lastErr = AsChargeError(err)
		if !lastErr.Retryable || attempt == r.cfg.MaxRetries {
			break
		}

		wait := r.interval(attempt)
		r.log.Warn("charge attempt failed, retrying",
			zap.String("provider", r.next.Name()),
			zap.Int("attempt", attempt+1),
			zap.String("code", lastErr.Code),
			zap.Duration("backoff", wait),
		)

		select {
		case <-ctx.Done():
			return nil, lastErr
		case <-time.After(wait):
		}
	}

	return nil, lastErr
}

func (r *Resilient) attempt(ctx context.Context, req ChargeRequest) (*Charge, error) {
	if r.cfg.AttemptTimeout <= 0 {
		return r.next.Charge(ctx, req)
	}
	actx, cancel := context.WithTimeout(ctx, r.cfg.AttemptTimeout)
	defer cancel()

	c, err := r.next.Charge(actx, req)
	if err != nil && errors.Is(actx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return nil, &ChargeError{Code: CodeTimeout, Reason: "payment provider did not answer in time", Retryable: true, Err: err}
	}
	return c, err
}

func (r *Resilient) Refund(ctx context.Context, chargeID string, amount float64) error {
	if r.cfg.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.AttemptTimeout)
		defer cancel()
	}
	return r.next.Refund(ctx, chargeID, amount)
}

func (r *Resilient) interval(attempt int) time.Duration {
	iv := float64(r.cfg.InitialInterval) * math.Pow(r.cfg.Multiplier, float64(attempt))
	if r.cfg.MaxInterval > 0 && iv > float64(r.cfg.MaxInterval) {
		iv = float64(r.cfg.MaxInterval)
	}
	if r.cfg.JitterFactor > 0 {
		delta := iv * r.cfg.JitterFactor
		iv = iv - delta + rand.Float64()*2*delta
	}
	return time.Duration(iv)
}
