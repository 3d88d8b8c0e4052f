package payment

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SimulatedConfig drives the simulated gateway: every charge succeeds after
// Delay unless the card number is listed in Declines.
type SimulatedConfig struct {
	Delay    time.Duration
	Declines map[string]string
}

// DefaultDeclines mirrors well-known test card numbers.
var DefaultDeclines = map[string]string{
	"4000000000000002": CodeCardDeclined,
	"4000000000009995": "insufficient_funds",
	"4000000000000069": "expired_card",
	"4000000000000119": CodeProcessingError,
}

type Simulated struct {
	cfg SimulatedConfig

	mu      sync.Mutex
	charges map[string]*Charge
	byKey   map[string]string
}

func NewSimulated(cfg SimulatedConfig) *Simulated {
	if cfg.Declines == nil {
		cfg.Declines = DefaultDeclines
	}
	return &Simulated{
		cfg:     cfg,
		charges: make(map[string]*Charge),
		byKey:   make(map[string]string),
	}
}

func (s *Simulated) Name() string { return ProviderSimulated }

func (s *Simulated) Charge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	if req.Amount <= 0 {
		return nil, &ChargeError{Code: CodeInvalidRequest, Reason: "amount must be positive"}
	}

	if s.cfg.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, AsChargeError(ctx.Err())
		case <-time.After(s.cfg.Delay):
		}
	}

	number := strings.ReplaceAll(req.Details.CardNumber, " ", "")
	if code, ok := s.cfg.Declines[number]; ok {
		return nil, &ChargeError{
			Code:      code,
			Reason:    "the card was declined",
			Retryable: code == CodeProcessingError,
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if req.IdempotencyKey != "" {
		if c, ok := s.charges[s.byKey[req.IdempotencyKey]]; ok {
			out := *c
			return &out, nil
		}
	}

	c := &Charge{
		ID:       fmt.Sprintf("sim_ch_%s", uuid.NewString()[:12]),
		Provider: ProviderSimulated,
		Amount:   req.Amount,
		Currency: req.Currency,
	}
	s.charges[c.ID] = c
	if req.IdempotencyKey != "" {
		s.byKey[req.IdempotencyKey] = c.ID
	}

	out := *c
	return &out, nil
}

func (s *Simulated) Refund(_ context.Context, chargeID string, amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.charges[chargeID]
	if !ok {
		return fmt.Errorf("%w: unknown charge %s", ErrRefundFailed, chargeID)
	}
	if amount > c.Amount {
		return fmt.Errorf("%w: amount exceeds charge", ErrRefundFailed)
	}
	delete(s.charges, chargeID)
	maps.DeleteFunc(s.byKey, func(_, id string) bool { return id == chargeID })
	return nil
}
