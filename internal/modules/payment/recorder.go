package payment

import (
	"context"

	"go.uber.org/zap"

	"culturin/internal/domain"
)

type AttemptRepository interface {
	Create(ctx context.Context, p *domain.PaymentAttempt) error
	MarkRefunded(ctx context.Context, chargeID string) error
}

// Recorder writes one payment_attempts row per charge outcome. Logging
// failures never change the charge result.
type Recorder struct {
	next Gateway
	repo AttemptRepository
	log  *zap.Logger
}

func NewRecorder(next Gateway, repo AttemptRepository, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{next: next, repo: repo, log: log}
}

func (r *Recorder) Name() string { return r.next.Name() }

func (r *Recorder) Charge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	c, err := r.next.Charge(ctx, req)

	attempt := &domain.PaymentAttempt{
		SessionID:      req.Metadata["session_id"],
		IdempotencyKey: req.IdempotencyKey,
		Provider:       r.next.Name(),
		Amount:         req.Amount,
		Currency:       req.Currency,
	}
	if err != nil {
		ce := AsChargeError(err)
		attempt.Status = domain.PaymentAttemptFailed
		attempt.FailureCode = ce.Code
		attempt.FailureReason = ce.Reason
	} else {
		attempt.Status = domain.PaymentAttemptSucceeded
		attempt.ChargeID = c.ID
	}

	// the request context may already be done after a timeout
	if werr := r.repo.Create(context.WithoutCancel(ctx), attempt); werr != nil {
		r.log.Error("failed to record payment attempt",
			zap.String("session_id", attempt.SessionID),
			zap.Error(werr),
		)
	}
	return c, err
}

func (r *Recorder) Refund(ctx context.Context, chargeID string, amount float64) error {
	if err := r.next.Refund(ctx, chargeID, amount); err != nil {
		return err
	}
	if err := r.repo.MarkRefunded(context.WithoutCancel(ctx), chargeID); err != nil {
		r.log.Error("failed to mark payment attempt refunded",
			zap.String("charge_id", chargeID),
			zap.Error(err),
		)
	}
	return nil
}
