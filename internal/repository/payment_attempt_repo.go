package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"culturin/internal/domain"
)

type PaymentAttemptRepository struct {
	db *gorm.DB
}

func NewPaymentAttemptRepository(db *gorm.DB) *PaymentAttemptRepository {
	return &PaymentAttemptRepository{db: db}
}

func (r *PaymentAttemptRepository) Create(ctx context.Context, p *domain.PaymentAttempt) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PaymentAttemptRepository) MarkRefunded(ctx context.Context, chargeID string) error {
	return r.db.WithContext(ctx).
		Model(&domain.PaymentAttempt{}).
		Where("charge_id = ?", chargeID).
		Update("status", domain.PaymentAttemptRefunded).Error
}

func (r *PaymentAttemptRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.PaymentAttempt, error) {
	var out []domain.PaymentAttempt
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("id ASC").Find(&out).Error
	return out, err
}

// DeleteSettledOlderThan removes failed and refunded attempts created before now-age.
func (r *PaymentAttemptRepository) DeleteSettledOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("status IN ? AND created_at < ?",
			[]domain.PaymentAttemptStatus{domain.PaymentAttemptFailed, domain.PaymentAttemptRefunded},
			time.Now().Add(-age)).
		Delete(&domain.PaymentAttempt{})
	return res.RowsAffected, res.Error
}
