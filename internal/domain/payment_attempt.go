package domain

import "time"

type PaymentAttemptStatus string

const (
	PaymentAttemptSucceeded PaymentAttemptStatus = "succeeded"
	PaymentAttemptFailed    PaymentAttemptStatus = "failed"
	PaymentAttemptRefunded  PaymentAttemptStatus = "refunded"
)

// PaymentAttempt logs one charge made for a booking session.
type PaymentAttempt struct {
	ID             int64                `json:"id" gorm:"primaryKey"`
	SessionID      string               `json:"session_id" gorm:"size:64;index"`
	IdempotencyKey string               `json:"idempotency_key" gorm:"size:128"`
	Provider       string               `json:"provider" gorm:"size:32"`
	Amount         float64              `json:"amount"`
	Currency       string               `json:"currency" gorm:"size:3"`
	ChargeID       string               `json:"charge_id,omitempty" gorm:"size:128"`
	Status         PaymentAttemptStatus `json:"status" gorm:"size:16;index"`
	FailureCode    string               `json:"failure_code,omitempty"`
	FailureReason  string               `json:"failure_reason,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

func (PaymentAttempt) TableName() string { return "payment_attempts" }
