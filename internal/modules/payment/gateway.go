package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	ProviderSimulated = "simulated"
	ProviderStripe    = "stripe"
)

// Details are the card fields captured by the payment step. Token is the
// provider-side payment method id when the client tokenized the card.
type Details struct {
	CardNumber string `json:"card_number"`
	CardName   string `json:"card_name"`
	CardExpiry string `json:"card_expiry"`
	CardCVC    string `json:"card_cvc"`
	Token      string `json:"token,omitempty"`
}

// Complete reports whether all four card fields are present.
func (d Details) Complete() bool {
	return strings.TrimSpace(d.CardNumber) != "" &&
		strings.TrimSpace(d.CardName) != "" &&
		strings.TrimSpace(d.CardExpiry) != "" &&
		strings.TrimSpace(d.CardCVC) != ""
}

// Last4 is the only card data that may leave the payment step.
func (d Details) Last4() string {
	digits := make([]rune, 0, len(d.CardNumber))
	for _, r := range d.CardNumber {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) < 4 {
		return ""
	}
	return string(digits[len(digits)-4:])
}

type ChargeRequest struct {
	Amount         float64
	Currency       string
	Description    string
	CustomerEmail  string
	IdempotencyKey string
	Details        Details
	Metadata       map[string]string
}

type Charge struct {
	ID       string
	Provider string
	Amount   float64
	Currency string
}

// Gateway is the payment collaborator.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*Charge, error)
	Refund(ctx context.Context, chargeID string, amount float64) error
	Name() string
}

// ChargeError is a failed charge. Retryable errors may succeed when the
// same request is sent again with the same idempotency key.
type ChargeError struct {
	Code      string
	Reason    string
	Retryable bool
	Err       error
}

func (e *ChargeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("charge failed: %s: %s", e.Code, e.Reason)
	}
	return "charge failed: " + e.Code
}

func (e *ChargeError) Unwrap() error { return e.Err }

const (
	CodeCardDeclined    = "card_declined"
	CodeTimeout         = "timeout"
	CodeProcessingError = "processing_error"
	CodeMissingMethod   = "payment_method_required"
	CodeRequiresAction  = "requires_action"
	CodeInvalidRequest  = "invalid_request"
	CodeProviderError   = "provider_error"
)

var ErrRefundFailed = errors.New("refund failed")

// AsChargeError extracts a *ChargeError, wrapping unknown errors as
// non-retryable provider errors.
func AsChargeError(err error) *ChargeError {
	if err == nil {
		return nil
	}
	var ce *ChargeError
	if errors.As(err, &ce) {
		return ce
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ChargeError{Code: CodeTimeout, Reason: "payment provider did not answer in time", Retryable: true, Err: err}
	}
	return &ChargeError{Code: CodeProviderError, Reason: err.Error(), Err: err}
}
